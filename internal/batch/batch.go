// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package batch provides the shrink-on-failure batch fetch primitive used
// for every bulk call to an external provider. A failing batch is halved
// down to a floor size, floor-sized chunks are retried with exponential
// backoff, and chunks that exhaust their retries are reported as failures
// without discarding results from unrelated chunks.
package batch

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/genescout/pkg/types"
)

// sleepFn waits for the backoff delay, honoring context cancellation.
// Tests override it to record delays instead of sleeping.
var sleepFn = func(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// FetchFunc fetches one batch of IDs from a provider. IDs missing from the
// returned map are treated as absent in the source, not as failures.
type FetchFunc[T any] func(ctx context.Context, ids []string) (map[string]T, error)

// Failure describes one chunk that exhausted its retries. Its member IDs
// are absent from the result map.
type Failure struct {
	IDs      []string
	Attempts int
	Err      error
}

// Options controls chunking, retries, and concurrency for FetchAll.
type Options struct {
	// BatchSize is the initial chunk size. Must be positive.
	BatchSize int

	// RetryBatchSize is the floor a failing chunk is halved down to before
	// retries begin. Defaults to 1.
	RetryBatchSize int

	// MaxRetries is the number of retries per floor-sized chunk after its
	// first failed attempt. Defaults to 3.
	MaxRetries int

	// BaseDelay seeds the exponential backoff: retry n waits
	// BaseDelay * 2^(n-1) plus jitter below BaseDelay/2.
	BaseDelay time.Duration

	// Workers bounds the number of chunks in flight. Defaults to 1.
	Workers int

	// Logger receives per-chunk failure records. Nil disables logging.
	Logger *zerolog.Logger
}

// FromConfig converts a provider batch profile into Options.
func FromConfig(cfg types.BatchConfig, logger *zerolog.Logger) Options {
	return Options{
		BatchSize:      cfg.BatchSize,
		RetryBatchSize: cfg.RetryBatchSize,
		MaxRetries:     cfg.MaxRetries,
		BaseDelay:      cfg.BaseDelay,
		Workers:        cfg.Workers,
		Logger:         logger,
	}
}

func (o *Options) applyDefaults() error {
	if o.BatchSize <= 0 {
		return errors.New("batch size must be positive")
	}
	if o.RetryBatchSize <= 0 {
		o.RetryBatchSize = 1
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = 100 * time.Millisecond
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}
	return nil
}

// FetchAll partitions ids into chunks of opts.BatchSize and fetches each
// through fetch. Chunks run on a bounded worker pool; each worker owns its
// chunk end-to-end including the shrink-and-retry sequence, so no state is
// shared until results merge. The returned error reports malformed input
// only; partial provider failures come back as Failures and never abort
// the call.
func FetchAll[T any](ctx context.Context, ids []string, opts Options, fetch FetchFunc[T]) (map[string]T, []Failure, error) {
	if err := opts.applyDefaults(); err != nil {
		return nil, nil, err
	}

	results := make(map[string]T, len(ids))
	var failures []Failure
	if len(ids) == 0 {
		return results, nil, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for start := 0; start < len(ids); start += opts.BatchSize {
		end := start + opts.BatchSize
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]

		g.Go(func() error {
			got, failed := fetchChunk(gctx, chunk, opts, fetch)
			mu.Lock()
			for k, v := range got {
				results[k] = v
			}
			failures = append(failures, failed...)
			mu.Unlock()
			return nil
		})
	}

	// Workers never return errors; partial failures are data, not aborts.
	g.Wait()

	return results, failures, nil
}

// fetchChunk attempts one chunk, halving on failure until the chunk is at
// or below the retry floor, then retrying floor-sized chunks with backoff.
func fetchChunk[T any](ctx context.Context, ids []string, opts Options, fetch FetchFunc[T]) (map[string]T, []Failure) {
	got, err := fetch(ctx, ids)
	if err == nil {
		return got, nil
	}

	if len(ids) > opts.RetryBatchSize {
		mid := (len(ids) + 1) / 2
		left, leftFail := fetchChunk(ctx, ids[:mid], opts, fetch)
		right, rightFail := fetchChunk(ctx, ids[mid:], opts, fetch)
		merged := make(map[string]T, len(left)+len(right))
		for k, v := range left {
			merged[k] = v
		}
		for k, v := range right {
			merged[k] = v
		}
		return merged, append(leftFail, rightFail...)
	}

	attempts := 1
	for retry := 1; retry <= opts.MaxRetries; retry++ {
		delay := opts.BaseDelay<<(retry-1) + jitter(opts.BaseDelay)
		if sleepErr := sleepFn(ctx, delay); sleepErr != nil {
			err = sleepErr
			break
		}
		attempts++
		got, err = fetch(ctx, ids)
		if err == nil {
			return got, nil
		}
	}

	if opts.Logger != nil {
		opts.Logger.Warn().
			Strs("ids", ids).
			Int("attempts", attempts).
			Err(err).
			Msg("batch chunk abandoned after retries")
	}
	return map[string]T{}, []Failure{{IDs: ids, Attempts: attempts, Err: err}}
}

// jitter returns a random duration below base/2, spreading retries so
// concurrent workers do not hammer a recovering provider in lockstep.
func jitter(base time.Duration) time.Duration {
	half := int64(base / 2)
	if half <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(half))
}
