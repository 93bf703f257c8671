// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package citations reconciles citation counts from two independent
// providers into one reading per paper, keeping both raw values so
// downstream consumers can audit disagreement.
package citations

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/genescout/internal/batch"
	"github.com/pdiddy/genescout/pkg/types"
)

// CountFetcher fetches citation counts for one batch of paper IDs.
type CountFetcher func(ctx context.Context, ids []string) (map[string]int, error)

// Counts holds both raw provider readings and the merged value for one
// paper. A nil field means that provider had no reading for the paper.
type Counts struct {
	Primary   *int
	Secondary *int
	Merged    *int
}

// Aggregator runs both providers through the batch fetcher with
// per-provider batch/retry profiles and merges the readings.
type Aggregator struct {
	primary       CountFetcher
	secondary     CountFetcher
	primaryOpts   batch.Options
	secondaryOpts batch.Options
	policy        types.MergePolicy
}

// New builds an Aggregator. Policy falls back to MergeMax when empty.
func New(primary, secondary CountFetcher, primaryOpts, secondaryOpts batch.Options, policy types.MergePolicy) *Aggregator {
	if policy == "" {
		policy = types.MergeMax
	}
	return &Aggregator{
		primary:       primary,
		secondary:     secondary,
		primaryOpts:   primaryOpts,
		secondaryOpts: secondaryOpts,
		policy:        policy,
	}
}

// Aggregate fetches both providers concurrently and returns the merged
// reading per paper. Provider failures reduce coverage, never abort; the
// returned failures carry the abandoned chunks from both providers.
func (a *Aggregator) Aggregate(ctx context.Context, ids []string) (map[string]Counts, []batch.Failure, error) {
	var primaryCounts, secondaryCounts map[string]int
	var primaryFail, secondaryFail []batch.Failure

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		primaryCounts, primaryFail, err = batch.FetchAll(gctx, ids, a.primaryOpts, batch.FetchFunc[int](a.primary))
		return err
	})
	g.Go(func() error {
		var err error
		secondaryCounts, secondaryFail, err = batch.FetchAll(gctx, ids, a.secondaryOpts, batch.FetchFunc[int](a.secondary))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	out := make(map[string]Counts, len(ids))
	for _, id := range ids {
		c := Counts{}
		if v, ok := primaryCounts[id]; ok {
			n := v
			c.Primary = &n
		}
		if v, ok := secondaryCounts[id]; ok {
			n := v
			c.Secondary = &n
		}
		c.Merged = merge(c.Primary, c.Secondary, a.policy)
		out[id] = c
	}
	return out, append(primaryFail, secondaryFail...), nil
}

// merge applies the configured policy. With one reading absent the other
// wins under every policy; with both absent the merged value is nil.
func merge(primary, secondary *int, policy types.MergePolicy) *int {
	switch {
	case primary == nil && secondary == nil:
		return nil
	case primary == nil:
		return copyInt(secondary)
	case secondary == nil:
		return copyInt(primary)
	}

	switch policy {
	case types.MergePreferPrimary:
		return copyInt(primary)
	case types.MergePreferSecondary:
		return copyInt(secondary)
	default:
		if *primary >= *secondary {
			return copyInt(primary)
		}
		return copyInt(secondary)
	}
}

func copyInt(v *int) *int {
	n := *v
	return &n
}
