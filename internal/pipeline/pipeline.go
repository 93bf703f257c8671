// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/genescout/internal/batch"
	"github.com/pdiddy/genescout/internal/citations"
	"github.com/pdiddy/genescout/internal/genes"
	"github.com/pdiddy/genescout/pkg/types"
)

// ErrNoQuery is returned at construction when the search query is empty.
var ErrNoQuery = errors.New("pipeline: search query is required")

// LiteratureBackend is everything the orchestrator needs from the
// literature provider. Implemented by the E-utilities client.
type LiteratureBackend interface {
	SearchBackend
	FetchTitles(ctx context.Context, ids []string) (map[string]string, error)
	FetchAbstracts(ctx context.Context, ids []string) (map[string]string, error)
	FetchCitationCounts(ctx context.Context, ids []string) (map[string]int, error)
}

// Result is the output of one curation run.
type Result struct {
	// RunID uniquely identifies this run in the store.
	RunID string

	// Query is the search expression the run used.
	Query string

	// Records maps PMID to its enriched record.
	Records map[string]types.PaperRecord

	// Failures lists the batch chunks abandoned after retries. Their IDs
	// still appear in Records with the affected fields absent.
	Failures []batch.Failure
}

// SortedRecords returns the records ordered by PMID for deterministic
// output.
func (r *Result) SortedRecords() []types.PaperRecord {
	ids := make([]string, 0, len(r.Records))
	for id := range r.Records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]types.PaperRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.Records[id])
	}
	return out
}

// Orchestrator runs the full curation pipeline. Construct once per run;
// the configuration is immutable after New.
type Orchestrator struct {
	cfg       types.RunConfig
	backend   LiteratureBackend
	secondary citations.CountFetcher
	validator *genes.Validator
	logger    zerolog.Logger
}

// New validates the configuration and builds an Orchestrator. A missing
// query is fatal here, before any network activity. secondary may be nil
// to run with the primary citation provider only.
func New(cfg types.RunConfig, backend LiteratureBackend, secondary citations.CountFetcher, validator *genes.Validator, logger zerolog.Logger) (*Orchestrator, error) {
	if strings.TrimSpace(cfg.Search.Query) == "" {
		return nil, ErrNoQuery
	}
	cfg.ApplyDefaults()
	return &Orchestrator{
		cfg:       cfg,
		backend:   backend,
		secondary: secondary,
		validator: validator,
		logger:    logger,
	}, nil
}

// Run executes search, injection, enrichment, and validation, and returns
// the assembled record set. Provider failures degrade individual fields
// and are reported in Result.Failures; Run errors only on cancellation or
// a failed search.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	if o.cfg.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.Deadline)
		defer cancel()
	}

	runID := uuid.New().String()
	logger := o.logger.With().Str("run_id", runID).Logger()

	searchIDs, err := collectSearchIDs(ctx, o.backend, o.cfg.Search.Query, o.cfg.Search.MaxResults, o.cfg.Search.PageSize)
	if err != nil {
		return nil, fmt.Errorf("literature search: %w", err)
	}
	logger.Info().Int("count", len(searchIDs)).Msg("search complete")

	ids, injected := injectCritical(logger, searchIDs, o.cfg.CriticalIDs)

	result := &Result{RunID: runID, Query: o.cfg.Search.Query, Records: make(map[string]types.PaperRecord, len(ids))}
	if len(ids) == 0 {
		return result, nil
	}

	entrezOpts := batch.FromConfig(o.cfg.Entrez, &logger)
	scholarOpts := batch.FromConfig(o.cfg.Scholar, &logger)

	var (
		titles    map[string]string
		abstracts map[string]string
		counts    map[string]citations.Counts

		titleFail, abstractFail, citationFail []batch.Failure
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		titles, titleFail, err = batch.FetchAll(gctx, ids, entrezOpts, o.backend.FetchTitles)
		return err
	})
	g.Go(func() error {
		var err error
		abstracts, abstractFail, err = batch.FetchAll(gctx, ids, entrezOpts, o.backend.FetchAbstracts)
		return err
	})
	g.Go(func() error {
		agg := citations.New(o.backend.FetchCitationCounts, o.secondaryOrNone(), entrezOpts, scholarOpts, o.cfg.MergePolicy)
		var err error
		counts, citationFail, err = agg.Aggregate(gctx, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("enrichment fetch: %w", err)
	}

	result.Failures = append(append(titleFail, abstractFail...), citationFail...)
	for _, f := range result.Failures {
		logger.Warn().Strs("ids", f.IDs).Int("attempts", f.Attempts).Err(f.Err).Msg("enrichment incomplete for papers")
	}

	// Single merge point: nothing above mutates Records.
	for _, id := range ids {
		rec := types.PaperRecord{ID: id, Origin: types.OriginSearched}
		if _, ok := injected[id]; ok {
			rec.Origin = types.OriginCriticalOnly
		}
		rec.Title = titles[id]

		if c, ok := counts[id]; ok {
			rec.CitationsPrimary = c.Primary
			rec.CitationsSecondary = c.Secondary
			rec.CitationsMerged = c.Merged
		}

		if o.validator != nil {
			text := strings.TrimSpace(rec.Title + " " + abstracts[id])
			rec.Genes = o.validator.Genes(text)
			rec.VariantMentions = o.validator.VariantMentions(text)
		}

		result.Records[id] = rec
	}

	logger.Info().Int("records", len(result.Records)).Int("failures", len(result.Failures)).Msg("run assembled")
	return result, nil
}

// secondaryOrNone substitutes an empty fetcher when no secondary provider
// is configured, so the aggregator's merge semantics still apply.
func (o *Orchestrator) secondaryOrNone() citations.CountFetcher {
	if o.secondary != nil {
		return o.secondary
	}
	return func(context.Context, []string) (map[string]int, error) {
		return map[string]int{}, nil
	}
}

// Check reports, per PMID, whether the run's query matches it. Used to
// verify the critical set before a long run.
func (o *Orchestrator) Check(ctx context.Context, ids []string) (map[string]bool, error) {
	matched := make(map[string]bool, len(ids))
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}

		term := fmt.Sprintf("(%s) AND %s[uid]", o.cfg.Search.Query, id)
		page, err := o.backend.Search(ctx, term, 0, 1)
		if err != nil {
			return nil, fmt.Errorf("checking %s: %w", id, err)
		}

		matched[id] = false
		for _, got := range page.IDs {
			if strings.TrimSpace(got) == id {
				matched[id] = true
				break
			}
		}
	}
	return matched, nil
}
