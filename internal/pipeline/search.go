// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline coordinates the stages of a curation run: literature
// search, critical-set injection, concurrent enrichment fetches, gene
// validation, and record assembly.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/genescout/internal/entrez"
)

// SearchBackend is the paged literature search capability. Implemented by
// the E-utilities client.
type SearchBackend interface {
	Search(ctx context.Context, query string, retStart, retMax int) (*entrez.SearchPage, error)
}

// collectSearchIDs pages through the search backend and returns at most
// maxResults PMIDs: whitespace-normalized, deduplicated on first
// occurrence, in the backend's relevance order. Truncation keeps a stable
// prefix of that order so re-runs over an unchanged corpus are identical.
func collectSearchIDs(ctx context.Context, backend SearchBackend, query string, maxResults, pageSize int) ([]string, error) {
	if pageSize <= 0 {
		pageSize = 500
	}

	seen := make(map[string]struct{})
	var ids []string

	for start := 0; len(ids) < maxResults; start += pageSize {
		page, err := backend.Search(ctx, query, start, pageSize)
		if err != nil {
			return nil, fmt.Errorf("search page at offset %d: %w", start, err)
		}
		if len(page.IDs) == 0 {
			break
		}

		for _, raw := range page.IDs {
			id := strings.TrimSpace(raw)
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
			if len(ids) == maxResults {
				break
			}
		}

		if start+pageSize >= page.Count {
			break
		}
	}

	return ids, nil
}

// injectCritical appends the critical PMIDs the search missed, preserving
// the search order and the critical set's own order among additions. The
// returned set holds the injected-only IDs so records can be tagged by
// origin. The result always contains every critical ID.
func injectCritical(logger zerolog.Logger, searchIDs, criticalIDs []string) ([]string, map[string]struct{}) {
	present := make(map[string]struct{}, len(searchIDs))
	for _, id := range searchIDs {
		present[id] = struct{}{}
	}

	final := searchIDs
	injected := make(map[string]struct{})
	var added []string
	for _, raw := range criticalIDs {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if _, ok := present[id]; ok {
			continue
		}
		present[id] = struct{}{}
		injected[id] = struct{}{}
		final = append(final, id)
		added = append(added, id)
	}

	if len(added) > 0 {
		logger.Info().
			Int("count", len(added)).
			Strs("ids", added).
			Msg("critical papers missing from search results, injecting")
	}

	return final, injected
}
