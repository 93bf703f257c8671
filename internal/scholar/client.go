// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scholar is the Semantic Scholar Graph API client used as the
// second, independent citation-count provider. It resolves PMIDs through
// the paper batch endpoint, which accepts up to 500 identifiers per call.
package scholar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pdiddy/genescout/internal/httputil"
)

const (
	// DefaultBaseURL is the Semantic Scholar Graph API root.
	DefaultBaseURL = "https://api.semanticscholar.org/graph/v1"

	apiKeyHeader     = "x-api-key"
	citationFields   = "paperId,citationCount"
	maxResponseBytes = 10 << 20
)

// Config holds the configuration for the Semantic Scholar client.
type Config struct {
	// BaseURL defaults to DefaultBaseURL if empty.
	BaseURL string

	// APIKey is optional; authenticated requests get higher rate limits.
	APIKey string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// RateLimit is the request-per-second ceiling (default 1, the
	// unauthenticated shared-pool allowance).
	RateLimit float64

	// UserAgent is sent with every request.
	UserAgent string
}

// Client fetches citation counts. Safe for concurrent use.
type Client struct {
	cfg  Config
	http *httputil.Client
}

// New creates a Semantic Scholar client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 1
		if cfg.APIKey != "" {
			cfg.RateLimit = 10
		}
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "genescout/0.1"
	}
	return &Client{
		cfg:  cfg,
		http: httputil.NewClient(cfg.Timeout, cfg.RateLimit, int(cfg.RateLimit), cfg.UserAgent, 0),
	}
}

// batchPaper is one entry of the paper batch response. Entries come back
// aligned with the request order; unknown identifiers are null.
type batchPaper struct {
	PaperID       string `json:"paperId"`
	CitationCount *int   `json:"citationCount"`
}

// FetchCitationCounts returns the citation count per PMID. PMIDs unknown
// to Semantic Scholar are absent from the map.
func (c *Client) FetchCitationCounts(ctx context.Context, ids []string) (map[string]int, error) {
	if len(ids) == 0 {
		return map[string]int{}, nil
	}

	// The batch endpoint resolves PMIDs via the PMID: prefix.
	prefixed := make([]string, len(ids))
	for i, id := range ids {
		prefixed[i] = "PMID:" + id
	}

	body, err := json.Marshal(map[string][]string{"ids": prefixed})
	if err != nil {
		return nil, fmt.Errorf("encoding batch request: %w", err)
	}

	reqURL := c.cfg.BaseURL + "/paper/batch?fields=" + citationFields
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set(apiKeyHeader, c.cfg.APIKey)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Semantic Scholar batch request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Semantic Scholar returned HTTP %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading batch response: %w", err)
	}

	var papers []*batchPaper
	if err := json.Unmarshal(raw, &papers); err != nil {
		return nil, fmt.Errorf("parsing batch response: %w", err)
	}
	if len(papers) != len(ids) {
		return nil, fmt.Errorf("batch response has %d entries for %d ids", len(papers), len(ids))
	}

	counts := make(map[string]int, len(ids))
	for i, paper := range papers {
		if paper == nil || paper.CitationCount == nil {
			continue
		}
		counts[ids[i]] = *paper.CitationCount
	}
	return counts, nil
}
