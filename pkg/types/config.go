// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by clients that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "genescout/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// RateLimit is the sustained request rate ceiling in requests per second.
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit"`

	// Burst is the maximum burst of requests the limiter allows at once.
	Burst int `json:"burst" yaml:"burst"`
}

// BatchConfig holds the batch/retry parameters for one external provider.
// Each provider gets its own copy because rate limits and tolerable batch
// sizes differ between NCBI and Semantic Scholar.
type BatchConfig struct {
	// BatchSize is the number of IDs submitted together per request.
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// RetryBatchSize is the floor a failing batch is halved down to before
	// per-chunk retries begin.
	RetryBatchSize int `json:"retry_batch_size" yaml:"retry_batch_size"`

	// MaxRetries is the number of retry attempts per floor-sized chunk.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// BaseDelay is the starting backoff delay; attempt n waits
	// BaseDelay * 2^n plus jitter.
	BaseDelay time.Duration `json:"base_delay" yaml:"base_delay"`

	// Workers bounds the number of batches in flight at once.
	Workers int `json:"workers" yaml:"workers"`
}

// SearchConfig holds settings for the literature search stage.
type SearchConfig struct {
	// Query is the full PubMed query expression.
	Query string `json:"query" yaml:"query"`

	// MaxResults caps the number of PMIDs collected from the search.
	// Truncation is a stable prefix of the backend relevance order.
	MaxResults int `json:"max_results" yaml:"max_results"`

	// PageSize is the retmax used per esearch page.
	PageSize int `json:"page_size" yaml:"page_size"`
}

// RegistryConfig holds settings for the approved gene symbol registry.
type RegistryConfig struct {
	// SourceURL is the HGNC complete-set TSV download location.
	SourceURL string `json:"source_url" yaml:"source_url"`

	// CachePath is the local snapshot file, one approved symbol per line.
	CachePath string `json:"cache_path" yaml:"cache_path"`
}

// MergePolicy selects how two citation-count readings combine into one.
type MergePolicy string

const (
	// MergeMax takes the higher of the two readings. Provider counts are
	// undercounts, never overcounts, so the higher reading is the better
	// estimate. This is the default.
	MergeMax MergePolicy = "max"

	// MergePreferPrimary takes the primary reading when present.
	MergePreferPrimary MergePolicy = "prefer-primary"

	// MergePreferSecondary takes the secondary reading when present.
	MergePreferSecondary MergePolicy = "prefer-secondary"
)

// RunConfig is the complete, immutable configuration for one pipeline run.
// It is assembled once by the CLI and passed into the orchestrator at
// construction; nothing mutates it afterward.
type RunConfig struct {
	Search SearchConfig `json:"search" yaml:"search"`

	Registry RegistryConfig `json:"registry" yaml:"registry"`

	// CriticalIDs is the curated PMID set that must appear in the final
	// record set regardless of search recall.
	CriticalIDs []string `json:"critical_ids" yaml:"critical_ids"`

	// CheckIDs are PMIDs to verify against the query before the run.
	CheckIDs []string `json:"check_ids,omitempty" yaml:"check_ids,omitempty"`

	// ExtraBlacklist extends the built-in gene-symbol blacklist.
	ExtraBlacklist []string `json:"extra_blacklist,omitempty" yaml:"extra_blacklist,omitempty"`

	// MergePolicy selects the citation-count merge rule (default "max").
	MergePolicy MergePolicy `json:"merge_policy" yaml:"merge_policy"`

	// Entrez is the batch/retry profile for NCBI E-utilities calls.
	Entrez BatchConfig `json:"entrez" yaml:"entrez"`

	// Scholar is the batch/retry profile for Semantic Scholar calls.
	Scholar BatchConfig `json:"scholar" yaml:"scholar"`

	// Deadline bounds the cumulative run time; batches still in retry when
	// it expires are treated as partial failures.
	Deadline time.Duration `json:"deadline,omitempty" yaml:"deadline,omitempty"`
}

// ApplyDefaults fills zero-valued fields with working defaults.
func (c *RunConfig) ApplyDefaults() {
	if c.Search.MaxResults <= 0 {
		c.Search.MaxResults = 5000
	}
	if c.Search.PageSize <= 0 {
		c.Search.PageSize = 500
	}
	if c.Registry.SourceURL == "" {
		c.Registry.SourceURL = "https://storage.googleapis.com/public-download-files/hgnc/tsv/hgnc_complete_set.txt"
	}
	if c.Registry.CachePath == "" {
		c.Registry.CachePath = "hgnc_approved_genes.txt"
	}
	if c.MergePolicy == "" {
		c.MergePolicy = MergeMax
	}
	c.Entrez.applyDefaults(10, 3)
	c.Scholar.applyDefaults(100, 10)
}

func (b *BatchConfig) applyDefaults(batchSize, retrySize int) {
	if b.BatchSize <= 0 {
		b.BatchSize = batchSize
	}
	if b.RetryBatchSize <= 0 {
		b.RetryBatchSize = retrySize
	}
	if b.MaxRetries <= 0 {
		b.MaxRetries = 3
	}
	if b.BaseDelay <= 0 {
		b.BaseDelay = 100 * time.Millisecond
	}
	if b.Workers <= 0 {
		b.Workers = 3
	}
}
