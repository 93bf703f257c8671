// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the shared data model and configuration for the
// genescout pipeline.
package types

// Origin records how a paper entered the final record set.
type Origin string

const (
	// OriginSearched marks papers returned by the literature query.
	OriginSearched Origin = "searched"

	// OriginCriticalOnly marks papers injected from the curated critical
	// set because the query missed them.
	OriginCriticalOnly Origin = "critical_only"
)

// GeneCandidate is one gene-like token extracted from a paper, normalized
// to uppercase. Approved reports membership in the HGNC registry at
// validation time; unapproved candidates are retained so novel or
// ungazetted genes are not silently lost.
type GeneCandidate struct {
	Symbol   string `json:"symbol" yaml:"symbol"`
	Approved bool   `json:"approved" yaml:"approved"`
}

// PaperRecord is the enriched output for one PMID. Fields are filled
// incrementally by the fetch stages; a nil count or empty title means the
// provider was unavailable for that paper, not that the source has no
// value.
type PaperRecord struct {
	// ID is the PubMed identifier, whitespace-normalized.
	ID string `json:"id" yaml:"id"`

	// Title is the article title, empty when the summary fetch failed.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// CitationsPrimary is the NCBI cited-in count, nil when unavailable.
	CitationsPrimary *int `json:"citations_primary,omitempty" yaml:"citations_primary,omitempty"`

	// CitationsSecondary is the Semantic Scholar count, nil when unavailable.
	CitationsSecondary *int `json:"citations_secondary,omitempty" yaml:"citations_secondary,omitempty"`

	// CitationsMerged reconciles the two readings per the run's merge policy.
	CitationsMerged *int `json:"citations_merged,omitempty" yaml:"citations_merged,omitempty"`

	// Genes are the validated gene candidates, sorted by symbol.
	Genes []GeneCandidate `json:"genes,omitempty" yaml:"genes,omitempty"`

	// VariantMentions are the variant keywords found in the text, sorted.
	VariantMentions []string `json:"variant_mentions,omitempty" yaml:"variant_mentions,omitempty"`

	// Origin tags whether the search or the critical set produced this record.
	Origin Origin `json:"origin" yaml:"origin"`
}
