// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package genes

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pdiddy/genescout/internal/registry"
	"github.com/pdiddy/genescout/pkg/types"
)

// defaultBlacklist holds tokens the extractor keeps producing that are
// never gene symbols: disease acronyms, abstract section headers, and
// statistics shorthand.
var defaultBlacklist = []string{
	"SARS", "MIS-C", "PIMS", "PIMS-TS", "COVID", "HLA", "HIV", "EBV",
	"CONCLUSIONS", "BACKGROUND", "PATIENTS", "METHODS", "RESULTS",
	"AND", "SD", "INTRODUCTION", "ABSTRACT", "DISCUSSION",
	"GENE", "VARIANT",
}

// variantPattern matches variant-mention keywords on word boundaries.
var variantPattern = regexp.MustCompile(`(?i)\b(variants?|mutations?|alleles?)\b`)

// Validator turns raw paper text into validated gene candidates and
// variant-keyword mentions. A nil extractor disables extraction: both
// outputs stay empty and the pipeline carries on.
type Validator struct {
	registry  *registry.Registry
	extractor Extractor
	blacklist map[string]struct{}
}

// NewValidator builds a Validator. extra extends the built-in blacklist;
// entries are compared uppercase.
func NewValidator(reg *registry.Registry, extractor Extractor, extra []string) *Validator {
	bl := make(map[string]struct{}, len(defaultBlacklist)+len(extra))
	for _, s := range defaultBlacklist {
		bl[s] = struct{}{}
	}
	for _, s := range extra {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			bl[s] = struct{}{}
		}
	}
	return &Validator{registry: reg, extractor: extractor, blacklist: bl}
}

// Genes extracts and validates gene candidates from text. Candidates are
// uppercased, blacklisted tokens dropped, and each survivor flagged with
// its registry approval. Unapproved candidates are kept; dropping them
// would silently lose newly named genes the snapshot has not caught up
// with. The result is sorted by symbol and deduplicated.
func (v *Validator) Genes(text string) []types.GeneCandidate {
	if v.extractor == nil {
		return nil
	}

	seen := make(map[string]struct{})
	var out []types.GeneCandidate
	for _, tok := range v.extractor.Extract(text) {
		symbol := strings.ToUpper(strings.TrimSpace(tok))
		if symbol == "" {
			continue
		}
		if _, banned := v.blacklist[symbol]; banned {
			continue
		}
		if _, dup := seen[symbol]; dup {
			continue
		}
		seen[symbol] = struct{}{}
		out = append(out, types.GeneCandidate{
			Symbol:   symbol,
			Approved: v.registry.Contains(symbol),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// VariantMentions returns the variant keywords present in text,
// lowercased, deduplicated, and sorted. Extraction being disabled
// disables this too: no text analysis happens without an extractor.
func (v *Validator) VariantMentions(text string) []string {
	if v.extractor == nil {
		return nil
	}

	matches := variantPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		m = strings.ToLower(m)
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
