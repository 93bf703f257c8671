// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package genes extracts gene-like tokens and variant keywords from paper
// text and validates gene candidates against the approved-symbol registry.
package genes

import (
	"regexp"
	"strings"
)

// Extractor produces candidate gene symbols from free text. The pipeline
// treats it as an injected capability so an external NER service can be
// swapped in without touching the validator.
type Extractor interface {
	Extract(text string) []string
}

// geneTokenPattern recognizes symbols in the HGNC style: an uppercase
// letter followed by at least one more uppercase letter or digit, with
// optional hyphenated tails (e.g. IFIH1, TLR7, PIMS-TS, HLA-DRB1).
var geneTokenPattern = regexp.MustCompile(`\b[A-Z][A-Z0-9]{1,9}(?:-[A-Z0-9]{1,6})*\b`)

// LexiconExtractor is the built-in extractor: a lexical recognizer for
// gene-shaped tokens. It over-generates on abbreviations and section
// headers; the validator's blacklist and registry check clean that up.
type LexiconExtractor struct{}

// Extract returns gene-shaped tokens in order of first occurrence,
// deduplicated.
func (LexiconExtractor) Extract(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	matches := geneTokenPattern.FindAllString(text, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}
