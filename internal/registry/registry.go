// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package registry loads the authoritative set of approved gene symbols
// from the HGNC complete-set snapshot. The set is built once per run and
// shared read-only by every consumer.
package registry

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/pdiddy/genescout/internal/httputil"
)

const (
	symbolColumn   = "symbol"
	statusColumn   = "status"
	requiredStatus = "Approved"
)

// Registry answers membership queries over the approved gene symbols.
// Immutable after Load.
type Registry struct {
	symbols map[string]struct{}
}

// FromSymbols builds a registry from an explicit symbol list. Symbols are
// normalized to uppercase.
func FromSymbols(symbols []string) *Registry {
	set := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		if sym = strings.ToUpper(strings.TrimSpace(sym)); sym != "" {
			set[sym] = struct{}{}
		}
	}
	return &Registry{symbols: set}
}

// Contains reports whether symbol (already uppercase) is approved.
func (r *Registry) Contains(symbol string) bool {
	if r == nil {
		return false
	}
	_, ok := r.symbols[symbol]
	return ok
}

// Len returns the number of approved symbols.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.symbols)
}

// Empty reports whether validation is effectively disabled.
func (r *Registry) Empty() bool { return r.Len() == 0 }

// Load returns the approved symbol set. A readable cache at cachePath wins;
// otherwise the HGNC snapshot is downloaded from sourceURL, the approved
// symbols are parsed out and persisted to cachePath (one symbol per line),
// and the parsed set is returned. When both the cache and the download are
// unavailable Load returns an empty registry together with the error so
// the pipeline can continue with validation disabled.
func Load(ctx context.Context, client *httputil.Client, sourceURL, cachePath string) (*Registry, error) {
	if symbols, err := readCache(cachePath); err == nil {
		return &Registry{symbols: symbols}, nil
	}

	symbols, err := download(ctx, client, sourceURL)
	if err != nil {
		return &Registry{symbols: map[string]struct{}{}}, fmt.Errorf("gene registry unavailable: %w", err)
	}

	if err := writeCache(cachePath, symbols); err != nil {
		// A failed cache write degrades the next run, not this one.
		fmt.Fprintf(os.Stderr, "warning: could not write registry cache %s: %v\n", cachePath, err)
	}

	return &Registry{symbols: symbols}, nil
}

// readCache loads a previously persisted snapshot, one symbol per line.
func readCache(path string) (map[string]struct{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	symbols := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		sym := strings.ToUpper(strings.TrimSpace(scanner.Text()))
		if sym != "" {
			symbols[sym] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("registry cache %s is empty", path)
	}
	return symbols, nil
}

// download fetches the HGNC TSV and extracts approved symbols. Columns are
// located by header name, not position, because HGNC reorders columns
// between releases.
func download(ctx context.Context, client *httputil.Client, sourceURL string) (map[string]struct{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", sourceURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nomenclature source returned HTTP %d", resp.StatusCode)
	}

	return parseTSV(resp.Body)
}

// parseTSV reads tab-separated rows with a header line and returns the
// uppercase symbols of rows whose status column equals "Approved".
func parseTSV(r io.Reader) (map[string]struct{}, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("empty nomenclature snapshot")
	}

	header := strings.Split(scanner.Text(), "\t")
	symbolIdx, statusIdx := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case symbolColumn:
			symbolIdx = i
		case statusColumn:
			statusIdx = i
		}
	}
	if symbolIdx < 0 || statusIdx < 0 {
		return nil, fmt.Errorf("snapshot header missing %q or %q column", symbolColumn, statusColumn)
	}

	symbols := make(map[string]struct{})
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) <= symbolIdx || len(fields) <= statusIdx {
			continue
		}
		if strings.TrimSpace(fields[statusIdx]) != requiredStatus {
			continue
		}
		sym := strings.ToUpper(strings.TrimSpace(fields[symbolIdx]))
		if sym != "" {
			symbols[sym] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return symbols, nil
}

// writeCache persists the symbols one per line in sorted order so repeated
// runs produce byte-identical snapshots.
func writeCache(path string, symbols map[string]struct{}) error {
	sorted := make([]string, 0, len(symbols))
	for sym := range symbols {
		sorted = append(sorted, sym)
	}
	sort.Strings(sorted)

	var b strings.Builder
	for _, sym := range sorted {
		b.WriteString(sym)
		b.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
