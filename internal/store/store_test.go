// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/genescout/pkg/types"
)

func intp(v int) *int { return &v }

func sampleRecords() []types.PaperRecord {
	return []types.PaperRecord{
		{
			ID:                 "111",
			Title:              "TLR7 variants in severe disease",
			CitationsPrimary:   intp(10),
			CitationsSecondary: intp(15),
			CitationsMerged:    intp(15),
			Genes: []types.GeneCandidate{
				{Symbol: "TLR7", Approved: true},
				{Symbol: "XYZ99", Approved: false},
			},
			VariantMentions: []string{"variants"},
			Origin:          types.OriginSearched,
		},
		{
			ID:     "222",
			Title:  "Curated classic",
			Origin: types.OriginCriticalOnly,
		},
	}
}

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, dir
}

func TestSaveAndLoadRun(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	var progress bytes.Buffer
	require.NoError(t, s.SaveRun(ctx, "run-1", "q", sampleRecords(), &progress))
	assert.Contains(t, progress.String(), "2 records")

	records, err := s.LoadRecords(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), records)
}

func TestSaveRun_ResaveReplaces(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRun(ctx, "run-1", "q", sampleRecords(), io.Discard))
	require.NoError(t, s.SaveRun(ctx, "run-1", "q", sampleRecords(), io.Discard))

	records, err := s.LoadRecords(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, records, 2)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Runs)
	assert.Equal(t, 2, stats.Papers)
}

func TestStats(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRun(ctx, "run-1", "q", sampleRecords(), io.Discard))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Runs)
	assert.Equal(t, 2, stats.Papers)
	assert.Equal(t, 1, stats.ApprovedGenes)
	assert.Equal(t, 2, stats.Candidates)
}

func TestExportYAML(t *testing.T) {
	s, dir := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRun(ctx, "run-1", "kawasaki", sampleRecords(), io.Discard))
	require.NoError(t, s.ExportYAML(ctx, "run-1"))

	path := filepath.Join(dir, "export.yaml")
	first, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(first), "run_id: run-1")
	assert.Contains(t, string(first), "TLR7")

	// Re-exporting an unchanged run is byte-identical.
	require.NoError(t, s.ExportYAML(ctx, "run-1"))
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestExportYAML_UnknownRun(t *testing.T) {
	s, _ := newTestStore(t)
	require.Error(t, s.ExportYAML(context.Background(), "nope"))
}
