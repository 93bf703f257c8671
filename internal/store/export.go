// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/genescout/pkg/types"
)

// ExportDocument is the YAML export layout for one run.
type ExportDocument struct {
	RunID   string              `json:"run_id" yaml:"run_id"`
	Query   string              `json:"query" yaml:"query"`
	Records []types.PaperRecord `json:"records" yaml:"records"`
}

// ExportYAML writes one run's records to dir/export.yaml. Records come
// back from the database in PMID order, so identical runs export
// byte-identical files.
func (s *Store) ExportYAML(ctx context.Context, runID string) error {
	var query string
	err := s.db.QueryRowContext(ctx, `SELECT query FROM runs WHERE id = ?`, runID).Scan(&query)
	if err != nil {
		return fmt.Errorf("loading run %s: %w", runID, err)
	}

	records, err := s.LoadRecords(ctx, runID)
	if err != nil {
		return fmt.Errorf("loading records for export: %w", err)
	}

	doc := ExportDocument{RunID: runID, Query: query, Records: records}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}

	path := filepath.Join(s.dir, "export.yaml")
	return os.WriteFile(path, data, 0o644)
}
