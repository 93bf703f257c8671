// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists curation run results in a SQLite database and
// exports record sets to YAML.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/genescout/pkg/types"
)

const dbFile = "genescout.db"

// Store manages the curation results SQLite database.
type Store struct {
	db  *sql.DB
	dir string
}

// NewStore opens or creates the results database at dir/genescout.db and
// creates the schema if it does not exist.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating results directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, dir: dir}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			created_at TEXT NOT NULL,
			record_count INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS papers (
			run_id TEXT NOT NULL REFERENCES runs(id),
			id TEXT NOT NULL,
			title TEXT,
			citations_primary INTEGER,
			citations_secondary INTEGER,
			citations_merged INTEGER,
			origin TEXT NOT NULL,
			PRIMARY KEY (run_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS paper_genes (
			run_id TEXT NOT NULL,
			paper_id TEXT NOT NULL,
			symbol TEXT NOT NULL,
			approved INTEGER NOT NULL,
			PRIMARY KEY (run_id, paper_id, symbol),
			FOREIGN KEY (run_id, paper_id) REFERENCES papers(run_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS paper_variants (
			run_id TEXT NOT NULL,
			paper_id TEXT NOT NULL,
			keyword TEXT NOT NULL,
			PRIMARY KEY (run_id, paper_id, keyword),
			FOREIGN KEY (run_id, paper_id) REFERENCES papers(run_id, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_paper_genes_symbol ON paper_genes(symbol)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveRun persists one run and its records in a single transaction.
// Re-saving the same run ID replaces its records, so a re-run with
// identical input leaves identical rows behind.
func (s *Store) SaveRun(ctx context.Context, runID, query string, records []types.PaperRecord, w io.Writer) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"paper_genes", "paper_variants", "papers"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE run_id = ?`, runID); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, query, created_at, record_count) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			query=excluded.query, created_at=excluded.created_at,
			record_count=excluded.record_count`,
		runID, query, time.Now().UTC().Format(time.RFC3339), len(records),
	)
	if err != nil {
		return fmt.Errorf("upserting run: %w", err)
	}

	paperStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO papers (run_id, id, title, citations_primary, citations_secondary, citations_merged, origin)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing paper insert: %w", err)
	}
	defer paperStmt.Close()

	geneStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO paper_genes (run_id, paper_id, symbol, approved) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing gene insert: %w", err)
	}
	defer geneStmt.Close()

	variantStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO paper_variants (run_id, paper_id, keyword) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing variant insert: %w", err)
	}
	defer variantStmt.Close()

	for _, rec := range records {
		_, err := paperStmt.ExecContext(ctx,
			runID, rec.ID, rec.Title,
			nullableInt(rec.CitationsPrimary),
			nullableInt(rec.CitationsSecondary),
			nullableInt(rec.CitationsMerged),
			string(rec.Origin),
		)
		if err != nil {
			return fmt.Errorf("inserting paper %s: %w", rec.ID, err)
		}

		for _, gene := range rec.Genes {
			if _, err := geneStmt.ExecContext(ctx, runID, rec.ID, gene.Symbol, gene.Approved); err != nil {
				return fmt.Errorf("inserting gene %s for paper %s: %w", gene.Symbol, rec.ID, err)
			}
		}
		for _, keyword := range rec.VariantMentions {
			if _, err := variantStmt.ExecContext(ctx, runID, rec.ID, keyword); err != nil {
				return fmt.Errorf("inserting variant mention for paper %s: %w", rec.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}

	fmt.Fprintf(w, "saved run %s: %d records\n", runID, len(records))
	return nil
}

// Stats holds aggregate counts over the stored results.
type Stats struct {
	Runs          int
	Papers        int
	ApprovedGenes int
	Candidates    int
}

// Stats returns aggregate counts across all stored runs.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	queries := []struct {
		dst   *int
		query string
	}{
		{&st.Runs, `SELECT count(*) FROM runs`},
		{&st.Papers, `SELECT count(*) FROM papers`},
		{&st.ApprovedGenes, `SELECT count(DISTINCT symbol) FROM paper_genes WHERE approved = 1`},
		{&st.Candidates, `SELECT count(DISTINCT symbol) FROM paper_genes`},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dst); err != nil {
			return Stats{}, fmt.Errorf("querying stats: %w", err)
		}
	}
	return st, nil
}

// LoadRecords returns the records of one run, ordered by PMID.
func (s *Store) LoadRecords(ctx context.Context, runID string) ([]types.PaperRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, citations_primary, citations_secondary, citations_merged, origin
		 FROM papers WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying papers: %w", err)
	}
	defer rows.Close()

	var records []types.PaperRecord
	for rows.Next() {
		var rec types.PaperRecord
		var primary, secondary, merged sql.NullInt64
		var origin string
		if err := rows.Scan(&rec.ID, &rec.Title, &primary, &secondary, &merged, &origin); err != nil {
			return nil, fmt.Errorf("scanning paper: %w", err)
		}
		rec.CitationsPrimary = intPointer(primary)
		rec.CitationsSecondary = intPointer(secondary)
		rec.CitationsMerged = intPointer(merged)
		rec.Origin = types.Origin(origin)

		if rec.Genes, err = s.loadGenes(ctx, runID, rec.ID); err != nil {
			return nil, err
		}
		if rec.VariantMentions, err = s.loadVariants(ctx, runID, rec.ID); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *Store) loadGenes(ctx context.Context, runID, paperID string) ([]types.GeneCandidate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT symbol, approved FROM paper_genes WHERE run_id = ? AND paper_id = ? ORDER BY symbol`,
		runID, paperID)
	if err != nil {
		return nil, fmt.Errorf("querying genes: %w", err)
	}
	defer rows.Close()

	var genes []types.GeneCandidate
	for rows.Next() {
		var g types.GeneCandidate
		if err := rows.Scan(&g.Symbol, &g.Approved); err != nil {
			return nil, fmt.Errorf("scanning gene: %w", err)
		}
		genes = append(genes, g)
	}
	return genes, rows.Err()
}

func (s *Store) loadVariants(ctx context.Context, runID, paperID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT keyword FROM paper_variants WHERE run_id = ? AND paper_id = ? ORDER BY keyword`,
		runID, paperID)
	if err != nil {
		return nil, fmt.Errorf("querying variant mentions: %w", err)
	}
	defer rows.Close()

	var keywords []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning variant mention: %w", err)
		}
		keywords = append(keywords, k)
	}
	return keywords, rows.Err()
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func intPointer(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
