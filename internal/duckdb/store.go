// Package duckdb provides DuckDB-backed access to the operon summary table
// and the ledger of completed extractions.
// The summary CSV is queried in place; the ledger is an append-only table.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/inodb/operon-extract/internal/operon"
)

// Store manages a DuckDB connection.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create ledger directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS extractions (
		genome_id VARCHAR,
		contig_name VARCHAR,
		operon_context VARCHAR,
		operon_ix VARCHAR,
		folder VARCHAR,
		window_start BIGINT,
		window_end BIGINT,
		orientation VARCHAR,
		fwd_score BIGINT,
		rev_score BIGINT,
		records BIGINT,
		proteins BIGINT,
		gbk_path VARCHAR,
		faa_path VARCHAR,
		created_at TIMESTAMP
	)`)
	return err
}

// LocateOperon returns the genes of one operon from the summary CSV at csvPath.
// Every column is read as text so the keys, operon_ix included, match as
// strings; coordinates are converted to integers.
func (s *Store) LocateOperon(ctx context.Context, csvPath string, key operon.Key) ([]operon.Row, error) {
	query := fmt.Sprintf(`SELECT
		genome_id, contig_name, operon_context, operon_ix,
		coalesce(gene_name, ''), coalesce(strand, ''),
		CAST(CAST(contig_start AS DOUBLE) AS BIGINT),
		CAST(CAST(contig_end AS DOUBLE) AS BIGINT)
		FROM read_csv(%s, header = true, all_varchar = true)
		WHERE genome_id=? AND contig_name=? AND operon_context=? AND operon_ix=?`,
		quoteLiteral(csvPath))

	rows, err := s.db.QueryContext(ctx, query,
		key.GenomeID, key.ContigName, key.OperonContext, key.OperonIx)
	if err != nil {
		return nil, fmt.Errorf("query operon summary: %w", err)
	}
	defer rows.Close()

	var genes []operon.Row
	for rows.Next() {
		var r operon.Row
		if err := rows.Scan(
			&r.GenomeID, &r.ContigName, &r.OperonContext, &r.OperonIx,
			&r.GeneName, &r.Strand, &r.ContigStart, &r.ContigEnd,
		); err != nil {
			return nil, fmt.Errorf("scan operon row: %w", err)
		}
		genes = append(genes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operon rows: %w", err)
	}
	return genes, nil
}

// CountRows returns the number of data rows in the summary CSV at csvPath.
func (s *Store) CountRows(ctx context.Context, csvPath string) (int64, error) {
	var n int64
	query := fmt.Sprintf(`SELECT count(*) FROM read_csv(%s, header = true, all_varchar = true)`, quoteLiteral(csvPath))
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count operon summary: %w", err)
	}
	return n, nil
}

// quoteLiteral quotes s as a SQL string literal.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
