package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"
	"time"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/operon-extract/internal/operon"
)

// Extraction is one ledger row describing a completed extraction.
type Extraction struct {
	operon.Key
	Folder      string
	Window      operon.Window
	Orientation operon.Orientation
	Votes       operon.Votes
	Records     int
	Proteins    int
	GBKPath     string
	FAAPath     string // empty when no proteins were written
	CreatedAt   time.Time
}

// RecordExtraction appends an extraction to the ledger using the Appender API.
func (s *Store) RecordExtraction(ctx context.Context, e Extraction) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "extractions")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	if err := appender.AppendRow(
		e.GenomeID, e.ContigName, e.OperonContext, e.OperonIx,
		e.Folder, e.Window.Start, e.Window.End, e.Orientation.String(),
		int64(e.Votes.Forward), int64(e.Votes.Reverse),
		int64(e.Records), int64(e.Proteins),
		e.GBKPath, e.FAAPath, e.CreatedAt,
	); err != nil {
		return fmt.Errorf("append extraction: %w", err)
	}

	return appender.Flush()
}

// Extractions returns every ledger row for a genome, oldest first.
func (s *Store) Extractions(genomeID string) ([]Extraction, error) {
	rows, err := s.db.Query(`SELECT
		genome_id, contig_name, operon_context, operon_ix,
		folder, window_start, window_end, orientation,
		fwd_score, rev_score, records, proteins,
		gbk_path, faa_path, created_at
		FROM extractions
		WHERE genome_id=?
		ORDER BY created_at`, genomeID)
	if err != nil {
		return nil, fmt.Errorf("query extractions: %w", err)
	}
	defer rows.Close()

	var out []Extraction
	for rows.Next() {
		var e Extraction
		var orientation string
		if err := rows.Scan(
			&e.GenomeID, &e.ContigName, &e.OperonContext, &e.OperonIx,
			&e.Folder, &e.Window.Start, &e.Window.End, &orientation,
			&e.Votes.Forward, &e.Votes.Reverse, &e.Records, &e.Proteins,
			&e.GBKPath, &e.FAAPath, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan extraction: %w", err)
		}
		if orientation == operon.Reverse.String() {
			e.Orientation = operon.Reverse
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate extractions: %w", err)
	}
	return out, nil
}
