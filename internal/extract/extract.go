// Package extract runs one operon extraction end to end: locate the operon in
// the summary table, cut the surrounding window out of the GenBank genome,
// orient it by the strand vote and write the per-operon output files.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/inodb/operon-extract/internal/duckdb"
	"github.com/inodb/operon-extract/internal/genbank"
	"github.com/inodb/operon-extract/internal/operon"
	"github.com/inodb/operon-extract/internal/output"
)

// DefaultWindow is the default number of bases added on each side of an operon.
const DefaultWindow = 10000

var (
	// ErrFolderExists is returned when the operon folder is already present.
	ErrFolderExists = errors.New("operon folder already exists")

	// ErrMissingParameter is returned by Config.Validate for an unset required value.
	ErrMissingParameter = errors.New("missing required parameter")
)

// Config holds the parameters of a single extraction.
type Config struct {
	GenomeID      string
	GenomeName    string
	Contig        string
	OperonContext string
	OperonIx      string
	Window        int64
	AnnotationGBK string
	SummaryCSV    string
	OutputDir     string
	GFF           bool   // also write a GFF sidecar
	Ledger        string // DuckDB file receiving one row per extraction
}

// Key returns the summary-table key of the configured operon.
func (c Config) Key() operon.Key {
	return operon.Key{
		GenomeID:      c.GenomeID,
		ContigName:    c.Contig,
		OperonContext: c.OperonContext,
		OperonIx:      c.OperonIx,
	}
}

// Validate checks that every required parameter is set.
func (c Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"genome-id", c.GenomeID},
		{"contig", c.Contig},
		{"operon-context", c.OperonContext},
		{"operon-ix", c.OperonIx},
		{"annotation-gbk", c.AnnotationGBK},
		{"summary-csv", c.SummaryCSV},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%w: --%s", ErrMissingParameter, r.name)
		}
	}
	return nil
}

// Result describes a completed extraction.
type Result struct {
	Folder      string
	Window      operon.Window
	Votes       operon.Votes
	Orientation operon.Orientation
	Records     int
	Proteins    int
	GBKPath     string
	FAAPath     string // empty when no proteins were found
	GFFPath     string // empty unless the sidecar was requested
}

// Extractor runs extractions.
type Extractor struct {
	cfg    Config
	logger *zap.Logger
}

// New creates an extractor for the given configuration.
func New(cfg Config) *Extractor {
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	return &Extractor{
		cfg:    cfg,
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for progress and warning messages.
func (e *Extractor) SetLogger(l *zap.Logger) {
	e.logger = l
}

// Run performs the extraction. Nothing is written to the output directory
// unless the operon is found and its orientation can be resolved.
func (e *Extractor) Run(ctx context.Context) (*Result, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	key := e.cfg.Key()

	e.logger.Info("extracting operon",
		zap.String("genome_id", key.GenomeID),
		zap.String("genome_name", e.cfg.GenomeName),
		zap.String("contig", key.ContigName),
		zap.String("operon_context", key.OperonContext),
		zap.String("operon_ix", key.OperonIx))

	store, err := duckdb.Open(e.cfg.Ledger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	e.logger.Info("loading operon summary", zap.String("path", e.cfg.SummaryCSV))
	if ce := e.logger.Check(zap.DebugLevel, "operon summary rows"); ce != nil {
		n, err := store.CountRows(ctx, e.cfg.SummaryCSV)
		if err != nil {
			return nil, err
		}
		ce.Write(zap.Int64("count", n))
	}
	rows, err := store.LocateOperon(ctx, e.cfg.SummaryCSV, key)
	if err != nil {
		return nil, fmt.Errorf("locate operon: %w", err)
	}
	e.logger.Debug("operon genes", zap.Int("count", len(rows)))

	window, err := operon.Span(rows, e.cfg.Window)
	if err != nil {
		return nil, fmt.Errorf("operon %s: %w", key.FileStem(), err)
	}
	e.logger.Info("annotation window",
		zap.Int64("start", window.Start),
		zap.Int64("end", window.End))

	e.logger.Info("reading genome annotation", zap.String("path", e.cfg.AnnotationGBK))
	records, err := e.extractRecords(window)
	if err != nil {
		return nil, err
	}
	e.logger.Info("records extracted", zap.Int("count", len(records)))

	exp, err := operon.ParseContext(key.OperonContext)
	if err != nil {
		return nil, err
	}
	votes, err := operon.Vote(rows, exp)
	if err != nil {
		return nil, fmt.Errorf("operon %s: %w", key.FileStem(), err)
	}
	orientation := votes.Orientation()
	e.logger.Info("operon orientation",
		zap.Stringer("orientation", orientation),
		zap.Int("forward", votes.Forward),
		zap.Int("reverse", votes.Reverse))

	if orientation == operon.Reverse {
		for i, rec := range records {
			records[i] = rec.ReverseComplement()
		}
	}

	res := &Result{
		Folder:      filepath.Join(e.cfg.OutputDir, operon.FolderName(key.OperonContext)),
		Window:      window,
		Votes:       votes,
		Orientation: orientation,
		Records:     len(records),
	}
	var gffData []byte
	if e.cfg.GFF {
		if gffData, err = renderGFF(records); err != nil {
			return nil, err
		}
	}
	if err := e.writeOutputs(res, key.FileStem(), records, gffData); err != nil {
		return nil, err
	}

	if e.cfg.Ledger != "" {
		if err := store.RecordExtraction(ctx, duckdb.Extraction{
			Key:         key,
			Folder:      res.Folder,
			Window:      res.Window,
			Orientation: res.Orientation,
			Votes:       res.Votes,
			Records:     res.Records,
			Proteins:    res.Proteins,
			GBKPath:     res.GBKPath,
			FAAPath:     res.FAAPath,
		}); err != nil {
			return nil, fmt.Errorf("record extraction: %w", err)
		}
		e.logger.Debug("extraction recorded", zap.String("ledger", e.cfg.Ledger))
	}

	e.logger.Info("extraction complete", zap.String("folder", res.Folder))
	return res, nil
}

// extractRecords returns the window slice of every record whose identifier
// equals the configured contig.
func (e *Extractor) extractRecords(w operon.Window) ([]*genbank.Record, error) {
	r, err := genbank.Open(e.cfg.AnnotationGBK)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var out []*genbank.Record
	for {
		rec, err := r.Next()
		if err != nil {
			return nil, fmt.Errorf("read genbank: %w", err)
		}
		if rec == nil {
			break
		}
		if rec.ID != e.cfg.Contig {
			continue
		}
		start, end := w.Bounds(rec.Len())
		out = append(out, rec.Slice(start, end))
	}
	return out, nil
}

// writeOutputs creates the operon folder and writes every output file into it.
// gffData holds the rendered sidecar, or nil when none was requested.
func (e *Extractor) writeOutputs(res *Result, stem string, records []*genbank.Record, gffData []byte) error {
	if err := os.Mkdir(res.Folder, 0755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrFolderExists, res.Folder)
		}
		return fmt.Errorf("create operon folder: %w", err)
	}

	gbkDir := filepath.Join(res.Folder, "gbk")
	if err := os.Mkdir(gbkDir, 0755); err != nil {
		return fmt.Errorf("create gbk folder: %w", err)
	}
	res.GBKPath = filepath.Join(gbkDir, stem+".gbk")
	if err := writeGenBank(res.GBKPath, records); err != nil {
		return err
	}
	e.logger.Info("wrote genbank", zap.String("path", res.GBKPath))

	faaDir := filepath.Join(res.Folder, "faa")
	if err := os.Mkdir(faaDir, 0755); err != nil {
		return fmt.Errorf("create faa folder: %w", err)
	}
	proteins, untagged := output.CollectProteins(records)
	if untagged > 0 {
		e.logger.Warn("skipped CDS features without locus_tag", zap.Int("count", untagged))
	}
	res.Proteins = len(proteins)
	if len(proteins) > 0 {
		res.FAAPath = filepath.Join(faaDir, stem+".faa.gz")
		if err := output.WriteFAAGzip(res.FAAPath, proteins); err != nil {
			return err
		}
		e.logger.Info("wrote proteins",
			zap.String("path", res.FAAPath),
			zap.Int("count", len(proteins)))
	} else {
		e.logger.Info("no translations found, skipping protein output")
	}

	if gffData != nil {
		gffDir := filepath.Join(res.Folder, "gff")
		if err := os.Mkdir(gffDir, 0755); err != nil {
			return fmt.Errorf("create gff folder: %w", err)
		}
		res.GFFPath = filepath.Join(gffDir, stem+".gff")
		if err := os.WriteFile(res.GFFPath, gffData, 0644); err != nil {
			return fmt.Errorf("write gff file: %w", err)
		}
		e.logger.Info("wrote gff", zap.String("path", res.GFFPath))
	}
	return nil
}

func writeGenBank(path string, records []*genbank.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create genbank file: %w", err)
	}
	defer f.Close()

	w := genbank.NewWriter(f)
	for _, rec := range records {
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write record %s: %w", rec.ID, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush genbank: %w", err)
	}
	return f.Close()
}

// renderGFF formats the records as GFF in memory, so a feature the format
// cannot hold fails the run before any output exists.
func renderGFF(records []*genbank.Record) ([]byte, error) {
	var buf bytes.Buffer
	w := output.NewGFFWriter(&buf)
	for _, rec := range records {
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("flush gff: %w", err)
	}
	return buf.Bytes(), nil
}
