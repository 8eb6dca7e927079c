// Package output provides writers for extraction results.
package output

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"

	"github.com/inodb/operon-extract/internal/genbank"
)

// Protein is a translated coding sequence keyed by its locus tag.
type Protein struct {
	LocusTag string
	Sequence string
}

// CollectProteins gathers one translation per CDS that carries exactly one
// translation qualifier. Proteins keep the order in which their locus tag was
// first seen; a repeated locus tag replaces the earlier sequence. CDS features
// without a locus tag are skipped and counted in untagged.
func CollectProteins(recs []*genbank.Record) (proteins []Protein, untagged int) {
	index := make(map[string]int)
	for _, rec := range recs {
		for i := range rec.Features {
			f := &rec.Features[i]
			if f.Key != "CDS" {
				continue
			}
			translations := f.Values("translation")
			if len(translations) != 1 {
				continue
			}
			tag, ok := f.Value("locus_tag")
			if !ok {
				untagged++
				continue
			}
			if j, seen := index[tag]; seen {
				proteins[j].Sequence = translations[0]
				continue
			}
			index[tag] = len(proteins)
			proteins = append(proteins, Protein{LocusTag: tag, Sequence: translations[0]})
		}
	}
	return proteins, untagged
}

// FAAWriter writes proteins as FASTA with one sequence line per record.
type FAAWriter struct {
	w *bufio.Writer
}

// NewFAAWriter creates a new protein FASTA writer.
func NewFAAWriter(w io.Writer) *FAAWriter {
	return &FAAWriter{w: bufio.NewWriter(w)}
}

// Write writes a single protein.
func (fw *FAAWriter) Write(p Protein) error {
	_, err := fmt.Fprintf(fw.w, ">%s\n%s\n", p.LocusTag, p.Sequence)
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (fw *FAAWriter) Flush() error {
	return fw.w.Flush()
}

// WriteFAAGzip writes proteins to a gzip-compressed FASTA file at path.
func WriteFAAGzip(path string, proteins []Protein) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create faa file: %w", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	defer gz.Close()

	fw := NewFAAWriter(gz)
	for _, p := range proteins {
		if err := fw.Write(p); err != nil {
			return fmt.Errorf("write protein %s: %w", p.LocusTag, err)
		}
	}
	if err := fw.Flush(); err != nil {
		return fmt.Errorf("flush faa: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("close gzip stream: %w", err)
	}
	return f.Close()
}
