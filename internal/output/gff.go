package output

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/biogo/biogo/io/featio/gff"

	"github.com/inodb/operon-extract/internal/genbank"
)

// gffSource is written in the source column of every GFF line.
const gffSource = "operon-extract"

// gffAttributes lists the qualifiers copied into GFF attributes, in output order.
var gffAttributes = []string{"locus_tag", "gene", "product"}

// GFFWriter writes record features as GFF version 2, one line per location
// part. The whole-record source feature is skipped. Attribute values are
// written as quoted free text.
type GFFWriter struct {
	buf *bufio.Writer
	w   *gff.Writer
}

// NewGFFWriter creates a new GFF writer. The version header is written first.
func NewGFFWriter(w io.Writer) *GFFWriter {
	b := bufio.NewWriter(w)
	return &GFFWriter{buf: b, w: gff.NewWriter(b, 60, true)}
}

// Write writes the features of a single record.
func (gw *GFFWriter) Write(rec *genbank.Record) error {
	for i := range rec.Features {
		f := &rec.Features[i]
		if f.Key == "source" {
			continue
		}

		var attrs gff.Attributes
		for _, tag := range gffAttributes {
			if v, ok := f.Value(tag); ok {
				attrs = append(attrs, gff.Attribute{Tag: tag, Value: strconv.Quote(v)})
			}
		}

		for _, part := range f.Location.Parts {
			start, end := part.Start, part.End
			if start == end {
				// A between-bases site is written as the base to its left.
				start, end = max(start-1, 0), max(start, 1)
			}
			ft := &gff.Feature{
				SeqName:        rec.ID,
				Source:         gffSource,
				Feature:        f.Key,
				FeatStart:      start,
				FeatEnd:        end,
				FeatStrand:     part.Strand,
				FeatFrame:      gff.NoFrame,
				FeatAttributes: attrs,
			}
			if _, err := gw.w.Write(ft); err != nil {
				return fmt.Errorf("write gff feature %s: %w", f.Key, err)
			}
		}
	}
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (gw *GFFWriter) Flush() error {
	return gw.buf.Flush()
}
