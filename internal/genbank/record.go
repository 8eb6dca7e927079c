// Package genbank reads, transforms and writes GenBank flat-file records.
package genbank

import (
	"fmt"

	"github.com/biogo/biogo/seq"
)

// Record is a single GenBank entry.
type Record struct {
	ID           string // VERSION, falling back to ACCESSION, then LOCUS name
	Name         string // LOCUS name
	Accession    string
	Definition   string
	MoleculeType string
	Topology     string
	Division     string
	Date         string
	Seq          string // upper-case residues
	Features     []Feature
}

// Len returns the sequence length.
func (r *Record) Len() int {
	return len(r.Seq)
}

// Feature is an entry of the FEATURES table.
type Feature struct {
	Key        string
	Location   Location
	Qualifiers []Qualifier
}

// Qualifier is a /key=value pair. Flag qualifiers such as /pseudo have an
// empty, unquoted value.
type Qualifier struct {
	Key    string
	Value  string
	Quoted bool
}

// Values returns every value of the qualifier key, in file order.
func (f *Feature) Values(key string) []string {
	var vals []string
	for _, q := range f.Qualifiers {
		if q.Key == key {
			vals = append(vals, q.Value)
		}
	}
	return vals
}

// Value returns the first value of the qualifier key.
func (f *Feature) Value(key string) (string, bool) {
	for _, q := range f.Qualifiers {
		if q.Key == key {
			return q.Value, true
		}
	}
	return "", false
}

func (f Feature) clone() Feature {
	f.Location = f.Location.clone()
	f.Qualifiers = append([]Qualifier(nil), f.Qualifiers...)
	return f
}

// Span is one contiguous part of a location, in 0-based half-open coordinates.
// A between-bases site ("5^6") has Start == End.
type Span struct {
	Start        int
	End          int
	Strand       seq.Strand
	PartialStart bool // '<' on the lower coordinate
	PartialEnd   bool // '>' on the upper coordinate
}

// Location is a feature location made of one or more spans in biological order.
type Location struct {
	Parts    []Span
	Operator string // "join" or "order" when there is more than one part
}

// Start returns the lowest coordinate covered by the location.
func (l Location) Start() int {
	if len(l.Parts) == 0 {
		return 0
	}
	s := l.Parts[0].Start
	for _, p := range l.Parts[1:] {
		s = min(s, p.Start)
	}
	return s
}

// End returns the highest coordinate covered by the location (exclusive).
func (l Location) End() int {
	if len(l.Parts) == 0 {
		return 0
	}
	e := l.Parts[0].End
	for _, p := range l.Parts[1:] {
		e = max(e, p.End)
	}
	return e
}

// Strand returns the strand shared by all parts, or seq.None when they differ.
func (l Location) Strand() seq.Strand {
	if len(l.Parts) == 0 {
		return seq.None
	}
	s := l.Parts[0].Strand
	for _, p := range l.Parts[1:] {
		if p.Strand != s {
			return seq.None
		}
	}
	return s
}

func (l Location) clone() Location {
	l.Parts = append([]Span(nil), l.Parts...)
	return l
}

func (l Location) shift(offset int) Location {
	out := l.clone()
	for i := range out.Parts {
		out.Parts[i].Start += offset
		out.Parts[i].End += offset
	}
	return out
}

// flip mirrors the location onto the reverse strand of a sequence of length n.
// Part order is kept: the first exon stays first.
func (l Location) flip(n int) Location {
	out := Location{Operator: l.Operator, Parts: make([]Span, len(l.Parts))}
	for i, p := range l.Parts {
		out.Parts[i] = Span{
			Start:        n - p.End,
			End:          n - p.Start,
			Strand:       -p.Strand,
			PartialStart: p.PartialEnd,
			PartialEnd:   p.PartialStart,
		}
	}
	return out
}

// ParseError represents a GenBank syntax error with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("genbank parse error at line %d: %s", e.Line, e.Message)
}
