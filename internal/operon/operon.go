// Package operon provides the operon-level logic of an extraction: the genes
// making up an operon, the window around them and the strand vote.
package operon

import "errors"

var (
	// ErrMalformedContext is returned when an operon-context field is not
	// "<gene> (+)" or "<gene> (-)".
	ErrMalformedContext = errors.New("malformed operon context")

	// ErrInvalidStrand is returned when a gene row carries a strand other than "+" or "-".
	ErrInvalidStrand = errors.New("invalid gene strand")

	// ErrNoStrandEvidence is returned when no gene agrees with either orientation.
	ErrNoStrandEvidence = errors.New("no strand evidence for operon orientation")

	// ErrNoGenes is returned when an operon has no gene rows.
	ErrNoGenes = errors.New("no genes found for operon")
)

// Key identifies one operon in the summary table.
// All four fields are compared as strings.
type Key struct {
	GenomeID      string
	ContigName    string
	OperonContext string
	OperonIx      string
}

// Row is one gene of the summary table.
type Row struct {
	Key
	GeneName    string
	Strand      string
	ContigStart int64
	ContigEnd   int64
}

// FileStem returns the "<genome>-<contig>-<ix>" name shared by the output files.
func (k Key) FileStem() string {
	return k.GenomeID + "-" + k.ContigName + "-" + k.OperonIx
}

// Complement returns the opposite strand symbol, or "" for an invalid symbol.
func Complement(strand string) string {
	switch strand {
	case "+":
		return "-"
	case "-":
		return "+"
	default:
		return ""
	}
}
