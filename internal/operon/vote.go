package operon

import "fmt"

// Orientation is the overall direction of an operon on its contig.
type Orientation int

const (
	Forward Orientation = iota
	Reverse
)

func (o Orientation) String() string {
	if o == Reverse {
		return "reverse"
	}
	return "forward"
}

// Votes holds the strand agreement counts for an operon.
type Votes struct {
	Forward int
	Reverse int
}

// Orientation returns Forward unless reverse has strictly more votes.
func (v Votes) Orientation() Orientation {
	if v.Forward >= v.Reverse {
		return Forward
	}
	return Reverse
}

// Vote counts, for every gene row, whether its strand agrees with the expected
// strands of that gene (forward) and whether its complement does (reverse).
// A gene listed on both strands votes both ways.
func Vote(rows []Row, exp Expectation) (Votes, error) {
	var v Votes
	for _, r := range rows {
		comp := Complement(r.Strand)
		if comp == "" {
			return Votes{}, fmt.Errorf("%w: gene %q has strand %q", ErrInvalidStrand, r.GeneName, r.Strand)
		}
		if exp.Has(r.GeneName, r.Strand) {
			v.Forward++
		}
		if exp.Has(r.GeneName, comp) {
			v.Reverse++
		}
	}
	if v.Forward == 0 && v.Reverse == 0 {
		return Votes{}, fmt.Errorf("%w: %d genes checked", ErrNoStrandEvidence, len(rows))
	}
	return v, nil
}
