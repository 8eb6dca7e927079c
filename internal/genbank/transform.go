package genbank

import "sort"

// Slice returns the sub-record covering [start, end) in 0-based coordinates.
// Bounds are clamped to the sequence. Features lying entirely inside the
// range are kept and shifted; features crossing either edge are dropped.
// Only identity and molecule metadata carry over.
func (r *Record) Slice(start, end int) *Record {
	n := len(r.Seq)
	start = min(max(start, 0), n)
	end = min(max(end, start), n)

	out := &Record{
		ID:           r.ID,
		Name:         r.Name,
		Accession:    r.Accession,
		Definition:   r.Definition,
		MoleculeType: r.MoleculeType,
		Seq:          r.Seq[start:end],
	}
	for _, f := range r.Features {
		if f.Location.Start() < start || f.Location.End() > end {
			continue
		}
		g := f.clone()
		g.Location = f.Location.shift(-start)
		out.Features = append(out.Features, g)
	}
	return out
}

// ReverseComplement returns the record as read from the opposite strand.
// Feature locations are mirrored and strand-flipped, then ordered by start.
func (r *Record) ReverseComplement() *Record {
	n := len(r.Seq)

	out := *r
	out.Seq = ReverseComplement(r.Seq)
	out.Features = make([]Feature, len(r.Features))
	for i, f := range r.Features {
		g := f.clone()
		g.Location = f.Location.flip(n)
		out.Features[i] = g
	}
	sort.SliceStable(out.Features, func(i, j int) bool {
		return out.Features[i].Location.Start() < out.Features[j].Location.Start()
	})
	return &out
}
