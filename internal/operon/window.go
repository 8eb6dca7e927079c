package operon

// Window is a 1-based coordinate range around an operon.
type Window struct {
	Start int64
	End   int64
}

// Span returns the smallest range covering every gene in rows, widened by
// margin on both sides. Start and end columns are treated as an unordered pair.
// The start is clamped to 1; the end is not clamped here.
func Span(rows []Row, margin int64) (Window, error) {
	if len(rows) == 0 {
		return Window{}, ErrNoGenes
	}

	start := min(rows[0].ContigStart, rows[0].ContigEnd)
	end := max(rows[0].ContigStart, rows[0].ContigEnd)
	for _, r := range rows[1:] {
		start = min(start, r.ContigStart, r.ContigEnd)
		end = max(end, r.ContigStart, r.ContigEnd)
	}

	return Window{Start: max(start-margin, 1), End: end + margin}, nil
}

// Bounds returns the 0-based half-open slice bounds of w on a sequence of
// length n. The window start is used as the slice start as-is, and the end is
// limited to n-1.
func (w Window) Bounds(n int) (start, end int) {
	start = int(w.Start)
	end = int(min(w.End, int64(n)-1))
	return start, end
}
