package genbank

// complements maps IUPAC nucleotide codes to their complements, preserving case.
// Unlisted bytes complement to themselves.
var complements [256]byte

func init() {
	for i := range complements {
		complements[i] = byte(i)
	}
	pairs := []string{"AT", "CG", "RY", "KM", "BV", "DH"}
	for _, p := range pairs {
		for _, c := range []string{p, string([]byte{p[0] + 'a' - 'A', p[1] + 'a' - 'A'})} {
			complements[c[0]] = c[1]
			complements[c[1]] = c[0]
		}
	}
}

// Complement returns the complement of a single base.
func Complement(base byte) byte {
	return complements[base]
}

// ReverseComplement returns the reverse complement of a DNA sequence.
func ReverseComplement(s string) string {
	n := len(s)
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = complements[s[n-1-i]]
	}
	return string(out)
}
