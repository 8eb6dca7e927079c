package genbank

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/biogo/biogo/seq"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = "../../testdata/contigs.gbk"

func readAll(t *testing.T, r *Reader) []*Record {
	t.Helper()
	var recs []*Record
	for {
		rec, err := r.Next()
		require.NoError(t, err)
		if rec == nil {
			return recs
		}
		recs = append(recs, rec)
	}
}

func loadFixture(t *testing.T) []*Record {
	t.Helper()
	r, err := Open(fixture)
	require.NoError(t, err)
	defer r.Close()
	return readAll(t, r)
}

func featureByTag(t *testing.T, rec *Record, tag string) *Feature {
	t.Helper()
	for i := range rec.Features {
		if v, ok := rec.Features[i].Value("locus_tag"); ok && v == tag {
			return &rec.Features[i]
		}
	}
	t.Fatalf("feature %s not found", tag)
	return nil
}

func TestReader_Fixture(t *testing.T) {
	recs := loadFixture(t)
	require.Len(t, recs, 2)

	c1 := recs[0]
	assert.Equal(t, "C1", c1.ID)
	assert.Equal(t, "C1", c1.Name)
	assert.Equal(t, "Test organism contig C1, a region used for operon extraction tests", c1.Definition)
	assert.Equal(t, "DNA", c1.MoleculeType)
	assert.Equal(t, "linear", c1.Topology)
	assert.Equal(t, "BCT", c1.Division)
	assert.Equal(t, "15-OCT-2024", c1.Date)
	assert.Equal(t, 400, c1.Len())
	assert.Equal(t, "GCTAAAGACA", c1.Seq[:10])
	require.Len(t, c1.Features, 6)

	a := featureByTag(t, c1, "A_001")
	assert.Equal(t, "CDS", a.Key)
	assert.Equal(t, []string{"MKKLLPTAAAGLLLLAAQPAMAMDIGINSDPNSSSVDKLAAALEHHHHHHKRSTQ"}, a.Values("translation"))
	product, _ := a.Value("product")
	assert.Equal(t, "first operon protein, with a product name long enough to wrap", product)
	assert.Contains(t, a.Qualifiers, Qualifier{Key: "codon_start", Value: "1"})
	assert.Equal(t, []Span{{Start: 99, End: 200, Strand: seq.Plus}}, a.Location.Parts)

	b := featureByTag(t, c1, "B_001")
	assert.Contains(t, b.Qualifiers, Qualifier{Key: "pseudo"})

	note, ok := c1.Features[4].Value("note")
	require.True(t, ok)
	assert.Equal(t, `split "quoted" note`, note)

	c2 := recs[1]
	assert.Equal(t, "C2.1", c2.ID)
	assert.Equal(t, "C2", c2.Accession)
	assert.Equal(t, "circular", c2.Topology)
	assert.Equal(t, 120, c2.Len())
	require.Len(t, c2.Features, 1)
	assert.Equal(t, seq.Minus, c2.Features[0].Location.Strand())
	assert.Equal(t, "complement(join(10..30,40..60))", c2.Features[0].Location.String())
}

func TestOpen_Gzip(t *testing.T) {
	raw, err := os.ReadFile(fixture)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "contigs.gbk.gz")
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err = gz.Write(raw)
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	recs := readAll(t, r)
	require.Len(t, recs, 2)
	assert.Equal(t, loadFixture(t), recs)
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.gbk"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReader_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"no locus", "DEFINITION  x.\n//\n"},
		{"bad location", "LOCUS       X 10 bp DNA linear UNK 01-JAN-1980\nFEATURES             Location/Qualifiers\n     CDS             A1:1..5\nORIGIN\n        1 acgtacgtac\n//\n"},
		{"unterminated", "LOCUS       X 10 bp DNA linear UNK 01-JAN-1980\nORIGIN\n        1 acgtacgtac\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader(strings.NewReader(tt.input)).Next()
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Greater(t, perr.Line, 0)
		})
	}
}

func TestReader_Empty(t *testing.T) {
	rec, err := NewReader(strings.NewReader("\n\n")).Next()
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestWriter_RoundTrip(t *testing.T) {
	recs := loadFixture(t)

	var buf bytes.Buffer
	w := NewWriter(&buf)
	for _, rec := range recs {
		require.NoError(t, w.Write(rec))
	}
	require.NoError(t, w.Flush())

	for _, line := range strings.Split(buf.String(), "\n") {
		assert.LessOrEqual(t, len(line), 80, line)
	}

	got := readAll(t, NewReader(&buf))
	assert.Equal(t, recs, got)
}

func TestWriter_Origin(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.Write(&Record{ID: "X1.1", Name: "X1", Seq: strings.Repeat("ACGTA", 14)}))
	require.NoError(t, w.Flush())

	out := buf.String()
	assert.Contains(t, out, "LOCUS       X1                        70 bp    DNA     linear   UNK 01-JAN-1980\n")
	assert.Contains(t, out, "ACCESSION   X1\nVERSION     X1.1\n")
	assert.Contains(t, out, "ORIGIN\n        1 acgtaacgta acgtaacgta acgtaacgta acgtaacgta acgtaacgta acgtaacgta\n       61 acgtaacgta\n//\n")
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		input    string
		parts    []Span
		operator string
		output   string
	}{
		{"100..200", []Span{{99, 200, seq.Plus, false, false}}, "", "100..200"},
		{"42", []Span{{41, 42, seq.Plus, false, false}}, "", "42"},
		{"<1..>90", []Span{{0, 90, seq.Plus, true, true}}, "", "<1..>90"},
		{"5^6", []Span{{5, 5, seq.Plus, false, false}}, "", "5^6"},
		{"complement(10..20)", []Span{{9, 20, seq.Minus, false, false}}, "", "complement(10..20)"},
		{
			"complement(join(1..10,20..30))",
			[]Span{{19, 30, seq.Minus, false, false}, {0, 10, seq.Minus, false, false}},
			"join", "complement(join(1..10,20..30))",
		},
		{
			"join(complement(20..30),complement(1..10))",
			[]Span{{19, 30, seq.Minus, false, false}, {0, 10, seq.Minus, false, false}},
			"join", "complement(join(1..10,20..30))",
		},
		{
			"order(1..10,complement(20..30))",
			[]Span{{0, 10, seq.Plus, false, false}, {19, 30, seq.Minus, false, false}},
			"order", "order(1..10,complement(20..30))",
		},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			loc, err := ParseLocation(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.parts, loc.Parts)
			assert.Equal(t, tt.operator, loc.Operator)
			assert.Equal(t, tt.output, loc.String())
		})
	}
}

func TestParseLocation_Invalid(t *testing.T) {
	for _, input := range []string{"", "J00194.1:100..202", "join(1..10", "10..5", "abc", "1..10)"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseLocation(input)
			assert.Error(t, err)
		})
	}
}

func TestReverseComplementSequence(t *testing.T) {
	tests := []struct {
		seq      string
		expected string
	}{
		{"ATGC", "GCAT"},
		{"AAAA", "TTTT"},
		{"atgc", "gcat"},
		{"ANRY", "RYNT"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.seq, func(t *testing.T) {
			assert.Equal(t, tt.expected, ReverseComplement(tt.seq))
			assert.Equal(t, tt.seq, ReverseComplement(ReverseComplement(tt.seq)))
		})
	}
}

func TestComplement(t *testing.T) {
	assert.Equal(t, byte('T'), Complement('A'))
	assert.Equal(t, byte('g'), Complement('c'))
	assert.Equal(t, byte('N'), Complement('N'))
	assert.Equal(t, byte('M'), Complement('K'))
}

func TestRecordSlice(t *testing.T) {
	c1 := loadFixture(t)[0]

	s := c1.Slice(90, 310)
	assert.Equal(t, "C1", s.ID)
	assert.Equal(t, c1.Definition, s.Definition)
	assert.Empty(t, s.Topology)
	assert.Equal(t, 220, s.Len())
	assert.Equal(t, "CCTTTACTTG", s.Seq[:10])
	assert.Equal(t, "ACGACGCGCT", s.Seq[210:])

	require.Len(t, s.Features, 3)
	assert.Equal(t, "10..110", s.Features[0].Location.String())
	assert.Equal(t, "120..210", s.Features[1].Location.String())
	assert.Equal(t, "join(125..130,140..150)", s.Features[2].Location.String())

	// The source record is untouched.
	assert.Equal(t, "100..200", featureByTag(t, c1, "A_001").Location.String())
}

func TestRecordSlice_Clamps(t *testing.T) {
	rec := &Record{ID: "X", Seq: "ACGTACGTAC"}

	assert.Equal(t, "GTAC", rec.Slice(6, 50).Seq)
	assert.Equal(t, "", rec.Slice(20, 30).Seq)
	assert.Equal(t, "", rec.Slice(5, 3).Seq)
	assert.Equal(t, "ACG", rec.Slice(-4, 3).Seq)
}

func TestRecordReverseComplement(t *testing.T) {
	s := loadFixture(t)[0].Slice(90, 310)

	rc := s.ReverseComplement()
	assert.Equal(t, "C1", rc.ID)
	assert.Equal(t, "AGCGCGTCGT", rc.Seq[:10])
	assert.Equal(t, "CAAGTAAAGG", rc.Seq[210:])

	require.Len(t, rc.Features, 3)
	assert.Equal(t, "complement(11..101)", rc.Features[0].Location.String())
	assert.Equal(t, "complement(join(71..81,91..96))", rc.Features[1].Location.String())
	assert.Equal(t, "complement(111..211)", rc.Features[2].Location.String())

	tag, _ := rc.Features[0].Value("locus_tag")
	assert.Equal(t, "B_001", tag)

	assert.Equal(t, s, rc.ReverseComplement())
}
