package output

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/biogo/biogo/seq"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/operon-extract/internal/genbank"
)

func cds(tag string, quals ...genbank.Qualifier) genbank.Feature {
	f := genbank.Feature{
		Key:      "CDS",
		Location: genbank.Location{Parts: []genbank.Span{{Start: 0, End: 30, Strand: seq.Plus}}},
	}
	if tag != "" {
		f.Qualifiers = append(f.Qualifiers, genbank.Qualifier{Key: "locus_tag", Value: tag, Quoted: true})
	}
	f.Qualifiers = append(f.Qualifiers, quals...)
	return f
}

func translation(s string) genbank.Qualifier {
	return genbank.Qualifier{Key: "translation", Value: s, Quoted: true}
}

func TestCollectProteins(t *testing.T) {
	recs := []*genbank.Record{
		{ID: "C1", Features: []genbank.Feature{
			{Key: "gene", Qualifiers: []genbank.Qualifier{{Key: "locus_tag", Value: "G_001"}, translation("MGENE")}},
			cds("A_001", translation("MAAA")),
			cds("B_001"),
			cds("C_001", translation("MC1"), translation("MC2")),
			cds("", translation("MNOTAG")),
			cds("D_001", translation("MDDD")),
		}},
		{ID: "C1", Features: []genbank.Feature{
			cds("A_001", translation("MAAB")),
		}},
	}

	proteins, untagged := CollectProteins(recs)
	assert.Equal(t, 1, untagged)
	assert.Equal(t, []Protein{
		{LocusTag: "A_001", Sequence: "MAAB"},
		{LocusTag: "D_001", Sequence: "MDDD"},
	}, proteins)
}

func TestCollectProteins_None(t *testing.T) {
	proteins, untagged := CollectProteins([]*genbank.Record{{ID: "C1", Features: []genbank.Feature{cds("A_001")}}})
	assert.Empty(t, proteins)
	assert.Zero(t, untagged)
}

func TestFAAWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewFAAWriter(&buf)

	require.NoError(t, w.Write(Protein{LocusTag: "A_001", Sequence: "MAAA"}))
	require.NoError(t, w.Write(Protein{LocusTag: "B_001", Sequence: "MBBB"}))
	require.NoError(t, w.Flush())

	assert.Equal(t, ">A_001\nMAAA\n>B_001\nMBBB\n", buf.String())
}

func TestWriteFAAGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.faa.gz")
	proteins := []Protein{
		{LocusTag: "A_001", Sequence: strings.Repeat("M", 150)},
		{LocusTag: "B_001", Sequence: "MBBB"},
	}
	require.NoError(t, WriteFAAGzip(path, proteins))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(gz)
	require.NoError(t, err)

	assert.Equal(t, ">A_001\n"+strings.Repeat("M", 150)+"\n>B_001\nMBBB\n", string(data))
}

func TestWriteFAAGzip_BadPath(t *testing.T) {
	err := WriteFAAGzip(filepath.Join(t.TempDir(), "missing", "out.faa.gz"), nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestGFFWriter(t *testing.T) {
	rec := &genbank.Record{
		ID:  "C1",
		Seq: strings.Repeat("A", 300),
		Features: []genbank.Feature{
			{Key: "source", Location: genbank.Location{Parts: []genbank.Span{{Start: 0, End: 300, Strand: seq.Plus}}}},
			cds("A_001", genbank.Qualifier{Key: "gene", Value: "lacZ", Quoted: true}),
			{
				Key: "CDS",
				Location: genbank.Location{Operator: "join", Parts: []genbank.Span{
					{Start: 199, End: 250, Strand: seq.Minus},
					{Start: 99, End: 150, Strand: seq.Minus},
				}},
				Qualifiers: []genbank.Qualifier{{Key: "locus_tag", Value: "B_001", Quoted: true}},
			},
		},
	}

	var buf bytes.Buffer
	w := NewGFFWriter(&buf)
	require.NoError(t, w.Write(rec))
	require.NoError(t, w.Flush())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)

	assert.Equal(t, "##gff-version 2", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "C1\toperon-extract\tCDS\t1\t30\t.\t+\t"), lines[1])
	assert.True(t, strings.HasSuffix(lines[1], `locus_tag "A_001"; gene "lacZ"`), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "C1\toperon-extract\tCDS\t200\t250\t.\t-\t"), lines[2])
	assert.True(t, strings.HasPrefix(lines[3], "C1\toperon-extract\tCDS\t100\t150\t.\t-\t"), lines[3])
	assert.NotContains(t, buf.String(), "\tsource\t")
}

func TestGFFWriter_QuotesFreeText(t *testing.T) {
	rec := &genbank.Record{
		ID: "C1",
		Features: []genbank.Feature{
			cds("A_001", genbank.Qualifier{Key: "product", Value: `kinase; "putative"`, Quoted: true}),
		},
	}

	var buf bytes.Buffer
	w := NewGFFWriter(&buf)
	require.NoError(t, w.Write(rec))
	require.NoError(t, w.Flush())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	fields := strings.Split(lines[1], "\t")
	require.Len(t, fields, 9)
	assert.Equal(t, `locus_tag "A_001"; product "kinase; \"putative\""`, fields[8])
}

func TestGFFWriter_Sites(t *testing.T) {
	site := func(pos int) genbank.Feature {
		return genbank.Feature{
			Key:      "misc_feature",
			Location: genbank.Location{Parts: []genbank.Span{{Start: pos, End: pos, Strand: seq.Plus}}},
		}
	}
	rec := &genbank.Record{ID: "C1", Features: []genbank.Feature{site(150), site(0)}}

	var buf bytes.Buffer
	w := NewGFFWriter(&buf)
	require.NoError(t, w.Write(rec))
	require.NoError(t, w.Flush())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "C1\toperon-extract\tmisc_feature\t150\t150\t"), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "C1\toperon-extract\tmisc_feature\t1\t1\t"), lines[2])
}
