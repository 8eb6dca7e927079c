package genbank

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const (
	lineWidth     = 79
	valueWidth    = lineWidth - featureIndent
	residuesLine  = 60
	residuesBlock = 10

	defaultMoleculeType = "DNA"
	defaultTopology     = "linear"
	defaultDivision     = "UNK"
	defaultDate         = "01-JAN-1980"
)

var (
	headerPad  = strings.Repeat(" ", headerIndent)
	featurePad = strings.Repeat(" ", featureIndent)
)

// Writer writes records in GenBank flat-file format.
type Writer struct {
	w *bufio.Writer
}

// NewWriter creates a new GenBank writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write writes a single record.
func (gw *Writer) Write(rec *Record) error {
	w := gw.w

	fmt.Fprintf(w, "LOCUS       %-16s %11d bp    %-6s  %-8s %s %s\n",
		rec.Name, rec.Len(),
		orDefault(rec.MoleculeType, defaultMoleculeType),
		orDefault(rec.Topology, defaultTopology),
		orDefault(rec.Division, defaultDivision),
		orDefault(rec.Date, defaultDate))

	definition := rec.Definition
	if definition == "" {
		definition = "."
	} else if !strings.HasSuffix(definition, ".") {
		definition += "."
	}
	for i, line := range wrapWords(definition, lineWidth-headerIndent+1) {
		if i == 0 {
			fmt.Fprintf(w, "DEFINITION  %s\n", line)
		} else {
			fmt.Fprintf(w, "%s%s\n", headerPad, line)
		}
	}

	accession := rec.Accession
	if accession == "" {
		accession, _, _ = strings.Cut(rec.ID, ".")
	}
	fmt.Fprintf(w, "ACCESSION   %s\n", orDefault(accession, "."))
	fmt.Fprintf(w, "VERSION     %s\n", orDefault(rec.ID, "."))
	fmt.Fprintf(w, "KEYWORDS    .\n")
	fmt.Fprintf(w, "SOURCE      .\n")
	fmt.Fprintf(w, "  ORGANISM  .\n")
	fmt.Fprintf(w, "%s.\n", headerPad)

	fmt.Fprintf(w, "FEATURES             Location/Qualifiers\n")
	for i := range rec.Features {
		writeFeature(w, &rec.Features[i])
	}

	fmt.Fprintf(w, "ORIGIN\n")
	writeOrigin(w, rec.Seq)
	_, err := w.WriteString("//\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (gw *Writer) Flush() error {
	return gw.w.Flush()
}

func writeFeature(w *bufio.Writer, f *Feature) {
	for i, line := range wrapAt(f.Location.String(), valueWidth, ',', true) {
		if i == 0 {
			fmt.Fprintf(w, "     %-15s %s\n", f.Key, line)
		} else {
			fmt.Fprintf(w, "%s%s\n", featurePad, line)
		}
	}

	for _, q := range f.Qualifiers {
		text := "/" + q.Key
		switch {
		case q.Quoted:
			text += `="` + strings.ReplaceAll(q.Value, `"`, `""`) + `"`
		case q.Value != "":
			text += "=" + q.Value
		}

		var lines []string
		if q.Key == "translation" {
			lines = chunk(text, valueWidth)
		} else {
			lines = wrapAt(text, valueWidth, ' ', false)
		}
		for _, line := range lines {
			fmt.Fprintf(w, "%s%s\n", featurePad, line)
		}
	}
}

func writeOrigin(w *bufio.Writer, s string) {
	s = strings.ToLower(s)
	for i := 0; i < len(s); i += residuesLine {
		fmt.Fprintf(w, "%9d", i+1)
		end := min(i+residuesLine, len(s))
		for j := i; j < end; j += residuesBlock {
			w.WriteByte(' ')
			w.WriteString(s[j:min(j+residuesBlock, end)])
		}
		w.WriteByte('\n')
	}
}

// wrapAt splits text into lines of at most width bytes, breaking at the last
// sep that fits. With keep the separator ends the line; otherwise it is
// dropped. Text without a usable separator is cut hard.
func wrapAt(text string, width int, sep byte, keep bool) []string {
	var lines []string
	for len(text) > width {
		i := strings.LastIndexByte(text[:width+1], sep)
		if keep && i == width {
			i = strings.LastIndexByte(text[:width], sep)
		}
		if i <= 0 {
			lines = append(lines, text[:width])
			text = text[width:]
			continue
		}
		if keep {
			lines = append(lines, text[:i+1])
		} else {
			lines = append(lines, text[:i])
		}
		text = text[i+1:]
	}
	return append(lines, text)
}

func wrapWords(text string, width int) []string {
	return wrapAt(text, width, ' ', false)
}

func chunk(text string, width int) []string {
	var lines []string
	for len(text) > width {
		lines = append(lines, text[:width])
		text = text[width:]
	}
	return append(lines, text)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
