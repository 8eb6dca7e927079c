package genbank

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

const (
	featureIndent = 21 // column where locations and qualifiers start
	headerIndent  = 12 // column where header values start
)

// Reader reads GenBank records one at a time.
type Reader struct {
	scanner    *bufio.Scanner
	file       *os.File
	gzipReader *gzip.Reader
	lineNumber int
}

// Open opens a GenBank file for reading.
// Both plain and gzip-compressed files are supported.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open genbank file: %w", err)
	}

	// Check for gzip magic bytes
	buf := make([]byte, 2)
	n, err := io.ReadFull(file, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		file.Close()
		return nil, fmt.Errorf("read genbank header: %w", err)
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, fmt.Errorf("seek genbank file: %w", err)
	}

	r := &Reader{file: file}
	if n == 2 && buf[0] == 0x1f && buf[1] == 0x8b {
		r.gzipReader, err = gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		r.scanner = newScanner(r.gzipReader)
	} else {
		r.scanner = newScanner(file)
	}
	return r, nil
}

// NewReader creates a reader over uncompressed GenBank text.
func NewReader(rd io.Reader) *Reader {
	return &Reader{scanner: newScanner(rd)}
}

func newScanner(rd io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(rd)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)
	return scanner
}

// Close closes the reader and underlying file.
func (r *Reader) Close() error {
	if r.gzipReader != nil {
		r.gzipReader.Close()
	}
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// LineNumber returns the number of lines consumed so far.
func (r *Reader) LineNumber() int {
	return r.lineNumber
}

type section int

const (
	sectionNone section = iota
	sectionHeader
	sectionDefinition
	sectionFeatures
	sectionOrigin
)

// featureBuilder accumulates the lines of one feature.
type featureBuilder struct {
	line     int
	key      string
	location strings.Builder
	quals    []Qualifier
	pending  *pendingQualifier
}

type pendingQualifier struct {
	key    string
	raw    strings.Builder
	quoted bool
}

func (p *pendingQualifier) open() bool {
	return p.quoted && strings.Count(p.raw.String(), `"`)%2 == 1
}

func (p *pendingQualifier) finish() Qualifier {
	q := Qualifier{Key: p.key, Value: p.raw.String(), Quoted: p.quoted}
	if p.quoted {
		v := strings.TrimPrefix(q.Value, `"`)
		v = strings.TrimSuffix(v, `"`)
		q.Value = strings.ReplaceAll(v, `""`, `"`)
	}
	return q
}

func (fb *featureBuilder) addLine(content string) {
	switch {
	case fb.pending != nil && fb.pending.open():
		if fb.pending.key != "translation" {
			fb.pending.raw.WriteByte(' ')
		}
		fb.pending.raw.WriteString(content)
	case strings.HasPrefix(content, "/"):
		fb.flushQualifier()
		key, val, hasVal := strings.Cut(content[1:], "=")
		p := &pendingQualifier{key: key}
		if hasVal {
			p.quoted = strings.HasPrefix(val, `"`)
			p.raw.WriteString(val)
		}
		fb.pending = p
	case fb.pending == nil && len(fb.quals) == 0:
		fb.location.WriteString(content)
	case fb.pending != nil:
		fb.pending.raw.WriteByte(' ')
		fb.pending.raw.WriteString(content)
	}
}

func (fb *featureBuilder) flushQualifier() {
	if fb.pending != nil {
		fb.quals = append(fb.quals, fb.pending.finish())
		fb.pending = nil
	}
}

func (fb *featureBuilder) build() (Feature, error) {
	fb.flushQualifier()
	loc, err := ParseLocation(fb.location.String())
	if err != nil {
		return Feature{}, &ParseError{Line: fb.line, Message: err.Error()}
	}
	return Feature{Key: fb.key, Location: loc, Qualifiers: fb.quals}, nil
}

// Next reads the next record.
// Returns nil, nil when there are no more records.
func (r *Reader) Next() (*Record, error) {
	var (
		rec  *Record
		sec  = sectionNone
		feat *featureBuilder
		seqb strings.Builder
		defn []string
	)

	finishFeature := func() error {
		if feat == nil {
			return nil
		}
		f, err := feat.build()
		if err != nil {
			return err
		}
		rec.Features = append(rec.Features, f)
		feat = nil
		return nil
	}

	for r.scanner.Scan() {
		r.lineNumber++
		line := strings.TrimRight(r.scanner.Text(), "\r")

		if rec == nil {
			if strings.TrimSpace(line) == "" {
				continue
			}
			if !strings.HasPrefix(line, "LOCUS") {
				return nil, &ParseError{Line: r.lineNumber, Message: "expected LOCUS line"}
			}
			rec = parseLocus(line)
			sec = sectionHeader
			continue
		}

		if line == "" {
			continue
		}

		// Continuation lines are indented; keywords start in column 0.
		if line[0] == ' ' {
			switch sec {
			case sectionDefinition:
				defn = append(defn, strings.TrimSpace(line))
			case sectionFeatures:
				if len(line) > 5 && !strings.HasPrefix(line, "     ") {
					// Sub-keyword inside the header, never in the feature table.
					continue
				}
				if len(line) > 5 && line[5] != ' ' {
					if err := finishFeature(); err != nil {
						return nil, err
					}
					fields := strings.Fields(line)
					feat = &featureBuilder{line: r.lineNumber, key: fields[0]}
					if len(fields) > 1 {
						feat.location.WriteString(strings.Join(fields[1:], ""))
					}
				} else if feat != nil {
					feat.addLine(strings.TrimSpace(line))
				}
			case sectionOrigin:
				for i := 0; i < len(line); i++ {
					c := line[i]
					if c >= 'a' && c <= 'z' {
						c -= 'a' - 'A'
					}
					if c >= 'A' && c <= 'Z' || c == '*' || c == '-' {
						seqb.WriteByte(c)
					}
				}
			}
			continue
		}

		if sec == sectionFeatures {
			if err := finishFeature(); err != nil {
				return nil, err
			}
		}

		keyword, value := splitKeyword(line)
		switch keyword {
		case "//":
			rec.Seq = seqb.String()
			rec.Definition = strings.TrimSuffix(strings.Join(defn, " "), ".")
			if rec.ID == "" {
				rec.ID = rec.Accession
			}
			if rec.ID == "" {
				rec.ID = rec.Name
			}
			return rec, nil
		case "DEFINITION":
			defn = append(defn, value)
			sec = sectionDefinition
		case "ACCESSION":
			if fields := strings.Fields(value); len(fields) > 0 {
				rec.Accession = fields[0]
			}
			sec = sectionHeader
		case "VERSION":
			if fields := strings.Fields(value); len(fields) > 0 {
				rec.ID = fields[0]
			}
			sec = sectionHeader
		case "FEATURES":
			sec = sectionFeatures
		case "ORIGIN":
			sec = sectionOrigin
		default:
			sec = sectionHeader
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan genbank: %w", err)
	}
	if rec != nil {
		return nil, &ParseError{Line: r.lineNumber, Message: fmt.Sprintf("record %s is missing its // terminator", rec.Name)}
	}
	return nil, nil
}

// parseLocus reads the name and molecule metadata from a LOCUS line.
func parseLocus(line string) *Record {
	fields := strings.Fields(line)
	rec := &Record{}
	if len(fields) > 1 {
		rec.Name = fields[1]
	}

	rest := fields[min(2, len(fields)):]
	for i, f := range rest {
		if f == "bp" || f == "aa" {
			rest = rest[i+1:]
			break
		}
	}
	for _, f := range rest {
		switch {
		case f == "linear" || f == "circular":
			rec.Topology = f
		case rec.MoleculeType == "" && rec.Topology == "" && rec.Division == "":
			rec.MoleculeType = f
		case strings.Count(f, "-") == 2:
			rec.Date = f
		case len(f) == 3:
			rec.Division = f
		}
	}
	return rec
}

// splitKeyword splits a header line into its keyword and value.
func splitKeyword(line string) (string, string) {
	if len(line) <= headerIndent {
		return strings.TrimSpace(line), ""
	}
	if strings.HasPrefix(line, "//") {
		return "//", ""
	}
	return strings.TrimSpace(line[:headerIndent]), strings.TrimSpace(line[headerIndent:])
}
