package genbank

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/biogo/biogo/seq"
)

// ParseLocation parses a GenBank location such as
// "complement(join(<1..200,300..>450))". Remote references are not supported.
func ParseLocation(s string) (Location, error) {
	p := &locParser{s: strings.ReplaceAll(s, " ", "")}
	loc, err := p.parse()
	if err != nil {
		return Location{}, fmt.Errorf("location %q: %w", s, err)
	}
	if p.pos != len(p.s) {
		return Location{}, fmt.Errorf("location %q: trailing input at offset %d", s, p.pos)
	}
	return loc, nil
}

type locParser struct {
	s   string
	pos int
}

func (p *locParser) parse() (Location, error) {
	rest := p.s[p.pos:]
	switch {
	case strings.HasPrefix(rest, "complement("):
		p.pos += len("complement(")
		inner, err := p.parse()
		if err != nil {
			return Location{}, err
		}
		if err := p.expect(')'); err != nil {
			return Location{}, err
		}
		out := Location{Operator: inner.Operator, Parts: make([]Span, len(inner.Parts))}
		for i, sp := range inner.Parts {
			sp.Strand = -sp.Strand
			out.Parts[len(inner.Parts)-1-i] = sp
		}
		return out, nil

	case strings.HasPrefix(rest, "join("), strings.HasPrefix(rest, "order("):
		op, _, _ := strings.Cut(rest, "(")
		p.pos += len(op) + 1
		out := Location{Operator: op}
		for {
			inner, err := p.parse()
			if err != nil {
				return Location{}, err
			}
			out.Parts = append(out.Parts, inner.Parts...)
			if p.pos < len(p.s) && p.s[p.pos] == ',' {
				p.pos++
				continue
			}
			break
		}
		if err := p.expect(')'); err != nil {
			return Location{}, err
		}
		return out, nil

	default:
		end := strings.IndexAny(rest, ",)")
		if end == -1 {
			end = len(rest)
		}
		sp, err := parseSpan(rest[:end])
		if err != nil {
			return Location{}, err
		}
		p.pos += end
		return Location{Parts: []Span{sp}}, nil
	}
}

func (p *locParser) expect(c byte) error {
	if p.pos >= len(p.s) || p.s[p.pos] != c {
		return fmt.Errorf("expected %q at offset %d", c, p.pos)
	}
	p.pos++
	return nil
}

// parseSpan parses "12", "<1..>200" or "5^6" into 0-based coordinates.
func parseSpan(tok string) (Span, error) {
	if tok == "" {
		return Span{}, fmt.Errorf("empty span")
	}
	if strings.Contains(tok, ":") {
		return Span{}, fmt.Errorf("remote reference %q not supported", tok)
	}

	if a, b, ok := strings.Cut(tok, "^"); ok {
		left, err1 := strconv.Atoi(a)
		right, err2 := strconv.Atoi(b)
		if err1 != nil || err2 != nil {
			return Span{}, fmt.Errorf("invalid site %q", tok)
		}
		if right != left+1 {
			return Span{}, fmt.Errorf("unsupported site %q", tok)
		}
		return Span{Start: left, End: left, Strand: seq.Plus}, nil
	}

	sp := Span{Strand: seq.Plus}
	a, b, isRange := strings.Cut(tok, "..")
	if !isRange {
		b = a
	}

	if strings.HasPrefix(a, "<") {
		sp.PartialStart = true
		a = a[1:]
	}
	if strings.HasPrefix(b, ">") {
		sp.PartialEnd = true
		b = b[1:]
	}
	if !isRange && strings.HasPrefix(b, "<") {
		b = b[1:]
	}
	if !isRange && strings.HasPrefix(a, ">") {
		sp.PartialEnd = true
		a = a[1:]
	}

	start, err := strconv.Atoi(a)
	if err != nil {
		return Span{}, fmt.Errorf("invalid start in %q", tok)
	}
	end, err := strconv.Atoi(b)
	if err != nil {
		return Span{}, fmt.Errorf("invalid end in %q", tok)
	}
	if start < 1 || end < start {
		return Span{}, fmt.Errorf("invalid range %q", tok)
	}

	sp.Start = start - 1
	sp.End = end
	return sp, nil
}

// String formats the location in GenBank syntax.
func (l Location) String() string {
	if len(l.Parts) == 1 {
		return formatStranded(l.Parts[0])
	}

	op := l.Operator
	if op == "" {
		op = "join"
	}

	if l.Strand() == seq.Minus {
		parts := make([]string, len(l.Parts))
		for i, p := range l.Parts {
			parts[len(l.Parts)-1-i] = formatSpan(p)
		}
		return "complement(" + op + "(" + strings.Join(parts, ",") + "))"
	}

	parts := make([]string, len(l.Parts))
	for i, p := range l.Parts {
		parts[i] = formatStranded(p)
	}
	return op + "(" + strings.Join(parts, ",") + ")"
}

func formatStranded(sp Span) string {
	if sp.Strand == seq.Minus {
		return "complement(" + formatSpan(sp) + ")"
	}
	return formatSpan(sp)
}

func formatSpan(sp Span) string {
	if sp.Start == sp.End {
		return fmt.Sprintf("%d^%d", sp.Start, sp.Start+1)
	}
	if sp.End-sp.Start == 1 && !sp.PartialStart && !sp.PartialEnd {
		return strconv.Itoa(sp.End)
	}

	var b strings.Builder
	if sp.PartialStart {
		b.WriteByte('<')
	}
	b.WriteString(strconv.Itoa(sp.Start + 1))
	b.WriteString("..")
	if sp.PartialEnd {
		b.WriteByte('>')
	}
	b.WriteString(strconv.Itoa(sp.End))
	return b.String()
}
