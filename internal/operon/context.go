package operon

import (
	"fmt"
	"strings"
)

const (
	contextSeparator = " :: "

	// MaxFolderLen is the maximum folder name length in characters.
	MaxFolderLen = 200
)

// Expectation maps a gene name to the strands it is expected on, in context order.
type Expectation map[string][]string

// Has reports whether strand is among the expected strands of gene.
func (e Expectation) Has(gene, strand string) bool {
	for _, s := range e[gene] {
		if s == strand {
			return true
		}
	}
	return false
}

// ParseContext parses an operon-context string such as "lacZ (+) :: lacY (+)".
// A gene may appear more than once; its strands accumulate in order.
func ParseContext(context string) (Expectation, error) {
	exp := make(Expectation)
	for _, field := range strings.Split(context, contextSeparator) {
		gene, token, ok := strings.Cut(field, " ")
		if !ok {
			return nil, fmt.Errorf("%w: field %q has no strand", ErrMalformedContext, field)
		}
		switch token {
		case "(+)", "(-)":
		default:
			return nil, fmt.Errorf("%w: field %q has strand token %q", ErrMalformedContext, field, token)
		}
		exp[gene] = append(exp[gene], token[1:2])
	}
	return exp, nil
}

// FolderName derives the output folder name from an operon-context string.
//
// The underscore collapse runs exactly twice, so runs of five or more
// underscores are not fully reduced.
func FolderName(context string) string {
	name := strings.ReplaceAll(context, "::", "_")
	name = strings.ReplaceAll(name, "(+)", "FWD")
	name = strings.ReplaceAll(name, "(-)", "REV")
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "__", "_")
	name = strings.ReplaceAll(name, "__", "_")

	if r := []rune(name); len(r) > MaxFolderLen {
		name = string(r[:MaxFolderLen])
	}
	return name
}
