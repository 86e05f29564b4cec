package results

import (
	"bufio"
	"io"
	"strings"

	"github.com/aleksaelezovic/plantkg/pkg/rdf"
)

// N-Triples
// https://www.w3.org/TR/n-triples/

// FormatNTriples writes one line per triple
func FormatNTriples(w io.Writer, triples []*rdf.Triple) error {
	bw := bufio.NewWriter(w)
	for _, triple := range triples {
		writeNTriplesTerm(bw, triple.Subject)
		bw.WriteString(" ")
		writeNTriplesTerm(bw, triple.Predicate)
		bw.WriteString(" ")
		writeNTriplesTerm(bw, triple.Object)
		bw.WriteString(" .\n")
	}
	return bw.Flush()
}

func writeNTriplesTerm(bw *bufio.Writer, term rdf.Term) {
	switch t := term.(type) {
	case *rdf.NamedNode:
		bw.WriteString("<")
		bw.WriteString(t.IRI)
		bw.WriteString(">")
	case *rdf.Literal:
		bw.WriteString("\"")
		bw.WriteString(escapeNTriplesString(t.Value))
		bw.WriteString("\"")
		if t.Language != "" {
			bw.WriteString("@")
			bw.WriteString(t.Language)
		} else if t.Datatype != nil {
			bw.WriteString("^^<")
			bw.WriteString(t.Datatype.IRI)
			bw.WriteString(">")
		}
	default:
		bw.WriteString(term.String())
	}
}

// escapeNTriplesString escapes special characters in N-Triples string literals
func escapeNTriplesString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return s
}
