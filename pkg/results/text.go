package results

import (
	"bufio"
	"io"
	"strings"

	"github.com/aleksaelezovic/plantkg/pkg/rdf"
	"github.com/aleksaelezovic/plantkg/pkg/sparql/executor"
)

const ruleWidth = 80

// Report describes a named query for the text layout
type Report struct {
	Title    string
	Question string
}

// FormatText writes result as a human readable report:
//
//	================...
//	| Query: <title>
//	|  Q: "<question>"
//	----------------...
//	  -> value, value
//
// Literals are quoted. IRIs are compacted through ns when it is non-nil.
func FormatText(w io.Writer, report Report, result *executor.SelectResult, ns *rdf.Namespaces) error {
	bw := bufio.NewWriter(w)

	bw.WriteString(strings.Repeat("=", ruleWidth))
	bw.WriteString("\n| Query: ")
	bw.WriteString(report.Title)
	bw.WriteString("\n|  Q: \"")
	bw.WriteString(report.Question)
	bw.WriteString("\"\n")
	bw.WriteString(strings.Repeat("-", ruleWidth))
	bw.WriteString("\n")

	if result == nil || result.Len() == 0 {
		bw.WriteString("  -> No results found.\n")
	} else {
		for i := 0; i < result.Len(); i++ {
			bw.WriteString("  -> ")
			for j, term := range result.Row(i) {
				if j > 0 {
					bw.WriteString(", ")
				}
				bw.WriteString(termToText(term, ns))
			}
			bw.WriteString("\n")
		}
	}

	// spacing between reports
	bw.WriteString("\n\n")
	return bw.Flush()
}

func termToText(term rdf.Term, ns *rdf.Namespaces) string {
	switch t := term.(type) {
	case nil:
		return ""
	case *rdf.NamedNode:
		if ns != nil {
			return ns.Compact(t.IRI)
		}
		return t.IRI
	case *rdf.Literal:
		return "\"" + t.Value + "\""
	default:
		return term.String()
	}
}
