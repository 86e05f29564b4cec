package results

import (
	"strings"

	"github.com/aleksaelezovic/plantkg/pkg/rdf"
	"github.com/aleksaelezovic/plantkg/pkg/sparql/executor"
)

// SPARQL TSV Results Format
// https://www.w3.org/TR/sparql11-results-csv-tsv/

// FormatTSV converts a SELECT result to SPARQL TSV format
func FormatTSV(result *executor.SelectResult) ([]byte, error) {
	var builder strings.Builder

	// header row with ? prefix
	for i, name := range result.Variables {
		if i > 0 {
			builder.WriteString("\t")
		}
		builder.WriteString("?")
		builder.WriteString(name)
	}
	builder.WriteString("\n")

	for _, binding := range result.Bindings {
		for i, name := range result.Variables {
			if i > 0 {
				builder.WriteString("\t")
			}
			// unbound stays empty
			if term, ok := binding.Get(name); ok {
				builder.WriteString(termToTSVValue(term))
			}
		}
		builder.WriteString("\n")
	}

	return []byte(builder.String()), nil
}

// termToTSVValue renders IRIs as <iri>, numeric literals bare and
// everything else in quoted Turtle form.
func termToTSVValue(term rdf.Term) string {
	switch t := term.(type) {
	case *rdf.NamedNode:
		return "<" + t.IRI + ">"

	case *rdf.Literal:
		escaped := escapeTSVString(t.Value)
		switch {
		case t.Language != "":
			return "\"" + escaped + "\"@" + t.Language
		case t.Datatype != nil:
			if isNumeric(t.Datatype) {
				return t.Value
			}
			return "\"" + escaped + "\"^^<" + t.Datatype.IRI + ">"
		}
		return "\"" + escaped + "\""

	default:
		return term.String()
	}
}

func isNumeric(datatype *rdf.NamedNode) bool {
	return datatype.Equals(rdf.XSDInteger) ||
		datatype.Equals(rdf.XSDDecimal) ||
		datatype.Equals(rdf.XSDDouble)
}

// escapeTSVString escapes tabs, newlines, quotes and backslashes
func escapeTSVString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\t", "\\t")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	return s
}
