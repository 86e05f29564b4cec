package results

import (
	"encoding/json"

	"github.com/aleksaelezovic/plantkg/pkg/rdf"
	"github.com/aleksaelezovic/plantkg/pkg/sparql/executor"
)

// SPARQL JSON Results Format
// https://www.w3.org/TR/sparql11-results-json/

// SPARQLResultsJSON represents the JSON format for SPARQL query results
type SPARQLResultsJSON struct {
	Head    ResultHead     `json:"head"`
	Results ResultBindings `json:"results"`
}

// ResultHead contains the variable names
type ResultHead struct {
	Vars []string `json:"vars"`
}

// ResultBindings contains the result bindings
type ResultBindings struct {
	Bindings []map[string]BindingValue `json:"bindings"`
}

// BindingValue represents a single bound value
type BindingValue struct {
	Type     string  `json:"type"`
	Value    string  `json:"value"`
	Datatype *string `json:"datatype,omitempty"`
	XMLLang  *string `json:"xml:lang,omitempty"`
}

// FormatJSON converts a SELECT result to SPARQL JSON format
func FormatJSON(result *executor.SelectResult) ([]byte, error) {
	vars := result.Variables
	if vars == nil {
		vars = []string{}
	}

	bindings := make([]map[string]BindingValue, 0, result.Len())
	for _, binding := range result.Bindings {
		row := make(map[string]BindingValue, len(vars))
		for _, name := range vars {
			if term, ok := binding.Get(name); ok {
				row[name] = termToBindingValue(term)
			}
		}
		bindings = append(bindings, row)
	}

	return json.MarshalIndent(SPARQLResultsJSON{
		Head:    ResultHead{Vars: vars},
		Results: ResultBindings{Bindings: bindings},
	}, "", "  ")
}

// termToBindingValue converts an RDF term to a SPARQL JSON binding value
func termToBindingValue(term rdf.Term) BindingValue {
	switch t := term.(type) {
	case *rdf.NamedNode:
		return BindingValue{Type: "uri", Value: t.IRI}

	case *rdf.Literal:
		bv := BindingValue{Type: "literal", Value: t.Value}
		if t.Language != "" {
			lang := t.Language
			bv.XMLLang = &lang
		} else if t.Datatype != nil {
			datatype := t.Datatype.IRI
			bv.Datatype = &datatype
		}
		return bv

	default:
		return BindingValue{Type: "literal", Value: term.String()}
	}
}
