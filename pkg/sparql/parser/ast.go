package parser

import (
	"fmt"
	"strings"

	"github.com/aleksaelezovic/plantkg/pkg/rdf"
)

// Query is a conjunctive SELECT query: an ordered list of triple patterns
// plus the projection.
type Query struct {
	Variables []*rdf.Variable // nil selects every variable (SELECT *)
	Distinct  bool
	Patterns  []*TriplePattern
	Limit     *int
}

// NewQuery builds a query from patterns, projecting the named variables
func NewQuery(variables []string, patterns ...*TriplePattern) *Query {
	q := &Query{Patterns: patterns}
	for _, name := range variables {
		q.Variables = append(q.Variables, rdf.NewVariable(name))
	}
	return q
}

// TriplePattern is a pattern whose slots are bound terms or *rdf.Variable.
// When Path is set the predicate slot is nil and the pattern matches
// Subject Path Object.
type TriplePattern struct {
	Subject   rdf.Term
	Predicate rdf.Term
	Object    rdf.Term
	Path      *PropertyPath
}

// NewTriplePattern creates an ordinary pattern
func NewTriplePattern(subject, predicate, object rdf.Term) *TriplePattern {
	return &TriplePattern{Subject: subject, Predicate: predicate, Object: object}
}

// NewPathPattern creates a "subject link/closure* object" pattern. link may
// be nil for a bare "closure*" path.
func NewPathPattern(subject rdf.Term, link, closure *rdf.NamedNode, object rdf.Term) *TriplePattern {
	return &TriplePattern{
		Subject: subject,
		Object:  object,
		Path:    &PropertyPath{Link: link, Closure: closure},
	}
}

// Slots returns subject, predicate and object in order
func (tp *TriplePattern) Slots() []rdf.Term {
	return []rdf.Term{tp.Subject, tp.Predicate, tp.Object}
}

func (tp *TriplePattern) String() string {
	pred := "<nil>"
	if tp.Path != nil {
		pred = tp.Path.String()
	} else if tp.Predicate != nil {
		pred = tp.Predicate.String()
	}
	return fmt.Sprintf("%v %s %v", tp.Subject, pred, tp.Object)
}

// PropertyPath is the one supported path shape: an optional single hop
// along Link followed by zero or more hops along Closure.
type PropertyPath struct {
	Link    *rdf.NamedNode
	Closure *rdf.NamedNode
}

func (pp *PropertyPath) String() string {
	if pp.Link == nil {
		return pp.Closure.String() + "*"
	}
	return pp.Link.String() + "/" + pp.Closure.String() + "*"
}

// ProjectedVariables returns the projection; for SELECT * it is every
// variable in order of first appearance.
func (q *Query) ProjectedVariables() []string {
	if q.Variables != nil {
		names := make([]string, len(q.Variables))
		for i, v := range q.Variables {
			names[i] = v.Name
		}
		return names
	}
	return q.PatternVariables()
}

// PatternVariables lists the variables used by the patterns in order of
// first appearance.
func (q *Query) PatternVariables() []string {
	seen := make(map[string]bool)
	var names []string
	for _, tp := range q.Patterns {
		if tp == nil {
			continue
		}
		for _, term := range tp.Slots() {
			if v, ok := term.(*rdf.Variable); ok && !seen[v.Name] {
				seen[v.Name] = true
				names = append(names, v.Name)
			}
		}
	}
	return names
}

func (q *Query) String() string {
	var b strings.Builder
	b.WriteString("SELECT ")
	if q.Distinct {
		b.WriteString("DISTINCT ")
	}
	if q.Variables == nil {
		b.WriteString("*")
	} else {
		for i, v := range q.Variables {
			if i > 0 {
				b.WriteString(" ")
			}
			b.WriteString(v.String())
		}
	}
	b.WriteString(" WHERE {")
	for _, tp := range q.Patterns {
		b.WriteString(" ")
		b.WriteString(tp.String())
		b.WriteString(" .")
	}
	b.WriteString(" }")
	if q.Limit != nil {
		fmt.Fprintf(&b, " LIMIT %d", *q.Limit)
	}
	return b.String()
}
