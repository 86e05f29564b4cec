package executor

import (
	"strings"

	"github.com/aleksaelezovic/plantkg/pkg/rdf"
)

// Binding maps variable names to stored terms; one result row
type Binding struct {
	Vars map[string]rdf.Term
}

// NewBinding creates a new empty binding
func NewBinding() *Binding {
	return &Binding{Vars: make(map[string]rdf.Term)}
}

// Clone creates a copy of the binding
func (b *Binding) Clone() *Binding {
	c := &Binding{Vars: make(map[string]rdf.Term, len(b.Vars)+1)}
	for k, v := range b.Vars {
		c.Vars[k] = v
	}
	return c
}

// Get returns the term bound to name, if any
func (b *Binding) Get(name string) (rdf.Term, bool) {
	t, ok := b.Vars[name]
	return t, ok
}

// substitute replaces a bound variable by its value
func (b *Binding) substitute(term rdf.Term) rdf.Term {
	if v, ok := term.(*rdf.Variable); ok {
		if value, bound := b.Vars[v.Name]; bound {
			return value
		}
	}
	return term
}

// bind assigns value to slot when slot is a variable. It reports false when
// the variable already holds a different term; that is the join condition.
func (b *Binding) bind(slot, value rdf.Term) bool {
	v, ok := slot.(*rdf.Variable)
	if !ok {
		return true
	}
	if existing, bound := b.Vars[v.Name]; bound {
		return existing.Equals(value)
	}
	b.Vars[v.Name] = value
	return true
}

// signature identifies a projected row for DISTINCT
func (b *Binding) signature(vars []string) string {
	var sb strings.Builder
	for _, name := range vars {
		if t, ok := b.Vars[name]; ok {
			sb.WriteString(t.String())
		}
		sb.WriteByte(0)
	}
	return sb.String()
}

// SelectResult is the binding set of a query: rows in discovery order,
// each restricted to Variables.
type SelectResult struct {
	Variables []string
	Bindings  []*Binding
}

// Len returns the number of rows
func (r *SelectResult) Len() int {
	return len(r.Bindings)
}

// Row returns the values of row i in Variables order; unbound values are nil
func (r *SelectResult) Row(i int) []rdf.Term {
	row := make([]rdf.Term, len(r.Variables))
	for j, name := range r.Variables {
		row[j] = r.Bindings[i].Vars[name]
	}
	return row
}
