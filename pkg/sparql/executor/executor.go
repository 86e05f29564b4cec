package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aleksaelezovic/plantkg/pkg/rdf"
	"github.com/aleksaelezovic/plantkg/pkg/sparql/parser"
	"github.com/aleksaelezovic/plantkg/pkg/store"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrEmptyQuery is returned for a query without patterns
	ErrEmptyQuery = errors.New("query has no patterns")
	// ErrInvalidPattern is returned for malformed patterns or projections
	ErrInvalidPattern = errors.New("invalid pattern")
	// ErrUnboundPath is returned when a bare closure path is evaluated with
	// neither endpoint bound
	ErrUnboundPath = errors.New("property path needs a bound subject or object")
)

// Executor evaluates conjunctive queries against a read-only TripleStore.
// It holds no per-query state, so one executor can serve concurrent queries.
type Executor struct {
	store *store.TripleStore
	ns    *rdf.Namespaces
}

// NewExecutor creates a new query executor. ns resolves prefixed names in
// query text passed to ExecuteString; it may be nil for programmatic queries.
func NewExecutor(ts *store.TripleStore, ns *rdf.Namespaces) *Executor {
	if ns == nil {
		ns = rdf.StandardNamespaces()
	}
	return &Executor{
		store: ts,
		ns:    ns,
	}
}

// Namespaces returns the table used to resolve query text
func (e *Executor) Namespaces() *rdf.Namespaces {
	return e.ns
}

// Execute evaluates query to completion
func (e *Executor) Execute(query *parser.Query) (*SelectResult, error) {
	return e.ExecuteContext(context.Background(), query)
}

// ExecuteString parses text with the executor's namespaces and evaluates it
func (e *Executor) ExecuteString(ctx context.Context, text string) (*SelectResult, error) {
	query, err := parser.Parse(text, e.ns)
	if err != nil {
		metrics.queries.WithLabelValues(outcomeRejected).Inc()
		log.WithError(err).Warn("Query rejected")
		return nil, err
	}
	return e.ExecuteContext(ctx, query)
}

// ExecuteContext evaluates query. Patterns are joined in the given order;
// ctx is checked between patterns. On error no rows are returned.
func (e *Executor) ExecuteContext(ctx context.Context, query *parser.Query) (*SelectResult, error) {
	start := time.Now()
	queryID := uuid.NewString()

	result, err := e.execute(ctx, queryID, query)

	elapsed := time.Since(start)
	metrics.latencySeconds.Observe(elapsed.Seconds())
	fields := log.Fields{
		"query_id": queryID,
		"elapsed":  elapsed,
	}
	if query != nil {
		fields["patterns"] = len(query.Patterns)
	}
	if err != nil {
		metrics.queries.WithLabelValues(classify(err)).Inc()
		log.WithFields(fields).WithError(err).Warn("Query aborted")
		return nil, err
	}

	metrics.queries.WithLabelValues(outcomeOK).Inc()
	metrics.rowsReturned.Add(float64(result.Len()))
	fields["rows"] = result.Len()
	log.WithFields(fields).Debug("Query completed")
	return result, nil
}

func (e *Executor) execute(ctx context.Context, queryID string, query *parser.Query) (*SelectResult, error) {
	if err := validate(query); err != nil {
		return nil, err
	}

	frontier := []*Binding{NewBinding()}
	for i, tp := range query.Patterns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var next []*Binding
		for _, binding := range frontier {
			extended, err := e.extend(binding, tp, next)
			if err != nil {
				return nil, fmt.Errorf("pattern %d (%s): %w", i+1, tp, err)
			}
			next = extended
		}

		if log.IsLevelEnabled(log.DebugLevel) {
			fields := log.Fields{
				"query_id": queryID,
				"pattern":  i + 1,
				"in":       len(frontier),
				"out":      len(next),
			}
			if tp.Path == nil {
				fields["estimate"] = e.store.Estimate(&store.Pattern{
					Subject:   tp.Subject,
					Predicate: tp.Predicate,
					Object:    tp.Object,
				})
			}
			log.WithFields(fields).Debug("Joined pattern")
		}

		frontier = next
		if len(frontier) == 0 {
			break
		}
	}

	return project(query, frontier), nil
}

// extend appends to out every extension of binding that satisfies tp
func (e *Executor) extend(binding *Binding, tp *parser.TriplePattern, out []*Binding) ([]*Binding, error) {
	if tp.Path != nil {
		return e.extendPath(binding, tp, out)
	}

	pattern := &store.Pattern{
		Subject:   binding.substitute(tp.Subject),
		Predicate: binding.substitute(tp.Predicate),
		Object:    binding.substitute(tp.Object),
	}
	err := e.forEachMatch(pattern, func(triple *rdf.Triple) {
		nb := binding.Clone()
		if nb.bind(tp.Subject, triple.Subject) &&
			nb.bind(tp.Predicate, triple.Predicate) &&
			nb.bind(tp.Object, triple.Object) {
			out = append(out, nb)
		}
	})
	return out, err
}

// extendPath evaluates "subject link/closure* object". Each member of the
// closure is treated as an alternative bound value for the far end.
func (e *Executor) extendPath(binding *Binding, tp *parser.TriplePattern, out []*Binding) ([]*Binding, error) {
	path := tp.Path
	subject := binding.substitute(tp.Subject)
	object := binding.substitute(tp.Object)

	switch {
	case !rdf.IsVariable(object):
		// walk the hierarchy down from the object, then look for subjects
		// linked to any member
		objectNode, ok := object.(*rdf.NamedNode)
		if !ok {
			// a literal only reaches itself
			if path.Link == nil {
				nb := binding.Clone()
				if nb.bind(tp.Subject, object) && (rdf.IsVariable(subject) || subject.Equals(object)) {
					out = append(out, nb)
				}
				return out, nil
			}
			return e.extendLinked(binding, tp, subject, []rdf.Term{object}, out)
		}
		members, err := e.store.TransitiveClosure(objectNode, path.Closure, store.Backward)
		if err != nil {
			return nil, err
		}
		if path.Link == nil {
			for _, m := range members {
				nb := binding.Clone()
				if nb.bind(tp.Subject, m) && (rdf.IsVariable(subject) || subject.Equals(m)) {
					out = append(out, nb)
				}
			}
			return out, nil
		}
		targets := make([]rdf.Term, len(members))
		for i, m := range members {
			targets[i] = m
		}
		return e.extendLinked(binding, tp, subject, targets, out)

	case !rdf.IsVariable(subject):
		// follow the link from the subject, then walk up from each target
		var starts []rdf.Term
		if path.Link == nil {
			starts = []rdf.Term{subject}
		} else {
			err := e.forEachMatch(&store.Pattern{Subject: subject, Predicate: path.Link}, func(triple *rdf.Triple) {
				starts = append(starts, triple.Object)
			})
			if err != nil {
				return nil, err
			}
		}
		return e.extendClosures(binding, tp, starts, out)

	case path.Link != nil:
		// nothing bound: enumerate every link statement
		var links []*rdf.Triple
		err := e.forEachMatch(&store.Pattern{Predicate: path.Link}, func(triple *rdf.Triple) {
			links = append(links, triple)
		})
		if err != nil {
			return nil, err
		}
		for _, link := range links {
			nb := binding.Clone()
			if !nb.bind(tp.Subject, link.Subject) {
				continue
			}
			out, err = e.extendClosures(nb, tp, []rdf.Term{link.Object}, out)
			if err != nil {
				return nil, err
			}
		}
		return out, nil

	default:
		return nil, ErrUnboundPath
	}
}

// extendLinked matches (subject, link, target) for every target and binds
// the subject slot.
func (e *Executor) extendLinked(binding *Binding, tp *parser.TriplePattern, subject rdf.Term, targets []rdf.Term, out []*Binding) ([]*Binding, error) {
	for _, target := range targets {
		err := e.forEachMatch(&store.Pattern{Subject: subject, Predicate: tp.Path.Link, Object: target}, func(triple *rdf.Triple) {
			nb := binding.Clone()
			if nb.bind(tp.Subject, triple.Subject) {
				out = append(out, nb)
			}
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// extendClosures binds the object slot to every member of the forward
// closure of each start term.
func (e *Executor) extendClosures(binding *Binding, tp *parser.TriplePattern, starts []rdf.Term, out []*Binding) ([]*Binding, error) {
	for _, start := range starts {
		members := []rdf.Term{start}
		if node, ok := start.(*rdf.NamedNode); ok {
			closure, err := e.store.TransitiveClosure(node, tp.Path.Closure, store.Forward)
			if err != nil {
				return nil, err
			}
			members = members[:0]
			for _, m := range closure {
				members = append(members, m)
			}
		}
		for _, m := range members {
			nb := binding.Clone()
			if nb.bind(tp.Object, m) {
				out = append(out, nb)
			}
		}
	}
	return out, nil
}

// forEachMatch calls fn for every triple matching pattern
func (e *Executor) forEachMatch(pattern *store.Pattern, fn func(*rdf.Triple)) error {
	it, err := e.store.Match(pattern)
	if err != nil {
		return err
	}
	for it.Next() {
		triple, err := it.Triple()
		if err != nil {
			if closeErr := it.Close(); closeErr != nil {
				log.WithError(closeErr).Debug("Error closing iterator after decode failure")
			}
			return err
		}
		fn(triple)
	}
	return it.Close()
}

// validate rejects structurally invalid queries before any join work
func validate(query *parser.Query) error {
	if query == nil || len(query.Patterns) == 0 {
		return ErrEmptyQuery
	}
	for i, tp := range query.Patterns {
		if err := validatePattern(tp); err != nil {
			return fmt.Errorf("pattern %d: %w", i+1, err)
		}
	}

	known := make(map[string]bool)
	for _, name := range query.PatternVariables() {
		known[name] = true
	}
	for _, v := range query.Variables {
		if v == nil || !known[v.Name] {
			return fmt.Errorf("%w: projected variable %v does not occur in any pattern", ErrInvalidPattern, v)
		}
	}
	if query.Limit != nil && *query.Limit < 0 {
		return fmt.Errorf("%w: negative limit %d", ErrInvalidPattern, *query.Limit)
	}
	return nil
}

func validatePattern(tp *parser.TriplePattern) error {
	if tp == nil {
		return fmt.Errorf("%w: nil pattern", ErrInvalidPattern)
	}
	if rdf.IsNil(tp.Subject) || rdf.IsNil(tp.Object) {
		return fmt.Errorf("%w: missing subject or object", ErrInvalidPattern)
	}
	if _, ok := tp.Subject.(*rdf.Literal); ok {
		return fmt.Errorf("%w: literal subject %s", ErrInvalidPattern, tp.Subject)
	}
	if tp.Path != nil {
		if tp.Predicate != nil {
			return fmt.Errorf("%w: pattern has both a predicate and a path", ErrInvalidPattern)
		}
		if tp.Path.Closure == nil {
			return fmt.Errorf("%w: path without closure relation", ErrInvalidPattern)
		}
		return nil
	}
	if rdf.IsNil(tp.Predicate) {
		return fmt.Errorf("%w: missing predicate", ErrInvalidPattern)
	}
	switch tp.Predicate.(type) {
	case *rdf.NamedNode, *rdf.Variable:
		return nil
	default:
		return fmt.Errorf("%w: literal predicate %s", ErrInvalidPattern, tp.Predicate)
	}
}

// project restricts rows to the projected variables, then applies
// DISTINCT and LIMIT.
func project(query *parser.Query, frontier []*Binding) *SelectResult {
	vars := query.ProjectedVariables()
	result := &SelectResult{Variables: vars, Bindings: []*Binding{}}

	seen := make(map[string]bool)
	for _, binding := range frontier {
		if query.Limit != nil && len(result.Bindings) >= *query.Limit {
			break
		}
		row := NewBinding()
		for _, name := range vars {
			if t, ok := binding.Vars[name]; ok {
				row.Vars[name] = t
			}
		}
		if query.Distinct {
			sig := row.signature(vars)
			if seen[sig] {
				continue
			}
			seen[sig] = true
		}
		result.Bindings = append(result.Bindings, row)
	}
	return result
}

// classify maps an error to a metrics outcome
func classify(err error) string {
	var syntaxErr *parser.SyntaxError
	switch {
	case errors.As(err, &syntaxErr),
		errors.Is(err, ErrEmptyQuery),
		errors.Is(err, ErrInvalidPattern),
		errors.Is(err, ErrUnboundPath),
		errors.Is(err, rdf.ErrUnknownPrefix),
		errors.Is(err, rdf.ErrNoDefaultNamespace):
		return outcomeRejected
	}
	return outcomeFailed
}
