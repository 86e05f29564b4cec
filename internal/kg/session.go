// Package kg builds a queryable knowledge graph from configuration: it
// reads the ontology into an in-memory store and runs named queries
// against it.
package kg

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aleksaelezovic/plantkg/internal/config"
	"github.com/aleksaelezovic/plantkg/internal/encoding"
	"github.com/aleksaelezovic/plantkg/internal/storage"
	"github.com/aleksaelezovic/plantkg/internal/turtle"
	"github.com/aleksaelezovic/plantkg/pkg/rdf"
	"github.com/aleksaelezovic/plantkg/pkg/sparql/executor"
	"github.com/aleksaelezovic/plantkg/pkg/store"
	log "github.com/sirupsen/logrus"
)

// LoadError reports an ontology that could not be opened or parsed. No
// session is built when it is returned.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("could not parse '%s': %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Session is a loaded knowledge graph
type Session struct {
	source   string
	ns       *rdf.Namespaces
	store    *store.TripleStore
	executor *executor.Executor
}

// Open loads the ontology named by cfg. Prefixes from the configuration
// win over the ones declared in the ontology.
func Open(cfg *config.Config) (*Session, error) {
	rc, err := cfg.OpenOntology()
	if err != nil {
		return nil, &LoadError{Source: cfg.Ontology, Err: err}
	}
	defer rc.Close()

	session, err := Load(cfg.Ontology, rc, cfg.NamespaceTable())
	if err != nil {
		return nil, err
	}
	for prefix, base := range cfg.Namespaces {
		session.ns.Register(prefix, base)
	}
	return session, nil
}

// Load reads a Turtle document from r into a new session. Prefixes the
// document declares are registered into ns, which becomes the table used
// to resolve query text.
func Load(source string, r io.Reader, ns *rdf.Namespaces) (*Session, error) {
	start := time.Now()
	if ns == nil {
		ns = rdf.StandardNamespaces()
	}

	triples, err := turtle.NewReader(r, ns).ReadAll()
	if err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}

	backend, err := storage.NewInMemoryStorage()
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	ts := store.NewTripleStore(backend, encoding.NewTermEncoder(), encoding.NewTermDecoder())

	added, err := ts.InsertAll(triples)
	if err != nil {
		if closeErr := ts.Close(); closeErr != nil {
			log.WithError(closeErr).Debug("Error closing store after failed load")
		}
		return nil, &LoadError{Source: source, Err: err}
	}

	log.WithFields(log.Fields{
		"source":     source,
		"statements": len(triples),
		"triples":    added,
		"elapsed":    time.Since(start),
	}).Info("Loaded knowledge graph")

	return &Session{
		source:   source,
		ns:       ns,
		store:    ts,
		executor: executor.NewExecutor(ts, ns),
	}, nil
}

// Source returns the name the graph was loaded from
func (s *Session) Source() string {
	return s.source
}

// Namespaces returns the prefix table used for query text
func (s *Session) Namespaces() *rdf.Namespaces {
	return s.ns
}

// Count returns the number of distinct triples in the graph
func (s *Session) Count() int64 {
	return s.store.Count()
}

// Stats returns store statistics
func (s *Session) Stats() store.Statistics {
	return s.store.Stats()
}

// Triples returns every statement of the graph in index order
func (s *Session) Triples() ([]*rdf.Triple, error) {
	it, err := s.store.Match(&store.Pattern{})
	if err != nil {
		return nil, err
	}
	defer it.Close()

	triples := make([]*rdf.Triple, 0, s.store.Count())
	for it.Next() {
		triple, err := it.Triple()
		if err != nil {
			return nil, err
		}
		triples = append(triples, triple)
	}
	return triples, nil
}

// Query parses and evaluates ad hoc query text
func (s *Session) Query(ctx context.Context, text string) (*executor.SelectResult, error) {
	return s.executor.ExecuteString(ctx, text)
}

// Run evaluates a configured query
func (s *Session) Run(ctx context.Context, q config.Query) (*executor.SelectResult, error) {
	result, err := s.Query(ctx, q.Query)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", q.Name, err)
	}
	log.WithFields(log.Fields{
		"query": q.Name,
		"rows":  result.Len(),
	}).Debug("Ran named query")
	return result, nil
}

// Close releases the store
func (s *Session) Close() error {
	return s.store.Close()
}
