package store

import (
	"errors"
	"fmt"

	"github.com/aleksaelezovic/plantkg/pkg/rdf"
)

// position of a term within a triple
const (
	posSubject = iota
	posPredicate
	posObject
)

// TripleStore keeps statements in three indexes (SPO, POS, OSP) on top of a
// Storage. It is built once by inserting a finite statement stream and is
// read-only afterwards; reads need no locking once construction is done.
type TripleStore struct {
	storage Storage
	encoder TermEncoder
	decoder TermDecoder

	count int64
	// statements per encoded term, one map per triple position
	cardinality [3]map[EncodedTerm]int64
}

// Statistics summarises the contents of a store
type Statistics struct {
	TotalTriples       int64
	DistinctSubjects   int
	DistinctPredicates int
	DistinctObjects    int
}

// NewTripleStore creates a new triplestore
func NewTripleStore(storage Storage, encoder TermEncoder, decoder TermDecoder) *TripleStore {
	s := &TripleStore{
		storage: storage,
		encoder: encoder,
		decoder: decoder,
	}
	for i := range s.cardinality {
		s.cardinality[i] = make(map[EncodedTerm]int64)
	}
	return s
}

// Close closes the triplestore
func (s *TripleStore) Close() error {
	return s.storage.Close()
}

// Insert adds a triple to every index. Inserting a triple that is already
// present is a no-op and reports false.
func (s *TripleStore) Insert(triple *rdf.Triple) (bool, error) {
	if err := triple.Validate(); err != nil {
		return false, err
	}

	subjEnc, subjStr, err := s.encoder.EncodeTerm(triple.Subject)
	if err != nil {
		return false, fmt.Errorf("failed to encode subject: %w", err)
	}
	predEnc, predStr, err := s.encoder.EncodeTerm(triple.Predicate)
	if err != nil {
		return false, fmt.Errorf("failed to encode predicate: %w", err)
	}
	objEnc, objStr, err := s.encoder.EncodeTerm(triple.Object)
	if err != nil {
		return false, fmt.Errorf("failed to encode object: %w", err)
	}

	txn, err := s.storage.Begin(true)
	if err != nil {
		return false, err
	}
	defer txn.Rollback()

	spoKey := s.encoder.EncodeTripleKey(subjEnc, predEnc, objEnc)
	if _, err := txn.Get(TableSPO, spoKey); err == nil {
		return false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return false, err
	}

	for _, entry := range []struct {
		enc     EncodedTerm
		payload string
	}{{subjEnc, subjStr}, {predEnc, predStr}, {objEnc, objStr}} {
		if err := txn.Set(TableID2Str, entry.enc[:], []byte(entry.payload)); err != nil {
			return false, err
		}
	}

	// Empty value for all index entries
	emptyValue := []byte{}
	if err := txn.Set(TableSPO, spoKey, emptyValue); err != nil {
		return false, err
	}
	if err := txn.Set(TablePOS, s.encoder.EncodeTripleKey(predEnc, objEnc, subjEnc), emptyValue); err != nil {
		return false, err
	}
	if err := txn.Set(TableOSP, s.encoder.EncodeTripleKey(objEnc, subjEnc, predEnc), emptyValue); err != nil {
		return false, err
	}
	if err := txn.Commit(); err != nil {
		return false, err
	}

	s.count++
	s.cardinality[posSubject][subjEnc]++
	s.cardinality[posPredicate][predEnc]++
	s.cardinality[posObject][objEnc]++
	return true, nil
}

// InsertAll inserts triples in order and returns how many were new
func (s *TripleStore) InsertAll(triples []*rdf.Triple) (int, error) {
	added := 0
	for _, triple := range triples {
		ok, err := s.Insert(triple)
		if err != nil {
			return added, fmt.Errorf("failed to insert %s: %w", triple, err)
		}
		if ok {
			added++
		}
	}
	return added, nil
}

// Count returns the number of distinct triples in the store
func (s *TripleStore) Count() int64 {
	return s.count
}

// Stats returns counts used for diagnostics and index selection
func (s *TripleStore) Stats() Statistics {
	return Statistics{
		TotalTriples:       s.count,
		DistinctSubjects:   len(s.cardinality[posSubject]),
		DistinctPredicates: len(s.cardinality[posPredicate]),
		DistinctObjects:    len(s.cardinality[posObject]),
	}
}

// Direction selects which way TransitiveClosure follows a relation
type Direction int

const (
	// Forward follows subject -> object
	Forward Direction = iota
	// Backward follows object -> subject
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// TransitiveClosure returns every IRI reachable from start by zero or more
// steps along relation, in breadth-first discovery order. start is always
// the first element. Cycles are harmless: each node is expanded once.
func (s *TripleStore) TransitiveClosure(start, relation *rdf.NamedNode, dir Direction) ([]*rdf.NamedNode, error) {
	visited := map[string]struct{}{start.IRI: {}}
	result := []*rdf.NamedNode{start}

	for i := 0; i < len(result); i++ {
		node := result[i]
		pattern := &Pattern{Subject: node, Predicate: relation}
		if dir == Backward {
			pattern = &Pattern{Predicate: relation, Object: node}
		}

		it, err := s.Match(pattern)
		if err != nil {
			return nil, err
		}
		for it.Next() {
			triple, err := it.Triple()
			if err != nil {
				_ = it.Close() // #nosec G104 - close error less important than decode error
				return nil, err
			}
			next := triple.Subject
			if dir == Forward {
				n, ok := triple.Object.(*rdf.NamedNode)
				if !ok {
					continue
				}
				next = n
			}
			if _, seen := visited[next.IRI]; seen {
				continue
			}
			visited[next.IRI] = struct{}{}
			result = append(result, next)
		}
		if err := it.Close(); err != nil {
			return nil, err
		}
	}
	return result, nil
}
