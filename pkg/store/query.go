package store

import (
	"fmt"

	"github.com/aleksaelezovic/plantkg/pkg/rdf"
)

// Pattern is a triple pattern. A nil slot or a *rdf.Variable is unbound.
type Pattern struct {
	Subject   rdf.Term
	Predicate rdf.Term
	Object    rdf.Term
}

func (p *Pattern) slots() [3]rdf.Term {
	return [3]rdf.Term{p.Subject, p.Predicate, p.Object}
}

// TripleIterator iterates over triples matching a pattern
type TripleIterator interface {
	Next() bool
	Triple() (*rdf.Triple, error)
	Close() error
}

// Index names a statement table together with its key order. KeyOrder maps
// key position -> triple position (S=0, P=1, O=2).
type Index struct {
	Table    Table
	KeyOrder [3]int
}

var (
	indexSPO = Index{TableSPO, [3]int{posSubject, posPredicate, posObject}}
	indexPOS = Index{TablePOS, [3]int{posPredicate, posObject, posSubject}}
	indexOSP = Index{TableOSP, [3]int{posObject, posSubject, posPredicate}}
)

// SelectIndex chooses the index whose key prefix covers the most bound
// slots. Every pair of bound slots is a prefix of exactly one index; for a
// single bound slot the index led by that slot is used, and when nothing is
// bound the SPO table is scanned in full.
func (s *TripleStore) SelectIndex(pattern *Pattern) Index {
	slots := pattern.slots()
	sBound := !rdf.IsVariable(slots[posSubject])
	pBound := !rdf.IsVariable(slots[posPredicate])
	oBound := !rdf.IsVariable(slots[posObject])

	switch {
	case sBound && pBound:
		return indexSPO
	case pBound && oBound:
		return indexPOS
	case oBound && sBound:
		return indexOSP
	case sBound:
		return indexSPO
	case pBound:
		return indexPOS
	case oBound:
		return indexOSP
	}
	return indexSPO
}

// Estimate returns an upper bound on the number of triples matching pattern,
// taken from the per-position cardinality counts.
func (s *TripleStore) Estimate(pattern *Pattern) int64 {
	best := s.count
	for pos, term := range pattern.slots() {
		if rdf.IsVariable(term) {
			continue
		}
		encoded, _, err := s.encoder.EncodeTerm(term)
		if err != nil {
			return 0
		}
		if n := s.cardinality[pos][encoded]; n < best {
			best = n
		}
	}
	return best
}

// Match returns a lazy iterator over every stored triple agreeing with the
// bound slots of pattern. Each call opens its own read transaction, so a
// pattern can be matched again from the start at any time.
func (s *TripleStore) Match(pattern *Pattern) (TripleIterator, error) {
	slots := pattern.slots()
	var encoded [3]EncodedTerm
	for pos, term := range slots {
		if rdf.IsVariable(term) {
			continue
		}
		enc, _, err := s.encoder.EncodeTerm(term)
		if err != nil {
			return nil, err
		}
		// a term never stored in this position cannot match anything
		if s.cardinality[pos][enc] == 0 {
			return emptyIterator{}, nil
		}
		encoded[pos] = enc
	}

	index := s.SelectIndex(pattern)

	var prefix []byte
	for _, pos := range index.KeyOrder {
		if rdf.IsVariable(slots[pos]) {
			break
		}
		prefix = append(prefix, encoded[pos][:]...)
	}

	txn, err := s.storage.Begin(false)
	if err != nil {
		return nil, err
	}
	it, err := txn.Scan(index.Table, prefix)
	if err != nil {
		_ = txn.Rollback() // #nosec G104 - rollback error less important than original error
		return nil, err
	}

	return &tripleIterator{
		store: s,
		txn:   txn,
		it:    it,
		index: index,
		terms: make(map[EncodedTerm]rdf.Term),
	}, nil
}

// tripleIterator implements TripleIterator
type tripleIterator struct {
	store  *TripleStore
	txn    Transaction
	it     Iterator
	index  Index
	terms  map[EncodedTerm]rdf.Term // decoded terms seen by this iterator
	closed bool
}

func (ti *tripleIterator) Next() bool {
	if ti.closed {
		return false
	}
	return ti.it.Next()
}

func (ti *tripleIterator) Triple() (*rdf.Triple, error) {
	if ti.closed {
		return nil, fmt.Errorf("iterator closed")
	}

	key := ti.it.Key()
	if len(key) != 3*EncodedTermSize {
		return nil, fmt.Errorf("invalid key length: %d", len(key))
	}

	var positions [3]rdf.Term
	for i, pos := range ti.index.KeyOrder {
		var enc EncodedTerm
		copy(enc[:], key[i*EncodedTermSize:(i+1)*EncodedTermSize])
		term, err := ti.decode(enc)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", positionName(pos), err)
		}
		positions[pos] = term
	}

	subject, ok := positions[posSubject].(*rdf.NamedNode)
	if !ok {
		return nil, fmt.Errorf("stored subject %s is not an IRI", positions[posSubject])
	}
	predicate, ok := positions[posPredicate].(*rdf.NamedNode)
	if !ok {
		return nil, fmt.Errorf("stored predicate %s is not an IRI", positions[posPredicate])
	}
	return rdf.NewTriple(subject, predicate, positions[posObject]), nil
}

func (ti *tripleIterator) decode(enc EncodedTerm) (rdf.Term, error) {
	if term, ok := ti.terms[enc]; ok {
		return term, nil
	}
	payload, err := ti.txn.Get(TableID2Str, enc[:])
	if err != nil {
		return nil, err
	}
	term, err := ti.store.decoder.DecodeTerm(enc, string(payload))
	if err != nil {
		return nil, err
	}
	ti.terms[enc] = term
	return term, nil
}

func (ti *tripleIterator) Close() error {
	if ti.closed {
		return nil
	}
	ti.closed = true
	_ = ti.it.Close() // #nosec G104 - iterator close error less critical than transaction rollback error
	return ti.txn.Rollback()
}

func positionName(pos int) string {
	switch pos {
	case posSubject:
		return "subject"
	case posPredicate:
		return "predicate"
	default:
		return "object"
	}
}

// emptyIterator is returned when a bound term is unknown to the store
type emptyIterator struct{}

func (emptyIterator) Next() bool { return false }

func (emptyIterator) Triple() (*rdf.Triple, error) { return nil, fmt.Errorf("no current triple") }

func (emptyIterator) Close() error { return nil }
