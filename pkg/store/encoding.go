package store

import (
	"github.com/aleksaelezovic/plantkg/pkg/rdf"
)

// EncodedTermSize is the width of an encoded term: a type byte followed by a
// 128-bit hash of the term's payload.
const EncodedTermSize = 17

// EncodedTerm is the fixed-size key form of a stored term. Structurally equal
// terms always encode to the same value.
type EncodedTerm [EncodedTermSize]byte

// TermEncoder handles encoding of RDF terms into a compact binary format
type TermEncoder interface {
	// EncodeTerm encodes a stored term into its key form.
	// It also returns the payload to keep in the id2str table.
	EncodeTerm(term rdf.Term) (EncodedTerm, string, error)

	// EncodeTripleKey concatenates encoded terms into an index key.
	// Keys are big-endian so that prefix scans work.
	EncodeTripleKey(terms ...EncodedTerm) []byte
}

// TermDecoder handles decoding of RDF terms from binary format
type TermDecoder interface {
	// DecodeTerm rebuilds a term from its key form and id2str payload
	DecodeTerm(encoded EncodedTerm, payload string) (rdf.Term, error)
}
