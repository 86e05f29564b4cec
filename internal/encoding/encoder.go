package encoding

import (
	"encoding/binary"
	"fmt"

	"github.com/aleksaelezovic/plantkg/pkg/rdf"
	"github.com/aleksaelezovic/plantkg/pkg/store"
	"github.com/zeebo/xxh3"
)

// Kind bytes stored in position 0 of an encoded term
const (
	KindNamedNode byte = iota + 1
	KindStringLiteral
	KindLangStringLiteral
	KindTypedLiteral
)

// payloadSeparator splits a literal's value from its language or datatype
const payloadSeparator = "\x00"

// TermEncoder encodes terms as a kind byte plus a 128-bit xxh3 hash
type TermEncoder struct{}

func NewTermEncoder() *TermEncoder {
	return &TermEncoder{}
}

// Hash128 computes a 128-bit xxhash3 hash of the input string
func (e *TermEncoder) Hash128(s string) [16]byte {
	hash := xxh3.HashString128(s)
	var result [16]byte
	binary.BigEndian.PutUint64(result[0:8], hash.Hi)
	binary.BigEndian.PutUint64(result[8:16], hash.Lo)
	return result
}

// EncodeTerm encodes an IRI or literal. Variables are rejected since they are
// never stored.
func (e *TermEncoder) EncodeTerm(term rdf.Term) (store.EncodedTerm, string, error) {
	var encoded store.EncodedTerm

	switch t := term.(type) {
	case *rdf.NamedNode:
		return e.encode(KindNamedNode, t.IRI), t.IRI, nil
	case *rdf.Literal:
		kind, payload := literalPayload(t)
		return e.encode(kind, payload), payload, nil
	default:
		return encoded, "", fmt.Errorf("cannot encode term %v of type %T", term, term)
	}
}

func (e *TermEncoder) encode(kind byte, payload string) store.EncodedTerm {
	var encoded store.EncodedTerm
	encoded[0] = kind
	hash := e.Hash128(payload)
	copy(encoded[1:], hash[:])
	return encoded
}

func literalPayload(lit *rdf.Literal) (byte, string) {
	if lit.Language != "" {
		return KindLangStringLiteral, lit.Value + payloadSeparator + lit.Language
	}
	if lit.Datatype != nil {
		return KindTypedLiteral, lit.Value + payloadSeparator + lit.Datatype.IRI
	}
	return KindStringLiteral, lit.Value
}

// EncodeTripleKey encodes an index key from terms in index order
func (e *TermEncoder) EncodeTripleKey(terms ...store.EncodedTerm) []byte {
	result := make([]byte, 0, len(terms)*store.EncodedTermSize)
	for _, term := range terms {
		result = append(result, term[:]...)
	}
	return result
}

// GetKind extracts the kind byte from an encoded term
func GetKind(encoded store.EncodedTerm) byte {
	return encoded[0]
}
