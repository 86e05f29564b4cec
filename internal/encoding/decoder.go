package encoding

import (
	"fmt"
	"strings"

	"github.com/aleksaelezovic/plantkg/pkg/rdf"
	"github.com/aleksaelezovic/plantkg/pkg/store"
)

// TermDecoder handles decoding of RDF terms
type TermDecoder struct{}

// NewTermDecoder creates a new term decoder
func NewTermDecoder() *TermDecoder {
	return &TermDecoder{}
}

// DecodeTerm rebuilds a term from its kind byte and id2str payload
func (d *TermDecoder) DecodeTerm(encoded store.EncodedTerm, payload string) (rdf.Term, error) {
	switch GetKind(encoded) {
	case KindNamedNode:
		return rdf.NewNamedNode(payload), nil

	case KindStringLiteral:
		return rdf.NewLiteral(payload), nil

	case KindLangStringLiteral:
		value, lang, ok := splitPayload(payload)
		if !ok {
			return nil, fmt.Errorf("malformed language literal payload %q", payload)
		}
		return rdf.NewLiteralWithLanguage(value, lang), nil

	case KindTypedLiteral:
		value, datatype, ok := splitPayload(payload)
		if !ok {
			return nil, fmt.Errorf("malformed typed literal payload %q", payload)
		}
		return rdf.NewLiteralWithDatatype(value, rdf.NewNamedNode(datatype)), nil

	default:
		return nil, fmt.Errorf("unknown term kind: %d", GetKind(encoded))
	}
}

// splitPayload splits at the last separator; tags and datatype IRIs never
// contain one, values might.
func splitPayload(payload string) (string, string, bool) {
	idx := strings.LastIndex(payload, payloadSeparator)
	if idx < 0 {
		return "", "", false
	}
	return payload[:idx], payload[idx+len(payloadSeparator):], true
}
