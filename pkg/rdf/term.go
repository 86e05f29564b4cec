package rdf

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// TermType represents the type of an RDF term
type TermType byte

const (
	TermTypeNamedNode TermType = iota + 1
	TermTypeLiteral
	TermTypeVariable
)

func (t TermType) String() string {
	switch t {
	case TermTypeNamedNode:
		return "iri"
	case TermTypeLiteral:
		return "literal"
	case TermTypeVariable:
		return "variable"
	default:
		return "unknown"
	}
}

// Term is a closed set of values: *NamedNode, *Literal and *Variable.
// Only named nodes and literals are ever stored; variables live in queries.
type Term interface {
	Type() TermType
	String() string
	Equals(other Term) bool
	isTerm()
}

// NamedNode represents an IRI
type NamedNode struct {
	IRI string
}

func NewNamedNode(iri string) *NamedNode {
	return &NamedNode{IRI: iri}
}

func (n *NamedNode) Type() TermType {
	return TermTypeNamedNode
}

func (n *NamedNode) String() string {
	return fmt.Sprintf("<%s>", n.IRI)
}

func (n *NamedNode) Equals(other Term) bool {
	if on, ok := other.(*NamedNode); ok {
		return n.IRI == on.IRI
	}
	return false
}

func (*NamedNode) isTerm() {}

// Literal represents an RDF literal. A literal carries at most one tag:
// either a language or a datatype.
type Literal struct {
	Value    string
	Language string     // for language-tagged strings
	Datatype *NamedNode // for typed literals
}

func NewLiteral(value string) *Literal {
	return &Literal{Value: value}
}

func NewLiteralWithLanguage(value, language string) *Literal {
	return &Literal{Value: value, Language: strings.ToLower(language)}
}

func NewLiteralWithDatatype(value string, datatype *NamedNode) *Literal {
	// xsd:string is the implicit datatype of plain literals
	if datatype != nil && datatype.IRI == XSDString.IRI {
		datatype = nil
	}
	return &Literal{Value: value, Datatype: datatype}
}

func NewIntegerLiteral(value int64) *Literal {
	return NewLiteralWithDatatype(strconv.FormatInt(value, 10), XSDInteger)
}

func NewBooleanLiteral(value bool) *Literal {
	return NewLiteralWithDatatype(strconv.FormatBool(value), XSDBoolean)
}

func (l *Literal) Type() TermType {
	return TermTypeLiteral
}

func (l *Literal) String() string {
	result := strconv.Quote(l.Value)
	if l.Language != "" {
		result += "@" + l.Language
	} else if l.Datatype != nil {
		result += "^^" + l.Datatype.String()
	}
	return result
}

func (l *Literal) Equals(other Term) bool {
	ol, ok := other.(*Literal)
	if !ok {
		return false
	}
	if l.Value != ol.Value || l.Language != ol.Language {
		return false
	}
	if l.Datatype == nil || ol.Datatype == nil {
		return l.Datatype == nil && ol.Datatype == nil
	}
	return l.Datatype.Equals(ol.Datatype)
}

func (*Literal) isTerm() {}

// Variable is a named placeholder inside a query pattern
type Variable struct {
	Name string
}

func NewVariable(name string) *Variable {
	return &Variable{Name: name}
}

func (v *Variable) Type() TermType {
	return TermTypeVariable
}

func (v *Variable) String() string {
	return "?" + v.Name
}

// Equals is true only for another variable with the same name.
func (v *Variable) Equals(other Term) bool {
	if ov, ok := other.(*Variable); ok {
		return v.Name == ov.Name
	}
	return false
}

func (*Variable) isTerm() {}

// IsVariable reports whether t is nil, a nil term pointer or a query
// variable, i.e. an unbound slot of a pattern.
func IsVariable(t Term) bool {
	if IsNil(t) {
		return true
	}
	_, ok := t.(*Variable)
	return ok
}

// IsNil reports whether t is nil or a nil pointer of one of the term types
func IsNil(t Term) bool {
	switch v := t.(type) {
	case nil:
		return true
	case *NamedNode:
		return v == nil
	case *Literal:
		return v == nil
	case *Variable:
		return v == nil
	}
	return false
}

// ErrInvalidTriple is returned for triples that cannot be stored
var ErrInvalidTriple = errors.New("invalid triple")

// Triple represents an RDF triple (subject, predicate, object)
type Triple struct {
	Subject   *NamedNode
	Predicate *NamedNode
	Object    Term
}

func NewTriple(subject, predicate *NamedNode, object Term) *Triple {
	return &Triple{
		Subject:   subject,
		Predicate: predicate,
		Object:    object,
	}
}

// Validate checks that the triple only holds storable terms
func (t *Triple) Validate() error {
	if t == nil || t.Subject == nil || t.Predicate == nil || IsNil(t.Object) {
		return fmt.Errorf("%w: missing term", ErrInvalidTriple)
	}
	switch t.Object.(type) {
	case *NamedNode, *Literal:
		return nil
	default:
		return fmt.Errorf("%w: object %s is not an IRI or literal", ErrInvalidTriple, t.Object)
	}
}

func (t *Triple) Equals(other *Triple) bool {
	return t.Subject.Equals(other.Subject) &&
		t.Predicate.Equals(other.Predicate) &&
		t.Object.Equals(other.Object)
}

func (t *Triple) String() string {
	return fmt.Sprintf("%s %s %s .", t.Subject, t.Predicate, t.Object)
}

// Well-known vocabulary
var (
	RDFType  = NewNamedNode(RDFNamespace + "type")
	RDFFirst = NewNamedNode(RDFNamespace + "first")
	RDFRest  = NewNamedNode(RDFNamespace + "rest")
	RDFNil   = NewNamedNode(RDFNamespace + "nil")

	RDFSLabel      = NewNamedNode(RDFSNamespace + "label")
	RDFSSubClassOf = NewNamedNode(RDFSNamespace + "subClassOf")

	XSDString  = NewNamedNode(XSDNamespace + "string")
	XSDInteger = NewNamedNode(XSDNamespace + "integer")
	XSDDecimal = NewNamedNode(XSDNamespace + "decimal")
	XSDDouble  = NewNamedNode(XSDNamespace + "double")
	XSDBoolean = NewNamedNode(XSDNamespace + "boolean")
)
