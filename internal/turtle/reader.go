package turtle

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/aleksaelezovic/plantkg/pkg/rdf"
	"github.com/google/uuid"
)

// SkolemPrefix starts every IRI minted for a blank node
const SkolemPrefix = "urn:uuid:"

// ParseError reports a malformed document with its position
type ParseError struct {
	Line   int
	Column int
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d, column %d: %v", e.Line, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Reader parses a Turtle document into ground triples. Prefix declarations
// are registered into the namespace table given to NewReader. Blank nodes
// are replaced by fresh urn:uuid IRIs; a label maps to the same IRI for the
// whole document.
type Reader struct {
	r      io.Reader
	ns     *rdf.Namespaces
	input  string
	pos    int
	length int
	base   *url.URL

	bnodes  map[string]*rdf.NamedNode
	triples []*rdf.Triple
}

// NewReader creates a reader over r. ns may be nil.
func NewReader(r io.Reader, ns *rdf.Namespaces) *Reader {
	if ns == nil {
		ns = rdf.NewNamespaces()
	}
	return &Reader{
		r:      r,
		ns:     ns,
		bnodes: make(map[string]*rdf.NamedNode),
	}
}

// Namespaces returns the table prefixes were registered into
func (rd *Reader) Namespaces() *rdf.Namespaces {
	return rd.ns
}

// ReadAll parses the whole document. Triples are returned in document
// order, with the statements of a nested [ ] or ( ) before the statement
// that refers to it.
func (rd *Reader) ReadAll() ([]*rdf.Triple, error) {
	data, err := io.ReadAll(rd.r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	rd.input = string(data)
	rd.length = len(rd.input)
	rd.pos = 0
	rd.triples = nil

	for {
		rd.skipWhitespaceAndComments()
		if rd.pos >= rd.length {
			break
		}

		switch {
		case rd.matchKeyword("@prefix"):
			err = rd.parsePrefix(true)
		case rd.matchKeyword("PREFIX"):
			err = rd.parsePrefix(false)
		case rd.matchKeyword("@base"):
			err = rd.parseBase(true)
		case rd.matchKeyword("BASE"):
			err = rd.parseBase(false)
		default:
			err = rd.parseTriples()
		}
		if err != nil {
			return nil, err
		}
	}
	return rd.triples, nil
}

func (rd *Reader) emit(subject, predicate *rdf.NamedNode, object rdf.Term) {
	rd.triples = append(rd.triples, rdf.NewTriple(subject, predicate, object))
}

func (rd *Reader) freshNode() *rdf.NamedNode {
	return rdf.NewNamedNode(SkolemPrefix + uuid.NewString())
}

// parsePrefix parses "p: <iri>" and an ending '.' for the @prefix form
func (rd *Reader) parsePrefix(dotted bool) error {
	rd.skipWhitespaceAndComments()
	prefix := rd.readWhile(isNameChar)
	if rd.peek() != ':' {
		return rd.errorf("expected ':' after prefix name")
	}
	rd.pos++

	rd.skipWhitespaceAndComments()
	iri, err := rd.parseIRI()
	if err != nil {
		return err
	}
	rd.ns.Register(prefix, iri)
	return rd.endDirective(dotted)
}

func (rd *Reader) parseBase(dotted bool) error {
	rd.skipWhitespaceAndComments()
	iri, err := rd.parseIRI()
	if err != nil {
		return err
	}
	base, err := url.Parse(iri)
	if err != nil {
		return rd.errorf("invalid base IRI %q: %v", iri, err)
	}
	rd.base = base
	return rd.endDirective(dotted)
}

func (rd *Reader) endDirective(dotted bool) error {
	if !dotted {
		return nil
	}
	rd.skipWhitespaceAndComments()
	if rd.peek() != '.' {
		return rd.errorf("expected '.' after directive")
	}
	rd.pos++
	return nil
}

// parseTriples parses one statement up to and including its '.'
func (rd *Reader) parseTriples() error {
	var subject *rdf.NamedNode
	var err error

	if rd.peek() == '[' {
		subject, err = rd.parseBlankNodePropertyList()
		if err != nil {
			return err
		}
		// "[ :p :o ] ." is a complete statement
		rd.skipWhitespaceAndComments()
		if rd.peek() == '.' {
			rd.pos++
			return nil
		}
	} else {
		subject, err = rd.parseSubject()
		if err != nil {
			return fmt.Errorf("failed to parse subject: %w", err)
		}
	}

	if err := rd.parsePredicateObjectList(subject); err != nil {
		return err
	}

	rd.skipWhitespaceAndComments()
	if rd.peek() != '.' {
		return rd.errorf("expected '.' at end of triples")
	}
	rd.pos++
	return nil
}

// parsePredicateObjectList handles the ';' and ',' shorthands
func (rd *Reader) parsePredicateObjectList(subject *rdf.NamedNode) error {
	for {
		predicate, err := rd.parseVerb()
		if err != nil {
			return fmt.Errorf("failed to parse predicate: %w", err)
		}

		for {
			object, err := rd.parseObject()
			if err != nil {
				return fmt.Errorf("failed to parse object: %w", err)
			}
			rd.emit(subject, predicate, object)

			rd.skipWhitespaceAndComments()
			if rd.peek() != ',' {
				break
			}
			rd.pos++
		}

		rd.skipWhitespaceAndComments()
		if rd.peek() != ';' {
			return nil
		}
		for rd.peek() == ';' {
			rd.pos++
			rd.skipWhitespaceAndComments()
		}
		// a trailing ';' is allowed
		if ch := rd.peek(); ch == '.' || ch == ']' || rd.pos >= rd.length {
			return nil
		}
	}
}

func (rd *Reader) parseVerb() (*rdf.NamedNode, error) {
	rd.skipWhitespaceAndComments()
	if rd.peek() == 'a' && !isNameChar(rd.peekAt(1)) && rd.peekAt(1) != ':' {
		rd.pos++
		return rdf.RDFType, nil
	}
	switch ch := rd.peek(); {
	case ch == '<':
		return rd.parseIRINode()
	case isNameChar(ch) || ch == ':':
		return rd.parsePrefixedName()
	}
	return nil, rd.errorf("expected IRI or 'a' as predicate")
}

func (rd *Reader) parseSubject() (*rdf.NamedNode, error) {
	rd.skipWhitespaceAndComments()
	switch ch := rd.peek(); {
	case ch == '<':
		return rd.parseIRINode()
	case ch == '_' && rd.peekAt(1) == ':':
		return rd.parseBlankNodeLabel()
	case ch == '(':
		return rd.parseCollection()
	case ch == '"' || ch == '\'' || isDigit(ch):
		return nil, rd.errorf("a literal cannot be a subject")
	case isNameChar(ch) || ch == ':':
		return rd.parsePrefixedName()
	}
	return nil, rd.errorf("unexpected character %q", rd.peek())
}

func (rd *Reader) parseObject() (rdf.Term, error) {
	rd.skipWhitespaceAndComments()
	if rd.pos >= rd.length {
		return nil, rd.errorf("unexpected end of input")
	}

	switch ch := rd.peek(); {
	case ch == '<':
		return rd.parseIRINode()
	case ch == '_' && rd.peekAt(1) == ':':
		return rd.parseBlankNodeLabel()
	case ch == '[':
		return rd.parseBlankNodePropertyList()
	case ch == '(':
		return rd.parseCollection()
	case ch == '"' || ch == '\'':
		return rd.parseLiteral()
	case isDigit(ch) || ch == '+' || ch == '-' || (ch == '.' && isDigit(rd.peekAt(1))):
		return rd.parseNumber()
	case rd.matchWord("true"):
		return rdf.NewBooleanLiteral(true), nil
	case rd.matchWord("false"):
		return rdf.NewBooleanLiteral(false), nil
	case isNameChar(ch) || ch == ':':
		return rd.parsePrefixedName()
	}
	return nil, rd.errorf("unexpected character %q", rd.peek())
}

// parseBlankNodePropertyList parses "[ predicateObjectList ]"
func (rd *Reader) parseBlankNodePropertyList() (*rdf.NamedNode, error) {
	rd.pos++ // skip '['
	node := rd.freshNode()

	rd.skipWhitespaceAndComments()
	if rd.peek() == ']' {
		rd.pos++
		return node, nil
	}
	if err := rd.parsePredicateObjectList(node); err != nil {
		return nil, err
	}
	rd.skipWhitespaceAndComments()
	if rd.peek() != ']' {
		return nil, rd.errorf("expected ']'")
	}
	rd.pos++
	return node, nil
}

// parseCollection parses "( item* )" into an rdf:first/rdf:rest chain
func (rd *Reader) parseCollection() (*rdf.NamedNode, error) {
	rd.pos++ // skip '('

	var items []rdf.Term
	for {
		rd.skipWhitespaceAndComments()
		if rd.pos >= rd.length {
			return nil, rd.errorf("unclosed collection")
		}
		if rd.peek() == ')' {
			rd.pos++
			break
		}
		item, err := rd.parseObject()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		return rdf.RDFNil, nil
	}
	head := rd.freshNode()
	cell := head
	for i, item := range items {
		rd.emit(cell, rdf.RDFFirst, item)
		next := rdf.RDFNil
		if i < len(items)-1 {
			next = rd.freshNode()
		}
		rd.emit(cell, rdf.RDFRest, next)
		cell = next
	}
	return head, nil
}

func (rd *Reader) parseBlankNodeLabel() (*rdf.NamedNode, error) {
	rd.pos += 2 // skip '_:'
	label := rd.readLocalName()
	if label == "" {
		return nil, rd.errorf("empty blank node label")
	}
	node, ok := rd.bnodes[label]
	if !ok {
		node = rd.freshNode()
		rd.bnodes[label] = node
	}
	return node, nil
}

func (rd *Reader) parseIRINode() (*rdf.NamedNode, error) {
	iri, err := rd.parseIRI()
	if err != nil {
		return nil, err
	}
	return rdf.NewNamedNode(iri), nil
}

// parseIRI parses an IRI in angle brackets, resolved against @base
func (rd *Reader) parseIRI() (string, error) {
	if rd.peek() != '<' {
		return "", rd.errorf("expected '<' at start of IRI")
	}
	rd.pos++

	start := rd.pos
	for rd.pos < rd.length && rd.input[rd.pos] != '>' {
		if ch := rd.input[rd.pos]; ch == ' ' || ch == '\n' {
			return "", rd.errorf("whitespace in IRI")
		}
		rd.pos++
	}
	if rd.pos >= rd.length {
		return "", rd.errorf("unclosed IRI")
	}
	iri := rd.input[start:rd.pos]
	rd.pos++

	if rd.base == nil {
		return iri, nil
	}
	ref, err := url.Parse(iri)
	if err != nil {
		return "", rd.errorf("invalid IRI %q: %v", iri, err)
	}
	if ref.IsAbs() {
		return iri, nil
	}
	return rd.base.ResolveReference(ref).String(), nil
}

// parsePrefixedName parses ex:foo or :foo
func (rd *Reader) parsePrefixedName() (*rdf.NamedNode, error) {
	start := rd.pos
	prefix := rd.readWhile(isNameChar)
	if rd.peek() != ':' {
		rd.pos = start
		return nil, rd.errorf("expected ':' in prefixed name %q", prefix)
	}
	rd.pos++
	local := rd.readLocalName()

	node, err := rd.ns.Resolve(prefix + ":" + local)
	if err != nil {
		rd.pos = start
		return nil, rd.wrap(err)
	}
	return node, nil
}

// readLocalName reads a local name; a trailing '.' is left for the terminator
func (rd *Reader) readLocalName() string {
	start := rd.pos
	for rd.pos < rd.length {
		ch := rd.input[rd.pos]
		if !rdf.IsLocalNameByte(ch) {
			break
		}
		rd.pos++
	}
	for rd.pos > start && rd.input[rd.pos-1] == '.' {
		rd.pos--
	}
	return rd.input[start:rd.pos]
}

// parseLiteral parses short and long quoted strings with an optional
// language tag or datatype
func (rd *Reader) parseLiteral() (rdf.Term, error) {
	quote := rd.input[rd.pos]
	long := rd.pos+2 < rd.length && rd.input[rd.pos+1] == quote && rd.input[rd.pos+2] == quote
	if long {
		rd.pos += 3
	} else {
		rd.pos++
	}

	var value strings.Builder
	for {
		if rd.pos >= rd.length {
			return nil, rd.errorf("unclosed string literal")
		}
		ch := rd.input[rd.pos]
		if ch == quote {
			if !long {
				rd.pos++
				break
			}
			if rd.pos+2 < rd.length && rd.input[rd.pos+1] == quote && rd.input[rd.pos+2] == quote {
				rd.pos += 3
				break
			}
		}
		if !long && (ch == '\n' || ch == '\r') {
			return nil, rd.errorf("newline in string literal")
		}
		if ch == '\\' {
			if err := rd.readEscape(&value); err != nil {
				return nil, err
			}
			continue
		}
		value.WriteByte(ch)
		rd.pos++
	}

	if rd.peek() == '@' {
		rd.pos++
		lang := rd.readWhile(func(ch byte) bool {
			return isLetter(ch) || isDigit(ch) || ch == '-'
		})
		if lang == "" {
			return nil, rd.errorf("empty language tag")
		}
		return rdf.NewLiteralWithLanguage(value.String(), lang), nil
	}

	if rd.peek() == '^' && rd.peekAt(1) == '^' {
		rd.pos += 2
		var datatype *rdf.NamedNode
		var err error
		if rd.peek() == '<' {
			datatype, err = rd.parseIRINode()
		} else {
			datatype, err = rd.parsePrefixedName()
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse datatype: %w", err)
		}
		return rdf.NewLiteralWithDatatype(value.String(), datatype), nil
	}

	return rdf.NewLiteral(value.String()), nil
}

func (rd *Reader) readEscape(value *strings.Builder) error {
	rd.pos++ // skip '\'
	if rd.pos >= rd.length {
		return rd.errorf("unterminated escape")
	}
	ch := rd.input[rd.pos]
	rd.pos++
	switch ch {
	case 'n':
		value.WriteByte('\n')
	case 't':
		value.WriteByte('\t')
	case 'r':
		value.WriteByte('\r')
	case 'b':
		value.WriteByte('\b')
	case 'f':
		value.WriteByte('\f')
	case '"', '\'', '\\':
		value.WriteByte(ch)
	case 'u', 'U':
		width := 4
		if ch == 'U' {
			width = 8
		}
		if rd.pos+width > rd.length {
			return rd.errorf("short unicode escape")
		}
		code, err := strconv.ParseUint(rd.input[rd.pos:rd.pos+width], 16, 32)
		if err != nil {
			return rd.errorf("invalid unicode escape: %v", err)
		}
		value.WriteRune(rune(code))
		rd.pos += width
	default:
		return rd.errorf("invalid escape \\%c", ch)
	}
	return nil
}

// parseNumber parses integer, decimal and double literals keeping their
// lexical form
func (rd *Reader) parseNumber() (rdf.Term, error) {
	start := rd.pos
	if ch := rd.peek(); ch == '+' || ch == '-' {
		rd.pos++
	}
	intDigits := rd.readWhile(isDigit)

	datatype := rdf.XSDInteger
	// "3." ends a statement, so the dot needs a digit after it
	if rd.peek() == '.' && isDigit(rd.peekAt(1)) {
		rd.pos++
		rd.readWhile(isDigit)
		datatype = rdf.XSDDecimal
	} else if intDigits == "" {
		return nil, rd.errorf("expected digits in number")
	}
	if ch := rd.peek(); ch == 'e' || ch == 'E' {
		rd.pos++
		if ch := rd.peek(); ch == '+' || ch == '-' {
			rd.pos++
		}
		if rd.readWhile(isDigit) == "" {
			return nil, rd.errorf("expected exponent digits")
		}
		datatype = rdf.XSDDouble
	}
	return rdf.NewLiteralWithDatatype(rd.input[start:rd.pos], datatype), nil
}

func (rd *Reader) skipWhitespaceAndComments() {
	for rd.pos < rd.length {
		ch := rd.input[rd.pos]
		if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' {
			rd.pos++
			continue
		}
		if ch == '#' {
			for rd.pos < rd.length && rd.input[rd.pos] != '\n' {
				rd.pos++
			}
			continue
		}
		break
	}
}

// matchKeyword consumes a case-insensitive directive keyword followed by
// whitespace
func (rd *Reader) matchKeyword(keyword string) bool {
	end := rd.pos + len(keyword)
	if end > rd.length || !strings.EqualFold(rd.input[rd.pos:end], keyword) {
		return false
	}
	if end < rd.length {
		if ch := rd.input[end]; ch != ' ' && ch != '\t' && ch != '\n' && ch != '\r' {
			return false
		}
	}
	rd.pos = end
	return true
}

// matchWord consumes a case-sensitive bare word that is not a prefix
func (rd *Reader) matchWord(word string) bool {
	end := rd.pos + len(word)
	if end > rd.length || rd.input[rd.pos:end] != word {
		return false
	}
	if end < rd.length {
		if ch := rd.input[end]; isNameChar(ch) || ch == ':' {
			return false
		}
	}
	rd.pos = end
	return true
}

func (rd *Reader) readWhile(predicate func(byte) bool) string {
	start := rd.pos
	for rd.pos < rd.length && predicate(rd.input[rd.pos]) {
		rd.pos++
	}
	return rd.input[start:rd.pos]
}

func (rd *Reader) peek() byte {
	return rd.peekAt(0)
}

func (rd *Reader) peekAt(offset int) byte {
	if rd.pos+offset >= rd.length {
		return 0
	}
	return rd.input[rd.pos+offset]
}

func (rd *Reader) errorf(format string, args ...any) error {
	return rd.wrap(fmt.Errorf(format, args...))
}

func (rd *Reader) wrap(err error) error {
	line, col := 1, 1
	for i := 0; i < rd.pos && i < rd.length; i++ {
		if rd.input[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return &ParseError{Line: line, Column: col, Err: err}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isNameChar(ch byte) bool {
	return rdf.IsNameByte(ch)
}
