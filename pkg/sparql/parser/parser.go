package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/aleksaelezovic/plantkg/pkg/rdf"
)

// SyntaxError reports malformed query text
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: %s", e.Offset, e.Msg)
}

// Parser parses the supported SELECT subset:
//
//	PREFIX p: <iri>
//	SELECT [DISTINCT] ?a ?b | *
//	WHERE { s p o ; p o , o . s a/rdfs:subClassOf* o . } [LIMIT n]
type Parser struct {
	input  string
	pos    int
	length int
	ns     *rdf.Namespaces
}

// NewParser creates a parser resolving prefixed names through a copy of ns.
// PREFIX declarations in the query only affect that copy.
func NewParser(input string, ns *rdf.Namespaces) *Parser {
	if ns == nil {
		ns = rdf.StandardNamespaces()
	}
	return &Parser{
		input:  input,
		pos:    0,
		length: len(input),
		ns:     ns.Clone(),
	}
}

// Parse is shorthand for NewParser(input, ns).Parse()
func Parse(input string, ns *rdf.Namespaces) (*Query, error) {
	return NewParser(input, ns).Parse()
}

// Parse parses a query. Unknown prefixes surface as *rdf.UnknownPrefixError
// or *rdf.NoDefaultNamespaceError.
func (p *Parser) Parse() (*Query, error) {
	for p.matchKeyword("PREFIX") {
		if err := p.parsePrefixDecl(); err != nil {
			return nil, err
		}
	}

	if !p.matchKeyword("SELECT") {
		return nil, p.errorf("expected SELECT")
	}

	query := &Query{}
	if p.matchKeyword("DISTINCT") {
		query.Distinct = true
	}

	variables, err := p.parseProjection()
	if err != nil {
		return nil, err
	}
	query.Variables = variables

	// WHERE is optional in SPARQL
	p.matchKeyword("WHERE")

	patterns, err := p.parseGroup()
	if err != nil {
		return nil, err
	}
	query.Patterns = patterns

	if p.matchKeyword("LIMIT") {
		limit, err := p.parseInteger()
		if err != nil {
			return nil, err
		}
		query.Limit = &limit
	}

	p.skipWhitespace()
	if p.pos < p.length {
		return nil, p.errorf("unexpected trailing input %q", p.input[p.pos:])
	}
	return query, nil
}

// parsePrefixDecl parses "p: <iri>" after the PREFIX keyword
func (p *Parser) parsePrefixDecl() error {
	p.skipWhitespace()
	prefix := p.readWhile(isNameChar)
	if p.peek() != ':' {
		return p.errorf("expected ':' after prefix name")
	}
	p.advance()

	p.skipWhitespace()
	iri, err := p.parseIRI()
	if err != nil {
		return err
	}
	p.ns.Register(prefix, iri)
	return nil
}

// parseProjection parses the variable list or *
func (p *Parser) parseProjection() ([]*rdf.Variable, error) {
	p.skipWhitespace()
	if p.peek() == '*' {
		p.advance()
		return nil, nil
	}

	var variables []*rdf.Variable
	for {
		p.skipWhitespace()
		if ch := p.peek(); ch != '?' && ch != '$' {
			break
		}
		v, err := p.parseVariable()
		if err != nil {
			return nil, err
		}
		variables = append(variables, v)
	}
	if len(variables) == 0 {
		return nil, p.errorf("expected variables or '*' after SELECT")
	}
	return variables, nil
}

// parseGroup parses { triples } into a flat pattern list
func (p *Parser) parseGroup() ([]*TriplePattern, error) {
	p.skipWhitespace()
	if p.peek() != '{' {
		return nil, p.errorf("expected '{'")
	}
	p.advance()

	var patterns []*TriplePattern
	for {
		p.skipWhitespace()
		if p.pos >= p.length {
			return nil, p.errorf("unclosed '{'")
		}
		if p.peek() == '}' {
			p.advance()
			return patterns, nil
		}

		subject, err := p.parseTerm()
		if err != nil {
			return nil, fmt.Errorf("failed to parse subject: %w", err)
		}
		if _, ok := subject.(*rdf.Literal); ok {
			return nil, p.errorf("literal %s cannot be a subject", subject)
		}

		patterns, err = p.parsePredicateObjectList(subject, patterns)
		if err != nil {
			return nil, err
		}

		p.skipWhitespace()
		switch p.peek() {
		case '.':
			p.advance()
		case '}':
		default:
			return nil, p.errorf("expected '.' or '}' after triple")
		}
	}
}

// parsePredicateObjectList handles the ';' and ',' shorthands
func (p *Parser) parsePredicateObjectList(subject rdf.Term, patterns []*TriplePattern) ([]*TriplePattern, error) {
	for {
		predicate, path, err := p.parseVerb()
		if err != nil {
			return nil, err
		}

		for {
			object, err := p.parseTerm()
			if err != nil {
				return nil, fmt.Errorf("failed to parse object: %w", err)
			}
			patterns = append(patterns, &TriplePattern{
				Subject:   subject,
				Predicate: predicate,
				Object:    object,
				Path:      path,
			})

			p.skipWhitespace()
			if p.peek() != ',' {
				break
			}
			p.advance()
		}

		p.skipWhitespace()
		if p.peek() != ';' {
			return patterns, nil
		}
		for p.peek() == ';' {
			p.advance()
			p.skipWhitespace()
		}
		if ch := p.peek(); ch == '.' || ch == '}' {
			return patterns, nil
		}
	}
}

// parseVerb parses a predicate, which may be "p*" or "p/q*"
func (p *Parser) parseVerb() (rdf.Term, *PropertyPath, error) {
	first, err := p.parsePredicate()
	if err != nil {
		return nil, nil, err
	}

	p.skipWhitespace()
	switch p.peek() {
	case '*':
		p.advance()
		closure, ok := first.(*rdf.NamedNode)
		if !ok {
			return nil, nil, p.errorf("property path needs an IRI, got %s", first)
		}
		return nil, &PropertyPath{Closure: closure}, nil

	case '/':
		p.advance()
		link, ok := first.(*rdf.NamedNode)
		if !ok {
			return nil, nil, p.errorf("property path needs an IRI, got %s", first)
		}
		p.skipWhitespace()
		second, err := p.parsePredicate()
		if err != nil {
			return nil, nil, err
		}
		closure, ok := second.(*rdf.NamedNode)
		if !ok {
			return nil, nil, p.errorf("property path needs an IRI, got %s", second)
		}
		p.skipWhitespace()
		if p.peek() != '*' {
			return nil, nil, p.errorf("unsupported property path: only p* and p/q* are supported")
		}
		p.advance()
		return nil, &PropertyPath{Link: link, Closure: closure}, nil
	}

	return first, nil, nil
}

// parsePredicate parses "a", an IRI, a prefixed name or a variable
func (p *Parser) parsePredicate() (rdf.Term, error) {
	p.skipWhitespace()
	if p.peek() == 'a' && !isNameChar(p.peekAt(1)) && p.peekAt(1) != ':' {
		p.advance()
		return rdf.RDFType, nil
	}
	term, err := p.parseTerm()
	if err != nil {
		return nil, fmt.Errorf("failed to parse predicate: %w", err)
	}
	if _, ok := term.(*rdf.Literal); ok {
		return nil, p.errorf("literal %s cannot be a predicate", term)
	}
	return term, nil
}

// parseTerm parses a variable, IRI, prefixed name or literal
func (p *Parser) parseTerm() (rdf.Term, error) {
	p.skipWhitespace()

	ch := p.peek()
	switch {
	case ch == 0:
		return nil, p.errorf("unexpected end of input")
	case ch == '?' || ch == '$':
		return p.parseVariable()
	case ch == '<':
		iri, err := p.parseIRI()
		if err != nil {
			return nil, err
		}
		return rdf.NewNamedNode(iri), nil
	case ch == '"' || ch == '\'':
		return p.parseStringLiteral()
	case (ch >= '0' && ch <= '9') || ch == '-' || ch == '+':
		return p.parseNumericLiteral()
	case ch == '_' && p.peekAt(1) == ':':
		return nil, p.errorf("blank nodes are not supported in queries")
	}

	for _, b := range []string{"true", "false"} {
		if strings.HasPrefix(p.input[p.pos:], b) && !isNameChar(p.peekAt(len(b))) && p.peekAt(len(b)) != ':' {
			p.pos += len(b)
			return rdf.NewBooleanLiteral(b == "true"), nil
		}
	}

	return p.parsePrefixedName()
}

// parseVariable parses a SPARQL variable
func (p *Parser) parseVariable() (*rdf.Variable, error) {
	if p.peek() != '?' && p.peek() != '$' {
		return nil, p.errorf("expected variable starting with ? or $")
	}
	p.advance() // consume ? or $

	name := p.readWhile(func(ch byte) bool {
		return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') ||
			(ch >= '0' && ch <= '9') || ch == '_'
	})
	if name == "" {
		return nil, p.errorf("invalid variable name")
	}
	return rdf.NewVariable(name), nil
}

// parseIRI parses an IRI enclosed in < >
func (p *Parser) parseIRI() (string, error) {
	if p.peek() != '<' {
		return "", p.errorf("expected '<' to start IRI")
	}
	p.advance()

	iri := p.readWhile(func(ch byte) bool {
		return ch != '>' && ch != '\n'
	})
	if p.peek() != '>' {
		return "", p.errorf("expected '>' to end IRI")
	}
	p.advance()
	return iri, nil
}

// parsePrefixedName parses prefix:local and resolves it
func (p *Parser) parsePrefixedName() (*rdf.NamedNode, error) {
	start := p.pos
	p.readWhile(isNameChar)
	if p.peek() != ':' {
		p.pos = start
		return nil, p.errorf("unexpected character %q", p.peek())
	}
	p.advance()

	p.readWhile(rdf.IsLocalNameByte)
	// a local name never ends with '.', that is the triple terminator
	for p.pos > start && p.input[p.pos-1] == '.' {
		p.pos--
	}

	return p.ns.Resolve(p.input[start:p.pos])
}

// parseStringLiteral parses a quoted literal with optional @lang or ^^type
func (p *Parser) parseStringLiteral() (*rdf.Literal, error) {
	quote := p.peek()
	p.advance()

	var value strings.Builder
	for {
		if p.pos >= p.length {
			return nil, p.errorf("unclosed string literal")
		}
		ch := p.input[p.pos]
		if ch == quote {
			p.advance()
			break
		}
		if ch == '\\' && p.pos+1 < p.length {
			p.pos++
			switch p.input[p.pos] {
			case 'n':
				value.WriteByte('\n')
			case 't':
				value.WriteByte('\t')
			case 'r':
				value.WriteByte('\r')
			default:
				value.WriteByte(p.input[p.pos])
			}
			p.pos++
			continue
		}
		value.WriteByte(ch)
		p.pos++
	}

	if p.peek() == '@' {
		p.advance()
		lang := p.readWhile(func(ch byte) bool {
			return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '-'
		})
		if lang == "" {
			return nil, p.errorf("empty language tag")
		}
		return rdf.NewLiteralWithLanguage(value.String(), lang), nil
	}

	if p.peek() == '^' && p.peekAt(1) == '^' {
		p.pos += 2
		var datatype *rdf.NamedNode
		if p.peek() == '<' {
			iri, err := p.parseIRI()
			if err != nil {
				return nil, err
			}
			datatype = rdf.NewNamedNode(iri)
		} else {
			dt, err := p.parsePrefixedName()
			if err != nil {
				return nil, err
			}
			datatype = dt
		}
		return rdf.NewLiteralWithDatatype(value.String(), datatype), nil
	}

	return rdf.NewLiteral(value.String()), nil
}

// parseNumericLiteral parses an integer or decimal
func (p *Parser) parseNumericLiteral() (*rdf.Literal, error) {
	start := p.pos
	if ch := p.peek(); ch == '+' || ch == '-' {
		p.advance()
	}
	digits := p.readWhile(isDigit)

	if p.peek() == '.' && isDigit(p.peekAt(1)) {
		p.advance()
		p.readWhile(isDigit)
		return rdf.NewLiteralWithDatatype(p.input[start:p.pos], rdf.XSDDecimal), nil
	}
	if digits == "" {
		return nil, p.errorf("expected digits in number")
	}
	return rdf.NewLiteralWithDatatype(p.input[start:p.pos], rdf.XSDInteger), nil
}

func (p *Parser) parseInteger() (int, error) {
	p.skipWhitespace()

	numStr := p.readWhile(isDigit)
	if numStr == "" {
		return 0, p.errorf("expected integer")
	}
	n, err := strconv.Atoi(numStr)
	if err != nil {
		return 0, p.errorf("invalid integer %q: %v", numStr, err)
	}
	return n, nil
}

// Helper methods

func (p *Parser) errorf(format string, args ...any) error {
	return &SyntaxError{Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *Parser) peek() byte {
	return p.peekAt(0)
}

func (p *Parser) peekAt(offset int) byte {
	if p.pos+offset >= p.length {
		return 0
	}
	return p.input[p.pos+offset]
}

func (p *Parser) advance() {
	if p.pos < p.length {
		p.pos++
	}
}

// skipWhitespace skips blanks and # comments
func (p *Parser) skipWhitespace() {
	for p.pos < p.length {
		switch p.input[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		case '#':
			for p.pos < p.length && p.input[p.pos] != '\n' {
				p.pos++
			}
		default:
			return
		}
	}
}

func (p *Parser) readWhile(predicate func(byte) bool) string {
	start := p.pos
	for p.pos < p.length && predicate(p.input[p.pos]) {
		p.pos++
	}
	return p.input[start:p.pos]
}

func (p *Parser) matchKeyword(keyword string) bool {
	p.skipWhitespace()

	// Case-insensitive match
	remaining := p.input[p.pos:]
	pattern := `(?i)^` + regexp.QuoteMeta(keyword) + `\b`
	matched, _ := regexp.MatchString(pattern, remaining)

	if matched {
		p.pos += len(keyword)
		return true
	}
	return false
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isNameChar(ch byte) bool {
	return rdf.IsNameByte(ch)
}
