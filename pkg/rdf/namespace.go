package rdf

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

const (
	RDFNamespace  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFSNamespace = "http://www.w3.org/2000/01/rdf-schema#"
	OWLNamespace  = "http://www.w3.org/2002/07/owl#"
	XSDNamespace  = "http://www.w3.org/2001/XMLSchema#"
)

var (
	ErrUnknownPrefix      = errors.New("unknown prefix")
	ErrNoDefaultNamespace = errors.New("no default namespace")
)

// UnknownPrefixError reports a prefixed name whose prefix was never registered
type UnknownPrefixError struct {
	Prefix string
	Name   string
}

func (e *UnknownPrefixError) Error() string {
	return fmt.Sprintf("unknown prefix %q in %q", e.Prefix, e.Name)
}

func (e *UnknownPrefixError) Unwrap() error {
	return ErrUnknownPrefix
}

// NoDefaultNamespaceError reports a local name resolved without an empty-prefix mapping
type NoDefaultNamespaceError struct {
	Name string
}

func (e *NoDefaultNamespaceError) Error() string {
	return fmt.Sprintf("no default namespace registered to resolve %q", e.Name)
}

func (e *NoDefaultNamespaceError) Unwrap() error {
	return ErrNoDefaultNamespace
}

// Namespaces maps prefixes (including the empty prefix) to base IRIs.
//
// A table is filled once at startup and only read afterwards, so it is safe
// to share between concurrent queries without locking.
type Namespaces struct {
	prefixes map[string]string
}

// NewNamespaces returns an empty namespace table
func NewNamespaces() *Namespaces {
	return &Namespaces{prefixes: make(map[string]string)}
}

// StandardNamespaces returns a table with rdf, rdfs, owl and xsd registered
func StandardNamespaces() *Namespaces {
	ns := NewNamespaces()
	ns.Register("rdf", RDFNamespace)
	ns.Register("rdfs", RDFSNamespace)
	ns.Register("owl", OWLNamespace)
	ns.Register("xsd", XSDNamespace)
	return ns
}

// Register inserts or overwrites the mapping for prefix
func (ns *Namespaces) Register(prefix, baseIRI string) {
	ns.prefixes[prefix] = baseIRI
}

// Lookup returns the base IRI registered for prefix
func (ns *Namespaces) Lookup(prefix string) (string, bool) {
	base, ok := ns.prefixes[prefix]
	return base, ok
}

// Resolve expands "prefix:local" into a named node
func (ns *Namespaces) Resolve(prefixedName string) (*NamedNode, error) {
	idx := strings.IndexByte(prefixedName, ':')
	if idx < 0 {
		return nil, &UnknownPrefixError{Prefix: prefixedName, Name: prefixedName}
	}
	prefix, local := prefixedName[:idx], prefixedName[idx+1:]
	base, ok := ns.prefixes[prefix]
	if !ok {
		if prefix == "" {
			return nil, &NoDefaultNamespaceError{Name: prefixedName}
		}
		return nil, &UnknownPrefixError{Prefix: prefix, Name: prefixedName}
	}
	return NewNamedNode(base + local), nil
}

// ResolveDefault expands a local name against the empty prefix
func (ns *Namespaces) ResolveDefault(localName string) (*NamedNode, error) {
	base, ok := ns.prefixes[""]
	if !ok {
		return nil, &NoDefaultNamespaceError{Name: localName}
	}
	return NewNamedNode(base + localName), nil
}

// Compact shortens iri to "prefix:local" using the longest matching base.
// The IRI is returned unchanged when no base matches.
func (ns *Namespaces) Compact(iri string) string {
	bestPrefix, bestBase := "", ""
	found := false
	for prefix, base := range ns.prefixes {
		if base == "" || !strings.HasPrefix(iri, base) {
			continue
		}
		// ties on length go to the lexically smaller prefix to stay deterministic
		if !found || len(base) > len(bestBase) || (len(base) == len(bestBase) && prefix < bestPrefix) {
			bestPrefix, bestBase, found = prefix, base, true
		}
	}
	if !found {
		return iri
	}
	return bestPrefix + ":" + iri[len(bestBase):]
}

// Prefixes returns the registered prefixes in sorted order
func (ns *Namespaces) Prefixes() []string {
	out := make([]string, 0, len(ns.prefixes))
	for p := range ns.prefixes {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy of the table
func (ns *Namespaces) Clone() *Namespaces {
	c := NewNamespaces()
	for p, b := range ns.prefixes {
		c.prefixes[p] = b
	}
	return c
}

// IsNameByte reports whether ch may appear in a prefix. Bytes of multi-byte
// UTF-8 sequences are accepted as a whole.
func IsNameByte(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') ||
		ch == '_' || ch == '-' || ch >= 0x80
}

// IsLocalNameByte reports whether ch may appear in the local part of a
// prefixed name. A trailing '.' is not part of the name; callers trim it.
func IsLocalNameByte(ch byte) bool {
	return IsNameByte(ch) || ch == '.' || ch == ':' || ch == '%'
}
