// Package rdfa models RDFa metadata about a document: statements whose subject is
// the document itself, kept in insertion order.
package rdfa

import (
	"fmt"
	"strings"

	"github.com/dtnitsch/html-page/pkg/pageerr"
)

// Object is the object of a statement, either a Literal or a *Node.
type Object interface {
	String() string
}

// Literal is a plain scalar value.
type Literal struct {
	Value any
}

func (l Literal) String() string {
	return fmt.Sprint(l.Value)
}

// Node references another resource, optionally with metadata about it.
type Node struct {
	URI  string
	Data *Data
}

// NewNode returns a node without metadata.
func NewNode(uri string) *Node {
	return &Node{URI: uri}
}

func (n *Node) String() string {
	return n.URI
}

// Statement is a property/object pair about the current document.
type Statement struct {
	NSName    string
	Prefix    string
	LocalName string
	Object    Object
}

// PropURI returns the full property URI.
func (s Statement) PropURI() string {
	return s.NSName + s.LocalName
}

// PropCurie returns the property as a CURIE, or "" when the namespace has no prefix.
func (s Statement) PropCurie() string {
	if s.Prefix == "" {
		return ""
	}
	return s.Prefix + ":" + s.LocalName
}

// Key returns the key the statement is stored under in Data.
func (s Statement) Key() string {
	if c := s.PropCurie(); c != "" {
		return c
	}
	return s.PropURI()
}

// Node returns the object as a node, if it is one.
func (s Statement) Node() (*Node, bool) {
	n, ok := s.Object.(*Node)
	return n, ok && n != nil
}

func (s Statement) String() string {
	if s.Object == nil {
		return ""
	}
	return s.Object.String()
}

// NewStatement builds a statement from a full property URI, looking the prefix up in r.
func (r *Registry) NewStatement(propURI string, obj Object) Statement {
	ns, local := SplitURI(propURI)
	prefix, _ := r.PrefixFor(ns)
	return Statement{NSName: ns, Prefix: prefix, LocalName: local, Object: obj}
}

// StatementFromCurie builds a statement from a CURIE with a registered prefix.
// A key without a colon or with an unknown prefix is rejected.
func (r *Registry) StatementFromCurie(curie string, obj Object) (Statement, error) {
	prefix, local, ok := strings.Cut(curie, ":")
	if !ok || prefix == "" || local == "" {
		return Statement{}, pageerr.InvalidInput("property is not a CURIE", "property", curie)
	}
	ns, known := r.NSFor(prefix)
	if !known {
		return Statement{}, pageerr.InvalidInput("unknown namespace prefix", "property", curie, "prefix", prefix)
	}
	return Statement{NSName: ns, Prefix: prefix, LocalName: local, Object: obj}, nil
}

// ToObject converts a Go value into a statement object. Nodes and objects are
// kept, anything else becomes a Literal.
func ToObject(v any) Object {
	switch o := v.(type) {
	case *Node:
		return o
	case Node:
		return &o
	case Literal:
		return o
	case Object:
		return o
	}
	return Literal{Value: v}
}
