// Package element models the HTML elements produced while building a page and renders
// them through golang.org/x/net/html.
package element

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Kind discriminates the elements a page builder produces.
type Kind int

const (
	// Generic is any element without a dedicated kind (p, b, ul, body, ...).
	Generic Kind = iota
	Title
	Meta
	Link
	Icon
	Script
	Stylesheet
	Anchor
)

func (k Kind) String() string {
	switch k {
	case Title:
		return "title"
	case Meta:
		return "meta"
	case Link:
		return "link"
	case Icon:
		return "icon"
	case Script:
		return "script"
	case Stylesheet:
		return "stylesheet"
	case Anchor:
		return "anchor"
	}
	return "generic"
}

// Node is anything that can be placed inside an element: *Element, Text, Comment or Raw.
type Node interface {
	htmlNode() *html.Node
}

// Text is character data; it is escaped on output.
type Text string

func (t Text) htmlNode() *html.Node {
	return &html.Node{Type: html.TextNode, Data: string(t)}
}

// Comment is an HTML comment.
type Comment string

func (c Comment) htmlNode() *html.Node {
	return &html.Node{Type: html.CommentNode, Data: string(c)}
}

// Raw is markup written verbatim.
type Raw string

func (r Raw) htmlNode() *html.Node {
	return &html.Node{Type: html.RawNode, Data: string(r)}
}

// Element is an HTML element with ordered attributes.
type Element struct {
	Kind     Kind
	Tag      string
	Attrs    Attrs
	Children []Node
}

// New returns an element of the given kind.
func New(kind Kind, tag string, attrs Attrs, children ...Node) *Element {
	return &Element{Kind: kind, Tag: tag, Attrs: attrs, Children: children}
}

// NewGeneric returns a Generic element.
func NewGeneric(tag string, attrs Attrs, children ...Node) *Element {
	return New(Generic, tag, attrs, children...)
}

// NewTitle returns a <title> element.
func NewTitle(text string, attrs Attrs) *Element {
	return New(Title, "title", attrs, Text(text))
}

// NewMeta returns a <meta> element.
func NewMeta(attrs Attrs) *Element {
	return New(Meta, "meta", attrs)
}

// NewLink returns a generic <link> element.
func NewLink(attrs Attrs) *Element {
	return New(Link, "link", attrs)
}

// NewAnchor returns an <a> element.
func NewAnchor(text string, attrs Attrs) *Element {
	return New(Anchor, "a", attrs, Text(text))
}

func (e *Element) htmlNode() *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     e.Tag,
		DataAtom: atom.Lookup([]byte(e.Tag)),
	}
	for _, a := range e.Attrs {
		n.Attr = append(n.Attr, html.Attribute{Key: a.Key, Val: a.Val})
	}
	for _, c := range e.Children {
		if c == nil {
			continue
		}
		n.AppendChild(c.htmlNode())
	}
	return n
}

// Text returns the concatenated text content of e.
func (e *Element) Text() string {
	var b strings.Builder
	var walk func(nodes []Node)
	walk = func(nodes []Node) {
		for _, c := range nodes {
			switch v := c.(type) {
			case Text:
				b.WriteString(string(v))
			case *Element:
				walk(v.Children)
			}
		}
	}
	walk(e.Children)
	return b.String()
}

// Attr returns the value of the named attribute.
func (e *Element) Attr(key string) (string, bool) {
	return e.Attrs.Get(key)
}

func (e *Element) String() string {
	return String(e)
}

// Render writes nodes as HTML.
func Render(w io.Writer, nodes ...Node) error {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if err := html.Render(w, n.htmlNode()); err != nil {
			return err
		}
	}
	return nil
}

// String renders nodes to a string. Rendering into memory does not fail.
func String(nodes ...Node) string {
	var buf bytes.Buffer
	_ = Render(&buf, nodes...)
	return buf.String()
}

// Nodes converts elements into a node list.
func Nodes(elems ...*Element) []Node {
	out := make([]Node, 0, len(elems))
	for _, e := range elems {
		out = append(out, e)
	}
	return out
}

// Doctype returns the HTML5 doctype declaration.
func Doctype() string {
	var buf bytes.Buffer
	_ = html.Render(&buf, &html.Node{Type: html.DoctypeNode, Data: "html"})
	return buf.String()
}

// OpeningTag returns the opening tag of an element without rendering its content.
func OpeningTag(tag string, attrs Attrs) string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(tag)
	for _, a := range attrs {
		b.WriteByte(' ')
		b.WriteString(a.Key)
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(a.Val))
		b.WriteByte('"')
	}
	b.WriteByte('>')
	return b.String()
}

// ClosingTag returns the closing tag for tag.
func ClosingTag(tag string) string {
	return "</" + tag + ">"
}
