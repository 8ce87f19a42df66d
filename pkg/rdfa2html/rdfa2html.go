// Package rdfa2html turns RDFa metadata into HTML head elements.
package rdfa2html

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dtnitsch/html-page/pkg/element"
	"github.com/dtnitsch/html-page/pkg/rdfa"
)

// PropURIToMetaName maps property URIs to the name attribute of <meta> elements.
var PropURIToMetaName = map[string]string{
	rdfa.DcAbstract: "description",
	rdfa.DcCreator:  "author",
}

// PropURIToHTMLRel maps property URIs to HTML link relations.
var PropURIToHTMLRel = map[string]string{
	rdfa.DcCreator:   "author",
	rdfa.DcSource:    "canonical",
	rdfa.RelContents: "contents",
	rdfa.RelHome:     "home",
	rdfa.RelUp:       "up",
}

// Mapper converts statements into elements. The zero value uses the package tables.
type Mapper struct {
	MetaNames map[string]string
	HTMLRels  map[string]string
}

// New returns a mapper using the package tables.
func New() *Mapper {
	return &Mapper{MetaNames: PropURIToMetaName, HTMLRels: PropURIToHTMLRel}
}

func (m *Mapper) metaNames() map[string]string {
	if m == nil || m.MetaNames == nil {
		return PropURIToMetaName
	}
	return m.MetaNames
}

func (m *Mapper) htmlRels() map[string]string {
	if m == nil || m.HTMLRels == nil {
		return PropURIToHTMLRel
	}
	return m.HTMLRels
}

// StmtToMeta converts a statement with a literal object into a <title> or <meta>
// element. It returns nil for statements that have no head representation.
func (m *Mapper) StmtToMeta(stmt rdfa.Statement) *element.Element {
	uri := stmt.PropURI()

	var attrs element.Attrs
	if !rdfa.IsPrivate(uri) && stmt.PropCurie() != "" {
		attrs.Set("property", stmt.PropCurie())
	}

	switch uri {
	case rdfa.DcFormat:
		return nil

	case rdfa.DcTitle:
		return element.NewTitle(stmt.String(), attrs)

	case rdfa.MetaCharset:
		return element.NewMeta(element.A("charset", stmt.String()))
	}

	if name, ok := m.metaNames()[uri]; ok {
		attrs.Set("name", name)
	}

	// Without property or name the element would carry no meaning.
	if len(attrs) == 0 {
		return nil
	}

	attrs.Set("content", stmt.String())
	return element.NewMeta(attrs)
}

// rel computes the relation of a statement: its CURIE unless private, followed
// by the table relation.
func (m *Mapper) rel(stmt rdfa.Statement) string {
	uri := stmt.PropURI()

	var rel string
	if !rdfa.IsPrivate(uri) {
		rel = stmt.PropCurie()
	}

	if htmlRel, ok := m.htmlRels()[uri]; ok {
		if rel != "" {
			rel += " " + htmlRel
		} else {
			rel = htmlRel
		}
	}

	return rel
}

// StmtToLink converts a statement with a node object into a <link> element.
// It returns nil when no relation can be derived.
func (m *Mapper) StmtToLink(stmt rdfa.Statement) *element.Element {
	rel := m.rel(stmt)
	if rel == "" {
		return nil
	}

	attrs := element.A("href", stmt.String(), "rel", rel)

	if node, ok := stmt.Node(); ok {
		if v, ok := node.Data.FirstString("dc:format"); ok {
			attrs.Set("type", v)
		}
		if v, ok := node.Data.FirstString("dc:language"); ok {
			attrs.Set("hreflang", v)
		}
		if v, ok := node.Data.FirstString("dc:title"); ok {
			attrs.Set("title", v)
		}
	}

	return element.NewLink(attrs)
}

// StmtToAnchor converts a statement with a node object into an <a> element for
// in-body navigation. The text is the node's dc:title or the capitalized local
// name of the property.
func (m *Mapper) StmtToAnchor(stmt rdfa.Statement) *element.Element {
	attrs := element.A("href", stmt.String())

	if rel := m.rel(stmt); rel != "" {
		attrs.Set("rel", rel)
	}

	// Casers keep state, so each call gets its own.
	text := cases.Title(language.Und, cases.NoLower).String(stmt.LocalName)

	if node, ok := stmt.Node(); ok {
		attrs.Set("href", node.URI)
		if v, ok := node.Data.FirstString("dc:format"); ok {
			attrs.Set("type", v)
		}
		if v, ok := node.Data.FirstString("dc:language"); ok {
			attrs.Set("hreflang", v)
		}
		if v, ok := node.Data.FirstString("dc:title"); ok {
			text = v
		}
	}

	return element.NewAnchor(text, attrs)
}

// HeadElements converts data into head elements. A meta:charset statement comes
// first, everything else keeps the order of data.
func (m *Mapper) HeadElements(data *rdfa.Data) []*element.Element {
	var out []*element.Element

	if cs, ok := data.Charset(); ok {
		out = append(out, m.StmtToMeta(cs))
	}

	for _, stmt := range data.Statements() {
		if stmt.PropURI() == rdfa.MetaCharset {
			continue
		}

		var e *element.Element
		if _, isNode := stmt.Node(); isNode {
			e = m.StmtToLink(stmt)
		} else {
			e = m.StmtToMeta(stmt)
		}

		if e != nil {
			out = append(out, e)
		}
	}

	return out
}

// NamespaceAttrs returns xmlns:* attributes for the non-private namespaces used in data.
func (m *Mapper) NamespaceAttrs(data *rdfa.Data) element.Attrs {
	var attrs element.Attrs
	for _, ns := range data.NamespaceMap() {
		if rdfa.IsPrivate(ns.Name) {
			continue
		}
		attrs.Set("xmlns:"+ns.Prefix, ns.Name)
	}
	return attrs
}

// Anchors returns anchors for every node statement stored under the given keys,
// in the order of keys.
func (m *Mapper) Anchors(data *rdfa.Data, keys ...string) []*element.Element {
	var out []*element.Element
	for _, k := range keys {
		for _, stmt := range data.Get(k) {
			if _, ok := stmt.Node(); ok {
				out = append(out, m.StmtToAnchor(stmt))
			}
		}
	}
	return out
}
