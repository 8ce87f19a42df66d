package rdfa

import (
	"github.com/dtnitsch/html-page/pkg/mediatype"
	"github.com/dtnitsch/html-page/pkg/pageerr"
)

const defaultMetaPrefix = "meta"

// Data is an ordered collection of statements grouped by property key.
// Key order is insertion order; it drives the order of generated head elements.
// The zero value is empty and ready to use.
type Data struct {
	keys  []string
	stmts map[string][]Statement

	// reg names the prefix of a charset derived from dc:format.
	reg *Registry

	// charsetDerived is set when meta:charset was taken from dc:format.
	charsetDerived bool
}

// NewData returns empty data.
func NewData() *Data {
	return &Data{stmts: map[string][]Statement{}}
}

// NewData returns empty data whose derived statements use the prefixes of r.
func (r *Registry) NewData() *Data {
	d := NewData()
	d.reg = r
	return d
}

// Pair is a property CURIE with one value or a []any of values.
type Pair struct {
	Curie string
	Value any
}

// FromPairs builds data from CURIE/value pairs resolved through reg. A nil
// value is rejected.
func FromPairs(reg *Registry, pairs ...Pair) (*Data, error) {
	d := reg.NewData()
	for _, p := range pairs {
		values, ok := p.Value.([]any)
		if !ok {
			values = []any{p.Value}
		}
		for _, v := range values {
			if v == nil {
				return nil, pageerr.InvalidInput("property without value", "property", p.Curie)
			}
			stmt, err := reg.StatementFromCurie(p.Curie, ToObject(v))
			if err != nil {
				return nil, err
			}
			d.Add(stmt)
		}
	}
	return d, nil
}

// Add appends statements under their keys.
func (d *Data) Add(stmts ...Statement) {
	for _, s := range stmts {
		key := s.Key()
		// meta:charset is single-valued, whatever prefix it is written with.
		if s.PropURI() == MetaCharset {
			d.putCharset(key, []Statement{s})
			d.charsetDerived = false
			continue
		}
		d.put(key, append(d.stmts[key], s))
		if s.PropURI() == DcFormat {
			d.deriveCharset(s)
		}
	}
}

// Set replaces all statements of the key shared by stmts, keeping the key's position.
func (d *Data) Set(stmts ...Statement) {
	if len(stmts) == 0 {
		return
	}
	key := stmts[0].Key()

	switch stmts[0].PropURI() {
	case MetaCharset:
		d.putCharset(key, append([]Statement(nil), stmts...))
		d.charsetDerived = false
	case DcFormat:
		d.put(key, append([]Statement(nil), stmts...))
		d.deriveCharset(stmts[0])
	default:
		d.put(key, append([]Statement(nil), stmts...))
	}
}

func (d *Data) put(key string, stmts []Statement) {
	if d.stmts == nil {
		d.stmts = map[string][]Statement{}
	}
	if _, ok := d.stmts[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.stmts[key] = stmts
}

// putCharset stores the charset under key. A charset stored under another
// prefix keeps its position but takes the new key.
func (d *Data) putCharset(key string, stmts []Statement) {
	if old, ok := d.charsetKey(); ok && old != key {
		for i, k := range d.keys {
			if k == old {
				d.keys[i] = key
			}
		}
		delete(d.stmts, old)
		d.stmts[key] = stmts
		return
	}
	d.put(key, stmts)
}

// charsetKey returns the key holding the meta:charset statement.
func (d *Data) charsetKey() (string, bool) {
	if d == nil {
		return "", false
	}
	for _, k := range d.keys {
		if stmts := d.stmts[k]; len(stmts) > 0 && stmts[0].PropURI() == MetaCharset {
			return k, true
		}
	}
	return "", false
}

func (d *Data) metaPrefix() string {
	if cs, ok := d.Charset(); ok && cs.Prefix != "" {
		return cs.Prefix
	}
	if d.reg != nil {
		if p, ok := d.reg.PrefixFor(NSMeta); ok {
			return p
		}
	}
	return defaultMetaPrefix
}

func (d *Data) deriveCharset(format Statement) {
	if _, isNode := format.Node(); isNode {
		return
	}
	if _, ok := d.charsetKey(); ok && !d.charsetDerived {
		return
	}
	mt, err := mediatype.Parse(format.String())
	if err != nil {
		return
	}
	charset, ok := mt.Param("charset")
	if !ok {
		return
	}
	stmt := Statement{
		NSName:    NSMeta,
		Prefix:    d.metaPrefix(),
		LocalName: "charset",
		Object:    Literal{Value: charset},
	}
	d.putCharset(stmt.Key(), []Statement{stmt})
	d.charsetDerived = true
}

// Get returns the statements stored under key.
func (d *Data) Get(key string) []Statement {
	if d == nil {
		return nil
	}
	return d.stmts[key]
}

// First returns the first statement stored under key.
func (d *Data) First(key string) (Statement, bool) {
	stmts := d.Get(key)
	if len(stmts) == 0 {
		return Statement{}, false
	}
	return stmts[0], true
}

// FirstString returns the string value of the first statement under key.
func (d *Data) FirstString(key string) (string, bool) {
	s, ok := d.First(key)
	if !ok {
		return "", false
	}
	return s.String(), true
}

// Has reports whether key has statements.
func (d *Data) Has(key string) bool {
	return len(d.Get(key)) > 0
}

// Keys returns the keys in insertion order.
func (d *Data) Keys() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.keys...)
}

// Len returns the number of keys.
func (d *Data) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// Statements returns all statements, key by key in insertion order.
func (d *Data) Statements() []Statement {
	if d == nil {
		return nil
	}
	var out []Statement
	for _, k := range d.keys {
		out = append(out, d.stmts[k]...)
	}
	return out
}

// Charset returns the meta:charset statement, if any, under whichever prefix
// the meta namespace is bound to.
func (d *Data) Charset() (Statement, bool) {
	key, ok := d.charsetKey()
	if !ok {
		return Statement{}, false
	}
	return d.First(key)
}

// Clone returns a copy sharing no key or slice storage with d.
func (d *Data) Clone() *Data {
	out := NewData()
	if d == nil {
		return out
	}
	out.reg = d.reg
	out.keys = append(out.keys, d.keys...)
	for k, v := range d.stmts {
		out.stmts[k] = append([]Statement(nil), v...)
	}
	out.charsetDerived = d.charsetDerived
	return out
}

// Replace returns a copy of d where every key present in other replaces the
// same key of d, or is appended.
func (d *Data) Replace(other *Data) *Data {
	out := d.Clone()
	if out.reg == nil && other != nil {
		out.reg = other.reg
	}
	for _, k := range other.Keys() {
		stmts := other.Get(k)
		out.Set(stmts...)
		if len(stmts) > 0 && stmts[0].PropURI() == MetaCharset {
			out.charsetDerived = other.charsetDerived
		}
	}
	return out
}

// Namespace is a prefix bound to a namespace name.
type Namespace struct {
	Prefix string
	Name   string
}

// NamespaceMap returns the namespaces used by the properties of d in first-seen order.
func (d *Data) NamespaceMap() []Namespace {
	var out []Namespace
	seen := map[string]bool{}
	for _, s := range d.Statements() {
		if s.Prefix == "" || seen[s.Prefix] {
			continue
		}
		seen[s.Prefix] = true
		out = append(out, Namespace{Prefix: s.Prefix, Name: s.NSName})
	}
	return out
}
