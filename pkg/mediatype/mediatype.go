// Package mediatype models media types (MIME types) and infers them from file names.
package mediatype

import (
	"mime"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dtnitsch/html-page/pkg/pageerr"
)

// Param is a single media type parameter.
type Param struct {
	Name  string
	Value string
}

// MediaType is a parsed media type such as `text/html; charset=UTF-8`.
type MediaType struct {
	Type    string
	Subtype string
	Params  []Param
}

// New returns a media type without parameters.
func New(typ, subtype string) MediaType {
	return MediaType{Type: strings.ToLower(typ), Subtype: strings.ToLower(subtype)}
}

// Parse parses a media type string. Parameters are kept in sorted name order.
func Parse(s string) (MediaType, error) {
	if !strings.Contains(s, "/") {
		return MediaType{}, pageerr.InvalidInput("media type without subtype", "value", s)
	}

	full, params, err := mime.ParseMediaType(s)
	if err != nil {
		return MediaType{}, pageerr.InvalidInput("unparseable media type", "value", s, "error", err)
	}

	typ, subtype, _ := strings.Cut(full, "/")
	mt := New(typ, subtype)

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		mt.Params = append(mt.Params, Param{Name: name, Value: params[name]})
	}

	return mt, nil
}

// TypeAndSubtype returns the media type without parameters, e.g. `text/css`.
func (m MediaType) TypeAndSubtype() string {
	return m.Type + "/" + m.Subtype
}

// Param returns the value of the named parameter.
func (m MediaType) Param(name string) (string, bool) {
	name = strings.ToLower(name)
	for _, p := range m.Params {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// IsZero reports whether m has not been set.
func (m MediaType) IsZero() bool {
	return m.Type == "" && m.Subtype == ""
}

func (m MediaType) String() string {
	if m.IsZero() {
		return ""
	}
	if len(m.Params) == 0 {
		return m.TypeAndSubtype()
	}

	params := make(map[string]string, len(m.Params))
	for _, p := range m.Params {
		params[p.Name] = p.Value
	}
	return mime.FormatMediaType(m.TypeAndSubtype(), params)
}

// Entry is a row of the extension table.
type Entry struct {
	MediaType MediaType
	// Module marks JavaScript files that must be loaded as ES modules.
	Module bool
}

// OctetStream is returned for extensions missing from the table.
var OctetStream = New("application", "octet-stream")

var extensions = map[string]Entry{
	"avif":        {MediaType: New("image", "avif")},
	"css":         {MediaType: New("text", "css")},
	"gif":         {MediaType: New("image", "gif")},
	"html":        {MediaType: New("text", "html")},
	"ico":         {MediaType: New("image", "vnd.microsoft.icon")},
	"jpeg":        {MediaType: New("image", "jpeg")},
	"jpg":         {MediaType: New("image", "jpeg")},
	"js":          {MediaType: New("application", "javascript")},
	"json":        {MediaType: New("application", "json")},
	"mjs":         {MediaType: New("application", "javascript"), Module: true},
	"pdf":         {MediaType: New("application", "pdf")},
	"png":         {MediaType: New("image", "png")},
	"svg":         {MediaType: New("image", "svg+xml")},
	"txt":         {MediaType: New("text", "plain")},
	"webmanifest": {MediaType: New("application", "manifest+json")},
	"webp":        {MediaType: New("image", "webp")},
	"woff":        {MediaType: New("font", "woff")},
	"woff2":       {MediaType: New("font", "woff2")},
	"xhtml":       {MediaType: New("application", "xhtml+xml")},
	"xml":         {MediaType: New("application", "xml")},
}

// Extension returns the lower-cased extension of path without the dot.
func Extension(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// Lookup returns the table entry for a file extension given without dot.
func Lookup(ext string) (Entry, bool) {
	e, ok := extensions[strings.ToLower(ext)]
	return e, ok
}

// FromFilename infers the media type of path from its extension.
func FromFilename(path string) Entry {
	if e, ok := Lookup(Extension(path)); ok {
		return e
	}
	return Entry{MediaType: OctetStream}
}

// Extensions returns all extensions of the table in sorted order.
func Extensions() []string {
	out := make([]string, 0, len(extensions))
	for ext := range extensions {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}
