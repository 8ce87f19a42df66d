// Package resource turns local files into the head elements that load them:
// stylesheets, scripts, icons and generic links.
package resource

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/dtnitsch/html-page/pkg/element"
	"github.com/dtnitsch/html-page/pkg/mediatype"
	"github.com/dtnitsch/html-page/pkg/pageerr"
	"github.com/dtnitsch/html-page/pkg/urlfactory"
)

// Resolver maps a local path to a URL. urlfactory.DirMap implements it.
type Resolver interface {
	Resolve(path string) (*urlfactory.Resolution, error)
}

// Classifier creates typed elements for local files.
type Classifier struct {
	Resolver Resolver
	Logger   *slog.Logger
}

// New returns a classifier. A nil logger discards output.
func New(resolver Resolver, logger *slog.Logger) *Classifier {
	return &Classifier{Resolver: resolver, Logger: logger}
}

func (c *Classifier) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c.Logger
}

// ClassifyPath creates an element for path.
//
// A `type` attribute containing a slash is parsed as media type. Any other
// `type` value, such as `module`, is kept as attribute and the media type is
// inferred from the extension.
func (c *Classifier) ClassifyPath(path string, attrs element.Attrs) (*element.Element, error) {
	entry := mediatype.FromFilename(path)

	if t, ok := attrs.Get("type"); ok && strings.Contains(t, "/") {
		mt, err := mediatype.Parse(t)
		if err != nil {
			return nil, fmt.Errorf("type attribute of %s: %w", path, err)
		}
		entry = mediatype.Entry{MediaType: mt}
	}

	return c.classify(path, entry, attrs)
}

// ClassifyPathAs creates an element for path using an explicit media type.
func (c *Classifier) ClassifyPathAs(path string, mt mediatype.MediaType, attrs element.Attrs) (*element.Element, error) {
	if mt.IsZero() {
		return c.ClassifyPath(path, attrs)
	}
	return c.classify(path, mediatype.Entry{MediaType: mt}, attrs)
}

func (c *Classifier) classify(path string, entry mediatype.Entry, attrs element.Attrs) (*element.Element, error) {
	if path == "" {
		return nil, pageerr.InvalidInput("empty resource path")
	}
	if c.Resolver == nil {
		return nil, pageerr.InvalidInput("no resolver configured", "path", path)
	}

	mt := entry.MediaType

	// Checked before resolving so that a bad descriptor is reported as such
	// even when the file is missing.
	isLink := mt.Type != "image" && !isStylesheet(mt) && !isScript(mt)
	if rel, _ := attrs.Get("rel"); isLink && rel == "" {
		return nil, pageerr.InvalidInput("link without relation", "path", path, "type", mt.TypeAndSubtype())
	}

	res, err := c.Resolver.Resolve(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	var e *element.Element
	switch {
	case mt.Type == "image":
		e = c.icon(res, mt, attrs)
	case isScript(mt):
		e = script(res, mt, entry.Module, attrs)
	case isStylesheet(mt):
		e = element.New(element.Stylesheet, "link", element.A("href", res.URL, "rel", "stylesheet").Merge(attrs))
	default:
		base := element.A("type", mt.String())
		rel, _ := attrs.Get("rel")
		base.Set("rel", rel)
		base.Set("href", res.URL)
		e = element.NewLink(base.Merge(attrs))
	}

	c.logger().Debug("classified resource",
		"path", path,
		"kind", e.Kind.String(),
		"url", res.URL,
		"compressed", res.Compressed)

	return e, nil
}

func isStylesheet(mt mediatype.MediaType) bool {
	return mt.TypeAndSubtype() == "text/css"
}

func isScript(mt mediatype.MediaType) bool {
	return mt.TypeAndSubtype() == "application/javascript"
}

func script(res *urlfactory.Resolution, mt mediatype.MediaType, module bool, attrs element.Attrs) *element.Element {
	typ := mt.String()
	if module && !attrs.Has("type") {
		typ = "module"
	}
	return element.New(element.Script, "script", element.A("src", res.URL, "type", typ).Merge(attrs))
}

func (c *Classifier) icon(res *urlfactory.Resolution, mt mediatype.MediaType, attrs element.Attrs) *element.Element {
	base := element.A("type", mt.String())

	if strings.HasPrefix(mt.Subtype, "svg") {
		base.Set("sizes", "any")
	} else if w, h, err := imageSize(res); err == nil {
		base.Set("sizes", fmt.Sprintf("%dx%d", w, h))
	} else {
		c.logger().Debug("icon size unavailable", "path", res.LocalPath, "error", err)
	}

	base.Set("href", res.URL)
	base.Set("rel", "icon")

	return element.New(element.Icon, "link", base.Merge(attrs))
}

// Descriptor describes one resource of a page. Exactly one of Path and
// Element is set.
type Descriptor struct {
	Path string
	// Rel is a shorthand for a `rel` attribute.
	Rel   string
	Attrs element.Attrs
	// MediaType overrides inference from the extension.
	MediaType *mediatype.MediaType
	// Element is passed through unchanged.
	Element *element.Element
}

// Path describes a bare path.
func Path(p string) Descriptor {
	return Descriptor{Path: p}
}

// PathRel describes a path with a relation.
func PathRel(p, rel string) Descriptor {
	return Descriptor{Path: p, Rel: rel}
}

// PathAttrs describes a path with explicit attributes.
func PathAttrs(p string, attrs element.Attrs) Descriptor {
	return Descriptor{Path: p, Attrs: attrs}
}

// Prebuilt passes e through unchanged.
func Prebuilt(e *element.Element) Descriptor {
	return Descriptor{Element: e}
}

// Classify creates the element for a single descriptor.
func (c *Classifier) Classify(d Descriptor) (*element.Element, error) {
	if d.Element != nil {
		return d.Element, nil
	}

	attrs := d.Attrs
	if d.Rel != "" {
		attrs = attrs.Merge(element.A("rel", d.Rel))
	}

	if d.MediaType != nil {
		return c.ClassifyPathAs(d.Path, *d.MediaType, attrs)
	}
	return c.ClassifyPath(d.Path, attrs)
}

// ClassifyItems creates elements for items in order. It stops at the first
// invalid item.
func (c *Classifier) ClassifyItems(items []Descriptor) ([]*element.Element, error) {
	out := make([]*element.Element, 0, len(items))
	for i, item := range items {
		e, err := c.Classify(item)
		if err != nil {
			return nil, fmt.Errorf("resource %d: %w", i, err)
		}
		out = append(out, e)
	}
	return out, nil
}
