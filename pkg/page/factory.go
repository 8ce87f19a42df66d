// Package page assembles complete HTML documents around caller-supplied body
// content: doctype, <html> with namespace declarations, a <head> built from
// RDFa metadata and resources, and the <body> frame.
package page

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/dtnitsch/html-page/pkg/element"
	"github.com/dtnitsch/html-page/pkg/pageerr"
	"github.com/dtnitsch/html-page/pkg/rdfa"
	"github.com/dtnitsch/html-page/pkg/rdfa2html"
	"github.com/dtnitsch/html-page/pkg/resource"
)

const (
	// XHTMLNamespace is the default namespace of the <html> element.
	XHTMLNamespace = "http://www.w3.org/1999/xhtml"

	// DefaultFormat is the dc:format used unless the page data overrides it.
	DefaultFormat = `application/xhtml+xml; charset="UTF-8"`
)

// Options lists the collaborators of a Factory. Zero values get defaults.
type Options struct {
	Registry   *rdfa.Registry
	Mapper     *rdfa2html.Mapper
	Classifier *resource.Classifier

	// Default attributes of <html>, <head> and <body>.
	HTMLAttrs element.Attrs
	HeadAttrs element.Attrs
	BodyAttrs element.Attrs

	Logger *slog.Logger
	Clock  func() time.Time
}

// Factory creates the beginning and the end of HTML pages.
type Factory struct {
	data *rdfa.Data
	opts Options
}

// NewFactory returns a factory for pages described by data, which is merged
// over a default dc:format.
func NewFactory(data *rdfa.Data, opts Options) (*Factory, error) {
	if opts.Registry == nil {
		opts.Registry = rdfa.Default()
	}
	if opts.Mapper == nil {
		opts.Mapper = rdfa2html.New()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	defaults, err := rdfa.FromPairs(opts.Registry, rdfa.Pair{Curie: "dc:format", Value: DefaultFormat})
	if err != nil {
		return nil, fmt.Errorf("error building default metadata: %w", err)
	}

	return &Factory{data: defaults.Replace(data), opts: opts}, nil
}

// Data returns the metadata of the page.
func (f *Factory) Data() *rdfa.Data {
	return f.data
}

// Classifier returns the resource classifier, which may be nil.
func (f *Factory) Classifier() *resource.Classifier {
	return f.opts.Classifier
}

// Logger returns the factory's logger.
func (f *Factory) Logger() *slog.Logger {
	return f.opts.Logger
}

// StartBuild starts timing a page.
func (f *Factory) StartBuild() Build {
	return NewBuild(f.opts.Clock)
}

// HTMLAttrs returns the attributes of <html>: xmlns, the namespaces used by
// the metadata, `id` from dc:identifier and `lang` from dc:language. The
// factory defaults and then extra override them.
func (f *Factory) HTMLAttrs(extra element.Attrs) element.Attrs {
	attrs := element.A("xmlns", XHTMLNamespace)
	for _, a := range f.opts.Mapper.NamespaceAttrs(f.data) {
		attrs.Set(a.Key, a.Val)
	}

	if id, ok := f.data.FirstString("dc:identifier"); ok {
		attrs.Set("id", id)
	}
	if lang, ok := f.data.FirstString("dc:language"); ok {
		attrs.Set("lang", lang)
	}

	return attrs.Merge(f.opts.HTMLAttrs).Merge(extra)
}

// Head returns the <head> element: metadata elements, then the resources,
// then extra nodes.
func (f *Factory) Head(resources []resource.Descriptor, extra []element.Node) (*element.Element, error) {
	children := element.Nodes(f.opts.Mapper.HeadElements(f.data)...)

	if len(resources) > 0 {
		if f.opts.Classifier == nil {
			return nil, pageerr.InvalidInput("resources given but no classifier configured", "count", len(resources))
		}
		elems, err := f.opts.Classifier.ClassifyItems(resources)
		if err != nil {
			return nil, fmt.Errorf("error creating resource elements: %w", err)
		}
		children = append(children, element.Nodes(elems...)...)
	}

	children = append(children, extra...)

	return element.NewGeneric("head", f.opts.HeadAttrs.Merge(nil), children...), nil
}

// Begin returns the doctype, the opening <html> tag, the <head> element and
// the opening <body> tag.
func (f *Factory) Begin(resources []resource.Descriptor, extraHead []element.Node, bodyAttrs element.Attrs) (string, error) {
	head, err := f.Head(resources, extraHead)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(element.Doctype())
	b.WriteString(element.OpeningTag("html", f.HTMLAttrs(nil)))
	if err := element.Render(&b, head); err != nil {
		return "", fmt.Errorf("error rendering head: %w", err)
	}
	b.WriteString(element.OpeningTag("body", f.opts.BodyAttrs.Merge(bodyAttrs)))

	f.opts.Logger.Debug("page begun",
		"head_elements", len(head.Children),
		"resources", len(resources))

	return b.String(), nil
}

// End returns the closing </body> tag, a comment with the elapsed time of
// build and the closing </html> tag.
func (f *Factory) End(build Build) string {
	elapsed := build.Elapsed()

	f.opts.Logger.Debug("page ended", "elapsed_ms", elapsed.Milliseconds())

	return element.ClosingTag("body") +
		element.String(element.Comment(fmt.Sprintf(" Served in %.6fs ", elapsed.Seconds()))) +
		element.ClosingTag("html")
}
