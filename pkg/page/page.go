package page

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/dtnitsch/html-page/pkg/element"
	"github.com/dtnitsch/html-page/pkg/resource"
)

// Page is an HTML document written into a buffer.
type Page struct {
	factory *Factory
	build   Build
	body    bytes.Buffer
	status  int
}

// New returns an empty page with status 200. Timing starts now.
func New(f *Factory) *Page {
	return &Page{factory: f, build: f.StartBuild(), status: http.StatusOK}
}

// Factory returns the factory of the page.
func (p *Page) Factory() *Factory {
	return p.factory
}

// StatusCode returns the HTTP status of the page.
func (p *Page) StatusCode() int {
	return p.status
}

// SetStatusCode sets the HTTP status of the page.
func (p *Page) SetStatusCode(code int) {
	p.status = code
}

// Begin writes the beginning of the page.
func (p *Page) Begin(resources []resource.Descriptor, extraHead []element.Node, bodyAttrs element.Attrs) error {
	s, err := p.factory.Begin(resources, extraHead, bodyAttrs)
	if err != nil {
		return err
	}
	p.body.WriteString(s)
	return nil
}

// Write appends raw markup to the body.
func (p *Page) Write(b []byte) (int, error) {
	return p.body.Write(b)
}

// WriteString appends raw markup to the body.
func (p *Page) WriteString(s string) (int, error) {
	return p.body.WriteString(s)
}

// WriteNodes renders nodes into the body.
func (p *Page) WriteNodes(nodes ...element.Node) error {
	return element.Render(&p.body, nodes...)
}

// End writes the end of the page.
func (p *Page) End() {
	p.body.WriteString(p.factory.End(p.build))
}

// Bytes returns the content written so far.
func (p *Page) Bytes() []byte {
	return p.body.Bytes()
}

// WriteTo writes the content to w.
func (p *Page) WriteTo(w io.Writer) (int64, error) {
	return bytes.NewReader(p.body.Bytes()).WriteTo(w)
}

// Header returns the HTTP headers derived from the page metadata.
func (p *Page) Header() http.Header {
	h := http.Header{}
	data := p.factory.Data()

	if v, ok := data.FirstString("dc:format"); ok {
		h.Set("Content-Type", v)
	}
	if v, ok := data.FirstString("dc:language"); ok {
		h.Set("Content-Language", v)
	}
	if v, ok := data.FirstString("http:cache-control"); ok {
		h.Set("Cache-Control", v)
	}
	h.Set("Content-Length", strconv.Itoa(p.body.Len()))

	return h
}

// WriteResponse sends headers, status and content to w.
func (p *Page) WriteResponse(w http.ResponseWriter) error {
	for k, v := range p.Header() {
		w.Header()[k] = v
	}
	w.WriteHeader(p.status)

	if _, err := p.WriteTo(w); err != nil {
		return fmt.Errorf("error writing response: %w", err)
	}
	return nil
}
