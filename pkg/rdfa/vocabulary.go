package rdfa

import "strings"

// Namespace names of the vocabularies known to the default registry.
const (
	NSDc   = "http://purl.org/dc/terms/"
	NSOwl  = "http://www.w3.org/2002/07/owl#"
	NSRdfs = "http://www.w3.org/2000/01/rdf-schema#"
	NSXhv  = "http://www.w3.org/1999/xhtml/vocab#"

	// PrivateScheme prefixes every namespace that is never rendered into markup.
	PrivateScheme = "tag:"

	NSMeta = "tag:html-page.dtnitsch.github.com,2024:ns:meta#"
	NSHttp = "tag:html-page.dtnitsch.github.com,2024:ns:http#"
	NSRel  = "tag:html-page.dtnitsch.github.com,2024:ns:rel#"
)

// Property URIs with special treatment.
const (
	DcAbstract   = NSDc + "abstract"
	DcCreator    = NSDc + "creator"
	DcFormat     = NSDc + "format"
	DcIdentifier = NSDc + "identifier"
	DcLanguage   = NSDc + "language"
	DcSource     = NSDc + "source"
	DcTitle      = NSDc + "title"

	MetaCharset = NSMeta + "charset"

	HttpCacheControl = NSHttp + "cache-control"

	RelContents = NSRel + "contents"
	RelHome     = NSRel + "home"
	RelUp       = NSRel + "up"
)

// IsPrivate reports whether uri belongs to a private namespace.
func IsPrivate(uri string) bool {
	return strings.HasPrefix(uri, PrivateScheme)
}

// Registry maps namespace prefixes to namespace names and back.
type Registry struct {
	byPrefix map[string]string
	byNS     map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byPrefix: map[string]string{}, byNS: map[string]string{}}
}

// Default returns a new registry holding the well-known prefixes.
func Default() *Registry {
	r := NewRegistry()
	r.Register("dc", NSDc)
	r.Register("owl", NSOwl)
	r.Register("rdfs", NSRdfs)
	r.Register("xhv", NSXhv)
	r.Register("meta", NSMeta)
	r.Register("http", NSHttp)
	r.Register("rel", NSRel)
	return r
}

// Register binds prefix to nsName, replacing any earlier binding of either.
func (r *Registry) Register(prefix, nsName string) {
	if old, ok := r.byPrefix[prefix]; ok {
		delete(r.byNS, old)
	}
	if old, ok := r.byNS[nsName]; ok {
		delete(r.byPrefix, old)
	}
	r.byPrefix[prefix] = nsName
	r.byNS[nsName] = prefix
}

// PrefixFor returns the prefix bound to nsName.
func (r *Registry) PrefixFor(nsName string) (string, bool) {
	p, ok := r.byNS[nsName]
	return p, ok
}

// NSFor returns the namespace name bound to prefix.
func (r *Registry) NSFor(prefix string) (string, bool) {
	ns, ok := r.byPrefix[prefix]
	return ns, ok
}

// SplitURI splits a property URI after the last '#', '/' or ':'.
func SplitURI(uri string) (nsName, localName string) {
	i := strings.LastIndexAny(uri, "#/:")
	if i < 0 {
		return "", uri
	}
	return uri[:i+1], uri[i+1:]
}
