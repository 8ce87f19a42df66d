// Package urlfactory maps local files below a document root to URLs.
package urlfactory

import (
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/dtnitsch/html-page/pkg/pageerr"
	"github.com/dtnitsch/html-page/pkg/storage"
)

// TimestampLayout formats the cache-busting `m` query parameter.
const TimestampLayout = "20060102150405"

// Resolution is the result of resolving a local path.
type Resolution struct {
	// URL is the public URL, including the `m` parameter unless disabled.
	URL string
	// LocalPath is the file actually served, which may be a compressed variant.
	LocalPath string
	Modified  time.Time
	// Compressed is set when a pre-compressed variant was chosen.
	Compressed bool
}

// DirMap maps files below HtdocsDir to URLs below HtdocsURL.
type DirMap struct {
	HtdocsDir string
	HtdocsURL string

	// PreferCompressed selects `<file>.gz` (or `<file>z` for SVG) when it exists.
	PreferCompressed bool
	// DisableModTime leaves out the `m` query parameter.
	DisableModTime bool

	store *storage.Storage
}

// Option configures a DirMap.
type Option func(*DirMap)

// WithPreferCompressed enables or disables the compressed variant preference.
func WithPreferCompressed(on bool) Option {
	return func(d *DirMap) { d.PreferCompressed = on }
}

// WithoutModTime disables the `m` query parameter.
func WithoutModTime() Option {
	return func(d *DirMap) { d.DisableModTime = true }
}

// NewDirMap returns a resolver for htdocsDir. Compressed variants are preferred by default.
func NewDirMap(htdocsDir, htdocsURL string, opts ...Option) (*DirMap, error) {
	abs, err := filepath.Abs(htdocsDir)
	if err != nil {
		return nil, pageerr.InvalidInput("unusable htdocs directory", "dir", htdocsDir, "error", err)
	}

	d := &DirMap{
		HtdocsDir:        abs,
		HtdocsURL:        htdocsURL,
		PreferCompressed: true,
		store:            &storage.Storage{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Resolve maps path to a URL. Relative paths are taken relative to HtdocsDir.
func (d *DirMap) Resolve(path string) (*Resolution, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(d.HtdocsDir, path)
	}
	path = filepath.Clean(path)

	rel, err := filepath.Rel(d.HtdocsDir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, pageerr.InvalidInput("path outside of htdocs directory", "path", path, "htdocs", d.HtdocsDir)
	}

	if d.store == nil {
		d.store = &storage.Storage{}
	}

	res := &Resolution{LocalPath: path}

	if d.PreferCompressed {
		variant := CompressedName(path)
		if stats, err := d.store.GetFileStats(variant); err == nil {
			res.LocalPath = variant
			res.Modified = stats.ModTime
			res.Compressed = true
			rel = CompressedName(rel)
		}
	}

	if !res.Compressed {
		stats, err := d.store.GetFileStats(path)
		if err != nil {
			if storage.IsNotExist(err) {
				return nil, pageerr.ResourceNotFound(path)
			}
			return nil, err
		}
		res.Modified = stats.ModTime
	}

	res.URL = d.urlFor(rel)
	if !d.DisableModTime {
		res.URL += "?m=" + res.Modified.UTC().Format(TimestampLayout)
	}

	return res, nil
}

func (d *DirMap) urlFor(rel string) string {
	segments := strings.Split(filepath.ToSlash(rel), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}

	base := d.HtdocsURL
	if base != "" && !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + strings.Join(segments, "/")
}

// CompressedName returns the name of the pre-compressed variant of path:
// `x.svgz` for `x.svg`, `x.gz` appended otherwise.
func CompressedName(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".svg") {
		return path + "z"
	}
	return path + ".gz"
}
