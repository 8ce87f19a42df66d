// Package precompress writes the gzip variants that urlfactory prefers:
// `x.css.gz` next to `x.css` and `x.svgz` next to `x.svg`.
package precompress

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"github.com/dtnitsch/html-page/pkg/mediatype"
	"github.com/dtnitsch/html-page/pkg/storage"
	"github.com/dtnitsch/html-page/pkg/urlfactory"
)

// DefaultExtensions lists the text formats worth compressing.
var DefaultExtensions = []string{"css", "html", "js", "json", "mjs", "svg", "txt", "webmanifest", "xhtml", "xml"}

// Options controls compression.
type Options struct {
	// MinSize skips files smaller than this many bytes.
	MinSize int64
	// Extensions defaults to DefaultExtensions.
	Extensions []string
	// Level is a gzip level; 0 means gzip.BestCompression.
	Level int
	// Force rewrites variants that are newer than their source.
	Force bool
}

// Result describes one processed file.
type Result struct {
	Source         string `json:"source" yaml:"source"`
	Target         string `json:"target" yaml:"target"`
	OriginalSize   int64  `json:"original_size" yaml:"original_size"`
	CompressedSize int64  `json:"compressed_size,omitempty" yaml:"compressed_size,omitempty"`
	Skipped        bool   `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Reason         string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Compressor writes compressed variants.
type Compressor struct {
	opts   Options
	store  *storage.Storage
	logger *slog.Logger
}

// New returns a compressor. A nil logger discards output.
func New(opts Options, logger *slog.Logger) *Compressor {
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions
	}
	if opts.Level == 0 {
		opts.Level = gzip.BestCompression
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Compressor{opts: opts, store: &storage.Storage{}, logger: logger}
}

func (c *Compressor) wants(path string) bool {
	ext := mediatype.Extension(path)
	for _, e := range c.opts.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// File writes the compressed variant of path.
func (c *Compressor) File(path string) (*Result, error) {
	target := urlfactory.CompressedName(path)
	res := &Result{Source: path, Target: target}

	src, err := c.store.GetFileStats(path)
	if err != nil {
		return nil, err
	}
	res.OriginalSize = src.SizeBytes

	if src.SizeBytes < c.opts.MinSize {
		res.Skipped, res.Reason = true, "below minimum size"
		return res, nil
	}
	if !c.opts.Force {
		if dst, err := c.store.GetFileStats(target); err == nil && !dst.ModTime.Before(src.ModTime) {
			res.Skipped, res.Reason = true, "up to date"
			res.CompressedSize = dst.SizeBytes
			return res, nil
		}
	}

	content, err := c.store.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, c.opts.Level)
	if err != nil {
		return nil, fmt.Errorf("error creating gzip writer: %w", err)
	}
	zw.Name = filepath.Base(path)
	zw.ModTime = src.ModTime
	if _, err := zw.Write(content); err != nil {
		return nil, fmt.Errorf("error compressing %s: %w", path, err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("error compressing %s: %w", path, err)
	}

	if int64(buf.Len()) >= src.SizeBytes {
		res.Skipped, res.Reason = true, "no gain"
		return res, nil
	}

	if err := c.store.SaveFile(target, buf.Bytes()); err != nil {
		return nil, err
	}
	res.CompressedSize = int64(buf.Len())

	c.logger.Debug("compressed", "source", path, "original_size", res.OriginalSize, "compressed_size", res.CompressedSize)
	return res, nil
}

// Dir compresses every matching file below dir.
func (c *Compressor) Dir(ctx context.Context, dir string) ([]Result, error) {
	var results []Result

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() || !c.wants(path) {
			return nil
		}

		res, err := c.File(path)
		if err != nil {
			return err
		}
		results = append(results, *res)
		return nil
	})
	if err != nil {
		return results, fmt.Errorf("error compressing %s: %w", dir, err)
	}

	return results, nil
}

// Decompress returns the content of a variant written by File.
func Decompress(r io.Reader) ([]byte, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("error opening gzip stream: %w", err)
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
