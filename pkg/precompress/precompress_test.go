package precompress

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtnitsch/html-page/pkg/urlfactory"
)

var css = []byte(strings.Repeat("body { margin: 0; padding: 0; }\n", 64))

func TestDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "site.css"), css, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logo.svg"), bytes.Repeat([]byte("<svg></svg>"), 50), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tiny.js"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "photo.png"), css, 0o644))

	results, err := New(Options{MinSize: 16}, nil).Dir(context.Background(), dir)
	require.NoError(t, err)

	byName := map[string]Result{}
	for _, r := range results {
		byName[filepath.Base(r.Source)] = r
	}
	require.Len(t, byName, 3)

	assert.Equal(t, filepath.Join(dir, "site.css.gz"), byName["site.css"].Target)
	assert.False(t, byName["site.css"].Skipped)
	assert.Less(t, byName["site.css"].CompressedSize, byName["site.css"].OriginalSize)

	assert.Equal(t, filepath.Join(dir, "logo.svgz"), byName["logo.svg"].Target)
	assert.FileExists(t, filepath.Join(dir, "logo.svgz"))

	assert.True(t, byName["tiny.js"].Skipped)
	assert.NoFileExists(t, filepath.Join(dir, "tiny.js.gz"))

	f, err := os.Open(filepath.Join(dir, "site.css.gz"))
	require.NoError(t, err)
	defer f.Close()
	got, err := Decompress(f)
	require.NoError(t, err)
	assert.Equal(t, css, got)
}

func TestFileUpToDate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "site.css")
	require.NoError(t, os.WriteFile(path, css, 0o644))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	c := New(Options{}, nil)

	first, err := c.File(path)
	require.NoError(t, err)
	assert.False(t, first.Skipped)

	second, err := c.File(path)
	require.NoError(t, err)
	assert.True(t, second.Skipped)
	assert.Equal(t, "up to date", second.Reason)

	forced, err := New(Options{Force: true}, nil).File(path)
	require.NoError(t, err)
	assert.False(t, forced.Skipped)
}

func TestResolverPicksVariant(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "site.css")
	require.NoError(t, os.WriteFile(path, css, 0o644))

	_, err := New(Options{}, nil).File(path)
	require.NoError(t, err)

	d, err := urlfactory.NewDirMap(dir, "/", urlfactory.WithoutModTime())
	require.NoError(t, err)
	res, err := d.Resolve("site.css")
	require.NoError(t, err)
	assert.Equal(t, "/site.css.gz", res.URL)
	assert.True(t, res.Compressed)
}
