package render

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtnitsch/html-page/pkg/db"
	"github.com/dtnitsch/html-page/pkg/pageerr"
)

var mtime = time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC)

type site struct {
	dir    string
	config string
}

func newSite(t *testing.T, config string) site {
	t.Helper()
	dir := t.TempDir()
	htdocs := filepath.Join(dir, "htdocs")
	require.NoError(t, os.Mkdir(htdocs, 0o755))

	for name, content := range map[string]string{
		"alcamo.css":    "body { margin: 0 }",
		"alcamo.css.gz": "not really gzip",
		"alcamo.json":   "{}",
	} {
		path := filepath.Join(htdocs, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		require.NoError(t, os.Chtimes(path, mtime, mtime))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "body.html"),
		[]byte("<p>The quick brown fox jumps over the lazy dog while the farmer watches from the old house.</p>"), 0o644))

	path := filepath.Join(dir, "page.yaml")
	require.NoError(t, os.WriteFile(path, []byte(config), 0o644))
	return site{dir: dir, config: path}
}

const pageConfig = `
rdfa:
  dc:title: Foo | Bar
  dc:creator: Alice
resources:
  - alcamo.css
  - [alcamo.json, manifest]
htdocs:
  dir: htdocs
  url: /
body_file: body.html
output: htdocs/index.html
`

func openDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "builds.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestRender(t *testing.T) {
	s := newSite(t, pageConfig)
	database := openDB(t)

	r := &Renderer{DB: database}
	result := r.Render(Job{Configs: []string{s.config}})
	require.NoError(t, result.Error)

	output := filepath.Join(s.dir, "htdocs", "index.html")
	assert.Equal(t, output, result.Output)
	assert.Equal(t, 200, result.StatusCode)
	assert.Equal(t, "Foo | Bar", result.Title)
	assert.NotEmpty(t, result.ContentHash)

	content, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, result.SizeBytes, int64(len(content)))
	assert.True(t, strings.HasPrefix(string(content), "<!DOCTYPE html>"))

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, "Foo | Bar", doc.Find("head title").Text())
	href, _ := doc.Find(`link[rel="stylesheet"]`).Attr("href")
	assert.Equal(t, "/alcamo.css.gz?m=20230102030405", href)
	manifest, _ := doc.Find(`link[rel="manifest"]`).Attr("href")
	assert.Equal(t, "/alcamo.json?m=20230102030405", manifest)
	assert.Contains(t, doc.Find("body").Text(), "quick brown fox")

	require.Len(t, result.Resources, 2)
	assert.Equal(t, ResourceOutput{Path: "alcamo.css", Kind: "stylesheet", URL: href}, result.Resources[0])

	require.NotEmpty(t, result.BuildID)
	b, err := database.GetBuild(result.BuildID)
	require.NoError(t, err)
	assert.True(t, b.Success)
	assert.Equal(t, s.config, b.ConfigPath)
	assert.Len(t, b.Resources, 2)
	assert.Equal(t, "dc:title", b.Metadata[0].Key)
}

func TestRenderMissingResource(t *testing.T) {
	s := newSite(t, strings.Replace(pageConfig, "- alcamo.css\n", "- missing.css\n", 1))
	output := filepath.Join(s.dir, "htdocs", "index.html")

	result := (&Renderer{}).Render(Job{Configs: []string{s.config}})
	require.Error(t, result.Error)
	assert.True(t, pageerr.IsNotFound(result.Error))
	assert.NoFileExists(t, output)

	result = (&Renderer{ErrorPage: true}).Render(Job{Configs: []string{s.config}})
	require.Error(t, result.Error)
	assert.True(t, result.ErrorPage)
	assert.Equal(t, 404, result.StatusCode)
	assert.Equal(t, "error_page", BuildSummary(result).Status)

	content, err := os.ReadFile(output)
	require.NoError(t, err)
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, "Foo | Bar", doc.Find("head title").Text())
	assert.Contains(t, doc.Find("body").Text(), "missing.css")
}

func TestRenderToStdoutWithBody(t *testing.T) {
	s := newSite(t, pageConfig+"languages: [en, de]\n")
	var stdout bytes.Buffer

	r := &Renderer{
		Output:         "-",
		Stdout:         &stdout,
		Body:           []byte("<main>Der schnelle braune Fuchs springt über den faulen Hund, während der Bauer aus dem alten Haus zusieht.</main>"),
		DetectLanguage: true,
	}
	result := r.Render(Job{Configs: []string{s.config}})
	require.NoError(t, result.Error)
	assert.Equal(t, "de", result.Language)

	doc, err := goquery.NewDocumentFromReader(&stdout)
	require.NoError(t, err)
	lang, _ := doc.Find("html").Attr("lang")
	assert.Equal(t, "de", lang)
	assert.Equal(t, 1, doc.Find("main").Length())
	assert.NoFileExists(t, filepath.Join(s.dir, "htdocs", "index.html"))
}

func TestReloadBody(t *testing.T) {
	s := newSite(t, pageConfig)
	bodyPath := filepath.Join(s.dir, "override.html")
	require.NoError(t, os.WriteFile(bodyPath, []byte("<p>first</p>"), 0o644))

	var stdout bytes.Buffer
	r := &Renderer{Output: "-", Stdout: &stdout}
	require.NoError(t, r.ReloadBody(bodyPath))
	require.NoError(t, r.Render(Job{Configs: []string{s.config}}).Error)
	assert.Contains(t, stdout.String(), "<p>first</p>")

	require.NoError(t, os.WriteFile(bodyPath, []byte("<p>second</p>"), 0o644))
	require.NoError(t, r.ReloadBody(bodyPath))
	stdout.Reset()
	require.NoError(t, r.Render(Job{Configs: []string{s.config}}).Error)
	assert.Contains(t, stdout.String(), "<p>second</p>")
	assert.NotContains(t, stdout.String(), "first")

	err := r.ReloadBody(filepath.Join(s.dir, "gone.html"))
	assert.True(t, pageerr.IsNotFound(err))
	assert.Equal(t, []byte("<p>second</p>"), r.Body)
}

func TestWatchBodyFile(t *testing.T) {
	s := newSite(t, pageConfig)
	bodyPath := filepath.Join(t.TempDir(), "override.html")
	require.NoError(t, os.WriteFile(bodyPath, []byte("<p>v1</p>"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- watch(ctx, discard, []Job{{Configs: []string{s.config}}}, "", bodyPath, func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
	}()

	require.Eventually(t, func() bool {
		if err := os.WriteFile(bodyPath, []byte("<p>v2</p>"), 0o644); err != nil {
			return false
		}
		select {
		case <-changed:
			return true
		default:
			return false
		}
	}, 5*time.Second, 500*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestRunKeepsOrder(t *testing.T) {
	a := newSite(t, pageConfig)
	b := newSite(t, strings.Replace(pageConfig, "Foo | Bar", "Second", 1))

	jobs := []Job{
		{Configs: []string{a.config}},
		{Configs: []string{filepath.Join(a.dir, "missing.yaml")}},
		{Configs: []string{b.config}},
	}
	results := Run(context.Background(), discard, &Renderer{}, jobs, 3)
	require.Len(t, results, 3)
	assert.Equal(t, "Foo | Bar", results[0].Title)
	assert.Error(t, results[1].Error)
	assert.Equal(t, "Second", results[2].Title)

	out := Summarize(results, time.Second)
	assert.Equal(t, "partial_failure", out.Status)
	assert.Equal(t, 2, out.Stats.Successful)
	assert.Equal(t, 1, out.Stats.Failed)
	summaries := out.Results.([]ResultSummary)
	assert.Equal(t, string(pageerr.CodeResourceNotFound), summaries[1].ErrorCode)
}

func TestRunCancelled(t *testing.T) {
	s := newSite(t, pageConfig)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := Run(ctx, discard, &Renderer{}, []Job{{Configs: []string{s.config}}}, 0)
	require.Len(t, results, 1)
	assert.True(t, errors.Is(results[0].Error, context.Canceled))
	assert.Equal(t, "failure", Summarize(results, 0).Status)
}

func TestWatcherRelevant(t *testing.T) {
	s := newSite(t, pageConfig)
	w, err := NewWatcher(nil, 0)
	require.NoError(t, err)
	defer w.Close()

	htdocs := filepath.Join(s.dir, "htdocs")
	require.NoError(t, w.AddFile(s.config))
	require.NoError(t, w.AddDir(htdocs))
	w.Ignore(filepath.Join(htdocs, "index.html"))

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{name: "config write", event: fsnotify.Event{Name: s.config, Op: fsnotify.Write}, want: true},
		{name: "sibling of config", event: fsnotify.Event{Name: filepath.Join(s.dir, "other.yaml"), Op: fsnotify.Write}},
		{name: "htdocs create", event: fsnotify.Event{Name: filepath.Join(htdocs, "new.css.gz"), Op: fsnotify.Create}, want: true},
		{name: "output", event: fsnotify.Event{Name: filepath.Join(htdocs, "index.html"), Op: fsnotify.Write}},
		{name: "chmod", event: fsnotify.Event{Name: s.config, Op: fsnotify.Chmod}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.relevant(tt.event))
		})
	}
}
