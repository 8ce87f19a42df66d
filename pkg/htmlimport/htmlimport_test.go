package htmlimport

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtnitsch/html-page/pkg/element"
	"github.com/dtnitsch/html-page/pkg/langdetect"
	"github.com/dtnitsch/html-page/pkg/page"
	"github.com/dtnitsch/html-page/pkg/rdfa"
)

const bodyText = "The quick brown fox jumps over the lazy dog and disappears into the forest behind the old house. " +
	"Nobody in the village had ever seen a fox move that fast, and the dog did not even lift its head. " +
	"Later that evening the farmer counted his chickens twice and found that none of them were missing."

func renderPage(t *testing.T, pairs ...rdfa.Pair) string {
	t.Helper()
	d, err := rdfa.FromPairs(rdfa.Default(), pairs...)
	require.NoError(t, err)
	f, err := page.NewFactory(d, page.Options{})
	require.NoError(t, err)

	p := page.New(f)
	require.NoError(t, p.Begin(nil, nil, nil))
	require.NoError(t, p.WriteNodes(element.NewGeneric("article", nil,
		element.NewGeneric("h1", nil, element.Text("Fox news")),
		element.NewGeneric("p", nil, element.Text(bodyText)))))
	p.End()
	return string(p.Bytes())
}

func TestImportRoundTrip(t *testing.T) {
	source := rdfa.NewNode("https://example.com/quelle")
	nested, err := rdfa.FromPairs(rdfa.Default(), rdfa.Pair{Curie: "dc:language", Value: "de"})
	require.NoError(t, err)
	source.Data = nested

	html := renderPage(t,
		rdfa.Pair{Curie: "dc:title", Value: "Lorem ipsum"},
		rdfa.Pair{Curie: "dc:creator", Value: "Alice"},
		rdfa.Pair{Curie: "dc:abstract", Value: "Stet clita kasd gubergren."},
		rdfa.Pair{Curie: "owl:versionInfo", Value: "1.2"},
		rdfa.Pair{Curie: "rel:home", Value: rdfa.NewNode("/")},
		rdfa.Pair{Curie: "dc:source", Value: source},
	)

	res, err := New(nil, nil).Import(strings.NewReader(html), "https://example.com/page.html")
	require.NoError(t, err)

	d := res.Data
	for curie, want := range map[string]string{
		"meta:charset":    "UTF-8",
		"dc:title":        "Lorem ipsum",
		"dc:creator":      "Alice",
		"dc:abstract":     "Stet clita kasd gubergren.",
		"owl:versionInfo": "1.2",
		"rel:home":        "/",
		"dc:source":       "https://example.com/quelle",
	} {
		got, ok := d.FirstString(curie)
		assert.True(t, ok, curie)
		assert.Equal(t, want, got, curie)
	}

	src, _ := d.First("dc:source")
	node, ok := src.Node()
	require.True(t, ok)
	lang, _ := node.Data.FirstString("dc:language")
	assert.Equal(t, "de", lang)

	assert.Equal(t, "https://example.com/page.html", res.Meta.Source)
	assert.Greater(t, res.Meta.WordCount, 40)
	assert.Empty(t, res.Meta.Language)
}

func TestImportDetectsLanguage(t *testing.T) {
	det, err := langdetect.New("en", "de")
	require.NoError(t, err)

	html := renderPage(t, rdfa.Pair{Curie: "dc:title", Value: "Fox"})

	res, err := New(det, nil).Import(strings.NewReader(html), "")
	require.NoError(t, err)

	lang, ok := res.Data.FirstString("dc:language")
	require.True(t, ok)
	assert.Equal(t, "en", lang)
	assert.True(t, res.Meta.LanguageDetected)
	assert.Equal(t, "en", res.Meta.Language)
}

func TestImportDeclaredLanguageWins(t *testing.T) {
	det, err := langdetect.New("en", "de")
	require.NoError(t, err)

	html := `<html lang="de"><head><title>T</title></head><body><p>` + bodyText + `</p></body></html>`

	res, err := New(det, nil).Import(strings.NewReader(html), "")
	require.NoError(t, err)

	lang, _ := res.Data.FirstString("dc:language")
	assert.Equal(t, "de", lang)
	assert.False(t, res.Meta.LanguageDetected)
}

func TestImportResourcesAndSkipped(t *testing.T) {
	html := `<!DOCTYPE html><html id="start"><head>
<meta name="viewport" content="width=device-width"/>
<meta name="description" content="Lorem ipsum dolor."/>
<meta http-equiv="Cache-Control" content="no-cache"/>
<title>Start</title>
<link rel="stylesheet" href="/css/site.css"/>
<link rel="icon" href="/favicon.ico"/>
<link rel="up" href="../" title="Parent"/>
<link rel="preload" href="/font.woff2"/>
<script src="/js/app.js"></script>
</head><body><p>Hello.</p></body></html>`

	res, err := New(nil, nil).Import(strings.NewReader(html), "")
	require.NoError(t, err)

	id, _ := res.Data.FirstString("dc:identifier")
	assert.Equal(t, "start", id)
	abstract, _ := res.Data.FirstString("dc:abstract")
	assert.Equal(t, "Lorem ipsum dolor.", abstract)
	cc, _ := res.Data.FirstString("http:cache-control")
	assert.Equal(t, "no-cache", cc)

	up, ok := res.Data.First("rel:up")
	require.True(t, ok)
	node, _ := up.Node()
	title, _ := node.Data.FirstString("dc:title")
	assert.Equal(t, "Parent", title)

	assert.Equal(t, []string{"/css/site.css"}, res.Meta.Stylesheets)
	assert.Equal(t, []string{"/favicon.ico"}, res.Meta.Icons)
	assert.Equal(t, []string{"/js/app.js"}, res.Meta.Scripts)
	require.Len(t, res.Meta.Skipped, 2)
	assert.Contains(t, res.Meta.Skipped[0], "viewport")
	assert.Contains(t, res.Meta.Skipped[1], "preload")
}

func TestImportKeywordsAndSubjects(t *testing.T) {
	html := renderPage(t, rdfa.Pair{Curie: "dc:title", Value: "Fox"})

	im := New(nil, nil)
	im.Keywords = 3
	im.Subjects = 2
	res, err := im.Import(strings.NewReader(html), "")
	require.NoError(t, err)

	require.Len(t, res.Meta.Keywords, 3)

	subjects := res.Data.Get("dc:subject")
	require.Len(t, subjects, 2)
	assert.ElementsMatch(t, []string{"dog", "fox"}, []string{subjects[0].String(), subjects[1].String()})
}
