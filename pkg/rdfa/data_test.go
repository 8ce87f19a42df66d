package rdfa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/html-page/pkg/pageerr"
)

func mustPairs(t *testing.T, pairs ...Pair) *Data {
	t.Helper()
	d, err := FromPairs(Default(), pairs...)
	require.NoError(t, err)
	return d
}

func TestStatementNames(t *testing.T) {
	reg := Default()

	s := reg.NewStatement(DcCreator, Literal{Value: "Alice"})
	assert.Equal(t, "dc", s.Prefix)
	assert.Equal(t, "creator", s.LocalName)
	assert.Equal(t, "dc:creator", s.PropCurie())
	assert.Equal(t, DcCreator, s.PropURI())
	assert.Equal(t, "Alice", s.String())

	unknown := reg.NewStatement("http://example.org/terms/foo", Literal{Value: 42})
	assert.Equal(t, "", unknown.PropCurie())
	assert.Equal(t, "http://example.org/terms/foo", unknown.Key())
	assert.Equal(t, "42", unknown.String())
}

func TestStatementFromCurie(t *testing.T) {
	reg := Default()

	_, err := reg.StatementFromCurie("foo:bar", Literal{Value: "x"})
	assert.Equal(t, pageerr.CodeInvalidInput, pageerr.CodeOf(err))

	_, err = reg.StatementFromCurie("title", Literal{Value: "x"})
	assert.Equal(t, pageerr.CodeInvalidInput, pageerr.CodeOf(err))
}

func TestSplitURI(t *testing.T) {
	tests := []struct {
		uri, ns, local string
	}{
		{DcTitle, NSDc, "title"},
		{"http://www.w3.org/2002/07/owl#versionInfo", NSOwl, "versionInfo"},
		{"tag:example.com,2023:foo", "tag:example.com,2023:", "foo"},
		{"plain", "", "plain"},
	}
	for _, tt := range tests {
		ns, local := SplitURI(tt.uri)
		assert.Equal(t, tt.ns, ns, tt.uri)
		assert.Equal(t, tt.local, local, tt.uri)
	}
}

func TestDataKeepsInsertionOrder(t *testing.T) {
	d := mustPairs(t,
		Pair{"dc:title", "Lorem ipsum"},
		Pair{"dc:subject", []any{"foo", "bar"}},
		Pair{"owl:versionInfo", "1.2"},
	)

	assert.Equal(t, []string{"dc:title", "dc:subject", "owl:versionInfo"}, d.Keys())
	assert.Len(t, d.Get("dc:subject"), 2)
	assert.Len(t, d.Statements(), 4)

	first, ok := d.FirstString("dc:subject")
	assert.True(t, ok)
	assert.Equal(t, "foo", first)
}

func TestCharsetFromFormat(t *testing.T) {
	d := mustPairs(t, Pair{"dc:format", "text/html; charset=US-ASCII"})

	cs, ok := d.Charset()
	require.True(t, ok)
	assert.Equal(t, "US-ASCII", cs.String())
	assert.Equal(t, MetaCharset, cs.PropURI())
}

func TestExplicitCharsetWins(t *testing.T) {
	d := mustPairs(t,
		Pair{"meta:charset", "ISO-8859-1"},
		Pair{"dc:format", "text/html; charset=US-ASCII"},
	)
	cs, _ := d.Charset()
	assert.Equal(t, "ISO-8859-1", cs.String())

	d = mustPairs(t,
		Pair{"dc:format", "text/html; charset=US-ASCII"},
		Pair{"meta:charset", "ISO-8859-1"},
	)
	cs, _ = d.Charset()
	assert.Equal(t, "ISO-8859-1", cs.String())
}

func TestCharsetUnderReboundPrefix(t *testing.T) {
	reg := Default()
	reg.Register("m", NSMeta)

	d, err := FromPairs(reg,
		Pair{"dc:title", "T"},
		Pair{"m:charset", "UTF-8"},
	)
	require.NoError(t, err)
	cs, ok := d.Charset()
	require.True(t, ok)
	assert.Equal(t, "UTF-8", cs.String())

	d, err = FromPairs(reg, Pair{"dc:format", "text/html; charset=US-ASCII"})
	require.NoError(t, err)
	assert.Equal(t, []string{"dc:format", "m:charset"}, d.Keys())
	cs, ok = d.Charset()
	require.True(t, ok)
	assert.Equal(t, "m", cs.Prefix)
	assert.Equal(t, "US-ASCII", cs.String())
}

func TestCharsetStaysSingleAcrossPrefixes(t *testing.T) {
	d := mustPairs(t, Pair{"dc:title", "T"}, Pair{"meta:charset", "ISO-8859-1"})

	reg := Default()
	reg.Register("m", NSMeta)
	stmt, err := reg.StatementFromCurie("m:charset", Literal{Value: "UTF-8"})
	require.NoError(t, err)
	d.Add(stmt)

	assert.Equal(t, []string{"dc:title", "m:charset"}, d.Keys())
	cs, _ := d.Charset()
	assert.Equal(t, "UTF-8", cs.String())
}

func TestZeroDataIsUsable(t *testing.T) {
	var d Data
	reg := Default()
	title, err := reg.StatementFromCurie("dc:title", Literal{Value: "T"})
	require.NoError(t, err)
	format, err := reg.StatementFromCurie("dc:format", Literal{Value: "text/html; charset=UTF-8"})
	require.NoError(t, err)

	d.Add(title)
	d.Set(format)

	assert.Equal(t, []string{"dc:title", "dc:format", "meta:charset"}, d.Keys())
	v, _ := d.FirstString("dc:title")
	assert.Equal(t, "T", v)
}

func TestFromPairsRejectsNil(t *testing.T) {
	_, err := FromPairs(Default(), Pair{"dc:title", nil})
	assert.Equal(t, pageerr.CodeInvalidInput, pageerr.CodeOf(err))

	_, err = FromPairs(Default(), Pair{"dc:subject", []any{"a", nil}})
	assert.Equal(t, pageerr.CodeInvalidInput, pageerr.CodeOf(err))
}

func TestReplace(t *testing.T) {
	defaults := mustPairs(t, Pair{"dc:format", `application/xhtml+xml; charset="UTF-8"`})
	page := mustPairs(t,
		Pair{"dc:title", "Foo | Bar"},
		Pair{"dc:format", "text/html; charset=US-ASCII"},
	)

	merged := defaults.Replace(page)

	assert.Equal(t, []string{"dc:format", "meta:charset", "dc:title"}, merged.Keys())
	format, _ := merged.FirstString("dc:format")
	assert.Equal(t, "text/html; charset=US-ASCII", format)
	cs, _ := merged.Charset()
	assert.Equal(t, "US-ASCII", cs.String())

	// the receiver is untouched
	cs, _ = defaults.Charset()
	assert.Equal(t, "UTF-8", cs.String())
}

func TestNamespaceMap(t *testing.T) {
	d := mustPairs(t,
		Pair{"dc:title", "Lorem ipsum"},
		Pair{"http:cache-control", "public"},
		Pair{"owl:versionInfo", "1.42"},
		Pair{"dc:creator", "Alice"},
	)

	assert.Equal(t, []Namespace{
		{Prefix: "dc", Name: NSDc},
		{Prefix: "http", Name: NSHttp},
		{Prefix: "owl", Name: NSOwl},
	}, d.NamespaceMap())
}

func TestDecodeYAML(t *testing.T) {
	src := `
dc:title: Lorem ipsum
owl:versionInfo: 1.42
dc:subject: [foo, bar]
dc:source:
  uri: http://de.example.com/quelle
  rdfa:
    dc:language: de-LI
`
	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(src), &doc))

	d, err := DecodeYAML(Default(), &doc)
	require.NoError(t, err)

	assert.Equal(t, []string{"dc:title", "owl:versionInfo", "dc:subject", "dc:source"}, d.Keys())
	v, _ := d.FirstString("owl:versionInfo")
	assert.Equal(t, "1.42", v)

	src2, _ := d.First("dc:source")
	node, ok := src2.Node()
	require.True(t, ok)
	assert.Equal(t, "http://de.example.com/quelle", node.URI)
	lang, _ := node.Data.FirstString("dc:language")
	assert.Equal(t, "de-LI", lang)
}

func TestDecodeYAMLErrors(t *testing.T) {
	tests := map[string]string{
		"not a mapping":  `[a, b]`,
		"unknown prefix": `foo:bar: x`,
		"node no uri":    "dc:source:\n  rdfa: {}\n",
		"node bad field": "dc:source:\n  uri: x\n  href: y\n",
		"empty value":    "dc:title:\n",
		"null value":     "dc:abstract: ~\n",
		"null in list":   "dc:subject: [a, null]\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			var doc yaml.Node
			require.NoError(t, yaml.Unmarshal([]byte(src), &doc))
			_, err := DecodeYAML(Default(), &doc)
			assert.Equal(t, pageerr.CodeInvalidInput, pageerr.CodeOf(err))
		})
	}
}

func TestYAMLNodeRoundTrip(t *testing.T) {
	src := mustPairs(t,
		Pair{"dc:format", "text/html; charset=UTF-8"},
		Pair{"dc:title", "Lorem"},
		Pair{"dc:creator", &Node{URI: "http://bob.example.com"}},
	)

	out, err := yaml.Marshal(src.YAMLNode())
	require.NoError(t, err)
	assert.NotContains(t, string(out), "meta:charset")

	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal(out, &doc))
	back, err := DecodeYAML(Default(), &doc)
	require.NoError(t, err)
	assert.Equal(t, src.Keys(), back.Keys())
}
