// Package htmlimport recovers RDFa metadata from existing HTML pages, the
// reverse direction of rdfa2html.
package htmlimport

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"github.com/dtnitsch/html-page/models"
	"github.com/dtnitsch/html-page/pkg/keywords"
	"github.com/dtnitsch/html-page/pkg/langdetect"
	"github.com/dtnitsch/html-page/pkg/pageerr"
	"github.com/dtnitsch/html-page/pkg/rdfa"
	"github.com/dtnitsch/html-page/pkg/rdfa2html"
)

// wordsPerMinute is used for the reading time estimate.
const wordsPerMinute = 200

// Result is the outcome of an import.
type Result struct {
	Data *rdfa.Data
	Meta models.ImportedMeta
}

// Importer reads head metadata from HTML documents.
type Importer struct {
	Registry *rdfa.Registry
	// Detector, if set, fills in dc:language for pages that do not declare it.
	Detector *langdetect.Detector
	// Keywords is the number of top words reported in the meta.
	Keywords int
	// Subjects adds dc:subject statements for the top words of pages
	// without any.
	Subjects int
	Logger   *slog.Logger
}

// New returns an importer using the default registry.
func New(detector *langdetect.Detector, logger *slog.Logger) *Importer {
	return &Importer{Registry: rdfa.Default(), Detector: detector, Logger: logger}
}

func (im *Importer) logger() *slog.Logger {
	if im.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return im.Logger
}

func (im *Importer) registry() *rdfa.Registry {
	if im.Registry == nil {
		return rdfa.Default()
	}
	return im.Registry
}

// Import parses an HTML document. pageURL is used to resolve relative URLs
// during content extraction and may be empty.
func (im *Importer) Import(r io.Reader, pageURL string) (*Result, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading html: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, pageerr.InvalidInput("unparseable html", "source", pageURL, "error", err)
	}

	b := &builder{reg: im.registry(), data: im.registry().NewData(), log: im.logger()}
	res := &Result{Meta: models.ImportedMeta{Source: pageURL}}

	b.fromHead(doc, &res.Meta)

	text := im.enrich(raw, pageURL, doc, b, &res.Meta)

	words := len(strings.Fields(text))
	res.Meta.WordCount = words
	res.Meta.EstimatedReadMin = float64(words) / wordsPerMinute

	if lang, ok := b.data.FirstString("dc:language"); ok {
		res.Meta.Language = lang
	} else if im.Detector != nil {
		if detected, ok := im.Detector.Detect(text); ok {
			res.Meta.Language = detected.Tag.String()
			res.Meta.LanguageDetected = true
			res.Meta.LanguageConfidence = detected.Confidence
			b.literal("dc:language", detected.Tag.String())
		}
	}

	if im.Keywords > 0 || im.Subjects > 0 {
		counts := keywords.Frequency(text)
		for _, k := range keywords.Top(counts, im.Keywords) {
			res.Meta.Keywords = append(res.Meta.Keywords, k.String())
		}
		if im.Subjects > 0 && !b.data.Has("dc:subject") {
			for _, k := range keywords.Top(counts, im.Subjects) {
				b.literal("dc:subject", k.Word)
			}
		}
	}

	res.Data = b.data

	im.logger().Debug("imported page metadata",
		"source", pageURL,
		"statements", res.Data.Len(),
		"word_count", words,
		"skipped", len(res.Meta.Skipped))

	return res, nil
}

// enrich adds what readability finds in the page content and returns the
// page's main text.
func (im *Importer) enrich(raw []byte, pageURL string, doc *goquery.Document, b *builder, meta *models.ImportedMeta) string {
	parsedURL, err := url.Parse(pageURL)
	if err != nil || pageURL == "" {
		parsedURL = &url.URL{}
	}

	parser := readability.NewParser()
	article, err := parser.Parse(bytes.NewReader(raw), parsedURL)
	if err != nil {
		im.logger().Debug("readability failed, using body text", "source", pageURL, "error", err)
		return normalizeText(doc.Find("body").Text())
	}

	meta.Author = article.Byline
	meta.Excerpt = article.Excerpt
	meta.SiteName = article.SiteName
	if article.PublishedTime != nil {
		meta.PublishedTime = article.PublishedTime.Format("2006-01-02")
		b.literalIfMissing("dc:issued", meta.PublishedTime)
	}
	meta.Favicon = article.Favicon
	meta.Image = article.Image

	if !b.data.Has("dc:title") && article.Title != "" {
		b.literal("dc:title", normalizeText(article.Title))
	}
	b.literalIfMissing("dc:creator", article.Byline)
	b.literalIfMissing("dc:abstract", article.Excerpt)
	b.literalIfMissing("dc:publisher", article.SiteName)

	content, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil {
		return normalizeText(doc.Find("body").Text())
	}
	return normalizeText(content.Text())
}

// builder accumulates statements, skipping what the registry cannot name.
type builder struct {
	reg  *rdfa.Registry
	data *rdfa.Data
	log  *slog.Logger
}

func (b *builder) add(curie string, obj rdfa.Object) bool {
	stmt, err := b.reg.StatementFromCurie(curie, obj)
	if err != nil {
		b.log.Debug("skipping statement", "curie", curie, "error", err)
		return false
	}
	b.data.Add(stmt)
	return true
}

func (b *builder) literal(curie, value string) bool {
	if value == "" {
		return false
	}
	return b.add(curie, rdfa.Literal{Value: value})
}

func (b *builder) literalIfMissing(curie, value string) {
	if !b.data.Has(curie) {
		b.literal(curie, value)
	}
}

// reverse inverts a property table, keeping the first property for a value.
func reverse(m map[string]string, reg *rdfa.Registry) map[string]string {
	out := make(map[string]string, len(m))
	for uri, v := range m {
		stmt := reg.NewStatement(uri, rdfa.Literal{})
		curie := stmt.PropCurie()
		if prev, ok := out[v]; !ok || curie < prev {
			out[v] = curie
		}
	}
	return out
}

func (b *builder) fromHead(doc *goquery.Document, meta *models.ImportedMeta) {
	metaNames := reverse(rdfa2html.PropURIToMetaName, b.reg)
	htmlRels := reverse(rdfa2html.PropURIToHTMLRel, b.reg)

	htmlSel := doc.Find("html").First()
	if id, ok := htmlSel.Attr("id"); ok {
		b.literal("dc:identifier", id)
	}
	if lang, ok := htmlSel.Attr("lang"); ok {
		b.literal("dc:language", lang)
	}

	doc.Find("head").Children().Each(func(_ int, s *goquery.Selection) {
		switch goquery.NodeName(s) {
		case "title":
			curie := s.AttrOr("property", "dc:title")
			b.literal(curie, normalizeText(s.Text()))

		case "meta":
			b.fromMeta(s, metaNames, meta)

		case "link":
			b.fromLink(s, htmlRels, meta)

		case "script":
			if src, ok := s.Attr("src"); ok {
				meta.Scripts = append(meta.Scripts, src)
			}
		}
	})
}

func (b *builder) fromMeta(s *goquery.Selection, metaNames map[string]string, meta *models.ImportedMeta) {
	if cs, ok := s.Attr("charset"); ok {
		b.literal("meta:charset", cs)
		return
	}

	content, ok := s.Attr("content")
	if !ok {
		return
	}

	if prop, ok := s.Attr("property"); ok && b.literal(prop, content) {
		return
	}
	if name, ok := s.Attr("name"); ok {
		if curie, ok := metaNames[strings.ToLower(name)]; ok && b.literal(curie, content) {
			return
		}
	}
	if equiv, ok := s.Attr("http-equiv"); ok && strings.EqualFold(equiv, "cache-control") {
		b.literal("http:cache-control", content)
		return
	}

	meta.Skipped = append(meta.Skipped, outerHTML(s))
}

func (b *builder) fromLink(s *goquery.Selection, htmlRels map[string]string, meta *models.ImportedMeta) {
	href, ok := s.Attr("href")
	if !ok {
		return
	}

	rels := strings.Fields(s.AttrOr("rel", ""))
	for _, rel := range rels {
		switch strings.ToLower(rel) {
		case "stylesheet":
			meta.Stylesheets = append(meta.Stylesheets, href)
			return
		case "icon", "shortcut", "apple-touch-icon":
			meta.Icons = append(meta.Icons, href)
			return
		}
	}

	// A CURIE relation wins over the table relation that follows it.
	curie := ""
	for _, rel := range rels {
		if strings.Contains(rel, ":") {
			curie = rel
			break
		}
		if c, ok := htmlRels[strings.ToLower(rel)]; ok && curie == "" {
			curie = c
		}
	}
	if curie == "" {
		meta.Skipped = append(meta.Skipped, outerHTML(s))
		return
	}

	node := rdfa.NewNode(href)
	nested := &builder{reg: b.reg, data: b.reg.NewData(), log: b.log}
	nested.literal("dc:format", s.AttrOr("type", ""))
	nested.literal("dc:language", s.AttrOr("hreflang", ""))
	nested.literal("dc:title", s.AttrOr("title", ""))
	if nested.data.Len() > 0 {
		node.Data = nested.data
	}

	if !b.add(curie, node) {
		meta.Skipped = append(meta.Skipped, outerHTML(s))
	}
}

func outerHTML(s *goquery.Selection) string {
	h, err := goquery.OuterHtml(s)
	if err != nil {
		return goquery.NodeName(s)
	}
	return h
}

// normalizeText cleans up a string by trimming space and removing excess newlines.
func normalizeText(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			b.WriteString(line)
			b.WriteString(" ")
		}
	}
	return strings.TrimSpace(b.String())
}
