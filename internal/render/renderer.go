package render

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/dtnitsch/html-page/internal/common"
	"github.com/dtnitsch/html-page/models"
	"github.com/dtnitsch/html-page/pkg/db"
	"github.com/dtnitsch/html-page/pkg/element"
	"github.com/dtnitsch/html-page/pkg/errorpage"
	"github.com/dtnitsch/html-page/pkg/langdetect"
	"github.com/dtnitsch/html-page/pkg/page"
	"github.com/dtnitsch/html-page/pkg/pageerr"
	"github.com/dtnitsch/html-page/pkg/rdfa"
	"github.com/dtnitsch/html-page/pkg/resource"
	"github.com/dtnitsch/html-page/pkg/storage"
	"github.com/dtnitsch/html-page/pkg/urlfactory"
)

// Renderer turns page configs into HTML files.
type Renderer struct {
	Logger *slog.Logger
	// DB records builds when set.
	DB *db.DB
	// DetectLanguage sets dc:language from the body text when the config
	// has none.
	DetectLanguage bool
	// ErrorPage writes an error page instead of failing without output.
	ErrorPage bool
	// Body replaces the body of every config when non-nil.
	Body []byte
	// Output replaces the output of every config; "-" is Stdout.
	Output string
	Stdout io.Writer
	Clock  func() time.Time

	store     storage.Storage
	bodyMu    sync.RWMutex
	stdoutMu  sync.Mutex
	detectMu  sync.Mutex
	detectors map[string]*langdetect.Detector
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func (r *Renderer) logger() *slog.Logger {
	if r.Logger == nil {
		return discard
	}
	return r.Logger
}

func (r *Renderer) now() time.Time {
	if r.Clock != nil {
		return r.Clock()
	}
	return time.Now()
}

// Render renders one job. Errors are reported in the result.
func (r *Renderer) Render(job Job) Result {
	logger := r.logger()
	start := r.now()
	result := Result{Configs: job.Configs, Output: r.Output}

	p, cfg, err := r.build(job, &result)
	if cfg != nil && result.Output == "" {
		result.Output = cfg.Output
	}

	if err != nil {
		result.Error = err
		if !r.ErrorPage {
			result.Elapsed = r.now().Sub(start)
			r.record(job, &result, cfg)
			return result
		}
		var f *page.Factory
		if p != nil {
			f = p.Factory()
		}
		var perr error
		if p, perr = errorpage.NewPage(f, err); perr != nil {
			logger.Error("failed to render error page", "config", job.Configs, "error", perr)
			result.Elapsed = r.now().Sub(start)
			r.record(job, &result, cfg)
			return result
		}
		result.ErrorPage = true
	}

	content := p.Bytes()
	result.StatusCode = p.StatusCode()
	result.SizeBytes = int64(len(content))
	result.ContentHash = common.ContentHash(content)

	if werr := r.write(result.Output, content); werr != nil {
		result.Error = werr
	}
	result.Elapsed = r.now().Sub(start)

	r.record(job, &result, cfg)
	return result
}

// build renders the page. The returned page has a factory whenever the
// config could be turned into one, even if err is set.
func (r *Renderer) build(job Job, result *Result) (*page.Page, *models.PageConfig, error) {
	cfg, err := models.LoadConfig(job.Configs...)
	if err != nil {
		return nil, nil, err
	}

	var opts []urlfactory.Option
	if cfg.Htdocs.PreferCompressed != nil {
		opts = append(opts, urlfactory.WithPreferCompressed(*cfg.Htdocs.PreferCompressed))
	}
	if cfg.Htdocs.DisableModTime {
		opts = append(opts, urlfactory.WithoutModTime())
	}
	dirMap, err := urlfactory.NewDirMap(cfg.Htdocs.Dir, cfg.Htdocs.URL, opts...)
	if err != nil {
		return nil, cfg, err
	}
	classifier := resource.New(dirMap, r.Logger)

	r.bodyMu.RLock()
	body := r.Body
	r.bodyMu.RUnlock()
	if body == nil {
		if body, err = cfg.BodyContent(); err != nil {
			return nil, cfg, err
		}
	}

	if r.DetectLanguage && !cfg.Data.Has("dc:language") {
		if err := r.detectLanguage(cfg, body); err != nil {
			return nil, cfg, err
		}
	}

	f, err := page.NewFactory(cfg.Data, page.Options{
		Registry:   cfg.Registry,
		Classifier: classifier,
		HTMLAttrs:  cfg.HTMLAttrs.Attrs,
		BodyAttrs:  cfg.BodyAttrs.Attrs,
		Logger:     r.Logger,
		Clock:      r.Clock,
	})
	if err != nil {
		return nil, cfg, err
	}
	p := page.New(f)
	if cfg.Status != 0 {
		p.SetStatusCode(cfg.Status)
	}

	result.Title, _ = cfg.Data.FirstString("dc:title")
	result.Language, _ = cfg.Data.FirstString("dc:language")

	descriptors := cfg.Descriptors()
	elems, err := classifier.ClassifyItems(descriptors)
	if err != nil {
		return p, cfg, err
	}
	prebuilt := make([]resource.Descriptor, len(elems))
	for i, e := range elems {
		prebuilt[i] = resource.Prebuilt(e)
		result.Resources = append(result.Resources, resourceOutput(descriptors[i], e))
	}

	if err := p.Begin(prebuilt, nil, nil); err != nil {
		return page.New(f), cfg, err
	}
	if _, err := p.Write(body); err != nil {
		return page.New(f), cfg, err
	}
	p.End()

	return p, cfg, nil
}

// ReloadBody reads the body override again from path.
func (r *Renderer) ReloadBody(path string) error {
	content, err := readBodyFile(path)
	if err != nil {
		return err
	}
	r.bodyMu.Lock()
	r.Body = content
	r.bodyMu.Unlock()
	return nil
}

func resourceOutput(d resource.Descriptor, e *element.Element) ResourceOutput {
	out := ResourceOutput{Path: d.Path, Kind: e.Kind.String()}
	if href, ok := e.Attr("href"); ok {
		out.URL = href
	} else if src, ok := e.Attr("src"); ok {
		out.URL = src
	}
	return out
}

func (r *Renderer) detector(codes []string) (*langdetect.Detector, error) {
	key := strings.Join(codes, ",")

	r.detectMu.Lock()
	defer r.detectMu.Unlock()
	if d, ok := r.detectors[key]; ok {
		return d, nil
	}
	d, err := langdetect.New(codes...)
	if err != nil {
		return nil, err
	}
	if r.detectors == nil {
		r.detectors = make(map[string]*langdetect.Detector)
	}
	r.detectors[key] = d
	return d, nil
}

func (r *Renderer) detectLanguage(cfg *models.PageConfig, body []byte) error {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to parse body: %w", err)
	}
	text := strings.Join(strings.Fields(doc.Text()), " ")
	if text == "" {
		return nil
	}

	d, err := r.detector(cfg.Languages)
	if err != nil {
		return err
	}
	res, ok := d.Detect(text)
	if !ok {
		r.logger().Info("no language detected", "config", cfg.Path)
		return nil
	}

	stmt, err := cfg.Registry.StatementFromCurie("dc:language", rdfa.Literal{Value: res.Tag.String()})
	if err != nil {
		return err
	}
	cfg.Data.Add(stmt)
	r.logger().Info("language detected", "config", cfg.Path, "language", res.Tag.String(), "confidence", res.Confidence)
	return nil
}

func (r *Renderer) write(output string, content []byte) error {
	if output == "" || output == "-" {
		if r.Stdout == nil {
			return pageerr.InvalidInput("no output given")
		}
		r.stdoutMu.Lock()
		defer r.stdoutMu.Unlock()
		_, err := r.Stdout.Write(content)
		return err
	}
	return r.store.SaveFile(output, content)
}

func (r *Renderer) record(job Job, result *Result, cfg *models.PageConfig) {
	if r.DB == nil {
		return
	}

	b := &db.Build{
		ConfigPath:  strings.Join(job.Configs, ","),
		OutputPath:  result.Output,
		Title:       result.Title,
		Language:    result.Language,
		StatusCode:  result.StatusCode,
		ContentHash: result.ContentHash,
		SizeBytes:   result.SizeBytes,
		ElapsedMS:   float64(result.Elapsed.Microseconds()) / 1000,
		Success:     result.Error == nil,
	}
	if result.Error != nil {
		b.ErrorCode = string(pageerr.CodeOf(result.Error))
		b.ErrorMessage = result.Error.Error()
	}
	for i, res := range result.Resources {
		b.Resources = append(b.Resources, db.BuildResource{Position: i, Path: res.Path, Kind: res.Kind, URL: res.URL})
	}
	if cfg != nil && cfg.Data != nil {
		for _, stmt := range cfg.Data.Statements() {
			b.Metadata = append(b.Metadata, db.MetadataEntry{Key: stmt.Key(), Value: stmt.String()})
		}
	}

	id, err := r.DB.InsertBuild(b)
	if err != nil {
		r.logger().Warn("Failed to record build", "config", b.ConfigPath, "error", err)
		return
	}
	result.BuildID = id
}
