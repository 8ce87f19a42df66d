package render

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/html-page/internal/common"
	"github.com/dtnitsch/html-page/models"
	"github.com/dtnitsch/html-page/pkg/db"
	"github.com/dtnitsch/html-page/pkg/pageerr"
	"github.com/dtnitsch/html-page/pkg/storage"
)

// Flags lists the flags of the render command.
var Flags = []cli.Flag{
	&cli.StringSliceFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Page config; comma separated files are layered into one page, repeat the flag for more pages",
	},
	&cli.StringFlag{
		Name:  "body",
		Usage: "File with the body markup for every page, - for stdin",
	},
	&cli.StringFlag{
		Name:    "out",
		Aliases: []string{"o"},
		Usage:   "Output file, - for stdout (single page only)",
	},
	&cli.IntFlag{
		Name:  "workers",
		Value: 4,
		Usage: "Number of concurrent workers",
	},
	&cli.BoolFlag{
		Name:  "watch",
		Usage: "Render again when configs, bodies or htdocs change",
	},
	&cli.BoolFlag{
		Name:  "detect-language",
		Usage: "Set dc:language from the body text when missing",
	},
	&cli.BoolFlag{
		Name:  "error-page",
		Usage: "Write an error page when a page fails",
	},
	&cli.StringFlag{
		Name:  "db",
		Usage: "Build history database (default: html-page.db next to the binary)",
	},
	&cli.BoolFlag{
		Name:  "no-db",
		Usage: "Do not record builds",
	},
	&cli.StringFlag{
		Name:  "format",
		Value: "yaml",
		Usage: "Summary format (yaml, json)",
	},
	&cli.StringFlag{
		Name:  "fields",
		Usage: "Comma separated summary fields to print (e.g. config,status,output)",
	},
}

func RenderAction(c *cli.Context) error {
	logger := common.NewLogger(c.Bool("quiet"))

	config := &models.RenderConfig{
		WorkerCount: c.Int("workers"),
	}
	config.Configs = append(config.Configs, c.StringSlice("config")...)
	config.Configs = append(config.Configs, c.Args().Slice()...)

	if len(config.Configs) == 0 {
		fmt.Fprintln(os.Stderr, "Error: No page config provided")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, `  html-page render --config page.yaml`)
		fmt.Fprintln(os.Stderr, `  html-page render --config site.yaml,en/page.yaml --out en/index.html`)
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Need help? Run: html-page quickstart")
		return cli.Exit("", 1)
	}

	jobs := make([]Job, 0, len(config.Configs))
	for _, value := range config.Configs {
		jobs = append(jobs, Job{Configs: common.SplitList(value)})
	}

	r := &Renderer{
		Logger:         logger,
		DetectLanguage: c.Bool("detect-language"),
		ErrorPage:      c.Bool("error-page"),
		Output:         c.String("out"),
		Stdout:         c.App.Writer,
	}
	if r.Output != "" && len(jobs) > 1 {
		return cli.Exit("Error: --out needs a single page", 1)
	}

	bodyPath := c.String("body")
	if bodyPath != "" {
		content, err := readBody(bodyPath, c.App.Reader)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
		}
		r.Body = content
	}

	if !c.Bool("no-db") {
		database, err := db.Open(c.String("db"))
		if err != nil {
			logger.Error("failed to open database", "error", err)
			return cli.Exit("", 2)
		}
		defer database.Close()
		r.DB = database
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	render := func() FinalOutput {
		startTime := time.Now()
		results := Run(ctx, logger, r, jobs, config.WorkerCount)
		out := Summarize(results, time.Since(startTime))
		if err := printSummary(summaryWriter(c, results), out, c.String("format"), c.String("fields")); err != nil {
			logger.Error("failed to print summary", "error", err)
		}
		return out
	}

	out := render()

	if c.Bool("watch") {
		// Stdin was consumed above; a body file is read again on every change.
		if bodyPath == "-" {
			bodyPath = ""
		}
		return watch(ctx, logger, jobs, r.Output, bodyPath, func() {
			if bodyPath != "" {
				if err := r.ReloadBody(bodyPath); err != nil {
					logger.Error("failed to read body", "body", bodyPath, "error", err)
					return
				}
			}
			render()
		})
	}

	switch {
	case out.Stats.Failed == out.Stats.TotalPages:
		return cli.Exit("", 2)
	case out.Stats.Failed > 0:
		return cli.Exit("", 1)
	}
	return nil
}

func readBody(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		if stdin == nil {
			stdin = os.Stdin
		}
		return io.ReadAll(stdin)
	}
	return readBodyFile(path)
}

func readBodyFile(path string) ([]byte, error) {
	var store storage.Storage
	if !store.HasFile(path) {
		return nil, pageerr.ResourceNotFound(path)
	}
	return store.ReadFile(path)
}

// Summarize builds the printed output of a run.
func Summarize(results []Result, elapsed time.Duration) FinalOutput {
	stats := Stats{
		TotalPages:       len(results),
		TotalTimeSeconds: elapsed.Seconds(),
	}
	summaries := make([]ResultSummary, 0, len(results))
	for _, r := range results {
		s := BuildSummary(r)
		if r.Error != nil {
			stats.Failed++
		} else {
			stats.Successful++
			stats.TotalBytes += r.SizeBytes
		}
		summaries = append(summaries, s)
	}

	status := "success"
	switch {
	case stats.Failed == stats.TotalPages && stats.TotalPages > 0:
		status = "failure"
	case stats.Failed > 0:
		status = "partial_failure"
	}
	return FinalOutput{Status: status, Results: summaries, Stats: stats}
}

// BuildSummary converts a result for printing.
func BuildSummary(r Result) ResultSummary {
	s := ResultSummary{
		Output:      r.Output,
		StatusCode:  r.StatusCode,
		BuildID:     r.BuildID,
		Title:       r.Title,
		Language:    r.Language,
		SizeBytes:   r.SizeBytes,
		ElapsedMS:   float64(r.Elapsed.Microseconds()) / 1000,
		ContentHash: r.ContentHash,
		Resources:   r.Resources,
	}
	for i, cfg := range r.Configs {
		if i > 0 {
			s.Config += ","
		}
		s.Config += cfg
	}

	switch {
	case r.Error == nil:
		s.Status = "success"
	case r.ErrorPage:
		s.Status = "error_page"
	default:
		s.Status = "failed"
	}
	if r.Error != nil {
		s.ErrorCode = string(pageerr.CodeOf(r.Error))
		s.Error = r.Error.Error()
	}
	return s
}

// summaryWriter is stdout unless a page went there.
func summaryWriter(c *cli.Context, results []Result) io.Writer {
	for _, r := range results {
		if r.Output == "" || r.Output == "-" {
			return c.App.ErrWriter
		}
	}
	return c.App.Writer
}

func printSummary(w io.Writer, out FinalOutput, format, fields string) error {
	if w == nil {
		w = os.Stderr
	}
	if fields == "" {
		return common.PrintOutput(w, out, format)
	}

	summaries, _ := out.Results.([]ResultSummary)
	filtered := make([]map[string]interface{}, len(summaries))
	for i, s := range summaries {
		filtered[i] = common.FilterResultFields(s, fields)
	}
	return common.PrintOutput(w, map[string]interface{}{
		"status":  out.Status,
		"results": filtered,
		"stats":   out.Stats,
	}, format)
}

func watch(ctx context.Context, logger *slog.Logger, jobs []Job, output, bodyPath string, onChange func()) error {
	w, err := NewWatcher(logger, 0)
	if err != nil {
		return err
	}
	defer w.Close()

	if bodyPath != "" {
		if err := w.AddFile(bodyPath); err != nil {
			return err
		}
	}

	for _, job := range jobs {
		for _, path := range job.Configs {
			if err := w.AddFile(path); err != nil {
				return err
			}
		}

		cfg, err := models.LoadConfig(job.Configs...)
		if err != nil {
			logger.Warn("Watching config without loading it", "config", job.Configs, "error", err)
			continue
		}
		if cfg.BodyFile != "" {
			if err := w.AddFile(cfg.BodyFile); err != nil {
				return err
			}
		}
		if err := w.AddDir(cfg.Htdocs.Dir); err != nil {
			logger.Warn("Not watching htdocs", "dir", cfg.Htdocs.Dir, "error", err)
		}
		out := output
		if out == "" {
			out = cfg.Output
		}
		if out != "" && out != "-" {
			w.Ignore(out)
		}
	}

	logger.Info("Watching for changes", "pages", len(jobs))
	return w.Run(ctx, onChange)
}
