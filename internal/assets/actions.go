package assets

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/html-page/internal/common"
	"github.com/dtnitsch/html-page/pkg/precompress"
)

// Flags lists the flags of the compress command.
var Flags = []cli.Flag{
	&cli.StringFlag{
		Name:     "dir",
		Aliases:  []string{"d"},
		Required: true,
		Usage:    "htdocs directory to compress",
	},
	&cli.Int64Flag{
		Name:  "min-size",
		Value: 256,
		Usage: "Skip files smaller than this many bytes",
	},
	&cli.IntFlag{
		Name:  "level",
		Usage: "gzip level 1-9 (default: best compression)",
	},
	&cli.StringFlag{
		Name:  "ext",
		Usage: "Comma separated extensions to compress (default: css,html,js,json,mjs,svg,txt,webmanifest,xhtml,xml)",
	},
	&cli.BoolFlag{
		Name:  "force",
		Usage: "Rewrite variants that are up to date",
	},
	&cli.StringFlag{
		Name:  "format",
		Value: "yaml",
		Usage: "Summary format (yaml, json)",
	},
}

// Summary is the printed outcome of a compress run.
type Summary struct {
	Dir        string               `json:"dir" yaml:"dir"`
	Written    int                  `json:"written" yaml:"written"`
	Skipped    int                  `json:"skipped" yaml:"skipped"`
	SavedBytes int64                `json:"saved_bytes" yaml:"saved_bytes"`
	Saved      string               `json:"saved" yaml:"saved"`
	Results    []precompress.Result `json:"results" yaml:"results"`
}

// Summarize counts the results of a run.
func Summarize(dir string, results []precompress.Result) Summary {
	s := Summary{Dir: dir, Results: results}
	for _, r := range results {
		if r.Skipped {
			s.Skipped++
			continue
		}
		s.Written++
		s.SavedBytes += r.OriginalSize - r.CompressedSize
	}
	s.Saved = humanize.Bytes(uint64(s.SavedBytes))
	return s
}

func CompressAction(c *cli.Context) error {
	logger := common.NewLogger(c.Bool("quiet"))

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	comp := precompress.New(precompress.Options{
		MinSize:    c.Int64("min-size"),
		Level:      c.Int("level"),
		Extensions: common.SplitList(c.String("ext")),
		Force:      c.Bool("force"),
	}, logger)

	dir := c.String("dir")
	results, err := comp.Dir(ctx, dir)
	if err != nil {
		logger.Error("compression failed", "dir", dir, "error", err)
		return cli.Exit(fmt.Sprintf("Error: %v", err), 2)
	}

	summary := Summarize(dir, results)
	logger.Info("Compression finished", "dir", dir, "written", summary.Written, "skipped", summary.Skipped, "saved_bytes", summary.SavedBytes)
	return common.PrintOutput(c.App.Writer, summary, c.String("format"))
}
