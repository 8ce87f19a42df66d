package inspect

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/html-page/internal/common"
	"github.com/dtnitsch/html-page/pkg/caching"
	"github.com/dtnitsch/html-page/pkg/fetcher"
	"github.com/dtnitsch/html-page/pkg/htmlimport"
	"github.com/dtnitsch/html-page/pkg/langdetect"
	"github.com/dtnitsch/html-page/pkg/pageerr"
)

// Flags lists the flags of the meta command.
var Flags = []cli.Flag{
	&cli.StringFlag{
		Name:     "from",
		Aliases:  []string{"f"},
		Required: true,
		Usage:    "HTML file, http(s) URL, or - for stdin",
	},
	&cli.StringFlag{
		Name:  "url",
		Usage: "URL of the page, used to resolve relative links (default: --from when it is a URL)",
	},
	&cli.BoolFlag{
		Name:  "detect-language",
		Usage: "Set dc:language from the text when the page declares none",
	},
	&cli.StringFlag{
		Name:  "languages",
		Usage: "Comma separated ISO 639-1 candidates for detection (default: all)",
	},
	&cli.IntFlag{
		Name:  "keywords",
		Value: 10,
		Usage: "Number of top words to report",
	},
	&cli.IntFlag{
		Name:  "subjects",
		Usage: "Add dc:subject for the top N words when the page has none",
	},
	&cli.StringFlag{
		Name:  "max-age",
		Value: "1h",
		Usage: "Reuse fetched pages younger than this (e.g. 30m, 24h); 0 disables the cache",
	},
}

// MetaAction prints a page config fragment with the metadata of an existing
// page on stdout and what else was learned on stderr.
func MetaAction(c *cli.Context) error {
	logger := common.NewLogger(c.Bool("quiet"))

	from := c.String("from")
	pageURL := c.String("url")
	if pageURL == "" && isURL(from) {
		pageURL = from
	}

	raw, err := read(c, logger, from)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), exitCode(err))
	}

	var detector *langdetect.Detector
	if c.Bool("detect-language") {
		detector, err = langdetect.New(common.SplitList(c.String("languages"))...)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
		}
	}

	im := htmlimport.New(detector, logger)
	im.Keywords = c.Int("keywords")
	im.Subjects = c.Int("subjects")

	res, err := im.Import(bytes.NewReader(raw), pageURL)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), exitCode(err))
	}

	if err := writeConfig(c.App.Writer, res); err != nil {
		return err
	}
	return common.PrintOutput(c.App.ErrWriter, map[string]interface{}{"imported": res.Meta}, "yaml")
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func exitCode(err error) int {
	if pageerr.IsNotFound(err) {
		return 1
	}
	return 2
}

func read(c *cli.Context, logger *slog.Logger, from string) ([]byte, error) {
	switch {
	case from == "-":
		in := c.App.Reader
		if in == nil {
			in = os.Stdin
		}
		return io.ReadAll(in)

	case isURL(from):
		opts := []fetcher.Option{fetcher.WithLogger(logger)}
		maxAge, err := time.ParseDuration(c.String("max-age"))
		if err != nil {
			return nil, pageerr.InvalidInput("invalid max-age duration", "max_age", c.String("max-age"))
		}
		if maxAge > 0 {
			if cache, err := openCache(maxAge); err != nil {
				logger.Warn("Page cache disabled", "error", err)
			} else {
				opts = append(opts, fetcher.WithCache(cache))
			}
		}
		return fetcher.NewFetcher(opts...).GetHtmlBytes(c.Context, from)
	}

	content, err := os.ReadFile(from)
	if os.IsNotExist(err) {
		return nil, pageerr.ResourceNotFound(from)
	}
	return content, err
}

func openCache(maxAge time.Duration) (*caching.Cache, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return nil, err
	}
	return caching.NewCache(filepath.Join(dir, "html-page", "pages"), maxAge)
}

// writeConfig prints the imported data as `rdfa` and the head resources as
// `resources` of a page config.
func writeConfig(w io.Writer, res *htmlimport.Result) error {
	doc := &yaml.Node{Kind: yaml.MappingNode}
	doc.Content = append(doc.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: "rdfa"},
		res.Data.YAMLNode(),
	)

	var resources []string
	resources = append(resources, res.Meta.Stylesheets...)
	resources = append(resources, res.Meta.Icons...)
	resources = append(resources, res.Meta.Scripts...)
	if len(resources) > 0 {
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, r := range resources {
			seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: r})
		}
		doc.Content = append(doc.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: "resources"}, seq)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}
