package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/html-page/internal/assets"
	dbactions "github.com/dtnitsch/html-page/internal/db"
	"github.com/dtnitsch/html-page/internal/inspect"
	"github.com/dtnitsch/html-page/internal/render"
	"github.com/dtnitsch/html-page/pkg/help"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "html-page",
		Usage:   "Build HTML pages from RDFa metadata and htdocs resources",
		Version: version,
		// Commas in --config layer files into one page.
		DisableSliceFlagSeparator: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Only log warnings and errors",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "render",
				Usage:     "Render pages from page configs",
				ArgsUsage: "[config ...]",
				Flags:     render.Flags,
				Action:    render.RenderAction,
			},
			{
				Name:   "meta",
				Usage:  "Print a page config fragment with the metadata of an existing page",
				Flags:  inspect.Flags,
				Action: inspect.MetaAction,
			},
			{
				Name:   "compress",
				Usage:  "Write .gz siblings for the files of an htdocs directory",
				Flags:  assets.Flags,
				Action: assets.CompressAction,
			},
			{
				Name:  "builds",
				Usage: "List recorded builds",
				Flags: []cli.Flag{
					dbactions.DBFlag,
					&cli.IntFlag{
						Name:  "limit",
						Value: 20,
						Usage: "Maximum number of builds",
					},
					&cli.StringFlag{
						Name:  "since",
						Usage: "Only builds after this time (e.g. 72h, 2024-05-01)",
					},
				},
				Action: dbactions.BuildsAction,
			},
			{
				Name:      "build",
				Usage:     "Show a recorded build, the latest if no id is given",
				ArgsUsage: "[id]",
				Flags: []cli.Flag{
					dbactions.DBFlag,
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Latest successful build of this config (as passed to render)",
					},
				},
				Action:    dbactions.BuildAction,
			},
			{
				Name:  "prune",
				Usage: "Delete recorded builds older than a time",
				Flags: []cli.Flag{
					dbactions.DBFlag,
					&cli.StringFlag{
						Name:     "before",
						Required: true,
						Usage:    "Delete builds before this time (e.g. 720h, 2024-05-01)",
					},
				},
				Action: dbactions.PruneAction,
			},
			{
				Name:  "quickstart",
				Usage: "Print a quick reference for page configs and commands",
				Action: func(c *cli.Context) error {
					fmt.Fprint(c.App.Writer, help.QuickstartYAML)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
