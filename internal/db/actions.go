package db

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	dbpkg "github.com/dtnitsch/html-page/pkg/db"
)

// DBFlag selects the build history database.
var DBFlag = &cli.StringFlag{
	Name:  "db",
	Usage: "Build history database (default: html-page.db next to the binary)",
}

func open(c *cli.Context) (*dbpkg.DB, error) {
	database, err := dbpkg.Open(c.String("db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return database, nil
}

func status(b dbpkg.Build) string {
	if b.Success {
		return "ok"
	}
	return "failed"
}

func BuildsAction(c *cli.Context) error {
	database, err := open(c)
	if err != nil {
		return err
	}
	defer database.Close()

	since, err := ParseTime(c.String("since"), time.Now())
	if err != nil {
		return err
	}

	builds, err := database.ListBuilds(c.Int("limit"), since)
	if err != nil {
		return fmt.Errorf("failed to list builds: %w", err)
	}

	w := c.App.Writer
	if len(builds) == 0 {
		fmt.Fprintln(w, "No builds found")
		return nil
	}

	// Print table header
	fmt.Fprintf(w, "%-10s %-16s %-7s %-6s %-9s %-30s %-30s\n",
		"ID", "Created", "Status", "HTTP", "Size", "Config", "Title")
	fmt.Fprintln(w, strings.Repeat("-", 114))

	for _, b := range builds {
		fmt.Fprintf(w, "%-10s %-16s %-7s %-6d %-9s %-30s %-30s\n",
			b.BuildID[:8],
			humanize.Time(b.CreatedAt),
			status(b),
			b.StatusCode,
			humanize.Bytes(uint64(b.SizeBytes)),
			truncate(b.ConfigPath, 30),
			truncate(b.Title, 30),
		)
	}

	fmt.Fprintf(w, "\nTotal: %d builds\n", len(builds))
	fmt.Fprintf(w, "\nTip: Use 'html-page build <id>' to see details\n")
	return nil
}

// BuildAction shows details for a specific build
func BuildAction(c *cli.Context) error {
	database, err := open(c)
	if err != nil {
		return err
	}
	defer database.Close()

	b, err := GetBuildOrLatest(c, database)
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Build %s\n", b.BuildID)
	fmt.Fprintf(w, "Created:     %s (%s)\n", b.CreatedAt.Format("2006-01-02 15:04:05"), humanize.Time(b.CreatedAt))
	fmt.Fprintf(w, "Config:      %s\n", b.ConfigPath)
	if b.OutputPath != "" {
		fmt.Fprintf(w, "Output:      %s\n", b.OutputPath)
	}
	fmt.Fprintf(w, "Status:      %s (HTTP %d)\n", status(*b), b.StatusCode)
	fmt.Fprintf(w, "Size:        %s\n", humanize.Bytes(uint64(b.SizeBytes)))
	fmt.Fprintf(w, "Elapsed:     %.3f ms\n", b.ElapsedMS)
	if b.ContentHash != "" {
		fmt.Fprintf(w, "Hash:        %s\n", b.ContentHash)
	}
	if b.ErrorCode != "" {
		fmt.Fprintf(w, "Error:       [%s] %s\n", b.ErrorCode, b.ErrorMessage)
	}

	if len(b.Metadata) > 0 {
		fmt.Fprintf(w, "\nMetadata (%d):\n", len(b.Metadata))
		for _, m := range b.Metadata {
			fmt.Fprintf(w, "  %-24s %s\n", m.Key, m.Value)
		}
	}

	if len(b.Resources) > 0 {
		fmt.Fprintf(w, "\nResources (%d):\n", len(b.Resources))
		for _, r := range b.Resources {
			fmt.Fprintf(w, "%2d. [%s] %s\n", r.Position+1, r.Kind, r.Path)
			if r.URL != "" {
				fmt.Fprintf(w, "    %s\n", r.URL)
			}
		}
	}
	return nil
}

// PruneAction deletes builds older than --before.
func PruneAction(c *cli.Context) error {
	before, err := ParseTime(c.String("before"), time.Now())
	if err != nil {
		return err
	}
	if before.IsZero() {
		return fmt.Errorf("--before is required")
	}

	database, err := open(c)
	if err != nil {
		return err
	}
	defer database.Close()

	n, err := database.DeleteBuildsBefore(before)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Deleted %d builds older than %s\n", n, humanize.Time(before))
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n+3:]
}
