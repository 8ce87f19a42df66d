package db

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/urfave/cli/v2"

	dbpkg "github.com/dtnitsch/html-page/pkg/db"
)

// ParseTime accepts a duration back from now ("72h") or anything
// dateparse understands ("2024-05-01", "May 1, 2024 10:00").
func ParseTime(value string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if d, err := time.ParseDuration(value); err == nil {
		return now.Add(-d), nil
	}
	t, err := dateparse.ParseLocal(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", value, err)
	}
	return t, nil
}

// GetBuildOrLatest returns the build named by the first argument (an id or
// unique id prefix), the latest successful build of --config, or the latest
// build if neither is given.
func GetBuildOrLatest(c *cli.Context, database *dbpkg.DB) (*dbpkg.Build, error) {
	return FindBuild(database, c.Args().First(), c.String("config"))
}

// FindBuild looks a build up by id prefix, else by config, else the latest.
func FindBuild(database *dbpkg.DB, id, config string) (*dbpkg.Build, error) {
	switch {
	case id != "":
		return database.GetBuild(id)
	case config != "":
		b, err := database.LatestBuildForConfig(config)
		if err != nil {
			return nil, err
		}
		return database.GetBuild(b.BuildID)
	}

	builds, err := database.ListBuilds(1, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("failed to get latest build: %w", err)
	}
	if len(builds) == 0 {
		return nil, fmt.Errorf("no builds found. Run 'html-page render --config page.yaml' first")
	}
	return database.GetBuild(builds[0].BuildID)
}
