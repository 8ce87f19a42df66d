package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbpkg "github.com/dtnitsch/html-page/pkg/db"
)

func TestParseTime(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.Local)

	tests := []struct {
		name    string
		value   string
		want    time.Time
		wantErr bool
	}{
		{name: "empty", value: "", want: time.Time{}},
		{name: "duration", value: "72h", want: now.Add(-72 * time.Hour)},
		{name: "date", value: "2024-05-01", want: time.Date(2024, 5, 1, 0, 0, 0, 0, time.Local)},
		{name: "long date", value: "May 1, 2024", want: time.Date(2024, 5, 1, 0, 0, 0, 0, time.Local)},
		{name: "garbage", value: "not a date", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTime(tt.value, now)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "ParseTime(%q) = %v, want %v", tt.value, got, tt.want)
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, ".../page.yaml", truncate("site/en/very/long/page.yaml", 12))
}

func TestFindBuild(t *testing.T) {
	database, err := dbpkg.Open(filepath.Join(t.TempDir(), "builds.db"))
	require.NoError(t, err)
	defer database.Close()

	_, err = FindBuild(database, "", "")
	assert.Error(t, err, "empty database")

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	builds := []*dbpkg.Build{
		{ConfigPath: "a.yaml", Title: "A", Success: true, CreatedAt: base,
			Resources: []dbpkg.BuildResource{{Path: "a.css", Kind: "stylesheet"}}},
		{ConfigPath: "a.yaml", Title: "A broken", Success: false, CreatedAt: base.Add(time.Hour)},
		{ConfigPath: "b.yaml", Title: "B", Success: true, CreatedAt: base.Add(2 * time.Hour)},
	}
	ids := make([]string, len(builds))
	for i, b := range builds {
		ids[i], err = database.InsertBuild(b)
		require.NoError(t, err)
	}

	tests := []struct {
		name      string
		id        string
		config    string
		wantTitle string
	}{
		{name: "latest", wantTitle: "B"},
		{name: "by config", config: "a.yaml", wantTitle: "A"},
		{name: "by id prefix", id: ids[1][:8], wantTitle: "A broken"},
		{name: "id wins over config", id: ids[2], config: "a.yaml", wantTitle: "B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindBuild(database, tt.id, tt.config)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, got.Title)
		})
	}

	got, err := FindBuild(database, "", "a.yaml")
	require.NoError(t, err)
	assert.Len(t, got.Resources, 1)

	_, err = FindBuild(database, "", "missing.yaml")
	assert.ErrorIs(t, err, dbpkg.ErrNotFound)
}
