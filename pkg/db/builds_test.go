package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	// Use in-memory database for tests
	database := &DB{path: ":memory:"}
	var err error
	database.DB, err = openDB(":memory:")
	require.NoError(t, err, "failed to create test database")
	// Every pooled connection would get its own in-memory database.
	database.SetMaxOpenConns(1)

	require.NoError(t, database.InitSchema(), "failed to initialize schema")

	return database
}

func TestInsertAndGetBuild(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	b := &Build{
		ConfigPath:  "site/index.yaml",
		OutputPath:  "htdocs/index.html",
		Title:       "Foo | Bar",
		Language:    "en",
		StatusCode:  200,
		ContentHash: "abc123",
		SizeBytes:   2048,
		ElapsedMS:   1.5,
		Success:     true,
		Resources: []BuildResource{
			{Position: 0, Path: "alcamo.css", Kind: "stylesheet", URL: "/alcamo.css.gz?m=20230101000000"},
			{Position: 1, Path: "alcamo.json", Kind: "link", URL: "/alcamo.json?m=20230101000000"},
		},
		Metadata: []MetadataEntry{
			{Key: "dc:title", Value: "Foo | Bar"},
			{Key: "dc:language", Value: "en"},
		},
	}

	id, err := db.InsertBuild(b)
	require.NoError(t, err)
	assert.Len(t, id, 36, "InsertBuild() id should be a UUID")

	got, err := db.GetBuild(id[:8])
	require.NoError(t, err)

	assert.Equal(t, id, got.BuildID)
	assert.Equal(t, "Foo | Bar", got.Title)
	assert.Empty(t, got.ErrorCode)
	assert.True(t, got.Success)
	assert.False(t, got.CreatedAt.IsZero())
	require.Len(t, got.Resources, 2)
	assert.Equal(t, "link", got.Resources[1].Kind)
	require.Len(t, got.Metadata, 2)
	assert.Equal(t, "dc:title", got.Metadata[0].Key)
}

func TestGetBuildNotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	tests := []struct {
		name string
		id   string
	}{
		{name: "unknown", id: "does-not-exist"},
		{name: "empty", id: "  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.GetBuild(tt.id)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestListBuilds(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := db.InsertBuild(&Build{
			ConfigPath: "page.yaml",
			StatusCode: 200,
			Success:    i != 2,
			ErrorCode:  map[bool]string{true: "RESOURCE_NOT_FOUND"}[i == 2],
			CreatedAt:  base.Add(time.Duration(i) * 24 * time.Hour),
		})
		require.NoError(t, err)
	}

	tests := []struct {
		name      string
		limit     int
		since     time.Time
		wantCount int
		wantFirst time.Time
	}{
		{name: "all", wantCount: 5, wantFirst: base.Add(96 * time.Hour)},
		{name: "limit", limit: 2, wantCount: 2, wantFirst: base.Add(96 * time.Hour)},
		{name: "since", since: base.Add(72 * time.Hour), wantCount: 2, wantFirst: base.Add(96 * time.Hour)},
		{name: "since everything", since: base.Add(-time.Hour), wantCount: 5, wantFirst: base.Add(96 * time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			builds, err := db.ListBuilds(tt.limit, tt.since)
			require.NoError(t, err)
			require.Len(t, builds, tt.wantCount)
			assert.True(t, builds[0].CreatedAt.Equal(tt.wantFirst), "first CreatedAt = %v, want %v", builds[0].CreatedAt, tt.wantFirst)
		})
	}
}

func TestLatestBuildForConfig(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	builds := []*Build{
		{ConfigPath: "a.yaml", ContentHash: "old", Success: true, CreatedAt: base},
		{ConfigPath: "a.yaml", ContentHash: "new", Success: true, CreatedAt: base.Add(time.Hour)},
		{ConfigPath: "a.yaml", Success: false, ErrorCode: "INTERNAL", CreatedAt: base.Add(2 * time.Hour)},
		{ConfigPath: "b.yaml", ContentHash: "other", Success: true, CreatedAt: base.Add(3 * time.Hour)},
	}
	for _, b := range builds {
		_, err := db.InsertBuild(b)
		require.NoError(t, err)
	}

	got, err := db.LatestBuildForConfig("a.yaml")
	require.NoError(t, err)
	assert.Equal(t, "new", got.ContentHash)

	_, err = db.LatestBuildForConfig("c.yaml")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteBuildsBefore(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	old := &Build{ConfigPath: "a.yaml", Success: true, CreatedAt: base,
		Resources: []BuildResource{{Path: "a.css", Kind: "stylesheet"}}}
	_, err := db.InsertBuild(old)
	require.NoError(t, err)
	_, err = db.InsertBuild(&Build{ConfigPath: "a.yaml", Success: true, CreatedAt: base.Add(48 * time.Hour)})
	require.NoError(t, err)

	n, err := db.DeleteBuildsBefore(base.Add(24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var resources int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM build_resources").Scan(&resources))
	assert.Zero(t, resources, "build_resources rows after cascade")
}

func TestOpenCreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "builds.db")

	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, path, db.Path())
	_, err = db.InsertBuild(&Build{ConfigPath: "x.yaml", Success: true})
	assert.NoError(t, err)
}
