package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// timestampLayout matches SQLite's CURRENT_TIMESTAMP.
const timestampLayout = "2006-01-02 15:04:05"

// ErrNotFound is returned when no build matches.
var ErrNotFound = errors.New("build not found")

// Build represents one page rendering
type Build struct {
	BuildID      string
	ConfigPath   string
	OutputPath   string
	Title        string
	Language     string
	StatusCode   int
	ContentHash  string
	SizeBytes    int64
	ElapsedMS    float64
	Success      bool
	ErrorCode    string
	ErrorMessage string
	CreatedAt    time.Time

	Resources []BuildResource
	Metadata  []MetadataEntry
}

// BuildResource is a head resource of a build
type BuildResource struct {
	Position int
	Path     string
	Kind     string
	URL      string
}

// MetadataEntry is one RDFa statement of a build
type MetadataEntry struct {
	Key   string
	Value string
}

// InsertBuild stores a build with its resources and metadata in one
// transaction. An empty BuildID gets a new UUID. Returns the build_id.
func (db *DB) InsertBuild(b *Build) (string, error) {
	if b.BuildID == "" {
		b.BuildID = uuid.NewString()
	}

	var createdAt any
	if !b.CreatedAt.IsZero() {
		createdAt = b.CreatedAt.UTC().Format(timestampLayout)
	}

	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // No-op after commit

	_, err = tx.Exec(`
		INSERT INTO builds (build_id, config_path, output_path, title, language, status_code,
			content_hash, size_bytes, elapsed_ms, success, error_code, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, COALESCE(?, CURRENT_TIMESTAMP))
	`, b.BuildID, b.ConfigPath, NewNullString(b.OutputPath), NewNullString(b.Title), NewNullString(b.Language),
		b.StatusCode, NewNullString(b.ContentHash), b.SizeBytes, b.ElapsedMS, b.Success,
		NewNullString(b.ErrorCode), NewNullString(b.ErrorMessage), createdAt)
	if err != nil {
		return "", fmt.Errorf("failed to insert build: %w", err)
	}

	for _, r := range b.Resources {
		_, err = tx.Exec(`
			INSERT INTO build_resources (build_id, position, path, kind, url)
			VALUES (?, ?, ?, ?, ?)
		`, b.BuildID, r.Position, r.Path, r.Kind, NewNullString(r.URL))
		if err != nil {
			return "", fmt.Errorf("failed to insert build resource: %w", err)
		}
	}

	for i, m := range b.Metadata {
		_, err = tx.Exec(`
			INSERT INTO build_metadata (build_id, position, key, value)
			VALUES (?, ?, ?, ?)
		`, b.BuildID, i, m.Key, m.Value)
		if err != nil {
			return "", fmt.Errorf("failed to insert build metadata: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit build: %w", err)
	}

	return b.BuildID, nil
}

const buildColumns = `build_id, config_path, COALESCE(output_path, ''), COALESCE(title, ''),
	COALESCE(language, ''), status_code, COALESCE(content_hash, ''), size_bytes, elapsed_ms,
	success, COALESCE(error_code, ''), COALESCE(error_message, ''), created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanBuild(row scanner) (*Build, error) {
	var b Build
	err := row.Scan(
		&b.BuildID,
		&b.ConfigPath,
		&b.OutputPath,
		&b.Title,
		&b.Language,
		&b.StatusCode,
		&b.ContentHash,
		&b.SizeBytes,
		&b.ElapsedMS,
		&b.Success,
		&b.ErrorCode,
		&b.ErrorMessage,
		&b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// GetBuild retrieves a build with resources and metadata. id may be a
// unique prefix of the build_id.
func (db *DB) GetBuild(id string) (*Build, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("empty build id: %w", ErrNotFound)
	}

	rows, err := db.Query(`SELECT `+buildColumns+` FROM builds WHERE build_id LIKE ? || '%' LIMIT 2`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get build: %w", err)
	}
	defer rows.Close()

	var matches []*Build
	for rows.Next() {
		b, err := scanBuild(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan build: %w", err)
		}
		matches = append(matches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate builds: %w", err)
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("build %s: %w", id, ErrNotFound)
	case 2:
		return nil, fmt.Errorf("build id prefix %s is ambiguous", id)
	}

	b := matches[0]
	if b.Resources, err = db.getBuildResources(b.BuildID); err != nil {
		return nil, err
	}
	if b.Metadata, err = db.getBuildMetadata(b.BuildID); err != nil {
		return nil, err
	}
	return b, nil
}

func (db *DB) getBuildResources(buildID string) ([]BuildResource, error) {
	rows, err := db.Query(`
		SELECT position, path, kind, COALESCE(url, '')
		FROM build_resources
		WHERE build_id = ?
		ORDER BY position
	`, buildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get build resources: %w", err)
	}
	defer rows.Close()

	var out []BuildResource
	for rows.Next() {
		var r BuildResource
		if err := rows.Scan(&r.Position, &r.Path, &r.Kind, &r.URL); err != nil {
			return nil, fmt.Errorf("failed to scan build resource: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (db *DB) getBuildMetadata(buildID string) ([]MetadataEntry, error) {
	rows, err := db.Query(`
		SELECT key, value
		FROM build_metadata
		WHERE build_id = ?
		ORDER BY position
	`, buildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get build metadata: %w", err)
	}
	defer rows.Close()

	var out []MetadataEntry
	for rows.Next() {
		var m MetadataEntry
		if err := rows.Scan(&m.Key, &m.Value); err != nil {
			return nil, fmt.Errorf("failed to scan build metadata: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListBuilds returns the most recent builds, newest first. A zero since
// lists all builds; limit <= 0 means no limit.
func (db *DB) ListBuilds(limit int, since time.Time) ([]Build, error) {
	query := `SELECT ` + buildColumns + ` FROM builds`
	var args []any

	if !since.IsZero() {
		query += ` WHERE created_at >= ?`
		args = append(args, since.UTC().Format(timestampLayout))
	}
	query += ` ORDER BY created_at DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list builds: %w", err)
	}
	defer rows.Close()

	var builds []Build
	for rows.Next() {
		b, err := scanBuild(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan build: %w", err)
		}
		builds = append(builds, *b)
	}
	return builds, rows.Err()
}

// LatestBuildForConfig returns the newest successful build of a config.
func (db *DB) LatestBuildForConfig(configPath string) (*Build, error) {
	row := db.QueryRow(`SELECT `+buildColumns+` FROM builds
		WHERE config_path = ? AND success = 1
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1`, configPath)

	b, err := scanBuild(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("config %s: %w", configPath, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest build: %w", err)
	}
	return b, nil
}

// DeleteBuildsBefore removes builds older than t, returning the number removed.
func (db *DB) DeleteBuildsBefore(t time.Time) (int64, error) {
	result, err := db.Exec(`DELETE FROM builds WHERE created_at < ?`, t.UTC().Format(timestampLayout))
	if err != nil {
		return 0, fmt.Errorf("failed to delete builds: %w", err)
	}
	return result.RowsAffected()
}

// NewNullString converts a string to sql.NullString (empty string -> NULL)
func NewNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
