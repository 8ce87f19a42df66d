package db

const schema = `
-- Performance and reliability settings
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;
PRAGMA temp_store = MEMORY;

-- Builds: one row per rendered page
CREATE TABLE IF NOT EXISTS builds (
    build_id TEXT PRIMARY KEY,        -- UUID
    config_path TEXT NOT NULL,
    output_path TEXT,
    title TEXT,
    language TEXT,
    status_code INTEGER NOT NULL DEFAULT 200,
    content_hash TEXT,
    size_bytes INTEGER DEFAULT 0,
    elapsed_ms REAL DEFAULT 0,
    success BOOLEAN NOT NULL,
    error_code TEXT,                  -- INVALID_INPUT, RESOURCE_NOT_FOUND, INTERNAL
    error_message TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_builds_created ON builds(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_builds_config ON builds(config_path);
CREATE INDEX IF NOT EXISTS idx_builds_success ON builds(success);

-- Build resources: head resources in page order
CREATE TABLE IF NOT EXISTS build_resources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    build_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    path TEXT NOT NULL,
    kind TEXT NOT NULL,               -- stylesheet, script, icon, link, ...
    url TEXT,
    FOREIGN KEY (build_id) REFERENCES builds(build_id) ON DELETE CASCADE,
    UNIQUE(build_id, position)
);

CREATE INDEX IF NOT EXISTS idx_build_resources_build ON build_resources(build_id);

-- Build metadata: the RDFa statements of the page as CURIE/value pairs
CREATE TABLE IF NOT EXISTS build_metadata (
    metadata_id INTEGER PRIMARY KEY AUTOINCREMENT,
    build_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    key TEXT NOT NULL,
    value TEXT NOT NULL,
    FOREIGN KEY (build_id) REFERENCES builds(build_id) ON DELETE CASCADE,
    UNIQUE(build_id, position)
);

CREATE INDEX IF NOT EXISTS idx_build_metadata_build ON build_metadata(build_id);
CREATE INDEX IF NOT EXISTS idx_build_metadata_key ON build_metadata(key);
`
