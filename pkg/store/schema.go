package store

// schemaVersion tracks the shape of the records table. Bump it together with
// a migration step in migrate().
const schemaVersion = 1

const createSchema = `
CREATE TABLE IF NOT EXISTS schema_info (
    version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS summary_requests (
    id            TEXT PRIMARY KEY,
    input_text    TEXT NOT NULL,
    summary_text  TEXT NOT NULL DEFAULT '',
    client_origin TEXT NOT NULL DEFAULT '',
    total_tokens  INTEGER NOT NULL DEFAULT 0,
    cost_usd      REAL NOT NULL DEFAULT 0,
    created_at    TIMESTAMP NOT NULL,
    completed_at  TIMESTAMP,
    error_message TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_summary_requests_created_at
    ON summary_requests (created_at);
CREATE INDEX IF NOT EXISTS idx_summary_requests_completed_at
    ON summary_requests (completed_at);
`
