package shield

import "database/sql"

// Schema defines the SQLite table used by the rate limiter. Statements are
// idempotent (CREATE IF NOT EXISTS). A default rule for the document
// submission endpoint is seeded disabled; operators enable it by flipping
// the enabled column.
const Schema = `
CREATE TABLE IF NOT EXISTS rate_limits (
    endpoint       TEXT PRIMARY KEY,
    max_requests   INTEGER NOT NULL DEFAULT 60,
    window_seconds INTEGER NOT NULL DEFAULT 60,
    enabled        INTEGER NOT NULL DEFAULT 1
);

INSERT OR IGNORE INTO rate_limits (endpoint, max_requests, window_seconds, enabled)
VALUES ('POST /process-pdf', 60, 60, 0);
`

// Init creates the shield tables if they don't exist.
func Init(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
