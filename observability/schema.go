// Package observability provides SQLite-native monitoring for docgate:
// a processing event log and a batched metrics timeseries, both written
// to a shared observability database kept separate from any application
// data (docgate itself persists no documents).
//
// All persistence is async and non-blocking: a failing observability
// store never blocks or fails a document request.
package observability

import "database/sql"

// Schema contains the complete DDL for the observability tables.
const Schema = `
-- Processing Events
CREATE TABLE IF NOT EXISTS processing_events (
    event_id TEXT PRIMARY KEY,
    event_type TEXT NOT NULL,
    filename TEXT,
    outcome TEXT NOT NULL,
    http_status INTEGER,
    duration_ms INTEGER,
    detail TEXT,
    created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_processing_events_type
    ON processing_events(event_type, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_processing_events_outcome
    ON processing_events(outcome, created_at DESC);

-- Metrics Timeseries
CREATE TABLE IF NOT EXISTS metrics_timeseries (
    metric_id TEXT PRIMARY KEY DEFAULT ('met_' || hex(randomblob(16))),
    metric_name TEXT NOT NULL,
    timestamp INTEGER NOT NULL,
    value REAL NOT NULL,
    labels TEXT,
    unit TEXT,
    created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_metrics_name_time
    ON metrics_timeseries(metric_name, timestamp DESC);
`

// Init applies the observability schema to the given database.
func Init(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
