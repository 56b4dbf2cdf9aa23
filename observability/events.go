package observability

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/hazyhaar/docgate/dbopen"
	"github.com/hazyhaar/docgate/idgen"
)

// Event represents one processing outcome to record. No document content
// ever goes through here — only the declared filename, the outcome class
// and timing.
type Event struct {
	Type       string // e.g. "document_processed", "document_rejected"
	Filename   string
	Outcome    string // "success", "validation_error", "conversion_error", "fault"
	HTTPStatus int
	DurationMs int64
	Detail     map[string]any // optional, marshalled to JSON
}

// EventLogger writes processing events to the observability database.
type EventLogger struct {
	db    *sql.DB
	newID idgen.Generator
}

// EventLoggerOption configures an EventLogger.
type EventLoggerOption func(*EventLogger)

// WithEventIDGenerator sets a custom ID generator for event IDs.
func WithEventIDGenerator(gen idgen.Generator) EventLoggerOption {
	return func(l *EventLogger) { l.newID = gen }
}

// NewEventLogger creates a logger backed by the given observability database.
func NewEventLogger(db *sql.DB, opts ...EventLoggerOption) *EventLogger {
	l := &EventLogger{
		db:    db,
		newID: idgen.Prefixed("evt_", idgen.Default),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Log records a processing event. Non-blocking contract: errors are logged
// via slog but never propagate, so a failing observability store cannot
// fail a document request.
func (l *EventLogger) Log(ctx context.Context, event Event) {
	eventID := l.newID()
	var detail sql.NullString
	if len(event.Detail) > 0 {
		if b, err := json.Marshal(event.Detail); err == nil {
			detail = sql.NullString{String: string(b), Valid: true}
		}
	}
	_, err := dbopen.Exec(ctx, l.db, `
		INSERT INTO processing_events (
			event_id, event_type, filename, outcome, http_status, duration_ms, detail
		) VALUES (?,?,?,?,?,?,?)`,
		eventID, event.Type, event.Filename, event.Outcome,
		event.HTTPStatus, event.DurationMs, detail,
	)
	if err != nil {
		slog.Error("observability: log event", "error", err, "event_type", event.Type)
	}
}

// Recent returns the latest events of the given type, newest first.
// Pass empty eventType for all types.
func (l *EventLogger) Recent(ctx context.Context, eventType string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT event_type, filename, outcome, http_status, duration_ms, detail
	      FROM processing_events`
	args := []any{}
	if eventType != "" {
		q += ` WHERE event_type = ?`
		args = append(args, eventType)
	}
	q += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var filename, detail sql.NullString
		if err := rows.Scan(&e.Type, &filename, &e.Outcome, &e.HTTPStatus, &e.DurationMs, &detail); err != nil {
			return nil, err
		}
		e.Filename = filename.String
		if detail.Valid {
			var m map[string]any
			if json.Unmarshal([]byte(detail.String), &m) == nil {
				e.Detail = m
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
