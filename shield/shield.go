// Package shield provides reusable HTTP middleware for the docgate service:
// security headers, request body limits, per-request tracing, SQLite-backed
// rate limiting, and HEAD method handling.
//
// Usage:
//
//	r := chi.NewRouter()
//	r.Use(shield.SecurityHeaders(shield.DefaultHeaders()))
//	r.Use(shield.MaxUploadBody(maxBytes))
//	r.Use(shield.TraceID)
//	r.Use(shield.NewRateLimiter(db, "/health").Middleware)
//
// Or apply the default stack in one call:
//
//	for _, mw := range shield.DefaultStack(db, maxBytes, ctx.Done()) {
//	    r.Use(mw)
//	}
package shield

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
)

type contextKey string

// LoggerKey is the context key for the per-request structured logger.
const LoggerKey contextKey = "shield_logger"

// GetLogger retrieves the per-request logger from the context.
// Returns slog.Default() if no logger was set.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(LoggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// DefaultStack returns the standard middleware stack for the docgate
// service, ordered: HeadToGet → SecurityHeaders → MaxUploadBody → TraceID →
// RateLimiter. Health checks (/health) bypass rate limiting. Pass db == nil
// to skip rate limiting entirely. The rate limiter refreshes its rules from
// the database until done is closed, so rule edits take effect without a
// restart; pass nil to disable refresh.
func DefaultStack(db *sql.DB, maxUploadBytes int64, done <-chan struct{}) []func(http.Handler) http.Handler {
	stack := []func(http.Handler) http.Handler{
		HeadToGet,
		SecurityHeaders(DefaultHeaders()),
		MaxUploadBody(maxUploadBytes),
		TraceID,
	}
	if db != nil {
		rl := NewRateLimiter(db, "/health")
		if done != nil {
			rl.StartReloader(done)
		}
		stack = append(stack, rl.Middleware)
	}
	return stack
}
