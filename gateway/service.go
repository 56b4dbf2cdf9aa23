// Package gateway exposes the document processing pipeline over HTTP with a
// uniform JSON response envelope.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/docgate/envelope"
	"github.com/hazyhaar/docgate/observability"
	"github.com/hazyhaar/docgate/pipeline"
)

// Service wires the pipeline to HTTP handlers.
type Service struct {
	cfg     *Config
	pipe    *pipeline.Pipeline
	logger  *slog.Logger
	events  *observability.EventLogger
	metrics *observability.MetricsManager
}

// New creates the HTTP service. events and metrics may be nil; the service
// then runs without persistence of either.
func New(cfg *Config, pipe *pipeline.Pipeline, logger *slog.Logger, events *observability.EventLogger, metrics *observability.MetricsManager) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:     cfg,
		pipe:    pipe,
		logger:  logger,
		events:  events,
		metrics: metrics,
	}
}

// Routes returns the service router.
func (s *Service) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/process-pdf", s.handleProcess)
	r.Get("/health", s.handleHealth)
	return r
}

func (s *Service) handleProcess(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	file, hdr, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			err = envelope.Validation(envelope.TooLarge, "")
		default:
			err = envelope.Validation(envelope.NoFileProvided, "")
		}
		s.writeFailure(w, r, "", err, start)
		return
	}
	defer file.Close()

	res, err := s.pipe.Process(r.Context(), hdr.Filename, hdr.Size, file)
	if err != nil {
		s.writeFailure(w, r, hdr.Filename, err, start)
		return
	}

	envelope.WriteJSON(w, http.StatusOK, envelope.Success(res, "Successfully processed document: "+hdr.Filename))
	s.record(r, observability.Event{
		Type:       "document_processed",
		Filename:   hdr.Filename,
		Outcome:    "success",
		HTTPStatus: http.StatusOK,
		DurationMs: time.Since(start).Milliseconds(),
	})
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	envelope.WriteJSON(w, http.StatusOK, envelope.Success(map[string]string{"status": "ok"}, "Service is healthy"))
}

func (s *Service) writeFailure(w http.ResponseWriter, r *http.Request, filename string, err error, start time.Time) {
	status, _ := envelope.Classify(err)
	envelope.WriteError(w, err)

	outcome := "fault"
	var verr *envelope.ValidationError
	var cerr *envelope.ConversionError
	switch {
	case errors.As(err, &verr):
		outcome = "validation_error"
	case errors.As(err, &cerr):
		outcome = "conversion_error"
	}

	s.logger.Warn("document rejected",
		"filename", filename,
		"outcome", outcome,
		"status", status,
		"error", err)

	s.record(r, observability.Event{
		Type:       "document_rejected",
		Filename:   filename,
		Outcome:    outcome,
		HTTPStatus: status,
		DurationMs: time.Since(start).Milliseconds(),
	})
}

// record persists the event and duration metric off the request path.
func (s *Service) record(r *http.Request, event observability.Event) {
	if s.metrics != nil {
		s.metrics.RecordDuration("process_duration_ms", time.Duration(event.DurationMs)*time.Millisecond, map[string]string{
			"outcome": event.Outcome,
		})
	}
	if s.events == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.events.Log(ctx, event)
	}()
}
