// Package convert turns raw document files into a normalized RawDocument:
// a Markdown body with page markers, engine-reported metadata, and (for
// PDF) extraction quality metrics.
//
// The conversion engine is a capability interface so any concrete engine
// can be substituted behind the Adapter; the built-in engine supports
// pdf, docx, pptx, xlsx, their legacy binary variants, html, txt and md
// with pure-Go parsers.
package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hazyhaar/docgate/envelope"
)

// PageBreak separates page-like segments in RawDocument.Markdown.
// Downstream noise filtering uses it to infer page boundaries.
const PageBreak = "\f"

// Meta holds engine-reported document metadata. Empty string means the
// engine did not report the field.
type Meta struct {
	Title  string
	Author string
	Date   string
}

// RawDocument is the opaque structured output of a conversion engine,
// prior to noise filtering or segmentation.
type RawDocument struct {
	Markdown string
	Pages    int // engine-reported page count, 0 = unknown
	Meta     Meta
	Quality  *ExtractionQuality // PDF extraction quality, nil otherwise
}

// Engine converts a staged file into a RawDocument.
type Engine interface {
	Convert(ctx context.Context, path, filename string) (*RawDocument, error)
}

// Sentinel errors for engine implementations. The Adapter maps them onto
// the envelope error taxonomy.
var (
	// ErrCorrupt indicates input the engine recognized but could not decode.
	ErrCorrupt = errors.New("convert: corrupt input")
	// ErrRejected indicates input the engine cannot handle at all.
	ErrRejected = errors.New("convert: engine rejected input")
)

// Adapter wraps an Engine and normalizes every failure it surfaces into a
// ConversionError. Engine panics are recovered; nothing raw escapes to the
// caller. Invocation is blocking and performed exactly once per call — no
// retry.
type Adapter struct {
	engine Engine
	logger *slog.Logger
}

// NewAdapter creates an Adapter around engine.
func NewAdapter(engine Engine, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{engine: engine, logger: logger}
}

// Convert invokes the engine and returns a RawDocument or a classified
// ConversionError.
func (a *Adapter) Convert(ctx context.Context, path, filename string) (doc *RawDocument, err error) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("conversion engine panic", "filename", filename, "panic", r)
			doc = nil
			err = envelope.Conversion(envelope.Unknown, fmt.Errorf("engine panic: %v", r))
		}
	}()

	doc, cerr := a.engine.Convert(ctx, path, filename)
	if cerr != nil {
		reason := classifyEngineError(ctx, cerr)
		a.logger.Warn("conversion failed", "filename", filename, "reason", reason, "error", cerr)
		return nil, envelope.Conversion(reason, cerr)
	}
	if doc == nil || strings.TrimSpace(doc.Markdown) == "" {
		return nil, envelope.Conversion(envelope.EngineRejected,
			fmt.Errorf("engine produced no content for %s", filename))
	}
	return doc, nil
}

// classifyEngineError maps an engine failure to a ConversionReason.
// Sentinels win; string heuristics cover foreign engines that don't wrap
// our sentinels.
func classifyEngineError(ctx context.Context, err error) envelope.ConversionReason {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return envelope.Timeout
	}
	if errors.Is(err, ErrCorrupt) {
		return envelope.CorruptInput
	}
	if errors.Is(err, ErrRejected) {
		return envelope.EngineRejected
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return envelope.Timeout
	case strings.Contains(msg, "corrupt") || strings.Contains(msg, "malformed") ||
		strings.Contains(msg, "xref") || strings.Contains(msg, "unexpected eof") ||
		strings.Contains(msg, "not a valid zip"):
		return envelope.CorruptInput
	case strings.Contains(msg, "unsupported") || strings.Contains(msg, "rejected"):
		return envelope.EngineRejected
	}
	return envelope.Unknown
}
