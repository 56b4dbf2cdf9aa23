// Package pipeline runs a document through the full processing chain:
// validation, staging, conversion to Markdown, metadata derivation, noise
// filtering, and sectioning.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hazyhaar/docgate/convert"
	"github.com/hazyhaar/docgate/outline"
	"github.com/hazyhaar/docgate/scrub"
	"github.com/hazyhaar/docgate/upload"
)

// Config holds pipeline settings.
type Config struct {
	// ScratchDir is where uploads are staged during conversion.
	ScratchDir string
	// MaxUploadBytes caps accepted upload size. Zero disables the cap.
	MaxUploadBytes int64
	// Scrub tunes the noise filter.
	Scrub scrub.Config
	Logger *slog.Logger
}

// Metadata describes the processed document. Pointer fields are null in
// JSON when the source document did not carry the value; the keys are
// always present.
type Metadata struct {
	Filename string  `json:"filename"`
	Title    *string `json:"title"`
	Author   *string `json:"author"`
	Date     *string `json:"date"`
	Pages    *int    `json:"pages"`
}

// Result is the full processing output for one document.
type Result struct {
	Metadata Metadata          `json:"metadata"`
	Content  string            `json:"content"`
	Sections []outline.Section `json:"sections"`
}

// Pipeline converts uploads into structured Markdown results.
type Pipeline struct {
	adapter *convert.Adapter
	cfg     Config
	logger  *slog.Logger
}

// New builds a Pipeline around a conversion engine.
func New(engine convert.Engine, cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ScratchDir == "" {
		cfg.ScratchDir = os.TempDir()
	}
	return &Pipeline{
		adapter: convert.NewAdapter(engine, logger),
		cfg:     cfg,
		logger:  logger,
	}
}

// Process validates and stages an upload, then runs the processing chain.
// The staged file is always removed before returning.
func (p *Pipeline) Process(ctx context.Context, filename string, size int64, r io.Reader) (*Result, error) {
	if err := upload.Validate(filename, size, p.cfg.MaxUploadBytes); err != nil {
		return nil, err
	}

	path, cleanup, err := upload.Stage(p.cfg.ScratchDir, filename, r, p.cfg.MaxUploadBytes)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	return p.run(ctx, path, filename)
}

// ProcessPath runs the processing chain on a file already on disk. Used by
// the MCP transport, where the caller owns the file.
func (p *Pipeline) ProcessPath(ctx context.Context, path string) (*Result, error) {
	filename := filepath.Base(path)
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if err := upload.Validate(filename, info.Size(), p.cfg.MaxUploadBytes); err != nil {
		return nil, err
	}
	return p.run(ctx, path, filename)
}

func (p *Pipeline) run(ctx context.Context, path, filename string) (*Result, error) {
	raw, err := p.adapter.Convert(ctx, path, filename)
	if err != nil {
		return nil, err
	}

	meta := deriveMetadata(filename, raw)
	p.reportQuality(filename, raw.Quality)
	content := scrub.Clean(raw.Markdown, p.cfg.Scrub)
	sections := outline.Split(content)

	p.logger.Info("document processed",
		"filename", filename,
		"pages", raw.Pages,
		"content_bytes", len(content),
		"sections", len(sections))

	return &Result{
		Metadata: meta,
		Content:  content,
		Sections: sections,
	}, nil
}

// reportQuality logs extraction quality metrics when the engine provides
// them, with a warning when the document likely needs OCR.
func (p *Pipeline) reportQuality(filename string, q *convert.ExtractionQuality) {
	if q == nil {
		return
	}
	p.logger.Info("extraction quality",
		"filename", filename,
		"chars_per_page", q.CharsPerPage,
		"printable_ratio", q.PrintableRatio,
		"wordlike_ratio", q.WordlikeRatio,
		"image_streams", q.HasImageStreams)
	if q.NeedsOCR() {
		p.logger.Warn("low extraction quality, document likely needs OCR",
			"filename", filename,
			"needs_ocr", true,
			"chars_per_page", q.CharsPerPage,
			"printable_ratio", q.PrintableRatio)
	}
	if q.HasVisualGap() {
		p.logger.Warn("text references visuals the extraction cannot carry",
			"filename", filename,
			"visual_refs", q.VisualRefCount)
	}
}
