package convert

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
)

// Builtin is the built-in pure-Go conversion engine.
type Builtin struct {
	logger   *slog.Logger
	md       *converter.Converter
	sanitize *bluemonday.Policy
}

// NewBuiltin creates the built-in engine.
func NewBuiltin(logger *slog.Logger) *Builtin {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builtin{
		logger: logger,
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
		sanitize: bluemonday.UGCPolicy(),
	}
}

// Formats returns the extensions the built-in engine accepts, without dots.
func Formats() []string {
	return []string{"pdf", "docx", "doc", "pptx", "ppt", "xlsx", "xls", "html", "htm", "txt", "md"}
}

// Convert dispatches to the format-specific extractor based on the declared
// filename's extension.
func (b *Builtin) Convert(ctx context.Context, path, filename string) (*RawDocument, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(path))
	}

	b.logger.Debug("converting document", "filename", filename, "format", ext)

	switch ext {
	case ".pdf":
		return extractPDF(path)
	case ".docx":
		return extractDocx(path)
	case ".pptx":
		return extractPptx(path)
	case ".xlsx":
		return extractXlsx(path)
	case ".doc", ".ppt", ".xls":
		return extractLegacy(path)
	case ".html", ".htm":
		return b.extractHTML(path)
	case ".txt":
		return extractText(path)
	case ".md":
		return extractMarkdownFile(path)
	default:
		return nil, fmt.Errorf("%w: no parser for %q", ErrRejected, ext)
	}
}
