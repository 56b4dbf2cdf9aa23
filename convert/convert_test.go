package convert

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/hazyhaar/docgate/envelope"
	"github.com/hazyhaar/docgate/upload"
)

type stubEngine struct {
	doc *RawDocument
	err error
}

func (s *stubEngine) Convert(ctx context.Context, path, filename string) (*RawDocument, error) {
	return s.doc, s.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestAdapter_Passthrough(t *testing.T) {
	want := &RawDocument{Markdown: "# Hello", Pages: 1}
	a := NewAdapter(&stubEngine{doc: want}, discard())

	got, err := a.Convert(context.Background(), "/tmp/x.md", "x.md")
	if err != nil {
		t.Fatal(err)
	}
	if got.Markdown != want.Markdown {
		t.Errorf("got %q", got.Markdown)
	}
}

func TestAdapter_EmptyOutputRejected(t *testing.T) {
	a := NewAdapter(&stubEngine{doc: &RawDocument{Markdown: "   \n "}}, discard())

	_, err := a.Convert(context.Background(), "/tmp/x.pdf", "x.pdf")
	var convErr *envelope.ConversionError
	if !errors.As(err, &convErr) {
		t.Fatalf("expected ConversionError, got %v", err)
	}
	if convErr.Reason != envelope.EngineRejected {
		t.Errorf("reason: got %v", convErr.Reason)
	}
}

func TestAdapter_ErrorClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want envelope.ConversionReason
	}{
		{"corrupt sentinel", ErrCorrupt, envelope.CorruptInput},
		{"rejected sentinel", ErrRejected, envelope.EngineRejected},
		{"wrapped corrupt", errors.Join(errors.New("outer"), ErrCorrupt), envelope.CorruptInput},
		{"deadline", context.DeadlineExceeded, envelope.Timeout},
		{"xref message", errors.New("pdfcpu: corrupt xref section"), envelope.CorruptInput},
		{"timeout message", errors.New("engine timeout after 30s"), envelope.Timeout},
		{"unknown", errors.New("boom"), envelope.Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAdapter(&stubEngine{err: tt.err}, discard())
			_, err := a.Convert(context.Background(), "/tmp/x.pdf", "x.pdf")
			var convErr *envelope.ConversionError
			if !errors.As(err, &convErr) {
				t.Fatalf("expected ConversionError, got %v", err)
			}
			if convErr.Reason != tt.want {
				t.Errorf("reason: got %v, want %v", convErr.Reason, tt.want)
			}
		})
	}
}

type panicEngine struct{}

func (panicEngine) Convert(ctx context.Context, path, filename string) (*RawDocument, error) {
	panic("engine exploded")
}

func TestAdapter_RecoversPanic(t *testing.T) {
	a := NewAdapter(panicEngine{}, discard())

	_, err := a.Convert(context.Background(), "/tmp/x.pdf", "x.pdf")
	var convErr *envelope.ConversionError
	if !errors.As(err, &convErr) {
		t.Fatalf("expected ConversionError, got %v", err)
	}
	if convErr.Reason != envelope.Unknown {
		t.Errorf("reason: got %v", convErr.Reason)
	}
}

func TestBuiltin_UnsupportedExtension(t *testing.T) {
	b := NewBuiltin(discard())
	_, err := b.Convert(context.Background(), "/tmp/archive.zip", "archive.zip")
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
}

func TestBuiltin_Formats(t *testing.T) {
	formats := Formats()
	for _, want := range []string{"pdf", "docx", "html", "txt", "md"} {
		found := false
		for _, f := range formats {
			if f == want {
				found = true
			}
		}
		if !found {
			t.Errorf("missing format %q", want)
		}
	}
}

func TestBuiltin_DispatchMatchesAllowList(t *testing.T) {
	// Every accepted extension must reach a parser, and the engine must
	// not claim formats the validator never lets through.
	if got, want := Formats(), upload.AllowedExtensions(); !slices.Equal(got, want) {
		t.Fatalf("Formats() = %v, validator accepts %v", got, want)
	}

	b := NewBuiltin(discard())
	dir := t.TempDir()
	for _, ext := range Formats() {
		path := filepath.Join(dir, "sample."+ext)
		if err := os.WriteFile(path, []byte("not a real document"), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := b.Convert(context.Background(), path, "sample."+ext)
		if err != nil && strings.Contains(err.Error(), "no parser") {
			t.Errorf("%s: accepted extension has no parser: %v", ext, err)
		}
	}
}

func TestExtractText_PreservesLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("line one\r\nline two\r\n\r\nline three\n"), 0644); err != nil {
		t.Fatal(err)
	}

	doc, err := extractText(path)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Markdown != "line one\nline two\n\nline three" {
		t.Errorf("got %q", doc.Markdown)
	}
}

func TestExtractText_Empty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blank.txt")
	if err := os.WriteFile(path, []byte("   \n\t\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := extractText(path)
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
}

func TestExtractHTML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.html")
	html := `<html><head><title>Release Notes</title><style>body{}</style></head>
<body><nav>skip me</nav><h1>Changes</h1><p>Bug fixes and <b>improvements</b>.</p>
<div style="display:none">hidden tracker text</div></body></html>`
	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		t.Fatal(err)
	}

	b := NewBuiltin(discard())
	doc, err := b.Convert(context.Background(), path, "page.html")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Meta.Title != "Release Notes" {
		t.Errorf("title: got %q", doc.Meta.Title)
	}
	if !strings.Contains(doc.Markdown, "# Changes") {
		t.Errorf("expected markdown heading, got:\n%s", doc.Markdown)
	}
	if !strings.Contains(doc.Markdown, "Bug fixes") {
		t.Errorf("body text missing:\n%s", doc.Markdown)
	}
	if strings.Contains(doc.Markdown, "hidden tracker") {
		t.Errorf("hidden text leaked:\n%s", doc.Markdown)
	}
	if strings.Contains(doc.Markdown, "skip me") {
		t.Errorf("nav boilerplate leaked:\n%s", doc.Markdown)
	}
}

func TestExtractMarkdownFile_Passthrough(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "readme.md")
	src := "# Title\n\nSome **bold** text.\n"
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}

	doc, err := extractMarkdownFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Markdown != "# Title\n\nSome **bold** text." {
		t.Errorf("got %q", doc.Markdown)
	}
}
