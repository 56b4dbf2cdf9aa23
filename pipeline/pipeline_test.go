package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazyhaar/docgate/convert"
	"github.com/hazyhaar/docgate/envelope"
)

type fakeEngine struct {
	doc   *convert.RawDocument
	err   error
	calls int
}

func (f *fakeEngine) Convert(ctx context.Context, path, filename string) (*convert.RawDocument, error) {
	f.calls++
	return f.doc, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestPipeline(t *testing.T, engine convert.Engine) *Pipeline {
	t.Helper()
	return New(engine, Config{
		ScratchDir:     t.TempDir(),
		MaxUploadBytes: 1 << 20,
		Logger:         testLogger(),
	})
}

// reportDoc mimics a three-page converted report with a stamped footer.
func reportDoc() *convert.RawDocument {
	pages := []string{
		"# Summary\n\nRevenue grew strongly this quarter.\nHeadcount was flat.\n\nConfidential — Page 1",
		"## Details\n\nCosts were stable across regions.\nOne-off charges were minor.\n\nConfidential — Page 2",
		"Closing remarks and appendix pointers.\nNothing else of note.\n\nConfidential — Page 3",
	}
	return &convert.RawDocument{
		Markdown: strings.Join(pages, "\n"+convert.PageBreak+"\n"),
		Pages:    3,
	}
}

func TestProcess_FullChain(t *testing.T) {
	engine := &fakeEngine{doc: reportDoc()}
	p := newTestPipeline(t, engine)

	res, err := p.Process(context.Background(), "report.pdf", 100, strings.NewReader("%PDF-fake"))
	if err != nil {
		t.Fatal(err)
	}

	if res.Metadata.Filename != "report.pdf" {
		t.Errorf("filename: %q", res.Metadata.Filename)
	}
	if res.Metadata.Title == nil || *res.Metadata.Title != "Summary" {
		t.Errorf("title fallback: %+v", res.Metadata.Title)
	}
	if res.Metadata.Pages == nil || *res.Metadata.Pages != 3 {
		t.Errorf("pages: %+v", res.Metadata.Pages)
	}
	if res.Metadata.Author != nil {
		t.Errorf("author should be unknown: %q", *res.Metadata.Author)
	}
	if strings.Contains(res.Content, "Confidential") {
		t.Errorf("footer survived filtering:\n%s", res.Content)
	}
	if strings.Contains(res.Content, convert.PageBreak) {
		t.Error("page markers leaked into content")
	}

	if len(res.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %+v", res.Sections)
	}
	if res.Sections[0].Title != "Summary" || res.Sections[0].Level != 1 {
		t.Errorf("section 0: %+v", res.Sections[0])
	}
	if res.Sections[1].Title != "Details" || res.Sections[1].Level != 2 {
		t.Errorf("section 1: %+v", res.Sections[1])
	}
	if !strings.Contains(res.Sections[1].Content, "Closing remarks") {
		t.Errorf("section content cut short: %q", res.Sections[1].Content)
	}
}

func TestProcess_EngineMetadataWins(t *testing.T) {
	engine := &fakeEngine{doc: &convert.RawDocument{
		Markdown: "# Fallback Heading\n\nbody",
		Meta:     convert.Meta{Title: "Real Title", Author: "Jane", Date: "2024-01-15"},
	}}
	p := newTestPipeline(t, engine)

	res, err := p.Process(context.Background(), "doc.docx", 10, strings.NewReader("x"))
	if err != nil {
		t.Fatal(err)
	}
	if res.Metadata.Title == nil || *res.Metadata.Title != "Real Title" {
		t.Errorf("title: %+v", res.Metadata.Title)
	}
	if res.Metadata.Author == nil || *res.Metadata.Author != "Jane" {
		t.Errorf("author: %+v", res.Metadata.Author)
	}
	if res.Metadata.Pages != nil {
		t.Errorf("pages should be unknown, got %d", *res.Metadata.Pages)
	}
}

func TestProcess_ValidationSkipsEngine(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		size     int64
		want     envelope.ValidationReason
	}{
		{"unsupported", "archive.zip", 100, envelope.UnsupportedExtension},
		{"empty name", "", 100, envelope.EmptyFilename},
		{"zero size", "doc.pdf", 0, envelope.NoFileProvided},
		{"too large", "doc.pdf", 2 << 20, envelope.TooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{doc: reportDoc()}
			p := newTestPipeline(t, engine)

			_, err := p.Process(context.Background(), tt.filename, tt.size, strings.NewReader("x"))
			var verr *envelope.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Reason != tt.want {
				t.Errorf("reason: got %v, want %v", verr.Reason, tt.want)
			}
			if engine.calls != 0 {
				t.Errorf("engine invoked %d times on invalid upload", engine.calls)
			}
		})
	}
}

func TestProcess_LowQualityLogsOCRHint(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	engine := &fakeEngine{doc: &convert.RawDocument{
		Markdown: "sparse scanned page",
		Pages:    4,
		Quality: &convert.ExtractionQuality{
			PageCount:       4,
			CharsPerPage:    12,
			PrintableRatio:  0.6,
			HasImageStreams: true,
		},
	}}
	p := New(engine, Config{ScratchDir: t.TempDir(), MaxUploadBytes: 1 << 20, Logger: logger})

	if _, err := p.Process(context.Background(), "scan.pdf", 10, strings.NewReader("x")); err != nil {
		t.Fatal(err)
	}
	logs := buf.String()
	if !strings.Contains(logs, "extraction quality") {
		t.Errorf("quality metrics not logged:\n%s", logs)
	}
	if !strings.Contains(logs, "needs_ocr=true") {
		t.Errorf("OCR hint not logged for low-quality extraction:\n%s", logs)
	}

	// A clean extraction stays quiet.
	buf.Reset()
	engine.doc.Quality = &convert.ExtractionQuality{
		PageCount:      4,
		CharsPerPage:   1800,
		PrintableRatio: 0.99,
		WordlikeRatio:  0.95,
	}
	if _, err := p.Process(context.Background(), "scan.pdf", 10, strings.NewReader("x")); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "needs_ocr") {
		t.Errorf("OCR hint logged for clean extraction:\n%s", buf.String())
	}
}

func TestProcess_ConversionErrorPropagates(t *testing.T) {
	engine := &fakeEngine{err: convert.ErrCorrupt}
	p := newTestPipeline(t, engine)

	_, err := p.Process(context.Background(), "bad.pdf", 10, strings.NewReader("x"))
	var cerr *envelope.ConversionError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConversionError, got %v", err)
	}
	if cerr.Reason != envelope.CorruptInput {
		t.Errorf("reason: %v", cerr.Reason)
	}
}

func TestProcess_ScratchFileRemoved(t *testing.T) {
	scratch := t.TempDir()
	engine := &fakeEngine{doc: reportDoc()}
	p := New(engine, Config{ScratchDir: scratch, MaxUploadBytes: 1 << 20, Logger: testLogger()})

	if _, err := p.Process(context.Background(), "report.pdf", 10, strings.NewReader("x")); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(scratch)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("staged file left behind: %v", entries)
	}
}

func TestProcessPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.md")
	if err := os.WriteFile(path, []byte("# Notes\n\nSome content."), 0o644); err != nil {
		t.Fatal(err)
	}

	p := newTestPipeline(t, convert.NewBuiltin(testLogger()))
	res, err := p.ProcessPath(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if res.Metadata.Title == nil || *res.Metadata.Title != "Notes" {
		t.Errorf("title: %+v", res.Metadata.Title)
	}
	if len(res.Sections) != 1 || res.Sections[0].Title != "Notes" {
		t.Errorf("sections: %+v", res.Sections)
	}
}

func TestProcessPath_UnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := newTestPipeline(t, &fakeEngine{doc: reportDoc()})
	_, err := p.ProcessPath(context.Background(), path)
	var verr *envelope.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestMetadataJSONShape(t *testing.T) {
	// Unknown fields serialise as null, never omitted.
	m := Metadata{Filename: "a.pdf"}
	raw, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	data := string(raw)
	for _, key := range []string{`"filename"`, `"title"`, `"author"`, `"date"`, `"pages"`} {
		if !strings.Contains(data, key) {
			t.Errorf("missing key %s in %s", key, data)
		}
	}
	if !strings.Contains(data, `"title":null`) {
		t.Errorf("unknown title not null: %s", data)
	}
}
