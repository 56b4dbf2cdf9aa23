package upload

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazyhaar/docgate/envelope"
)

func validationReason(t *testing.T, err error) envelope.ValidationReason {
	t.Helper()
	var verr *envelope.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	return verr.Reason
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		size     int64
		max      int64
		want     envelope.ValidationReason
		ok       bool
	}{
		{"pdf ok", "report.pdf", 1000, 1 << 20, "", true},
		{"uppercase ext ok", "SLIDES.PPTX", 1000, 1 << 20, "", true},
		{"zero size", "report.pdf", 0, 1 << 20, envelope.NoFileProvided, false},
		{"empty filename", "", 1000, 1 << 20, envelope.EmptyFilename, false},
		{"no extension", "README", 1000, 1 << 20, envelope.UnsupportedExtension, false},
		{"bad extension", "archive.zip", 1000, 1 << 20, envelope.UnsupportedExtension, false},
		{"too large", "report.pdf", 2 << 20, 1 << 20, envelope.TooLarge, false},
		{"unknown size passes", "report.pdf", -1, 1 << 20, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.filename, tt.size, tt.max)
			if tt.ok {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if got := validationReason(t, err); got != tt.want {
				t.Errorf("reason: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidate_UnsupportedDetail(t *testing.T) {
	err := Validate("archive.zip", 100, 1<<20)
	var verr *envelope.ValidationError
	if !errors.As(err, &verr) {
		t.Fatal(err)
	}
	if verr.Detail != ".zip" {
		t.Errorf("detail: got %q", verr.Detail)
	}
}

func TestStage_WritesAndCleansUp(t *testing.T) {
	dir := t.TempDir()
	path, cleanup, err := Stage(dir, "notes.txt", strings.NewReader("hello world"), 1<<20)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("staged outside scratch dir: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello world" {
		t.Errorf("content: %q", data)
	}

	cleanup()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("cleanup left the staged file behind")
	}
}

func TestStage_SanitisesFilename(t *testing.T) {
	dir := t.TempDir()
	path, cleanup, err := Stage(dir, "../../etc/passwd", strings.NewReader("x"), 0)
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()
	if strings.Contains(path, "..") {
		t.Errorf("traversal survived: %s", path)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("escaped scratch dir: %s", path)
	}
}

func TestStage_EnforcesCeiling(t *testing.T) {
	dir := t.TempDir()
	_, _, err := Stage(dir, "big.txt", strings.NewReader(strings.Repeat("a", 100)), 50)
	if got := validationReason(t, err); got != envelope.TooLarge {
		t.Errorf("reason: got %v", got)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Error("oversized staged file not removed")
	}
}

func TestStage_EmptyBody(t *testing.T) {
	dir := t.TempDir()
	_, _, err := Stage(dir, "empty.txt", strings.NewReader(""), 1<<20)
	if got := validationReason(t, err); got != envelope.NoFileProvided {
		t.Errorf("reason: got %v", got)
	}
}

func TestAllowedExtensions(t *testing.T) {
	exts := AllowedExtensions()
	if len(exts) != len(allowedExtensions) {
		t.Fatalf("list and set disagree: %d vs %d", len(exts), len(allowedExtensions))
	}
	for _, e := range exts {
		if !allowedExtensions[e] {
			t.Errorf("listed extension %q not in set", e)
		}
	}
}
