// Package upload validates incoming files and stages them on disk for
// conversion.
package upload

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hazyhaar/docgate/envelope"
	"github.com/hazyhaar/docgate/idgen"
	"github.com/hazyhaar/docgate/safefile"
)

// allowedExtensions are the formats the conversion engine accepts, without
// dots, lowercase.
var allowedExtensions = map[string]bool{
	"pdf":  true,
	"docx": true,
	"doc":  true,
	"pptx": true,
	"ppt":  true,
	"xlsx": true,
	"xls":  true,
	"html": true,
	"htm":  true,
	"txt":  true,
	"md":   true,
}

// stageID suffixes staged filenames so concurrent uploads of the same
// document never collide.
var stageID = idgen.NanoID(8)

// AllowedExtensions returns the accepted extensions in stable order.
func AllowedExtensions() []string {
	return []string{"pdf", "docx", "doc", "pptx", "ppt", "xlsx", "xls", "html", "htm", "txt", "md"}
}

// Validate checks an upload's declared name and size before any bytes are
// read. size < 0 means the size is not yet known and is checked later
// during staging.
func Validate(filename string, size int64, maxBytes int64) error {
	if size == 0 {
		return envelope.Validation(envelope.NoFileProvided, "")
	}
	if filename == "" {
		return envelope.Validation(envelope.EmptyFilename, "")
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" || !allowedExtensions[ext] {
		return envelope.Validation(envelope.UnsupportedExtension, "."+ext)
	}
	if maxBytes > 0 && size > maxBytes {
		return envelope.Validation(envelope.TooLarge, "")
	}
	return nil
}

// Stage copies an upload to a scratch file and returns its path plus a
// cleanup func that removes it. The copy re-checks the size ceiling so a
// lying Content-Length cannot bypass Validate.
func Stage(dir, filename string, r io.Reader, maxBytes int64) (string, func(), error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", nil, fmt.Errorf("create scratch dir: %w", err)
	}

	name := fmt.Sprintf("upload-%s-%s", stageID(), safefile.CleanName(filename))
	path, err := safefile.SafePath(dir, name)
	if err != nil {
		return "", nil, err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", nil, fmt.Errorf("create scratch file: %w", err)
	}

	cleanup := func() { os.Remove(path) }

	limit := io.Reader(r)
	if maxBytes > 0 {
		limit = io.LimitReader(r, maxBytes+1)
	}
	n, err := io.Copy(f, limit)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("stage upload: %w", err)
	}
	if maxBytes > 0 && n > maxBytes {
		cleanup()
		return "", nil, envelope.Validation(envelope.TooLarge, "")
	}
	if n == 0 {
		cleanup()
		return "", nil, envelope.Validation(envelope.NoFileProvided, "")
	}

	return path, cleanup, nil
}
