// Package safefile provides filesystem safety primitives for handling
// user-supplied filenames: name sanitization, path traversal guards, and
// bounded I/O helpers.
package safefile

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ErrPathTraversal is returned when a user-supplied path escapes its base.
var ErrPathTraversal = errors.New("safefile: path traversal detected")

// MaxNameLen caps sanitized filename length.
const MaxNameLen = 128

// CleanName reduces a user-declared filename to a safe basename: path
// components stripped, unsafe runes replaced with underscores, length
// capped. The extension is preserved. Returns "" when nothing usable
// remains.
func CleanName(name string) string {
	// Strip any path components, including Windows-style separators.
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	if name == "." || name == "/" {
		return ""
	}

	var sb strings.Builder
	for _, r := range name {
		if isNameChar(r) {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}
	cleaned := strings.Trim(sb.String(), "._")
	if cleaned == "" {
		return ""
	}
	if len(cleaned) > MaxNameLen {
		ext := filepath.Ext(cleaned)
		if len(ext) > 16 {
			ext = ""
		}
		cleaned = cleaned[:MaxNameLen-len(ext)] + ext
	}
	return cleaned
}

// SafePath validates that joining base and userInput does not escape base.
// Returns the cleaned joined path or ErrPathTraversal.
func SafePath(base, userInput string) (string, error) {
	if strings.Contains(userInput, "..") {
		return "", ErrPathTraversal
	}
	cleaned := filepath.Join(base, filepath.Clean("/"+userInput))
	if !strings.HasPrefix(cleaned, filepath.Clean(base)+string(filepath.Separator)) &&
		cleaned != filepath.Clean(base) {
		return "", ErrPathTraversal
	}
	return cleaned, nil
}

// LimitedReadAll reads at most maxBytes from r. Returns an error if the
// limit is exceeded.
func LimitedReadAll(r io.Reader, maxBytes int64) ([]byte, error) {
	lr := io.LimitReader(r, maxBytes+1)
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("safefile: input exceeds %d bytes", maxBytes)
	}
	return data, nil
}

func isNameChar(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') || r == '_' || r == '-' || r == '.'
}
