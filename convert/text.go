package convert

import (
	"fmt"
	"os"
	"strings"
)

// extractText reads a plain text file. Line structure is preserved so that
// downstream filtering and sectioning see the original layout; CRLF line
// endings are normalised and form feeds are kept as page markers.
func extractText(path string) (*RawDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimRight(text, " \t\n")
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty text file", ErrRejected)
	}
	return &RawDocument{Markdown: text}, nil
}

// extractMarkdownFile reads a Markdown file as-is, apart from line ending
// normalisation. Headings and structure are interpreted downstream.
func extractMarkdownFile(path string) (*RawDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.TrimRight(text, " \t\n")
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty markdown file", ErrRejected)
	}
	return &RawDocument{Markdown: text}, nil
}
