package pipeline

import (
	"strings"

	"github.com/hazyhaar/docgate/convert"
)

// deriveMetadata merges engine-reported metadata with fallbacks. The title
// falls back to the first level-1 heading of the unfiltered body; author
// and date only ever come from the engine. Page count is reported only
// when the engine measured one.
func deriveMetadata(filename string, raw *convert.RawDocument) Metadata {
	m := Metadata{Filename: filename}

	title := strings.TrimSpace(raw.Meta.Title)
	if title == "" {
		title = firstH1(raw.Markdown)
	}
	if title != "" {
		m.Title = &title
	}
	if author := strings.TrimSpace(raw.Meta.Author); author != "" {
		m.Author = &author
	}
	if date := strings.TrimSpace(raw.Meta.Date); date != "" {
		m.Date = &date
	}
	if raw.Pages > 0 {
		pages := raw.Pages
		m.Pages = &pages
	}
	return m
}

// firstH1 returns the text of the first level-1 ATX heading, or "".
func firstH1(md string) string {
	for _, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			title := strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
			title = strings.TrimSpace(strings.TrimRight(title, "#"))
			if title != "" {
				return title
			}
		}
	}
	return ""
}
