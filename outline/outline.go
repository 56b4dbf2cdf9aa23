// Package outline derives a flat section structure from Markdown using its
// ATX headings.
package outline

import (
	"regexp"
	"strings"
)

// Section is one heading-delimited slice of a document. Content runs until
// the next heading of any level.
type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Level   int    `json:"level"`
}

var headingRe = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)

// Split breaks Markdown into sections in document order. Text before the
// first heading becomes an untitled level-0 section when it is non-blank.
// Headings inside fenced code blocks are ignored. A document without
// headings yields no sections.
func Split(md string) []Section {
	lines := strings.Split(md, "\n")

	sections := []Section{}
	var current *Section
	var front strings.Builder
	var body strings.Builder
	inFence := false
	sawHeading := false

	flush := func() {
		if current == nil {
			return
		}
		current.Content = strings.TrimSpace(body.String())
		sections = append(sections, *current)
		current = nil
		body.Reset()
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
		}

		if !inFence {
			if m := headingRe.FindStringSubmatch(line); m != nil {
				flush()
				sawHeading = true
				title := strings.TrimSpace(m[2])
				title = strings.TrimRight(title, "#")
				title = strings.TrimSpace(title)
				current = &Section{Title: title, Level: len(m[1])}
				continue
			}
		}

		if current != nil {
			body.WriteString(line)
			body.WriteByte('\n')
		} else {
			front.WriteString(line)
			front.WriteByte('\n')
		}
	}
	flush()

	if !sawHeading {
		return []Section{}
	}

	if frontMatter := strings.TrimSpace(front.String()); frontMatter != "" {
		sections = append([]Section{{Title: "", Content: frontMatter, Level: 0}}, sections...)
	}

	return sections
}
