// Package scrub removes repeated page furniture from converted Markdown:
// running headers and footers, page numbers, and watermark lines that the
// source format stamped on every page.
package scrub

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/hazyhaar/docgate/convert"
)

// Config tunes the noise filter. Zero values take the defaults.
type Config struct {
	// RecurrenceRatio is the fraction of page segments a line must appear
	// in before it counts as boilerplate.
	RecurrenceRatio float64 `yaml:"recurrence_ratio"`
	// MinSegments is the minimum number of page segments required before
	// any recurrence-based filtering happens.
	MinSegments int `yaml:"min_segments"`
	// WatermarkMaxLen is the maximum rune length of a line considered for
	// the watermark pass.
	WatermarkMaxLen int `yaml:"watermark_max_len"`
	// MaxRemovalRatio caps how much of the document the filter may drop.
	// Above the cap filtering is skipped entirely.
	MaxRemovalRatio float64 `yaml:"max_removal_ratio"`
}

// DefaultConfig returns the tunables used in production.
func DefaultConfig() Config {
	return Config{
		RecurrenceRatio: 0.5,
		MinSegments:     3,
		WatermarkMaxLen: 60,
		MaxRemovalRatio: 0.4,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.RecurrenceRatio <= 0 {
		c.RecurrenceRatio = d.RecurrenceRatio
	}
	if c.MinSegments <= 0 {
		c.MinSegments = d.MinSegments
	}
	if c.WatermarkMaxLen <= 0 {
		c.WatermarkMaxLen = d.WatermarkMaxLen
	}
	if c.MaxRemovalRatio <= 0 {
		c.MaxRemovalRatio = d.MaxRemovalRatio
	}
	return c
}

var blankRunRe = regexp.MustCompile(`\n{3,}`)

// Clean removes recurring boilerplate and watermark lines from Markdown.
// Page markers are consumed in the process; the result contains none and
// running Clean on its own output is a no-op.
func Clean(md string, cfg Config) string {
	cfg = cfg.withDefaults()

	segments := splitSegments(md)

	remove := map[string]bool{}
	if len(segments) >= cfg.MinSegments {
		collectBoilerplate(segments, cfg, remove)
		collectWatermarks(segments, cfg, remove)
	}

	if len(remove) > 0 && removalTooLarge(md, cfg, remove) {
		remove = nil
	}

	var out []string
	for _, line := range strings.Split(md, "\n") {
		clean := strings.ReplaceAll(line, convert.PageBreak, "")
		if clean != line && strings.TrimSpace(clean) == "" {
			// Line held only a page marker.
			continue
		}
		if remove[lineKey(clean)] || remove[maskDigits(lineKey(clean))] {
			continue
		}
		out = append(out, strings.TrimRight(clean, " \t"))
	}

	result := strings.Join(out, "\n")
	result = blankRunRe.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}

// splitSegments divides Markdown into page-like segments: on form feed
// markers when present, otherwise on runs of three or more blank lines.
func splitSegments(md string) []string {
	var parts []string
	if strings.Contains(md, convert.PageBreak) {
		parts = strings.Split(md, convert.PageBreak)
	} else {
		parts = blankRunRe.Split(md, -1)
	}
	segments := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

// collectBoilerplate finds lines recurring verbatim across a majority of
// segments, such as running headers and footers.
func collectBoilerplate(segments []string, cfg Config, remove map[string]bool) {
	counts := map[string]int{}
	for _, seg := range segments {
		seen := map[string]bool{}
		for _, line := range strings.Split(seg, "\n") {
			key := lineKey(line)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			counts[key]++
		}
	}
	threshold := int(cfg.RecurrenceRatio * float64(len(segments)))
	for key, n := range counts {
		if n > threshold {
			remove[key] = true
		}
	}
}

// Vocabulary typical of stamped watermarks and page furniture.
var watermarkWordRe = regexp.MustCompile(`(?i)\b(confidential|draft|internal|proprietary|copyright|all rights reserved|do not distribute|page)\b|©`)

// collectWatermarks finds short stamped lines whose only variation between
// segments is a number, such as "Confidential — Page 3".
func collectWatermarks(segments []string, cfg Config, remove map[string]bool) {
	counts := map[string]int{}
	for _, seg := range segments {
		seen := map[string]bool{}
		for _, line := range strings.Split(seg, "\n") {
			key := lineKey(line)
			if key == "" || len([]rune(key)) > cfg.WatermarkMaxLen {
				continue
			}
			if !watermarkWordRe.MatchString(key) && !mostlyUppercase(key) {
				continue
			}
			masked := maskDigits(key)
			if seen[masked] {
				continue
			}
			seen[masked] = true
			counts[masked]++
		}
	}
	for key, n := range counts {
		if n >= cfg.MinSegments {
			remove[key] = true
		}
	}
}

// removalTooLarge reports whether the removal set would drop more than the
// configured share of the document's non-blank lines.
func removalTooLarge(md string, cfg Config, remove map[string]bool) bool {
	total := 0
	removed := 0
	for _, line := range strings.Split(md, "\n") {
		key := lineKey(line)
		if key == "" || key == convert.PageBreak {
			continue
		}
		total++
		if remove[key] || remove[maskDigits(key)] {
			removed++
		}
	}
	if total == 0 {
		return false
	}
	return float64(removed)/float64(total) > cfg.MaxRemovalRatio
}

// lineKey normalises a line for comparison: trimmed, inner whitespace
// collapsed.
func lineKey(line string) string {
	return strings.Join(strings.Fields(line), " ")
}

var digitRunRe = regexp.MustCompile(`\d+`)

func maskDigits(key string) string {
	return digitRunRe.ReplaceAllString(key, "#")
}

// mostlyUppercase reports whether at least 70% of a line's letters are
// uppercase, with at least three letters present.
func mostlyUppercase(s string) bool {
	letters := 0
	upper := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if letters < 3 {
		return false
	}
	return float64(upper)/float64(letters) >= 0.7
}
