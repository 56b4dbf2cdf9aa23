package outline

import (
	"strings"
	"testing"
)

func TestSplit_Basic(t *testing.T) {
	md := "# Summary\nRevenue grew.\n\n## Details\nCosts were stable.\nMargins improved."

	got := Split(md)
	if len(got) != 2 {
		t.Fatalf("expected 2 sections, got %d: %+v", len(got), got)
	}
	if got[0].Title != "Summary" || got[0].Level != 1 {
		t.Errorf("section 0: %+v", got[0])
	}
	if got[0].Content != "Revenue grew." {
		t.Errorf("section 0 content: %q", got[0].Content)
	}
	if got[1].Title != "Details" || got[1].Level != 2 {
		t.Errorf("section 1: %+v", got[1])
	}
	if got[1].Content != "Costs were stable.\nMargins improved." {
		t.Errorf("section 1 content: %q", got[1].Content)
	}
}

func TestSplit_ContentStopsAtAnyLevel(t *testing.T) {
	// A deeper heading still ends the previous section's content.
	md := "# Top\nintro\n### Deep\ndetail\n# Next\nmore"

	got := Split(md)
	if len(got) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(got))
	}
	if got[0].Content != "intro" {
		t.Errorf("top content: %q", got[0].Content)
	}
	if got[1].Level != 3 || got[1].Content != "detail" {
		t.Errorf("deep section: %+v", got[1])
	}
}

func TestSplit_FrontMatter(t *testing.T) {
	md := "Preamble before any heading.\n\n# First\nbody"

	got := Split(md)
	if len(got) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(got))
	}
	if got[0].Title != "" || got[0].Level != 0 {
		t.Errorf("front matter section: %+v", got[0])
	}
	if got[0].Content != "Preamble before any heading." {
		t.Errorf("front matter content: %q", got[0].Content)
	}
}

func TestSplit_NoHeadings(t *testing.T) {
	got := Split("just a paragraph\nand another line")
	if len(got) != 0 {
		t.Fatalf("expected no sections, got %+v", got)
	}
	if got == nil {
		t.Fatal("expected empty slice, not nil")
	}
}

func TestSplit_IgnoresHeadingsInFences(t *testing.T) {
	md := "# Real\nbefore\n```\n# not a heading\n```\nafter"

	got := Split(md)
	if len(got) != 1 {
		t.Fatalf("expected 1 section, got %d: %+v", len(got), got)
	}
	if got[0].Content != "before\n```\n# not a heading\n```\nafter" {
		t.Errorf("content: %q", got[0].Content)
	}
}

func TestSplit_RoundTrip(t *testing.T) {
	// Re-emitting headings and contents in order reconstructs the document
	// structure: splitting the reassembly yields identical sections.
	md := "Front matter text.\n\n" +
		"# Intro\nOpening paragraph.\n\n" +
		"## Background\nSome history.\nMore history.\n\n" +
		"### Fine Print\ndetails\n\n" +
		"# Conclusion\nClosing words."

	first := Split(md)
	if len(first) != 5 {
		t.Fatalf("expected 5 sections, got %d: %+v", len(first), first)
	}

	var sb strings.Builder
	for _, s := range first {
		if s.Level > 0 {
			sb.WriteString(strings.Repeat("#", s.Level) + " " + s.Title + "\n")
		}
		sb.WriteString(s.Content + "\n")
	}

	second := Split(sb.String())
	if len(second) != len(first) {
		t.Fatalf("round trip changed section count: %d -> %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("section %d changed: %+v -> %+v", i, first[i], second[i])
		}
	}
}

func TestSplit_TrailingHashesTrimmed(t *testing.T) {
	got := Split("## Closed Heading ##\ntext")
	if len(got) != 1 || got[0].Title != "Closed Heading" {
		t.Fatalf("got %+v", got)
	}
}

func TestSplit_EmptyAndBlank(t *testing.T) {
	if got := Split(""); len(got) != 0 {
		t.Errorf("empty: %+v", got)
	}
	if got := Split("   \n\n  "); len(got) != 0 {
		t.Errorf("blank: %+v", got)
	}
}

func TestSplit_SevenHashesIsNotAHeading(t *testing.T) {
	got := Split("####### Too deep\ntext")
	if len(got) != 0 {
		t.Fatalf("expected no sections, got %+v", got)
	}
}
