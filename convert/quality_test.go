package convert

import "testing"

func TestPrintableRatio_Normal(t *testing.T) {
	text := "This is normal readable text with words."
	ratio := computePrintableRatio(text)
	if ratio < 0.99 {
		t.Errorf("expected ratio ~1.0 for clean text, got %f", ratio)
	}
}

func TestPrintableRatio_Garbage(t *testing.T) {
	// Half PUA garbage characters.
	text := "abcd"
	ratio := computePrintableRatio(text)
	if ratio > 0.6 {
		t.Errorf("expected low ratio for garbage text, got %f", ratio)
	}
}

func TestWordlikeRatio_Normal(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog"
	ratio := computeWordlikeRatio(text)
	if ratio < 0.9 {
		t.Errorf("expected high wordlike ratio, got %f", ratio)
	}
}

func TestWordlikeRatio_SingleChar(t *testing.T) {
	text := "a b c d e f g h i j"
	ratio := computeWordlikeRatio(text)
	if ratio > 0.1 {
		t.Errorf("expected low wordlike ratio for single chars, got %f", ratio)
	}
}

func TestCountVisualRefs(t *testing.T) {
	text := "See figure 3 for details. Refer to table 2 as well. Figure 7 shows the trend."
	count := countVisualRefs(text)
	if count < 2 {
		t.Errorf("expected at least 2 visual refs, got %d", count)
	}
}

func TestNeedsOCR(t *testing.T) {
	q := &ExtractionQuality{
		CharsPerPage:    10,
		HasImageStreams: true,
		PrintableRatio:  0.99,
	}
	if !q.NeedsOCR() {
		t.Error("sparse text with images should flag NeedsOCR")
	}

	q = &ExtractionQuality{
		CharsPerPage:   2000,
		PrintableRatio: 0.99,
	}
	if q.NeedsOCR() {
		t.Error("dense clean text should not flag NeedsOCR")
	}
}

func TestHasVisualGap(t *testing.T) {
	q := &ExtractionQuality{VisualRefCount: 3, HasImageStreams: true}
	if !q.HasVisualGap() {
		t.Error("refs plus images should flag a visual gap")
	}
	q = &ExtractionQuality{VisualRefCount: 3}
	if q.HasVisualGap() {
		t.Error("refs without images is not a gap")
	}
}
