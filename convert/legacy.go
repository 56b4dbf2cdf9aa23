package convert

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"unicode"
	"unicode/utf16"
)

// oleMagic is the compound file header shared by .doc, .ppt and .xls.
var oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// Internal stream names and format noise that leak into scavenged runs.
var legacyArtifacts = []string{
	"WordDocument", "PowerPoint Document", "Workbook", "SummaryInformation",
	"DocumentSummaryInformation", "CompObj", "ObjectPool", "Root Entry",
	"Microsoft Office Word", "MSWordDoc", "Word.Document",
	"Times New Roman", "Calibri", "Arial", "Cambria",
	"bjbj", "Normal.dotm", "Normal.dot",
}

// extractLegacy scavenges readable text from pre-OOXML binary Office files.
// There is no full OLE stream parser here: printable ASCII and UTF-16LE runs
// are collected and known container artifacts filtered out. Good enough for
// the text body of typical .doc/.ppt/.xls files.
func extractLegacy(path string) (*RawDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) < len(oleMagic) || !bytes.Equal(data[:len(oleMagic)], oleMagic) {
		return nil, fmt.Errorf("%w: not an OLE compound document", ErrCorrupt)
	}

	runs := scavengeASCII(data)
	runs = append(runs, scavengeUTF16(data)...)

	var lines []string
	seen := make(map[string]bool)
	for _, run := range runs {
		run = strings.TrimSpace(run)
		if len([]rune(run)) < 4 || isLegacyArtifact(run) || seen[run] {
			continue
		}
		seen[run] = true
		lines = append(lines, run)
	}

	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: no extractable text in legacy document", ErrRejected)
	}

	return &RawDocument{Markdown: strings.Join(lines, "\n\n")}, nil
}

// scavengeASCII collects runs of printable single-byte characters.
func scavengeASCII(data []byte) []string {
	var runs []string
	var sb strings.Builder
	flush := func() {
		if sb.Len() >= 8 {
			runs = append(runs, sb.String())
		}
		sb.Reset()
	}
	for _, b := range data {
		if b >= 0x20 && b < 0x7F {
			sb.WriteByte(b)
		} else if b == '\r' || b == '\n' || b == '\t' {
			sb.WriteByte(' ')
		} else {
			flush()
		}
	}
	flush()
	return runs
}

// scavengeUTF16 collects runs of printable UTF-16LE characters, which is how
// Word stores most body text.
func scavengeUTF16(data []byte) []string {
	var runs []string
	var units []uint16
	flush := func() {
		if len(units) >= 8 {
			runs = append(runs, string(utf16.Decode(units)))
		}
		units = units[:0]
	}
	for i := 0; i+1 < len(data); i += 2 {
		u := uint16(data[i]) | uint16(data[i+1])<<8
		r := rune(u)
		switch {
		case unicode.IsPrint(r) && r < 0xD800:
			units = append(units, u)
		case r == '\r' || r == '\n' || r == '\t':
			units = append(units, ' ')
		default:
			flush()
		}
	}
	flush()
	return runs
}

func isLegacyArtifact(run string) bool {
	for _, a := range legacyArtifacts {
		if strings.Contains(run, a) {
			return true
		}
	}
	// Runs without a single letter are container noise.
	for _, r := range run {
		if unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
