package convert

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// openZipPart returns the contents of a named file inside an OOXML archive.
// A missing part yields ok=false; an unreadable archive yields ErrCorrupt.
func openZipPart(r *zip.ReadCloser, name string) ([]byte, bool, error) {
	for _, f := range r.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, false, fmt.Errorf("%w: open %s: %v", ErrCorrupt, name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, false, fmt.Errorf("%w: read %s: %v", ErrCorrupt, name, err)
		}
		return data, true, nil
	}
	return nil, false, nil
}

// coreProperties holds the subset of docProps/core.xml shared by all
// OOXML formats.
type coreProperties struct {
	Title   string `xml:"title"`
	Creator string `xml:"creator"`
	Created string `xml:"created"`
}

// readCoreProperties parses docProps/core.xml if present. Metadata is
// optional; parse failures leave the fields empty.
func readCoreProperties(r *zip.ReadCloser) Meta {
	data, ok, err := openZipPart(r, "docProps/core.xml")
	if err != nil || !ok {
		return Meta{}
	}
	var props coreProperties
	if err := xml.Unmarshal(data, &props); err != nil {
		return Meta{}
	}
	m := Meta{
		Title:  strings.TrimSpace(props.Title),
		Author: strings.TrimSpace(props.Creator),
	}
	if created := strings.TrimSpace(props.Created); len(created) >= 10 {
		// dcterms:created is W3CDTF: 2024-01-15T09:30:00Z
		m.Date = created[:10]
	}
	return m
}

// extractDocx parses a .docx by reading word/document.xml from the ZIP
// archive. Styled headings become Markdown headings and rendered page
// breaks become page markers.
func extractDocx(path string) (*RawDocument, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open zip: %v", ErrCorrupt, err)
	}
	defer r.Close()

	data, ok, err := openZipPart(r, "word/document.xml")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: word/document.xml not found in archive", ErrCorrupt)
	}

	decoder := xml.NewDecoder(strings.NewReader(string(data)))
	var lines []string
	var currentText strings.Builder
	var inParagraph bool
	var paragraphStyle string
	pages := 1

	flush := func() {
		text := strings.TrimSpace(currentText.String())
		currentText.Reset()
		if text == "" {
			return
		}
		if level := docxHeadingLevel(paragraphStyle); level > 0 {
			lines = append(lines, strings.Repeat("#", level)+" "+text)
		} else {
			lines = append(lines, text)
		}
		lines = append(lines, "")
	}

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case t.Name.Local == "p":
				inParagraph = true
				currentText.Reset()
				paragraphStyle = ""
			case t.Name.Local == "pStyle" && inParagraph:
				for _, attr := range t.Attr {
					if attr.Name.Local == "val" {
						paragraphStyle = attr.Value
					}
				}
			case t.Name.Local == "lastRenderedPageBreak":
				flush()
				lines = append(lines, PageBreak, "")
				pages++
			case t.Name.Local == "br":
				for _, attr := range t.Attr {
					if attr.Name.Local == "type" && attr.Value == "page" {
						flush()
						lines = append(lines, PageBreak, "")
						pages++
					}
				}
			}

		case xml.CharData:
			if inParagraph {
				currentText.Write(t)
			}

		case xml.EndElement:
			if t.Name.Local == "p" && inParagraph {
				inParagraph = false
				flush()
			}
		}
	}

	body := strings.TrimSpace(strings.Join(lines, "\n"))
	if body == "" {
		return nil, fmt.Errorf("%w: no extractable text in document", ErrRejected)
	}

	return &RawDocument{
		Markdown: body,
		Pages:    pages,
		Meta:     readCoreProperties(r),
	}, nil
}

// docxHeadingLevel extracts the heading level from a paragraph style name.
// e.g. "Heading1" → 1, "Heading2" → 2, "Title" → 1, etc.
func docxHeadingLevel(style string) int {
	lower := strings.ToLower(style)

	if lower == "title" {
		return 1
	}
	if lower == "subtitle" {
		return 2
	}

	// "Heading1", "heading1", "Titre1", etc.
	for _, prefix := range []string{"heading", "titre", "überschrift"} {
		if strings.HasPrefix(lower, prefix) {
			rest := lower[len(prefix):]
			if len(rest) == 1 && rest[0] >= '1' && rest[0] <= '6' {
				return int(rest[0] - '0')
			}
		}
	}
	return 0
}

var slidePartRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// extractPptx parses a .pptx by reading each slide part. Every slide is one
// page; the first text run of a slide is treated as its heading.
func extractPptx(path string) (*RawDocument, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open zip: %v", ErrCorrupt, err)
	}
	defer r.Close()

	type slide struct {
		num  int
		name string
	}
	var slides []slide
	for _, f := range r.File {
		m := slidePartRe.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		slides = append(slides, slide{num: n, name: f.Name})
	}
	if len(slides) == 0 {
		return nil, fmt.Errorf("%w: no slides found in archive", ErrCorrupt)
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	var segments []string
	for _, s := range slides {
		data, ok, err := openZipPart(r, s.name)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		text := slideText(data)
		if text != "" {
			segments = append(segments, text)
		}
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: no extractable text in presentation", ErrRejected)
	}

	return &RawDocument{
		Markdown: strings.Join(segments, "\n"+PageBreak+"\n"),
		Pages:    len(slides),
		Meta:     readCoreProperties(r),
	}, nil
}

// slideText extracts text runs from one slide, one paragraph per line. The
// first paragraph becomes a level-2 heading for the slide.
func slideText(data []byte) string {
	decoder := xml.NewDecoder(strings.NewReader(string(data)))
	var paragraphs []string
	var current strings.Builder
	var inRun bool

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inRun = true
			}
		case xml.CharData:
			if inRun {
				current.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inRun = false
			case "p":
				if text := strings.TrimSpace(current.String()); text != "" {
					paragraphs = append(paragraphs, text)
				}
				current.Reset()
			}
		}
	}
	if text := strings.TrimSpace(current.String()); text != "" {
		paragraphs = append(paragraphs, text)
	}

	if len(paragraphs) == 0 {
		return ""
	}
	paragraphs[0] = "## " + paragraphs[0]
	return strings.Join(paragraphs, "\n\n")
}

// xlsxWorkbook mirrors the sheet list in xl/workbook.xml.
type xlsxWorkbook struct {
	Sheets struct {
		Sheet []struct {
			Name string `xml:"name,attr"`
		} `xml:"sheet"`
	} `xml:"sheets"`
}

// xlsxSharedStrings mirrors xl/sharedStrings.xml. Each si may hold one
// direct t or several rich-text runs.
type xlsxSharedStrings struct {
	SI []struct {
		T string   `xml:"t"`
		R []string `xml:"r>t"`
	} `xml:"si"`
}

// extractXlsx parses a .xlsx by reading the workbook sheet list, shared
// strings, and each worksheet. Rows render as pipe-separated cell lines
// under a heading per sheet.
func extractXlsx(path string) (*RawDocument, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open zip: %v", ErrCorrupt, err)
	}
	defer r.Close()

	wbData, ok, err := openZipPart(r, "xl/workbook.xml")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: xl/workbook.xml not found in archive", ErrCorrupt)
	}
	var wb xlsxWorkbook
	if err := xml.Unmarshal(wbData, &wb); err != nil {
		return nil, fmt.Errorf("%w: parse workbook.xml: %v", ErrCorrupt, err)
	}

	shared := readSharedStrings(r)

	var lines []string
	for i, sheet := range wb.Sheets.Sheet {
		data, ok, err := openZipPart(r, fmt.Sprintf("xl/worksheets/sheet%d.xml", i+1))
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		rows := sheetRows(data, shared)
		if len(rows) == 0 {
			continue
		}
		name := sheet.Name
		if name == "" {
			name = fmt.Sprintf("Sheet %d", i+1)
		}
		lines = append(lines, "## "+name, "")
		lines = append(lines, rows...)
		lines = append(lines, "")
	}

	body := strings.TrimSpace(strings.Join(lines, "\n"))
	if body == "" {
		return nil, fmt.Errorf("%w: no extractable text in workbook", ErrRejected)
	}

	return &RawDocument{
		Markdown: body,
		Meta:     readCoreProperties(r),
	}, nil
}

func readSharedStrings(r *zip.ReadCloser) []string {
	data, ok, err := openZipPart(r, "xl/sharedStrings.xml")
	if err != nil || !ok {
		return nil
	}
	var ss xlsxSharedStrings
	if err := xml.Unmarshal(data, &ss); err != nil {
		return nil
	}
	out := make([]string, len(ss.SI))
	for i, si := range ss.SI {
		if si.T != "" {
			out[i] = si.T
			continue
		}
		out[i] = strings.Join(si.R, "")
	}
	return out
}

// sheetRows walks one worksheet's XML and renders non-empty rows as
// pipe-separated cell values. Shared-string cells (t="s") resolve through
// the shared string table.
func sheetRows(data []byte, shared []string) []string {
	decoder := xml.NewDecoder(strings.NewReader(string(data)))
	var rows []string
	var cells []string
	var current strings.Builder
	var cellType string
	var inValue bool

	flushCell := func() {
		v := strings.TrimSpace(current.String())
		current.Reset()
		if cellType == "s" {
			if idx, err := strconv.Atoi(v); err == nil && idx >= 0 && idx < len(shared) {
				v = shared[idx]
			}
		}
		if v != "" {
			cells = append(cells, v)
		}
	}

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "c":
				cellType = ""
				for _, attr := range t.Attr {
					if attr.Name.Local == "t" {
						cellType = attr.Value
					}
				}
			case "v", "is", "t":
				inValue = true
			}
		case xml.CharData:
			if inValue {
				current.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "v", "is", "t":
				inValue = false
			case "c":
				flushCell()
			case "row":
				if len(cells) > 0 {
					rows = append(rows, strings.Join(cells, " | "))
					cells = nil
				}
			}
		}
	}
	return rows
}
