// Package sheet turns survey-sheet PDFs into structured window openings.
//
// We use the ledongthuc/pdf library for text extraction. It's a pure Go
// implementation — no CGO or external dependencies required. This makes
// deployment simpler (just a single binary).
//
// Extraction works row by row rather than with GetPlainText: the sales-block
// pattern depends on line structure, and plain-text extraction concatenates
// fragments without line breaks.
package sheet

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extraction holds the output of reading a survey-sheet PDF.
type Extraction struct {
	Text        string // Line-structured text, all pages, top to bottom
	PageCount   int
	FailedPages int // Pages where no text could be read
}

// Gap-to-space rule for fragments on one row: a horizontal gap wider than
// 20% of the font size reads as a word break.
const (
	gapSpaceFactor   = 0.2
	fallbackFontSize = 12.0
)

// Extract reads a PDF from memory and returns its text with line structure
// preserved.
//
// Go Pattern: We accept a byte slice instead of a filename because the data
// comes from an HTTP upload (in memory), not a file on disk. The pdf library
// needs io.ReaderAt for random access to the PDF structure, which
// bytes.NewReader provides.
func Extract(data []byte) (*Extraction, error) {
	reader := bytes.NewReader(data)

	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	pageCount := pdfReader.NumPage()
	result := &Extraction{PageCount: pageCount}
	if pageCount == 0 {
		return result, nil
	}

	var allText strings.Builder
	for i := 1; i <= pageCount; i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			result.FailedPages++
			continue
		}

		lines, err := pageLines(page)
		if err != nil {
			// Fall back to plain text — line structure is lost for this
			// page, but the content still shows up in the sheet text.
			plain, perr := page.GetPlainText(nil)
			if perr != nil {
				result.FailedPages++
				continue
			}
			allText.WriteString(plain)
			allText.WriteString("\n")
			continue
		}

		for _, line := range lines {
			allText.WriteString(line)
			allText.WriteString("\n")
		}
	}

	result.Text = allText.String()
	return result, nil
}

// pageLines reads one page as text lines in reading order.
func pageLines(page pdf.Page) ([]string, error) {
	rows, err := page.GetTextByRow()
	if err != nil {
		return nil, err
	}

	// PDF Y grows upward, so the top of the page has the LARGEST Y.
	// Sort descending to read top to bottom.
	sorted := make([]*pdf.Row, 0, len(rows))
	for _, row := range rows {
		if row != nil && len(row.Content) > 0 {
			sorted = append(sorted, row)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Position > sorted[j].Position
	})

	lines := make([]string, 0, len(sorted))
	for _, row := range sorted {
		text := joinFragments(row.Content)
		if strings.TrimSpace(text) != "" {
			lines = append(lines, text)
		}
	}
	return lines, nil
}

// joinFragments rebuilds a row's text from its positioned fragments,
// inserting spaces where the horizontal gap says two fragments are separate
// words.
func joinFragments(frags []pdf.Text) string {
	sorted := make([]pdf.Text, len(frags))
	copy(sorted, frags)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].X < sorted[j].X
	})

	var b strings.Builder
	for i, frag := range sorted {
		if i > 0 {
			prev := sorted[i-1]
			gap := frag.X - (prev.X + prev.W)
			size := prev.FontSize
			if size <= 0 {
				size = fallbackFontSize
			}
			if gap > size*gapSpaceFactor {
				b.WriteString(" ")
			}
		}
		b.WriteString(frag.S)
	}
	return b.String()
}

// ValidatePDF checks if the data looks like a valid PDF by checking the magic bytes.
func ValidatePDF(data []byte) bool {
	// PDF files start with "%PDF-"
	return len(data) >= 5 && string(data[:5]) == "%PDF-"
}
