// anchors.go locates "Aperture Size" label occurrences on PDF pages.
//
// Each opening's annotations are placed relative to one of these anchors,
// matched up by order: the first opening stamps at the first anchor, and so
// on. The anchor text often spans several positioned fragments, so the
// search reassembles each text row before looking for it.
package sheet

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Anchor is one occurrence of the anchor text on a page. Coordinates are
// PDF points with Y growing upward from the page bottom.
type Anchor struct {
	Page     int     // 1-based page number
	Right    float64 // X of the anchor text's right edge
	Baseline float64 // Y of the anchor row's text baseline
	FontSize float64 // Font size of the anchor text (0 if unknown)
}

// FindAnchors returns every occurrence of anchorText in the PDF, ordered by
// page and then top to bottom within the page. Pages that fail positioned
// extraction are skipped; a PDF that cannot be opened is an error.
func FindAnchors(data []byte, anchorText string) ([]Anchor, error) {
	if anchorText == "" {
		return nil, fmt.Errorf("anchor text must not be empty")
	}

	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	var anchors []Anchor
	for i := 1; i <= pdfReader.NumPage(); i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}

		// Top of page first: PDF Y grows upward.
		sorted := make([]*pdf.Row, 0, len(rows))
		for _, row := range rows {
			if row != nil && len(row.Content) > 0 {
				sorted = append(sorted, row)
			}
		}
		sort.Slice(sorted, func(a, b int) bool {
			return sorted[a].Position > sorted[b].Position
		})

		for _, row := range sorted {
			if hit, ok := matchInRow(row.Content, anchorText); ok {
				hit.Page = i
				anchors = append(anchors, hit)
			}
		}
	}

	return anchors, nil
}

// matchInRow looks for anchorText in one row of fragments. On a hit it
// returns the anchor's right edge, baseline and font size. When the match
// ends inside a longer fragment (e.g. "Aperture Size:"), the right edge is
// interpolated from the matched share of the fragment's width.
func matchInRow(frags []pdf.Text, anchorText string) (Anchor, bool) {
	sorted := make([]pdf.Text, len(frags))
	copy(sorted, frags)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].X < sorted[j].X
	})

	// Rebuild the row text, remembering which byte range each fragment
	// produced so a hit maps back to coordinates.
	type span struct {
		start, end int
		frag       pdf.Text
	}
	var b strings.Builder
	spans := make([]span, 0, len(sorted))
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
		start := b.Len()
		b.WriteString(frag.S)
		spans = append(spans, span{start: start, end: b.Len(), frag: frag})
	}

	idx := strings.Index(b.String(), anchorText)
	if idx < 0 {
		return Anchor{}, false
	}

	end := idx + len(anchorText)
	for _, sp := range spans {
		if end <= sp.start || end > sp.end {
			continue
		}
		frac := float64(end-sp.start) / float64(sp.end-sp.start)
		return Anchor{
			Right:    sp.frag.X + sp.frag.W*frac,
			Baseline: sp.frag.Y,
			FontSize: sp.frag.FontSize,
		}, true
	}

	return Anchor{}, false
}
