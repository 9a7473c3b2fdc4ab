// parser.go finds sales blocks in extracted survey-sheet text.
//
// Supplier order confirmations print each opening as a fixed four-line run:
// the sales line number (0xxx), the quantity (always 1), then the ordered
// height and width in millimetres. A "Reference" line follows further down
// the sheet, and the three lines directly above it carry the job reference,
// the location and the system name.
package sheet

import (
	"regexp"
	"strconv"
	"strings"
)

// Opening is one window opening parsed from a survey sheet.
type Opening struct {
	Position    int    // 1-based, in document order
	SalesLine   string // e.g. "0010"
	OrderWidth  int    // mm
	OrderHeight int    // mm
	Reference   string
	Location    string
	System      string
}

// salesBlockPattern matches one sales block. The height comes BEFORE the
// width on the printed sheet, so group 2 is the height and group 3 the
// width. `\s` (not just spaces) keeps stray blank lines inside a block from
// breaking the match.
var salesBlockPattern = regexp.MustCompile(
	`(?m)^\s*(0\d{3})\s*?\n^\s*1\s*?\n^\s*(\d{2,4})\s*?\n^\s*(\d{2,4})\s*?\n`)

// referenceScanWindow caps how many lines below a sales block we look for
// its "Reference" line. Sheets place it within a few lines; 100 covers even
// the long-format layouts.
const referenceScanWindow = 100

// ParseOpenings extracts all sales blocks from sheet text, in document
// order. A sheet with no blocks returns an empty slice, not an error —
// callers surface that as a warning.
func ParseOpenings(text string) []Opening {
	lines := strings.Split(text, "\n")

	var openings []Opening
	for _, m := range salesBlockPattern.FindAllStringSubmatchIndex(text, -1) {
		salesLine := text[m[2]:m[3]]
		orderHeight, _ := strconv.Atoi(text[m[4]:m[5]])
		orderWidth, _ := strconv.Atoi(text[m[6]:m[7]])

		// The metadata scan starts on the line the match begins on.
		startLine := strings.Count(text[:m[0]], "\n")
		reference, location, system := scanReference(lines, startLine)

		openings = append(openings, Opening{
			Position:    len(openings) + 1,
			SalesLine:   salesLine,
			OrderWidth:  orderWidth,
			OrderHeight: orderHeight,
			Reference:   reference,
			Location:    location,
			System:      system,
		})
	}

	return openings
}

// scanReference walks forward from start looking for the first line that
// starts with "reference" (case-insensitive). The three lines directly
// above it are the reference, location and system. If the anchor line sits
// too close to the top (fewer than three lines above it), or is not found
// within the window, all three come back empty.
func scanReference(lines []string, start int) (reference, location, system string) {
	limit := start + referenceScanWindow
	if limit > len(lines) {
		limit = len(lines)
	}

	for j := start; j < limit; j++ {
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(lines[j])), "reference") {
			continue
		}
		if j < 3 {
			return "", "", ""
		}
		return strings.TrimSpace(lines[j-3]),
			strings.TrimSpace(lines[j-2]),
			strings.TrimSpace(lines[j-1])
	}

	return "", "", ""
}
