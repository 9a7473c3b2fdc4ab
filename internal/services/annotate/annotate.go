// annotate.go stamps measured values onto survey sheet PDFs.
//
// Go Pattern: the placement maths lives in planStamps, a pure function from
// (openings, anchors, layout) to a list of stamps. Annotate is a thin shell
// around it that does the file I/O through pdfcpu. Keeping the geometry pure
// makes the fiddly parts unit-testable without rendering a single PDF.
package annotate

import (
	"fmt"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/Ashford-Glazing/survey-tools-api/internal/models"
	"github.com/Ashford-Glazing/survey-tools-api/internal/services/sheet"
)

// anchorFallbackSize stands in for the anchor label's font size when the
// extractor could not recover one. Matches the label size on the standard
// order confirmation template.
const anchorFallbackSize = 10.0

// Service annotates PDFs according to a fixed layout profile.
type Service struct {
	layout Layout
}

// NewService creates an annotation service with the given layout profile.
func NewService(layout Layout) *Service {
	return &Service{layout: layout}
}

// Layout returns the active profile. Handlers use it for the tolerance when
// reporting mismatch flags.
func (s *Service) Layout() Layout {
	return s.layout
}

// Result reports what an annotation run did.
type Result struct {
	// Annotated counts openings that received at least one stamp.
	Annotated int
	// Anchors counts anchor labels found across the document.
	Anchors int
}

// stamp is one piece of text placed at an absolute position on a page.
// Coordinates are PDF points from the bottom-left corner.
type stamp struct {
	page  int
	text  string
	x     float64
	y     float64
	color string
}

// Annotate reads the PDF at inPath, stamps the measured values for each
// opening next to its anchor label, and writes the result to outPath.
// Openings map to anchors by document order; openings beyond the last
// anchor are ignored. An opening with no measured data at all is skipped
// but still consumes its anchor, so later openings stay aligned.
//
// Annotate always produces outPath, even when nothing qualifies for a
// stamp — the caller gets a well-formed output file either way.
func (s *Service) Annotate(inPath, outPath string, openings []models.SheetOpening) (*Result, error) {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}

	anchors, err := sheet.FindAnchors(data, s.layout.AnchorText)
	if err != nil {
		return nil, fmt.Errorf("failed to locate anchors: %w", err)
	}

	stamps, annotated := planStamps(openings, anchors, s.layout)
	if len(stamps) == 0 {
		// Nothing to stamp. Copy the original through so the annotated
		// file exists and downloads still work.
		if err := copyFile(inPath, outPath); err != nil {
			return nil, err
		}
		return &Result{Annotated: 0, Anchors: len(anchors)}, nil
	}

	wmMap := make(map[int][]*model.Watermark)
	for _, st := range stamps {
		wm, err := api.TextWatermark(st.text, stampDesc(s.layout, st), true, false, types.POINTS)
		if err != nil {
			return nil, fmt.Errorf("failed to build stamp %q: %w", st.text, err)
		}
		wmMap[st.page] = append(wmMap[st.page], wm)
	}

	conf := model.NewDefaultConfiguration()
	if err := api.AddWatermarksSliceMapFile(inPath, outPath, wmMap, conf); err != nil {
		return nil, fmt.Errorf("failed to stamp PDF: %w", err)
	}

	return &Result{Annotated: annotated, Anchors: len(anchors)}, nil
}

// planStamps pairs openings with anchors and lays out the stamp text.
//
// Per opening: "W x H" at the anchor's right edge plus the horizontal
// offset, "(location)" a further LocationSpacing along, and the remarks —
// only when present — RemarksSpacing beyond that. The vertical position
// drops OffsetDown from the anchor's top edge, approximated as baseline
// plus font size.
func planStamps(openings []models.SheetOpening, anchors []sheet.Anchor, layout Layout) ([]stamp, int) {
	var stamps []stamp
	annotated := 0

	for i, op := range openings {
		if i >= len(anchors) {
			break
		}
		if op.Width == 0 && op.Height == 0 && op.LocationInput == "" && op.Remarks == "" {
			continue
		}
		a := anchors[i]

		color := layout.OKColor
		if op.MismatchAt(layout.ToleranceMM) {
			color = layout.MismatchColor
		}

		size := a.FontSize
		if size <= 0 {
			size = anchorFallbackSize
		}
		baseX := a.Right + layout.OffsetRight
		baseY := a.Baseline + size - layout.OffsetDown

		stamps = append(stamps,
			stamp{page: a.Page, text: fmt.Sprintf("%d x %d", op.Width, op.Height), x: baseX, y: baseY, color: color},
			stamp{page: a.Page, text: fmt.Sprintf("(%s)", op.LocationInput), x: baseX + layout.LocationSpacing, y: baseY, color: color},
		)
		if op.Remarks != "" {
			stamps = append(stamps, stamp{
				page:  a.Page,
				text:  op.Remarks,
				x:     baseX + layout.LocationSpacing + layout.RemarksSpacing,
				y:     baseY,
				color: color,
			})
		}
		annotated++
	}

	return stamps, annotated
}

// stampDesc renders a stamp as a pdfcpu watermark description string.
// position:bl with an absolute offset puts the text exactly at (x, y);
// rendermode 2 fills and strokes so the stamp stays legible over artwork.
func stampDesc(layout Layout, st stamp) string {
	return fmt.Sprintf(
		"fontname:%s, points:%d, scalefactor:1 abs, position:bl, offset:%.2f %.2f, fillcolor:%s, strokecolor:%s, rendermode:2, rotation:0",
		layout.FontName, layout.FontSize, st.x, st.y, st.color, st.color,
	)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}
