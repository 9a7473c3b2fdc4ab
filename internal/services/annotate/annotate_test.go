package annotate

import (
	"strings"
	"testing"

	"github.com/Ashford-Glazing/survey-tools-api/internal/models"
	"github.com/Ashford-Glazing/survey-tools-api/internal/services/sheet"
)

func TestPlanStamps(t *testing.T) {
	layout := DefaultLayout()
	anchor := sheet.Anchor{Page: 1, Right: 300, Baseline: 500, FontSize: 10}

	tests := []struct {
		name          string
		openings      []models.SheetOpening
		anchors       []sheet.Anchor
		wantStamps    int
		wantAnnotated int
	}{
		{
			name: "measured opening gets size and location stamps",
			openings: []models.SheetOpening{
				{Position: 1, Width: 1200, Height: 900, LocationInput: "Kitchen"},
			},
			anchors:       []sheet.Anchor{anchor},
			wantStamps:    2,
			wantAnnotated: 1,
		},
		{
			name: "remarks add a third stamp",
			openings: []models.SheetOpening{
				{Position: 1, Width: 1200, Height: 900, LocationInput: "Kitchen", Remarks: "check cill"},
			},
			anchors:       []sheet.Anchor{anchor},
			wantStamps:    3,
			wantAnnotated: 1,
		},
		{
			name: "unmeasured opening consumes its anchor without stamps",
			openings: []models.SheetOpening{
				{Position: 1},
				{Position: 2, Width: 800, Height: 600},
			},
			anchors: []sheet.Anchor{
				{Page: 1, Right: 300, Baseline: 500, FontSize: 10},
				{Page: 1, Right: 300, Baseline: 200, FontSize: 10},
			},
			wantStamps:    2,
			wantAnnotated: 1,
		},
		{
			name: "openings beyond the last anchor are dropped",
			openings: []models.SheetOpening{
				{Position: 1, Width: 800, Height: 600},
				{Position: 2, Width: 900, Height: 700},
			},
			anchors:       []sheet.Anchor{anchor},
			wantStamps:    2,
			wantAnnotated: 1,
		},
		{
			name:          "no openings no stamps",
			openings:      nil,
			anchors:       []sheet.Anchor{anchor},
			wantStamps:    0,
			wantAnnotated: 0,
		},
		{
			name: "location only still counts as measured",
			openings: []models.SheetOpening{
				{Position: 1, LocationInput: "Hall"},
			},
			anchors:       []sheet.Anchor{anchor},
			wantStamps:    2,
			wantAnnotated: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stamps, annotated := planStamps(tt.openings, tt.anchors, layout)
			if len(stamps) != tt.wantStamps {
				t.Errorf("got %d stamps, want %d", len(stamps), tt.wantStamps)
			}
			if annotated != tt.wantAnnotated {
				t.Errorf("annotated = %d, want %d", annotated, tt.wantAnnotated)
			}
		})
	}
}

func TestPlanStampsPlacement(t *testing.T) {
	layout := DefaultLayout()
	anchors := []sheet.Anchor{{Page: 3, Right: 250, Baseline: 400, FontSize: 10}}
	openings := []models.SheetOpening{
		{Position: 1, Width: 1150, Height: 880, LocationInput: "Lounge", Remarks: "re-check"},
	}

	stamps, _ := planStamps(openings, anchors, layout)
	if len(stamps) != 3 {
		t.Fatalf("got %d stamps, want 3", len(stamps))
	}

	// Anchor top ~ baseline + font size; stamps sit OffsetDown below it,
	// OffsetRight past the anchor's right edge.
	wantY := 400.0 + 10 - layout.OffsetDown

	size := stamps[0]
	if size.text != "1150 x 880" {
		t.Errorf("size stamp text = %q, want %q", size.text, "1150 x 880")
	}
	if size.page != 3 {
		t.Errorf("size stamp page = %d, want 3", size.page)
	}
	if size.x != 250+layout.OffsetRight || size.y != wantY {
		t.Errorf("size stamp at (%v, %v), want (%v, %v)", size.x, size.y, 250+layout.OffsetRight, wantY)
	}

	loc := stamps[1]
	if loc.text != "(Lounge)" {
		t.Errorf("location stamp text = %q, want %q", loc.text, "(Lounge)")
	}
	if loc.x != size.x+layout.LocationSpacing {
		t.Errorf("location stamp x = %v, want %v", loc.x, size.x+layout.LocationSpacing)
	}

	rem := stamps[2]
	if rem.text != "re-check" {
		t.Errorf("remarks stamp text = %q, want %q", rem.text, "re-check")
	}
	if rem.x != loc.x+layout.RemarksSpacing {
		t.Errorf("remarks stamp x = %v, want %v", rem.x, loc.x+layout.RemarksSpacing)
	}
}

func TestPlanStampsColor(t *testing.T) {
	layout := DefaultLayout()
	anchors := []sheet.Anchor{{Page: 1, Right: 100, Baseline: 100, FontSize: 10}}

	tests := []struct {
		name    string
		opening models.SheetOpening
		want    string
	}{
		{
			name:    "within tolerance stays blue",
			opening: models.SheetOpening{OrderWidth: 1200, OrderHeight: 900, Width: 1150, Height: 880},
			want:    layout.OKColor,
		},
		{
			name:    "width off by more than tolerance turns red",
			opening: models.SheetOpening{OrderWidth: 1200, OrderHeight: 900, Width: 1100, Height: 900},
			want:    layout.MismatchColor,
		},
		{
			name:    "height off by more than tolerance turns red",
			opening: models.SheetOpening{OrderWidth: 1200, OrderHeight: 900, Width: 1200, Height: 1000},
			want:    layout.MismatchColor,
		},
		{
			name:    "exactly at tolerance stays blue",
			opening: models.SheetOpening{OrderWidth: 1200, OrderHeight: 900, Width: 1125, Height: 900},
			want:    layout.OKColor,
		},
		{
			name:    "missing order size stays blue",
			opening: models.SheetOpening{Width: 400, Height: 300},
			want:    layout.OKColor,
		},
		{
			name:    "missing measured height ignores height comparison",
			opening: models.SheetOpening{OrderWidth: 1200, OrderHeight: 900, Width: 1200},
			want:    layout.OKColor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stamps, _ := planStamps([]models.SheetOpening{tt.opening}, anchors, layout)
			if len(stamps) == 0 {
				t.Fatal("expected at least one stamp")
			}
			if stamps[0].color != tt.want {
				t.Errorf("color = %q, want %q", stamps[0].color, tt.want)
			}
		})
	}
}

func TestPlanStampsAnchorSizeFallback(t *testing.T) {
	layout := DefaultLayout()
	anchors := []sheet.Anchor{{Page: 1, Right: 100, Baseline: 100, FontSize: 0}}
	openings := []models.SheetOpening{{Position: 1, Width: 500, Height: 400}}

	stamps, _ := planStamps(openings, anchors, layout)
	if len(stamps) == 0 {
		t.Fatal("expected stamps")
	}

	wantY := 100 + anchorFallbackSize - layout.OffsetDown
	if stamps[0].y != wantY {
		t.Errorf("y = %v, want %v (fallback anchor size)", stamps[0].y, wantY)
	}
}

func TestStampDesc(t *testing.T) {
	layout := DefaultLayout()
	st := stamp{page: 1, text: "1200 x 900", x: 340.5, y: 495.25, color: "#0000ff"}

	desc := stampDesc(layout, st)

	for _, want := range []string{
		"fontname:Helvetica",
		"points:14",
		"position:bl",
		"offset:340.50 495.25",
		"fillcolor:#0000ff",
		"strokecolor:#0000ff",
		"rendermode:2",
	} {
		if !strings.Contains(desc, want) {
			t.Errorf("desc %q missing %q", desc, want)
		}
	}
}
