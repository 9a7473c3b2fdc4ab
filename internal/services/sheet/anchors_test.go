package sheet

import (
	"testing"

	"github.com/ledongthuc/pdf"
)

func TestMatchInRow(t *testing.T) {
	tests := []struct {
		name         string
		frags        []pdf.Text
		anchor       string
		wantOK       bool
		wantRight    float64
		wantBaseline float64
	}{
		{
			name: "anchor in a single fragment",
			frags: []pdf.Text{
				{S: "Aperture Size", X: 100, Y: 500, W: 80, FontSize: 9},
			},
			anchor:       "Aperture Size",
			wantOK:       true,
			wantRight:    180,
			wantBaseline: 500,
		},
		{
			name: "anchor split across two fragments",
			frags: []pdf.Text{
				{S: "Aperture", X: 100, Y: 410, W: 50, FontSize: 9},
				{S: "Size", X: 153, Y: 410, W: 30, FontSize: 9},
			},
			anchor:       "Aperture Size",
			wantOK:       true,
			wantRight:    183,
			wantBaseline: 410,
		},
		{
			name: "anchor ends inside a longer fragment",
			frags: []pdf.Text{
				// 26 chars, the anchor is the first 13: half the width.
				{S: "Aperture Size: 1200 x 1050", X: 100, Y: 300, W: 260, FontSize: 9},
			},
			anchor:       "Aperture Size",
			wantOK:       true,
			wantRight:    230,
			wantBaseline: 300,
		},
		{
			name: "fragments given out of order",
			frags: []pdf.Text{
				{S: "Size", X: 153, Y: 222, W: 30, FontSize: 9},
				{S: "Aperture", X: 100, Y: 222, W: 50, FontSize: 9},
			},
			anchor:       "Aperture Size",
			wantOK:       true,
			wantRight:    183,
			wantBaseline: 222,
		},
		{
			name: "row without the anchor",
			frags: []pdf.Text{
				{S: "Frame Size", X: 100, Y: 500, W: 60, FontSize: 9},
			},
			anchor: "Aperture Size",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := matchInRow(tt.frags, tt.anchor)
			if ok != tt.wantOK {
				t.Fatalf("matchInRow() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.Right != tt.wantRight {
				t.Errorf("Right = %v, want %v", got.Right, tt.wantRight)
			}
			if got.Baseline != tt.wantBaseline {
				t.Errorf("Baseline = %v, want %v", got.Baseline, tt.wantBaseline)
			}
		})
	}
}

func TestFindAnchorsRejectsGarbage(t *testing.T) {
	if _, err := FindAnchors([]byte("not a pdf at all"), "Aperture Size"); err == nil {
		t.Error("expected an error for non-PDF input")
	}
}

func TestFindAnchorsEmptyAnchor(t *testing.T) {
	if _, err := FindAnchors([]byte("%PDF-1.4"), ""); err == nil {
		t.Error("expected an error for an empty anchor string")
	}
}
