package sheet

import (
	"testing"

	"github.com/ledongthuc/pdf"
)

func TestJoinFragments(t *testing.T) {
	tests := []struct {
		name  string
		frags []pdf.Text
		want  string
	}{
		{
			name: "wide gap becomes a space",
			frags: []pdf.Text{
				{S: "Reference", X: 50, W: 60, FontSize: 10},
				{S: "JOB-4417", X: 130, W: 55, FontSize: 10},
			},
			want: "Reference JOB-4417",
		},
		{
			name: "adjacent fragments join without a space",
			frags: []pdf.Text{
				{S: "12", X: 50, W: 12, FontSize: 10},
				{S: "00", X: 62, W: 12, FontSize: 10},
			},
			want: "1200",
		},
		{
			name: "zero font size falls back to the default threshold",
			frags: []pdf.Text{
				{S: "a", X: 50, W: 6},
				{S: "b", X: 58, W: 6}, // gap 2 < 12 * 0.2
			},
			want: "ab",
		},
		{
			name: "fragments sorted by x before joining",
			frags: []pdf.Text{
				{S: "Size", X: 120, W: 30, FontSize: 9},
				{S: "Aperture", X: 60, W: 50, FontSize: 9},
			},
			want: "Aperture Size",
		},
		{
			name:  "empty row",
			frags: nil,
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := joinFragments(tt.frags); got != tt.want {
				t.Errorf("joinFragments() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidatePDF(t *testing.T) {
	tests := []struct {
		name  string
		data  []byte
		valid bool
	}{
		{"valid pdf header", []byte("%PDF-1.4\n..."), true},
		{"empty data", []byte{}, false},
		{"too short", []byte("%PD"), false},
		{"wrong magic", []byte("GIF89a"), false},
		{"html masquerading", []byte("<html><body>"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidatePDF(tt.data); got != tt.valid {
				t.Errorf("ValidatePDF() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestExtractRejectsGarbage(t *testing.T) {
	if _, err := Extract([]byte("definitely not a pdf")); err == nil {
		t.Error("expected an error for non-PDF input")
	}
}
