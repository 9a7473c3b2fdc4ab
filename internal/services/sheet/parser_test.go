package sheet

import (
	"fmt"
	"strings"
	"testing"
)

func TestParseOpenings(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []Opening
	}{
		{
			name: "single block with reference metadata",
			text: strings.Join([]string{
				"Survey Sheet",
				"0010",
				"1",
				"1050",
				"1200",
				"JOB-4417",
				"First Floor Bedroom",
				"Alitherm 600",
				"Reference Location System",
				"Aperture Size",
			}, "\n"),
			want: []Opening{
				{
					Position:    1,
					SalesLine:   "0010",
					OrderWidth:  1200,
					OrderHeight: 1050,
					Reference:   "JOB-4417",
					Location:    "First Floor Bedroom",
					System:      "Alitherm 600",
				},
			},
		},
		{
			name: "height printed before width",
			text: "0020\n1\n450\n2100\nr1\nr2\nr3\nReference\n",
			want: []Opening{
				{
					Position:    1,
					SalesLine:   "0020",
					OrderWidth:  2100,
					OrderHeight: 450,
					Reference:   "r1",
					Location:    "r2",
					System:      "r3",
				},
			},
		},
		{
			name: "multiple blocks in document order",
			text: strings.Join([]string{
				"0010",
				"1",
				"900",
				"600",
				"JOB-1",
				"Kitchen",
				"Alitherm 300",
				"Reference",
				"0020",
				"1",
				"1200",
				"2400",
				"JOB-1",
				"Lounge",
				"Alitherm 600",
				"Reference",
				"",
			}, "\n"),
			want: []Opening{
				{Position: 1, SalesLine: "0010", OrderWidth: 600, OrderHeight: 900,
					Reference: "JOB-1", Location: "Kitchen", System: "Alitherm 300"},
				{Position: 2, SalesLine: "0020", OrderWidth: 2400, OrderHeight: 1200,
					Reference: "JOB-1", Location: "Lounge", System: "Alitherm 600"},
			},
		},
		{
			name: "whitespace padding around block lines",
			text: "  0030 \n\t1\n  980\t\n 1210  \nm1\nm2\nm3\nreference no. 44\n",
			want: []Opening{
				{Position: 1, SalesLine: "0030", OrderWidth: 1210, OrderHeight: 980,
					Reference: "m1", Location: "m2", System: "m3"},
			},
		},
		{
			name: "blank line inside a block still matches",
			text: "0040\n\n1\n760\n610\na\nb\nc\nReference\n",
			want: []Opening{
				{Position: 1, SalesLine: "0040", OrderWidth: 610, OrderHeight: 760,
					Reference: "a", Location: "b", System: "c"},
			},
		},
		{
			name: "no reference line leaves metadata empty",
			text: "0050\n1\n800\n900\nnothing to see here\n",
			want: []Opening{
				{Position: 1, SalesLine: "0050", OrderWidth: 900, OrderHeight: 800},
			},
		},
		{
			name: "two digit dimensions",
			text: "0060\n1\n45\n90\nx\ny\nz\nReference\n",
			want: []Opening{
				{Position: 1, SalesLine: "0060", OrderWidth: 90, OrderHeight: 45,
					Reference: "x", Location: "y", System: "z"},
			},
		},
		{
			name: "five digit dimension does not match",
			text: "0070\n1\n12345\n800\n",
			want: nil,
		},
		{
			name: "sales line must start with zero",
			text: "1010\n1\n800\n900\n",
			want: nil,
		},
		{
			name: "quantity other than one does not match",
			text: "0080\n2\n800\n900\n",
			want: nil,
		},
		{
			name: "no blocks at all",
			text: "just a cover page\nwith plain text\n",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseOpenings(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("ParseOpenings() returned %d openings, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("opening %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseOpeningsScanWindow(t *testing.T) {
	// A reference line more than 100 lines below the block start is out of
	// the scan window.
	var b strings.Builder
	b.WriteString("0010\n1\n1000\n1100\n")
	for i := 0; i < 120; i++ {
		b.WriteString(fmt.Sprintf("filler %d\n", i))
	}
	b.WriteString("too-late\nalso-late\nstill-late\nReference\n")

	got := ParseOpenings(b.String())
	if len(got) != 1 {
		t.Fatalf("expected 1 opening, got %d", len(got))
	}
	if got[0].Reference != "" || got[0].Location != "" || got[0].System != "" {
		t.Errorf("metadata should be empty beyond the scan window, got %+v", got[0])
	}
}

func TestScanReference(t *testing.T) {
	tests := []struct {
		name     string
		lines    []string
		start    int
		wantRef  string
		wantLoc  string
		wantSys  string
	}{
		{
			name:    "anchor with three preceding lines",
			lines:   []string{"skip", "ref", "loc", "sys", "Reference details"},
			start:   0,
			wantRef: "ref", wantLoc: "loc", wantSys: "sys",
		},
		{
			name:    "case insensitive prefix",
			lines:   []string{"a", "b", "c", "REFERENCE"},
			start:   0,
			wantRef: "a", wantLoc: "b", wantSys: "c",
		},
		{
			name:  "anchor too close to the top",
			lines: []string{"only", "Reference"},
			start: 0,
		},
		{
			name:  "anchor before the scan start is ignored",
			lines: []string{"Reference", "x", "y", "z"},
			start: 1,
		},
		{
			name:    "surrounding whitespace trimmed",
			lines:   []string{"  ref  ", "\tloc", "sys ", "  reference no."},
			start:   0,
			wantRef: "ref", wantLoc: "loc", wantSys: "sys",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, loc, sys := scanReference(tt.lines, tt.start)
			if ref != tt.wantRef || loc != tt.wantLoc || sys != tt.wantSys {
				t.Errorf("scanReference() = (%q, %q, %q), want (%q, %q, %q)",
					ref, loc, sys, tt.wantRef, tt.wantLoc, tt.wantSys)
			}
		})
	}
}
