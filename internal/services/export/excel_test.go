package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/Ashford-Glazing/survey-tools-api/internal/models"
)

func TestSafeSheetName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"alphanumeric passes through", "Plot12", "Plot12"},
		{"spaces become underscores", "Plot 12 rev A", "Plot_12_rev_A"},
		{"punctuation becomes underscores", "job#4:final?", "job_4_final_"},
		{"empty falls back", "", "Sheet"},
		{"only punctuation keeps underscores", "---", "___"},
		{"truncated to thirty one characters", strings.Repeat("a", 40), strings.Repeat("a", 31)},
		{"unicode letters survive", "プロット1", "プロット1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SafeSheetName(tt.input); got != tt.want {
				t.Errorf("SafeSheetName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestUniqueSheetName(t *testing.T) {
	used := make(map[string]bool)

	if got := uniqueSheetName("Plot_1", used); got != "Plot_1" {
		t.Errorf("first name = %q, want %q", got, "Plot_1")
	}
	if got := uniqueSheetName("Plot_1", used); got != "Plot_1_2" {
		t.Errorf("second name = %q, want %q", got, "Plot_1_2")
	}
	// Case-insensitive collision, like Excel itself.
	if got := uniqueSheetName("plot_1", used); got != "plot_1_3" {
		t.Errorf("case collision name = %q, want %q", got, "plot_1_3")
	}
}

func TestUniqueSheetNameRespectsLengthLimit(t *testing.T) {
	used := make(map[string]bool)
	long := strings.Repeat("a", maxSheetNameLen)

	first := uniqueSheetName(long, used)
	second := uniqueSheetName(long, used)

	if first != long {
		t.Errorf("first name = %q, want untouched base", first)
	}
	if len([]rune(second)) > maxSheetNameLen {
		t.Errorf("second name %q exceeds %d characters", second, maxSheetNameLen)
	}
	if !strings.HasSuffix(second, "_2") {
		t.Errorf("second name %q missing numeric suffix", second)
	}
}

func TestBuildWorkbook(t *testing.T) {
	entries := []WorkbookEntry{
		{
			Name: "Plot 1",
			Openings: []models.SheetOpening{
				{
					Position: 1, SalesLine: "0010",
					OrderWidth: 1200, OrderHeight: 900,
					Reference: "W1", Location: "Kitchen", System: "Alu 58",
					Width: 1150, Height: 880, LocationInput: "Kitchen rear", Remarks: "tight reveal",
				},
				{
					Position: 2, SalesLine: "0020",
					OrderWidth: 600, OrderHeight: 450,
					Reference: "W2", Location: "Hall", System: "Alu 58",
				},
			},
		},
		{Name: "Plot 2", Openings: nil},
	}

	wb, err := BuildWorkbook(entries)
	if err != nil {
		t.Fatalf("BuildWorkbook() error = %v", err)
	}
	var buf bytes.Buffer
	if err := wb.Write(&buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := wb.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	rd, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer rd.Close()

	sheets := rd.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "Plot_1" || sheets[1] != "Plot_2" {
		t.Fatalf("sheet list = %v, want [Plot_1 Plot_2]", sheets)
	}

	cells := []struct {
		cell string
		want string
	}{
		{"A1", "sales_line"},
		{"J1", "remarks"},
		{"A2", "0010"},
		{"B2", "1200"},
		{"C2", "900"},
		{"D2", "W1"},
		{"G2", "1150"},
		{"H2", "880"},
		{"I2", "Kitchen rear"},
		{"J2", "tight reveal"},
		{"A3", "0020"},
		{"G3", ""}, // unmeasured width exports blank
		{"H3", ""},
	}
	for _, tt := range cells {
		got, err := rd.GetCellValue("Plot_1", tt.cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s) error = %v", tt.cell, err)
		}
		if got != tt.want {
			t.Errorf("cell %s = %q, want %q", tt.cell, got, tt.want)
		}
	}

	// An entry with no openings still gets its header row.
	got, err := rd.GetCellValue("Plot_2", "A1")
	if err != nil {
		t.Fatalf("GetCellValue(Plot_2 A1) error = %v", err)
	}
	if got != "sales_line" {
		t.Errorf("Plot_2 A1 = %q, want header", got)
	}
}

func TestBuildWorkbookNoEntries(t *testing.T) {
	if _, err := BuildWorkbook(nil); err == nil {
		t.Error("expected error for empty workbook, got nil")
	}
}
