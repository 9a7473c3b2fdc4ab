// export_test.go contains tests for the export and filename helpers (SVT-8).
//
// Go Pattern: Table-driven tests are the standard Go testing pattern.
// You define a slice of test cases (each with a name, inputs, and expected
// outputs), then loop through them. This makes it easy to add new cases
// and keeps the test logic DRY.
package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Ashford-Glazing/survey-tools-api/internal/models"
	"github.com/Ashford-Glazing/survey-tools-api/internal/services/annotate"
)

// TestSanitizeFilename verifies filename sanitization.
func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "clean filename",
			input:    "plot 7_edited",
			expected: "plot 7_edited",
		},
		{
			name:     "slashes and colons",
			input:    "Phase 1/2: Harlow",
			expected: "Phase 1-2- Harlow",
		},
		{
			name:     "special characters",
			input:    "What size? <re-measure>",
			expected: "What size- -re-measure-",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "long name gets truncated",
			input:    strings.Repeat("a", 200),
			expected: strings.Repeat("a", 100),
		},
	}

	for _, tt := range tests {
		// Go Pattern: t.Run creates a sub-test with its own name.
		// This makes test output clearer: "TestSanitizeFilename/empty_string"
		t.Run(tt.name, func(t *testing.T) {
			result := sanitizeFilename(tt.input)
			if result != tt.expected {
				t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

// TestExportPrefix verifies the bundle/workbook filename prefix fallback.
func TestExportPrefix(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty falls back to output", "", "output"},
		{"whitespace falls back to output", "   ", "output"},
		{"clean prefix passes through", "harlow_site", "harlow_site"},
		{"unsafe characters sanitized", "site/7", "site-7"},
		{"surrounding spaces trimmed", "  week 12  ", "week 12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := exportPrefix(tt.input)
			if result != tt.expected {
				t.Errorf("exportPrefix(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

// TestDefaultOutputName verifies the initial output name for uploads.
func TestDefaultOutputName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain filename", "plot 7.pdf", "plot 7_edited"},
		{"uppercase extension", "SITE-SURVEY.PDF", "SITE-SURVEY_edited"},
		{"client path stripped", "C:/Scans/plot 7.pdf", "plot 7_edited"},
		{"no extension", "plot7", "plot7_edited"},
		{"bare extension falls back", ".pdf", "sheet_edited"},
		{"dotted name keeps inner dots", "plot.7.rev2.pdf", "plot.7.rev2_edited"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := defaultOutputName(tt.input)
			if result != tt.expected {
				t.Errorf("defaultOutputName(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

// TestExportJSONIsOpeningsArray verifies the json export body is the bare
// openings array (with the computed mismatch flag), not a metadata wrapper —
// the site teams' scripts feed it straight into a loop.
func TestExportJSONIsOpeningsArray(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &Handler{Annotator: annotate.NewService(annotate.DefaultLayout())}

	openings := []models.SheetOpening{
		{Position: 1, SalesLine: "0010", OrderWidth: 900, OrderHeight: 1200, Width: 905, Height: 1195},
		{Position: 2, SalesLine: "0020", OrderWidth: 600, OrderHeight: 600, Width: 700, Height: 600},
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	h.exportJSON(c, openings, "plot 7_edited")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, `"plot 7_edited.json"`) {
		t.Errorf("Content-Disposition = %q, want the .json attachment name", cd)
	}

	var decoded []models.SheetOpening
	if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("body is not a JSON array of openings: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("decoded %d openings, want 2", len(decoded))
	}
	if decoded[0].Mismatch {
		t.Error("opening 1 is within tolerance but flagged as mismatch")
	}
	if !decoded[1].Mismatch {
		t.Error("opening 2 is 100mm off on width but not flagged")
	}
}

// TestExportJSONEmptyOpenings verifies a measured-nothing sheet still
// exports as [], not null.
func TestExportJSONEmptyOpenings(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &Handler{Annotator: annotate.NewService(annotate.DefaultLayout())}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	h.exportJSON(c, nil, "sheet")

	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Errorf("body = %q, want %q", got, "[]")
	}
}
