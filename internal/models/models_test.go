package models

import "testing"

// TestSheetListParamsNormalize verifies paging defaults and bounds. The same
// normalized values drive both the SQL LIMIT/OFFSET and the pagination echoed
// back to the client, so out-of-range input must land on the fallback in
// both places.
func TestSheetListParamsNormalize(t *testing.T) {
	tests := []struct {
		name        string
		params      SheetListParams
		wantPage    int
		wantPerPage int
	}{
		{
			name:        "zero values get defaults",
			params:      SheetListParams{},
			wantPage:    1,
			wantPerPage: 20,
		},
		{
			name:        "in-range values pass through",
			params:      SheetListParams{Page: 3, PerPage: 50},
			wantPage:    3,
			wantPerPage: 50,
		},
		{
			name:        "per_page above the cap falls back to 20",
			params:      SheetListParams{Page: 1, PerPage: 1000},
			wantPage:    1,
			wantPerPage: 20,
		},
		{
			name:        "per_page at the cap is allowed",
			params:      SheetListParams{Page: 1, PerPage: 100},
			wantPage:    1,
			wantPerPage: 100,
		},
		{
			name:        "negative paging gets defaults",
			params:      SheetListParams{Page: -2, PerPage: -5},
			wantPage:    1,
			wantPerPage: 20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.params
			p.Normalize()
			if p.Page != tt.wantPage {
				t.Errorf("Page = %d, want %d", p.Page, tt.wantPage)
			}
			if p.PerPage != tt.wantPerPage {
				t.Errorf("PerPage = %d, want %d", p.PerPage, tt.wantPerPage)
			}
		})
	}
}

// TestSheetListParamsNormalizeSortDefaults verifies the sort fallbacks.
func TestSheetListParamsNormalizeSortDefaults(t *testing.T) {
	p := SheetListParams{}
	p.Normalize()
	if p.SortBy != "created_at" {
		t.Errorf("SortBy = %q, want %q", p.SortBy, "created_at")
	}
	if p.SortDir != "desc" {
		t.Errorf("SortDir = %q, want %q", p.SortDir, "desc")
	}

	p = SheetListParams{SortBy: "opening_count", SortDir: "asc"}
	p.Normalize()
	if p.SortBy != "opening_count" || p.SortDir != "asc" {
		t.Errorf("explicit sort was overridden: %q %q", p.SortBy, p.SortDir)
	}
}
