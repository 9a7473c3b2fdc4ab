// Package export turns extracted openings into the files site teams
// actually hand around: CSV, Excel workbooks, and the combined zip bundle.
package export

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"

	"github.com/Ashford-Glazing/survey-tools-api/internal/models"
)

// maxSheetNameLen is Excel's hard limit on worksheet tab names.
const maxSheetNameLen = 31

// exportColumns is the fixed column order for every export format. Survey
// teams have spreadsheets and macros keyed to these headings, so the order
// is part of the contract.
var exportColumns = []string{
	"sales_line",
	"order_width",
	"order_height",
	"reference",
	"location",
	"system",
	"width",
	"height",
	"location_input",
	"remarks",
}

// WorkbookEntry is one worksheet: a tab name and the openings to list on it.
type WorkbookEntry struct {
	Name     string
	Openings []models.SheetOpening
}

// SafeSheetName maps an arbitrary sheet name onto something Excel accepts:
// every non-alphanumeric rune becomes "_", the result is capped at 31
// characters, and an empty name falls back to "Sheet".
func SafeSheetName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	safe := b.String()
	if runes := []rune(safe); len(runes) > maxSheetNameLen {
		safe = string(runes[:maxSheetNameLen])
	}
	if safe == "" {
		return "Sheet"
	}
	return safe
}

// uniqueSheetName disambiguates tab names that collide after sanitising.
// Excel treats tab names case-insensitively, so "Plot_1" and "plot_1"
// clash; the second comer gets a numeric suffix, trimmed to fit the limit.
func uniqueSheetName(base string, used map[string]bool) string {
	name := base
	for n := 2; used[strings.ToLower(name)]; n++ {
		suffix := fmt.Sprintf("_%d", n)
		trimmed := []rune(base)
		if len(trimmed)+len(suffix) > maxSheetNameLen {
			trimmed = trimmed[:maxSheetNameLen-len(suffix)]
		}
		name = string(trimmed) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

// BuildWorkbook assembles one workbook with a worksheet per entry. The
// caller owns the returned file and must Close it after writing it out.
func BuildWorkbook(entries []WorkbookEntry) (*excelize.File, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("workbook needs at least one sheet")
	}

	f := excelize.NewFile()
	used := make(map[string]bool)

	for _, entry := range entries {
		name := uniqueSheetName(SafeSheetName(entry.Name), used)
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create worksheet %q: %w", name, err)
		}
		if err := writeWorksheet(f, name, entry.Openings); err != nil {
			f.Close()
			return nil, err
		}
	}

	// Drop the default tab excelize starts with, unless an entry claimed
	// the name for itself.
	if !used["sheet1"] {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to remove default worksheet: %w", err)
		}
	}

	return f, nil
}

func writeWorksheet(f *excelize.File, name string, openings []models.SheetOpening) error {
	header := make([]interface{}, len(exportColumns))
	for i, col := range exportColumns {
		header[i] = col
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header on %q: %w", name, err)
	}

	for i, op := range openings {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to address row %d on %q: %w", i+2, name, err)
		}
		row := openingRow(op)
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d on %q: %w", i+2, name, err)
		}
	}
	return nil
}

// openingRow flattens an opening into export column order. Measured
// dimensions of zero export as blank cells — a zero there means "not
// measured", not a zero-millimetre opening.
func openingRow(op models.SheetOpening) []interface{} {
	return []interface{}{
		op.SalesLine,
		op.OrderWidth,
		op.OrderHeight,
		op.Reference,
		op.Location,
		op.System,
		blankIfZero(op.Width),
		blankIfZero(op.Height),
		op.LocationInput,
		op.Remarks,
	}
}

func blankIfZero(v int) interface{} {
	if v == 0 {
		return ""
	}
	return v
}
