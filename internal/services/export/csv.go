package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/Ashford-Glazing/survey-tools-api/internal/models"
)

// WriteCSV streams the openings of a single sheet as CSV, header row first,
// in the standard export column order.
func WriteCSV(w io.Writer, openings []models.SheetOpening) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(exportColumns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, op := range openings {
		record := []string{
			op.SalesLine,
			strconv.Itoa(op.OrderWidth),
			strconv.Itoa(op.OrderHeight),
			op.Reference,
			op.Location,
			op.System,
			csvIntField(op.Width),
			csvIntField(op.Height),
			op.LocationInput,
			op.Remarks,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// csvIntField renders a measured dimension, leaving unmeasured (zero)
// values blank.
func csvIntField(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}
