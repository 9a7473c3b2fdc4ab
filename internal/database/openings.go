// openings.go handles sheet opening database operations (SVT-5).
//
// Go Pattern: We split database operations into multiple files for
// organization. Each file handles one "domain" — sheets, openings, batches,
// users, webhooks. They all use the same *DB receiver.
package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/Ashford-Glazing/survey-tools-api/internal/models"
)

// ReplaceOpenings swaps a sheet's openings for a fresh extraction result.
// Delete + insert runs in one transaction so a half-replaced sheet can
// never be observed.
func (db *DB) ReplaceOpenings(ctx context.Context, sheetID string, openings []models.SheetOpening) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	// Go Pattern: deferred Rollback is a no-op after a successful Commit,
	// so this one line covers every error path below.
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM sheet_openings WHERE sheet_id = $1`, sheetID); err != nil {
		return fmt.Errorf("failed to clear openings: %w", err)
	}

	query := `
		INSERT INTO sheet_openings (sheet_id, position, sales_line, order_width, order_height, reference, location, system, width, height, location_input, remarks)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	for _, op := range openings {
		if _, err := tx.ExecContext(ctx, query,
			sheetID, op.Position, op.SalesLine, op.OrderWidth, op.OrderHeight,
			op.Reference, op.Location, op.System,
			op.Width, op.Height, op.LocationInput, op.Remarks,
		); err != nil {
			return fmt.Errorf("failed to insert opening %d: %w", op.Position, err)
		}
	}

	return tx.Commit()
}

// GetOpeningsBySheet returns a sheet's openings in document order.
func (db *DB) GetOpeningsBySheet(ctx context.Context, sheetID string) ([]models.SheetOpening, error) {
	var openings []models.SheetOpening
	err := db.SelectContext(ctx, &openings,
		`SELECT * FROM sheet_openings WHERE sheet_id = $1 ORDER BY position ASC`, sheetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list openings: %w", err)
	}
	return openings, nil
}

// UpdateMeasurements applies a bulk of surveyed values. Each entry replaces
// that opening's measured fields wholesale; positions not listed stay as
// they are. An unknown position fails the whole batch — all or nothing.
func (db *DB) UpdateMeasurements(ctx context.Context, sheetID string, entries []models.MeasurementEntry) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE sheet_openings
		SET width = $3, height = $4, location_input = $5, remarks = $6, updated_at = NOW()
		WHERE sheet_id = $1 AND position = $2`

	for _, e := range entries {
		result, err := tx.ExecContext(ctx, query,
			sheetID, e.Position, e.Width, e.Height, e.Location, e.Remarks)
		if err != nil {
			return fmt.Errorf("failed to update position %d: %w", e.Position, err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return fmt.Errorf("no opening at position %d", e.Position)
		}
	}

	return tx.Commit()
}

// UpdateOpening patches a single opening's measured fields. Only fields the
// request actually carries change — a nil pointer means "leave it alone".
func (db *DB) UpdateOpening(ctx context.Context, sheetID string, position int, req models.UpdateOpeningRequest) (*models.SheetOpening, error) {
	var sets []string
	var args []interface{}
	argNum := 1

	// sheet_id and position anchor the WHERE clause
	args = append(args, sheetID, position)
	argNum = 3

	if req.Width != nil {
		sets = append(sets, fmt.Sprintf("width = $%d", argNum))
		args = append(args, *req.Width)
		argNum++
	}
	if req.Height != nil {
		sets = append(sets, fmt.Sprintf("height = $%d", argNum))
		args = append(args, *req.Height)
		argNum++
	}
	if req.Location != nil {
		sets = append(sets, fmt.Sprintf("location_input = $%d", argNum))
		args = append(args, *req.Location)
		argNum++
	}
	if req.Remarks != nil {
		sets = append(sets, fmt.Sprintf("remarks = $%d", argNum))
		args = append(args, *req.Remarks)
		argNum++
	}

	if len(sets) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}
	sets = append(sets, "updated_at = NOW()")

	query := fmt.Sprintf(
		`UPDATE sheet_openings SET %s WHERE sheet_id = $1 AND position = $2`,
		strings.Join(sets, ", "))

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update opening: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, fmt.Errorf("no opening at position %d", position)
	}

	var op models.SheetOpening
	err = db.GetContext(ctx, &op,
		`SELECT * FROM sheet_openings WHERE sheet_id = $1 AND position = $2`,
		sheetID, position)
	if err != nil {
		return nil, fmt.Errorf("failed to reload opening: %w", err)
	}
	return &op, nil
}
