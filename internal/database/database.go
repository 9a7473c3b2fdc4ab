// Package database handles PostgreSQL connections and queries.
//
// Go Pattern: We use the `sqlx` package which extends Go's standard `database/sql`
// with convenient features like scanning rows into structs. Unlike an ORM
// (ActiveRecord, Sequelize), you write raw SQL — which gives you full control
// and helps you learn SQL properly.
//
// Go's database/sql has built-in connection pooling — you create one *sql.DB
// (or *sqlx.DB) at startup and share it across your entire application.
// It's safe for concurrent use by multiple goroutines.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver — the underscore import runs its init()

	"github.com/Ashford-Glazing/survey-tools-api/internal/models"
)

// DB wraps the sqlx database connection with our application-specific methods.
// Go Pattern: Embedding (*sqlx.DB) gives us all of sqlx's methods automatically,
// plus we can add our own. This is Go's version of inheritance — composition.
type DB struct {
	*sqlx.DB
}

// New creates a new database connection with connection pooling configured.
func New(databaseURL string) (*DB, error) {
	// sqlx.Connect both opens the connection and pings the database
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool for serverless PostgreSQL (Neon)
	// Go Pattern: The connection pool is managed by database/sql internally.
	// These settings prevent resource exhaustion and handle Neon's aggressive
	// connection timeouts (serverless PG closes idle connections quickly).
	db.SetMaxOpenConns(10)                  // Fewer connections for serverless
	db.SetMaxIdleConns(2)                   // Keep minimal idle connections
	db.SetConnMaxLifetime(2 * time.Minute)  // Recycle connections frequently
	db.SetConnMaxIdleTime(30 * time.Second) // Close idle connections before Neon does

	return &DB{db}, nil
}

// HealthCheck verifies the database connection is alive.
// Go Pattern: context.Context is passed to functions that may be slow or
// need cancellation (like database queries, HTTP requests). It's like
// AbortController in JavaScript but built into the language conventions.
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.PingContext(ctx)
}

// --- Sheet Operations ---

// CreateSheet inserts a new survey sheet record.
// Returns the created sheet with its generated ID and timestamps.
// Note: batch_id defaults to NULL for single sheet uploads.
func (db *DB) CreateSheet(ctx context.Context, s *models.SurveySheet) error {
	query := `
		INSERT INTO survey_sheets (original_filename, stored_filename, output_name, status, page_count, opening_count, warning, error_message, api_key_id, batch_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`

	// QueryRowContext executes a query that returns a single row.
	// Scan() reads the returned columns into our struct fields.
	return db.QueryRowContext(ctx, query,
		s.OriginalFilename, s.StoredFilename, s.OutputName, s.Status,
		s.PageCount, s.OpeningCount, s.Warning, s.ErrorMessage,
		s.APIKeyID, s.BatchID,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

// GetSheet retrieves a single sheet by ID.
func (db *DB) GetSheet(ctx context.Context, id string) (*models.SurveySheet, error) {
	var s models.SurveySheet
	// GetContext is sqlx's convenience method — it scans directly into a struct
	// using the `db:"column_name"` tags we defined on the model.
	err := db.GetContext(ctx, &s, `SELECT * FROM survey_sheets WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("sheet not found: %w", err)
	}
	return &s, nil
}

// UpdateSheet updates a sheet's processing fields after extraction.
func (db *DB) UpdateSheet(ctx context.Context, s *models.SurveySheet) error {
	query := `
		UPDATE survey_sheets
		SET status = $2, page_count = $3, opening_count = $4, warning = $5,
			error_message = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	return db.QueryRowContext(ctx, query,
		s.ID, s.Status, s.PageCount, s.OpeningCount, s.Warning, s.ErrorMessage,
	).Scan(&s.UpdatedAt)
}

// UpdateSheetOutputName renames the base name used for the annotated PDF
// and the workbook tab.
func (db *DB) UpdateSheetOutputName(ctx context.Context, id, outputName string) error {
	query := `
		UPDATE survey_sheets
		SET output_name = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	var updatedAt time.Time
	if err := db.QueryRowContext(ctx, query, id, outputName).Scan(&updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("sheet not found")
		}
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	return nil
}

// OutputNameInUse reports whether any other sheet already uses outputName.
// Output names become filenames inside export bundles, so they must be
// unique across sheets.
func (db *DB) OutputNameInUse(ctx context.Context, outputName, excludeSheetID string) (bool, error) {
	var exists bool
	err := db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM survey_sheets WHERE output_name = $1 AND id <> $2)`,
		outputName, excludeSheetID)
	if err != nil {
		return false, fmt.Errorf("failed to check output name: %w", err)
	}
	return exists, nil
}

// MarkSheetAnnotated records where the annotated copy lives and when it was
// produced. Re-annotating overwrites both.
func (db *DB) MarkSheetAnnotated(ctx context.Context, s *models.SurveySheet, annotatedFilename string) error {
	query := `
		UPDATE survey_sheets
		SET annotated_filename = $2, annotated_at = NOW(), updated_at = NOW()
		WHERE id = $1
		RETURNING annotated_at, updated_at`

	if err := db.QueryRowContext(ctx, query, s.ID, annotatedFilename).
		Scan(&s.AnnotatedAt, &s.UpdatedAt); err != nil {
		return fmt.Errorf("failed to record annotation: %w", err)
	}
	s.AnnotatedFilename = &annotatedFilename
	return nil
}

// ListSheets returns a paginated list of sheets with optional filters.
func (db *DB) ListSheets(ctx context.Context, params models.SheetListParams) ([]models.SurveySheet, int, error) {
	params.Normalize()

	// Build WHERE clause dynamically
	// Go Pattern: Strings.Builder is the efficient way to build strings
	// (like StringBuilder in Java). Using + for concatenation creates new
	// strings each time, which is wasteful.
	var conditions []string
	var args []interface{}
	argNum := 1

	if params.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argNum))
		args = append(args, params.Status)
		argNum++
	}

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(original_filename ILIKE $%d OR output_name ILIKE $%d)", argNum, argNum))
		args = append(args, "%"+params.Search+"%")
		argNum++
	}

	if params.DateFrom != "" {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argNum))
		args = append(args, params.DateFrom)
		argNum++
	}

	if params.DateTo != "" {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argNum))
		args = append(args, params.DateTo)
		argNum++
	}

	if params.APIKeyID != nil {
		conditions = append(conditions, fmt.Sprintf("api_key_id = $%d", argNum))
		args = append(args, *params.APIKeyID)
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Validate sort column to prevent SQL injection
	validSortColumns := map[string]bool{
		"created_at": true, "original_filename": true, "opening_count": true,
	}
	if !validSortColumns[params.SortBy] {
		params.SortBy = "created_at"
	}
	if params.SortDir != "asc" && params.SortDir != "desc" {
		params.SortDir = "desc"
	}

	// Count total matching records
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM survey_sheets %s", whereClause)
	var total int
	err := db.GetContext(ctx, &total, countQuery, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			total = 0
		} else {
			return nil, 0, fmt.Errorf("count query failed: %w", err)
		}
	}

	// Fetch page of results
	offset := (params.Page - 1) * params.PerPage
	selectQuery := fmt.Sprintf(
		"SELECT * FROM survey_sheets %s ORDER BY %s %s LIMIT $%d OFFSET $%d",
		whereClause, params.SortBy, params.SortDir, argNum, argNum+1,
	)
	args = append(args, params.PerPage, offset)

	var sheets []models.SurveySheet
	err = db.SelectContext(ctx, &sheets, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list query failed: %w", err)
	}

	return sheets, total, nil
}

// DeleteSheet removes a sheet by ID. Its openings go with it via the
// ON DELETE CASCADE on sheet_openings.
func (db *DB) DeleteSheet(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM survey_sheets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete sheet: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("sheet not found")
	}
	return nil
}

// GetSheetsByIDs returns the sheets for a set of IDs, in the order given.
// Missing IDs are reported as an error — export endpoints must not silently
// skip a requested sheet.
func (db *DB) GetSheetsByIDs(ctx context.Context, ids []string) ([]models.SurveySheet, error) {
	if len(ids) == 0 {
		return []models.SurveySheet{}, nil
	}

	// Go Pattern: sqlx.In expands the slice into ($1, $2, ...) placeholders.
	// It produces '?' bindvars, so Rebind converts them to Postgres' $N form.
	query, args, err := sqlx.In(`SELECT * FROM survey_sheets WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build sheet query: %w", err)
	}
	query = db.Rebind(query)

	var sheets []models.SurveySheet
	if err := db.SelectContext(ctx, &sheets, query, args...); err != nil {
		return nil, fmt.Errorf("failed to load sheets: %w", err)
	}

	byID := make(map[string]models.SurveySheet, len(sheets))
	for _, s := range sheets {
		byID[s.ID] = s
	}

	ordered := make([]models.SurveySheet, 0, len(ids))
	for _, id := range ids {
		s, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("sheet not found: %s", id)
		}
		ordered = append(ordered, s)
	}
	return ordered, nil
}

// --- API Key Operations ---

// CreateAPIKey inserts a new API key record.
func (db *DB) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	query := `
		INSERT INTO api_keys (key_hash, key_prefix, name, active, rate_limit)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	return db.QueryRowContext(ctx, query,
		key.KeyHash, key.KeyPrefix, key.Name, key.Active, key.RateLimit,
	).Scan(&key.ID, &key.CreatedAt)
}

// GetAPIKeyByHash retrieves an API key by its hash (used during authentication).
func (db *DB) GetAPIKeyByHash(ctx context.Context, hash string) (*models.APIKey, error) {
	var key models.APIKey
	err := db.GetContext(ctx, &key,
		`SELECT * FROM api_keys WHERE key_hash = $1 AND active = true`, hash)
	if err != nil {
		return nil, fmt.Errorf("invalid API key: %w", err)
	}
	return &key, nil
}

// UpdateAPIKeyLastUsed bumps the last_used_at timestamp.
func (db *DB) UpdateAPIKeyLastUsed(ctx context.Context, id string) error {
	_, err := db.ExecContext(ctx, `UPDATE api_keys SET last_used_at = NOW() WHERE id = $1`, id)
	return err
}

// ListAPIKeys returns all API keys (active and inactive).
func (db *DB) ListAPIKeys(ctx context.Context) ([]models.APIKey, error) {
	var keys []models.APIKey
	err := db.SelectContext(ctx, &keys, `SELECT * FROM api_keys ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list API keys: %w", err)
	}
	return keys, nil
}

// RevokeAPIKey deactivates an API key.
func (db *DB) RevokeAPIKey(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `UPDATE api_keys SET active = false WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to revoke key: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("API key not found")
	}
	return nil
}
