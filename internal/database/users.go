// users.go handles user-related database operations (SVT-12).
package database

import (
	"context"
	"fmt"

	"github.com/Ashford-Glazing/survey-tools-api/internal/models"
)

// CreateUser inserts a new user record.
func (db *DB) CreateUser(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (email, password_hash, name)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	return db.QueryRowContext(ctx, query,
		u.Email, u.PasswordHash, u.Name,
	).Scan(&u.ID, &u.CreatedAt)
}

// GetUserByEmail retrieves a user by email address.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := db.GetContext(ctx, &u, `SELECT * FROM users WHERE email = $1`, email)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	return &u, nil
}

// GetUserByID retrieves a user by ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := db.GetContext(ctx, &u, `SELECT * FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	return &u, nil
}

// --- Workspace Operations (SVT-13) ---

// SaveWorkspaceItem pins a sheet or batch to a user's workspace.
func (db *DB) SaveWorkspaceItem(ctx context.Context, item *models.WorkspaceItem) error {
	query := `
		INSERT INTO workspace_items (user_id, item_type, item_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, item_type, item_id) DO NOTHING
		RETURNING id, created_at`

	return db.QueryRowContext(ctx, query,
		item.UserID, item.ItemType, item.ItemID,
	).Scan(&item.ID, &item.CreatedAt)
}

// RemoveWorkspaceItem unpins an item from a user's workspace.
func (db *DB) RemoveWorkspaceItem(ctx context.Context, userID, itemType, itemID string) error {
	_, err := db.ExecContext(ctx,
		`DELETE FROM workspace_items WHERE user_id = $1 AND item_type = $2 AND item_id = $3`,
		userID, itemType, itemID)
	return err
}

// GetWorkspaceSheets returns sheets pinned to a user's workspace.
func (db *DB) GetWorkspaceSheets(ctx context.Context, userID string) ([]models.SurveySheet, error) {
	var sheets []models.SurveySheet
	err := db.SelectContext(ctx, &sheets,
		`SELECT s.* FROM survey_sheets s
		 JOIN workspace_items wi ON wi.item_id = s.id AND wi.item_type = 'sheet'
		 WHERE wi.user_id = $1
		 ORDER BY wi.created_at DESC LIMIT 50`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get workspace sheets: %w", err)
	}
	return sheets, nil
}

// GetWorkspaceBatches returns batches pinned to a user's workspace.
func (db *DB) GetWorkspaceBatches(ctx context.Context, userID string) ([]models.Batch, error) {
	var batches []models.Batch
	err := db.SelectContext(ctx, &batches,
		`SELECT b.* FROM batches b
		 JOIN workspace_items wi ON wi.item_id = b.id AND wi.item_type = 'batch'
		 WHERE wi.user_id = $1
		 ORDER BY wi.created_at DESC LIMIT 50`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get workspace batches: %w", err)
	}
	return batches, nil
}

// LinkAPIKeyToUser associates an API key with a user.
func (db *DB) LinkAPIKeyToUser(ctx context.Context, apiKeyID, userID string) error {
	result, err := db.ExecContext(ctx, `UPDATE api_keys SET user_id = $2 WHERE id = $1`, apiKeyID, userID)
	if err != nil {
		return fmt.Errorf("failed to link API key: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("API key not found")
	}
	return nil
}
