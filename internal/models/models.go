// Package models defines the data structures used throughout the application.
//
// Go Pattern: Models are plain structs with JSON tags for serialization.
// Unlike Rails' ActiveRecord, Go models are just data containers — no ORM
// magic. The database package handles persistence.
//
// JSON tags (e.g., `json:"id"`) control how struct fields are serialized
// to/from JSON. The `db` tags work with sqlx for database column mapping.
package models

import "time"

// SheetStatus represents the processing state of a survey sheet.
// Go Pattern: We use string constants instead of enums (Go doesn't have enums).
// This is a common pattern — define a type alias and named constants.
type SheetStatus string

const (
	StatusPending    SheetStatus = "pending"
	StatusProcessing SheetStatus = "processing"
	StatusCompleted  SheetStatus = "completed"
	StatusFailed     SheetStatus = "failed"
)

// SurveySheet represents one uploaded survey-sheet PDF and its extraction state.
//
// StoredFilename and AnnotatedFilename are server-side storage names (uuid
// based) and never leave the API; clients download through the sheet
// endpoints instead.
type SurveySheet struct {
	ID                string      `json:"id" db:"id"`
	OriginalFilename  string      `json:"original_filename" db:"original_filename"`
	StoredFilename    string      `json:"-" db:"stored_filename"`
	OutputName        string      `json:"output_name" db:"output_name"` // Base name for the annotated PDF and workbook tab
	AnnotatedFilename *string     `json:"-" db:"annotated_filename"`
	Status            SheetStatus `json:"status" db:"status"`
	PageCount         int         `json:"page_count" db:"page_count"`
	OpeningCount      int         `json:"opening_count" db:"opening_count"`
	Warning           string      `json:"warning,omitempty" db:"warning"` // e.g. "no sales lines found"
	ErrorMessage      string      `json:"error_message,omitempty" db:"error_message"`
	APIKeyID          *string     `json:"-" db:"api_key_id"`                // Pointer = nullable; scopes the sheet to a key
	BatchID           *string     `json:"batch_id,omitempty" db:"batch_id"` // Set when uploaded via the batch endpoint
	AnnotatedAt       *time.Time  `json:"annotated_at,omitempty" db:"annotated_at"`
	CreatedAt         time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at" db:"updated_at"`
}

// SheetOpening is one window opening extracted from a survey sheet: the
// ordered dimensions from the supplier block plus the surveyor's measured
// values. Position is the 1-based ordinal in document order and also picks
// the matching "Aperture Size" anchor when the sheet is annotated.
type SheetOpening struct {
	ID          string `json:"id" db:"id"`
	SheetID     string `json:"-" db:"sheet_id"`
	Position    int    `json:"position" db:"position"`
	SalesLine   string `json:"sales_line" db:"sales_line"`
	OrderWidth  int    `json:"order_width" db:"order_width"`   // mm, from the sheet
	OrderHeight int    `json:"order_height" db:"order_height"` // mm, from the sheet
	Reference   string `json:"reference" db:"reference"`
	Location    string `json:"location" db:"location"`
	System      string `json:"system" db:"system"`

	// Surveyor inputs. Zero / empty means "not measured yet".
	Width         int    `json:"width" db:"width"`   // measured mm
	Height        int    `json:"height" db:"height"` // measured mm
	LocationInput string `json:"location_input" db:"location_input"`
	Remarks       string `json:"remarks" db:"remarks"`

	Mismatch  bool      `json:"mismatch" db:"-"` // Computed, never stored
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// MismatchAt reports whether either measured dimension differs from its
// ordered counterpart by MORE than tol millimetres. A dimension only counts
// when both the ordered and the measured value are present (non-zero); an
// exact tol difference is still within tolerance.
func (o *SheetOpening) MismatchAt(tol int) bool {
	if o.OrderWidth != 0 && o.Width != 0 && abs(o.OrderWidth-o.Width) > tol {
		return true
	}
	if o.OrderHeight != 0 && o.Height != 0 && abs(o.OrderHeight-o.Height) > tol {
		return true
	}
	return false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Batch represents a group of sheet uploads processed together (SVT-4).
// Go Pattern: Using a separate table for batches lets us track aggregate
// progress without querying every sheet. The counts are denormalized for
// performance — updated as each sheet completes or fails.
type Batch struct {
	ID             string      `json:"id" db:"id"`
	Status         SheetStatus `json:"status" db:"status"`
	TotalCount     int         `json:"total_count" db:"total_count"`
	CompletedCount int         `json:"completed_count" db:"completed_count"`
	FailedCount    int         `json:"failed_count" db:"failed_count"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at" db:"updated_at"`
}

// APIKey represents an API key for authentication.
// Note: We store the HASH of the key, never the raw key itself.
type APIKey struct {
	ID         string     `json:"id" db:"id"`
	KeyHash    string     `json:"-" db:"key_hash"`            // "-" means never serialize to JSON
	KeyPrefix  string     `json:"key_prefix" db:"key_prefix"` // First 8 chars for identification
	Name       string     `json:"name" db:"name"`
	Active     bool       `json:"active" db:"active"`
	RateLimit  int        `json:"rate_limit" db:"rate_limit"` // Requests per hour
	UserID     *string    `json:"user_id,omitempty" db:"user_id"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty" db:"last_used_at"` // Pointer = nullable
}

// User is a registered account (SVT-12). Surveyors log in with email +
// password and get a JWT; the password hash never serializes.
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Name         string    `json:"name" db:"name"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// WorkspaceItem pins a sheet or batch to a user's workspace (SVT-13) so
// surveyors can keep their active jobs one click away.
type WorkspaceItem struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	ItemType  string    `json:"item_type" db:"item_type"` // "sheet" or "batch"
	ItemID    string    `json:"item_id" db:"item_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// --- Webhooks (SVT-11) ---

// Webhook is a registered callback endpoint for sheet lifecycle events.
type Webhook struct {
	ID        string    `json:"id" db:"id"`
	APIKeyID  string    `json:"api_key_id" db:"api_key_id"`
	URL       string    `json:"url" db:"url"`
	Events    []string  `json:"events" db:"events"`
	Secret    string    `json:"-" db:"secret"` // HMAC secret — shown once at creation
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ValidWebhookEvents lists the event types a webhook may subscribe to.
var ValidWebhookEvents = map[string]bool{
	"sheet.completed": true,
	"sheet.failed":    true,
	"batch.completed": true,
}

// WebhookDelivery records one delivery attempt chain for an event.
type WebhookDelivery struct {
	ID           string     `json:"id" db:"id"`
	WebhookID    string     `json:"webhook_id" db:"webhook_id"`
	Event        string     `json:"event" db:"event"`
	Payload      string     `json:"payload" db:"payload"`
	Status       string     `json:"status" db:"status"` // "pending", "success", "failed"
	Attempts     int        `json:"attempts" db:"attempts"`
	LastError    string     `json:"last_error,omitempty" db:"last_error"`
	ResponseCode int        `json:"response_code,omitempty" db:"response_code"`
	DeliveredAt  *time.Time `json:"delivered_at,omitempty" db:"delivered_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

const (
	DeliveryPending = "pending"
	DeliverySuccess = "success"
	DeliveryFailed  = "failed"
)

// WebhookPayload is the JSON body POSTed to subscriber endpoints.
type WebhookPayload struct {
	Event     string      `json:"event"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// --- Request/Response DTOs (Data Transfer Objects) ---
// Go Pattern: Separate structs for API input/output vs database models.
// This keeps your API contract clean and independent of your database schema.

// SheetResponse is a sheet together with its extracted openings.
type SheetResponse struct {
	SurveySheet
	Openings []SheetOpening `json:"openings"`
}

// UpdateSheetRequest is the JSON body for PATCH /api/v1/sheets/:id.
type UpdateSheetRequest struct {
	OutputName string `json:"output_name" binding:"required"`
}

// MeasurementEntry is one surveyed opening in a bulk measurements update.
// Width/height are millimetres; zero clears the measurement.
type MeasurementEntry struct {
	Position int    `json:"position" binding:"required,min=1"`
	Width    int    `json:"width" binding:"min=0"`
	Height   int    `json:"height" binding:"min=0"`
	Location string `json:"location"`
	Remarks  string `json:"remarks"`
}

// UpdateMeasurementsRequest is the JSON body for
// PUT /api/v1/sheets/:id/measurements. Each listed entry replaces that
// opening's measured values wholesale; openings not listed are untouched.
type UpdateMeasurementsRequest struct {
	Openings []MeasurementEntry `json:"openings" binding:"required,min=1,dive"`
}

// UpdateOpeningRequest is the JSON body for
// PATCH /api/v1/sheets/:id/openings/:position.
// Go Pattern: Pointer fields distinguish "not provided" from zero values,
// so a PATCH can update remarks without clobbering the measured width.
type UpdateOpeningRequest struct {
	Width    *int    `json:"width" binding:"omitempty,min=0"`
	Height   *int    `json:"height" binding:"omitempty,min=0"`
	Location *string `json:"location"`
	Remarks  *string `json:"remarks"`
}

// AnnotateResponse reports what POST /api/v1/sheets/:id/annotate stamped.
type AnnotateResponse struct {
	Sheet     SurveySheet `json:"sheet"`
	Annotated int         `json:"annotated"` // openings actually stamped
	Anchors   int         `json:"anchors"`   // "Aperture Size" hits found
}

// ExportSelection is the JSON body for the combined workbook and ZIP bundle
// endpoints (SVT-8). Prefix defaults to "output" when empty.
type ExportSelection struct {
	Prefix   string   `json:"prefix"`
	SheetIDs []string `json:"sheet_ids" binding:"required,min=1,max=25"`
}

// CreateAPIKeyRequest is the JSON body for POST /api/v1/keys.
type CreateAPIKeyRequest struct {
	Name      string `json:"name" binding:"required"`
	RateLimit int    `json:"rate_limit,omitempty"` // 0 = use default
}

// CreateAPIKeyResponse includes the raw key — shown only once at creation time.
type CreateAPIKeyResponse struct {
	APIKey
	RawKey string `json:"raw_key"` // The actual API key — save it! Only shown once.
}

// BatchResponse is the API response for batch upload and batch status.
type BatchResponse struct {
	Batch  Batch         `json:"batch"`
	Sheets []SurveySheet `json:"sheets"`
}

// --- Auth DTOs (SVT-12) ---

// RegisterRequest is the JSON body for POST /api/v1/auth/register.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

// LoginRequest is the JSON body for POST /api/v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse carries a JWT and the authenticated user.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// --- Webhook DTOs (SVT-11) ---

// CreateWebhookRequest is the JSON body for POST /api/v1/webhooks.
type CreateWebhookRequest struct {
	URL    string   `json:"url" binding:"required,url"`
	Events []string `json:"events" binding:"required,min=1"`
}

// UpdateWebhookRequest toggles a webhook on or off.
type UpdateWebhookRequest struct {
	Active *bool `json:"active"`
}

// --- Workspace DTOs (SVT-13) ---

// SaveWorkspaceItemRequest pins an item to the caller's workspace.
type SaveWorkspaceItemRequest struct {
	ItemType string `json:"item_type" binding:"required,oneof=sheet batch"`
	ItemID   string `json:"item_id" binding:"required"`
}

// WorkspaceResponse groups a user's pinned items by type.
type WorkspaceResponse struct {
	Sheets  []SurveySheet `json:"sheets"`
	Batches []Batch       `json:"batches"`
}

// SheetListParams holds query parameters for listing sheets.
type SheetListParams struct {
	Page     int         `form:"page"`      // Page number (1-indexed)
	PerPage  int         `form:"per_page"`  // Items per page
	Status   SheetStatus `form:"status"`    // Filter by status
	Search   string      `form:"search"`    // Search in filename/output name
	SortBy   string      `form:"sort_by"`   // "created_at", "original_filename", "opening_count"
	SortDir  string      `form:"sort_dir"`  // "asc" or "desc"
	DateFrom string      `form:"date_from"` // ISO date string
	DateTo   string      `form:"date_to"`   // ISO date string

	APIKeyID *string `form:"-"` // Set by the handler from the authenticated key
}

// Normalize applies paging and sorting defaults in place: page floors at 1,
// per_page outside 1-100 falls back to 20. Both the handler and the query
// layer run this, so the echoed pagination always matches the query bounds.
func (p *SheetListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 || p.PerPage > 100 {
		p.PerPage = 20
	}
	if p.SortBy == "" {
		p.SortBy = "created_at"
	}
	if p.SortDir == "" {
		p.SortDir = "desc"
	}
}

// PaginatedResponse wraps a list response with pagination metadata.
// Go Pattern: Generics (added in Go 1.18) let us create type-safe
// containers. `any` is an alias for `interface{}` — it means "any type".
type PaginatedResponse[T any] struct {
	Data       []T `json:"data"`
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// ErrorResponse is a standard error format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Database string `json:"database"`
	Workers  int    `json:"workers"`
}
