// sheets.go handles survey-sheet HTTP endpoints (SVT-3).
//
// POST   /api/v1/sheets            — Upload a survey-sheet PDF for extraction
// GET    /api/v1/sheets            — List sheets (paginated)
// GET    /api/v1/sheets/:id        — Get one sheet with its openings
// PATCH  /api/v1/sheets/:id        — Rename the output (annotated PDF / workbook tab)
// DELETE /api/v1/sheets/:id        — Delete a sheet and its stored files
// GET    /api/v1/sheets/:id/file      — Download the original upload
// GET    /api/v1/sheets/:id/annotated — Download the annotated PDF
package handlers

import (
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Ashford-Glazing/survey-tools-api/internal/middleware"
	"github.com/Ashford-Glazing/survey-tools-api/internal/models"
	sheetservice "github.com/Ashford-Glazing/survey-tools-api/internal/services/sheet"
)

// maxPDFSize is the max upload size for PDF files (50MB).
const maxPDFSize = 50 << 20 // 50MB

// UploadSheet handles survey-sheet PDF upload and extraction.
// POST /api/v1/sheets
//
// Accepts multipart file upload with field name "file". Only .pdf files are
// accepted. Extraction runs synchronously — a single sheet parses in well
// under a second, so there is no reason to make the client poll.
func (h *Handler) UploadSheet(c *gin.Context) {
	// Limit request body size
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPDFSize)

	// Get the uploaded file
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "No PDF file provided. Upload a file with the field name 'file'. Max size: 50MB.",
			Code:    http.StatusBadRequest,
		})
		return
	}
	defer file.Close()

	// Validate file extension
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".pdf" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_file_type",
			Message: fmt.Sprintf("Unsupported file format '%s'. Only .pdf files are accepted.", ext),
			Code:    http.StatusBadRequest,
		})
		return
	}

	// Read the entire file into memory for the PDF library
	// Go Pattern: io.ReadAll reads the entire reader into a byte slice.
	// For PDFs up to 50MB this is fine — the pdf library needs random access.
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "read_error",
			Message: "Failed to read uploaded file",
			Code:    http.StatusBadRequest,
		})
		return
	}

	// Validate PDF magic bytes
	if !sheetservice.ValidatePDF(data) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_pdf",
			Message: "The uploaded file does not appear to be a valid PDF",
			Code:    http.StatusBadRequest,
		})
		return
	}

	// Keep the original on disk — annotation re-reads it later, and the
	// surveyor may want the untouched file back.
	storedFilename := h.Store.NewStoredName()
	if err := h.Store.Save(storedFilename, data); err != nil {
		log.Printf("❌ Failed to store %s: %v", header.Filename, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "storage_error",
			Message: "Failed to store uploaded file",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	// Get the API key from context (set by auth middleware)
	var apiKeyID *string
	if apiKey := middleware.GetAPIKey(c); apiKey != nil {
		apiKeyID = &apiKey.ID
	}

	// Extract text from the PDF (synchronous — sheets process fast)
	extraction, err := sheetservice.Extract(data)
	if err != nil {
		log.Printf("❌ Extraction failed for %s: %v", header.Filename, err)

		// Save the failed record so the upload still shows up in the list
		s := &models.SurveySheet{
			OriginalFilename: header.Filename,
			StoredFilename:   storedFilename,
			OutputName:       defaultOutputName(header.Filename),
			Status:           models.StatusFailed,
			ErrorMessage:     err.Error(),
			APIKeyID:         apiKeyID,
		}
		if dbErr := h.DB.CreateSheet(c.Request.Context(), s); dbErr != nil {
			log.Printf("⚠️  Failed to record failed sheet: %v", dbErr)
		}
		h.Webhooks.NotifyEvent(c.Request.Context(), "sheet.failed", s)

		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "extraction_failed",
			Message: "PDF text extraction failed: " + err.Error(),
			Code:    http.StatusInternalServerError,
		})
		return
	}

	openings := sheetservice.ParseOpenings(extraction.Text)

	// Save the completed sheet
	s := &models.SurveySheet{
		OriginalFilename: header.Filename,
		StoredFilename:   storedFilename,
		OutputName:       defaultOutputName(header.Filename),
		Status:           models.StatusCompleted,
		PageCount:        extraction.PageCount,
		OpeningCount:     len(openings),
		APIKeyID:         apiKeyID,
	}
	if len(openings) == 0 {
		s.Warning = "no sales lines were detected in this PDF"
	}

	if err := h.DB.CreateSheet(c.Request.Context(), s); err != nil {
		log.Printf("❌ Failed to create sheet record: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to create sheet record",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	rows := openingRows(s.ID, openings)
	if err := h.DB.ReplaceOpenings(c.Request.Context(), s.ID, rows); err != nil {
		log.Printf("❌ Failed to save openings for sheet %s: %v", s.ID, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to save extracted openings",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	h.Webhooks.NotifyEvent(c.Request.Context(), "sheet.completed", s)

	c.JSON(http.StatusOK, models.SheetResponse{
		SurveySheet: *s,
		Openings:    h.withMismatch(rows),
	})
}

// GetSheet retrieves a single sheet with its extracted openings.
// GET /api/v1/sheets/:id
func (h *Handler) GetSheet(c *gin.Context) {
	id := c.Param("id")

	s, err := h.DB.GetSheet(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "Sheet not found",
			Code:    http.StatusNotFound,
		})
		return
	}

	openings, err := h.DB.GetOpeningsBySheet(c.Request.Context(), id)
	if err != nil {
		log.Printf("❌ Failed to load openings for sheet %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to load openings",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, models.SheetResponse{
		SurveySheet: *s,
		Openings:    h.withMismatch(openings),
	})
}

// ListSheets returns a paginated list of sheets.
// GET /api/v1/sheets?page=1&per_page=20&status=completed&search=plot
func (h *Handler) ListSheets(c *gin.Context) {
	// Go Pattern: ShouldBindQuery reads query parameters into a struct
	// using the `form` tags. Similar to Express's req.query but type-safe.
	var params models.SheetListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_params",
			Message: "Invalid query parameters: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}

	// Filter by the authenticated API key
	if apiKey := middleware.GetAPIKey(c); apiKey != nil {
		params.APIKeyID = &apiKey.ID
	}

	// Clamp paging before the query so the echoed page/per_page are the
	// values actually used — an out-of-range per_page falls back to 20.
	params.Normalize()

	sheets, total, err := h.DB.ListSheets(c.Request.Context(), params)
	if err != nil {
		log.Printf("❌ Failed to list sheets: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to list sheets",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	// Ensure we return an empty array, not null
	if sheets == nil {
		sheets = []models.SurveySheet{}
	}

	c.JSON(http.StatusOK, models.PaginatedResponse[models.SurveySheet]{
		Data:       sheets,
		Page:       params.Page,
		PerPage:    params.PerPage,
		TotalItems: total,
		TotalPages: int(math.Ceil(float64(total) / float64(params.PerPage))),
	})
}

// UpdateSheet renames a sheet's output. The output name becomes the annotated
// PDF's download name and the worksheet tab in exports, so it must be unique
// across sheets.
// PATCH /api/v1/sheets/:id
func (h *Handler) UpdateSheet(c *gin.Context) {
	id := c.Param("id")

	var req models.UpdateSheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "output_name is required",
			Code:    http.StatusBadRequest,
		})
		return
	}

	name := strings.TrimSpace(req.OutputName)
	if name == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "output_name must not be blank",
			Code:    http.StatusBadRequest,
		})
		return
	}

	s, err := h.DB.GetSheet(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "Sheet not found",
			Code:    http.StatusNotFound,
		})
		return
	}

	inUse, err := h.DB.OutputNameInUse(c.Request.Context(), name, id)
	if err != nil {
		log.Printf("❌ Failed to check output name: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to check output name",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	if inUse {
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "name_taken",
			Message: fmt.Sprintf("Output name %q is already used by another sheet", name),
			Code:    http.StatusConflict,
		})
		return
	}

	if err := h.DB.UpdateSheetOutputName(c.Request.Context(), id, name); err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "Sheet not found",
			Code:    http.StatusNotFound,
		})
		return
	}

	s.OutputName = name
	c.JSON(http.StatusOK, s)
}

// DeleteSheet removes a sheet, its openings and its stored files.
// DELETE /api/v1/sheets/:id
func (h *Handler) DeleteSheet(c *gin.Context) {
	id := c.Param("id")

	s, err := h.DB.GetSheet(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "Sheet not found",
			Code:    http.StatusNotFound,
		})
		return
	}

	// Check ownership - only allow deletion if the API key owns this sheet
	if apiKey := middleware.GetAPIKey(c); apiKey != nil {
		if s.APIKeyID != nil && *s.APIKeyID != apiKey.ID {
			c.JSON(http.StatusForbidden, models.ErrorResponse{
				Error:   "forbidden",
				Message: "You can only delete your own sheets",
				Code:    http.StatusForbidden,
			})
			return
		}
	}

	if err := h.DB.DeleteSheet(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "Sheet not found",
			Code:    http.StatusNotFound,
		})
		return
	}

	// Best-effort file cleanup. The DB row is gone, so a leftover file only
	// wastes disk — log it and move on.
	if err := h.Store.Delete(s.StoredFilename); err != nil {
		log.Printf("⚠️  Failed to delete stored file %s: %v", s.StoredFilename, err)
	}
	if s.AnnotatedFilename != nil {
		if err := h.Store.Delete(*s.AnnotatedFilename); err != nil {
			log.Printf("⚠️  Failed to delete annotated file %s: %v", *s.AnnotatedFilename, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Sheet deleted"})
}

// DownloadOriginal streams the original uploaded PDF back to the client.
// GET /api/v1/sheets/:id/file
func (h *Handler) DownloadOriginal(c *gin.Context) {
	s, err := h.DB.GetSheet(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "Sheet not found",
			Code:    http.StatusNotFound,
		})
		return
	}

	path, err := h.Store.Path(s.StoredFilename)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "Stored file is missing",
			Code:    http.StatusNotFound,
		})
		return
	}

	c.FileAttachment(path, s.OriginalFilename)
}

// DownloadAnnotated streams the annotated PDF. The sheet must have been
// annotated first via POST /sheets/:id/annotate.
// GET /api/v1/sheets/:id/annotated
func (h *Handler) DownloadAnnotated(c *gin.Context) {
	s, err := h.DB.GetSheet(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "Sheet not found",
			Code:    http.StatusNotFound,
		})
		return
	}

	if s.AnnotatedFilename == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_annotated",
			Message: "Sheet has not been annotated yet",
			Code:    http.StatusNotFound,
		})
		return
	}

	path, err := h.Store.Path(*s.AnnotatedFilename)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "Annotated file is missing",
			Code:    http.StatusNotFound,
		})
		return
	}

	c.FileAttachment(path, s.OutputName+".pdf")
}

// --- Helpers ---

// defaultOutputName derives the initial output name from the uploaded
// filename: "plot 7.pdf" becomes "plot 7_edited". The user can rename it
// later via PATCH /sheets/:id.
func defaultOutputName(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." {
		base = "sheet"
	}
	return base + "_edited"
}

// openingRows converts parsed openings into database rows for a sheet.
func openingRows(sheetID string, openings []sheetservice.Opening) []models.SheetOpening {
	rows := make([]models.SheetOpening, 0, len(openings))
	for _, op := range openings {
		rows = append(rows, models.SheetOpening{
			SheetID:     sheetID,
			Position:    op.Position,
			SalesLine:   op.SalesLine,
			OrderWidth:  op.OrderWidth,
			OrderHeight: op.OrderHeight,
			Reference:   op.Reference,
			Location:    op.Location,
			System:      op.System,
		})
	}
	return rows
}

// withMismatch fills in the computed Mismatch flag on each opening using the
// active annotation tolerance, and guarantees a non-nil slice for JSON.
func (h *Handler) withMismatch(openings []models.SheetOpening) []models.SheetOpening {
	if openings == nil {
		return []models.SheetOpening{}
	}
	tol := h.Annotator.Layout().ToleranceMM
	for i := range openings {
		openings[i].Mismatch = openings[i].MismatchAt(tol)
	}
	return openings
}
