// exports.go handles sheet export in multiple formats (SVT-8).
//
// Supported per-sheet formats:
//   - xlsx — Excel workbook with one worksheet
//   - csv  — Plain CSV, same columns
//   - json — The openings as a JSON array
//
// Multi-sheet exports:
//   - POST /exports/workbook — One workbook, a worksheet per sheet
//   - POST /exports/bundle   — Zip of the workbook plus every annotated PDF
//
// Go Pattern: Each export format is its own function. This makes it easy
// to add new formats later — just add a case to the switch and a new
// formatter function. This is the "Strategy pattern" without the ceremony.
package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Ashford-Glazing/survey-tools-api/internal/models"
	"github.com/Ashford-Glazing/survey-tools-api/internal/services/export"
)

// xlsxContentType is the MIME type for .xlsx files.
const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportSheet exports one sheet's openings in the requested format.
// GET /api/v1/sheets/:id/export?format=xlsx|csv|json
//
// Response headers are set for file download:
//   - Content-Type: appropriate MIME type
//   - Content-Disposition: attachment with filename
func (h *Handler) ExportSheet(c *gin.Context) {
	id := c.Param("id")
	format := c.DefaultQuery("format", "xlsx")

	// Validate format before doing any database work
	validFormats := map[string]bool{"xlsx": true, "csv": true, "json": true}
	if !validFormats[format] {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_format",
			Message: "Supported formats: xlsx, csv, json",
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

	if s.Status != models.StatusCompleted {
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "sheet_not_ready",
			Message: "Sheet extraction has not completed (status: " + string(s.Status) + ")",
			Code:    http.StatusConflict,
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

	// Generate a clean filename from the output name
	// Go Pattern: We sanitize the name for use in filenames. This prevents
	// issues with special characters in Content-Disposition headers.
	filename := sanitizeFilename(s.OutputName)
	if filename == "" {
		filename = "sheet"
	}

	// Route to the appropriate formatter
	// Go Pattern: Switch on the format string — clean and extensible.
	switch format {
	case "xlsx":
		h.exportXLSX(c, s, openings, filename)
	case "csv":
		exportCSV(c, openings, filename)
	case "json":
		h.exportJSON(c, openings, filename)
	}
}

// exportXLSX returns a single-worksheet workbook for one sheet.
func (h *Handler) exportXLSX(c *gin.Context, s *models.SurveySheet, openings []models.SheetOpening, filename string) {
	wb, err := export.BuildWorkbook([]export.WorkbookEntry{
		{Name: s.OutputName, Openings: openings},
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "export_error",
			Message: "Failed to build workbook: " + err.Error(),
			Code:    http.StatusInternalServerError,
		})
		return
	}
	defer wb.Close()

	var buf bytes.Buffer
	if err := wb.Write(&buf); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "export_error",
			Message: "Failed to write workbook",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// exportCSV returns the openings as CSV.
func exportCSV(c *gin.Context, openings []models.SheetOpening, filename string) {
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, openings); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "export_error",
			Message: "Failed to write CSV",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// exportJSON returns the openings as a bare JSON array, with the computed
// mismatch flag filled in. Sheet metadata is already available from
// GET /sheets/:id, so the export stays script-friendly.
func (h *Handler) exportJSON(c *gin.Context, openings []models.SheetOpening, filename string) {
	jsonBytes, err := json.MarshalIndent(h.withMismatch(openings), "", "  ")
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "export_error",
			Message: "Failed to generate JSON export",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.json"`, filename))
	c.Data(http.StatusOK, "application/json; charset=utf-8", jsonBytes)
}

// ExportWorkbook builds one workbook with a worksheet per selected sheet.
// POST /api/v1/exports/workbook
//
// Request body:
//
//	{"prefix": "harlow_site", "sheet_ids": ["...", "..."]}
//
// Worksheet tabs take each sheet's output name; names that collide after
// sanitising get a numeric suffix.
func (h *Handler) ExportWorkbook(c *gin.Context) {
	var req models.ExportSelection
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Provide 'sheet_ids' with 1-25 sheet IDs",
			Code:    http.StatusBadRequest,
		})
		return
	}

	sheets, ok := h.loadSelection(c, req.SheetIDs)
	if !ok {
		return
	}

	entries := make([]export.WorkbookEntry, 0, len(sheets))
	for _, s := range sheets {
		openings, err := h.DB.GetOpeningsBySheet(c.Request.Context(), s.ID)
		if err != nil {
			log.Printf("❌ Failed to load openings for sheet %s: %v", s.ID, err)
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "database_error",
				Message: "Failed to load openings",
				Code:    http.StatusInternalServerError,
			})
			return
		}
		entries = append(entries, export.WorkbookEntry{Name: s.OutputName, Openings: openings})
	}

	wb, err := export.BuildWorkbook(entries)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "export_error",
			Message: "Failed to build workbook: " + err.Error(),
			Code:    http.StatusInternalServerError,
		})
		return
	}
	defer wb.Close()

	var buf bytes.Buffer
	if err := wb.Write(&buf); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "export_error",
			Message: "Failed to write workbook",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	prefix := exportPrefix(req.Prefix)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, prefix))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ExportBundle zips the combined workbook together with every selected
// sheet's annotated PDF.
// POST /api/v1/exports/bundle
//
// Every selected sheet must already be annotated, and output names must be
// unique — they become the PDF filenames inside the zip.
func (h *Handler) ExportBundle(c *gin.Context) {
	var req models.ExportSelection
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Provide 'sheet_ids' with 1-25 sheet IDs",
			Code:    http.StatusBadRequest,
		})
		return
	}

	sheets, ok := h.loadSelection(c, req.SheetIDs)
	if !ok {
		return
	}

	// Every sheet needs its annotated PDF before it can ship in a bundle.
	var notAnnotated []string
	for _, s := range sheets {
		if s.AnnotatedFilename == nil {
			notAnnotated = append(notAnnotated, s.OutputName)
		}
	}
	if len(notAnnotated) > 0 {
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "not_annotated",
			Message: "Annotate these sheets first: " + strings.Join(notAnnotated, ", "),
			Code:    http.StatusConflict,
		})
		return
	}

	items := make([]export.BundleItem, 0, len(sheets))
	for _, s := range sheets {
		pdfPath, err := h.Store.Path(*s.AnnotatedFilename)
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "storage_error",
				Message: "Annotated file reference is invalid",
				Code:    http.StatusInternalServerError,
			})
			return
		}
		openings, err := h.DB.GetOpeningsBySheet(c.Request.Context(), s.ID)
		if err != nil {
			log.Printf("❌ Failed to load openings for sheet %s: %v", s.ID, err)
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "database_error",
				Message: "Failed to load openings",
				Code:    http.StatusInternalServerError,
			})
			return
		}
		items = append(items, export.BundleItem{
			Name:     s.OutputName,
			PDFPath:  pdfPath,
			Openings: openings,
		})
	}

	// Output names become filenames inside the zip — duplicates would
	// silently shadow each other, so refuse and tell the user which ones.
	if dupes := export.DuplicateNames(items); len(dupes) > 0 {
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "duplicate_names",
			Message: "Rename these sheets before bundling: " + strings.Join(dupes, ", "),
			Code:    http.StatusConflict,
		})
		return
	}

	prefix := exportPrefix(req.Prefix)

	var buf bytes.Buffer
	if err := export.WriteBundle(&buf, prefix, items); err != nil {
		log.Printf("❌ Failed to build bundle: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "export_error",
			Message: "Failed to build bundle: " + err.Error(),
			Code:    http.StatusInternalServerError,
		})
		return
	}

	filename := export.BundleName(prefix, time.Now())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/zip", buf.Bytes())
}

// loadSelection fetches the selected sheets and writes the error response
// itself when the selection is bad. All sheets must exist and be fully
// extracted.
func (h *Handler) loadSelection(c *gin.Context, ids []string) ([]models.SurveySheet, bool) {
	sheets, err := h.DB.GetSheetsByIDs(c.Request.Context(), ids)
	if err != nil {
		if strings.Contains(err.Error(), "sheet not found") {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "not_found",
				Message: err.Error(),
				Code:    http.StatusNotFound,
			})
			return nil, false
		}
		log.Printf("❌ Failed to load sheets: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to load sheets",
			Code:    http.StatusInternalServerError,
		})
		return nil, false
	}

	var notReady []string
	for _, s := range sheets {
		if s.Status != models.StatusCompleted {
			notReady = append(notReady, s.OutputName)
		}
	}
	if len(notReady) > 0 {
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "sheet_not_ready",
			Message: "These sheets have not finished extraction: " + strings.Join(notReady, ", "),
			Code:    http.StatusConflict,
		})
		return nil, false
	}

	return sheets, true
}

// exportPrefix cleans the user-supplied filename prefix, falling back to
// "output" — the name the site teams' old spreadsheet macro expects.
func exportPrefix(prefix string) string {
	p := sanitizeFilename(strings.TrimSpace(prefix))
	if p == "" {
		return "output"
	}
	return p
}

// sanitizeFilename removes characters that aren't safe for filenames.
// Go Pattern: Keep it simple — replace unsafe characters with hyphens
// and trim the result. We don't need a full filesystem-safe sanitizer
// since this is just for the Content-Disposition header.
func sanitizeFilename(name string) string {
	// Replace common unsafe characters
	replacer := strings.NewReplacer(
		"/", "-", "\\", "-", ":", "-", "*", "-",
		"?", "-", "\"", "-", "<", "-", ">", "-",
		"|", "-", "\n", " ", "\r", "",
	)
	name = replacer.Replace(name)

	// Collapse multiple hyphens/spaces
	for strings.Contains(name, "  ") {
		name = strings.ReplaceAll(name, "  ", " ")
	}
	for strings.Contains(name, "--") {
		name = strings.ReplaceAll(name, "--", "-")
	}

	name = strings.TrimSpace(name)

	// Limit length
	if len(name) > 100 {
		name = name[:100]
	}

	return name
}
