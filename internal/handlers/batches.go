// batches.go handles batch sheet processing endpoints (SVT-4).
//
// Batch processing lets surveyors upload a whole job's worth of sheets at
// once. Each PDF becomes its own sheet record, all linked to a single batch.
// The batch provides aggregate status tracking while the worker pool chews
// through the extractions in the background.
package handlers

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Ashford-Glazing/survey-tools-api/internal/middleware"
	"github.com/Ashford-Glazing/survey-tools-api/internal/models"
	sheetservice "github.com/Ashford-Glazing/survey-tools-api/internal/services/sheet"
	"github.com/Ashford-Glazing/survey-tools-api/internal/services/worker"
)

// maxBatchFiles caps how many PDFs one batch upload may carry.
const maxBatchFiles = 10

// CreateBatch accepts multiple survey-sheet PDFs and extracts them in the
// background.
// POST /api/v1/batches
//
// Accepts a multipart form with 1-10 PDFs under the field name "files".
// Unlike the single-sheet endpoint, extraction here is asynchronous: the
// response returns immediately with every sheet in "pending" status, and
// the client polls GET /batches/:id for progress.
//
// Go Pattern: "Validate early, fail fast." Every file is checked before any
// record is created — if PDF #5 is bad, we don't want records already
// sitting in the database for PDFs #1-4.
func (h *Handler) CreateBatch(c *gin.Context) {
	// One limit for the whole request — batches of scanned survey sheets
	// are small, and this bounds the memory the upload can pin.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPDFSize)

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Provide 1-10 PDF files under the field name 'files'. Max size: 50MB total.",
			Code:    http.StatusBadRequest,
		})
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "No files provided. Upload PDFs under the field name 'files'.",
			Code:    http.StatusBadRequest,
		})
		return
	}
	if len(files) > maxBatchFiles {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "too_many_files",
			Message: fmt.Sprintf("Maximum %d files per batch request", maxBatchFiles),
			Code:    http.StatusBadRequest,
		})
		return
	}

	// Step 1: Validate and read ALL files before creating any records.
	type upload struct {
		filename string
		data     []byte
	}
	uploads := make([]upload, 0, len(files))

	for _, fh := range files {
		ext := strings.ToLower(filepath.Ext(fh.Filename))
		if ext != ".pdf" {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "invalid_file_type",
				Message: fmt.Sprintf("Unsupported file format '%s' (%s). Only .pdf files are accepted.", ext, fh.Filename),
				Code:    http.StatusBadRequest,
			})
			return
		}

		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "read_error",
				Message: "Failed to read uploaded file " + fh.Filename,
				Code:    http.StatusBadRequest,
			})
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "read_error",
				Message: "Failed to read uploaded file " + fh.Filename,
				Code:    http.StatusBadRequest,
			})
			return
		}

		if !sheetservice.ValidatePDF(data) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "invalid_pdf",
				Message: fh.Filename + " does not appear to be a valid PDF",
				Code:    http.StatusBadRequest,
			})
			return
		}

		uploads = append(uploads, upload{filename: fh.Filename, data: data})
	}

	// Step 2: Create the batch record
	batch := &models.Batch{
		Status:     models.StatusPending,
		TotalCount: len(uploads),
	}

	if err := h.DB.CreateBatch(c.Request.Context(), batch); err != nil {
		log.Printf("❌ Failed to create batch: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to create batch record",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	var apiKeyID *string
	if apiKey := middleware.GetAPIKey(c); apiKey != nil {
		apiKeyID = &apiKey.ID
	}

	// Step 3: Store each PDF, create its sheet record and queue extraction
	sheets := make([]models.SurveySheet, 0, len(uploads))

	for _, up := range uploads {
		storedFilename := h.Store.NewStoredName()
		if err := h.Store.Save(storedFilename, up.data); err != nil {
			log.Printf("❌ Failed to store %s: %v", up.filename, err)
			// Continue with remaining files — partial success is better
			// than total failure.
			continue
		}

		s := &models.SurveySheet{
			OriginalFilename: up.filename,
			StoredFilename:   storedFilename,
			OutputName:       defaultOutputName(up.filename),
			Status:           models.StatusPending,
			APIKeyID:         apiKeyID,
			BatchID:          &batch.ID,
		}

		if err := h.DB.CreateSheet(c.Request.Context(), s); err != nil {
			log.Printf("❌ Failed to create sheet for %s: %v", up.filename, err)
			continue
		}

		job := worker.Job{
			ID:        s.ID,
			Type:      worker.JobSheetExtraction,
			CreatedAt: time.Now(),
		}

		if err := h.Worker.Submit(job); err != nil {
			queued := false
			if h.isOwnerRequest(c) {
				ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
				if err := h.Worker.SubmitBlocking(ctx, job); err == nil {
					queued = true
				}
				cancel()
			}
			if !queued {
				// The sheet record exists but extraction didn't start; it
				// stays "pending" and the client can re-upload.
				log.Printf("⚠️  Failed to queue extraction for sheet %s: %v", s.ID, err)
			}
		}

		sheets = append(sheets, *s)
	}

	// Return 202 Accepted — the work is happening in the background
	c.JSON(http.StatusAccepted, models.BatchResponse{
		Batch:  *batch,
		Sheets: sheets,
	})
}

// GetBatch retrieves the status of a batch and its sheets.
// GET /api/v1/batches/:id
//
// This endpoint recalculates the batch counts from the actual sheet
// statuses, ensuring accuracy even if a worker update was missed.
func (h *Handler) GetBatch(c *gin.Context) {
	id := c.Param("id")

	// First, update the batch counts from actual sheet data
	// Go Pattern: Self-healing data — we recalculate on every read
	// rather than trusting stale counters. The performance cost is
	// minimal since it's a single indexed query.
	if err := h.DB.UpdateBatchCounts(c.Request.Context(), id); err != nil {
		log.Printf("⚠️  Failed to update batch counts: %v", err)
		// Non-fatal — continue with potentially stale counts
	}

	batch, err := h.DB.GetBatch(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "Batch not found",
			Code:    http.StatusNotFound,
		})
		return
	}

	sheets, err := h.DB.GetSheetsByBatch(c.Request.Context(), id)
	if err != nil {
		log.Printf("⚠️  Failed to get batch sheets: %v", err)
		sheets = nil // fall through to the empty array below
	}
	if sheets == nil {
		sheets = []models.SurveySheet{} // Return empty array, not null
	}

	c.JSON(http.StatusOK, models.BatchResponse{
		Batch:  *batch,
		Sheets: sheets,
	})
}
