// annotate.go renders the annotated survey sheet (SVT-7).
//
// POST /api/v1/sheets/:id/annotate
//
// Annotation stamps the measured size, location and remarks next to each
// "Aperture Size" block in the PDF, colour-coded by whether the measured
// size agrees with the ordered size. It always starts from the ORIGINAL
// upload, so re-annotating after correcting a measurement never stacks
// stamps on stamps.
package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ashford-Glazing/survey-tools-api/internal/models"
)

// AnnotateSheet generates the annotated PDF for a sheet.
// POST /api/v1/sheets/:id/annotate
//
// The response reports how many openings were stamped and how many anchor
// blocks were found — a mismatch between the two tells the user the sheet
// layout and the extraction disagree.
func (h *Handler) AnnotateSheet(c *gin.Context) {
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

	inPath, err := h.Store.Path(s.StoredFilename)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "storage_error",
			Message: "Stored file reference is invalid",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	// Each run writes a fresh file; the previous annotated copy (if any) is
	// removed only after the new one succeeds.
	annotatedName := h.Store.NewStoredName()
	outPath, err := h.Store.Path(annotatedName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "storage_error",
			Message: "Failed to allocate output file",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	result, err := h.Annotator.Annotate(inPath, outPath, openings)
	if err != nil {
		log.Printf("❌ Annotation failed for sheet %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "annotation_failed",
			Message: "Failed to annotate PDF: " + err.Error(),
			Code:    http.StatusInternalServerError,
		})
		return
	}

	previous := s.AnnotatedFilename
	if err := h.DB.MarkSheetAnnotated(c.Request.Context(), s, annotatedName); err != nil {
		log.Printf("❌ Failed to record annotation for sheet %s: %v", id, err)
		h.Store.Delete(annotatedName) // don't leak the orphaned output
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to record annotation",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	if previous != nil && *previous != annotatedName {
		if err := h.Store.Delete(*previous); err != nil {
			log.Printf("⚠️  Failed to delete old annotated file %s: %v", *previous, err)
		}
	}

	c.JSON(http.StatusOK, models.AnnotateResponse{
		Sheet:     *s,
		Annotated: result.Annotated,
		Anchors:   result.Anchors,
	})
}
