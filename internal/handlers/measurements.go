// measurements.go records the surveyor's measured sizes against extracted
// openings (SVT-6).
//
// PUT   /api/v1/sheets/:id/measurements        — Bulk update by position
// PATCH /api/v1/sheets/:id/openings/:position  — Update one opening
package handlers

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Ashford-Glazing/survey-tools-api/internal/models"
)

// UpdateMeasurements replaces the measured values on the listed openings.
// PUT /api/v1/sheets/:id/measurements
//
// Request body:
//
//	{"openings": [{"position": 1, "width": 1150, "height": 880, "location": "Kitchen rear", "remarks": "tight reveal"}]}
//
// Openings not listed keep their current values. The update is transactional:
// one bad position rejects the whole request, so the surveyor never ends up
// with half a sheet recorded.
func (h *Handler) UpdateMeasurements(c *gin.Context) {
	id := c.Param("id")

	var req models.UpdateMeasurementsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Provide 'openings' with at least one {position, width, height} entry",
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

	if err := h.DB.UpdateMeasurements(c.Request.Context(), id, req.Openings); err != nil {
		// A position that doesn't exist on this sheet is a client error,
		// anything else is ours.
		if strings.Contains(err.Error(), "no opening at position") {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "invalid_position",
				Message: err.Error(),
				Code:    http.StatusBadRequest,
			})
			return
		}
		log.Printf("❌ Failed to update measurements for sheet %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to update measurements",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	openings, err := h.DB.GetOpeningsBySheet(c.Request.Context(), id)
	if err != nil {
		log.Printf("❌ Failed to reload openings for sheet %s: %v", id, err)
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

// UpdateOpening updates a single opening's measured values. Only the fields
// present in the body change — a PATCH with just {"remarks": "..."} leaves
// the measured sizes alone.
// PATCH /api/v1/sheets/:id/openings/:position
func (h *Handler) UpdateOpening(c *gin.Context) {
	id := c.Param("id")

	position, err := strconv.Atoi(c.Param("position"))
	if err != nil || position < 1 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_position",
			Message: "Position must be a positive integer",
			Code:    http.StatusBadRequest,
		})
		return
	}

	var req models.UpdateOpeningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}
	if req.Width == nil && req.Height == nil && req.Location == nil && req.Remarks == nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Provide at least one of width, height, location, remarks",
			Code:    http.StatusBadRequest,
		})
		return
	}

	if _, err := h.DB.GetSheet(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "Sheet not found",
			Code:    http.StatusNotFound,
		})
		return
	}

	opening, err := h.DB.UpdateOpening(c.Request.Context(), id, position, req)
	if err != nil {
		if strings.Contains(err.Error(), "no opening at position") {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "not_found",
				Message: "No opening at that position",
				Code:    http.StatusNotFound,
			})
			return
		}
		log.Printf("❌ Failed to update opening %d on sheet %s: %v", position, id, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to update opening",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	opening.Mismatch = opening.MismatchAt(h.Annotator.Layout().ToleranceMM)
	c.JSON(http.StatusOK, opening)
}
