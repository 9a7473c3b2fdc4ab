// workspace.go handles workspace-related HTTP endpoints (SVT-13).
//
// A workspace is a user's pinboard: the sheets and batches for the jobs
// they're currently surveying, so they don't have to trawl the full list.
package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ashford-Glazing/survey-tools-api/internal/middleware"
	"github.com/Ashford-Glazing/survey-tools-api/internal/models"
)

// GetWorkspace returns the authenticated user's pinned items.
// GET /api/v1/workspace
func (h *Handler) GetWorkspace(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "unauthorized",
			Message: "Login required to access workspace",
			Code:    http.StatusUnauthorized,
		})
		return
	}

	sheets, err := h.DB.GetWorkspaceSheets(c.Request.Context(), user.ID)
	if err != nil {
		log.Printf("⚠️  Failed to get workspace sheets: %v", err)
		sheets = []models.SurveySheet{}
	}

	batches, err := h.DB.GetWorkspaceBatches(c.Request.Context(), user.ID)
	if err != nil {
		log.Printf("⚠️  Failed to get workspace batches: %v", err)
		batches = []models.Batch{}
	}

	c.JSON(http.StatusOK, models.WorkspaceResponse{
		Sheets:  sheets,
		Batches: batches,
	})
}

// SaveToWorkspace pins an item to the authenticated user's workspace.
// POST /api/v1/workspace
func (h *Handler) SaveToWorkspace(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "unauthorized",
			Message: "Login required to save to workspace",
			Code:    http.StatusUnauthorized,
		})
		return
	}

	var req models.SaveWorkspaceItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "item_type ('sheet' or 'batch') and item_id are required",
			Code:    http.StatusBadRequest,
		})
		return
	}

	item := &models.WorkspaceItem{
		UserID:   user.ID,
		ItemType: req.ItemType,
		ItemID:   req.ItemID,
	}

	if err := h.DB.SaveWorkspaceItem(c.Request.Context(), item); err != nil {
		// ON CONFLICT DO NOTHING means it might already exist — that's fine
		c.JSON(http.StatusOK, gin.H{"message": "Item saved to workspace"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Item saved to workspace", "id": item.ID})
}

// RemoveFromWorkspace unpins an item from the authenticated user's workspace.
// DELETE /api/v1/workspace/:type/:id
func (h *Handler) RemoveFromWorkspace(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "unauthorized",
			Message: "Login required",
			Code:    http.StatusUnauthorized,
		})
		return
	}

	itemType := c.Param("type")
	itemID := c.Param("id")

	if err := h.DB.RemoveWorkspaceItem(c.Request.Context(), user.ID, itemType, itemID); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to remove item",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Item removed from workspace"})
}
