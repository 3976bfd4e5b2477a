package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"io.winapps.memorialboard/internal/board"
	"io.winapps.memorialboard/internal/middleware"
	deleteentrymodels "io.winapps.memorialboard/internal/models/delete_entry"
)

// DeleteEntry permanently removes an entry. The body must carry
// "confirm": true.
func (h *ModerationHandler) DeleteEntry(c *gin.Context) {
	var req deleteentrymodels.DeleteEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	if req.EntryID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Entry ID is required"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), middleware.IdentityFrom(c), req.EntryID, req.Confirm); err != nil {
		h.respondActionError(c, err, board.ActionDelete, req.EntryID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": req.EntryID, "message": "Deleted"})
}
