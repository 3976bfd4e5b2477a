package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"io.winapps.memorialboard/internal/board"
	"io.winapps.memorialboard/internal/middleware"
	approveentrymodels "io.winapps.memorialboard/internal/models/approve_entry"
)

// ApproveEntry publishes a pending entry.
func (h *ModerationHandler) ApproveEntry(c *gin.Context) {
	var req approveentrymodels.ApproveEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	if req.EntryID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Entry ID is required"})
		return
	}

	if err := h.service.Approve(c.Request.Context(), middleware.IdentityFrom(c), req.EntryID); err != nil {
		h.respondActionError(c, err, board.ActionApprove, req.EntryID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": req.EntryID, "message": "Approved"})
}

func (h *ModerationHandler) respondActionError(c *gin.Context, err error, action, id string) {
	if statusFor(err) == http.StatusInternalServerError {
		h.logError(c, err, "Moderation action failed", "action", action, "entryId", id)
	}
	respondError(c, err, board.SurfaceModal)
}
