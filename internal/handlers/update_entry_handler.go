package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"io.winapps.memorialboard/internal/board"
	"io.winapps.memorialboard/internal/middleware"
	updateentrymodels "io.winapps.memorialboard/internal/models/update_entry"
)

// UpdateEntry edits the content fields of an entry. Approval state is never
// changed here.
func (h *ModerationHandler) UpdateEntry(c *gin.Context) {
	var req updateentrymodels.UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	if req.EntryID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Entry ID is required"})
		return
	}

	in := board.EditInput{
		Author:    req.Author,
		Credits:   req.Credits,
		Title:     req.Title,
		Content:   req.Content,
		EventDate: req.EventDate,
		Section:   req.Section,
	}
	if err := h.service.EditFields(c.Request.Context(), middleware.IdentityFrom(c), req.EntryID, in); err != nil {
		h.respondActionError(c, err, board.ActionEdit, req.EntryID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": req.EntryID, "message": "Saved"})
}
