package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	models "io.winapps.memorialboard/internal/models/board"
	getentrymodels "io.winapps.memorialboard/internal/models/get_entry"
)

// GetEntry returns the detail view of an approved entry. Unknown and pending
// ids both answer 404 with found=false.
// Query params: section (optional, defaults to memories)
func (h *FeedHandler) GetEntry(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Entry ID is required"})
		return
	}

	section := models.Section(c.Query("section")).OrDefault()
	entry, err := h.service.RenderEntry(c.Request.Context(), id, section)
	if err != nil {
		h.logError(c, err, "Failed to get entry", "entryId", id)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load entry"})
		return
	}
	if entry == nil {
		c.JSON(http.StatusNotFound, getentrymodels.GetEntryResponse{Found: false})
		return
	}
	c.JSON(http.StatusOK, getentrymodels.GetEntryResponse{Found: true, Entry: entry})
}
