package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"io.winapps.memorialboard/internal/board"
	"io.winapps.memorialboard/internal/middleware"
)

// ListPending returns the review queue. Callers who are not admins get an
// empty queue and a notice rather than an error.
func (h *ModerationHandler) ListPending(c *gin.Context) {
	view, err := h.service.ListPending(c.Request.Context(), middleware.IdentityFrom(c))
	h.respondQueue(c, view, err)
}

// ListPublished returns approved entries across all sections.
func (h *ModerationHandler) ListPublished(c *gin.Context) {
	view, err := h.service.ListPublished(c.Request.Context(), middleware.IdentityFrom(c))
	h.respondQueue(c, view, err)
}

func (h *ModerationHandler) respondQueue(c *gin.Context, view board.QueueView, err error) {
	if err != nil {
		h.logError(c, err, "Failed to load moderation queue")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load submissions"})
		return
	}
	c.JSON(http.StatusOK, view)
}
