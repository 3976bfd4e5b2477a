package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	models "io.winapps.memorialboard/internal/models/board"
	listfeedsmodels "io.winapps.memorialboard/internal/models/list-feeds"
)

// ListFeeds returns every section feed for the home page.
func (h *FeedHandler) ListFeeds(c *gin.Context) {
	view, err := h.service.RenderHome(c.Request.Context())
	if err != nil {
		h.logError(c, err, "Failed to list feeds")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list feeds"})
		return
	}
	c.JSON(http.StatusOK, listfeedsmodels.ListFeedsResponse{Feeds: view.Sections})
}

// ListSectionEntries returns the approved entries of one section in display
// order.
func (h *FeedHandler) ListSectionEntries(c *gin.Context) {
	section, ok := models.ParseSection(c.Param("section"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown section"})
		return
	}
	view, err := h.service.RenderSection(c.Request.Context(), section)
	if err != nil {
		h.logError(c, err, "Failed to list section entries", "section", section)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load entries"})
		return
	}
	c.JSON(http.StatusOK, view)
}

// SectionFragment renders a section feed as list-item markup for embedding
// into a static page. Only the news list is served this way.
func (h *FeedHandler) SectionFragment(c *gin.Context) {
	section, ok := models.ParseSection(c.Param("section"))
	if !ok || section != models.SectionNews {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown section"})
		return
	}
	fragment, err := h.service.RenderNewsFragment(c.Request.Context(), h.compatBase)
	if err != nil {
		h.logError(c, err, "Failed to render news fragment")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load entries"})
		return
	}
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(fragment))
}
