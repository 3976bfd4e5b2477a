package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"io.winapps.memorialboard/internal/media"
)

// ConvertLegacy converts a published HEIC/HEIF image for display and
// redirects to the temporary rendition.
// Query params: src (required), key (optional, defaults to src)
func (h *MediaHandler) ConvertLegacy(c *gin.Context) {
	src := c.Query("src")
	if src == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required query parameter: src"})
		return
	}
	resolved, ok := h.resolveSource(src)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "Source not allowed"})
		return
	}
	key := c.Query("key")
	if key == "" {
		key = src
	}

	ref, err := h.converter.Convert(c.Request.Context(), key, resolved)
	switch {
	case err == nil:
		c.Redirect(http.StatusFound, strings.TrimRight(h.tmpBase, "/")+"/"+url.PathEscape(ref))
	case errors.Is(err, media.ErrNotLegacy):
		c.Redirect(http.StatusFound, resolved)
	case errors.Is(err, media.ErrAlreadyConverted):
		c.JSON(http.StatusConflict, gin.H{"error": "Image already converted"})
	default:
		h.logError(c, err, "Failed to convert legacy image", "key", key, "src", src)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to convert image"})
	}
}

// OpenTemp serves a converted rendition once; the reference is released
// after it is read.
func (h *MediaHandler) OpenTemp(c *gin.Context) {
	obj, err := h.converter.Open(c.Request.Context(), c.Param("ref"))
	if errors.Is(err, media.ErrTempNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
		return
	}
	if err != nil {
		h.logError(c, err, "Failed to open converted image")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load image"})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, obj.ContentType, obj.Data)
}

// ReleaseLegacy forgets an element's conversion, as when the element is
// replaced on the page. The next request for the key converts again.
// Query params: key (required)
func (h *MediaHandler) ReleaseLegacy(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required query parameter: key"})
		return
	}
	h.converter.Release(c.Request.Context(), key)
	c.Status(http.StatusNoContent)
}

// resolveSource turns same-origin paths into absolute URLs on the configured
// public origin and checks other sources against the allow-list. The request
// Host is never used.
func (h *MediaHandler) resolveSource(src string) (string, bool) {
	if strings.HasPrefix(src, "/") && !strings.HasPrefix(src, "//") {
		if h.publicBase == "" {
			return "", false
		}
		return h.publicBase + src, true
	}
	if len(h.allowedSources) == 0 {
		return src, true
	}
	for _, prefix := range h.allowedSources {
		if strings.HasPrefix(src, prefix) {
			return src, true
		}
	}
	return "", false
}
