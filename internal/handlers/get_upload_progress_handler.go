package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"io.winapps.memorialboard/internal/middleware"
	"io.winapps.memorialboard/internal/progress"
	uploadprogressmodels "io.winapps.memorialboard/internal/models/upload_progress"
)

// UploadProgress returns the status of an upload.
// Query params: uploadId (required)
func (h *SubmissionHandler) UploadProgress(c *gin.Context) {
	ident := middleware.IdentityFrom(c)
	if ident == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	uploadID := c.Query("uploadId")
	if uploadID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required query parameter: uploadId"})
		return
	}

	ctx := c.Request.Context()
	st, err := h.progress.Load(ctx, uploadID)
	if errors.Is(err, progress.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Upload not found"})
		return
	}
	if err != nil {
		h.logError(c, err, "Failed to load upload progress", "uploadId", uploadID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load upload progress"})
		return
	}
	if st.UID != ident.UID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cannot view another user's upload"})
		return
	}

	// Refresh TTL on read so uploads don't expire while being polled
	_ = h.progress.Save(ctx, *st)

	resp := uploadprogressmodels.UploadProgressResponse{
		UploadID:  st.UploadID,
		Status:    st.Status,
		Progress:  st.Progress,
		EntryID:   st.EntryID,
		Error:     st.Error,
		StartedAt: st.StartedAt.Format(time.RFC3339),
	}
	if st.CompletedAt != nil {
		completed := st.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &completed
	}
	c.JSON(http.StatusOK, resp)
}

// CancelUpload aborts the caller's in-flight submission, if any.
func (h *SubmissionHandler) CancelUpload(c *gin.Context) {
	ident := middleware.IdentityFrom(c)
	if ident == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	canceled := h.service.CancelUpload(ident)
	if canceled {
		logWithContext(h.logger, c, "info", "Upload canceled by uploader")
	}
	c.JSON(http.StatusOK, uploadprogressmodels.CancelUploadResponse{Canceled: canceled})
}
