package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"io.winapps.memorialboard/internal/board"
	"io.winapps.memorialboard/internal/media"
	"io.winapps.memorialboard/internal/middleware"
	"io.winapps.memorialboard/internal/progress"
	createentrymodels "io.winapps.memorialboard/internal/models/create_entry"
)

// CreateEntry accepts a public submission as multipart form data with an
// optional "media" file. The entry is stored pending review. Progress of the
// media upload can be polled under the request's uploadId.
func (h *SubmissionHandler) CreateEntry(c *gin.Context) {
	ident := middleware.IdentityFrom(c)
	if ident == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBody+multipartOverhead)

	var req createentrymodels.CreateEntryRequest
	if err := c.ShouldBind(&req); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			h.rejectOversize(c)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	surface := board.ParseSurface(req.Surface)

	file, err := h.readMedia(c)
	if err != nil {
		var oversize *media.OversizeError
		if errors.As(err, &oversize) {
			h.rejectOversize(c)
			return
		}
		h.logError(c, err, "Failed to read media part")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid media upload"})
		return
	}

	uploadID := req.UploadID
	if uploadID == "" {
		uploadID = uuid.New().String()
	}
	ctx := c.Request.Context()
	tracker := progress.Start(ctx, h.progress, uploadID, ident.UID, h.logger)

	in := board.SubmitInput{
		Surface:       surface,
		CollectsEmail: req.CollectsEmail,
		Author:        req.Author,
		Email:         req.Email,
		Credits:       req.Credits,
		Title:         req.Title,
		Content:       req.Content,
		EventDate:     req.EventDate,
		Section:       req.Section,
		CaptchaToken:  req.CaptchaToken,
		RemoteIP:      c.ClientIP(),
		File:          file,
	}
	id, err := h.service.Submit(ctx, ident, in, func(percent int) {
		tracker.Update(ctx, percent)
	})
	if err != nil {
		notice := board.Notice(err, surface)
		if isCanceled(err) {
			tracker.Cancel(ctx)
		} else {
			tracker.Fail(ctx, notice)
		}
		if statusFor(err) == http.StatusInternalServerError {
			h.logError(c, err, "Submission failed", "uploadId", uploadID)
		}

		resp := createentrymodels.CreateEntryError{Error: notice, UploadID: uploadID}
		var validation *board.ValidationError
		if errors.As(err, &validation) {
			resp.Fields = validation.Fields
		}
		c.JSON(statusFor(err), resp)
		return
	}
	tracker.Complete(ctx, id)

	logWithContext(h.logger, c, "info", "Submission stored for review", "entryId", id, "uploadId", uploadID, "surface", surface)
	c.JSON(http.StatusCreated, createentrymodels.CreateEntryResponse{
		ID:       id,
		UploadID: uploadID,
		Message:  SubmittedNotice,
	})
}

func (h *SubmissionHandler) rejectOversize(c *gin.Context) {
	err := &media.OversizeError{Limit: h.maxBytes}
	c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
}

// readMedia returns the optional "media" part, or nil when none was sent.
func (h *SubmissionHandler) readMedia(c *gin.Context) (*media.File, error) {
	header, err := c.FormFile("media")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if header.Size > h.maxBody {
		return nil, &media.OversizeError{Size: header.Size, Limit: h.maxBody}
	}
	if header.Size == 0 {
		return nil, nil
	}

	data, err := readPart(header)
	if err != nil {
		return nil, err
	}
	return &media.File{
		Name:        filepath.Base(header.Filename),
		ContentType: partContentType(header),
		Data:        data,
	}, nil
}

func readPart(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open media part: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read media part: %w", err)
	}
	return data, nil
}

// partContentType prefers the declared type and falls back to the extension.
// Browsers often send HEIC files without one.
func partContentType(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	if ct := mime.TypeByExtension(filepath.Ext(header.Filename)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
