package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"io.winapps.memorialboard/internal/board"
	"io.winapps.memorialboard/internal/media"
)

// statusFor maps board errors to HTTP status codes.
func statusFor(err error) int {
	var (
		validation *board.ValidationError
		oversize   *media.OversizeError
		maxBytes   *http.MaxBytesError
		permission *board.PermissionError
	)
	switch {
	case errors.As(err, &validation), errors.Is(err, board.ErrConfirmationRequired):
		return http.StatusBadRequest
	case errors.As(err, &oversize), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &permission):
		return http.StatusForbidden
	case errors.Is(err, board.ErrNotFound):
		return http.StatusNotFound
	case isCanceled(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func isCanceled(err error) bool {
	return errors.Is(err, board.ErrSuperseded) || errors.Is(err, board.ErrCanceled) || errors.Is(err, context.Canceled)
}

// respondError writes the single user-facing notice for err.
func respondError(c *gin.Context, err error, surface board.Surface) {
	body := gin.H{"error": board.Notice(err, surface)}
	var validation *board.ValidationError
	if errors.As(err, &validation) {
		body["fields"] = validation.Fields
	}
	c.JSON(statusFor(err), body)
}
