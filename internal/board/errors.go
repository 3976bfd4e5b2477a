package board

import (
	"context"
	"errors"
	"sort"
	"strings"

	"io.winapps.memorialboard/internal/media"
	"io.winapps.memorialboard/internal/store"
)

var (
	// ErrConfirmationRequired is returned by Delete when the caller has not
	// confirmed the irreversible removal.
	ErrConfirmationRequired = errors.New("delete requires explicit confirmation")
	// ErrNotFound is returned when an entry id does not exist.
	ErrNotFound = store.ErrNotFound
	// ErrSuperseded cancels an upload replaced by a newer submission from the
	// same uploader.
	ErrSuperseded = errors.New("superseded by a newer submission")
	// ErrCanceled cancels an upload at the uploader's request.
	ErrCanceled = errors.New("upload canceled")
)

// ValidationError carries one message per invalid field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "invalid submission: " + strings.Join(names, ", ")
}

// UploadError wraps a blob store failure.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string { return "upload failed: " + e.Err.Error() }
func (e *UploadError) Unwrap() error { return e.Err }

// PersistError wraps a document store failure while creating an entry.
type PersistError struct {
	Err error
}

func (e *PersistError) Error() string { return "persist failed: " + e.Err.Error() }
func (e *PersistError) Unwrap() error { return e.Err }

// Moderation actions.
const (
	ActionApprove = "approve"
	ActionEdit    = "edit"
	ActionDelete  = "delete"
)

// PermissionError is returned when a moderation action is not allowed for
// the caller, either by the allow-list or by the store.
type PermissionError struct {
	Action string
	Err    error
}

func (e *PermissionError) Error() string {
	if e.Err != nil {
		return e.Action + " denied: " + e.Err.Error()
	}
	return e.Action + " denied"
}

func (e *PermissionError) Unwrap() error { return e.Err }

// Message returns the notice shown for a rejected action.
func (e *PermissionError) Message() string {
	switch e.Action {
	case ActionApprove:
		return "Approve failed. Check your permissions."
	case ActionEdit:
		return "Save failed. Check your permissions."
	case ActionDelete:
		return "Delete failed. Ensure rules allow admin deletes."
	default:
		return "Not allowed."
	}
}

// Notice maps an error from this package to the single message shown to the
// user.
func Notice(err error, surface Surface) string {
	var (
		validation *ValidationError
		oversize   *media.OversizeError
		permission *PermissionError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &validation):
		return "Please correct the highlighted fields."
	case errors.As(err, &oversize):
		return oversize.Error()
	case errors.As(err, &permission):
		return permission.Message()
	case errors.Is(err, ErrConfirmationRequired):
		return "Please confirm the deletion."
	case errors.Is(err, ErrNotFound):
		return "Entry not found."
	case errors.Is(err, ErrSuperseded), errors.Is(err, ErrCanceled), errors.Is(err, context.Canceled):
		return "Upload canceled."
	case surface == SurfacePage:
		return "Submission failed. Please try again."
	default:
		return "Failed to submit. Please try again."
	}
}
