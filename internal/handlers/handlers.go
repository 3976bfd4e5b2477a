package handlers

import (
	"strings"

	"go.uber.org/zap"

	"io.winapps.memorialboard/internal/board"
	"io.winapps.memorialboard/internal/media"
	"io.winapps.memorialboard/internal/progress"
)

// SubmittedNotice is shown after a submission is stored for review.
const SubmittedNotice = "Thank you! We’ll let you know when it’s posted."

// multipartOverhead is the allowance for form fields on top of the media part.
const multipartOverhead = 1 << 20

// SubmissionHandler serves the public submission surfaces.
type SubmissionHandler struct {
	service  *board.Service
	progress progress.Store
	maxBytes int64
	maxBody  int64
	logger   *zap.SugaredLogger
}

// NewSubmissionHandler creates a submission handler. maxBytes is the stored
// media ceiling. The media part itself may be up to four times larger since
// legacy images shrink once converted.
func NewSubmissionHandler(service *board.Service, progressStore progress.Store, maxBytes int64, logger *zap.SugaredLogger) *SubmissionHandler {
	if progressStore == nil {
		progressStore = progress.NewMemoryStore()
	}
	if maxBytes <= 0 {
		maxBytes = media.DefaultMaxBytes
	}
	return &SubmissionHandler{
		service:  service,
		progress: progressStore,
		maxBytes: maxBytes,
		maxBody:  4 * maxBytes,
		logger:   logger,
	}
}

// FeedHandler serves the public feeds and entry detail pages.
type FeedHandler struct {
	service    *board.Service
	compatBase string
	logger     *zap.SugaredLogger
}

// NewFeedHandler creates a feed handler. compatBase is the display
// conversion endpoint that legacy images in rendered markup point at.
func NewFeedHandler(service *board.Service, compatBase string, logger *zap.SugaredLogger) *FeedHandler {
	return &FeedHandler{
		service:    service,
		compatBase: compatBase,
		logger:     logger,
	}
}

// ModerationHandler serves the admin review queue.
type ModerationHandler struct {
	service *board.Service
	logger  *zap.SugaredLogger
}

func NewModerationHandler(service *board.Service, logger *zap.SugaredLogger) *ModerationHandler {
	return &ModerationHandler{
		service: service,
		logger:  logger,
	}
}

// MediaHandler converts already-published legacy images for display.
type MediaHandler struct {
	converter  *media.Converter
	tmpBase    string
	publicBase string
	// allowedSources are URL prefixes the converter may fetch. Same-origin
	// paths are allowed when publicBase is set; an empty list allows any
	// http(s) source.
	allowedSources []string
	logger         *zap.SugaredLogger
}

// NewMediaHandler resolves same-origin source paths against publicBase. With
// no publicBase only absolute sources are accepted.
func NewMediaHandler(converter *media.Converter, tmpBase, publicBase string, allowedSources []string, logger *zap.SugaredLogger) *MediaHandler {
	return &MediaHandler{
		converter:      converter,
		tmpBase:        tmpBase,
		publicBase:     strings.TrimRight(publicBase, "/"),
		allowedSources: allowedSources,
		logger:         logger,
	}
}
