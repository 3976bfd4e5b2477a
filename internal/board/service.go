// Package board implements submission, moderation and feed rendering for the
// contribution board.
package board

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"io.winapps.memorialboard/internal/captcha"
	"io.winapps.memorialboard/internal/identity"
	"io.winapps.memorialboard/internal/media"
	models "io.winapps.memorialboard/internal/models/board"
	"io.winapps.memorialboard/internal/store"
)

// Notifier is told about new pending submissions.
type Notifier interface {
	SubmissionReceived(ctx context.Context, entry models.Entry) error
}

// Deps are the collaborators of a Service.
type Deps struct {
	Entries  store.EntryStore
	Blobs    store.BlobStore
	Preparer *media.Preparer
	Admins   identity.AdminSet
	Notifier Notifier
	// Captcha gates standalone page submissions when set.
	Captcha captcha.Verifier
	Logger  *zap.SugaredLogger
	// Now is the clock used for upload paths. Defaults to time.Now.
	Now func() time.Time
}

// Service is the board core shared by every HTTP surface.
type Service struct {
	entries  store.EntryStore
	blobs    store.BlobStore
	preparer *media.Preparer
	admins   identity.AdminSet
	notifier Notifier
	captcha  captcha.Verifier
	inflight *InFlight
	validate *validator.Validate
	logger   *zap.SugaredLogger
	now      func() time.Time
}

func NewService(d Deps) *Service {
	s := &Service{
		entries:  d.Entries,
		blobs:    d.Blobs,
		preparer: d.Preparer,
		admins:   d.Admins,
		notifier: d.Notifier,
		captcha:  d.Captcha,
		inflight: NewInFlight(),
		validate: newValidator(),
		logger:   d.Logger,
		now:      d.Now,
	}
	if s.preparer == nil {
		s.preparer = media.NewPreparer(media.DefaultMaxBytes, nil, d.Logger)
	}
	if s.logger == nil {
		s.logger = zap.NewNop().Sugar()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Admins returns the moderation allow-list.
func (s *Service) Admins() identity.AdminSet {
	return s.admins
}
