package board

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path"
	"strings"

	"io.winapps.memorialboard/internal/captcha"
	"io.winapps.memorialboard/internal/identity"
	"io.winapps.memorialboard/internal/media"
	"io.winapps.memorialboard/internal/metrics"
	models "io.winapps.memorialboard/internal/models/board"
)

// ProgressFunc receives whole-number upload progress from 0 to 100.
type ProgressFunc func(percent int)

// SubmitInput is one public submission.
type SubmitInput struct {
	Surface Surface
	// CollectsEmail is set when the modal surface shows an email field.
	CollectsEmail bool

	Author    string
	Email     string
	Credits   string
	Title     string
	Content   string
	EventDate string
	Section   string

	// CaptchaToken is the reCAPTCHA response from the standalone page.
	CaptchaToken string
	RemoteIP     string

	File *media.File
}

func (in SubmitInput) trimmed() SubmitInput {
	in.Author = strings.TrimSpace(in.Author)
	in.Email = strings.TrimSpace(in.Email)
	in.Credits = strings.TrimSpace(in.Credits)
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	in.EventDate = strings.TrimSpace(in.EventDate)
	in.Section = strings.TrimSpace(in.Section)
	return in
}

// section resolves the target section. The modal takes it from the page it is
// embedded in and falls back to memories.
func (in SubmitInput) section() models.Section {
	return models.Section(in.Section).OrDefault()
}

// Submit validates, prepares and uploads a submission, then stores it as a
// pending entry and returns its id. Nothing is uploaded when validation
// fails and nothing is stored when the upload fails.
func (s *Service) Submit(ctx context.Context, ident *identity.Identity, in SubmitInput, onProgress ProgressFunc) (string, error) {
	in = in.trimmed()
	if in.Surface == "" {
		in.Surface = SurfaceModal
	}
	if err := s.validateInput(in); err != nil {
		metrics.SubmissionsTotal.WithLabelValues("invalid").Inc()
		return "", err
	}
	if err := s.checkCaptcha(ctx, in); err != nil {
		metrics.SubmissionsTotal.WithLabelValues("captcha").Inc()
		return "", err
	}

	uploader := ident.UploaderKey()
	attemptCtx, release := s.inflight.Begin(ctx, uploader)
	defer release()

	section := in.section()
	entry := models.Entry{
		Section:   section,
		Author:    in.Author,
		Credits:   in.Credits,
		Title:     in.Title,
		Content:   in.Content,
		EventDate: in.EventDate,
		Verified:  false,
	}
	if in.Surface == SurfacePage || in.CollectsEmail {
		entry.Email = in.Email
	}

	if in.File != nil {
		mediaURL, mediaType, err := s.uploadMedia(attemptCtx, uploader, section, *in.File, onProgress)
		if err != nil {
			return "", s.failSubmit(attemptCtx, err)
		}
		entry.MediaURL = mediaURL
		entry.MediaType = mediaType
	}

	id, err := s.entries.Create(attemptCtx, entry)
	if err != nil {
		return "", s.failSubmit(attemptCtx, &PersistError{Err: err})
	}
	entry.ID = id

	metrics.SubmissionsTotal.WithLabelValues("accepted").Inc()
	s.logger.Infow("Submission received",
		"id", id,
		"section", section,
		"uploader", uploader,
		"hasMedia", entry.HasMedia(),
	)

	if s.notifier != nil {
		if err := s.notifier.SubmissionReceived(context.WithoutCancel(ctx), entry); err != nil {
			s.logger.Warnw("Failed to notify admins of submission", "id", id, "error", err)
		}
	}
	return id, nil
}

// checkCaptcha verifies the page token when a verifier is configured. Every
// failure is reported against the captcha field.
func (s *Service) checkCaptcha(ctx context.Context, in SubmitInput) error {
	if s.captcha == nil || in.Surface != SurfacePage {
		return nil
	}
	err := s.captcha.Verify(ctx, in.CaptchaToken, in.RemoteIP)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, captcha.ErrMissing):
		return &ValidationError{Fields: map[string]string{"captcha": "Please complete the reCAPTCHA before submitting."}}
	case !errors.Is(err, captcha.ErrRejected):
		s.logger.Warnw("Captcha verification unavailable", "error", err)
	}
	return &ValidationError{Fields: map[string]string{"captcha": "Captcha verification failed. Please try again."}}
}

// CancelUpload aborts the in-flight submission of ident, reporting whether
// one was running.
func (s *Service) CancelUpload(ident *identity.Identity) bool {
	return s.inflight.Cancel(ident.UploaderKey())
}

func (s *Service) uploadMedia(ctx context.Context, uploader string, section models.Section, f media.File, onProgress ProgressFunc) (string, string, error) {
	var (
		prepared media.File
		err      error
	)
	if f.IsImage() {
		prepared, err = s.preparer.Prepare(ctx, f)
	} else {
		prepared, err = f, s.preparer.CheckSize(f)
	}
	if err != nil {
		return "", "", err
	}

	blobPath := UploadPath(uploader, section, s.now().UnixMilli(), prepared.Name)
	var progress func(transferred, total int64)
	if onProgress != nil {
		progress = func(transferred, total int64) {
			onProgress(Percent(transferred, total))
		}
	}

	ref, err := s.blobs.Put(ctx, blobPath, prepared.Data, prepared.ContentType, progress)
	if err != nil {
		return "", "", &UploadError{Err: err}
	}
	url, err := s.blobs.PublicURL(ctx, ref)
	if err != nil {
		return "", "", &UploadError{Err: err}
	}
	return url, prepared.ContentType, nil
}

// failSubmit records a failed attempt and prefers the cancellation cause over
// the transport error it produced.
func (s *Service) failSubmit(ctx context.Context, err error) error {
	if cause := context.Cause(ctx); cause != nil && ctx.Err() != nil {
		if errors.Is(cause, ErrSuperseded) || errors.Is(cause, ErrCanceled) || errors.Is(cause, context.Canceled) {
			metrics.SubmissionsTotal.WithLabelValues("canceled").Inc()
			s.logger.Infow("Submission canceled", "reason", cause)
			return cause
		}
	}

	var (
		oversize *media.OversizeError
		upload   *UploadError
		persist  *PersistError
	)
	switch {
	case errors.As(err, &oversize):
		metrics.SubmissionsTotal.WithLabelValues("oversize").Inc()
		s.logger.Infow("Submission rejected", "error", err)
	case errors.As(err, &upload):
		metrics.SubmissionsTotal.WithLabelValues("upload_failed").Inc()
		s.logger.Errorw("Submission upload failed", "error", err)
	case errors.As(err, &persist):
		metrics.SubmissionsTotal.WithLabelValues("persist_failed").Inc()
		s.logger.Errorw("Failed to store submission", "error", err)
	default:
		s.logger.Errorw("Submission failed", "error", err)
	}
	return err
}

// UploadPath builds submissions/{uploader}/{section}/{unixMillis}-{filename}.
func UploadPath(uploader string, section models.Section, unixMillis int64, filename string) string {
	if uploader == "" {
		uploader = "anon"
	}
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "" || name == "." || name == "/" {
		name = "upload"
	}
	return fmt.Sprintf("submissions/%s/%s/%d-%s", uploader, section, unixMillis, name)
}

// Percent converts byte progress to a whole percentage in [0, 100].
func Percent(transferred, total int64) int {
	pct := int(math.Round(float64(transferred) / float64(max(1, total)) * 100))
	return min(100, max(0, pct))
}
