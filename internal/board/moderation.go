package board

import (
	"context"
	"errors"
	"strings"

	"io.winapps.memorialboard/internal/identity"
	"io.winapps.memorialboard/internal/metrics"
	models "io.winapps.memorialboard/internal/models/board"
	"io.winapps.memorialboard/internal/store"
)

// QueueLimit bounds the moderation lists to the most recent entries.
const QueueLimit = 100

const (
	NoticeNotSignedIn = "Not signed in"
	NoticeNotAdmin    = "You are signed in, but not as an admin. Pending submissions are only visible to admins."
	NoticeNoPending   = "No pending submissions."
	NoticeNoPublished = "No published entries."
)

// QueueView is what the moderation page shows. Callers without admin rights
// get no entries and a notice explaining why.
type QueueView struct {
	Admin   bool           `json:"admin"`
	Entries []models.Entry `json:"entries"`
	Notice  string         `json:"notice,omitempty"`
}

// EditInput is a partial edit of an entry's content fields.
type EditInput struct {
	Author    *string `json:"author"`
	Credits   *string `json:"credits"`
	Title     *string `json:"title"`
	Content   *string `json:"content"`
	EventDate *string `json:"eventDate"`
	Section   *string `json:"section"`
}

func (s *Service) gate(ident *identity.Identity) (QueueView, bool) {
	switch {
	case ident == nil:
		return QueueView{Entries: []models.Entry{}, Notice: NoticeNotSignedIn}, false
	case !s.admins.IsAdmin(ident):
		return QueueView{Entries: []models.Entry{}, Notice: NoticeNotAdmin}, false
	}
	return QueueView{Admin: true}, true
}

// ListPending returns the newest entries awaiting review.
func (s *Service) ListPending(ctx context.Context, ident *identity.Identity) (QueueView, error) {
	return s.list(ctx, ident, store.PendingQuery(QueueLimit), NoticeNoPending)
}

// ListPublished returns the newest approved entries across all sections.
func (s *Service) ListPublished(ctx context.Context, ident *identity.Identity) (QueueView, error) {
	return s.list(ctx, ident, store.PublishedQuery("", QueueLimit), NoticeNoPublished)
}

func (s *Service) list(ctx context.Context, ident *identity.Identity, q store.Query, emptyNotice string) (QueueView, error) {
	view, ok := s.gate(ident)
	if !ok {
		return view, nil
	}
	entries, err := s.entries.Query(ctx, q)
	if err != nil {
		return QueueView{}, err
	}
	if entries == nil {
		entries = []models.Entry{}
	}
	view.Entries = entries
	if len(entries) == 0 {
		view.Notice = emptyNotice
	}
	return view, nil
}

// Approve publishes an entry. Approving an approved entry changes nothing.
func (s *Service) Approve(ctx context.Context, ident *identity.Identity, id string) error {
	verified := true
	return s.mutate(ctx, ident, ActionApprove, id, func() error {
		return s.entries.Update(ctx, id, models.EntryUpdate{Verified: &verified})
	})
}

// EditFields applies a partial update of content fields. id, postedAt and
// verified are never touched.
func (s *Service) EditFields(ctx context.Context, ident *identity.Identity, id string, in EditInput) error {
	if err := s.authorize(ident, ActionEdit); err != nil {
		return err
	}
	update, err := in.toUpdate()
	if err != nil {
		return err
	}
	return s.mutate(ctx, ident, ActionEdit, id, func() error {
		return s.entries.Update(ctx, id, update)
	})
}

// Delete permanently removes an entry. The caller must pass confirmed.
func (s *Service) Delete(ctx context.Context, ident *identity.Identity, id string, confirmed bool) error {
	if err := s.authorize(ident, ActionDelete); err != nil {
		return err
	}
	if !confirmed {
		return ErrConfirmationRequired
	}
	return s.mutate(ctx, ident, ActionDelete, id, func() error {
		return s.entries.Delete(ctx, id)
	})
}

// authorize rejects non-admins before any input is looked at.
func (s *Service) authorize(ident *identity.Identity, action string) error {
	if !s.admins.IsAdmin(ident) {
		metrics.ModerationActionsTotal.WithLabelValues(action, "denied").Inc()
		return &PermissionError{Action: action}
	}
	return nil
}

func (s *Service) mutate(ctx context.Context, ident *identity.Identity, action, id string, apply func() error) error {
	if err := s.authorize(ident, action); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return ErrNotFound
	}

	err := apply()
	switch {
	case err == nil:
		metrics.ModerationActionsTotal.WithLabelValues(action, "ok").Inc()
		s.logger.Infow("Moderation action applied", "action", action, "id", id, "admin", ident.Email)
		return nil
	case errors.Is(err, store.ErrPermissionDenied):
		metrics.ModerationActionsTotal.WithLabelValues(action, "denied").Inc()
		s.logger.Warnw("Store rejected moderation action", "action", action, "id", id, "admin", ident.Email)
		return &PermissionError{Action: action, Err: err}
	case errors.Is(err, store.ErrNotFound):
		metrics.ModerationActionsTotal.WithLabelValues(action, "not_found").Inc()
		return err
	default:
		metrics.ModerationActionsTotal.WithLabelValues(action, "error").Inc()
		s.logger.Errorw("Moderation action failed", "action", action, "id", id, "error", err)
		return err
	}
}

func (in EditInput) toUpdate() (models.EntryUpdate, error) {
	trim := func(p *string) *string {
		if p == nil {
			return nil
		}
		v := strings.TrimSpace(*p)
		return &v
	}
	update := models.EntryUpdate{
		Author:    trim(in.Author),
		Credits:   trim(in.Credits),
		Title:     trim(in.Title),
		Content:   trim(in.Content),
		EventDate: trim(in.EventDate),
	}
	if in.Section != nil {
		section, ok := models.ParseSection(*in.Section)
		if !ok {
			return models.EntryUpdate{}, &ValidationError{Fields: map[string]string{"section": "Please choose a section"}}
		}
		update.Section = &section
	}
	return update, nil
}
