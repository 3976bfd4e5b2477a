// Package store defines the persistence collaborators of the board and the
// backends that implement them.
package store

import (
	"context"
	"errors"

	models "io.winapps.memorialboard/internal/models/board"
)

// Collection is the single collection entries live in.
const Collection = "submissions"

var (
	// ErrNotFound is returned when an entry id does not exist.
	ErrNotFound = errors.New("entry not found")
	// ErrPermissionDenied is returned when the backend rejects a mutation.
	ErrPermissionDenied = errors.New("permission denied")
)

// Field names usable in query filters.
const (
	FieldSection  = "section"
	FieldVerified = "verified"
	FieldPostedAt = "postedAt"
)

// Filter is an equality filter on a persisted field.
type Filter struct {
	Field string
	Value any
}

// Query selects entries with equality filters, an ordering and a limit.
type Query struct {
	Filters    []Filter
	OrderBy    string
	Descending bool
	Limit      int
}

// PendingQuery returns entries awaiting review, most recent first.
func PendingQuery(limit int) Query {
	return Query{
		Filters:    []Filter{{Field: FieldVerified, Value: false}},
		OrderBy:    FieldPostedAt,
		Descending: true,
		Limit:      limit,
	}
}

// PublishedQuery returns approved entries, optionally for one section.
func PublishedQuery(section models.Section, limit int) Query {
	q := Query{
		Filters:    []Filter{{Field: FieldVerified, Value: true}},
		OrderBy:    FieldPostedAt,
		Descending: true,
		Limit:      limit,
	}
	if section != "" {
		q.Filters = append([]Filter{{Field: FieldSection, Value: string(section)}}, q.Filters...)
	}
	return q
}

// EntryStore is the document store holding entries.
type EntryStore interface {
	Create(ctx context.Context, entry models.Entry) (string, error)
	Get(ctx context.Context, id string) (*models.Entry, error)
	Query(ctx context.Context, q Query) ([]models.Entry, error)
	Update(ctx context.Context, id string, update models.EntryUpdate) error
	Delete(ctx context.Context, id string) error
}

// ProgressFunc receives upload progress in bytes.
type ProgressFunc func(transferred, total int64)

// BlobStore holds uploaded media.
type BlobStore interface {
	Put(ctx context.Context, path string, data []byte, contentType string, progress ProgressFunc) (string, error)
	PublicURL(ctx context.Context, ref string) (string, error)
}

// fieldValue returns the value of a filterable field on e.
func fieldValue(e models.Entry, field string) (any, bool) {
	switch field {
	case FieldSection:
		return string(e.Section), true
	case FieldVerified:
		return e.Verified, true
	case "author":
		return e.Author, true
	case "mediaType":
		return e.MediaType, true
	}
	return nil, false
}

// Matches reports whether e satisfies every filter of q.
func (q Query) Matches(e models.Entry) bool {
	for _, f := range q.Filters {
		v, ok := fieldValue(e, f.Field)
		if !ok {
			return false
		}
		want := f.Value
		if s, isSection := want.(models.Section); isSection {
			want = string(s)
		}
		if v != want {
			return false
		}
	}
	return true
}
