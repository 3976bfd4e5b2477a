package firebase

import (
	"errors"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	models "io.winapps.memorialboard/internal/models/board"
	"io.winapps.memorialboard/internal/store"
)

func TestDownloadURLEscapesPath(t *testing.T) {
	got := downloadURL("board.appspot.com", "submissions/anon/memories/1-a b.jpg", "tok")
	assert.Equal(t,
		"https://firebasestorage.googleapis.com/v0/b/board.appspot.com/o/submissions%2Fanon%2Fmemories%2F1-a%20b.jpg?alt=media&token=tok",
		got)
}

func TestMapError(t *testing.T) {
	assert.ErrorIs(t, mapError(status.Error(codes.NotFound, "missing")), store.ErrNotFound)
	assert.ErrorIs(t, mapError(status.Error(codes.PermissionDenied, "rules")), store.ErrPermissionDenied)

	other := errors.New("boom")
	assert.Equal(t, other, mapError(other))
}

func TestFirestoreUpdatesOnlySetFields(t *testing.T) {
	title := "t"
	verified := true
	section := models.SectionNews
	updates := firestoreUpdates(models.EntryUpdate{Title: &title, Verified: &verified, Section: &section})

	paths := map[string]interface{}{}
	for _, u := range updates {
		paths[u.Path] = u.Value
	}
	assert.Equal(t, map[string]interface{}{"title": "t", "verified": true, "section": "news"}, paths)
	assert.Empty(t, firestoreUpdates(models.EntryUpdate{}))
}

func TestIdentityFromToken(t *testing.T) {
	id := identityFromToken(&auth.Token{
		UID:      "u1",
		Expires:  1700000000,
		Claims:   map[string]interface{}{"email": "admin@example.org"},
		Firebase: auth.FirebaseInfo{SignInProvider: "password"},
	})
	assert.Equal(t, "u1", id.UID)
	assert.Equal(t, "admin@example.org", id.Email)
	assert.False(t, id.Anonymous)
	assert.Equal(t, int64(1700000000), id.ExpiresAt.Unix())

	anon := identityFromToken(&auth.Token{UID: "u2", Firebase: auth.FirebaseInfo{SignInProvider: "anonymous"}})
	assert.True(t, anon.Anonymous)
	assert.Empty(t, anon.Email)
}
