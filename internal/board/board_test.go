package board

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"io.winapps.memorialboard/internal/identity"
	models "io.winapps.memorialboard/internal/models/board"
	"io.winapps.memorialboard/internal/store"
)

const adminEmail = "curator@example.org"

var (
	anonymous = &identity.Identity{UID: "anon-uid-1", Anonymous: true}
	admin     = &identity.Identity{UID: "admin-uid", Email: adminEmail}
	visitor   = &identity.Identity{UID: "visitor-uid", Email: "visitor@example.org"}
)

type recordingNotifier struct {
	mu      sync.Mutex
	entries []models.Entry
}

func (n *recordingNotifier) SubmissionReceived(_ context.Context, e models.Entry) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.entries = append(n.entries, e)
	return nil
}

type fixture struct {
	svc      *Service
	entries  *store.Memory
	blobs    *store.MemoryBlobs
	notifier *recordingNotifier
	clock    *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	now := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	f := &fixture{
		blobs:    store.NewMemoryBlobs(),
		notifier: &recordingNotifier{},
		clock:    &now,
	}
	tick := func() time.Time {
		*f.clock = f.clock.Add(time.Minute)
		return *f.clock
	}
	f.entries = store.NewMemory().WithClock(tick)
	f.svc = NewService(Deps{
		Entries:  f.entries,
		Blobs:    f.blobs,
		Admins:   identity.NewAdminSet([]string{adminEmail}),
		Notifier: f.notifier,
		Now:      func() time.Time { return *f.clock },
	})
	return f
}

func (f *fixture) submit(t *testing.T, in SubmitInput) string {
	t.Helper()
	id, err := f.svc.Submit(context.Background(), anonymous, in, nil)
	require.NoError(t, err)
	return id
}
