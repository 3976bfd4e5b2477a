package progress

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	tr := Start(ctx, store, "up-1", "visitor", nil)
	st, err := store.Load(ctx, "up-1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, st.Status)
	assert.Equal(t, "visitor", st.UID)

	tr.Update(ctx, 40)
	st, err = store.Load(ctx, "up-1")
	require.NoError(t, err)
	assert.Equal(t, StatusUploading, st.Status)
	assert.Equal(t, 40, st.Progress)
	assert.False(t, st.Done())

	tr.Complete(ctx, "entry-9")
	st, err = store.Load(ctx, "up-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, st.Status)
	assert.Equal(t, 100, st.Progress)
	assert.Equal(t, "entry-9", st.EntryID)
	require.NotNil(t, st.CompletedAt)
	assert.True(t, st.Done())
}

func TestTrackerFailAndCancel(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	Start(ctx, store, "a", "u", nil).Fail(ctx, "Failed to submit. Please try again.")
	st, err := store.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, st.Status)
	assert.Equal(t, "Failed to submit. Please try again.", st.Error)

	Start(ctx, store, "b", "u", nil).Cancel(ctx)
	st, err = store.Load(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, StatusCanceled, st.Status)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, UploadStatus{UploadID: "x", Status: StatusPending}))
	_, err := store.Load(ctx, "x")
	require.NoError(t, err)

	now = now.Add(TTL + time.Second)
	_, err = store.Load(ctx, "x")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("BOARD_TEST_REDIS_URL")
	if url == "" {
		t.Skip("BOARD_TEST_REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	defer client.Close()

	ctx := context.Background()
	store := NewRedisStore(client)
	id := uuid.New().String()

	_, err = store.Load(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Save(ctx, UploadStatus{UploadID: id, UID: "u", Status: StatusUploading, Progress: 55}))
	st, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 55, st.Progress)

	ttl, err := client.TTL(ctx, keyPrefix+id).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	client.Del(ctx, keyPrefix+id)
}
