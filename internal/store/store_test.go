package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"io.winapps.memorialboard/internal/db"
	models "io.winapps.memorialboard/internal/models/board"
)

func steppingClock() func() time.Time {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Minute)
		return now
	}
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

// exerciseEntryStore runs the behavior every EntryStore backend shares.
func exerciseEntryStore(t *testing.T, s EntryStore) {
	t.Helper()
	ctx := context.Background()

	first, err := s.Create(ctx, models.Entry{Section: models.SectionMemories, Author: "A", Content: "one"})
	require.NoError(t, err)
	second, err := s.Create(ctx, models.Entry{Section: models.SectionNews, Author: "B", Content: "two"})
	require.NoError(t, err)
	third, err := s.Create(ctx, models.Entry{Section: models.SectionNews, Author: "C", Content: "three"})
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	got, err := s.Get(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "one", got.Content)
	assert.False(t, got.Verified)
	require.NotNil(t, got.PostedAt)

	pending, err := s.Query(ctx, PendingQuery(0))
	require.NoError(t, err)
	assert.Len(t, pending, 3)

	require.NoError(t, s.Update(ctx, second, models.EntryUpdate{Verified: boolPtr(true)}))
	require.NoError(t, s.Update(ctx, third, models.EntryUpdate{Verified: boolPtr(true), Title: strPtr("Edited")}))

	news, err := s.Query(ctx, PublishedQuery(models.SectionNews, 0))
	require.NoError(t, err)
	require.Len(t, news, 2)
	assert.Equal(t, third, news[0].ID)
	assert.Equal(t, "Edited", news[0].Title)
	assert.Equal(t, second, news[1].ID)

	limited, err := s.Query(ctx, PublishedQuery("", 1))
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	memories, err := s.Query(ctx, PublishedQuery(models.SectionMemories, 0))
	require.NoError(t, err)
	assert.Empty(t, memories)

	require.NoError(t, s.Delete(ctx, second))
	_, err = s.Get(ctx, second)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, second), ErrNotFound)
	assert.ErrorIs(t, s.Update(ctx, second, models.EntryUpdate{Title: strPtr("x")}), ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	exerciseEntryStore(t, NewMemory().WithClock(steppingClock()))
}

func TestMemoryStoreHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemory().Create(ctx, models.Entry{Content: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQueryMatches(t *testing.T) {
	e := models.Entry{Section: models.SectionSilver, Verified: true}

	tests := []struct {
		name string
		q    Query
		want bool
	}{
		{"no filters", Query{}, true},
		{"published in section", PublishedQuery(models.SectionSilver, 0), true},
		{"other section", PublishedQuery(models.SectionNews, 0), false},
		{"pending", PendingQuery(0), false},
		{"section typed value", Query{Filters: []Filter{{Field: FieldSection, Value: models.SectionSilver}}}, true},
		{"unknown field", Query{Filters: []Filter{{Field: "colour", Value: "red"}}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.q.Matches(e))
		})
	}
}

func TestMemoryBlobsReportsProgress(t *testing.T) {
	blobs := NewMemoryBlobs()
	data := make([]byte, 3*uploadChunkSize+10)

	var calls []int64
	ref, err := blobs.Put(context.Background(), "uploads/a.jpg", data, "image/jpeg", func(transferred, total int64) {
		assert.EqualValues(t, len(data), total)
		calls = append(calls, transferred)
	})
	require.NoError(t, err)
	assert.Equal(t, "uploads/a.jpg", ref)
	assert.Equal(t, []int64{0, uploadChunkSize, 2 * uploadChunkSize, 3 * uploadChunkSize, int64(len(data))}, calls)

	obj, ok := blobs.Object(ref)
	require.True(t, ok)
	assert.Equal(t, "image/jpeg", obj.ContentType)
	assert.Equal(t, 1, blobs.Puts())

	url, err := blobs.PublicURL(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, "memory://uploads/a.jpg", url)

	_, err = blobs.PublicURL(context.Background(), "uploads/missing.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryBlobsStopsOnCancel(t *testing.T) {
	blobs := NewMemoryBlobs()
	ctx, cancel := context.WithCancel(context.Background())
	data := make([]byte, 4*uploadChunkSize)

	_, err := blobs.Put(ctx, "uploads/b.mp4", data, "video/mp4", func(transferred, _ int64) {
		if transferred >= uploadChunkSize {
			cancel()
		}
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, blobs.Puts())
	assert.Empty(t, blobs.Paths())
}

func TestCleanBlobPath(t *testing.T) {
	cleaned, err := cleanBlobPath("/uploads//x/./a.png")
	require.NoError(t, err)
	assert.Equal(t, "uploads/x/a.png", cleaned)

	cleaned, err = cleanBlobPath("uploads/anon/1700-mum..dad.jpg")
	require.NoError(t, err)
	assert.Equal(t, "uploads/anon/1700-mum..dad.jpg", cleaned)

	cleaned, err = cleanBlobPath("uploads/../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, "etc/passwd", cleaned)

	for _, bad := range []string{"", "/", "."} {
		_, err := cleanBlobPath(bad)
		assert.Error(t, err, bad)
	}
}

func TestLocalBlobs(t *testing.T) {
	dir := t.TempDir()
	blobs := NewLocalBlobs(dir, "/media/")

	ref, err := blobs.Put(context.Background(), "uploads/my photo.jpg", []byte("jpeg"), "image/jpeg", nil)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "uploads", "my photo.jpg"))
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), data)

	url, err := blobs.PublicURL(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, "/media/uploads/my%20photo.jpg", url)
}

func TestCachedStore(t *testing.T) {
	url := os.Getenv("BOARD_TEST_REDIS_URL")
	if url == "" {
		t.Skip("BOARD_TEST_REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	require.NoError(t, client.FlushDB(ctx).Err())

	backing := NewMemory().WithClock(steppingClock())
	cached := NewCached(backing, client, zap.NewNop().Sugar())
	exerciseEntryStore(t, cached)

	id, err := cached.Create(ctx, models.Entry{Section: models.SectionActions, Content: "cached"})
	require.NoError(t, err)
	_, err = cached.Get(ctx, id)
	require.NoError(t, err)
	exists, err := client.Exists(ctx, entryKey(id)).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, exists)

	require.NoError(t, backing.Update(ctx, id, models.EntryUpdate{Title: strPtr("behind the cache")}))
	stale, err := cached.Get(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, stale.Title)

	require.NoError(t, cached.Update(ctx, id, models.EntryUpdate{Verified: boolPtr(true)}))
	fresh, err := cached.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "behind the cache", fresh.Title)
	assert.True(t, fresh.Verified)
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("BOARD_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("BOARD_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := db.InitPostgres(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	_, err = pool.Exec(ctx, `DELETE FROM submissions`)
	require.NoError(t, err)

	s := NewPostgres(pool)
	exerciseEntryStore(t, s)

	_, err = s.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}
