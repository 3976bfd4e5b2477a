// Package progress records upload progress so clients can poll it while a
// submission is in flight.
package progress

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Upload states.
const (
	StatusPending   = "pending"
	StatusUploading = "uploading"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCanceled  = "canceled"
)

// ErrNotFound is returned when no status exists for an upload id.
var ErrNotFound = errors.New("upload not found")

const (
	keyPrefix = "upload_progress:"
	// TTL is applied on every save and refreshed when a client polls.
	TTL = time.Hour
)

// UploadStatus is the state of one submission upload.
// Progress is a whole number percentage [0..100].
type UploadStatus struct {
	UploadID    string     `json:"uploadId"`
	UID         string     `json:"uid"`
	Status      string     `json:"status"`
	Progress    int        `json:"progress"`
	EntryID     string     `json:"entryId,omitempty"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Done reports whether the upload reached a final state.
func (s UploadStatus) Done() bool {
	return s.Status == StatusCompleted || s.Status == StatusFailed || s.Status == StatusCanceled
}

// Store saves and loads upload statuses.
type Store interface {
	Save(ctx context.Context, status UploadStatus) error
	Load(ctx context.Context, uploadID string) (*UploadStatus, error)
}

// RedisStore keeps statuses as JSON under upload_progress:<uploadId>.
type RedisStore struct {
	redis *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{redis: client}
}

func (r *RedisStore) Save(ctx context.Context, status UploadStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return r.redis.Set(ctx, keyPrefix+status.UploadID, data, TTL).Err()
}

func (r *RedisStore) Load(ctx context.Context, uploadID string) (*UploadStatus, error) {
	val, err := r.redis.Get(ctx, keyPrefix+uploadID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var st UploadStatus
	if err := json.Unmarshal([]byte(val), &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// MemoryStore is the single-process fallback used without Redis.
type MemoryStore struct {
	mu       sync.Mutex
	statuses map[string]memoryStatus
	now      func() time.Time
}

type memoryStatus struct {
	status  UploadStatus
	expires time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{statuses: make(map[string]memoryStatus), now: time.Now}
}

func (m *MemoryStore) Save(_ context.Context, status UploadStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for id, s := range m.statuses {
		if now.After(s.expires) {
			delete(m.statuses, id)
		}
	}
	m.statuses[status.UploadID] = memoryStatus{status: status, expires: now.Add(TTL)}
	return nil
}

func (m *MemoryStore) Load(_ context.Context, uploadID string) (*UploadStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.statuses[uploadID]
	if !ok || m.now().After(s.expires) {
		return nil, ErrNotFound
	}
	st := s.status
	return &st, nil
}
