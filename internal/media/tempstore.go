package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrTempNotFound is returned for unknown, expired or already consumed refs.
var ErrTempNotFound = errors.New("temporary object not found")

// TempObject is a converted image held under a short-lived reference.
type TempObject struct {
	Data        []byte `json:"data"`
	ContentType string `json:"contentType"`
}

// TempStore holds converted bytes under opaque references.
type TempStore interface {
	Put(ctx context.Context, ref string, obj TempObject, ttl time.Duration) error
	// Take returns the object and removes it.
	Take(ctx context.Context, ref string) (TempObject, error)
	Delete(ctx context.Context, ref string) error
}

// MemoryTemp is an in-process TempStore.
type MemoryTemp struct {
	mu      sync.Mutex
	objects map[string]memoryTempObject
	now     func() time.Time
}

type memoryTempObject struct {
	obj     TempObject
	expires time.Time
}

func NewMemoryTemp() *MemoryTemp {
	return &MemoryTemp{objects: make(map[string]memoryTempObject), now: time.Now}
}

func (m *MemoryTemp) Put(_ context.Context, ref string, obj TempObject, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[ref] = memoryTempObject{obj: obj, expires: m.now().Add(ttl)}
	return nil
}

func (m *MemoryTemp) Take(_ context.Context, ref string) (TempObject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.objects[ref]
	if !ok {
		return TempObject{}, ErrTempNotFound
	}
	delete(m.objects, ref)
	if m.now().After(o.expires) {
		return TempObject{}, ErrTempNotFound
	}
	return o.obj, nil
}

func (m *MemoryTemp) Delete(_ context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, ref)
	return nil
}

// Len returns the number of held objects, expired ones included.
func (m *MemoryTemp) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// RedisTemp stores temporary objects in Redis under "compat:<ref>".
type RedisTemp struct {
	client *redis.Client
}

func NewRedisTemp(client *redis.Client) *RedisTemp {
	return &RedisTemp{client: client}
}

func tempKey(ref string) string {
	return fmt.Sprintf("compat:%s", ref)
}

func (r *RedisTemp) Put(ctx context.Context, ref string, obj TempObject, ttl time.Duration) error {
	payload, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("marshal temp object: %w", err)
	}
	if err := r.client.Set(ctx, tempKey(ref), payload, ttl).Err(); err != nil {
		return fmt.Errorf("store temp object: %w", err)
	}
	return nil
}

func (r *RedisTemp) Take(ctx context.Context, ref string) (TempObject, error) {
	payload, err := r.client.GetDel(ctx, tempKey(ref)).Bytes()
	if errors.Is(err, redis.Nil) {
		return TempObject{}, ErrTempNotFound
	}
	if err != nil {
		return TempObject{}, fmt.Errorf("load temp object: %w", err)
	}
	var obj TempObject
	if err := json.Unmarshal(payload, &obj); err != nil {
		return TempObject{}, fmt.Errorf("unmarshal temp object: %w", err)
	}
	return obj, nil
}

func (r *RedisTemp) Delete(ctx context.Context, ref string) error {
	return r.client.Del(ctx, tempKey(ref)).Err()
}
