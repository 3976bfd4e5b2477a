package board

import (
	"context"
	"sync"
)

// InFlight tracks the upload in progress for each uploader. Starting a new
// attempt cancels the previous one for the same uploader.
type InFlight struct {
	mu       sync.Mutex
	seq      uint64
	attempts map[string]inflightAttempt
}

type inflightAttempt struct {
	id     uint64
	cancel context.CancelCauseFunc
}

func NewInFlight() *InFlight {
	return &InFlight{attempts: make(map[string]inflightAttempt)}
}

// Begin registers a new attempt for key and returns its context together with
// a release func that must be called when the attempt finishes.
func (f *InFlight) Begin(ctx context.Context, key string) (context.Context, func()) {
	attemptCtx, cancel := context.WithCancelCause(ctx)

	f.mu.Lock()
	f.seq++
	id := f.seq
	prev, hadPrev := f.attempts[key]
	f.attempts[key] = inflightAttempt{id: id, cancel: cancel}
	f.mu.Unlock()

	if hadPrev {
		prev.cancel(ErrSuperseded)
	}

	release := func() {
		f.mu.Lock()
		if cur, ok := f.attempts[key]; ok && cur.id == id {
			delete(f.attempts, key)
		}
		f.mu.Unlock()
		cancel(nil)
	}
	return attemptCtx, release
}

// Cancel aborts the in-flight attempt for key, reporting whether there was one.
func (f *InFlight) Cancel(key string) bool {
	f.mu.Lock()
	cur, ok := f.attempts[key]
	if ok {
		delete(f.attempts, key)
	}
	f.mu.Unlock()

	if ok {
		cur.cancel(ErrCanceled)
	}
	return ok
}

// Active reports whether key has an attempt in progress.
func (f *InFlight) Active(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.attempts[key]
	return ok
}
