package progress

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Tracker writes the status of one upload as it advances. Updates are only
// saved when the percentage changes.
type Tracker struct {
	store  Store
	logger *zap.SugaredLogger
	now    func() time.Time

	mu     sync.Mutex
	status UploadStatus
}

// Start saves a pending status for uploadID and returns its tracker.
func Start(ctx context.Context, store Store, uploadID, uid string, logger *zap.SugaredLogger) *Tracker {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	t := &Tracker{
		store:  store,
		logger: logger,
		now:    time.Now,
		status: UploadStatus{
			UploadID:  uploadID,
			UID:       uid,
			Status:    StatusPending,
			StartedAt: time.Now(),
		},
	}
	t.save(ctx)
	return t
}

// Update records a new percentage. It is safe to call from upload callbacks.
func (t *Tracker) Update(ctx context.Context, percent int) {
	t.mu.Lock()
	if t.status.Status == StatusUploading && t.status.Progress == percent {
		t.mu.Unlock()
		return
	}
	t.status.Status = StatusUploading
	t.status.Progress = percent
	t.mu.Unlock()
	t.save(ctx)
}

// Complete marks the upload as stored under entryID.
func (t *Tracker) Complete(ctx context.Context, entryID string) {
	t.finish(ctx, StatusCompleted, entryID, "")
}

// Fail marks the upload as failed with the notice shown to the user.
func (t *Tracker) Fail(ctx context.Context, notice string) {
	t.finish(ctx, StatusFailed, "", notice)
}

// Cancel marks the upload as canceled.
func (t *Tracker) Cancel(ctx context.Context) {
	t.finish(ctx, StatusCanceled, "", "")
}

// Status returns a copy of the current status.
func (t *Tracker) Status() UploadStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func (t *Tracker) finish(ctx context.Context, status, entryID, notice string) {
	t.mu.Lock()
	done := t.now()
	t.status.Status = status
	t.status.EntryID = entryID
	t.status.Error = notice
	t.status.CompletedAt = &done
	if status == StatusCompleted {
		t.status.Progress = 100
	}
	t.mu.Unlock()
	t.save(ctx)
}

func (t *Tracker) save(ctx context.Context) {
	st := t.Status()
	if err := t.store.Save(context.WithoutCancel(ctx), st); err != nil {
		t.logger.Warnw("Failed to save upload progress", "uploadId", st.UploadID, "status", st.Status, "error", err)
	}
}
