package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "io.winapps.memorialboard/internal/models/board"
	"io.winapps.memorialboard/internal/store"
)

type fakeSender struct {
	mu       sync.Mutex
	messages []*messaging.Message
	err      error
}

func (f *fakeSender) Send(_ context.Context, m *messaging.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.messages = append(f.messages, m)
	return "projects/test/messages/1", nil
}

func TestSubmissionReceived(t *testing.T) {
	sender := &fakeSender{}
	n := New(sender, store.NewMemory(), "", true, nil)

	err := n.SubmissionReceived(context.Background(), models.Entry{ID: "e1", Section: models.SectionSilver})
	require.NoError(t, err)
	require.Len(t, sender.messages, 1)

	m := sender.messages[0]
	assert.Equal(t, DefaultTopic, m.Topic)
	assert.Equal(t, "Anonymous submitted to Silver Threads", m.Notification.Body)
	assert.Equal(t, "e1", m.Data["entryId"])
	assert.Equal(t, "silver", m.Data["section"])
}

func TestSubmissionReceivedDisabled(t *testing.T) {
	sender := &fakeSender{}
	n := New(sender, store.NewMemory(), "", false, nil)
	require.NoError(t, n.SubmissionReceived(context.Background(), models.Entry{ID: "e1"}))
	assert.Empty(t, sender.messages)
}

func TestDigest(t *testing.T) {
	ctx := context.Background()
	entries := store.NewMemory()
	sender := &fakeSender{}
	n := New(sender, entries, "admins", true, nil)

	count, err := n.Digest(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, sender.messages)

	_, err = entries.Create(ctx, models.Entry{Author: "a", Content: "b"})
	require.NoError(t, err)
	_, err = entries.Create(ctx, models.Entry{Author: "c", Content: "d", Verified: true})
	require.NoError(t, err)

	count, err = n.Digest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Len(t, sender.messages, 1)
	assert.Equal(t, "admins", sender.messages[0].Topic)
	assert.Equal(t, "1 entry awaiting review", sender.messages[0].Notification.Body)
}

func TestDigestSendFailure(t *testing.T) {
	ctx := context.Background()
	entries := store.NewMemory()
	_, err := entries.Create(ctx, models.Entry{Author: "a", Content: "b"})
	require.NoError(t, err)

	n := New(&fakeSender{err: errors.New("unavailable")}, entries, "", true, nil)
	_, err = n.Digest(ctx)
	assert.Error(t, err)
}

func TestStartRejectsBadSpec(t *testing.T) {
	n := New(nil, store.NewMemory(), "", true, nil)
	assert.Error(t, n.Start("not a cron spec"))
	assert.NoError(t, n.Start(""))
}

func TestStartAndStop(t *testing.T) {
	n := New(nil, store.NewMemory(), "", true, nil)
	require.NoError(t, n.Start("0 18 * * *"))
	n.Stop()
}

type fakeTopics struct {
	subscribed map[string]bool
	failure    string
}

func (f *fakeTopics) SubscribeToTopic(_ context.Context, tokens []string, topic string) (*messaging.TopicManagementResponse, error) {
	return f.update(tokens, true)
}

func (f *fakeTopics) UnsubscribeFromTopic(_ context.Context, tokens []string, topic string) (*messaging.TopicManagementResponse, error) {
	return f.update(tokens, false)
}

func (f *fakeTopics) update(tokens []string, on bool) (*messaging.TopicManagementResponse, error) {
	if f.failure != "" {
		return &messaging.TopicManagementResponse{
			FailureCount: len(tokens),
			Errors:       []*messaging.ErrorInfo{{Index: 0, Reason: f.failure}},
		}, nil
	}
	for _, tok := range tokens {
		f.subscribed[tok] = on
	}
	return &messaging.TopicManagementResponse{SuccessCount: len(tokens)}, nil
}

func TestRegisterDevice(t *testing.T) {
	ctx := context.Background()
	n := New(nil, store.NewMemory(), "", true, nil)
	assert.ErrorIs(t, n.RegisterDevice(ctx, "tok"), ErrDisabled)

	topics := &fakeTopics{subscribed: map[string]bool{}}
	n.WithTopicManager(topics)
	require.NoError(t, n.RegisterDevice(ctx, "tok"))
	assert.True(t, topics.subscribed["tok"])
	require.NoError(t, n.UnregisterDevice(ctx, "tok"))
	assert.False(t, topics.subscribed["tok"])

	topics.failure = "invalid-argument"
	err := n.RegisterDevice(ctx, "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid-argument")
}
