// Package notify tells administrators about entries awaiting review through
// Firebase Cloud Messaging topic pushes.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"io.winapps.memorialboard/internal/metrics"
	models "io.winapps.memorialboard/internal/models/board"
	"io.winapps.memorialboard/internal/store"
)

const (
	// DefaultTopic is the FCM topic admin devices subscribe to.
	DefaultTopic = "board-admins"
	channelID    = "moderation"
	digestLimit  = 100
)

// Sender delivers one push message. *messaging.Client satisfies it.
type Sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// TopicManager subscribes devices to topics. *messaging.Client satisfies it.
type TopicManager interface {
	SubscribeToTopic(ctx context.Context, tokens []string, topic string) (*messaging.TopicManagementResponse, error)
	UnsubscribeFromTopic(ctx context.Context, tokens []string, topic string) (*messaging.TopicManagementResponse, error)
}

// ErrDisabled is returned by device registration when no messaging client
// is configured.
var ErrDisabled = errors.New("push notifications are not configured")

// Notifier pushes moderation alerts to an FCM topic.
type Notifier struct {
	sender   Sender
	topics   TopicManager
	entries  store.EntryStore
	topic    string
	onSubmit bool
	logger   *zap.SugaredLogger
	cron     *cron.Cron
}

// New creates a notifier. A nil sender logs messages instead of pushing them.
func New(sender Sender, entries store.EntryStore, topic string, onSubmit bool, logger *zap.SugaredLogger) *Notifier {
	if topic == "" {
		topic = DefaultTopic
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Notifier{
		sender:   sender,
		entries:  entries,
		topic:    topic,
		onSubmit: onSubmit,
		logger:   logger,
		cron:     cron.New(cron.WithLocation(time.UTC)),
	}
}

// WithTopicManager enables admin device registration.
func (n *Notifier) WithTopicManager(tm TopicManager) *Notifier {
	n.topics = tm
	return n
}

// Topic returns the FCM topic alerts are sent to.
func (n *Notifier) Topic() string {
	return n.topic
}

// RegisterDevice subscribes an admin device token to the alert topic.
func (n *Notifier) RegisterDevice(ctx context.Context, token string) error {
	return n.manageDevice(ctx, token, true)
}

// UnregisterDevice removes an admin device token from the alert topic.
func (n *Notifier) UnregisterDevice(ctx context.Context, token string) error {
	return n.manageDevice(ctx, token, false)
}

func (n *Notifier) manageDevice(ctx context.Context, token string, subscribe bool) error {
	if n.topics == nil {
		return ErrDisabled
	}
	call := n.topics.UnsubscribeFromTopic
	if subscribe {
		call = n.topics.SubscribeToTopic
	}
	resp, err := call(ctx, []string{token}, n.topic)
	if err != nil {
		return fmt.Errorf("failed to update topic subscription: %w", err)
	}
	if resp != nil && resp.FailureCount > 0 {
		reason := "unknown"
		if len(resp.Errors) > 0 && resp.Errors[0] != nil {
			reason = resp.Errors[0].Reason
		}
		return fmt.Errorf("device rejected by topic %q: %s", n.topic, reason)
	}
	return nil
}

// PendingCount returns how many entries await review, up to the digest
// limit, and records it in the pending gauge.
func (n *Notifier) PendingCount(ctx context.Context) (int, error) {
	pending, err := n.entries.Query(ctx, store.PendingQuery(digestLimit))
	if err != nil {
		return 0, fmt.Errorf("failed to count pending entries: %w", err)
	}
	metrics.PendingEntries.Set(float64(len(pending)))
	return len(pending), nil
}

// SubmissionReceived alerts admins that a new entry is pending.
func (n *Notifier) SubmissionReceived(ctx context.Context, entry models.Entry) error {
	if !n.onSubmit {
		return nil
	}
	body := fmt.Sprintf("%s submitted to %s", entry.DisplayAuthor(), entry.Section.OrDefault().Title())
	return n.send(ctx, "New submission awaiting review", body, map[string]string{
		"type":    "submission",
		"entryId": entry.ID,
		"section": string(entry.Section),
	})
}

// Digest counts pending entries and alerts admins when there are any. It
// returns the number counted.
func (n *Notifier) Digest(ctx context.Context) (int, error) {
	count, err := n.PendingCount(ctx)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}

	label := fmt.Sprintf("%d", count)
	if count >= digestLimit {
		label = fmt.Sprintf("%d+", digestLimit)
	}
	noun := "entries"
	if count == 1 {
		noun = "entry"
	}
	body := fmt.Sprintf("%s %s awaiting review", label, noun)
	return count, n.send(ctx, "Moderation queue", body, map[string]string{
		"type":  "digest",
		"count": label,
	})
}

// Start schedules the digest with a standard five-field cron spec. An empty
// spec disables the digest.
func (n *Notifier) Start(spec string) error {
	if spec == "" {
		return nil
	}
	_, err := n.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		count, err := n.Digest(ctx)
		if err != nil {
			n.logger.Errorw("Moderation digest failed", "error", err)
			return
		}
		n.logger.Infow("Moderation digest sent", "pending", count)
	})
	if err != nil {
		return fmt.Errorf("invalid digest schedule %q: %w", spec, err)
	}
	n.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for a running digest to finish.
func (n *Notifier) Stop() {
	<-n.cron.Stop().Done()
}

func (n *Notifier) send(ctx context.Context, title, body string, data map[string]string) error {
	if n.sender == nil {
		n.logger.Infow("Admin notification", "topic", n.topic, "title", title, "body", body)
		return nil
	}

	message := &messaging.Message{
		Topic: n.topic,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Notification: &messaging.AndroidNotification{
				ChannelID: channelID,
				Priority:  messaging.PriorityHigh,
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{
						Title: title,
						Body:  body,
					},
					Sound: "default",
				},
			},
		},
	}

	response, err := n.sender.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	n.logger.Debugw("Admin notification sent", "topic", n.topic, "response", response)
	return nil
}
