package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"rentflow/internal/app/policies"
)

// LogNotifier writes notifications to the application log. It is the
// default channel when no broker is configured.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(ctx context.Context, msg policies.Notification) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "notification", "user_id", msg.UserID, "title", msg.Title, "body", msg.Body)
	return nil
}

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// BrokerNotifier publishes notifications to a topic consumed by the
// delivery service, keyed by recipient.
type BrokerNotifier struct {
	Producer Producer
	Topic    string
	Now      func() time.Time
}

type message struct {
	ID       string            `json:"id"`
	UserID   string            `json:"user_id"`
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Metadata map[string]string `json:"metadata,omitempty"`
	SentAt   time.Time         `json:"sent_at"`
}

func (n BrokerNotifier) Notify(ctx context.Context, msg policies.Notification) error {
	now := time.Now
	if n.Now != nil {
		now = n.Now
	}
	payload, err := json.Marshal(message{
		ID:       uuid.NewString(),
		UserID:   msg.UserID,
		Title:    msg.Title,
		Body:     msg.Body,
		Metadata: msg.Metadata,
		SentAt:   now().UTC(),
	})
	if err != nil {
		return err
	}
	return n.Producer.Publish(ctx, n.Topic, msg.UserID, payload, map[string]string{"content-type": "application/json"})
}

var (
	_ policies.Notifier = LogNotifier{}
	_ policies.Notifier = BrokerNotifier{}
)
