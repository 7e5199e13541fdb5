package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentflow/internal/app/policies"
)

type recordingProducer struct {
	topic   string
	key     string
	payload []byte
	err     error
}

func (r *recordingProducer) Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error {
	if r.err != nil {
		return r.err
	}
	r.topic, r.key, r.payload = topic, key, payload
	return nil
}

func TestBrokerNotifierPublishesPerRecipient(t *testing.T) {
	producer := &recordingProducer{}
	sentAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	n := BrokerNotifier{Producer: producer, Topic: "notifications.v1", Now: func() time.Time { return sentAt }}

	err := n.Notify(context.Background(), policies.Notification{
		UserID:   "renter-1",
		Title:    "Booking approved",
		Body:     "Your handover PIN is 4821.",
		Metadata: map[string]string{"booking_id": "bk-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "notifications.v1", producer.topic)
	assert.Equal(t, "renter-1", producer.key)

	var got message
	require.NoError(t, json.Unmarshal(producer.payload, &got))
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "renter-1", got.UserID)
	assert.Equal(t, "Booking approved", got.Title)
	assert.Equal(t, "bk-1", got.Metadata["booking_id"])
	assert.True(t, sentAt.Equal(got.SentAt))
}

func TestBrokerNotifierReturnsProducerError(t *testing.T) {
	boom := errors.New("broker down")
	n := BrokerNotifier{Producer: &recordingProducer{err: boom}, Topic: "notifications.v1"}
	err := n.Notify(context.Background(), policies.Notification{UserID: "u1"})
	assert.ErrorIs(t, err, boom)
}

func TestLogNotifierNeverFails(t *testing.T) {
	assert.NoError(t, LogNotifier{}.Notify(context.Background(), policies.Notification{UserID: "u1", Title: "hi"}))
}
