package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appoutbox "rentflow/internal/app/outbox"
)

type sentMessage struct {
	topic   string
	key     string
	payload []byte
	headers map[string]string
}

type fakeProducer struct {
	sent []sentMessage
	err  error
}

func (f *fakeProducer) Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{topic: topic, key: key, payload: payload, headers: headers})
	return nil
}

func TestTopicFor(t *testing.T) {
	p := &Publisher{TopicPrefix: "prod."}
	assert.Equal(t, "prod.booking.events.v1", p.TopicFor("booking.approved"))
	assert.Equal(t, "prod.refund.events.v1", p.TopicFor("refund.accepted"))
	assert.Equal(t, "prod.misc.events.v1", p.TopicFor("misc"))
}

func TestPublishRecordWrapsCloudEvent(t *testing.T) {
	producer := &fakeProducer{}
	p := &Publisher{Producer: producer}
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	err := p.PublishRecord(context.Background(), appoutbox.EventRecord{
		ID:         "evt-1",
		Name:       "refund.accepted",
		Payload:    []byte(`{"request_id":"rf-1","refund_amount":101}`),
		OccurredAt: at,
		Aggregate:  "rf-1",
		Headers:    map[string]string{"traceparent": "00-abc-def-01"},
	})
	require.NoError(t, err)
	require.Len(t, producer.sent, 1)
	msg := producer.sent[0]
	assert.Equal(t, "refund.events.v1", msg.topic)
	assert.Equal(t, "rf-1", msg.key)
	assert.Equal(t, "application/cloudevents+json", msg.headers["content-type"])
	assert.Equal(t, "00-abc-def-01", msg.headers["traceparent"])

	var evt map[string]any
	require.NoError(t, json.Unmarshal(msg.payload, &evt))
	assert.Equal(t, "1.0", evt["specversion"])
	assert.Equal(t, "evt-1", evt["id"])
	assert.Equal(t, "refund.accepted.v1", evt["type"])
	assert.Equal(t, "app://rentflow", evt["source"])
	assert.Equal(t, "rf-1", evt["subject"])
	assert.Equal(t, "00-abc-def-01", evt["traceparent"])
	data, ok := evt["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "rf-1", data["request_id"])
	assert.InDelta(t, 101, data["refund_amount"], 0.001)
}

func TestEnvelopeFillsMissingID(t *testing.T) {
	p := &Publisher{Source: "app://test"}
	payload, _, err := p.Envelope(appoutbox.EventRecord{Name: "booking.requested"})
	require.NoError(t, err)
	var evt map[string]any
	require.NoError(t, json.Unmarshal(payload, &evt))
	assert.NotEmpty(t, evt["id"])
	assert.Equal(t, "app://test", evt["source"])
}

func TestEnvelopeRejectsInvalidPayload(t *testing.T) {
	p := &Publisher{}
	_, _, err := p.Envelope(appoutbox.EventRecord{Name: "booking.requested", Payload: []byte("{")})
	assert.Error(t, err)
}

func TestPublishRecordPropagatesProducerError(t *testing.T) {
	boom := errors.New("broker down")
	p := &Publisher{Producer: &fakeProducer{err: boom}}
	err := p.PublishRecord(context.Background(), appoutbox.EventRecord{ID: "evt-1", Name: "wallet.settled"})
	assert.ErrorIs(t, err, boom)
}
