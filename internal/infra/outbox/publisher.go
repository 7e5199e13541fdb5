package outbox

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	appoutbox "rentflow/internal/app/outbox"
)

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Publisher wraps event records in CloudEvents envelopes and sends them to
// a topic per aggregate family (booking.events.v1, refund.events.v1, ...).
type Publisher struct {
	Producer    Producer
	TopicPrefix string
	Source      string
}

func (p *Publisher) PublishRecord(ctx context.Context, rec appoutbox.EventRecord) error {
	payload, headers, err := p.Envelope(rec)
	if err != nil {
		return err
	}
	return p.Producer.Publish(ctx, p.TopicFor(rec.Name), rec.Aggregate, payload, headers)
}

// Envelope renders rec as a structured-mode CloudEvent.
func (p *Publisher) Envelope(rec appoutbox.EventRecord) ([]byte, map[string]string, error) {
	data := map[string]any{}
	if len(rec.Payload) > 0 {
		if err := json.Unmarshal(rec.Payload, &data); err != nil {
			return nil, nil, err
		}
	}
	evt := map[string]any{
		"specversion":     "1.0",
		"id":              rec.ID,
		"type":            rec.Name + ".v1",
		"source":          p.source(),
		"subject":         rec.Aggregate,
		"time":            rec.OccurredAt,
		"datacontenttype": "application/json",
		"data":            data,
	}
	if evt["id"] == "" {
		evt["id"] = uuid.NewString()
	}
	if trace, ok := rec.Headers["traceparent"]; ok {
		evt["traceparent"] = trace
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{
		"content-type": "application/cloudevents+json",
	}
	for k, v := range rec.Headers {
		headers[k] = v
	}
	return payload, headers, nil
}

func (p *Publisher) TopicFor(name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	return p.TopicPrefix + base + ".events.v1"
}

func (p *Publisher) source() string {
	if p.Source != "" {
		return p.Source
	}
	return "app://rentflow"
}
