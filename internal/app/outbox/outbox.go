package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"rentflow/internal/domain/shared/events"
)

// CorrelationHeader carries the id of the request that caused an event.
const CorrelationHeader = "correlation_id"

// EventRecord is a serialized domain event waiting to be relayed.
// Aggregate is used as the partition key downstream.
type EventRecord struct {
	ID         string
	Name       string
	Payload    []byte
	OccurredAt time.Time
	Aggregate  string
	Headers    map[string]string
}

type Outbox interface {
	Add(ctx context.Context, record EventRecord) error
	// Flush hands committed records to the relay, if the implementation has
	// one that runs inline.
	Flush(ctx context.Context) error
}

type EventEncoder interface {
	Encode(ev events.DomainEvent) (EventRecord, error)
}

// JSONEventEncoder writes the event struct itself as the payload.
type JSONEventEncoder struct {
	IDGenerator func() string
}

func (e JSONEventEncoder) Encode(ev events.DomainEvent) (EventRecord, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return EventRecord{}, err
	}
	newID := e.IDGenerator
	if newID == nil {
		newID = uuid.NewString
	}
	return EventRecord{
		ID:         newID(),
		Name:       ev.EventName(),
		Payload:    payload,
		OccurredAt: ev.OccurredAt(),
		Aggregate:  ev.AggregateID(),
		Headers:    map[string]string{},
	}, nil
}

type correlationKey struct{}

// WithCorrelationID tags every event recorded under ctx with id.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationKey{}, id)
}

func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// RecordDomainEvents encodes evs in order and stages them in box. It is meant
// to run inside the unit of work that saved the aggregates.
func RecordDomainEvents(ctx context.Context, box Outbox, encoder EventEncoder, evs []events.DomainEvent) error {
	if box == nil || len(evs) == 0 {
		return nil
	}
	if encoder == nil {
		encoder = JSONEventEncoder{}
	}
	correlation := CorrelationID(ctx)
	for _, ev := range evs {
		rec, err := encoder.Encode(ev)
		if err != nil {
			return err
		}
		if correlation != "" {
			if rec.Headers == nil {
				rec.Headers = map[string]string{}
			}
			rec.Headers[CorrelationHeader] = correlation
		}
		if err := box.Add(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// Recorder is implemented by aggregates that collect domain events.
type Recorder interface {
	Drain() []events.DomainEvent
}

// Drain collects and clears the pending events of every recorder, in order.
func Drain(recorders ...Recorder) []events.DomainEvent {
	var out []events.DomainEvent
	for _, r := range recorders {
		if r == nil {
			continue
		}
		out = append(out, r.Drain()...)
	}
	return out
}
