package outbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentflow/internal/domain/shared/events"
)

type stubEvent struct {
	BookingID string `json:"booking_id"`
	at        time.Time
}

func (e stubEvent) EventName() string     { return "booking.requested" }
func (e stubEvent) AggregateID() string   { return e.BookingID }
func (e stubEvent) OccurredAt() time.Time { return e.at }

type sliceOutbox struct{ records []EventRecord }

func (s *sliceOutbox) Add(_ context.Context, rec EventRecord) error {
	s.records = append(s.records, rec)
	return nil
}

func (s *sliceOutbox) Flush(context.Context) error { return nil }

func TestRecordDomainEventsStampsCorrelation(t *testing.T) {
	box := &sliceOutbox{}
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ctx := WithCorrelationID(context.Background(), "req-42")
	enc := JSONEventEncoder{IDGenerator: func() string { return "evt-1" }}

	err := RecordDomainEvents(ctx, box, enc, []events.DomainEvent{stubEvent{BookingID: "bk-1", at: at}})
	require.NoError(t, err)
	require.Len(t, box.records, 1)
	rec := box.records[0]
	assert.Equal(t, "evt-1", rec.ID)
	assert.Equal(t, "booking.requested", rec.Name)
	assert.Equal(t, "bk-1", rec.Aggregate)
	assert.True(t, at.Equal(rec.OccurredAt))
	assert.JSONEq(t, `{"booking_id":"bk-1"}`, string(rec.Payload))
	assert.Equal(t, "req-42", rec.Headers[CorrelationHeader])
}

func TestRecordDomainEventsWithoutCorrelation(t *testing.T) {
	box := &sliceOutbox{}
	err := RecordDomainEvents(context.Background(), box, nil, []events.DomainEvent{stubEvent{BookingID: "bk-1"}})
	require.NoError(t, err)
	require.Len(t, box.records, 1)
	assert.NotEmpty(t, box.records[0].ID)
	assert.NotContains(t, box.records[0].Headers, CorrelationHeader)
	assert.Equal(t, context.Background(), WithCorrelationID(context.Background(), ""))
}
