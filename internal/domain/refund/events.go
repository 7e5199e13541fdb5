package refund

import (
	"time"

	"rentflow/internal/domain/booking"
	"rentflow/internal/domain/shared/money"
)

type RefundRequested struct {
	RequestID    RequestID
	BookingID    booking.BookingID
	RenterID     string
	LeaserID     string
	Deduction    money.Amount
	RefundAmount money.Amount
	At           time.Time
}

func (e RefundRequested) EventName() string     { return "refund.requested" }
func (e RefundRequested) AggregateID() string   { return string(e.RequestID) }
func (e RefundRequested) OccurredAt() time.Time { return e.At }

type RefundAccepted struct {
	RequestID    RequestID
	BookingID    booking.BookingID
	RefundAmount money.Amount
	Deduction    money.Amount
	At           time.Time
}

func (e RefundAccepted) EventName() string     { return "refund.accepted" }
func (e RefundAccepted) AggregateID() string   { return string(e.RequestID) }
func (e RefundAccepted) OccurredAt() time.Time { return e.At }

type RefundRejected struct {
	RequestID RequestID
	BookingID booking.BookingID
	At        time.Time
}

func (e RefundRejected) EventName() string     { return "refund.rejected" }
func (e RefundRejected) AggregateID() string   { return string(e.RequestID) }
func (e RefundRejected) OccurredAt() time.Time { return e.At }
