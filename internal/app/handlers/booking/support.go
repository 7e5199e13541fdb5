package booking

import (
	"context"

	"github.com/google/uuid"

	"rentflow/internal/app/outbox"
	"rentflow/internal/app/uow"
	domainbooking "rentflow/internal/domain/booking"
)

const (
	createBookingKey       = "booking.create"
	updateBookingStatusKey = "booking.update_status"
	submitHandoverPinKey   = "booking.submit_handover_pin"
	getBookingKey          = "booking.get"
)

func newID(gen func() string) string {
	if gen != nil {
		return gen()
	}
	return uuid.NewString()
}

func encoderOrDefault(enc outbox.EventEncoder) outbox.EventEncoder {
	if enc != nil {
		return enc
	}
	return outbox.JSONEventEncoder{}
}

// persist saves bookings in order and stages their pending events.
func persist(ctx context.Context, unit uow.UnitOfWork, enc outbox.EventEncoder, bookings ...*domainbooking.Booking) error {
	recorders := make([]outbox.Recorder, 0, len(bookings))
	for _, b := range bookings {
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return err
		}
		recorders = append(recorders, b)
	}
	return outbox.RecordDomainEvents(ctx, unit.Outbox(), encoderOrDefault(enc), outbox.Drain(recorders...))
}
