package booking

import (
	"context"

	"rentflow/internal/app/dto"
	handlersupport "rentflow/internal/app/handlers/support"
	"rentflow/internal/app/queries"
	"rentflow/internal/app/uow"
	domainbooking "rentflow/internal/domain/booking"
)

type GetBookingQuery struct {
	ActorID   string `validate:"required"`
	BookingID string `validate:"required"`
}

func (q GetBookingQuery) Key() string { return getBookingKey }

// GetBookingHandler returns a booking with its extension chain. Only the two
// parties and the platform admin may read it.
type GetBookingHandler struct {
	UoWFactory uow.UoWFactory
	AdminID    string
}

func (h *GetBookingHandler) Handle(ctx context.Context, q GetBookingQuery) (dto.BookingWithChain, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingWithChain{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	b, err := unit.Bookings().ByID(execCtx, domainbooking.BookingID(q.BookingID))
	if err != nil {
		return dto.BookingWithChain{}, err
	}
	if q.ActorID != h.AdminID || h.AdminID == "" {
		if _, err := domainbooking.RoleOf(b, q.ActorID); err != nil {
			return dto.BookingWithChain{}, err
		}
	}
	chain, err := domainbooking.LoadChain(execCtx, unit.Bookings(), b)
	if err != nil {
		return dto.BookingWithChain{}, err
	}
	ordered := chain.Ordered()
	out := dto.BookingWithChain{
		Booking: dto.MapBooking(b),
		Chain:   make([]dto.BookingDTO, 0, len(ordered)),
	}
	for _, node := range ordered {
		out.Chain = append(out.Chain, dto.MapBooking(node))
	}
	return out, nil
}

var _ queries.Handler[GetBookingQuery, dto.BookingWithChain] = (*GetBookingHandler)(nil)
