package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"rentflow/internal/app/clock"
	"rentflow/internal/app/commands"
	"rentflow/internal/app/dto"
	"rentflow/internal/app/outbox"
	"rentflow/internal/app/policies"
	"rentflow/internal/app/uow"
	domainbooking "rentflow/internal/domain/booking"
)

type SubmitHandoverPinCommand struct {
	ActorID   string `validate:"required"`
	BookingID string `validate:"required"`
	Pin       string `validate:"required,len=4,numeric"`
}

func (c SubmitHandoverPinCommand) Key() string { return submitHandoverPinKey }

type SubmitHandoverPinResult struct {
	Booking dto.BookingDTO `json:"booking"`
}

// SubmitHandoverPinHandler records the physical handover once either party
// presents the pin the renter received on approval.
type SubmitHandoverPinHandler struct {
	Clock   clock.Clock
	Pins    policies.PinIssuer
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

func (h *SubmitHandoverPinHandler) Handle(ctx context.Context, cmd SubmitHandoverPinCommand) (*SubmitHandoverPinResult, error) {
	unit, err := uow.Current(ctx)
	if err != nil {
		return nil, err
	}
	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	if _, err := domainbooking.RoleOf(b, cmd.ActorID); err != nil {
		return nil, err
	}
	matched := b.OTP != "" && h.Pins.Compare(b.OTP, cmd.Pin)
	if err := b.VerifyHandover(matched, h.Clock.Now()); err != nil {
		if errors.Is(err, domainbooking.ErrPinMismatch) {
			h.logger().WarnContext(ctx, "handover pin mismatch", "booking_id", b.ID, "actor_id", cmd.ActorID)
		}
		return nil, err
	}
	if err := persist(ctx, unit, h.Encoder, b); err != nil {
		return nil, err
	}

	meta := map[string]string{"booking_id": string(b.ID), "type": "handover_verified"}
	body := fmt.Sprintf("Handover of booking %s was confirmed.", b.ID)
	policies.Enqueue(ctx,
		policies.Notification{UserID: b.RenterID, Title: "Handover confirmed", Body: body, Metadata: meta},
		policies.Notification{UserID: b.LeaserID, Title: "Handover confirmed", Body: body, Metadata: meta},
	)
	h.logger().InfoContext(ctx, "handover verified", "booking_id", b.ID, "actor_id", cmd.ActorID)
	return &SubmitHandoverPinResult{Booking: dto.MapBooking(b)}, nil
}

func (h *SubmitHandoverPinHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

var _ commands.Handler[SubmitHandoverPinCommand, *SubmitHandoverPinResult] = (*SubmitHandoverPinHandler)(nil)
