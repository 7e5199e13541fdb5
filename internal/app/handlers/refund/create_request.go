package refund

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"rentflow/internal/app/clock"
	"rentflow/internal/app/commands"
	"rentflow/internal/app/dto"
	"rentflow/internal/app/middleware"
	"rentflow/internal/app/outbox"
	"rentflow/internal/app/policies"
	"rentflow/internal/app/uow"
	domainbooking "rentflow/internal/domain/booking"
	domainrefund "rentflow/internal/domain/refund"
)

const (
	createRefundRequestKey = "refund.create"
	updateRefundStatusKey  = "refund.update_status"
	getRefundRequestKey    = "refund.get"
)

type CreateRefundRequestCommand struct {
	ActorID         string `validate:"required"`
	BookingID       string `validate:"required"`
	Reason          string `validate:"max=1000"`
	IdempotencyKeyV string
}

func (c CreateRefundRequestCommand) Key() string { return createRefundRequestKey }

func (c CreateRefundRequestCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateRefundRequestCommand) ResultPrototype() any { return &dto.RefundRequestDTO{} }

// CreateRefundRequestHandler evaluates the category's refund policy for a
// booking and files a pending request with the computed amounts.
type CreateRefundRequestHandler struct {
	Clock   clock.Clock
	NewID   func() string
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

func (h *CreateRefundRequestHandler) Handle(ctx context.Context, cmd CreateRefundRequestCommand) (*dto.RefundRequestDTO, error) {
	unit, err := uow.Current(ctx)
	if err != nil {
		return nil, err
	}
	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	if cmd.ActorID != b.RenterID {
		return nil, domainrefund.ErrRenterOnly
	}
	existing, err := unit.RefundRequests().ByBooking(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domainrefund.ErrAlreadyRequested
	}
	listing, err := unit.Listings().ByID(ctx, b.ListingID)
	if err != nil {
		return nil, err
	}
	policy, err := unit.RefundPolicies().ForCategory(ctx, listing.Zone, listing.SubCategory)
	if err != nil {
		return nil, err
	}

	req, err := domainrefund.NewRequest(domainrefund.CreateParams{
		ID:      domainrefund.RequestID(h.newID()),
		Booking: b,
		ActorID: cmd.ActorID,
		Reason:  cmd.Reason,
		Policy:  *policy,
		Now:     h.Clock.Now(),
	})
	if err != nil {
		return nil, err
	}
	if err := unit.RefundRequests().Save(ctx, req); err != nil {
		return nil, err
	}
	if err := outbox.RecordDomainEvents(ctx, unit.Outbox(), h.encoder(), req.Drain()); err != nil {
		return nil, err
	}

	policies.Enqueue(ctx, policies.Notification{
		UserID:   req.LeaserID,
		Title:    "Refund requested",
		Body:     fmt.Sprintf("The renter of %s requested a refund of %.2f.", listing.Title, req.TotalRefundAmount.Rounded()),
		Metadata: map[string]string{"refund_id": string(req.ID), "booking_id": string(b.ID), "type": "refund_requested"},
	})
	h.logger().InfoContext(ctx, "refund requested",
		"refund_id", req.ID,
		"booking_id", b.ID,
		"deduction", float64(req.Deduction),
		"refund", float64(req.TotalRefundAmount),
	)
	out := dto.MapRefundRequest(req)
	return &out, nil
}

func (h *CreateRefundRequestHandler) newID() string {
	if h.NewID != nil {
		return h.NewID()
	}
	return uuid.NewString()
}

func (h *CreateRefundRequestHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *CreateRefundRequestHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

var _ commands.Handler[CreateRefundRequestCommand, *dto.RefundRequestDTO] = (*CreateRefundRequestHandler)(nil)
var _ middleware.IdempotentCommand = (*CreateRefundRequestCommand)(nil)
