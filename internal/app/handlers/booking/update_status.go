package booking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"rentflow/internal/app/clock"
	"rentflow/internal/app/commands"
	"rentflow/internal/app/dto"
	"rentflow/internal/app/middleware"
	"rentflow/internal/app/outbox"
	"rentflow/internal/app/policies"
	"rentflow/internal/app/uow"
	domainbooking "rentflow/internal/domain/booking"
	domainlistings "rentflow/internal/domain/listings"
	"rentflow/internal/domain/shared/money"
)

// UpdateBookingStatusCommand is a party's decision on a booking. With
// IsExtendApproval set it decides the booking's pending extension instead.
type UpdateBookingStatusCommand struct {
	ActorID           string  `validate:"required"`
	BookingID         string  `validate:"required"`
	Status            string  `validate:"required"`
	AdditionalCharges float64 `validate:"gte=0"`
	IsExtendApproval  bool
	IdempotencyKeyV   string
}

func (c UpdateBookingStatusCommand) Key() string { return updateBookingStatusKey }

func (c UpdateBookingStatusCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c UpdateBookingStatusCommand) ResultPrototype() any { return &UpdateBookingStatusResult{} }

type UpdateBookingStatusResult struct {
	Booking dto.BookingDTO `json:"booking"`
	// Extension is the decided extension booking, when the command targeted one.
	Extension *dto.BookingDTO `json:"extension,omitempty"`
}

type UpdateBookingStatusHandler struct {
	Clock   clock.Clock
	Pins    policies.PinIssuer
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

func (h *UpdateBookingStatusHandler) Handle(ctx context.Context, cmd UpdateBookingStatusCommand) (*UpdateBookingStatusResult, error) {
	unit, err := uow.Current(ctx)
	if err != nil {
		return nil, err
	}
	status, err := domainbooking.ParseStatus(cmd.Status)
	if err != nil {
		return nil, err
	}
	decision := domainbooking.Decision{
		Status:            status,
		AdditionalCharges: money.Amount(cmd.AdditionalCharges),
		Extension:         cmd.IsExtendApproval,
	}
	if err := decision.Validate(); err != nil {
		return nil, err
	}

	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	role, err := domainbooking.RoleOf(b, cmd.ActorID)
	if err != nil {
		return nil, err
	}
	if err := decision.Authorize(role); err != nil {
		return nil, err
	}
	chain, err := domainbooking.LoadChain(ctx, unit.Bookings(), b)
	if err != nil {
		return nil, err
	}
	// the chain holds the instances that get mutated and saved
	b = chain.Get(b.ID)
	listing, err := unit.Listings().ByID(ctx, b.ListingID)
	if err != nil {
		return nil, err
	}

	if decision.Extension {
		return h.decideExtension(ctx, unit, chain, b, listing, decision)
	}

	if b.ExtensionRequested {
		return nil, domainbooking.ErrDecideOnParent
	}

	now := h.Clock.Now()
	touched := []*domainbooking.Booking{b}
	var note policies.Notification
	switch status {
	case domainbooking.StatusApproved:
		pin, err := h.Pins.Generate()
		if err != nil {
			return nil, err
		}
		hash, err := h.Pins.Hash(pin)
		if err != nil {
			return nil, err
		}
		if err := b.Approve(decision.AdditionalCharges, hash, now); err != nil {
			return nil, err
		}
		listing.AttachBooking(string(b.ID), true, now)
		note = policies.Notification{
			UserID: b.RenterID,
			Title:  "Booking approved",
			Body:   fmt.Sprintf("Your booking of %s was approved. Your handover PIN is %s.", listing.Title, pin),
		}
	case domainbooking.StatusRejected:
		if err := b.Reject(now); err != nil {
			return nil, err
		}
		listing.ReleaseBooking(string(b.ID), now)
		note = policies.Notification{UserID: b.RenterID, Title: "Booking rejected", Body: fmt.Sprintf("Your booking of %s was rejected.", listing.Title)}
	case domainbooking.StatusCancelled:
		if err := b.Cancel(now); err != nil {
			return nil, err
		}
		listing.ReleaseBooking(string(b.ID), now)
		note = policies.Notification{UserID: b.LeaserID, Title: "Booking cancelled", Body: fmt.Sprintf("The booking of %s was cancelled by the renter.", listing.Title)}
	case domainbooking.StatusCompleted:
		closed, err := completeChain(chain, b, now)
		if err != nil {
			return nil, err
		}
		for _, c := range closed {
			listing.ReleaseBooking(string(c.ID), now)
		}
		touched = closed
		note = policies.Notification{UserID: b.RenterID, Title: "Booking completed", Body: fmt.Sprintf("Your rental of %s is complete.", listing.Title)}
	default:
		return nil, domainbooking.ErrInvalidTransition
	}
	if b.Status.IsTerminal() {
		// a closed booking cannot be extended any more
		if pending := chain.PendingChild(b.ID); pending != nil {
			if err := pending.RejectExtension(now); err != nil {
				return nil, err
			}
			touched = append(touched, pending)
		}
	}

	if err := persist(ctx, unit, h.Encoder, touched...); err != nil {
		return nil, err
	}
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}
	note.Metadata = map[string]string{"booking_id": string(b.ID), "type": "booking_" + string(b.Status)}
	policies.Enqueue(ctx, note)
	h.logger().InfoContext(ctx, "booking status updated", "booking_id", b.ID, "status", b.Status, "actor_id", cmd.ActorID)
	return &UpdateBookingStatusResult{Booking: dto.MapBooking(b)}, nil
}

// completeChain completes target and every other approved booking of the
// chain, so no extension is left open behind the one being closed. A tail or
// root that was already completed gets its return restamped. Every booking
// it changed is returned, target first.
func completeChain(chain *domainbooking.Chain, target *domainbooking.Booking, now time.Time) ([]*domainbooking.Booking, error) {
	if err := target.Complete(now); err != nil {
		return nil, err
	}
	closed := []*domainbooking.Booking{target}
	edges := []*domainbooking.Booking{chain.Tail(target.ID), chain.Root()}
	for _, other := range chain.Ordered() {
		if containsBooking(closed, other) {
			continue
		}
		switch {
		case other.Status == domainbooking.StatusApproved:
			if err := other.Complete(now); err != nil {
				return nil, err
			}
		case other.Status == domainbooking.StatusCompleted && containsBooking(edges, other):
			other.StampReturn(now)
		default:
			continue
		}
		closed = append(closed, other)
	}
	return closed, nil
}

func containsBooking(list []*domainbooking.Booking, b *domainbooking.Booking) bool {
	for _, x := range list {
		if x != nil && x.ID == b.ID {
			return true
		}
	}
	return false
}

func (h *UpdateBookingStatusHandler) decideExtension(ctx context.Context, unit uow.UnitOfWork, chain *domainbooking.Chain, parent *domainbooking.Booking, listing *domainlistings.Listing, decision domainbooking.Decision) (*UpdateBookingStatusResult, error) {
	child := chain.PendingChild(parent.ID)
	if child == nil {
		return nil, domainbooking.ErrExtensionNotFound
	}
	now := h.Clock.Now()
	touched := []*domainbooking.Booking{child}
	var note policies.Notification
	if decision.ExtensionApproved() {
		if parent.Status != domainbooking.StatusApproved {
			return nil, domainbooking.ErrNotExtendable
		}
		if err := child.ApproveExtension(parent, decision.AdditionalCharges, now); err != nil {
			return nil, err
		}
		for _, ancestor := range chain.Ancestors(child.ID) {
			ancestor.MarkExtended(now)
			touched = append(touched, ancestor)
		}
		listing.AttachBooking(string(child.ID), true, now)
		if err := unit.Listings().Save(ctx, listing); err != nil {
			return nil, err
		}
		note = policies.Notification{
			UserID: child.RenterID,
			Title:  "Extension approved",
			Body:   fmt.Sprintf("Your rental of %s now runs until %s.", listing.Title, child.Dates.CheckOut.Format(time.DateOnly)),
		}
	} else {
		if err := child.RejectExtension(now); err != nil {
			return nil, err
		}
		note = policies.Notification{UserID: child.RenterID, Title: "Extension rejected", Body: fmt.Sprintf("Your extension request for %s was rejected.", listing.Title)}
	}
	if err := persist(ctx, unit, h.Encoder, touched...); err != nil {
		return nil, err
	}
	note.Metadata = map[string]string{"booking_id": string(parent.ID), "extension_id": string(child.ID), "type": "extension_" + string(child.Status)}
	policies.Enqueue(ctx, note)
	h.logger().InfoContext(ctx, "extension decided", "booking_id", child.ID, "parent_id", parent.ID, "status", child.Status)

	childDTO := dto.MapBooking(child)
	return &UpdateBookingStatusResult{Booking: dto.MapBooking(parent), Extension: &childDTO}, nil
}

func (h *UpdateBookingStatusHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

var _ commands.Handler[UpdateBookingStatusCommand, *UpdateBookingStatusResult] = (*UpdateBookingStatusHandler)(nil)
var _ middleware.IdempotentCommand = (*UpdateBookingStatusCommand)(nil)
