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
	domainforms "rentflow/internal/domain/forms"
	domainlistings "rentflow/internal/domain/listings"
	"rentflow/internal/domain/pricing"
	"rentflow/internal/domain/shared/daterange"
)

// CreateBookingCommand asks for a new booking. When the renter already holds
// the listing it becomes an extension request up to ExtensionDate (or
// CheckOut when no extension date is given), and CheckIn is ignored. Which
// dates are required is therefore decided by the handler.
type CreateBookingCommand struct {
	ActorID         string `validate:"required"`
	ListingID       string `validate:"required"`
	CheckIn         time.Time
	CheckOut        time.Time
	ExtensionDate   time.Time
	SpecialRequest  string `validate:"max=1000"`
	IdempotencyKeyV string
}

func (c CreateBookingCommand) Key() string { return createBookingKey }

func (c CreateBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateBookingCommand) ResultPrototype() any { return &CreateBookingResult{} }

type CreateBookingResult struct {
	Booking   dto.BookingDTO `json:"booking"`
	Extension bool           `json:"extension"`
}

type CreateBookingHandler struct {
	Clock   clock.Clock
	NewID   func() string
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*CreateBookingResult, error) {
	unit, err := uow.Current(ctx)
	if err != nil {
		return nil, err
	}
	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}
	if listing.LeaserID == cmd.ActorID {
		return nil, domainbooking.ErrSelfBooking
	}
	active, err := unit.Bookings().ActiveForRenter(ctx, cmd.ActorID, listing.ID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return h.requestExtension(ctx, unit, listing, active, cmd)
	}
	return h.requestBooking(ctx, unit, listing, cmd)
}

func (h *CreateBookingHandler) requestBooking(ctx context.Context, unit uow.UnitOfWork, listing *domainlistings.Listing, cmd CreateBookingCommand) (*CreateBookingResult, error) {
	now := h.Clock.Now()
	if cmd.CheckIn.IsZero() || cmd.CheckOut.IsZero() {
		return nil, domainbooking.ErrInvalidDates
	}
	dr, err := daterange.New(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return nil, domainbooking.ErrInvalidDates
	}
	free, err := domainbooking.IsAvailable(ctx, unit.Bookings(), listing.ID, dr)
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, domainbooking.ErrUnavailable
	}

	form, err := unit.Forms().ForCategory(ctx, listing.Zone, listing.SubCategory)
	if err != nil {
		return nil, err
	}
	docs, err := unit.Documents().ListByUser(ctx, cmd.ActorID)
	if err != nil {
		return nil, err
	}
	if err := domainforms.CheckRequired(form.RequiredRenterDocuments, domainforms.ApprovedNames(docs)); err != nil {
		return nil, err
	}
	price, err := pricing.Quote(listing, dr, form.Rates())
	if err != nil {
		return nil, err
	}

	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:             domainbooking.BookingID(newID(h.NewID)),
		ListingID:      listing.ID,
		RenterID:       cmd.ActorID,
		LeaserID:       listing.LeaserID,
		Range:          dr,
		Price:          price,
		SpecialRequest: cmd.SpecialRequest,
		CreatedAt:      now,
	})
	if err != nil {
		return nil, err
	}
	if err := persist(ctx, unit, h.Encoder, b); err != nil {
		return nil, err
	}
	listing.AttachBooking(string(b.ID), false, now)
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}

	policies.Enqueue(ctx, policies.Notification{
		UserID:   b.LeaserID,
		Title:    "New booking request",
		Body:     fmt.Sprintf("%s was requested from %s to %s.", listing.Title, dr.CheckIn.Format(time.DateOnly), dr.CheckOut.Format(time.DateOnly)),
		Metadata: map[string]string{"booking_id": string(b.ID), "type": "booking_requested"},
	})
	h.logger().InfoContext(ctx, "booking requested", "booking_id", b.ID, "listing_id", listing.ID, "actor_id", cmd.ActorID)
	return &CreateBookingResult{Booking: dto.MapBooking(b)}, nil
}

func (h *CreateBookingHandler) requestExtension(ctx context.Context, unit uow.UnitOfWork, listing *domainlistings.Listing, active *domainbooking.Booking, cmd CreateBookingCommand) (*CreateBookingResult, error) {
	now := h.Clock.Now()
	until := cmd.ExtensionDate
	if until.IsZero() {
		until = cmd.CheckOut
	}
	if until.IsZero() {
		return nil, domainbooking.ErrInvalidDates
	}
	chain, err := domainbooking.LoadChain(ctx, unit.Bookings(), active)
	if err != nil {
		return nil, err
	}
	if chain.PendingChild(active.ID) != nil {
		return nil, domainbooking.ErrExtensionPending
	}
	dr, err := domainbooking.ExtensionRange(active, until)
	if err != nil {
		return nil, err
	}
	free, err := domainbooking.IsAvailable(ctx, unit.Bookings(), listing.ID, dr, chain.IDs()...)
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, domainbooking.ErrUnavailable
	}
	form, err := unit.Forms().ForCategory(ctx, listing.Zone, listing.SubCategory)
	if err != nil {
		return nil, err
	}
	price, err := pricing.Quote(listing, dr, form.Rates())
	if err != nil {
		return nil, err
	}

	child, err := domainbooking.NewExtensionRequest(domainbooking.BookingID(newID(h.NewID)), active, until, price, now)
	if err != nil {
		return nil, err
	}
	if err := persist(ctx, unit, h.Encoder, child); err != nil {
		return nil, err
	}

	policies.Enqueue(ctx, policies.Notification{
		UserID:   child.LeaserID,
		Title:    "Extension requested",
		Body:     fmt.Sprintf("The renter of %s asked to extend until %s.", listing.Title, dr.CheckOut.Format(time.DateOnly)),
		Metadata: map[string]string{"booking_id": string(active.ID), "extension_id": string(child.ID), "type": "extension_requested"},
	})
	h.logger().InfoContext(ctx, "extension requested", "booking_id", child.ID, "parent_id", active.ID, "listing_id", listing.ID)
	return &CreateBookingResult{Booking: dto.MapBooking(child), Extension: true}, nil
}

func (h *CreateBookingHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

var _ commands.Handler[CreateBookingCommand, *CreateBookingResult] = (*CreateBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*CreateBookingCommand)(nil)
