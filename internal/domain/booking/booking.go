package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"rentflow/internal/domain/listings"
	"rentflow/internal/domain/pricing"
	"rentflow/internal/domain/shared/daterange"
	"rentflow/internal/domain/shared/errs"
	"rentflow/internal/domain/shared/events"
	"rentflow/internal/domain/shared/money"
)

var (
	ErrBookingNotFound   = errs.NotFound("booking: not found")
	ErrInvalidDates      = errs.Validation("booking: check-in must be before check-out")
	ErrSelfBooking       = errs.Validation("booking: leaser cannot book own listing")
	ErrRenterRequired    = errs.Validation("booking: renter id is required")
	ErrExtensionDate     = errs.Validation("booking: extension date must be after check-in")
	ErrExtensionPending  = errs.Conflict("booking: an extension request is already pending")
	ErrExtensionNotFound = errs.NotFound("booking: no pending extension request")
	ErrNotExtendable     = errs.Conflict("booking: booking is not currently extendable")
	ErrUnavailable       = errs.Conflict("booking: listing is not available for the requested dates")
	ErrBrokenChain       = errors.New("booking: extension chain is broken")
)

type BookingID string

// Dates holds the physical handover and return instants. A zero value means
// the event has not happened yet.
type Dates struct {
	Handover   time.Time
	ReturnDate time.Time
}

// ExtendCharges is the charge layer added when an extension is approved.
type ExtendCharges struct {
	ExtendCharges money.Amount
	TotalPrice    money.Amount
}

// ExtraRequestCharges is the surcharge a leaser sets when approving a booking
// that carries a special request.
type ExtraRequestCharges struct {
	AdditionalCharges money.Amount
	TotalPrice        money.Amount
}

type Booking struct {
	ID                  BookingID
	ListingID           listings.ListingID
	RenterID            string
	LeaserID            string
	Dates               daterange.DateRange
	BookingDates        Dates
	PriceDetails        pricing.Details
	ExtendCharges       ExtendCharges
	ExtraRequestCharges ExtraRequestCharges
	SpecialRequest      string
	PreviousBookingID   BookingID
	IsExtend            bool
	ExtensionRequested  bool
	OTP                 string
	IsVerified          bool
	Status              Status
	CreatedAt           time.Time
	UpdatedAt           time.Time
	Version             int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
	// ActiveForRenter returns the renter's booking on listingID that has been
	// handed over and not yet returned, or nil.
	ActiveForRenter(ctx context.Context, renterID string, listingID listings.ListingID) (*Booking, error)
	// ChildrenOf returns bookings whose PreviousBookingID is parentID, oldest first.
	ChildrenOf(ctx context.Context, parentID BookingID) ([]*Booking, error)
	// ListByListing returns bookings on listingID in any of statuses.
	ListByListing(ctx context.Context, listingID listings.ListingID, statuses ...Status) ([]*Booking, error)
}

type CreateParams struct {
	ID             BookingID
	ListingID      listings.ListingID
	RenterID       string
	LeaserID       string
	Range          daterange.DateRange
	Price          pricing.Details
	SpecialRequest string
	CreatedAt      time.Time
}

func NewBooking(params CreateParams) (*Booking, error) {
	renter := strings.TrimSpace(params.RenterID)
	if renter == "" {
		return nil, ErrRenterRequired
	}
	if renter == params.LeaserID {
		return nil, ErrSelfBooking
	}
	if err := params.Range.Validate(); err != nil {
		return nil, ErrInvalidDates
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:             params.ID,
		ListingID:      params.ListingID,
		RenterID:       renter,
		LeaserID:       params.LeaserID,
		Dates:          params.Range,
		PriceDetails:   params.Price,
		SpecialRequest: strings.TrimSpace(params.SpecialRequest),
		Status:         StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	b.Record(BookingRequested{BookingID: b.ID, ListingID: b.ListingID, RenterID: b.RenterID, LeaserID: b.LeaserID, CheckIn: b.Dates.CheckIn, CheckOut: b.Dates.CheckOut, TotalPrice: b.PriceDetails.TotalPrice, At: now})
	return b, nil
}

// ExtensionRange is the interval an extension of active up to extensionDate
// covers. Check-in is inherited from the chain.
func ExtensionRange(active *Booking, extensionDate time.Time) (daterange.DateRange, error) {
	if !extensionDate.After(active.Dates.CheckIn) {
		return daterange.DateRange{}, ErrExtensionDate
	}
	return daterange.DateRange{CheckIn: active.Dates.CheckIn, CheckOut: extensionDate.UTC()}, nil
}

// NewExtensionRequest creates the pending child booking that asks to extend
// active until extensionDate.
func NewExtensionRequest(id BookingID, active *Booking, extensionDate time.Time, price pricing.Details, now time.Time) (*Booking, error) {
	if !active.IsActive() {
		return nil, ErrNotExtendable
	}
	dr, err := ExtensionRange(active, extensionDate)
	if err != nil {
		return nil, err
	}
	now = now.UTC()
	b := &Booking{
		ID:                 id,
		ListingID:          active.ListingID,
		RenterID:           active.RenterID,
		LeaserID:           active.LeaserID,
		Dates:              dr,
		PriceDetails:       price,
		PreviousBookingID:  active.ID,
		ExtensionRequested: true,
		Status:             StatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	b.Record(ExtensionRequested{BookingID: b.ID, ParentID: active.ID, ListingID: b.ListingID, RenterID: b.RenterID, LeaserID: b.LeaserID, ExtendUntil: dr.CheckOut, At: now})
	return b, nil
}

// IsActive reports whether the booking has been handed over and not returned.
func (b *Booking) IsActive() bool {
	return b.Status == StatusApproved && !b.BookingDates.Handover.IsZero() && b.BookingDates.ReturnDate.IsZero()
}

func (b *Booking) IsRoot() bool {
	return b.PreviousBookingID == ""
}

// PayableTotal is the cumulative amount charged for the booking: each charge
// layer's total already includes the layers beneath it.
func (b *Booking) PayableTotal() money.Amount {
	switch {
	case b.ExtendCharges.TotalPrice.IsPositive():
		return b.ExtendCharges.TotalPrice
	case b.ExtraRequestCharges.TotalPrice.IsPositive():
		return b.ExtraRequestCharges.TotalPrice
	default:
		return b.PriceDetails.TotalPrice
	}
}

// Clone returns a copy without pending events.
func (b *Booking) Clone() *Booking {
	if b == nil {
		return nil
	}
	c := *b
	c.EventRecorder = events.EventRecorder{}
	return &c
}

func (b *Booking) touch(now time.Time) {
	b.UpdatedAt = now.UTC()
}
