package booking

import (
	"time"

	"rentflow/internal/domain/listings"
	"rentflow/internal/domain/shared/money"
)

type BookingRequested struct {
	BookingID  BookingID
	ListingID  listings.ListingID
	RenterID   string
	LeaserID   string
	CheckIn    time.Time
	CheckOut   time.Time
	TotalPrice money.Amount
	At         time.Time
}

func (e BookingRequested) EventName() string     { return "booking.requested" }
func (e BookingRequested) AggregateID() string   { return string(e.BookingID) }
func (e BookingRequested) OccurredAt() time.Time { return e.At }

type ExtensionRequested struct {
	BookingID   BookingID
	ParentID    BookingID
	ListingID   listings.ListingID
	RenterID    string
	LeaserID    string
	ExtendUntil time.Time
	At          time.Time
}

func (e ExtensionRequested) EventName() string     { return "booking.extension_requested" }
func (e ExtensionRequested) AggregateID() string   { return string(e.BookingID) }
func (e ExtensionRequested) OccurredAt() time.Time { return e.At }

type BookingApproved struct {
	BookingID         BookingID
	ListingID         listings.ListingID
	RenterID          string
	AdditionalCharges money.Amount
	At                time.Time
}

func (e BookingApproved) EventName() string     { return "booking.approved" }
func (e BookingApproved) AggregateID() string   { return string(e.BookingID) }
func (e BookingApproved) OccurredAt() time.Time { return e.At }

type BookingRejected struct {
	BookingID BookingID
	ListingID listings.ListingID
	At        time.Time
}

func (e BookingRejected) EventName() string     { return "booking.rejected" }
func (e BookingRejected) AggregateID() string   { return string(e.BookingID) }
func (e BookingRejected) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID BookingID
	ListingID listings.ListingID
	At        time.Time
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }

type BookingCompleted struct {
	BookingID  BookingID
	ListingID  listings.ListingID
	ReturnDate time.Time
	At         time.Time
}

func (e BookingCompleted) EventName() string     { return "booking.completed" }
func (e BookingCompleted) AggregateID() string   { return string(e.BookingID) }
func (e BookingCompleted) OccurredAt() time.Time { return e.At }

type HandoverVerified struct {
	BookingID BookingID
	ListingID listings.ListingID
	Handover  time.Time
	At        time.Time
}

func (e HandoverVerified) EventName() string     { return "booking.handed_over" }
func (e HandoverVerified) AggregateID() string   { return string(e.BookingID) }
func (e HandoverVerified) OccurredAt() time.Time { return e.At }

type ExtensionApproved struct {
	BookingID     BookingID
	ParentID      BookingID
	ListingID     listings.ListingID
	ExtendCharges money.Amount
	TotalPrice    money.Amount
	Handover      time.Time
	At            time.Time
}

func (e ExtensionApproved) EventName() string     { return "booking.extension_approved" }
func (e ExtensionApproved) AggregateID() string   { return string(e.BookingID) }
func (e ExtensionApproved) OccurredAt() time.Time { return e.At }

type ExtensionRejected struct {
	BookingID BookingID
	ParentID  BookingID
	ListingID listings.ListingID
	At        time.Time
}

func (e ExtensionRejected) EventName() string     { return "booking.extension_rejected" }
func (e ExtensionRejected) AggregateID() string   { return string(e.BookingID) }
func (e ExtensionRejected) OccurredAt() time.Time { return e.At }
