package refund

import (
	"context"
	"strings"
	"time"

	"rentflow/internal/domain/booking"
	"rentflow/internal/domain/listings"
	"rentflow/internal/domain/shared/errs"
	"rentflow/internal/domain/shared/events"
	"rentflow/internal/domain/shared/money"
)

var (
	ErrRequestNotFound  = errs.NotFound("refund: request not found")
	ErrAlreadyRequested = errs.Conflict("refund: a refund has already been requested for this booking")
	ErrAlreadyProcessed = errs.Conflict("refund: request has already been processed").WithCode("already_processed")
	ErrNotRefundable    = errs.Conflict("refund: only approved bookings can be refunded")
	ErrSuperseded       = errs.Conflict("refund: booking has been returned or extended")
	ErrRenterOnly       = errs.Forbidden("refund: only the renter can request a refund")
	ErrLeaserOnly       = errs.Forbidden("refund: only the leaser can settle a refund")
	ErrUnknownStatus    = errs.Validation("refund: unknown status")
	ErrDecisionRequired = errs.Validation("refund: decision must be accept or reject")
)

type RequestID string

type Status string

const (
	StatusPending Status = "pending"
	StatusAccept  Status = "accept"
	StatusReject  Status = "reject"
)

func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusPending, StatusAccept, StatusReject:
		return s, nil
	}
	return "", ErrUnknownStatus
}

// Request is a renter's refund claim. Deduction and TotalRefundAmount are
// fixed when the request is created.
type Request struct {
	ID                RequestID
	BookingID         booking.BookingID
	ListingID         listings.ListingID
	RenterID          string
	LeaserID          string
	Reason            string
	Deduction         money.Amount
	TotalRefundAmount money.Amount
	Status            Status
	DueAt             time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Version           int64
	events.EventRecorder
}

type RequestRepository interface {
	ByID(ctx context.Context, id RequestID) (*Request, error)
	// ByBooking returns the request for bookingID, or nil.
	ByBooking(ctx context.Context, bookingID booking.BookingID) (*Request, error)
	Save(ctx context.Context, req *Request) error
}

type CreateParams struct {
	ID      RequestID
	Booking *booking.Booking
	ActorID string
	Reason  string
	Policy  Policy
	Now     time.Time
}

// NewRequest evaluates the policy against the booking and snapshots the
// result on a pending request.
func NewRequest(params CreateParams) (*Request, error) {
	b := params.Booking
	if params.ActorID != b.RenterID {
		return nil, ErrRenterOnly
	}
	if b.Status != booking.StatusApproved {
		return nil, ErrNotRefundable
	}
	// an extended or returned booking no longer holds the rental
	if b.IsExtend || !b.BookingDates.ReturnDate.IsZero() {
		return nil, ErrSuperseded
	}
	now := params.Now.UTC()
	quote, err := Evaluate(params.Policy, b.Dates.CheckIn, b.PayableTotal(), now)
	if err != nil {
		return nil, err
	}
	req := &Request{
		ID:                params.ID,
		BookingID:         b.ID,
		ListingID:         b.ListingID,
		RenterID:          b.RenterID,
		LeaserID:          b.LeaserID,
		Reason:            strings.TrimSpace(params.Reason),
		Deduction:         quote.Deduction,
		TotalRefundAmount: quote.Refund,
		Status:            StatusPending,
		DueAt:             params.Policy.DueAt(now),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	req.Record(RefundRequested{RequestID: req.ID, BookingID: req.BookingID, RenterID: req.RenterID, LeaserID: req.LeaserID, Deduction: req.Deduction, RefundAmount: req.TotalRefundAmount, At: now})
	return req, nil
}

func (r *Request) IsPending() bool {
	return r.Status == StatusPending
}

// Accept marks the request as settled. It does not move money.
func (r *Request) Accept(now time.Time) error {
	if !r.IsPending() {
		return ErrAlreadyProcessed
	}
	r.Status = StatusAccept
	r.touch(now)
	r.Record(RefundAccepted{RequestID: r.ID, BookingID: r.BookingID, RefundAmount: r.TotalRefundAmount, Deduction: r.Deduction, At: r.UpdatedAt})
	return nil
}

func (r *Request) Reject(now time.Time) error {
	if !r.IsPending() {
		return ErrAlreadyProcessed
	}
	r.Status = StatusReject
	r.touch(now)
	r.Record(RefundRejected{RequestID: r.ID, BookingID: r.BookingID, At: r.UpdatedAt})
	return nil
}

func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	c := *r
	c.EventRecorder = events.EventRecorder{}
	return &c
}

func (r *Request) touch(now time.Time) {
	r.UpdatedAt = now.UTC()
}
