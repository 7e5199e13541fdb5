package listings

import (
	"context"
	"errors"
	"strings"
	"time"

	"rentflow/internal/domain/shared/errs"
	"rentflow/internal/domain/shared/money"
)

var (
	ErrListingNotFound = errs.NotFound("listings: not found")
	ErrInvalidPrice    = errors.New("listings: price must be positive")
	ErrPriceUnit       = errors.New("listings: unknown price unit")
	ErrLeaserRequired  = errors.New("listings: leaser id is required")
)

type ListingID string

// PriceUnit is the period a listing's base price covers.
type PriceUnit string

const (
	PerHour  PriceUnit = "hour"
	PerDay   PriceUnit = "day"
	PerWeek  PriceUnit = "week"
	PerMonth PriceUnit = "month"
)

// Duration returns the length of one pricing period.
func (u PriceUnit) Duration() (time.Duration, error) {
	switch PriceUnit(strings.ToLower(string(u))) {
	case PerHour:
		return time.Hour, nil
	case PerDay, "":
		return 24 * time.Hour, nil
	case PerWeek:
		return 7 * 24 * time.Hour, nil
	case PerMonth:
		return 30 * 24 * time.Hour, nil
	default:
		return 0, ErrPriceUnit
	}
}

// Listing is the rental unit as the booking engine sees it: who owns it, how
// it is priced and which bookings currently hold it.
type Listing struct {
	ID                ListingID
	LeaserID          string
	Title             string
	Zone              string
	SubCategory       string
	Price             money.Amount
	PriceUnit         PriceUnit
	IsAvailable       bool
	CurrentBookingIDs []string
	Version           int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type Repository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	Save(ctx context.Context, listing *Listing) error
}

type CreateListingParams struct {
	ID          ListingID
	LeaserID    string
	Title       string
	Zone        string
	SubCategory string
	Price       money.Amount
	PriceUnit   PriceUnit
	Now         time.Time
}

func NewListing(params CreateListingParams) (*Listing, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("listings: id is required")
	}
	if strings.TrimSpace(params.LeaserID) == "" {
		return nil, ErrLeaserRequired
	}
	if !params.Price.IsPositive() {
		return nil, ErrInvalidPrice
	}
	if _, err := params.PriceUnit.Duration(); err != nil {
		return nil, err
	}
	unit := params.PriceUnit
	if unit == "" {
		unit = PerDay
	}
	now := params.Now.UTC()
	return &Listing{
		ID:          params.ID,
		LeaserID:    strings.TrimSpace(params.LeaserID),
		Title:       strings.TrimSpace(params.Title),
		Zone:        strings.TrimSpace(params.Zone),
		SubCategory: strings.TrimSpace(params.SubCategory),
		Price:       params.Price,
		PriceUnit:   unit,
		IsAvailable: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// AttachBooking records bookingID in the current-bookings set. When hold is
// true the listing is marked unavailable.
func (l *Listing) AttachBooking(bookingID string, hold bool, now time.Time) {
	if !l.HasBooking(bookingID) {
		l.CurrentBookingIDs = append(l.CurrentBookingIDs, bookingID)
	}
	if hold {
		l.IsAvailable = false
	}
	l.UpdatedAt = now.UTC()
}

// ReleaseBooking removes bookingID from the current-bookings set and marks
// the listing available again.
func (l *Listing) ReleaseBooking(bookingID string, now time.Time) {
	kept := l.CurrentBookingIDs[:0]
	for _, id := range l.CurrentBookingIDs {
		if id != bookingID {
			kept = append(kept, id)
		}
	}
	l.CurrentBookingIDs = kept
	l.IsAvailable = true
	l.UpdatedAt = now.UTC()
}

func (l *Listing) HasBooking(bookingID string) bool {
	for _, id := range l.CurrentBookingIDs {
		if id == bookingID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy safe to mutate independently.
func (l *Listing) Clone() *Listing {
	if l == nil {
		return nil
	}
	c := *l
	c.CurrentBookingIDs = append([]string(nil), l.CurrentBookingIDs...)
	return &c
}
