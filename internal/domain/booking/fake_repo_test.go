package booking

import (
	"context"
	"sort"

	"rentflow/internal/domain/listings"
)

type fakeRepo struct {
	items map[BookingID]*Booking
}

func newFakeRepo(bs ...*Booking) *fakeRepo {
	r := &fakeRepo{items: map[BookingID]*Booking{}}
	for _, b := range bs {
		r.items[b.ID] = b
	}
	return r
}

func (r *fakeRepo) ByID(_ context.Context, id BookingID) (*Booking, error) {
	b, ok := r.items[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	return b, nil
}

func (r *fakeRepo) Save(_ context.Context, b *Booking) error {
	r.items[b.ID] = b
	return nil
}

func (r *fakeRepo) ActiveForRenter(_ context.Context, renterID string, listingID listings.ListingID) (*Booking, error) {
	for _, b := range r.items {
		if b.RenterID == renterID && b.ListingID == listingID && b.IsActive() {
			return b, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) ChildrenOf(_ context.Context, parentID BookingID) ([]*Booking, error) {
	var out []*Booking
	for _, b := range r.items {
		if b.PreviousBookingID == parentID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeRepo) ListByListing(_ context.Context, listingID listings.ListingID, statuses ...Status) ([]*Booking, error) {
	var out []*Booking
	for _, b := range r.items {
		if b.ListingID != listingID {
			continue
		}
		for _, s := range statuses {
			if b.Status == s {
				out = append(out, b)
				break
			}
		}
	}
	return out, nil
}
