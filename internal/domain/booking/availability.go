package booking

import (
	"context"

	"rentflow/internal/domain/listings"
	"rentflow/internal/domain/shared/daterange"
)

// BlockingStatuses are the statuses that hold a listing's dates.
var BlockingStatuses = []Status{StatusPending, StatusApproved}

// IsAvailable reports whether no blocking booking on listingID overlaps dr,
// ignoring the bookings in exclude.
func IsAvailable(ctx context.Context, repo Repository, listingID listings.ListingID, dr daterange.DateRange, exclude ...BookingID) (bool, error) {
	existing, err := repo.ListByListing(ctx, listingID, BlockingStatuses...)
	if err != nil {
		return false, err
	}
	skip := make(map[BookingID]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}
	for _, b := range existing {
		if _, ok := skip[b.ID]; ok {
			continue
		}
		if b.Dates.Overlaps(dr) {
			return false, nil
		}
	}
	return true, nil
}
