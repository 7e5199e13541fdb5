package memory

import (
	"context"
	"sort"

	domainbooking "rentflow/internal/domain/booking"
	domainforms "rentflow/internal/domain/forms"
	domainlistings "rentflow/internal/domain/listings"
	domainrefund "rentflow/internal/domain/refund"
	domainwallet "rentflow/internal/domain/wallet"
)

// Repositories below are views over the store bound to one unit of work.
// They hand out and keep clones so callers never share state with the store.

type listingRepo struct{ u *Unit }

func (r listingRepo) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	l, ok := r.u.store.listings[id]
	if !ok {
		return nil, domainlistings.ErrListingNotFound
	}
	return l.Clone(), nil
}

func (r listingRepo) Save(ctx context.Context, l *domainlistings.Listing) error {
	items := r.u.store.listings
	prev, exists := items[l.ID]
	if exists && prev.Version != l.Version {
		return ErrConcurrentUpdate
	}
	if err := r.u.write(func() { restore(items, l.ID, prev, exists) }); err != nil {
		return err
	}
	l.Version++
	items[l.ID] = l.Clone()
	return nil
}

type bookingRepo struct{ u *Unit }

func (r bookingRepo) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	b, ok := r.u.store.bookings[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return b.Clone(), nil
}

func (r bookingRepo) Save(ctx context.Context, b *domainbooking.Booking) error {
	items := r.u.store.bookings
	prev, exists := items[b.ID]
	if exists && prev.Version != b.Version {
		return ErrConcurrentUpdate
	}
	if err := r.u.write(func() { restore(items, b.ID, prev, exists) }); err != nil {
		return err
	}
	b.Version++
	items[b.ID] = b.Clone()
	return nil
}

func (r bookingRepo) ActiveForRenter(ctx context.Context, renterID string, listingID domainlistings.ListingID) (*domainbooking.Booking, error) {
	var found *domainbooking.Booking
	for _, b := range r.u.store.bookings {
		if b.RenterID != renterID || b.ListingID != listingID || !b.IsActive() {
			continue
		}
		if found == nil || b.CreatedAt.After(found.CreatedAt) {
			found = b
		}
	}
	return found.Clone(), nil
}

func (r bookingRepo) ChildrenOf(ctx context.Context, parentID domainbooking.BookingID) ([]*domainbooking.Booking, error) {
	var out []*domainbooking.Booking
	for _, b := range r.u.store.bookings {
		if b.PreviousBookingID == parentID {
			out = append(out, b.Clone())
		}
	}
	sortBookings(out)
	return out, nil
}

func (r bookingRepo) ListByListing(ctx context.Context, listingID domainlistings.ListingID, statuses ...domainbooking.Status) ([]*domainbooking.Booking, error) {
	var out []*domainbooking.Booking
	for _, b := range r.u.store.bookings {
		if b.ListingID != listingID || !hasStatus(statuses, b.Status) {
			continue
		}
		out = append(out, b.Clone())
	}
	sortBookings(out)
	return out, nil
}

func hasStatus(statuses []domainbooking.Status, s domainbooking.Status) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}

func sortBookings(list []*domainbooking.Booking) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
}

type formRepo struct{ u *Unit }

func (r formRepo) ForCategory(ctx context.Context, zone, subCategory string) (*domainforms.Form, error) {
	f, ok := r.u.store.forms[categoryKey(zone, subCategory)]
	if !ok {
		return nil, domainforms.ErrFormNotFound
	}
	c := *f
	c.RequiredRenterDocuments = append([]string(nil), f.RequiredRenterDocuments...)
	return &c, nil
}

type documentRepo struct{ u *Unit }

func (r documentRepo) ListByUser(ctx context.Context, userID string) ([]domainforms.Document, error) {
	return append([]domainforms.Document(nil), r.u.store.documents[userID]...), nil
}

type policyRepo struct{ u *Unit }

func (r policyRepo) ForCategory(ctx context.Context, zone, subCategory string) (*domainrefund.Policy, error) {
	p, ok := r.u.store.policies[categoryKey(zone, subCategory)]
	if !ok {
		return nil, domainrefund.ErrPolicyNotFound
	}
	c := *p
	return &c, nil
}

type refundRepo struct{ u *Unit }

func (r refundRepo) ByID(ctx context.Context, id domainrefund.RequestID) (*domainrefund.Request, error) {
	req, ok := r.u.store.refunds[id]
	if !ok {
		return nil, domainrefund.ErrRequestNotFound
	}
	return req.Clone(), nil
}

func (r refundRepo) ByBooking(ctx context.Context, bookingID domainbooking.BookingID) (*domainrefund.Request, error) {
	for _, req := range r.u.store.refunds {
		if req.BookingID == bookingID {
			return req.Clone(), nil
		}
	}
	return nil, nil
}

func (r refundRepo) Save(ctx context.Context, req *domainrefund.Request) error {
	items := r.u.store.refunds
	prev, exists := items[req.ID]
	if exists && prev.Version != req.Version {
		if !prev.IsPending() {
			return domainrefund.ErrAlreadyProcessed
		}
		return ErrConcurrentUpdate
	}
	if err := r.u.write(func() { restore(items, req.ID, prev, exists) }); err != nil {
		return err
	}
	req.Version++
	items[req.ID] = req.Clone()
	return nil
}

type walletRepo struct{ u *Unit }

func (r walletRepo) ByUserID(ctx context.Context, userID string) (*domainwallet.Wallet, error) {
	w, ok := r.u.store.wallets[userID]
	if !ok {
		return nil, domainwallet.ErrWalletNotFound
	}
	return w.Clone(), nil
}

func (r walletRepo) Save(ctx context.Context, w *domainwallet.Wallet) error {
	items := r.u.store.wallets
	prev, exists := items[w.UserID]
	if exists && prev.Version != w.Version {
		return ErrConcurrentUpdate
	}
	if err := r.u.write(func() { restore(items, w.UserID, prev, exists) }); err != nil {
		return err
	}
	w.Version++
	items[w.UserID] = w.Clone()
	return nil
}

type ledgerRepo struct{ u *Unit }

func (r ledgerRepo) AppendBatch(ctx context.Context, rows []domainwallet.Transaction) error {
	if len(rows) == 0 {
		return nil
	}
	store := r.u.store
	n := len(store.ledger)
	if err := r.u.write(func() { store.ledger = store.ledger[:n] }); err != nil {
		return err
	}
	store.ledger = append(store.ledger, rows...)
	return nil
}

// ListByUser returns the user's rows newest first.
func (r ledgerRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domainwallet.Transaction, error) {
	var out []domainwallet.Transaction
	skipped := 0
	for i := len(r.u.store.ledger) - 1; i >= 0; i-- {
		row := r.u.store.ledger[i]
		if row.UserID != userID {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		out = append(out, row)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// restore puts prev back under key, or removes key when it did not exist.
func restore[K comparable, V any](items map[K]V, key K, prev V, existed bool) {
	if existed {
		items[key] = prev
		return
	}
	delete(items, key)
}
