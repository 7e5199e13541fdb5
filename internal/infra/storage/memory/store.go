package memory

import (
	"context"
	"errors"
	"strings"

	appoutbox "rentflow/internal/app/outbox"
	"rentflow/internal/app/uow"
	domainbooking "rentflow/internal/domain/booking"
	domainforms "rentflow/internal/domain/forms"
	domainlistings "rentflow/internal/domain/listings"
	domainrefund "rentflow/internal/domain/refund"
	"rentflow/internal/domain/shared/errs"
	domainwallet "rentflow/internal/domain/wallet"
)

var (
	// ErrConcurrentUpdate is returned when a saved aggregate is older than the stored one.
	ErrConcurrentUpdate = errs.Conflict("memory: concurrent update detected")
	ErrUnitClosed       = errors.New("memory: unit of work already finished")
)

// Store keeps every collection in process memory. A unit of work holds the
// store exclusively from Begin until Commit or Rollback, so transactions are
// serial. Writes are journaled and undone on rollback.
type Store struct {
	sem chan struct{}

	listings  map[domainlistings.ListingID]*domainlistings.Listing
	bookings  map[domainbooking.BookingID]*domainbooking.Booking
	forms     map[string]*domainforms.Form
	documents map[string][]domainforms.Document
	policies  map[string]*domainrefund.Policy
	refunds   map[domainrefund.RequestID]*domainrefund.Request
	wallets   map[string]*domainwallet.Wallet
	ledger    []domainwallet.Transaction

	outbox *Outbox
}

func NewStore() *Store {
	return &Store{
		sem:       make(chan struct{}, 1),
		listings:  make(map[domainlistings.ListingID]*domainlistings.Listing),
		bookings:  make(map[domainbooking.BookingID]*domainbooking.Booking),
		forms:     make(map[string]*domainforms.Form),
		documents: make(map[string][]domainforms.Document),
		policies:  make(map[string]*domainrefund.Policy),
		refunds:   make(map[domainrefund.RequestID]*domainrefund.Request),
		wallets:   make(map[string]*domainwallet.Wallet),
		outbox:    NewOutbox(),
	}
}

// Outbox returns the store's committed event log.
func (s *Store) Outbox() *Outbox {
	return s.outbox
}

func (s *Store) lock(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) unlock() {
	<-s.sem
}

// Seed runs fn with exclusive access outside any unit of work. It is meant
// for fixtures and tests.
func (s *Store) Seed(fn func(*Seeder)) {
	s.sem <- struct{}{}
	defer s.unlock()
	fn(&Seeder{s: s})
}

// Seeder writes reference data directly into the store.
type Seeder struct {
	s *Store
}

func (sd *Seeder) Listing(l *domainlistings.Listing) {
	sd.s.listings[l.ID] = l.Clone()
}

func (sd *Seeder) Booking(b *domainbooking.Booking) {
	sd.s.bookings[b.ID] = b.Clone()
}

func (sd *Seeder) Form(f domainforms.Form) {
	f.RequiredRenterDocuments = append([]string(nil), f.RequiredRenterDocuments...)
	sd.s.forms[categoryKey(f.Zone, f.SubCategory)] = &f
}

func (sd *Seeder) Document(d domainforms.Document) {
	sd.s.documents[d.UserID] = append(sd.s.documents[d.UserID], d)
}

func (sd *Seeder) Policy(p domainrefund.Policy) {
	sd.s.policies[categoryKey(p.Zone, p.SubCategory)] = &p
}

func (sd *Seeder) Wallet(w *domainwallet.Wallet) {
	sd.s.wallets[w.UserID] = w.Clone()
}

func categoryKey(zone, subCategory string) string {
	return strings.ToLower(strings.TrimSpace(zone)) + "|" + strings.ToLower(strings.TrimSpace(subCategory))
}

// Factory starts units of work over a Store.
type Factory struct {
	Store *Store
}

var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.Store == nil {
		return nil, ErrFactoryMisconfigured
	}
	if err := f.Store.lock(ctx); err != nil {
		return nil, err
	}
	return &Unit{store: f.Store, readOnly: opts.ReadOnly}, nil
}

// Unit is a serial transaction over the store.
type Unit struct {
	store    *Store
	readOnly bool
	undo     []func()
	staged   []appoutbox.EventRecord
	done     bool
}

var ErrReadOnly = errors.New("memory: write in read-only unit of work")

func (u *Unit) Listings() domainlistings.Repository       { return listingRepo{u} }
func (u *Unit) Bookings() domainbooking.Repository        { return bookingRepo{u} }
func (u *Unit) Forms() domainforms.Repository             { return formRepo{u} }
func (u *Unit) Documents() domainforms.DocumentRepository { return documentRepo{u} }
func (u *Unit) RefundPolicies() domainrefund.PolicyRepository {
	return policyRepo{u}
}
func (u *Unit) RefundRequests() domainrefund.RequestRepository { return refundRepo{u} }
func (u *Unit) Wallets() domainwallet.Repository               { return walletRepo{u} }
func (u *Unit) Ledger() domainwallet.Ledger                    { return ledgerRepo{u} }
func (u *Unit) Outbox() appoutbox.Outbox                       { return stagedOutbox{u} }

// write checks the unit is writable and journals how to revert the change.
func (u *Unit) write(revert func()) error {
	if u.done {
		return ErrUnitClosed
	}
	if u.readOnly {
		return ErrReadOnly
	}
	u.undo = append(u.undo, revert)
	return nil
}

func (u *Unit) Commit(ctx context.Context) error {
	if u.done {
		return ErrUnitClosed
	}
	u.done = true
	u.store.outbox.append(u.staged...)
	u.undo = nil
	u.staged = nil
	u.store.unlock()
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	for i := len(u.undo) - 1; i >= 0; i-- {
		u.undo[i]()
	}
	u.undo = nil
	u.staged = nil
	u.store.unlock()
	return nil
}

var _ uow.UoWFactory = Factory{}
var _ uow.UnitOfWork = (*Unit)(nil)
