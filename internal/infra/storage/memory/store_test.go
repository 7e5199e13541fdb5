package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentflow/internal/app/middleware"
	appoutbox "rentflow/internal/app/outbox"
	"rentflow/internal/app/uow"
	domainlistings "rentflow/internal/domain/listings"
	"rentflow/internal/domain/shared/errs"
	domainwallet "rentflow/internal/domain/wallet"
)

var seededAt = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func seededStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore()
	listing, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID: "lst-1", LeaserID: "leaser-1", Title: "Tent", Price: 30, Now: seededAt,
	})
	require.NoError(t, err)
	w, err := domainwallet.New("leaser-1", 500, seededAt)
	require.NoError(t, err)
	store.Seed(func(s *Seeder) {
		s.Listing(listing)
		s.Wallet(w)
	})
	return store
}

func TestRollbackRestoresPreviousState(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()
	factory := Factory{Store: store}

	unit, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	w, err := unit.Wallets().ByUserID(ctx, "leaser-1")
	require.NoError(t, err)
	require.NoError(t, w.Debit(200, seededAt))
	require.NoError(t, unit.Wallets().Save(ctx, w))
	fresh, err := domainwallet.New("renter-1", 200, seededAt)
	require.NoError(t, err)
	require.NoError(t, unit.Wallets().Save(ctx, fresh))
	require.NoError(t, unit.Ledger().AppendBatch(ctx, []domainwallet.Transaction{{ID: "tx-1", UserID: "renter-1", Type: domainwallet.Credit, Amount: 200}}))
	require.NoError(t, unit.Outbox().Add(ctx, appoutbox.EventRecord{ID: "evt-1", Name: "wallet.settled"}))
	require.NoError(t, unit.Rollback(ctx))

	check, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	defer func() { _ = check.Rollback(ctx) }()
	got, err := check.Wallets().ByUserID(ctx, "leaser-1")
	require.NoError(t, err)
	assert.InDelta(t, 500, float64(got.Balance), 0.001)
	_, err = check.Wallets().ByUserID(ctx, "renter-1")
	assert.True(t, errs.Is(err, errs.KindNotFound))
	rows, err := check.Ledger().ListByUser(ctx, "renter-1", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Empty(t, store.Outbox().Pending())
}

func TestCommitPublishesStagedEvents(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()
	unit, err := Factory{Store: store}.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Outbox().Add(ctx, appoutbox.EventRecord{ID: "evt-1", Name: "booking.requested"}))
	assert.Empty(t, store.Outbox().Pending())
	require.NoError(t, unit.Commit(ctx))
	assert.Len(t, store.Outbox().Pending(), 1)

	assert.ErrorIs(t, unit.Commit(ctx), ErrUnitClosed)
	assert.NoError(t, unit.Rollback(ctx))
}

func TestStaleSaveIsRejected(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()
	factory := Factory{Store: store}

	unit, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	first, err := unit.Listings().ByID(ctx, "lst-1")
	require.NoError(t, err)
	stale := first.Clone()
	first.AttachBooking("bk-1", true, seededAt)
	require.NoError(t, unit.Listings().Save(ctx, first))

	stale.AttachBooking("bk-2", true, seededAt)
	err = unit.Listings().Save(ctx, stale)
	assert.ErrorIs(t, err, ErrConcurrentUpdate)
	assert.True(t, errs.Is(err, errs.KindConflict))
	require.NoError(t, unit.Commit(ctx))
}

func TestReadOnlyUnitRejectsWrites(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()
	unit, err := Factory{Store: store}.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	defer func() { _ = unit.Rollback(ctx) }()
	w, err := unit.Wallets().ByUserID(ctx, "leaser-1")
	require.NoError(t, err)
	assert.ErrorIs(t, unit.Wallets().Save(ctx, w), ErrReadOnly)
}

func TestBeginWaitsForRunningUnit(t *testing.T) {
	store := seededStore(t)
	factory := Factory{Store: store}
	unit, err := factory.Begin(context.Background(), uow.TxOptions{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = factory.Begin(ctx, uow.TxOptions{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unit.Rollback(context.Background()))
	next, err := factory.Begin(context.Background(), uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, next.Rollback(context.Background()))
}

func TestLedgerListsNewestFirst(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()
	unit, err := Factory{Store: store}.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Ledger().AppendBatch(ctx, []domainwallet.Transaction{
		{ID: "tx-1", UserID: "u1"},
		{ID: "tx-2", UserID: "u2"},
		{ID: "tx-3", UserID: "u1"},
		{ID: "tx-4", UserID: "u1"},
	}))
	rows, err := unit.Ledger().ListByUser(ctx, "u1", 2, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, domainwallet.TransactionID("tx-4"), rows[0].ID)
	assert.Equal(t, domainwallet.TransactionID("tx-3"), rows[1].ID)

	rows, err = unit.Ledger().ListByUser(ctx, "u1", 10, 2)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domainwallet.TransactionID("tx-1"), rows[0].ID)
	require.NoError(t, unit.Commit(ctx))
}

type flakyPublisher struct {
	failOn string
	seen   []string
}

func (f *flakyPublisher) PublishRecord(ctx context.Context, rec appoutbox.EventRecord) error {
	if rec.ID == f.failOn {
		return errors.New("broker unavailable")
	}
	f.seen = append(f.seen, rec.ID)
	return nil
}

func TestOutboxFlushStopsAtFirstFailure(t *testing.T) {
	box := NewOutbox()
	pub := &flakyPublisher{failOn: "evt-2"}
	box.SetPublisher(pub)
	ctx := context.Background()
	for _, id := range []string{"evt-1", "evt-2", "evt-3"} {
		require.NoError(t, box.Add(ctx, appoutbox.EventRecord{ID: id}))
	}

	require.Error(t, box.Flush(ctx))
	assert.Equal(t, []string{"evt-1"}, pub.seen)
	assert.Len(t, box.Pending(), 2)
	assert.Len(t, box.Published(), 1)

	pub.failOn = ""
	require.NoError(t, box.Flush(ctx))
	assert.Equal(t, []string{"evt-1", "evt-2", "evt-3"}, pub.seen)
	assert.Empty(t, box.Pending())
}

func TestIdempotencyStoreExpiresRecords(t *testing.T) {
	s := NewIdempotencyStore(time.Minute)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, middleware.IdempotencyRecord{Key: "fresh", OccurredAt: time.Now().UTC()}))
	require.NoError(t, s.Save(ctx, middleware.IdempotencyRecord{Key: "old", OccurredAt: time.Now().UTC().Add(-time.Hour)}))

	_, found, err := s.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, found)
	_, found, err = s.Get(ctx, "old")
	require.NoError(t, err)
	assert.False(t, found)
	_, found, err = s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)
}
