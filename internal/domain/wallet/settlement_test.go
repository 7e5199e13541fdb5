package wallet

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentflow/internal/domain/shared/errs"
	"rentflow/internal/domain/shared/money"
)

var now = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

func seqIDs() func() TransactionID {
	n := 0
	return func() TransactionID {
		n++
		return TransactionID(fmt.Sprintf("tx-%d", n))
	}
}

func mustWallet(t *testing.T, id string, balance money.Amount) *Wallet {
	t.Helper()
	w, err := New(id, balance, now)
	require.NoError(t, err)
	return w
}

func TestPlanTransfer(t *testing.T) {
	tr := PlanTransfer(180, 20, 10, 11)
	assert.InDelta(t, 180, float64(tr.RenterCredit), 1e-9)
	assert.InDelta(t, 179, float64(tr.LeaserDebit), 1e-9)
	assert.InDelta(t, 20, float64(tr.AdminCredit), 1e-9)
}

func TestSettle(t *testing.T) {
	renter := mustWallet(t, "renter", 0)
	leaser := mustWallet(t, "leaser", 1000)
	admin := mustWallet(t, "admin", 5)

	s, err := Settle(SettleParams{
		Reference: "refund-1",
		Transfer:  PlanTransfer(180, 20, 10, 11),
		Renter:    renter,
		Leaser:    leaser,
		Admin:     admin,
		NewID:     seqIDs(),
		Now:       now,
	})
	require.NoError(t, err)

	assert.InDelta(t, 180, float64(renter.Balance), 1e-9)
	assert.InDelta(t, 821, float64(leaser.Balance), 1e-9)
	assert.InDelta(t, 25, float64(admin.Balance), 1e-9)
	assert.Len(t, s.Wallets, 3)

	require.Len(t, s.Rows, 3)
	assert.Equal(t, Transaction{ID: "tx-1", UserID: "renter", Type: Credit, Amount: 180, Source: SourceRefund, Reference: "refund-1", Status: StatusCompleted, CreatedAt: now}, s.Rows[0])
	assert.Equal(t, Debit, s.Rows[1].Type)
	assert.Equal(t, SourceCancellation, s.Rows[2].Source)

	evs := s.Drain()
	require.Len(t, evs, 1)
	assert.Equal(t, "wallet.settled", evs[0].EventName())
}

func TestSettle_InsufficientBalanceChangesNothing(t *testing.T) {
	renter := mustWallet(t, "renter", 0)
	leaser := mustWallet(t, "leaser", 100)
	admin := mustWallet(t, "admin", 0)

	_, err := Settle(SettleParams{
		Transfer: PlanTransfer(180, 20, 10, 11),
		Renter:   renter, Leaser: leaser, Admin: admin,
		NewID: seqIDs(), Now: now,
	})
	var balErr *errs.BalanceError
	require.True(t, errors.As(err, &balErr))
	assert.Equal(t, "leaser", balErr.UserID)
	assert.InDelta(t, 180, balErr.Required, 1e-9)
	assert.InDelta(t, 100, balErr.Current, 1e-9)
	assert.Equal(t, errs.KindInsufficientBalance, errs.KindOf(err))

	assert.Zero(t, renter.Balance)
	assert.InDelta(t, 100, float64(leaser.Balance), 1e-9)
	assert.Zero(t, admin.Balance)
}

func TestSettle_ZeroRefundStillWritesThreeRows(t *testing.T) {
	renter := mustWallet(t, "renter", 0)
	leaser := mustWallet(t, "leaser", 0)
	admin := mustWallet(t, "admin", 0)

	s, err := Settle(SettleParams{
		Transfer: PlanTransfer(0, 200, 10, 10),
		Renter:   renter, Leaser: leaser, Admin: admin,
		NewID: seqIDs(), Now: now,
	})
	require.NoError(t, err)
	assert.Len(t, s.Rows, 3)
	assert.InDelta(t, -180, float64(leaser.Balance), 1e-9)
	assert.InDelta(t, 200, float64(admin.Balance), 1e-9)
}

func TestSettle_AliasedWallets(t *testing.T) {
	leaser := mustWallet(t, "leaser", 500)
	renter := mustWallet(t, "renter", 0)

	s, err := Settle(SettleParams{
		Transfer: PlanTransfer(50, 10, 0, 0),
		Renter:   renter, Leaser: leaser, Admin: leaser,
		NewID: seqIDs(), Now: now,
	})
	require.NoError(t, err)
	assert.Len(t, s.Wallets, 2)
	assert.Len(t, s.Rows, 3)
	assert.InDelta(t, 450, float64(leaser.Balance), 1e-9)
}

func TestWalletAmountsMustBeNonNegative(t *testing.T) {
	w := mustWallet(t, "u", 10)
	assert.ErrorIs(t, w.Credit(-1, now), ErrNegativeAmount)
	assert.ErrorIs(t, w.Debit(-1, now), ErrNegativeAmount)
	_, err := New("", 0, now)
	assert.ErrorIs(t, err, ErrUserRequired)
}
