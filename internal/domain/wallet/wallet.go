package wallet

import (
	"context"
	"strings"
	"time"

	"rentflow/internal/domain/shared/errs"
	"rentflow/internal/domain/shared/money"
)

var (
	ErrWalletNotFound = errs.NotFound("wallet: not found")
	ErrUserRequired   = errs.Validation("wallet: user id is required")
	ErrNegativeAmount = errs.Validation("wallet: amount cannot be negative")
)

// Wallet is a user's spendable balance. Balances are pre-funded; the engine
// only debits and credits them.
type Wallet struct {
	UserID    string
	Balance   money.Amount
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Repository interface {
	ByUserID(ctx context.Context, userID string) (*Wallet, error)
	Save(ctx context.Context, w *Wallet) error
}

func New(userID string, balance money.Amount, now time.Time) (*Wallet, error) {
	id := strings.TrimSpace(userID)
	if id == "" {
		return nil, ErrUserRequired
	}
	if balance < 0 {
		return nil, ErrNegativeAmount
	}
	now = now.UTC()
	return &Wallet{UserID: id, Balance: balance, CreatedAt: now, UpdatedAt: now}, nil
}

func (w *Wallet) Credit(amount money.Amount, now time.Time) error {
	if amount < 0 {
		return ErrNegativeAmount
	}
	w.Balance += amount
	w.UpdatedAt = now.UTC()
	return nil
}

// Debit lowers the balance. Sufficiency is checked by the settlement, which
// knows the amount the balance must cover.
func (w *Wallet) Debit(amount money.Amount, now time.Time) error {
	if amount < 0 {
		return ErrNegativeAmount
	}
	w.Balance -= amount
	w.UpdatedAt = now.UTC()
	return nil
}

func (w *Wallet) Clone() *Wallet {
	if w == nil {
		return nil
	}
	c := *w
	return &c
}
