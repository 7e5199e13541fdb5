package wallet

import (
	"errors"
	"time"

	"rentflow/internal/domain/shared/errs"
	"rentflow/internal/domain/shared/events"
	"rentflow/internal/domain/shared/money"
)

var ErrMissingWallet = errors.New("wallet: settlement wallet is missing")

// Transfer is the three-way money movement of an accepted refund.
type Transfer struct {
	RenterCredit money.Amount
	LeaserDebit  money.Amount
	AdminCredit  money.Amount
}

// PlanTransfer derives the transfer for a refund of refundAmount with
// deduction withheld. The leaser returns the refund less the commission and
// tax the platform already took, and also hands the deduction to the
// platform.
func PlanTransfer(refundAmount, deduction, adminFee, tax money.Amount) Transfer {
	return Transfer{
		RenterCredit: refundAmount,
		LeaserDebit:  refundAmount - (adminFee + tax) + deduction,
		AdminCredit:  deduction,
	}
}

type SettleParams struct {
	Reference string
	Transfer  Transfer
	Renter    *Wallet
	Leaser    *Wallet
	Admin     *Wallet
	// NewID mints ledger row ids.
	NewID func() TransactionID
	Now   time.Time
}

// Settlement is the applied result of a transfer: the mutated wallets and
// the ledger rows to append.
type Settlement struct {
	Reference string
	Transfer  Transfer
	Wallets   []*Wallet
	Rows      []Transaction
	events.EventRecorder
}

// Settle applies the transfer to the wallets in memory. The leaser must hold
// at least the refund amount; otherwise nothing is changed and a
// *errs.BalanceError is returned. Wallets may alias when one user plays
// several parts; every distinct wallet is returned once.
func Settle(params SettleParams) (*Settlement, error) {
	if params.Renter == nil || params.Leaser == nil || params.Admin == nil {
		return nil, ErrMissingWallet
	}
	t := params.Transfer
	if t.RenterCredit < 0 || t.LeaserDebit < 0 || t.AdminCredit < 0 {
		return nil, ErrNegativeAmount
	}
	if params.Leaser.Balance < t.RenterCredit {
		return nil, &errs.BalanceError{
			UserID:   params.Leaser.UserID,
			Required: float64(t.RenterCredit),
			Current:  float64(params.Leaser.Balance),
		}
	}
	now := params.Now.UTC()

	if err := params.Leaser.Debit(t.LeaserDebit, now); err != nil {
		return nil, err
	}
	if err := params.Renter.Credit(t.RenterCredit, now); err != nil {
		return nil, err
	}
	if err := params.Admin.Credit(t.AdminCredit, now); err != nil {
		return nil, err
	}

	row := func(userID string, typ EntryType, amount money.Amount, source string) Transaction {
		return Transaction{
			ID:        params.NewID(),
			UserID:    userID,
			Type:      typ,
			Amount:    amount,
			Source:    source,
			Reference: params.Reference,
			Status:    StatusCompleted,
			CreatedAt: now,
		}
	}
	s := &Settlement{
		Reference: params.Reference,
		Transfer:  t,
		Wallets:   distinct(params.Renter, params.Leaser, params.Admin),
		Rows: []Transaction{
			row(params.Renter.UserID, Credit, t.RenterCredit, SourceRefund),
			row(params.Leaser.UserID, Debit, t.LeaserDebit, SourceRefund),
			row(params.Admin.UserID, Credit, t.AdminCredit, SourceCancellation),
		},
	}
	s.Record(Settled{
		Reference:    s.Reference,
		RenterID:     params.Renter.UserID,
		LeaserID:     params.Leaser.UserID,
		AdminID:      params.Admin.UserID,
		RenterCredit: t.RenterCredit,
		LeaserDebit:  t.LeaserDebit,
		AdminCredit:  t.AdminCredit,
		At:           now,
	})
	return s, nil
}

func distinct(ws ...*Wallet) []*Wallet {
	out := make([]*Wallet, 0, len(ws))
	for _, w := range ws {
		dup := false
		for _, seen := range out {
			if seen == w {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, w)
		}
	}
	return out
}

type Settled struct {
	Reference    string
	RenterID     string
	LeaserID     string
	AdminID      string
	RenterCredit money.Amount
	LeaserDebit  money.Amount
	AdminCredit  money.Amount
	At           time.Time
}

func (e Settled) EventName() string     { return "wallet.settled" }
func (e Settled) AggregateID() string   { return e.Reference }
func (e Settled) OccurredAt() time.Time { return e.At }
