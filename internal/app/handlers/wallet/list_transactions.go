package wallet

import (
	"context"

	"rentflow/internal/app/dto"
	handlersupport "rentflow/internal/app/handlers/support"
	"rentflow/internal/app/queries"
	"rentflow/internal/app/uow"
	"rentflow/internal/domain/shared/errs"
)

const (
	listTransactionsKey = "wallet.transactions.list"
	defaultLimit        = 50
	maxLimit            = 200
)

var ErrOtherWallet = errs.Forbidden("wallet: cannot read another user's wallet")

type ListTransactionsQuery struct {
	ActorID string `validate:"required"`
	UserID  string `validate:"required"`
	Limit   int    `validate:"gte=0"`
	Offset  int    `validate:"gte=0"`
}

func (q ListTransactionsQuery) Key() string { return listTransactionsKey }

// ListTransactionsHandler returns a wallet's balance and its ledger rows,
// newest first. Users read their own wallet; the admin reads any.
type ListTransactionsHandler struct {
	UoWFactory uow.UoWFactory
	AdminID    string
}

func (h *ListTransactionsHandler) Handle(ctx context.Context, q ListTransactionsQuery) (dto.WalletStatement, error) {
	if q.ActorID != q.UserID && (h.AdminID == "" || q.ActorID != h.AdminID) {
		return dto.WalletStatement{}, ErrOtherWallet
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.WalletStatement{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	out := dto.WalletStatement{UserID: q.UserID, Transactions: []dto.WalletTransactionDTO{}}
	w, err := unit.Wallets().ByUserID(execCtx, q.UserID)
	switch {
	case err == nil:
		out.Balance = w.Balance.Rounded()
	case errs.Is(err, errs.KindNotFound):
	default:
		return dto.WalletStatement{}, err
	}
	rows, err := unit.Ledger().ListByUser(execCtx, q.UserID, limit, q.Offset)
	if err != nil {
		return dto.WalletStatement{}, err
	}
	for _, row := range rows {
		out.Transactions = append(out.Transactions, dto.MapWalletTransaction(row))
	}
	return out, nil
}

var _ queries.Handler[ListTransactionsQuery, dto.WalletStatement] = (*ListTransactionsHandler)(nil)
