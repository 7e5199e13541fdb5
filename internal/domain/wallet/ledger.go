package wallet

import (
	"context"
	"time"

	"rentflow/internal/domain/shared/money"
)

type TransactionID string

type EntryType string

const (
	Credit EntryType = "credit"
	Debit  EntryType = "debit"
)

const (
	SourceRefund       = "refund"
	SourceCancellation = "cancellation_fee"
	StatusCompleted    = "completed"
)

// Transaction is an append-only ledger row.
type Transaction struct {
	ID        TransactionID
	UserID    string
	Type      EntryType
	Amount    money.Amount
	Source    string
	Reference string
	Status    string
	CreatedAt time.Time
}

type Ledger interface {
	// AppendBatch inserts rows; existing rows are never rewritten.
	AppendBatch(ctx context.Context, rows []Transaction) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Transaction, error)
}
