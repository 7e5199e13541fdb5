package uow

import (
	"context"

	"rentflow/internal/app/outbox"
	domainbooking "rentflow/internal/domain/booking"
	domainforms "rentflow/internal/domain/forms"
	domainlistings "rentflow/internal/domain/listings"
	domainrefund "rentflow/internal/domain/refund"
	domainwallet "rentflow/internal/domain/wallet"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Listings() domainlistings.Repository
	Bookings() domainbooking.Repository
	Forms() domainforms.Repository
	Documents() domainforms.DocumentRepository
	RefundPolicies() domainrefund.PolicyRepository
	RefundRequests() domainrefund.RequestRepository
	Wallets() domainwallet.Repository
	Ledger() domainwallet.Ledger
	// Outbox stages domain events; they become visible on commit.
	Outbox() outbox.Outbox

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
