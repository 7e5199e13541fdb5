package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"

	appoutbox "rentflow/internal/app/outbox"
	"rentflow/internal/app/uow"
	domainbooking "rentflow/internal/domain/booking"
	domainforms "rentflow/internal/domain/forms"
	domainlistings "rentflow/internal/domain/listings"
	domainrefund "rentflow/internal/domain/refund"
	domainwallet "rentflow/internal/domain/wallet"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	ListingsRepo       domainlistings.Repository
	BookingRepo        domainbooking.Repository
	FormsRepo          domainforms.Repository
	DocumentsRepo      domainforms.DocumentRepository
	RefundPoliciesRepo domainrefund.PolicyRepository
	RefundRequestsRepo domainrefund.RequestRepository
	WalletsRepo        domainwallet.Repository
	LedgerRepo         domainwallet.Ledger
	Outbox             appoutbox.Outbox
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// NewFactory builds a factory with every repository bound to db.
func NewFactory(db *mongo.Database, box appoutbox.Outbox) Factory {
	return Factory{
		DB:                 db,
		ListingsRepo:       NewListingRepository(db),
		BookingRepo:        NewBookingRepository(db),
		FormsRepo:          NewFormRepository(db),
		DocumentsRepo:      NewDocumentRepository(db),
		RefundPoliciesRepo: NewRefundPolicyRepository(db),
		RefundRequestsRepo: NewRefundRequestRepository(db),
		WalletsRepo:        NewWalletRepository(db),
		LedgerRepo:         NewLedgerRepository(db),
		Outbox:             box,
	}
}

// Begin starts a MongoDB session/transaction. Writes use snapshot reads so
// concurrent writers to the same documents conflict instead of interleaving.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(readconcern.Snapshot()).SetWriteConcern(f.DB.WriteConcern())
	if opts.ReadOnly {
		txnOpts = txnOpts.SetReadConcern(f.DB.ReadConcern())
	}
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{session: session, f: f}, nil
}

type Unit struct {
	session mongo.Session
	f       Factory
}

func (u *Unit) Listings() domainlistings.Repository           { return u.f.ListingsRepo }
func (u *Unit) Bookings() domainbooking.Repository            { return u.f.BookingRepo }
func (u *Unit) Forms() domainforms.Repository                 { return u.f.FormsRepo }
func (u *Unit) Documents() domainforms.DocumentRepository     { return u.f.DocumentsRepo }
func (u *Unit) RefundPolicies() domainrefund.PolicyRepository { return u.f.RefundPoliciesRepo }
func (u *Unit) RefundRequests() domainrefund.RequestRepository {
	return u.f.RefundRequestsRepo
}
func (u *Unit) Wallets() domainwallet.Repository { return u.f.WalletsRepo }
func (u *Unit) Ledger() domainwallet.Ledger      { return u.f.LedgerRepo }
func (u *Unit) Outbox() appoutbox.Outbox         { return u.f.Outbox }

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return mapWriteErr(u.session.CommitTransaction(ctx))
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}
