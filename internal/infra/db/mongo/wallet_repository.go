package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentflow/internal/domain/shared/money"
	domainwallet "rentflow/internal/domain/wallet"
)

type WalletRepository struct {
	col *mongo.Collection
}

func NewWalletRepository(db *mongo.Database) *WalletRepository {
	return &WalletRepository{col: db.Collection(colWallets)}
}

func (r *WalletRepository) ByUserID(ctx context.Context, userID string) (*domainwallet.Wallet, error) {
	var doc walletDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainwallet.ErrWalletNotFound
		}
		return nil, err
	}
	return &domainwallet.Wallet{
		UserID:    doc.UserID,
		Balance:   money.Amount(doc.Balance),
		Version:   doc.Version,
		CreatedAt: timestampToTime(doc.CreatedAt),
		UpdatedAt: timestampToTime(doc.UpdatedAt),
	}, nil
}

// Save writes the balance guarded by the wallet version, so a concurrent
// read-modify-write on the same wallet loses instead of overwriting.
func (r *WalletRepository) Save(ctx context.Context, w *domainwallet.Wallet) error {
	doc := walletDocument{
		UserID:    w.UserID,
		Balance:   float64(w.Balance),
		CreatedAt: timeToTimestamp(w.CreatedAt),
		UpdatedAt: timeToTimestamp(w.UpdatedAt),
		Version:   w.Version + 1,
	}
	filter := bson.M{"_id": doc.UserID, "version": w.Version}
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		return mapWriteErr(err)
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	w.Version = doc.Version
	return nil
}

type walletDocument struct {
	UserID    string  `bson:"_id"`
	Balance   float64 `bson:"balance"`
	CreatedAt int64   `bson:"created_at"`
	UpdatedAt int64   `bson:"updated_at"`
	Version   int64   `bson:"version"`
}

// LedgerRepository is the append-only wallet transaction log.
type LedgerRepository struct {
	col *mongo.Collection
}

func NewLedgerRepository(db *mongo.Database) *LedgerRepository {
	return &LedgerRepository{col: db.Collection(colLedger)}
}

func (r *LedgerRepository) AppendBatch(ctx context.Context, rows []domainwallet.Transaction) error {
	if len(rows) == 0 {
		return nil
	}
	docs := make([]any, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, ledgerDocument{
			ID:        string(row.ID),
			UserID:    row.UserID,
			Type:      string(row.Type),
			Amount:    float64(row.Amount),
			Source:    row.Source,
			Reference: row.Reference,
			Status:    row.Status,
			CreatedAt: timeToTimestamp(row.CreatedAt),
		})
	}
	_, err := r.col.InsertMany(ctx, docs)
	return mapWriteErr(err)
}

func (r *LedgerRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domainwallet.Transaction, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(offset))
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []domainwallet.Transaction
	for cur.Next(ctx) {
		var doc ledgerDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, domainwallet.Transaction{
			ID:        domainwallet.TransactionID(doc.ID),
			UserID:    doc.UserID,
			Type:      domainwallet.EntryType(doc.Type),
			Amount:    money.Amount(doc.Amount),
			Source:    doc.Source,
			Reference: doc.Reference,
			Status:    doc.Status,
			CreatedAt: timestampToTime(doc.CreatedAt),
		})
	}
	return out, cur.Err()
}

type ledgerDocument struct {
	ID        string  `bson:"_id"`
	UserID    string  `bson:"user_id"`
	Type      string  `bson:"type"`
	Amount    float64 `bson:"amount"`
	Source    string  `bson:"source"`
	Reference string  `bson:"reference"`
	Status    string  `bson:"status"`
	CreatedAt int64   `bson:"created_at"`
}
