package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentflow/internal/app/middleware"
)

type IdempotencyStore struct {
	col *mongo.Collection
}

// NewIdempotencyStore returns a store whose records expire after ttl via a
// TTL index on created_at.
func NewIdempotencyStore(ctx context.Context, db *mongo.Database, ttl time.Duration) (*IdempotencyStore, error) {
	col := db.Collection("app_idempotency")
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	_, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "created_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(ttl.Seconds())),
	})
	if err != nil {
		return nil, err
	}
	return &IdempotencyStore{col: col}, nil
}

// Get and Save run outside the command transaction on purpose: the record
// must not be rolled back together with a failed command.
func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	var doc idempotencyDocument
	if err := s.col.FindOne(ctx, bson.M{"_id": key}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return middleware.IdempotencyRecord{}, false, nil
		}
		return middleware.IdempotencyRecord{}, false, err
	}
	return doc.toRecord(), true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	doc := idempotencyDocument{
		Key:        rec.Key,
		Payload:    rec.Payload,
		Error:      rec.Error,
		ErrorKind:  rec.ErrorKind,
		ErrorCode:  rec.ErrorCode,
		Missing:    rec.Missing,
		Shortfall:  rec.Shortfall,
		OccurredAt: rec.OccurredAt,
		CreatedAt:  time.Now().UTC(),
	}
	_, err := s.col.UpdateByID(ctx, doc.Key, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	return err
}

type idempotencyDocument struct {
	Key        string                `bson:"_id"`
	Payload    []byte                `bson:"payload"`
	Error      string                `bson:"error"`
	ErrorKind  string                `bson:"error_kind"`
	ErrorCode  string                `bson:"error_code,omitempty"`
	Missing    []string              `bson:"missing,omitempty"`
	Shortfall  *middleware.Shortfall `bson:"shortfall,omitempty"`
	OccurredAt time.Time             `bson:"occurred_at"`
	CreatedAt  time.Time             `bson:"created_at"`
}

func (d idempotencyDocument) toRecord() middleware.IdempotencyRecord {
	return middleware.IdempotencyRecord{
		Key:        d.Key,
		Payload:    d.Payload,
		Error:      d.Error,
		ErrorKind:  d.ErrorKind,
		ErrorCode:  d.ErrorCode,
		Missing:    d.Missing,
		Shortfall:  d.Shortfall,
		OccurredAt: d.OccurredAt,
	}
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
