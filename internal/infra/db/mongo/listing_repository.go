package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlistings "rentflow/internal/domain/listings"
	"rentflow/internal/domain/shared/money"
)

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{col: db.Collection(colListings)}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainlistings.ErrListingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ListingRepository) Save(ctx context.Context, l *domainlistings.Listing) error {
	doc := newListingDocument(l)
	filter := bson.M{"_id": doc.ID, "version": l.Version}
	doc.Version = l.Version + 1
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		return mapWriteErr(err)
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	l.Version = doc.Version
	return nil
}

type listingDocument struct {
	ID                string   `bson:"_id"`
	LeaserID          string   `bson:"leaser_id"`
	Title             string   `bson:"title"`
	Zone              string   `bson:"zone"`
	SubCategory       string   `bson:"sub_category"`
	Price             float64  `bson:"price"`
	PriceUnit         string   `bson:"price_unit"`
	IsAvailable       bool     `bson:"is_available"`
	CurrentBookingIDs []string `bson:"current_booking_ids"`
	CreatedAt         int64    `bson:"created_at"`
	UpdatedAt         int64    `bson:"updated_at"`
	Version           int64    `bson:"version"`
}

func newListingDocument(l *domainlistings.Listing) listingDocument {
	ids := l.CurrentBookingIDs
	if ids == nil {
		ids = []string{}
	}
	return listingDocument{
		ID:                string(l.ID),
		LeaserID:          l.LeaserID,
		Title:             l.Title,
		Zone:              l.Zone,
		SubCategory:       l.SubCategory,
		Price:             float64(l.Price),
		PriceUnit:         string(l.PriceUnit),
		IsAvailable:       l.IsAvailable,
		CurrentBookingIDs: ids,
		CreatedAt:         timeToTimestamp(l.CreatedAt),
		UpdatedAt:         timeToTimestamp(l.UpdatedAt),
		Version:           l.Version,
	}
}

func (d listingDocument) toAggregate() *domainlistings.Listing {
	return &domainlistings.Listing{
		ID:                domainlistings.ListingID(d.ID),
		LeaserID:          d.LeaserID,
		Title:             d.Title,
		Zone:              d.Zone,
		SubCategory:       d.SubCategory,
		Price:             money.Amount(d.Price),
		PriceUnit:         domainlistings.PriceUnit(d.PriceUnit),
		IsAvailable:       d.IsAvailable,
		CurrentBookingIDs: append([]string(nil), d.CurrentBookingIDs...),
		CreatedAt:         timestampToTime(d.CreatedAt),
		UpdatedAt:         timestampToTime(d.UpdatedAt),
		Version:           d.Version,
	}
}
