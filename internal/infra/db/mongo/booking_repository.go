package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "rentflow/internal/domain/booking"
	"rentflow/internal/domain/listings"
	"rentflow/internal/domain/pricing"
	"rentflow/internal/domain/shared/daterange"
	"rentflow/internal/domain/shared/money"
)

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection(colBookings)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Save upserts the booking guarded by its version.
func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return mapWriteErr(err)
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ActiveForRenter(ctx context.Context, renterID string, listingID listings.ListingID) (*domainbooking.Booking, error) {
	filter := bson.M{
		"renter_id":                 renterID,
		"listing_id":                string(listingID),
		"status":                    string(domainbooking.StatusApproved),
		"booking_dates.handover":    bson.M{"$gt": 0},
		"booking_dates.return_date": 0,
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	var doc bookingDocument
	if err := r.col.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) ChildrenOf(ctx context.Context, parentID domainbooking.BookingID) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	return r.find(ctx, bson.M{"previous_booking_id": string(parentID)}, opts)
}

func (r *BookingRepository) ListByListing(ctx context.Context, listingID listings.ListingID, statuses ...domainbooking.Status) ([]*domainbooking.Booking, error) {
	filter := bson.M{"listing_id": string(listingID)}
	if len(statuses) > 0 {
		values := make([]string, 0, len(statuses))
		for _, s := range statuses {
			values = append(values, string(s))
		}
		filter["status"] = bson.M{"$in": values}
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	return r.find(ctx, filter, opts)
}

func (r *BookingRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domainbooking.Booking, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*domainbooking.Booking
	for cur.Next(ctx) {
		var doc bookingDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cur.Err()
}

type bookingDocument struct {
	ID                  string               `bson:"_id"`
	ListingID           string               `bson:"listing_id"`
	RenterID            string               `bson:"renter_id"`
	LeaserID            string               `bson:"leaser_id"`
	Dates               rangeDocument        `bson:"dates"`
	BookingDates        bookingDatesDocument `bson:"booking_dates"`
	PriceDetails        priceDocument        `bson:"price_details"`
	ExtendCharges       chargeDocument       `bson:"extend_charges"`
	ExtraRequestCharges chargeDocument       `bson:"extra_request_charges"`
	SpecialRequest      string               `bson:"special_request"`
	PreviousBookingID   string               `bson:"previous_booking_id"`
	IsExtend            bool                 `bson:"is_extend"`
	ExtensionRequested  bool                 `bson:"extension_requested"`
	OTP                 string               `bson:"otp"`
	IsVerified          bool                 `bson:"is_verified"`
	Status              string               `bson:"status"`
	CreatedAt           int64                `bson:"created_at"`
	UpdatedAt           int64                `bson:"updated_at"`
	Version             int64                `bson:"version"`
}

type rangeDocument struct {
	CheckIn  int64 `bson:"check_in"`
	CheckOut int64 `bson:"check_out"`
}

type bookingDatesDocument struct {
	Handover   int64 `bson:"handover"`
	ReturnDate int64 `bson:"return_date"`
}

type priceDocument struct {
	Price      float64 `bson:"price"`
	AdminFee   float64 `bson:"admin_fee"`
	Tax        float64 `bson:"tax"`
	TotalPrice float64 `bson:"total_price"`
}

type chargeDocument struct {
	Amount     float64 `bson:"amount"`
	TotalPrice float64 `bson:"total_price"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:        string(b.ID),
		ListingID: string(b.ListingID),
		RenterID:  b.RenterID,
		LeaserID:  b.LeaserID,
		Dates:     rangeDocument{CheckIn: timeToTimestamp(b.Dates.CheckIn), CheckOut: timeToTimestamp(b.Dates.CheckOut)},
		BookingDates: bookingDatesDocument{
			Handover:   timeToTimestamp(b.BookingDates.Handover),
			ReturnDate: timeToTimestamp(b.BookingDates.ReturnDate),
		},
		PriceDetails: priceDocument{
			Price:      float64(b.PriceDetails.Price),
			AdminFee:   float64(b.PriceDetails.AdminFee),
			Tax:        float64(b.PriceDetails.Tax),
			TotalPrice: float64(b.PriceDetails.TotalPrice),
		},
		ExtendCharges:       chargeDocument{Amount: float64(b.ExtendCharges.ExtendCharges), TotalPrice: float64(b.ExtendCharges.TotalPrice)},
		ExtraRequestCharges: chargeDocument{Amount: float64(b.ExtraRequestCharges.AdditionalCharges), TotalPrice: float64(b.ExtraRequestCharges.TotalPrice)},
		SpecialRequest:      b.SpecialRequest,
		PreviousBookingID:   string(b.PreviousBookingID),
		IsExtend:            b.IsExtend,
		ExtensionRequested:  b.ExtensionRequested,
		OTP:                 b.OTP,
		IsVerified:          b.IsVerified,
		Status:              string(b.Status),
		CreatedAt:           timeToTimestamp(b.CreatedAt),
		UpdatedAt:           timeToTimestamp(b.UpdatedAt),
		Version:             b.Version,
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:        domainbooking.BookingID(d.ID),
		ListingID: listings.ListingID(d.ListingID),
		RenterID:  d.RenterID,
		LeaserID:  d.LeaserID,
		Dates:     daterange.DateRange{CheckIn: timestampToTime(d.Dates.CheckIn), CheckOut: timestampToTime(d.Dates.CheckOut)},
		BookingDates: domainbooking.Dates{
			Handover:   timestampToTime(d.BookingDates.Handover),
			ReturnDate: timestampToTime(d.BookingDates.ReturnDate),
		},
		PriceDetails: pricing.Details{
			Price:      money.Amount(d.PriceDetails.Price),
			AdminFee:   money.Amount(d.PriceDetails.AdminFee),
			Tax:        money.Amount(d.PriceDetails.Tax),
			TotalPrice: money.Amount(d.PriceDetails.TotalPrice),
		},
		ExtendCharges:       domainbooking.ExtendCharges{ExtendCharges: money.Amount(d.ExtendCharges.Amount), TotalPrice: money.Amount(d.ExtendCharges.TotalPrice)},
		ExtraRequestCharges: domainbooking.ExtraRequestCharges{AdditionalCharges: money.Amount(d.ExtraRequestCharges.Amount), TotalPrice: money.Amount(d.ExtraRequestCharges.TotalPrice)},
		SpecialRequest:      d.SpecialRequest,
		PreviousBookingID:   domainbooking.BookingID(d.PreviousBookingID),
		IsExtend:            d.IsExtend,
		ExtensionRequested:  d.ExtensionRequested,
		OTP:                 d.OTP,
		IsVerified:          d.IsVerified,
		Status:              domainbooking.Status(d.Status),
		CreatedAt:           timestampToTime(d.CreatedAt),
		UpdatedAt:           timestampToTime(d.UpdatedAt),
		Version:             d.Version,
	}
}
