package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "rentflow/internal/domain/booking"
	"rentflow/internal/domain/listings"
	domainrefund "rentflow/internal/domain/refund"
	"rentflow/internal/domain/shared/money"
)

type RefundPolicyRepository struct {
	col *mongo.Collection
}

func NewRefundPolicyRepository(db *mongo.Database) *RefundPolicyRepository {
	return &RefundPolicyRepository{col: db.Collection(colRefundPolicies)}
}

func (r *RefundPolicyRepository) ForCategory(ctx context.Context, zone, subCategory string) (*domainrefund.Policy, error) {
	filter := bson.M{"zone": categoryFilterValue(zone), "sub_category": categoryFilterValue(subCategory)}
	var doc policyDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainrefund.ErrPolicyNotFound
		}
		return nil, err
	}
	return &domainrefund.Policy{
		Zone:         doc.Zone,
		SubCategory:  doc.SubCategory,
		AllowFund:    doc.AllowFund,
		CutoffTime:   domainrefund.Cutoff{Days: doc.CutoffTime.Days, Hours: doc.CutoffTime.Hours},
		FlatFee:      money.Amount(doc.FlatFee.Amount),
		RefundWindow: doc.RefundWindow,
	}, nil
}

func (r *RefundPolicyRepository) Upsert(ctx context.Context, p domainrefund.Policy) error {
	doc := policyDocument{
		Zone:         categoryFilterValue(p.Zone),
		SubCategory:  categoryFilterValue(p.SubCategory),
		AllowFund:    p.AllowFund,
		CutoffTime:   cutoffDocument{Days: p.CutoffTime.Days, Hours: p.CutoffTime.Hours},
		FlatFee:      flatFeeDocument{Amount: float64(p.FlatFee)},
		RefundWindow: p.RefundWindow,
	}
	filter := bson.M{"zone": doc.Zone, "sub_category": doc.SubCategory}
	_, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	return err
}

type policyDocument struct {
	Zone         string          `bson:"zone"`
	SubCategory  string          `bson:"sub_category"`
	AllowFund    bool            `bson:"allow_fund"`
	CutoffTime   cutoffDocument  `bson:"cancellation_cutoff_time"`
	FlatFee      flatFeeDocument `bson:"flat_fee"`
	RefundWindow int             `bson:"refund_window"`
}

type cutoffDocument struct {
	Days  int `bson:"days"`
	Hours int `bson:"hours"`
}

type flatFeeDocument struct {
	Amount float64 `bson:"amount"`
}

type RefundRequestRepository struct {
	col *mongo.Collection
}

func NewRefundRequestRepository(db *mongo.Database) *RefundRequestRepository {
	return &RefundRequestRepository{col: db.Collection(colRefunds)}
}

func (r *RefundRequestRepository) ByID(ctx context.Context, id domainrefund.RequestID) (*domainrefund.Request, error) {
	return r.findOne(ctx, bson.M{"_id": string(id)}, domainrefund.ErrRequestNotFound)
}

func (r *RefundRequestRepository) ByBooking(ctx context.Context, bookingID domainbooking.BookingID) (*domainrefund.Request, error) {
	return r.findOne(ctx, bson.M{"booking_id": string(bookingID)}, nil)
}

func (r *RefundRequestRepository) findOne(ctx context.Context, filter bson.M, notFound error) (*domainrefund.Request, error) {
	var doc refundDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Save inserts a new request or updates a pending one. Updating a request
// that is no longer pending fails with ErrAlreadyProcessed, so concurrent
// deciders cannot both win.
func (r *RefundRequestRepository) Save(ctx context.Context, req *domainrefund.Request) error {
	doc := newRefundDocument(req)
	doc.Version = req.Version + 1
	if req.Version == 0 {
		if _, err := r.col.InsertOne(ctx, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return domainrefund.ErrAlreadyRequested
			}
			return mapWriteErr(err)
		}
		req.Version = doc.Version
		return nil
	}
	filter := bson.M{"_id": doc.ID, "version": req.Version, "status": string(domainrefund.StatusPending)}
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc})
	if err != nil {
		return mapWriteErr(err)
	}
	if res.MatchedCount == 0 {
		return domainrefund.ErrAlreadyProcessed
	}
	req.Version = doc.Version
	return nil
}

type refundDocument struct {
	ID                string  `bson:"_id"`
	BookingID         string  `bson:"booking_id"`
	ListingID         string  `bson:"listing_id"`
	RenterID          string  `bson:"renter_id"`
	LeaserID          string  `bson:"leaser_id"`
	Reason            string  `bson:"reason"`
	Deduction         float64 `bson:"deduction"`
	TotalRefundAmount float64 `bson:"total_refund_amount"`
	Status            string  `bson:"status"`
	DueAt             int64   `bson:"due_at"`
	CreatedAt         int64   `bson:"created_at"`
	UpdatedAt         int64   `bson:"updated_at"`
	Version           int64   `bson:"version"`
}

func newRefundDocument(req *domainrefund.Request) refundDocument {
	return refundDocument{
		ID:                string(req.ID),
		BookingID:         string(req.BookingID),
		ListingID:         string(req.ListingID),
		RenterID:          req.RenterID,
		LeaserID:          req.LeaserID,
		Reason:            req.Reason,
		Deduction:         float64(req.Deduction),
		TotalRefundAmount: float64(req.TotalRefundAmount),
		Status:            string(req.Status),
		DueAt:             timeToTimestamp(req.DueAt),
		CreatedAt:         timeToTimestamp(req.CreatedAt),
		UpdatedAt:         timeToTimestamp(req.UpdatedAt),
		Version:           req.Version,
	}
}

func (d refundDocument) toAggregate() *domainrefund.Request {
	return &domainrefund.Request{
		ID:                domainrefund.RequestID(d.ID),
		BookingID:         domainbooking.BookingID(d.BookingID),
		ListingID:         listings.ListingID(d.ListingID),
		RenterID:          d.RenterID,
		LeaserID:          d.LeaserID,
		Reason:            d.Reason,
		Deduction:         money.Amount(d.Deduction),
		TotalRefundAmount: money.Amount(d.TotalRefundAmount),
		Status:            domainrefund.Status(d.Status),
		DueAt:             timestampToTime(d.DueAt),
		CreatedAt:         timestampToTime(d.CreatedAt),
		UpdatedAt:         timestampToTime(d.UpdatedAt),
		Version:           d.Version,
	}
}
