package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

const (
	colListings       = "agg_listing"
	colBookings       = "agg_booking"
	colForms          = "ref_form"
	colDocuments      = "ref_document"
	colRefundPolicies = "ref_refund_policy"
	colRefunds        = "agg_refund_request"
	colWallets        = "agg_wallet"
	colLedger         = "wallet_ledger"
)

type Client struct {
	DB *mongo.Database
}

// New connects to uri. Multi-document transactions need a replica set; the
// database handle uses majority read and write concerns.
func New(ctx context.Context, uri, database string) (*Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	opts := options.Client().ApplyURI(uri).SetRetryWrites(true)
	m, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	dbOpts := options.Database().
		SetReadConcern(readconcern.Majority()).
		SetWriteConcern(writeconcern.Majority())
	return &Client{DB: m.Database(database, dbOpts)}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.DB.Client().Ping(ctx, nil)
}

func (c *Client) Close(ctx context.Context) error {
	return c.DB.Client().Disconnect(ctx)
}

// EnsureIndexes creates the indexes the repositories query by.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	specs := map[string][]mongo.IndexModel{
		colBookings: {
			{Keys: bson.D{{Key: "listing_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "previous_booking_id", Value: 1}, {Key: "created_at", Value: 1}}},
			{Keys: bson.D{{Key: "renter_id", Value: 1}, {Key: "listing_id", Value: 1}}},
		},
		colForms:          {{Keys: bson.D{{Key: "zone", Value: 1}, {Key: "sub_category", Value: 1}}, Options: options.Index().SetUnique(true)}},
		colRefundPolicies: {{Keys: bson.D{{Key: "zone", Value: 1}, {Key: "sub_category", Value: 1}}, Options: options.Index().SetUnique(true)}},
		colDocuments:      {{Keys: bson.D{{Key: "user_id", Value: 1}}}},
		colRefunds:        {{Keys: bson.D{{Key: "booking_id", Value: 1}}, Options: options.Index().SetUnique(true)}},
		colLedger:         {{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}}},
	}
	for col, models := range specs {
		if _, err := c.DB.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}
