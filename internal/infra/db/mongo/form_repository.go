package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainforms "rentflow/internal/domain/forms"
)

// FormRepository reads commission forms. Zone and sub-category are stored
// lower-cased.
type FormRepository struct {
	col *mongo.Collection
}

func NewFormRepository(db *mongo.Database) *FormRepository {
	return &FormRepository{col: db.Collection(colForms)}
}

func (r *FormRepository) ForCategory(ctx context.Context, zone, subCategory string) (*domainforms.Form, error) {
	filter := bson.M{"zone": categoryFilterValue(zone), "sub_category": categoryFilterValue(subCategory)}
	var doc formDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainforms.ErrFormNotFound
		}
		return nil, err
	}
	return &domainforms.Form{
		ID:                      doc.ID,
		Zone:                    doc.Zone,
		SubCategory:             doc.SubCategory,
		RenterCommission:        doc.RenterCommission,
		LeaserCommission:        doc.LeaserCommission,
		TaxRate:                 doc.TaxRate,
		RequiredRenterDocuments: append([]string(nil), doc.RequiredRenterDocuments...),
	}, nil
}

// Upsert writes a form; used by fixture loading.
func (r *FormRepository) Upsert(ctx context.Context, f domainforms.Form) error {
	doc := formDocument{
		ID:                      f.ID,
		Zone:                    categoryFilterValue(f.Zone),
		SubCategory:             categoryFilterValue(f.SubCategory),
		RenterCommission:        f.RenterCommission,
		LeaserCommission:        f.LeaserCommission,
		TaxRate:                 f.TaxRate,
		RequiredRenterDocuments: f.RequiredRenterDocuments,
	}
	_, err := r.col.UpdateByID(ctx, doc.ID, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	return err
}

type formDocument struct {
	ID                      string   `bson:"_id"`
	Zone                    string   `bson:"zone"`
	SubCategory             string   `bson:"sub_category"`
	RenterCommission        float64  `bson:"renter_commission"`
	LeaserCommission        float64  `bson:"leaser_commission"`
	TaxRate                 float64  `bson:"tax_rate"`
	RequiredRenterDocuments []string `bson:"required_renter_documents"`
}

type DocumentRepository struct {
	col *mongo.Collection
}

func NewDocumentRepository(db *mongo.Database) *DocumentRepository {
	return &DocumentRepository{col: db.Collection(colDocuments)}
}

func (r *DocumentRepository) ListByUser(ctx context.Context, userID string) ([]domainforms.Document, error) {
	cur, err := r.col.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []domainforms.Document
	for cur.Next(ctx) {
		var doc userDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, domainforms.Document{ID: doc.ID, UserID: doc.UserID, Name: doc.Name, Status: domainforms.DocumentStatus(doc.Status)})
	}
	return out, cur.Err()
}

func (r *DocumentRepository) Upsert(ctx context.Context, d domainforms.Document) error {
	doc := userDocument{ID: d.ID, UserID: d.UserID, Name: d.Name, Status: string(d.Status)}
	_, err := r.col.UpdateByID(ctx, doc.ID, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	return err
}

type userDocument struct {
	ID     string `bson:"_id"`
	UserID string `bson:"user_id"`
	Name   string `bson:"name"`
	Status string `bson:"status"`
}
