package forms

import (
	"context"
	"strings"

	"rentflow/internal/domain/pricing"
	"rentflow/internal/domain/shared/errs"
)

var ErrFormNotFound = errs.NotFound("forms: no form configured for zone and sub-category")

// Form is the per (zone, sub-category) configuration a booking is priced and
// vetted against.
type Form struct {
	ID                      string
	Zone                    string
	SubCategory             string
	RenterCommission        float64
	LeaserCommission        float64
	TaxRate                 float64
	RequiredRenterDocuments []string
}

func (f *Form) Rates() pricing.Rates {
	return pricing.Rates{
		RenterCommission: f.RenterCommission,
		LeaserCommission: f.LeaserCommission,
		Tax:              f.TaxRate,
	}
}

type DocumentStatus string

const (
	DocumentPending  DocumentStatus = "pending"
	DocumentApproved DocumentStatus = "approved"
	DocumentRejected DocumentStatus = "rejected"
)

// Document is an identity or compliance document a user has uploaded.
type Document struct {
	ID     string
	UserID string
	Name   string
	Status DocumentStatus
}

type Repository interface {
	ForCategory(ctx context.Context, zone, subCategory string) (*Form, error)
}

type DocumentRepository interface {
	ListByUser(ctx context.Context, userID string) ([]Document, error)
}

// ApprovedNames returns the set of document names with approved status.
func ApprovedNames(docs []Document) map[string]struct{} {
	out := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		if d.Status == DocumentApproved {
			out[normalize(d.Name)] = struct{}{}
		}
	}
	return out
}

// CheckRequired returns a DocumentError naming each required document that
// is not in the approved set.
func CheckRequired(required []string, approved map[string]struct{}) error {
	var missing []string
	for _, name := range required {
		if strings.TrimSpace(name) == "" {
			continue
		}
		if _, ok := approved[normalize(name)]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &errs.DocumentError{Missing: missing}
	}
	return nil
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
