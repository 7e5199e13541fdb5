package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	domainforms "rentflow/internal/domain/forms"
	domainlistings "rentflow/internal/domain/listings"
	domainrefund "rentflow/internal/domain/refund"
	"rentflow/internal/domain/shared/money"
	domainwallet "rentflow/internal/domain/wallet"
	mongostore "rentflow/internal/infra/db/mongo"
	"rentflow/internal/infra/storage/memory"
)

// fixtureSink stores reference data for local runs.
type fixtureSink interface {
	Listing(ctx context.Context, l *domainlistings.Listing) error
	Form(ctx context.Context, f domainforms.Form) error
	Document(ctx context.Context, d domainforms.Document) error
	Policy(ctx context.Context, p domainrefund.Policy) error
	Wallet(ctx context.Context, w *domainwallet.Wallet) error
}

type fixtureFile struct {
	Listings  []listingFixture  `json:"listings"`
	Forms     []formFixture     `json:"forms"`
	Documents []documentFixture `json:"documents"`
	Policies  []policyFixture   `json:"refund_policies"`
	Wallets   []walletFixture   `json:"wallets"`
}

type listingFixture struct {
	ID          string  `json:"id"`
	LeaserID    string  `json:"leaser_id"`
	Title       string  `json:"title"`
	Zone        string  `json:"zone"`
	SubCategory string  `json:"sub_category"`
	Price       float64 `json:"price"`
	PriceUnit   string  `json:"price_unit"`
}

type formFixture struct {
	ID                      string   `json:"id"`
	Zone                    string   `json:"zone"`
	SubCategory             string   `json:"sub_category"`
	RenterCommission        float64  `json:"renter_commission"`
	LeaserCommission        float64  `json:"leaser_commission"`
	TaxRate                 float64  `json:"tax"`
	RequiredRenterDocuments []string `json:"required_renter_documents"`
}

type documentFixture struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type policyFixture struct {
	Zone         string  `json:"zone"`
	SubCategory  string  `json:"sub_category"`
	AllowFund    bool    `json:"allow_fund"`
	CutoffDays   int     `json:"cutoff_days"`
	CutoffHours  int     `json:"cutoff_hours"`
	FlatFee      float64 `json:"flat_fee"`
	RefundWindow int     `json:"refund_window"`
}

type walletFixture struct {
	UserID  string  `json:"user_id"`
	Balance float64 `json:"balance"`
}

func loadFixtures(ctx context.Context, path string, sink fixtureSink, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	var file fixtureFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	now := time.Now().UTC()
	for _, fx := range file.Listings {
		listing, err := domainlistings.NewListing(domainlistings.CreateListingParams{
			ID:          domainlistings.ListingID(fx.ID),
			LeaserID:    fx.LeaserID,
			Title:       fx.Title,
			Zone:        fx.Zone,
			SubCategory: fx.SubCategory,
			Price:       money.Amount(fx.Price),
			PriceUnit:   domainlistings.PriceUnit(fx.PriceUnit),
			Now:         now,
		})
		if err != nil {
			logger.Error("fixture invalid", "listing_id", fx.ID, "error", err)
			continue
		}
		if err := sink.Listing(ctx, listing); err != nil {
			logger.Error("cannot store fixture listing", "listing_id", fx.ID, "error", err)
		}
	}
	for _, fx := range file.Forms {
		form := domainforms.Form{
			ID:                      fx.ID,
			Zone:                    fx.Zone,
			SubCategory:             fx.SubCategory,
			RenterCommission:        fx.RenterCommission,
			LeaserCommission:        fx.LeaserCommission,
			TaxRate:                 fx.TaxRate,
			RequiredRenterDocuments: fx.RequiredRenterDocuments,
		}
		if err := form.Rates().Validate(); err != nil {
			logger.Error("fixture invalid", "form_id", fx.ID, "error", err)
			continue
		}
		if err := sink.Form(ctx, form); err != nil {
			logger.Error("cannot store fixture form", "form_id", fx.ID, "error", err)
		}
	}
	for _, fx := range file.Documents {
		doc := domainforms.Document{ID: fx.ID, UserID: fx.UserID, Name: fx.Name, Status: domainforms.DocumentStatus(fx.Status)}
		if err := sink.Document(ctx, doc); err != nil {
			logger.Error("cannot store fixture document", "document_id", fx.ID, "error", err)
		}
	}
	for _, fx := range file.Policies {
		policy := domainrefund.Policy{
			Zone:         fx.Zone,
			SubCategory:  fx.SubCategory,
			AllowFund:    fx.AllowFund,
			CutoffTime:   domainrefund.Cutoff{Days: fx.CutoffDays, Hours: fx.CutoffHours},
			FlatFee:      money.Amount(fx.FlatFee),
			RefundWindow: fx.RefundWindow,
		}
		if err := sink.Policy(ctx, policy); err != nil {
			logger.Error("cannot store fixture refund policy", "zone", fx.Zone, "sub_category", fx.SubCategory, "error", err)
		}
	}
	for _, fx := range file.Wallets {
		w, err := domainwallet.New(fx.UserID, money.Amount(fx.Balance), now)
		if err != nil {
			logger.Error("fixture invalid", "user_id", fx.UserID, "error", err)
			continue
		}
		if err := sink.Wallet(ctx, w); err != nil {
			logger.Error("cannot store fixture wallet", "user_id", fx.UserID, "error", err)
		}
	}
	logger.Info("fixtures imported",
		"listings", len(file.Listings),
		"forms", len(file.Forms),
		"documents", len(file.Documents),
		"refund_policies", len(file.Policies),
		"wallets", len(file.Wallets),
	)
	return nil
}

type memoryFixtures struct {
	s *memory.Store
}

func (m memoryFixtures) Listing(_ context.Context, l *domainlistings.Listing) error {
	m.s.Seed(func(sd *memory.Seeder) { sd.Listing(l) })
	return nil
}

func (m memoryFixtures) Form(_ context.Context, f domainforms.Form) error {
	m.s.Seed(func(sd *memory.Seeder) { sd.Form(f) })
	return nil
}

func (m memoryFixtures) Document(_ context.Context, d domainforms.Document) error {
	m.s.Seed(func(sd *memory.Seeder) { sd.Document(d) })
	return nil
}

func (m memoryFixtures) Policy(_ context.Context, p domainrefund.Policy) error {
	m.s.Seed(func(sd *memory.Seeder) { sd.Policy(p) })
	return nil
}

func (m memoryFixtures) Wallet(_ context.Context, w *domainwallet.Wallet) error {
	m.s.Seed(func(sd *memory.Seeder) { sd.Wallet(w) })
	return nil
}

// mongoFixtures writes outside any transaction. Listings and wallets that
// already exist are left untouched.
type mongoFixtures struct {
	f mongostore.Factory
}

func (m mongoFixtures) Listing(ctx context.Context, l *domainlistings.Listing) error {
	if _, err := m.f.ListingsRepo.ByID(ctx, l.ID); err == nil {
		return nil
	}
	return m.f.ListingsRepo.Save(ctx, l)
}

func (m mongoFixtures) Form(ctx context.Context, f domainforms.Form) error {
	return mongostore.NewFormRepository(m.f.DB).Upsert(ctx, f)
}

func (m mongoFixtures) Document(ctx context.Context, d domainforms.Document) error {
	return mongostore.NewDocumentRepository(m.f.DB).Upsert(ctx, d)
}

func (m mongoFixtures) Policy(ctx context.Context, p domainrefund.Policy) error {
	return mongostore.NewRefundPolicyRepository(m.f.DB).Upsert(ctx, p)
}

func (m mongoFixtures) Wallet(ctx context.Context, w *domainwallet.Wallet) error {
	if _, err := m.f.WalletsRepo.ByUserID(ctx, w.UserID); err == nil {
		return nil
	}
	return m.f.WalletsRepo.Save(ctx, w)
}
