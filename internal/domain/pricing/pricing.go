package pricing

import (
	"errors"

	"rentflow/internal/domain/listings"
	"rentflow/internal/domain/shared/daterange"
	"rentflow/internal/domain/shared/money"
)

var (
	ErrNegativeRate  = errors.New("pricing: rates cannot be negative")
	ErrNegativePrice = errors.New("pricing: base price cannot be negative")
)

// Rates are percentages of the base price.
type Rates struct {
	RenterCommission float64
	LeaserCommission float64
	Tax              float64
}

func (r Rates) Validate() error {
	if r.RenterCommission < 0 || r.LeaserCommission < 0 || r.Tax < 0 {
		return ErrNegativeRate
	}
	return nil
}

// Details is the charge breakdown fixed on a booking at approval time.
type Details struct {
	Price      money.Amount
	AdminFee   money.Amount
	Tax        money.Amount
	TotalPrice money.Amount
}

// Compute derives admin fee, tax and total from a base price. The result
// depends only on its inputs and is never rounded.
func Compute(base money.Amount, rates Rates) Details {
	adminFee := base.Percent(rates.RenterCommission + rates.LeaserCommission)
	tax := (base + adminFee).Percent(rates.Tax)
	return Details{
		Price:      base,
		AdminFee:   adminFee,
		Tax:        tax,
		TotalPrice: base + adminFee + tax,
	}
}

// BasePrice is the listing price multiplied by the number of price units the
// range spans.
func BasePrice(listing *listings.Listing, dr daterange.DateRange) (money.Amount, error) {
	unit, err := listing.PriceUnit.Duration()
	if err != nil {
		return 0, err
	}
	if listing.Price < 0 {
		return 0, ErrNegativePrice
	}
	return listing.Price * money.Amount(dr.Units(unit)), nil
}

// Quote prices a stay on a listing.
func Quote(listing *listings.Listing, dr daterange.DateRange, rates Rates) (Details, error) {
	if err := rates.Validate(); err != nil {
		return Details{}, err
	}
	base, err := BasePrice(listing, dr)
	if err != nil {
		return Details{}, err
	}
	return Compute(base, rates), nil
}
