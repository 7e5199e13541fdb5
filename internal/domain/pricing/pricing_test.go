package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentflow/internal/domain/listings"
	"rentflow/internal/domain/shared/daterange"
	"rentflow/internal/domain/shared/money"
)

func TestCompute(t *testing.T) {
	d := Compute(100, Rates{RenterCommission: 5, LeaserCommission: 5, Tax: 10})

	assert.InDelta(t, 100, float64(d.Price), 1e-9)
	assert.InDelta(t, 10, float64(d.AdminFee), 1e-9)
	assert.InDelta(t, 11, float64(d.Tax), 1e-9)
	assert.InDelta(t, 121, float64(d.TotalPrice), 1e-9)
}

func TestCompute_ZeroRates(t *testing.T) {
	d := Compute(80, Rates{})
	assert.Equal(t, money.Amount(80), d.TotalPrice)
	assert.Zero(t, d.AdminFee)
	assert.Zero(t, d.Tax)
}

func TestQuote(t *testing.T) {
	checkIn := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		unit     listings.PriceUnit
		checkOut time.Time
		wantBase money.Amount
	}{
		{name: "one day", unit: listings.PerDay, checkOut: checkIn.Add(24 * time.Hour), wantBase: 50},
		{name: "partial day rounds up", unit: listings.PerDay, checkOut: checkIn.Add(25 * time.Hour), wantBase: 100},
		{name: "hours", unit: listings.PerHour, checkOut: checkIn.Add(3 * time.Hour), wantBase: 150},
		{name: "short stay is one unit", unit: listings.PerWeek, checkOut: checkIn.Add(2 * time.Hour), wantBase: 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &listings.Listing{ID: "l-1", LeaserID: "leaser", Price: 50, PriceUnit: tt.unit}
			dr, err := daterange.New(checkIn, tt.checkOut)
			require.NoError(t, err)

			d, err := Quote(l, dr, Rates{})
			require.NoError(t, err)
			assert.InDelta(t, float64(tt.wantBase), float64(d.Price), 1e-9)
		})
	}
}

func TestQuote_RejectsNegativeRates(t *testing.T) {
	l := &listings.Listing{ID: "l-1", LeaserID: "leaser", Price: 50, PriceUnit: listings.PerDay}
	dr := daterange.DateRange{CheckIn: time.Unix(0, 0), CheckOut: time.Unix(86400, 0)}
	_, err := Quote(l, dr, Rates{Tax: -1})
	assert.ErrorIs(t, err, ErrNegativeRate)
}
