package money

import "math"

// Amount is a monetary value in the marketplace currency. Engine math keeps
// full precision; Rounded is for presentation only.
type Amount float64

// Percent returns rate percent of a.
func (a Amount) Percent(rate float64) Amount {
	return Amount(float64(a) * rate / 100)
}

// NonNegative clamps negative amounts to zero.
func (a Amount) NonNegative() Amount {
	if a < 0 {
		return 0
	}
	return a
}

// IsPositive returns true for amounts strictly above zero.
func (a Amount) IsPositive() bool {
	return a > 0
}

// Rounded returns the amount rounded to two decimals.
func (a Amount) Rounded() float64 {
	return math.Round(float64(a)*100) / 100
}

// Max returns the larger of two amounts.
func Max(a, b Amount) Amount {
	if a > b {
		return a
	}
	return b
}
