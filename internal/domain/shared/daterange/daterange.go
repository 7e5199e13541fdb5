package daterange

import (
	"errors"
	"math"
	"time"
)

var (
	ErrInvalidRange = errors.New("daterange: checkout must be after checkin")
)

// DateRange is a contracted rental interval [CheckIn, CheckOut].
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func New(checkIn, checkOut time.Time) (DateRange, error) {
	dr := DateRange{CheckIn: checkIn.UTC(), CheckOut: checkOut.UTC()}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

func (dr DateRange) Validate() error {
	if dr.CheckOut.IsZero() || dr.CheckIn.IsZero() {
		return ErrInvalidRange
	}
	if !dr.CheckOut.After(dr.CheckIn) {
		return ErrInvalidRange
	}
	return nil
}

// Overlaps uses inclusive bounds: ranges that touch on a boundary overlap.
func (dr DateRange) Overlaps(other DateRange) bool {
	return !dr.CheckIn.After(other.CheckOut) && !dr.CheckOut.Before(other.CheckIn)
}

func (dr DateRange) ContainsDate(t time.Time) bool {
	t = t.UTC()
	return !t.Before(dr.CheckIn) && !t.After(dr.CheckOut)
}

// Units counts whole periods of length unit in the range, rounding up. A
// valid range always counts at least one unit.
func (dr DateRange) Units(unit time.Duration) int {
	if unit <= 0 {
		return 0
	}
	n := int(math.Ceil(float64(dr.CheckOut.Sub(dr.CheckIn)) / float64(unit)))
	if n < 1 {
		return 1
	}
	return n
}

func (dr DateRange) Duration() time.Duration {
	return dr.CheckOut.Sub(dr.CheckIn)
}
