package refund

import (
	"context"
	"time"

	"rentflow/internal/domain/shared/errs"
	"rentflow/internal/domain/shared/money"
)

var (
	ErrPolicyNotFound   = errs.NotFound("refund: no refund policy for this category")
	ErrRefundNotAllowed = errs.Conflict("refund: refunds are not allowed for this category")
)

// Cutoff is the time before check-in inside which a cancellation forfeits the
// full price.
type Cutoff struct {
	Days  int
	Hours int
}

func (c Cutoff) Duration() time.Duration {
	return time.Duration(c.Days*24+c.Hours) * time.Hour
}

// Policy is the cancellation policy of a (zone, subCategory) pair.
type Policy struct {
	Zone        string
	SubCategory string
	AllowFund   bool
	CutoffTime  Cutoff
	FlatFee     money.Amount
	// RefundWindow is the number of days the leaser has to settle a request.
	RefundWindow int
}

type PolicyRepository interface {
	ForCategory(ctx context.Context, zone, subCategory string) (*Policy, error)
}

// Quote is the outcome of evaluating a policy against a booking.
type Quote struct {
	Deduction money.Amount
	Refund    money.Amount
}

// Evaluate computes the deduction and refund for cancelling a booking that
// starts at checkIn and costs totalPrice. Outside the cutoff window only the
// flat fee is kept; inside it the whole price is.
func Evaluate(p Policy, checkIn time.Time, totalPrice money.Amount, now time.Time) (Quote, error) {
	if !p.AllowFund {
		return Quote{}, ErrRefundNotAllowed
	}
	hoursUntil := checkIn.Sub(now).Hours()
	cutoffHours := p.CutoffTime.Duration().Hours()

	deduction := totalPrice
	if hoursUntil > cutoffHours {
		deduction = p.FlatFee
	}
	return Quote{
		Deduction: deduction,
		Refund:    (totalPrice - deduction).NonNegative(),
	}, nil
}

// DueAt is the settlement deadline for a request created at now. A zero
// window means no deadline.
func (p Policy) DueAt(now time.Time) time.Time {
	if p.RefundWindow <= 0 {
		return time.Time{}
	}
	return now.UTC().AddDate(0, 0, p.RefundWindow)
}
