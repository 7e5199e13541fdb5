package refund

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentflow/internal/domain/booking"
	"rentflow/internal/domain/pricing"
	"rentflow/internal/domain/shared/daterange"
	"rentflow/internal/domain/shared/money"
)

var now = time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

func TestEvaluate(t *testing.T) {
	policy := Policy{AllowFund: true, CutoffTime: Cutoff{Days: 1}, FlatFee: 20}
	tests := []struct {
		name          string
		untilCheckIn  time.Duration
		wantDeduction money.Amount
		wantRefund    money.Amount
	}{
		{name: "outside cutoff keeps flat fee", untilCheckIn: 72 * time.Hour, wantDeduction: 20, wantRefund: 180},
		{name: "inside cutoff keeps everything", untilCheckIn: 10 * time.Hour, wantDeduction: 200, wantRefund: 0},
		{name: "exactly at cutoff keeps everything", untilCheckIn: 24 * time.Hour, wantDeduction: 200, wantRefund: 0},
		{name: "after check-in", untilCheckIn: -time.Hour, wantDeduction: 200, wantRefund: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Evaluate(policy, now.Add(tt.untilCheckIn), 200, now)
			require.NoError(t, err)
			assert.InDelta(t, float64(tt.wantDeduction), float64(q.Deduction), 1e-9)
			assert.InDelta(t, float64(tt.wantRefund), float64(q.Refund), 1e-9)
		})
	}
}

func TestEvaluate_FlatFeeAbovePriceClampsRefund(t *testing.T) {
	q, err := Evaluate(Policy{AllowFund: true, FlatFee: 50}, now.Add(72*time.Hour), 30, now)
	require.NoError(t, err)
	assert.Zero(t, q.Refund)
}

func TestEvaluate_NotAllowed(t *testing.T) {
	_, err := Evaluate(Policy{AllowFund: false}, now.Add(72*time.Hour), 200, now)
	assert.ErrorIs(t, err, ErrRefundNotAllowed)
}

func TestPolicyDueAt(t *testing.T) {
	assert.True(t, Policy{}.DueAt(now).IsZero())
	assert.Equal(t, now.AddDate(0, 0, 7), Policy{RefundWindow: 7}.DueAt(now))
}

func approvedBooking(t *testing.T) *booking.Booking {
	t.Helper()
	b, err := booking.NewBooking(booking.CreateParams{
		ID:        "b-1",
		ListingID: "listing-1",
		RenterID:  "renter-1",
		LeaserID:  "leaser-1",
		Range:     daterange.DateRange{CheckIn: now.Add(72 * time.Hour), CheckOut: now.Add(96 * time.Hour)},
		Price:     pricing.Details{Price: 180, AdminFee: 10, Tax: 10, TotalPrice: 200},
		CreatedAt: now,
	})
	require.NoError(t, err)
	require.NoError(t, b.Approve(0, "hash", now))
	return b
}

func TestNewRequest(t *testing.T) {
	b := approvedBooking(t)
	policy := Policy{AllowFund: true, CutoffTime: Cutoff{Days: 1}, FlatFee: 20, RefundWindow: 3}

	req, err := NewRequest(CreateParams{ID: "r-1", Booking: b, ActorID: "renter-1", Reason: " plans changed ", Policy: policy, Now: now})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, req.Status)
	assert.Equal(t, "plans changed", req.Reason)
	assert.InDelta(t, 20, float64(req.Deduction), 1e-9)
	assert.InDelta(t, 180, float64(req.TotalRefundAmount), 1e-9)
	assert.Equal(t, now.AddDate(0, 0, 3), req.DueAt)
	require.Len(t, req.PendingEvents(), 1)

	_, err = NewRequest(CreateParams{ID: "r-2", Booking: b, ActorID: "leaser-1", Policy: policy, Now: now})
	assert.ErrorIs(t, err, ErrRenterOnly)
}

func TestNewRequest_RequiresApprovedBooking(t *testing.T) {
	b := approvedBooking(t)
	require.NoError(t, b.Cancel(now))
	_, err := NewRequest(CreateParams{ID: "r-1", Booking: b, ActorID: "renter-1", Policy: Policy{AllowFund: true}, Now: now})
	assert.ErrorIs(t, err, ErrNotRefundable)
}

func TestNewRequest_RefusesSupersededBooking(t *testing.T) {
	policy := Policy{AllowFund: true, CutoffTime: Cutoff{Days: 1}, FlatFee: 20}
	tests := []struct {
		name   string
		mutate func(b *booking.Booking)
	}{
		{name: "extended", mutate: func(b *booking.Booking) { b.MarkExtended(now) }},
		{name: "returned", mutate: func(b *booking.Booking) { b.StampReturn(now) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := approvedBooking(t)
			tt.mutate(b)
			_, err := NewRequest(CreateParams{ID: "r-1", Booking: b, ActorID: "renter-1", Policy: policy, Now: now})
			assert.ErrorIs(t, err, ErrSuperseded)
		})
	}
}

func TestRequestDecisionsAreFinal(t *testing.T) {
	req := &Request{ID: "r-1", Status: StatusPending}
	require.NoError(t, req.Accept(now))
	assert.Equal(t, StatusAccept, req.Status)
	assert.ErrorIs(t, req.Accept(now), ErrAlreadyProcessed)
	assert.ErrorIs(t, req.Reject(now), ErrAlreadyProcessed)
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus(" Accept ")
	require.NoError(t, err)
	assert.Equal(t, StatusAccept, s)
	_, err = ParseStatus("maybe")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}
