package dto

import (
	"time"

	domainrefund "rentflow/internal/domain/refund"
)

type RefundRequestDTO struct {
	ID                string     `json:"id"`
	BookingID         string     `json:"booking_id"`
	RenterID          string     `json:"renter_id"`
	LeaserID          string     `json:"leaser_id"`
	Reason            string     `json:"reason,omitempty"`
	Deduction         float64    `json:"deduction"`
	TotalRefundAmount float64    `json:"total_refund_amount"`
	Status            string     `json:"status"`
	DueAt             *time.Time `json:"due_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func MapRefundRequest(r *domainrefund.Request) RefundRequestDTO {
	return RefundRequestDTO{
		ID:                string(r.ID),
		BookingID:         string(r.BookingID),
		RenterID:          r.RenterID,
		LeaserID:          r.LeaserID,
		Reason:            r.Reason,
		Deduction:         r.Deduction.Rounded(),
		TotalRefundAmount: r.TotalRefundAmount.Rounded(),
		Status:            string(r.Status),
		DueAt:             timePtr(r.DueAt),
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}
