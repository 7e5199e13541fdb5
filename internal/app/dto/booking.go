package dto

import (
	"time"

	domainbooking "rentflow/internal/domain/booking"
	"rentflow/internal/domain/pricing"
)

type PriceDetailsDTO struct {
	Price      float64 `json:"price"`
	AdminFee   float64 `json:"admin_fee"`
	Tax        float64 `json:"tax"`
	TotalPrice float64 `json:"total_price"`
}

type ChargeLayerDTO struct {
	Amount     float64 `json:"amount"`
	TotalPrice float64 `json:"total_price"`
}

type BookingDatesDTO struct {
	Handover   *time.Time `json:"handover,omitempty"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
}

type BookingDTO struct {
	ID                  string          `json:"id"`
	ListingID           string          `json:"listing_id"`
	RenterID            string          `json:"renter_id"`
	LeaserID            string          `json:"leaser_id"`
	CheckIn             time.Time       `json:"check_in"`
	CheckOut            time.Time       `json:"check_out"`
	BookingDates        BookingDatesDTO `json:"booking_dates"`
	PriceDetails        PriceDetailsDTO `json:"price_details"`
	ExtendCharges       ChargeLayerDTO  `json:"extend_charges"`
	ExtraRequestCharges ChargeLayerDTO  `json:"extra_request_charges"`
	PayableTotal        float64         `json:"payable_total"`
	SpecialRequest      string          `json:"special_request,omitempty"`
	PreviousBookingID   string          `json:"previous_booking_id,omitempty"`
	IsExtend            bool            `json:"is_extend"`
	ExtensionRequested  bool            `json:"extension_requested"`
	PinIssued           bool            `json:"pin_issued"`
	IsVerified          bool            `json:"is_verified"`
	Status              string          `json:"status"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// BookingWithChain is a booking together with its extension chain, root
// first.
type BookingWithChain struct {
	Booking BookingDTO   `json:"booking"`
	Chain   []BookingDTO `json:"chain"`
}

func MapPriceDetails(d pricing.Details) PriceDetailsDTO {
	return PriceDetailsDTO{
		Price:      d.Price.Rounded(),
		AdminFee:   d.AdminFee.Rounded(),
		Tax:        d.Tax.Rounded(),
		TotalPrice: d.TotalPrice.Rounded(),
	}
}

// MapBooking never exposes the stored pin hash, only whether one is issued.
func MapBooking(b *domainbooking.Booking) BookingDTO {
	return BookingDTO{
		ID:           string(b.ID),
		ListingID:    string(b.ListingID),
		RenterID:     b.RenterID,
		LeaserID:     b.LeaserID,
		CheckIn:      b.Dates.CheckIn,
		CheckOut:     b.Dates.CheckOut,
		BookingDates: BookingDatesDTO{Handover: timePtr(b.BookingDates.Handover), ReturnDate: timePtr(b.BookingDates.ReturnDate)},
		PriceDetails: MapPriceDetails(b.PriceDetails),
		ExtendCharges: ChargeLayerDTO{
			Amount:     b.ExtendCharges.ExtendCharges.Rounded(),
			TotalPrice: b.ExtendCharges.TotalPrice.Rounded(),
		},
		ExtraRequestCharges: ChargeLayerDTO{
			Amount:     b.ExtraRequestCharges.AdditionalCharges.Rounded(),
			TotalPrice: b.ExtraRequestCharges.TotalPrice.Rounded(),
		},
		PayableTotal:       b.PayableTotal().Rounded(),
		SpecialRequest:     b.SpecialRequest,
		PreviousBookingID:  string(b.PreviousBookingID),
		IsExtend:           b.IsExtend,
		ExtensionRequested: b.ExtensionRequested,
		PinIssued:          b.OTP != "",
		IsVerified:         b.IsVerified,
		Status:             string(b.Status),
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
