package booking

import (
	"time"

	"rentflow/internal/domain/shared/errs"
	"rentflow/internal/domain/shared/money"
)

var (
	ErrPinNotIssued      = errs.Conflict("booking: no handover pin has been issued")
	ErrPinMismatch       = errs.Validation("booking: handover pin is incorrect")
	ErrAlreadyHandedOver = errs.Conflict("booking: booking has already been handed over")
	ErrOutsideWindow     = errs.Conflict("booking: handover is only possible during the rental window")
)

// HandoverLeadTime is how early before check-in a handover may be verified.
const HandoverLeadTime = 24 * time.Hour

// Approve moves a pending booking to approved. A booking carrying a special
// request needs a positive surcharge. pinHash is the stored form of the
// freshly issued handover pin.
func (b *Booking) Approve(additionalCharges money.Amount, pinHash string, now time.Time) error {
	if b.Status != StatusPending {
		return ErrInvalidTransition
	}
	if b.SpecialRequest != "" {
		if !additionalCharges.IsPositive() {
			return ErrChargesRequired
		}
		b.ExtraRequestCharges = ExtraRequestCharges{
			AdditionalCharges: additionalCharges,
			TotalPrice:        b.PriceDetails.TotalPrice + additionalCharges,
		}
	}
	if err := b.transition(StatusApproved); err != nil {
		return err
	}
	b.OTP = pinHash
	b.touch(now)
	b.Record(BookingApproved{BookingID: b.ID, ListingID: b.ListingID, RenterID: b.RenterID, AdditionalCharges: b.ExtraRequestCharges.AdditionalCharges, At: b.UpdatedAt})
	return nil
}

func (b *Booking) Reject(now time.Time) error {
	if err := b.transition(StatusRejected); err != nil {
		return err
	}
	b.touch(now)
	b.Record(BookingRejected{BookingID: b.ID, ListingID: b.ListingID, At: b.UpdatedAt})
	return nil
}

func (b *Booking) Cancel(now time.Time) error {
	if err := b.transition(StatusCancelled); err != nil {
		return err
	}
	b.OTP = ""
	b.touch(now)
	b.Record(BookingCancelled{BookingID: b.ID, ListingID: b.ListingID, At: b.UpdatedAt})
	return nil
}

// Complete closes the booking and stamps its return date.
func (b *Booking) Complete(now time.Time) error {
	if err := b.transition(StatusCompleted); err != nil {
		return err
	}
	b.OTP = ""
	b.BookingDates.ReturnDate = now.UTC()
	b.touch(now)
	b.Record(BookingCompleted{BookingID: b.ID, ListingID: b.ListingID, ReturnDate: b.BookingDates.ReturnDate, At: b.UpdatedAt})
	return nil
}

// StampReturn records the physical return without changing status.
func (b *Booking) StampReturn(now time.Time) {
	b.BookingDates.ReturnDate = now.UTC()
	b.touch(now)
}

// VerifyHandover records the handover once the pin has been matched.
// matched is the outcome of comparing the submitted pin with OTP.
func (b *Booking) VerifyHandover(matched bool, now time.Time) error {
	if b.Status != StatusApproved {
		return ErrInvalidTransition
	}
	if !b.BookingDates.Handover.IsZero() {
		return ErrAlreadyHandedOver
	}
	if b.OTP == "" {
		return ErrPinNotIssued
	}
	now = now.UTC()
	if now.Before(b.Dates.CheckIn.Add(-HandoverLeadTime)) || now.After(b.Dates.CheckOut) {
		return ErrOutsideWindow
	}
	if !matched {
		return ErrPinMismatch
	}
	b.BookingDates.Handover = now
	b.IsVerified = true
	b.OTP = ""
	b.touch(now)
	b.Record(HandoverVerified{BookingID: b.ID, ListingID: b.ListingID, Handover: now, At: now})
	return nil
}

// ApproveExtension approves b as the extension of parent. The child inherits
// the parent's original price details plus the extension charge, and its
// occupancy starts exactly when the parent's ends.
func (b *Booking) ApproveExtension(parent *Booking, extendCharge money.Amount, now time.Time) error {
	if b.PreviousBookingID != parent.ID {
		return ErrBrokenChain
	}
	if b.Status != StatusPending {
		return ErrInvalidTransition
	}
	if !extendCharge.IsPositive() {
		return ErrChargesRequired
	}
	if err := b.transition(StatusApproved); err != nil {
		return err
	}
	now = now.UTC()
	handover := parent.BookingDates.ReturnDate
	if handover.Before(now) {
		handover = now
	}
	b.ExtendCharges = ExtendCharges{
		ExtendCharges: extendCharge,
		TotalPrice:    parent.PriceDetails.TotalPrice + parent.ExtraRequestCharges.AdditionalCharges + extendCharge,
	}
	b.PriceDetails = parent.PriceDetails
	b.BookingDates.Handover = handover
	b.BookingDates.ReturnDate = time.Time{}
	b.IsVerified = true
	b.ExtensionRequested = false
	b.touch(now)

	parent.BookingDates.ReturnDate = handover
	parent.touch(now)

	b.Record(ExtensionApproved{BookingID: b.ID, ParentID: parent.ID, ListingID: b.ListingID, ExtendCharges: extendCharge, TotalPrice: b.ExtendCharges.TotalPrice, Handover: handover, At: now})
	return nil
}

// RejectExtension turns down a pending extension request.
func (b *Booking) RejectExtension(now time.Time) error {
	if b.Status != StatusPending {
		return ErrInvalidTransition
	}
	if err := b.transition(StatusRejected); err != nil {
		return err
	}
	b.IsExtend = false
	b.ExtensionRequested = false
	b.touch(now)
	b.Record(ExtensionRejected{BookingID: b.ID, ParentID: b.PreviousBookingID, ListingID: b.ListingID, At: b.UpdatedAt})
	return nil
}

// MarkExtended flags a booking as having at least one approved extension.
func (b *Booking) MarkExtended(now time.Time) {
	if b.IsExtend {
		return
	}
	b.IsExtend = true
	b.touch(now)
}
