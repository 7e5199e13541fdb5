package booking

import (
	"rentflow/internal/domain/shared/errs"
	"rentflow/internal/domain/shared/money"
)

var (
	ErrNotAParty       = errs.Forbidden("booking: actor is not a party to this booking")
	ErrRoleNotAllowed  = errs.Forbidden("booking: actor role cannot set this status")
	ErrChargesRequired = errs.Validation("booking: additional charges are required to approve a special request")
)

type Role string

const (
	RoleRenter Role = "renter"
	RoleLeaser Role = "leaser"
)

var allowedByRole = map[Role][]Status{
	RoleLeaser: {StatusApproved, StatusRejected, StatusCompleted},
	RoleRenter: {StatusCancelled},
}

// RoleOf resolves the actor's role on b.
func RoleOf(b *Booking, actorID string) (Role, error) {
	switch actorID {
	case "":
		return "", ErrNotAParty
	case b.LeaserID:
		return RoleLeaser, nil
	case b.RenterID:
		return RoleRenter, nil
	}
	return "", ErrNotAParty
}

// Decision is a requested status change on a booking.
type Decision struct {
	Status            Status
	AdditionalCharges money.Amount
	// Extension targets the pending extension child of the booking instead
	// of the booking itself.
	Extension bool
}

// ExtensionApproved reports whether an extension decision approves. A
// missing or non-positive charge is read as a rejection.
func (d Decision) ExtensionApproved() bool {
	return d.Status == StatusApproved && d.AdditionalCharges.IsPositive()
}

// Authorize checks that role may issue d.
func (d Decision) Authorize(role Role) error {
	target := d.Status
	if d.Extension {
		// extension decisions are leaser approvals or rejections
		target = StatusApproved
	}
	for _, s := range allowedByRole[role] {
		if s == target {
			return nil
		}
	}
	return ErrRoleNotAllowed
}

var (
	ErrExtensionDecision = errs.Validation("booking: extension decisions must approve or reject")
	ErrNegativeCharges   = errs.Validation("booking: additional charges cannot be negative")
	ErrPendingTarget     = errs.Validation("booking: status cannot be set back to pending")
	ErrDecideOnParent    = errs.Validation("booking: extension requests are decided on the booking they extend")
)

func (d Decision) Validate() error {
	if d.Status == StatusPending {
		return ErrPendingTarget
	}
	if d.AdditionalCharges < 0 {
		return ErrNegativeCharges
	}
	if d.Extension && d.Status != StatusApproved && d.Status != StatusRejected {
		return ErrExtensionDecision
	}
	return nil
}
