package booking

import (
	"strings"

	"rentflow/internal/domain/shared/errs"
)

var (
	ErrInvalidTransition = errs.Conflict("booking: invalid status transition")
	ErrUnknownStatus     = errs.Validation("booking: unknown status")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusCompleted, StatusCancelled},
}

// ParseStatus normalizes a client supplied status.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled, StatusCompleted:
		return s, nil
	}
	return "", ErrUnknownStatus
}

func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusCancelled || s == StatusCompleted
}

// CanTransition reports whether to is reachable from s in one step.
func (s Status) CanTransition(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (b *Booking) transition(to Status) error {
	if !b.Status.CanTransition(to) {
		return ErrInvalidTransition
	}
	b.Status = to
	return nil
}
