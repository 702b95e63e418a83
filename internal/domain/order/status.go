package order

import (
	"fmt"

	appErrors "storefront/pkg/errors"
)

// Status represents the lifecycle state of an order
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var validTransitions = map[Status][]Status{
	StatusPending:   {StatusCompleted, StatusCancelled},
	StatusCompleted: {},
	StatusCancelled: {},
}

func (s Status) IsValid() bool {
	_, ok := validTransitions[s]
	return ok
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return s.IsValid() && len(validTransitions[s]) == 0
}

func CanTransition(from, to Status) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func ValidateTransition(from, to Status) error {
	if !to.IsValid() {
		return appErrors.NewAppError(appErrors.CodeInvalidTransition, fmt.Sprintf("unknown order status %q", to), ErrInvalidStatus)
	}
	if !CanTransition(from, to) {
		return appErrors.NewAppError(
			appErrors.CodeInvalidTransition,
			fmt.Sprintf("cannot transition order from %s to %s", from, to),
			ErrInvalidStatusTransition,
		)
	}
	return nil
}

// AllStatuses lists every status, pending first.
func AllStatuses() []Status {
	return []Status{StatusPending, StatusCompleted, StatusCancelled}
}
