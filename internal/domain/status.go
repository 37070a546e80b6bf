package domain

import "fmt"

// Status is the lifecycle state of a shipment order.
//
// Progression driven by the transition scheduler:
//
//	pending ──> in_transit ──> delivered
//
// delayed and cancelled are exceptional states injected by operators and
// are reachable from any state. delivered and cancelled are terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusInTransit Status = "in_transit"
	StatusDelivered Status = "delivered"
	StatusDelayed   Status = "delayed"
	StatusCancelled Status = "cancelled"
)

var statusNames = map[Status]struct{}{
	StatusPending:   {},
	StatusInTransit: {},
	StatusDelivered: {},
	StatusDelayed:   {},
	StatusCancelled: {},
}

func (s Status) String() string {
	return string(s)
}

// Validate reports whether s is one of the five known statuses.
func (s Status) Validate() error {
	if _, ok := statusNames[s]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, string(s))
	}
	return nil
}

// Terminal reports whether no further transitions leave s.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanProgressTo reports whether the state machine permits moving from s
// to next. Exceptional states (delayed, cancelled) may be entered from
// any non-terminal state. A delayed order may be resumed to in_transit
// or delivered; whether the scheduler does so automatically is policy
// (config.DelayedPolicy), this table only bounds what the log accepts.
func (s Status) CanProgressTo(next Status) bool {
	if next == StatusDelayed || next == StatusCancelled {
		return !s.Terminal()
	}
	switch s {
	case StatusPending:
		return next == StatusInTransit
	case StatusInTransit:
		return next == StatusDelivered
	case StatusDelayed:
		return next == StatusInTransit || next == StatusDelivered
	default:
		return false
	}
}

// ParseStatus converts a wire string into a Status.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if err := s.Validate(); err != nil {
		return "", err
	}
	return s, nil
}
