package intercept

import (
	"errors"
	"fmt"
)

// State is the interceptor lifecycle state.
type State int

const (
	StateIdle State = iota
	StateInstalling
	StateActivating
	StateActive
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInstalling:
		return "installing"
	case StateActivating:
		return "activating"
	case StateActive:
		return "active"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// transitions lists the legal next states. A failed install returns to idle.
var transitions = map[State][]State{
	StateIdle:       {StateInstalling},
	StateInstalling: {StateActivating, StateIdle},
	StateActivating: {StateActive},
	StateActive:     {},
}

// ErrInvalidTransition reports an illegal lifecycle step.
type ErrInvalidTransition struct {
	From State
	To   State
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("invalid lifecycle transition from %s to %s", e.From, e.To)
}

// IsInvalidTransition reports whether err is an *ErrInvalidTransition.
func IsInvalidTransition(err error) bool {
	var e *ErrInvalidTransition
	return errors.As(err, &e)
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Message is a control message sent to the interceptor.
type Message string

// MessageSkipWaiting asks an installed interceptor to activate immediately.
const MessageSkipWaiting Message = "SKIP_WAITING"

// ErrUnknownMessage is returned for messages other than MessageSkipWaiting.
var ErrUnknownMessage = errors.New("unknown control message")
