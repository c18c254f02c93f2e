package negotiation

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyJoined  = errors.New("already in a room")
	ErrNoRoom         = errors.New("room is required")
	ErrUnknownPayload = errors.New("unknown signal payload")
)

// Error records the step that failed.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}
