package session

import "errors"

var (
	// ErrSequence is returned when an operation is not permitted from the current step or sub-phase.
	ErrSequence = errors.New("session: operation not permitted in current step")
	// ErrIncompleteBuffer is returned when a phase buffer does not hold exactly N readings.
	ErrIncompleteBuffer = errors.New("session: measurement buffer incomplete")
	// ErrEmptyBuffer is returned when aggregating zero readings.
	ErrEmptyBuffer = errors.New("session: empty measurement buffer")
	// ErrInvalidProfile is returned when a golfer profile has an unknown option.
	ErrInvalidProfile = errors.New("session: invalid profile")
)
