package shtp

import (
	"errors"
	"fmt"
)

var (
	ErrNotOpen       = errors.New("shtp: bus not open")
	ErrTimeout       = errors.New("shtp: timeout")
	ErrIO            = errors.New("shtp: i/o error")
	ErrOversizeFrame = errors.New("shtp: oversize frame")
	ErrInvalidHeader = errors.New("shtp: invalid header")
)

// busError keeps taxonomy errors as they are and files everything else under ErrIO.
func busError(op string, err error) error {
	switch {
	case errors.Is(err, ErrNotOpen), errors.Is(err, ErrTimeout),
		errors.Is(err, ErrIO), errors.Is(err, ErrInvalidHeader),
		errors.Is(err, ErrOversizeFrame):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return fmt.Errorf("%w: %s: %w", ErrIO, op, err)
	}
}
