package dps3xx

import (
	"errors"
	"fmt"
)

var (
	// ErrWrongDevice is returned by New when PROD_ID does not identify a DPS3xx.
	ErrWrongDevice = errors.New("dps3xx: unexpected product id")
	// ErrInitTimeout is returned when the start-up poll or the settling gate exceeds its bound.
	ErrInitTimeout = errors.New("dps3xx: initialization timed out")
	// ErrInvalidConfig marks a configuration or measurement request the device cannot honor.
	ErrInvalidConfig = errors.New("dps3xx: invalid configuration")
	// ErrConsumed is returned by a handle that has already been moved into the next state.
	ErrConsumed = errors.New("dps3xx: handle already consumed")
)

// BusError wraps a transport failure together with the register it concerned.
type BusError struct {
	Op       string
	Register Register
	Err      error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("dps3xx: %s %s: %v", e.Op, e.Register, e.Err)
}

func (e *BusError) Unwrap() error {
	return e.Err
}
