//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealRelays is not available on non-Linux platforms.
type RealRelays struct{}

// NewRealRelays returns an error on non-Linux platforms.
func NewRealRelays(chipName string, heaterPin, pumpPin int, activeLow bool) (*RealRelays, error) {
	return nil, errUnsupported
}

// SetHeater is not implemented on non-Linux platforms.
func (r *RealRelays) SetHeater(on bool) error { return errUnsupported }

// SetPump is not implemented on non-Linux platforms.
func (r *RealRelays) SetPump(on bool) error { return errUnsupported }

// Close is not implemented on non-Linux platforms.
func (r *RealRelays) Close() error { return nil }

// RealMatrix is not available on non-Linux platforms.
type RealMatrix struct{}

// NewRealMatrix returns an error on non-Linux platforms.
func NewRealMatrix(chipName string, rowPins, colPins []int) (*RealMatrix, error) {
	return nil, errUnsupported
}

// SelectRow is not implemented on non-Linux platforms.
func (m *RealMatrix) SelectRow(i int) error { return errUnsupported }

// ReadColumns is not implemented on non-Linux platforms.
func (m *RealMatrix) ReadColumns(cols []bool) error { return errUnsupported }

// Close is not implemented on non-Linux platforms.
func (m *RealMatrix) Close() error { return nil }
