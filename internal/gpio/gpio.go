// Package gpio drives the heater and pump relays and the keypad matrix lines.
// The real implementation uses the Linux GPIO character device.
// The fake implementations allow testing without hardware.
package gpio

// Relays switches the heater and pump. Calls are idempotent.
type Relays interface {
	// SetHeater energizes or releases the heater relay.
	SetHeater(on bool) error

	// SetPump energizes or releases the pump relay.
	SetPump(on bool) error

	// Close switches both relays off and releases GPIO resources.
	Close() error
}

// Matrix drives the rows of a keypad matrix and samples its columns.
// Values are logical: an active row is being scanned, an active column
// has a key closed against the active row.
type Matrix interface {
	// SelectRow activates row i and deactivates the others.
	// A negative index deactivates every row.
	SelectRow(i int) error

	// ReadColumns fills cols with the active state of each column.
	ReadColumns(cols []bool) error

	// Close releases GPIO resources.
	Close() error
}

// Consumer is the label shown by gpioinfo for lines held by this process.
const Consumer = "sous-vide"
