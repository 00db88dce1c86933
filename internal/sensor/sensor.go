// Package sensor reads the water temperature probe.
package sensor

import "errors"

// Reader returns the latest temperature in degrees Celsius.
type Reader interface {
	ReadCelsius() (float64, error)
}

// Read failures reported by the DS18B20 driver.
var (
	ErrCRC          = errors.New("ds18b20: crc check failed")
	ErrDisconnected = errors.New("ds18b20: device disconnected")
	ErrPowerOnReset = errors.New("ds18b20: power-on reset value")
	ErrNoDevice     = errors.New("ds18b20: no device found")
)

// DisconnectedC is the value the DS18B20 libraries report for a missing probe.
const DisconnectedC = -127.0
