package sensor

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DS18B20 reads a probe through the Linux w1-therm driver, which exposes the
// scratchpad and the converted temperature in <w1_dir>/<id>/w1_slave.
type DS18B20 struct {
	path string
}

// NewDS18B20 opens the probe with the given 1-Wire id, or the first family
// 28 device in dir when id is empty.
func NewDS18B20(dir, id string) (*DS18B20, error) {
	if id == "" {
		matches, err := filepath.Glob(filepath.Join(dir, "28-*"))
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", dir, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("%w in %s", ErrNoDevice, dir)
		}
		id = filepath.Base(matches[0])
	}

	path := filepath.Join(dir, id, "w1_slave")
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open probe %s: %w", id, err)
	}
	return &DS18B20{path: path}, nil
}

// Path returns the sysfs file the probe is read from.
func (d *DS18B20) Path() string {
	return d.path
}

// ReadCelsius triggers a conversion and returns the result. Reading the
// file blocks for the conversion time (up to 750ms at 12-bit resolution).
func (d *DS18B20) ReadCelsius() (float64, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", d.path, err)
	}
	return parseW1Slave(string(data))
}

// parseW1Slave decodes the two-line w1_slave format:
//
//	72 01 4b 46 7f ff 0e 10 57 : crc=57 YES
//	72 01 4b 46 7f ff 0e 10 57 t=23125
func parseW1Slave(data string) (float64, error) {
	lines := strings.Split(strings.TrimSpace(data), "\n")
	if len(lines) < 2 {
		return 0, fmt.Errorf("ds18b20: short read (%d lines)", len(lines))
	}
	if !strings.HasSuffix(strings.TrimSpace(lines[0]), "YES") {
		return 0, ErrCRC
	}

	i := strings.LastIndex(lines[1], "t=")
	if i < 0 {
		return 0, fmt.Errorf("ds18b20: no temperature field")
	}
	milli, err := strconv.Atoi(strings.TrimSpace(lines[1][i+2:]))
	if err != nil {
		return 0, fmt.Errorf("ds18b20: parse temperature: %w", err)
	}
	c := float64(milli) / 1000

	if c <= DisconnectedC {
		return 0, ErrDisconnected
	}
	// 85°C is a legal reading; it is only the reset value when the
	// scratchpad still holds the power-on contents 0x0550.
	if milli == 85000 && strings.HasPrefix(lines[1], "50 05 ") {
		return 0, ErrPowerOnReset
	}
	return c, nil
}
