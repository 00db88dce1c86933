//go:build linux

package gpio

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealRelays drives relay modules from GPIO output lines.
type RealRelays struct {
	chip   *gpiocdev.Chip
	heater *gpiocdev.Line
	pump   *gpiocdev.Line // nil when no pump is fitted
}

// NewRealRelays requests the heater line, and the pump line when pumpPin >= 0.
// With activeLow set, a relay is energized by driving its line low.
// Both relays start off.
func NewRealRelays(chipName string, heaterPin, pumpPin int, activeLow bool) (*RealRelays, error) {
	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer(Consumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	opts := []gpiocdev.LineReqOption{gpiocdev.AsOutput(0)}
	if activeLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}

	heater, err := chip.RequestLine(heaterPin, opts...)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request heater pin %d: %w", heaterPin, err)
	}

	r := &RealRelays{chip: chip, heater: heater}
	if pumpPin >= 0 {
		pump, err := chip.RequestLine(pumpPin, opts...)
		if err != nil {
			heater.Close()
			chip.Close()
			return nil, fmt.Errorf("request pump pin %d: %w", pumpPin, err)
		}
		r.pump = pump
	}
	return r, nil
}

// SetHeater switches the heater relay.
func (r *RealRelays) SetHeater(on bool) error {
	if err := r.heater.SetValue(boolToValue(on)); err != nil {
		return fmt.Errorf("set heater: %w", err)
	}
	return nil
}

// SetPump switches the pump relay. It is a no-op without a pump line.
func (r *RealRelays) SetPump(on bool) error {
	if r.pump == nil {
		return nil
	}
	if err := r.pump.SetValue(boolToValue(on)); err != nil {
		return fmt.Errorf("set pump: %w", err)
	}
	return nil
}

// Close switches both relays off before releasing the lines so the heater
// is never left energized by an exiting process.
func (r *RealRelays) Close() error {
	var errs []error

	if r.heater != nil {
		if err := r.heater.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("heater off: %w", err))
		}
		if err := r.heater.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close heater pin: %w", err))
		}
	}
	if r.pump != nil {
		if err := r.pump.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("pump off: %w", err))
		}
		if err := r.pump.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pump pin: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	return errors.Join(errs...)
}

// RealMatrix scans a keypad wired to GPIO: rows are driven low one at a time
// and columns are read with pull-ups, so both sets are active-low.
type RealMatrix struct {
	chip   *gpiocdev.Chip
	rows   *gpiocdev.Lines
	cols   *gpiocdev.Lines
	rowBuf []int
	colBuf []int
}

// NewRealMatrix requests the row and column lines.
func NewRealMatrix(chipName string, rowPins, colPins []int) (*RealMatrix, error) {
	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer(Consumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	rows, err := chip.RequestLines(rowPins, gpiocdev.AsOutput(make([]int, len(rowPins))...), gpiocdev.AsActiveLow)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request keypad rows %v: %w", rowPins, err)
	}

	cols, err := chip.RequestLines(colPins, gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.AsActiveLow)
	if err != nil {
		rows.Close()
		chip.Close()
		return nil, fmt.Errorf("request keypad columns %v: %w", colPins, err)
	}

	return &RealMatrix{
		chip:   chip,
		rows:   rows,
		cols:   cols,
		rowBuf: make([]int, len(rowPins)),
		colBuf: make([]int, len(colPins)),
	}, nil
}

// SelectRow drives row i active and every other row inactive.
func (m *RealMatrix) SelectRow(i int) error {
	for j := range m.rowBuf {
		m.rowBuf[j] = 0
		if j == i {
			m.rowBuf[j] = 1
		}
	}
	if err := m.rows.SetValues(m.rowBuf); err != nil {
		return fmt.Errorf("select keypad row %d: %w", i, err)
	}
	return nil
}

// ReadColumns samples the column lines.
func (m *RealMatrix) ReadColumns(cols []bool) error {
	if err := m.cols.Values(m.colBuf); err != nil {
		return fmt.Errorf("read keypad columns: %w", err)
	}
	for i := range cols {
		cols[i] = i < len(m.colBuf) && m.colBuf[i] == 1
	}
	return nil
}

// Close releases the keypad lines.
func (m *RealMatrix) Close() error {
	var errs []error
	if err := m.rows.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close keypad rows: %w", err))
	}
	if err := m.cols.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close keypad columns: %w", err))
	}
	if err := m.chip.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close chip: %w", err))
	}
	return errors.Join(errs...)
}

func boolToValue(on bool) int {
	if on {
		return 1
	}
	return 0
}
