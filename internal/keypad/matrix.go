package keypad

import (
	"fmt"

	"github.com/jjroth89/sous-vide/internal/gpio"
)

// DefaultKeymap is the layout of the common 4x4 membrane keypad.
var DefaultKeymap = []string{"123A", "456B", "789C", "*0#D"}

// DefaultStableScans is how many consecutive scans must agree before a
// press is reported.
const DefaultStableScans = 2

// Matrix scans a keypad matrix and reports each press once, on the scan
// where it becomes stable. Holding a key does not repeat it, and the key is
// only released after stableScans consecutive open scans.
type Matrix struct {
	lines  gpio.Matrix
	keymap [][]rune
	cols   []bool

	stableScans int
	seen        rune // key observed on the previous scan, 0 for none
	seenCount   int
	down        rune // last reported key, 0 once released
}

// NewMatrix wraps lines with the given keymap (one string per row).
func NewMatrix(lines gpio.Matrix, keymap []string, stableScans int) (*Matrix, error) {
	if len(keymap) == 0 {
		return nil, fmt.Errorf("keypad: empty keymap")
	}
	rows := make([][]rune, len(keymap))
	for i, row := range keymap {
		rows[i] = []rune(row)
		if len(rows[i]) != len(rows[0]) {
			return nil, fmt.Errorf("keypad: keymap row %d has %d keys, want %d", i, len(rows[i]), len(rows[0]))
		}
	}
	if stableScans < 1 {
		stableScans = DefaultStableScans
	}
	return &Matrix{
		lines:       lines,
		keymap:      rows,
		cols:        make([]bool, len(rows[0])),
		stableScans: stableScans,
	}, nil
}

// Poll scans every row once and returns a newly stable key press.
func (m *Matrix) Poll() (rune, bool, error) {
	key, err := m.scan()
	if err != nil {
		return 0, false, err
	}

	if key != m.seen {
		m.seen = key
		m.seenCount = 1
	} else if m.seenCount < m.stableScans {
		m.seenCount++
	}
	if m.seenCount < m.stableScans {
		return 0, false, nil
	}

	if key == 0 {
		m.down = 0
		return 0, false, nil
	}
	if key == m.down {
		return 0, false, nil
	}
	m.down = key
	return key, true, nil
}

// scan returns the first closed key in row-major order, or 0.
func (m *Matrix) scan() (rune, error) {
	defer m.lines.SelectRow(-1)

	for r, row := range m.keymap {
		if err := m.lines.SelectRow(r); err != nil {
			return 0, err
		}
		if err := m.lines.ReadColumns(m.cols); err != nil {
			return 0, err
		}
		for c, closed := range m.cols {
			if closed {
				return row[c], nil
			}
		}
	}
	return 0, nil
}

// Close releases the matrix lines.
func (m *Matrix) Close() error {
	return m.lines.Close()
}
