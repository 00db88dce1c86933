package gpio

// RelayCommand is one call recorded by FakeRelays.
type RelayCommand struct {
	Relay string // "heater" or "pump"
	On    bool
}

// FakeRelays is a test double that records relay commands.
type FakeRelays struct {
	Heater bool
	Pump   bool

	// Commands contains every successful call in order.
	Commands []RelayCommand

	// SetError, if set, is returned by SetHeater and SetPump without
	// changing state.
	SetError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeRelays creates FakeRelays with both relays off.
func NewFakeRelays() *FakeRelays {
	return &FakeRelays{}
}

// SetHeater records the heater command.
func (f *FakeRelays) SetHeater(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.Heater = on
	f.Commands = append(f.Commands, RelayCommand{Relay: "heater", On: on})
	return nil
}

// SetPump records the pump command.
func (f *FakeRelays) SetPump(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.Pump = on
	f.Commands = append(f.Commands, RelayCommand{Relay: "pump", On: on})
	return nil
}

// Close switches both relays off and marks the fake closed.
func (f *FakeRelays) Close() error {
	f.Heater = false
	f.Pump = false
	f.Closed = true
	return nil
}

// FakeMatrix is a keypad matrix whose closed switches are set by tests.
type FakeMatrix struct {
	// Pressed holds [row, col] pairs currently closed.
	Pressed map[[2]int]bool

	selected int
	cols     int

	// ReadError, if set, is returned by ReadColumns.
	ReadError error

	Closed bool
}

// NewFakeMatrix creates an open matrix with the given column count.
func NewFakeMatrix(cols int) *FakeMatrix {
	return &FakeMatrix{Pressed: map[[2]int]bool{}, selected: -1, cols: cols}
}

// Press closes the switch at row, col.
func (f *FakeMatrix) Press(row, col int) {
	f.Pressed[[2]int{row, col}] = true
}

// ReleaseAll opens every switch.
func (f *FakeMatrix) ReleaseAll() {
	f.Pressed = map[[2]int]bool{}
}

// SelectRow records the active row.
func (f *FakeMatrix) SelectRow(i int) error {
	f.selected = i
	return nil
}

// ReadColumns reports closed switches on the selected row.
func (f *FakeMatrix) ReadColumns(cols []bool) error {
	if f.ReadError != nil {
		return f.ReadError
	}
	for c := range cols {
		cols[c] = f.selected >= 0 && c < f.cols && f.Pressed[[2]int{f.selected, c}]
	}
	return nil
}

// Close marks the matrix as closed.
func (f *FakeMatrix) Close() error {
	f.Closed = true
	return nil
}
