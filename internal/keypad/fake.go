package keypad

// FakeSource returns scripted keys, one per Poll. A zero rune in Keys
// means "no key on this poll".
type FakeSource struct {
	Keys  []rune
	index int

	// PollError, if set, is returned by Poll.
	PollError error

	Closed bool
}

// NewFakeSource scripts the runes of keys.
func NewFakeSource(keys string) *FakeSource {
	return &FakeSource{Keys: []rune(keys)}
}

// Push appends keys to the script.
func (f *FakeSource) Push(keys string) {
	f.Keys = append(f.Keys, []rune(keys)...)
}

// Poll returns the next scripted key.
func (f *FakeSource) Poll() (rune, bool, error) {
	if f.PollError != nil {
		return 0, false, f.PollError
	}
	if f.index >= len(f.Keys) {
		return 0, false, nil
	}
	k := f.Keys[f.index]
	f.index++
	if k == 0 {
		return 0, false, nil
	}
	return k, true, nil
}

// Close marks the source closed.
func (f *FakeSource) Close() error {
	f.Closed = true
	return nil
}
