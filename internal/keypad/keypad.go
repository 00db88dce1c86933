// Package keypad turns operator key presses into single key events.
package keypad

// Source yields at most one key per Poll. Poll never blocks; ok is false
// when no new key has been pressed since the last call.
type Source interface {
	Poll() (key rune, ok bool, err error)
	Close() error
}
