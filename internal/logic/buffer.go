package logic

import (
	"errors"
	"strconv"
)

// errEmptyBuffer is returned by Take when there is nothing to parse.
var errEmptyBuffer = errors.New("input buffer is empty")

// InputBuffer collects operator digits up to a fixed capacity.
// Digits typed while full are dropped.
type InputBuffer struct {
	digits   []byte
	capacity int
}

// NewInputBuffer creates an empty buffer holding at most capacity digits.
func NewInputBuffer(capacity int) *InputBuffer {
	return &InputBuffer{
		digits:   make([]byte, 0, capacity),
		capacity: capacity,
	}
}

// Append adds a digit. It reports false when the key is not a digit or the
// buffer is full.
func (b *InputBuffer) Append(key rune) bool {
	if key < '0' || key > '9' {
		return false
	}
	if len(b.digits) >= b.capacity {
		return false
	}
	b.digits = append(b.digits, byte(key))
	return true
}

// Take parses the buffered digits as a base-10 integer and clears the buffer.
// An empty buffer is left untouched and returns errEmptyBuffer.
func (b *InputBuffer) Take() (int, error) {
	if len(b.digits) == 0 {
		return 0, errEmptyBuffer
	}
	s := string(b.digits)
	b.Clear()
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Clear empties the buffer.
func (b *InputBuffer) Clear() {
	b.digits = b.digits[:0]
}

// Len returns the number of buffered digits.
func (b *InputBuffer) Len() int {
	return len(b.digits)
}

// String returns the buffered digits.
func (b *InputBuffer) String() string {
	return string(b.digits)
}
