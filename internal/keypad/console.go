package keypad

import (
	"fmt"
	"io"
	"os"
	"unicode"

	"golang.org/x/term"
)

const (
	ctrlC = 0x03
	ctrlD = 0x04
)

// Console reads single key strokes from a terminal, for bench testing
// without a keypad. Ctrl-C and Ctrl-D call the interrupt callback since raw
// mode stops the terminal from raising SIGINT.
type Console struct {
	keys      chan rune
	interrupt func()

	fd       int
	oldState *term.State
}

// NewConsole puts f into raw mode (when it is a terminal) and starts reading.
func NewConsole(f *os.File, interrupt func()) (*Console, error) {
	fd := int(f.Fd())
	var old *term.State
	if term.IsTerminal(fd) {
		s, err := term.MakeRaw(fd)
		if err != nil {
			return nil, fmt.Errorf("console raw mode: %w", err)
		}
		old = s
	}
	c := newConsole(f, interrupt)
	c.fd = fd
	c.oldState = old
	return c, nil
}

func newConsole(r io.Reader, interrupt func()) *Console {
	c := &Console{
		keys:      make(chan rune, 16),
		interrupt: interrupt,
	}
	go c.read(r)
	return c
}

func (c *Console) read(r io.Reader) {
	defer close(c.keys)

	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if err != nil {
			return
		}
		if n == 0 {
			continue
		}
		b := buf[0]
		if b == ctrlC || b == ctrlD {
			if c.interrupt != nil {
				c.interrupt()
			}
			continue
		}
		select {
		case c.keys <- unicode.ToUpper(rune(b)):
		default:
			// Operator typed faster than the loop polls; drop the key.
		}
	}
}

// Poll returns the next typed key without blocking. After the input is
// closed it returns io.EOF.
func (c *Console) Poll() (rune, bool, error) {
	select {
	case k, ok := <-c.keys:
		if !ok {
			return 0, false, io.EOF
		}
		return k, true, nil
	default:
		return 0, false, nil
	}
}

// Close restores the terminal state.
func (c *Console) Close() error {
	if c.oldState == nil {
		return nil
	}
	return term.Restore(c.fd, c.oldState)
}
