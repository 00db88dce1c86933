package keypad

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// waitKey polls until a key arrives or the deadline passes.
func waitKey(t *testing.T, c *Console) (rune, error) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		k, ok, err := c.Poll()
		if err != nil || ok {
			return k, err
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timed out waiting for key")
	return 0, nil
}

func TestConsoleDeliversKeys(t *testing.T) {
	c := newConsole(strings.NewReader("6a#"), nil)

	var got []rune
	for i := 0; i < 3; i++ {
		k, err := waitKey(t, c)
		require.NoError(t, err)
		got = append(got, k)
	}
	assert.Equal(t, []rune{'6', 'A', '#'}, got)

	_, err := waitKey(t, c)
	assert.ErrorIs(t, err, io.EOF)
	assert.NoError(t, c.Close())
}

func TestConsoleInterrupt(t *testing.T) {
	interrupted := make(chan struct{}, 1)
	c := newConsole(strings.NewReader("\x03*"), func() { interrupted <- struct{}{} })

	k, err := waitKey(t, c)
	require.NoError(t, err)
	assert.Equal(t, '*', k, "Ctrl-C must not be delivered as a key")

	select {
	case <-interrupted:
	case <-time.After(time.Second):
		t.Fatal("interrupt callback not called")
	}
}

func TestFakeSource(t *testing.T) {
	f := NewFakeSource("1\x002")

	k, ok, _ := f.Poll()
	assert.True(t, ok)
	assert.Equal(t, '1', k)

	_, ok, _ = f.Poll()
	assert.False(t, ok, "zero rune is an empty poll")

	k, ok, _ = f.Poll()
	assert.True(t, ok)
	assert.Equal(t, '2', k)

	_, ok, _ = f.Poll()
	assert.False(t, ok, "exhausted script")

	f.Push("#")
	k, ok, _ = f.Poll()
	assert.True(t, ok)
	assert.Equal(t, '#', k)
}
