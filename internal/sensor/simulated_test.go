package sensor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stepClock struct{ t time.Time }

func (c *stepClock) now() time.Time { return c.t }

func TestSimulatedHeatsAndCools(t *testing.T) {
	clk := &stepClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewSimulated(clk.now)

	c, err := s.ReadCelsius()
	require.NoError(t, err)
	assert.Equal(t, DefaultAmbientC, c)

	require.NoError(t, s.SetHeater(true))
	clk.t = clk.t.Add(10 * time.Minute)
	hot, _ := s.ReadCelsius()
	assert.Greater(t, hot, 30.0, "ten minutes of heating")

	require.NoError(t, s.SetHeater(false))
	clk.t = clk.t.Add(10 * time.Minute)
	cooled, _ := s.ReadCelsius()
	assert.Less(t, cooled, hot)
	assert.Greater(t, cooled, DefaultAmbientC)
}

func TestSimulatedReachesSousVideRange(t *testing.T) {
	clk := &stepClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewSimulated(clk.now)
	require.NoError(t, s.SetHeater(true))

	clk.t = clk.t.Add(2 * time.Hour)
	c, _ := s.ReadCelsius()
	assert.Greater(t, c, 70.0)
}

func TestSimulatedCloseStopsHeater(t *testing.T) {
	clk := &stepClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewSimulated(clk.now)
	s.SetHeater(true)
	s.SetPump(true)
	require.NoError(t, s.Close())

	before, _ := s.ReadCelsius()
	clk.t = clk.t.Add(time.Hour)
	after, _ := s.ReadCelsius()
	assert.LessOrEqual(t, after, before)
}

func TestFakeReader(t *testing.T) {
	f := NewFakeReader(20, 30)
	f.Push(Reading{Err: ErrCRC})

	c, err := f.ReadCelsius()
	assert.NoError(t, err)
	assert.Equal(t, 20.0, c)
	c, _ = f.ReadCelsius()
	assert.Equal(t, 30.0, c)
	_, err = f.ReadCelsius()
	assert.ErrorIs(t, err, ErrCRC)
	_, err = f.ReadCelsius()
	assert.ErrorIs(t, err, ErrCRC, "last reading repeats")
	assert.Equal(t, 4, f.Calls)

	_, err = (&FakeReader{}).ReadCelsius()
	assert.ErrorIs(t, err, ErrNoDevice)
}
