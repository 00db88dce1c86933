package sensor

import (
	"math"
	"sync"
	"time"
)

// Water bath model constants.
const (
	DefaultAmbientC    = 20.0
	DefaultHeatCPerSec = 0.02   // 1.2°C per minute with the heater on
	DefaultLossPerSec  = 0.0002 // fraction of the difference to ambient lost each second
)

// Simulated is a water bath that warms while its heater is on and drifts to
// ambient otherwise. It implements both Reader and the relay interface so a
// dry run closes the loop without hardware.
type Simulated struct {
	mu sync.Mutex

	now        func() time.Time
	last       time.Time
	tempC      float64
	heater     bool
	pump       bool
	ambientC   float64
	heatPerSec float64
	lossPerSec float64
}

// NewSimulated starts a bath at ambient temperature.
func NewSimulated(now func() time.Time) *Simulated {
	return &Simulated{
		now:        now,
		last:       now(),
		tempC:      DefaultAmbientC,
		ambientC:   DefaultAmbientC,
		heatPerSec: DefaultHeatCPerSec,
		lossPerSec: DefaultLossPerSec,
	}
}

// advance integrates the model up to the current time. Caller holds mu.
func (s *Simulated) advance() {
	t := s.now()
	dt := t.Sub(s.last).Seconds()
	s.last = t
	// Integrate in steps of at most one second so long gaps between reads
	// stay close to the continuous solution.
	for dt > 0 {
		step := math.Min(dt, 1)
		dt -= step
		if s.heater {
			s.tempC += s.heatPerSec * step
		}
		s.tempC = s.ambientC + (s.tempC-s.ambientC)*math.Exp(-s.lossPerSec*step)
	}
}

// ReadCelsius returns the bath temperature.
func (s *Simulated) ReadCelsius() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advance()
	return s.tempC, nil
}

// SetHeater switches the simulated heater.
func (s *Simulated) SetHeater(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advance()
	s.heater = on
	return nil
}

// SetPump records the pump state; circulation does not change the model.
func (s *Simulated) SetPump(on bool) error {
	s.mu.Lock()
	s.pump = on
	s.mu.Unlock()
	return nil
}

// Close switches the heater and pump off.
func (s *Simulated) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advance()
	s.heater = false
	s.pump = false
	return nil
}
