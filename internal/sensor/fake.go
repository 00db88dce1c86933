package sensor

// Reading is one scripted sensor result.
type Reading struct {
	C   float64
	Err error
}

// FakeReader returns scripted readings. After the script is exhausted the
// last reading repeats.
type FakeReader struct {
	Readings []Reading
	index    int
	Calls    int
}

// NewFakeReader scripts successful readings.
func NewFakeReader(temps ...float64) *FakeReader {
	f := &FakeReader{}
	for _, c := range temps {
		f.Readings = append(f.Readings, Reading{C: c})
	}
	return f
}

// Push appends readings to the script.
func (f *FakeReader) Push(r ...Reading) {
	f.Readings = append(f.Readings, r...)
}

// ReadCelsius returns the next scripted reading.
func (f *FakeReader) ReadCelsius() (float64, error) {
	f.Calls++
	if len(f.Readings) == 0 {
		return 0, ErrNoDevice
	}
	r := f.Readings[f.index]
	if f.index < len(f.Readings)-1 {
		f.index++
	}
	return r.C, r.Err
}
