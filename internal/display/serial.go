package display

import (
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/jjroth89/sous-vide/internal/logger"
)

const (
	serialQueueSize    = 64
	serialReopenPeriod = 30 * time.Second
)

// Serial writes lines to a serial-attached character display or terminal.
// Lines are queued and written by a background goroutine; when the queue is
// full new lines are dropped. Write errors close the port, which is reopened
// on a later line.
type Serial struct {
	open  func() (io.WriteCloser, error)
	log   *logger.Logger
	now   func() time.Time
	lines chan string
	done  chan struct{}

	mu      sync.Mutex
	dropped int

	port        io.WriteCloser
	lastAttempt time.Time
}

// NewSerial opens name at baud. A port that cannot be opened now is retried
// in the background, so a missing display does not stop the daemon.
func NewSerial(name string, baud int, log *logger.Logger) *Serial {
	open := func() (io.WriteCloser, error) {
		p, err := serial.Open(name, &serial.Mode{BaudRate: baud})
		if err != nil {
			return nil, fmt.Errorf("open serial display %s: %w", name, err)
		}
		return p, nil
	}
	return newSerial(open, log, time.Now)
}

func newSerial(open func() (io.WriteCloser, error), log *logger.Logger, now func() time.Time) *Serial {
	s := &Serial{
		open:  open,
		log:   log,
		now:   now,
		lines: make(chan string, serialQueueSize),
		done:  make(chan struct{}),
	}
	go s.run()
	return s
}

// Emit queues line for writing.
func (s *Serial) Emit(line string) {
	select {
	case s.lines <- line:
	default:
		s.mu.Lock()
		s.dropped++
		s.mu.Unlock()
	}
}

// Dropped returns how many lines were discarded because the queue was full.
func (s *Serial) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (s *Serial) run() {
	defer close(s.done)
	for line := range s.lines {
		s.write(line)
	}
	if s.port != nil {
		s.port.Close()
	}
}

func (s *Serial) write(line string) {
	if s.port == nil {
		if !s.lastAttempt.IsZero() && s.now().Sub(s.lastAttempt) < serialReopenPeriod {
			return
		}
		s.lastAttempt = s.now()
		p, err := s.open()
		if err != nil {
			s.log.Warnw("serial display unavailable", "err", err)
			return
		}
		s.port = p
	}

	if _, err := io.WriteString(s.port, line+"\r\n"); err != nil {
		s.log.Warnw("serial display write failed", "err", err)
		s.port.Close()
		s.port = nil
		s.lastAttempt = s.now()
	}
}

// Close flushes queued lines and closes the port.
func (s *Serial) Close() error {
	close(s.lines)
	<-s.done
	return nil
}
