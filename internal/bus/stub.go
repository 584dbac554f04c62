package bus

import (
	"errors"
	"sync"
	"time"

	"github.com/relabs-tech/imu_gesture/internal/shtp"
)

// Stub is an in-memory byte channel. Bytes queued with Inject are handed
// out by Read; everything written is logged and, for a loopback, queued
// for reading as well.
type Stub struct {
	mu       sync.Mutex
	rx       []byte
	tx       [][]byte
	echo     bool
	closed   bool
	writeErr error
	notify   chan struct{}

	// Chunk caps how many bytes a single Read returns and WriteCap how
	// many a single Write accepts. Zero means no cap.
	Chunk    int
	WriteCap int
}

func NewStub() *Stub {
	return &Stub{notify: make(chan struct{}, 1)}
}

// NewLoopback returns a stub whose writes come back on Read.
func NewLoopback() *Stub {
	s := NewStub()
	s.echo = true
	return s
}

// Inject queues bytes for Read.
func (s *Stub) Inject(p []byte) {
	s.mu.Lock()
	s.rx = append(s.rx, p...)
	s.mu.Unlock()
	s.wake()
}

// Written returns a copy of every buffer passed to Write, in order.
func (s *Stub) Written() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.tx))
	for i, b := range s.tx {
		out[i] = append([]byte(nil), b...)
	}
	return out
}

// Pending is the number of injected bytes not yet read.
func (s *Stub) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rx)
}

// FailWrites makes every following Write return err. nil clears it.
func (s *Stub) FailWrites(err error) {
	s.mu.Lock()
	s.writeErr = err
	s.mu.Unlock()
}

func (s *Stub) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Stub) Read(p []byte, deadline time.Time) (int, error) {
	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return 0, shtp.ErrNotOpen
		}
		if len(s.rx) > 0 {
			q := p
			if s.Chunk > 0 && len(q) > s.Chunk {
				q = q[:s.Chunk]
			}
			n := copy(q, s.rx)
			s.rx = s.rx[n:]
			s.mu.Unlock()
			return n, nil
		}
		s.mu.Unlock()

		wait := time.Until(deadline)
		if wait <= 0 {
			return 0, nil
		}
		timer := time.NewTimer(wait)
		select {
		case <-s.notify:
			timer.Stop()
		case <-timer.C:
			return 0, nil
		}
	}
}

func (s *Stub) Write(p []byte) (int, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, shtp.ErrNotOpen
	}
	if s.writeErr != nil {
		err := s.writeErr
		s.mu.Unlock()
		return 0, err
	}
	if s.WriteCap > 0 && len(p) > s.WriteCap {
		p = p[:s.WriteCap]
	}
	s.tx = append(s.tx, append([]byte(nil), p...))
	if s.echo {
		s.rx = append(s.rx, p...)
	}
	s.mu.Unlock()
	if s.echo {
		s.wake()
	}
	return len(p), nil
}

func (s *Stub) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("bus: stub already closed")
	}
	s.closed = true
	return nil
}
