package audio

import (
	"fmt"
	"sync"
)

// Session owns one open input stream. The capture context pushes chunks onto
// a bounded queue which a drain goroutine appends to the session's buffer,
// so hardware timing never waits on accumulation. A full queue or a stream
// read error is a fault, never a silent gap: it is delivered on Failed and
// further delivery stops.
type Session struct {
	queue   chan []int16
	buf     *Buffer
	failCh  chan error
	drained chan struct{}
	release func() error

	mu     sync.Mutex
	closed bool
	err    error
}

// NewSession builds a session draining into a fresh buffer. queueDepth bounds
// how far capture may run ahead of accumulation; release, if non-nil, is
// invoked once on close to give the hardware stream back.
func NewSession(format Format, queueDepth int, release func() error) *Session {
	if queueDepth < 1 {
		queueDepth = 1
	}
	s := &Session{
		queue:   make(chan []int16, queueDepth),
		buf:     NewBuffer(format),
		failCh:  make(chan error, 1),
		drained: make(chan struct{}),
		release: release,
	}
	go s.drain()
	return s
}

func (s *Session) drain() {
	defer close(s.drained)
	for chunk := range s.queue {
		s.buf.AppendChunk(chunk)
	}
}

// Push hands one captured chunk to the session. It never blocks the capture
// context: if the queue is full the session fails instead of dropping data.
func (s *Session) Push(chunk []int16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if s.err != nil {
		return s.err
	}
	select {
	case s.queue <- chunk:
		return nil
	default:
		err := fmt.Errorf("capture queue overrun (depth %d)", cap(s.queue))
		s.failLocked(err)
		return err
	}
}

// Fail marks the session faulted, e.g. on a stream read error or device
// disconnect. Only the first fault is kept.
func (s *Session) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failLocked(err)
}

func (s *Session) failLocked(err error) {
	if s.closed || s.err != nil {
		return
	}
	s.err = err
	s.failCh <- err
}

// Failed delivers the session's fault. A clean close delivers nil.
func (s *Session) Failed() <-chan error { return s.failCh }

func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close stops frame delivery, releases the hardware stream, and returns the
// complete buffer. Idempotent: closing again returns the same buffer, so
// duplicate stop requests from the UI are harmless.
func (s *Session) Close() (*Buffer, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.drained
		return s.buf, nil
	}
	s.closed = true
	close(s.queue)
	if s.err == nil {
		close(s.failCh)
	}
	s.mu.Unlock()

	<-s.drained

	var err error
	if s.release != nil {
		err = s.release()
	}
	return s.buf, err
}
