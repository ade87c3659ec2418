package audio

import (
	"errors"
	"testing"
	"time"
)

func TestSessionAccumulatesChunks(t *testing.T) {
	released := 0
	format := Format{Channels: 1, SampleRate: 44100, BitDepth: 16}
	session := NewSession(format, 8, func() error {
		released++
		return nil
	})

	// 4 chunks of half a second of silence each.
	for i := 0; i < 4; i++ {
		if err := session.Push(make([]int16, 22050)); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
	}

	buf, err := session.Close()
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if buf.Chunks() != 4 {
		t.Errorf("expected 4 chunks, got %d", buf.Chunks())
	}
	if buf.Frames() != 88200 {
		t.Errorf("expected 88200 frames, got %d", buf.Frames())
	}
	if buf.Duration() != 2*time.Second {
		t.Errorf("expected 2s, got %v", buf.Duration())
	}
	if released != 1 {
		t.Errorf("expected the stream released once, got %d", released)
	}
}

func TestSessionCloseIdempotent(t *testing.T) {
	released := 0
	session := NewSession(Format{Channels: 1, SampleRate: 44100, BitDepth: 16}, 8, func() error {
		released++
		return nil
	})
	if err := session.Push(make([]int16, 1024)); err != nil {
		t.Fatalf("push: %v", err)
	}

	first, err := session.Close()
	if err != nil {
		t.Fatalf("first close: %v", err)
	}
	second, err := session.Close()
	if err != nil {
		t.Fatalf("second close: %v", err)
	}
	if first != second {
		t.Error("expected both closes to return the same buffer snapshot")
	}
	if released != 1 {
		t.Errorf("expected the stream released once, got %d", released)
	}
}

func TestSessionPushAfterClose(t *testing.T) {
	session := NewSession(Format{Channels: 1, SampleRate: 44100, BitDepth: 16}, 8, nil)
	if _, err := session.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := session.Push(make([]int16, 8)); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
}

func TestSessionCleanCloseDeliversNilFault(t *testing.T) {
	session := NewSession(Format{Channels: 1, SampleRate: 44100, BitDepth: 16}, 8, nil)
	if _, err := session.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	select {
	case err := <-session.Failed():
		if err != nil {
			t.Fatalf("expected nil fault after clean close, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("fault channel not released after clean close")
	}
}

func TestSessionFail(t *testing.T) {
	session := NewSession(Format{Channels: 1, SampleRate: 44100, BitDepth: 16}, 8, nil)

	fault := errors.New("device disconnected")
	session.Fail(fault)
	session.Fail(errors.New("later fault is dropped"))

	select {
	case err := <-session.Failed():
		if !errors.Is(err, fault) {
			t.Fatalf("expected the first fault, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("fault never delivered")
	}
	if !errors.Is(session.Err(), fault) {
		t.Fatalf("expected Err to report the fault, got %v", session.Err())
	}
	if err := session.Push(make([]int16, 8)); !errors.Is(err, fault) {
		t.Fatalf("expected pushes after a fault to be rejected, got %v", err)
	}

	// The captured buffer survives the fault, and Close only reports
	// release errors; callers check Err for the fault afterwards.
	if _, err := session.Close(); err != nil {
		t.Fatalf("close after fault: %v", err)
	}
	if !errors.Is(session.Err(), fault) {
		t.Fatalf("expected Err to keep reporting the fault after close, got %v", session.Err())
	}
}

// The drain goroutine is deliberately not started here so the queue cannot
// empty underneath the test.
func TestSessionQueueOverrunIsAFault(t *testing.T) {
	session := &Session{
		queue:   make(chan []int16, 1),
		buf:     NewBuffer(Format{Channels: 1, SampleRate: 44100, BitDepth: 16}),
		failCh:  make(chan error, 1),
		drained: make(chan struct{}),
	}

	if err := session.Push(make([]int16, 8)); err != nil {
		t.Fatalf("first push should fit the queue: %v", err)
	}
	err := session.Push(make([]int16, 8))
	if err == nil {
		t.Fatal("expected an overrun error, chunks must never be dropped silently")
	}
	select {
	case got := <-session.Failed():
		if !errors.Is(got, err) {
			t.Fatalf("expected the overrun fault on Failed, got %v", got)
		}
	default:
		t.Fatal("overrun fault not delivered")
	}
}
