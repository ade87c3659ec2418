package audio

import (
	"testing"
	"time"
)

func TestBufferAccumulatesInOrder(t *testing.T) {
	buf := NewBuffer(Format{Channels: 1, SampleRate: 4, BitDepth: 16})
	buf.AppendChunk([]int16{1, 2})
	buf.AppendChunk([]int16{3, 4})

	if buf.Chunks() != 2 {
		t.Errorf("expected 2 chunks, got %d", buf.Chunks())
	}
	if buf.Frames() != 4 {
		t.Errorf("expected 4 frames, got %d", buf.Frames())
	}
	if buf.Duration() != time.Second {
		t.Errorf("expected 1s, got %v", buf.Duration())
	}

	samples := buf.Samples()
	want := []int{1, 2, 3, 4}
	if len(samples) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(samples))
	}
	for i := range want {
		if samples[i] != want[i] {
			t.Errorf("sample %d: expected %d, got %d", i, want[i], samples[i])
		}
	}
}

func TestBufferFramesSpanChannels(t *testing.T) {
	buf := NewBuffer(Format{Channels: 2, SampleRate: 44100, BitDepth: 16})
	buf.AppendChunk(make([]int16, 2048))

	if buf.Frames() != 1024 {
		t.Errorf("expected 1024 frames from an interleaved stereo chunk, got %d", buf.Frames())
	}
}
