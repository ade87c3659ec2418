package wavfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/recordist/meeting-tray/internal/audio"
)

func TestWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	format := audio.Format{Channels: 1, SampleRate: 44100, BitDepth: 16}

	buf := audio.NewBuffer(format)
	chunk := make([]int16, 1024)
	for i := range chunk {
		chunk[i] = int16(i - 512)
	}
	buf.AppendChunk(chunk)
	buf.AppendChunk(chunk)

	path, err := Writer{Dir: dir}.Write("recording.wav", format, buf)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if path != filepath.Join(dir, "recording.wav") {
		t.Errorf("unexpected path %s", path)
	}

	gotFormat, samples, err := Decode(path)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if gotFormat != format {
		t.Errorf("header mismatch: expected %+v, got %+v", format, gotFormat)
	}
	want := buf.Samples()
	if len(samples) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(samples))
	}
	for i := range want {
		if samples[i] != want[i] {
			t.Fatalf("sample %d: expected %d, got %d", i, want[i], samples[i])
		}
	}

	// No temp file may survive a successful write.
	leftovers, _ := filepath.Glob(filepath.Join(dir, ".recording-*.tmp"))
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
}

func TestWriteTwoSecondsOfSilence(t *testing.T) {
	dir := t.TempDir()
	format := audio.Format{Channels: 1, SampleRate: 44100, BitDepth: 16}
	buf := audio.NewBuffer(format)
	for i := 0; i < 4; i++ {
		buf.AppendChunk(make([]int16, 22050))
	}

	path, err := Writer{Dir: dir}.Write("silence.wav", format, buf)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	gotFormat, samples, err := Decode(path)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if gotFormat.Channels != 1 || gotFormat.SampleRate != 44100 {
		t.Errorf("unexpected header %+v", gotFormat)
	}
	seconds := float64(len(samples)) / float64(gotFormat.Channels) / float64(gotFormat.SampleRate)
	if seconds < 1.99 || seconds > 2.01 {
		t.Errorf("expected ~2.0s of audio, got %.3fs", seconds)
	}
}

func TestWriteRejectsTraversal(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "transcripts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	format := audio.Format{Channels: 1, SampleRate: 44100, BitDepth: 16}
	buf := audio.NewBuffer(format)
	buf.AppendChunk(make([]int16, 8))

	for _, name := range []string{"../escape.wav", "", "/abs/escape.wav"} {
		if _, err := (Writer{Dir: dir}).Write(name, format, buf); err == nil {
			t.Errorf("expected %q to be rejected", name)
		}
	}
	if _, err := os.Stat(filepath.Join(base, "escape.wav")); !os.IsNotExist(err) {
		t.Error("traversal write left a file outside the output dir")
	}
}

func TestWriteFailureLeavesNoFile(t *testing.T) {
	base := t.TempDir()
	// A file where the output dir should be forces the write to fail.
	blocked := filepath.Join(base, "out")
	if err := os.WriteFile(blocked, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	format := audio.Format{Channels: 1, SampleRate: 44100, BitDepth: 16}
	buf := audio.NewBuffer(format)
	buf.AppendChunk(make([]int16, 8))

	if _, err := (Writer{Dir: blocked}).Write("recording.wav", format, buf); err == nil {
		t.Fatal("expected write to fail")
	}
	if _, err := os.Stat(filepath.Join(blocked, "recording.wav")); !os.IsNotExist(err) {
		t.Error("failed write left a file at the output path")
	}
}
