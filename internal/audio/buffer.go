package audio

import "time"

// Buffer accumulates the raw chunks of one recording session in capture
// order. It is append-only while the session runs and read-once at flush;
// the owning session is the only writer.
type Buffer struct {
	format Format
	chunks [][]int16
	frames int
}

func NewBuffer(format Format) *Buffer {
	return &Buffer{format: format}
}

// AppendChunk adds one interleaved chunk of samples.
func (b *Buffer) AppendChunk(chunk []int16) {
	b.chunks = append(b.chunks, chunk)
	channels := b.format.Channels
	if channels < 1 {
		channels = 1
	}
	b.frames += len(chunk) / channels
}

func (b *Buffer) Format() Format { return b.format }

// Frames reports the number of sample frames captured (one frame spans all
// channels).
func (b *Buffer) Frames() int { return b.frames }

func (b *Buffer) Chunks() int { return len(b.chunks) }

func (b *Buffer) Duration() time.Duration {
	if b.format.SampleRate <= 0 {
		return 0
	}
	return time.Duration(b.frames) * time.Second / time.Duration(b.format.SampleRate)
}

// Samples flattens the buffer into a single interleaved sample slice for
// encoding.
func (b *Buffer) Samples() []int {
	total := 0
	for _, c := range b.chunks {
		total += len(c)
	}
	out := make([]int, 0, total)
	for _, c := range b.chunks {
		for _, s := range c {
			out = append(out, int(s))
		}
	}
	return out
}
