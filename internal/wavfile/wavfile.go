// Package wavfile writes finished recordings as WAV containers. Writes go to
// a temporary file and are renamed into place, so a crash mid-write never
// leaves a corrupt file at the final path.
package wavfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/recordist/meeting-tray/internal/audio"
)

// Writer confines all output beneath a single directory.
type Writer struct {
	Dir string
}

// Write encodes the buffer under the given file name and returns the final
// path. Names that would escape the directory are rejected.
func (w Writer) Write(name string, format audio.Format, buf *audio.Buffer) (string, error) {
	path, err := w.resolve(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(w.Dir, ".recording-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if err := encode(tmp, format, buf); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("rename into place: %w", err)
	}
	return path, nil
}

// resolve joins name under Dir and rejects traversal outside it. This is a
// security boundary, not a convenience check.
func (w Writer) resolve(name string) (string, error) {
	if name == "" || filepath.IsAbs(name) {
		return "", fmt.Errorf("invalid output name %q", name)
	}
	path := filepath.Join(w.Dir, name)
	rel, err := filepath.Rel(w.Dir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("output name %q escapes %s", name, w.Dir)
	}
	return path, nil
}

func encode(f *os.File, format audio.Format, buf *audio.Buffer) error {
	enc := wav.NewEncoder(f, format.SampleRate, format.BitDepth, format.Channels, 1)
	ib := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: format.Channels,
			SampleRate:  format.SampleRate,
		},
		Data:           buf.Samples(),
		SourceBitDepth: format.BitDepth,
	}
	if err := enc.Write(ib); err != nil {
		enc.Close()
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}

// Decode reads a WAV file back as its header format and interleaved samples.
func Decode(path string) (audio.Format, []int, error) {
	f, err := os.Open(path)
	if err != nil {
		return audio.Format{}, nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return audio.Format{}, nil, fmt.Errorf("decode %s: %w", path, err)
	}
	format := audio.Format{
		Channels:   int(dec.NumChans),
		SampleRate: int(dec.SampleRate),
		BitDepth:   int(dec.BitDepth),
	}
	return format, pcm.Data, nil
}
