package audio

import (
	"errors"
	"fmt"
)

var (
	// ErrDeviceNotFound is returned when a saved device preference no longer
	// matches anything in the current catalog.
	ErrDeviceNotFound = errors.New("audio device not found")
	// ErrDeviceUnavailable is returned when a device exists but cannot be
	// opened (in use, disconnected, unsupported format).
	ErrDeviceUnavailable = errors.New("audio device unavailable")
	// ErrSessionClosed is returned when a chunk is pushed to a closed session.
	ErrSessionClosed = errors.New("capture session closed")
)

// Device is a snapshot of one input endpoint at query time.
type Device struct {
	ID                int
	Name              string
	MaxInputChannels  int
	DefaultSampleRate float64
	Default           bool
}

// Format describes the stream format for one recording session. Samples are
// 16-bit signed PCM.
type Format struct {
	Channels   int
	SampleRate int
	BitDepth   int
}

// Host is the host audio subsystem: device enumeration plus stream open.
// Devices queries fresh on every call; callers needing a stable view must
// snapshot the result.
type Host interface {
	Devices() ([]Device, error)
	DefaultDevice() (Device, error)
	Open(device Device, format Format) (*Session, error)
	Close() error
}

type selectionKind int

const (
	selectDefault selectionKind = iota
	selectByID
	selectByName
)

// Selection is a device preference: a specific device by id or name, or the
// system default. It is resolved into a live Device once at start.
type Selection struct {
	kind selectionKind
	id   int
	name string
}

func SelectDefault() Selection { return Selection{kind: selectDefault} }

func SelectByID(id int) Selection { return Selection{kind: selectByID, id: id} }

func SelectByName(name string) Selection { return Selection{kind: selectByName, name: name} }

func (s Selection) String() string {
	switch s.kind {
	case selectByID:
		return fmt.Sprintf("device %d", s.id)
	case selectByName:
		return fmt.Sprintf("device %q", s.name)
	default:
		return "default device"
	}
}

// Resolve translates a persisted preference into a live device descriptor.
func Resolve(h Host, sel Selection) (Device, error) {
	if sel.kind == selectDefault {
		return h.DefaultDevice()
	}

	devices, err := h.Devices()
	if err != nil {
		return Device{}, fmt.Errorf("enumerate input devices: %w", err)
	}
	for _, d := range devices {
		if sel.kind == selectByID && d.ID == sel.id {
			return d, nil
		}
		if sel.kind == selectByName && d.Name == sel.name {
			return d, nil
		}
	}
	return Device{}, fmt.Errorf("%w: %s", ErrDeviceNotFound, sel)
}

// SessionFormat derives the stream format for one recording from the
// configured preferences and the device's capabilities. Channels are clamped
// to what the device can deliver; a missing sample rate falls back to the
// device default.
func SessionFormat(dev Device, channels, sampleRate int) Format {
	if channels < 1 {
		channels = 1
	}
	if dev.MaxInputChannels > 0 && channels > dev.MaxInputChannels {
		channels = dev.MaxInputChannels
	}
	if sampleRate <= 0 {
		sampleRate = int(dev.DefaultSampleRate)
	}
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	return Format{Channels: channels, SampleRate: sampleRate, BitDepth: 16}
}
