package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

const (
	// chunkFrames is the number of sample frames delivered per chunk.
	chunkFrames = 1024
	// queueDepth bounds the capture queue; at 44100 Hz this is over a second
	// of headroom before accumulation falling behind counts as a fault.
	queueDepth = 64
)

type portAudioHost struct{}

// NewHost initializes PortAudio and returns a Host backed by it.
func NewHost() (Host, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}
	return &portAudioHost{}, nil
}

func (h *portAudioHost) Devices() ([]Device, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}
	def, _ := portaudio.DefaultInputDevice()

	result := make([]Device, 0, len(infos))
	for _, info := range infos {
		if info.MaxInputChannels > 0 {
			result = append(result, descriptor(info, info == def))
		}
	}
	return result, nil
}

func (h *portAudioHost) DefaultDevice() (Device, error) {
	info, err := portaudio.DefaultInputDevice()
	if err != nil {
		return Device{}, fmt.Errorf("default input device: %w", err)
	}
	return descriptor(info, true), nil
}

func (h *portAudioHost) Open(dev Device, format Format) (*Session, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}
	var info *portaudio.DeviceInfo
	for _, candidate := range infos {
		if candidate.Index == dev.ID {
			info = candidate
			break
		}
	}
	if info == nil {
		return nil, fmt.Errorf("%w: %s disconnected", ErrDeviceUnavailable, dev.Name)
	}

	in := make([]int16, chunkFrames*format.Channels)
	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   info,
			Channels: format.Channels,
			Latency:  info.DefaultLowInputLatency,
		},
		SampleRate:      float64(format.SampleRate),
		FramesPerBuffer: chunkFrames,
	}, in)
	if err != nil {
		return nil, fmt.Errorf("%w: open stream for %s: %v", ErrDeviceUnavailable, dev.Name, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("%w: start stream for %s: %v", ErrDeviceUnavailable, dev.Name, err)
	}

	session := NewSession(format, queueDepth, func() error {
		stream.Stop()
		return stream.Close()
	})
	go readLoop(stream, in, session)
	return session, nil
}

func (h *portAudioHost) Close() error {
	return portaudio.Terminate()
}

// readLoop is the capture context: it pulls fixed-size chunks from the
// hardware stream until the session closes or the stream faults.
func readLoop(stream *portaudio.Stream, in []int16, session *Session) {
	for {
		if err := stream.Read(); err != nil {
			if !session.isClosed() {
				session.Fail(fmt.Errorf("read input stream: %w", err))
			}
			return
		}
		chunk := make([]int16, len(in))
		copy(chunk, in)
		if err := session.Push(chunk); err != nil {
			return
		}
	}
}

func descriptor(info *portaudio.DeviceInfo, isDefault bool) Device {
	return Device{
		ID:                info.Index,
		Name:              info.Name,
		MaxInputChannels:  info.MaxInputChannels,
		DefaultSampleRate: info.DefaultSampleRate,
		Default:           isDefault,
	}
}
