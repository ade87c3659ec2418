// Package recorder ties capture, container writing, and transcription
// together behind a small start/stop state machine for the UI.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/recordist/meeting-tray/internal/audio"
	"github.com/recordist/meeting-tray/internal/notify"
	"github.com/recordist/meeting-tray/internal/transcribe"
	"github.com/recordist/meeting-tray/internal/wavfile"
)

type State int

const (
	StateIdle State = iota
	StateRecording
	StateStopping
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateStopping:
		return "stopping"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrAlreadyRecording rejects a start while a session is active or still
// flushing. There is at most one session system-wide.
var ErrAlreadyRecording = errors.New("recording already in progress")

// StatusUpdater is an interface for updating status (e.g., tray icon)
type StatusUpdater interface {
	SetIdle()
	SetRecording()
	SetStopping()
	SetFailed()
}

// Transcriber submits a finished audio file to the remote service.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) ([]transcribe.Segment, error)
}

type Config struct {
	Host             audio.Host
	Writer           wavfile.Writer
	Transcriber      Transcriber // Optional - recordings are kept either way
	Channels         int
	SampleRate       int
	TranscribeWithin time.Duration
	Logger           zerolog.Logger
	Status           StatusUpdater   // Optional - can be nil
	Notifier         notify.Notifier // Optional - can be nil
}

// Recorder is the single serialization point for start/stop: all transitions
// happen under one mutex, so concurrent UI calls can never interleave device
// open/close operations.
type Recorder struct {
	host       audio.Host
	writer     wavfile.Writer
	stt        Transcriber
	channels   int
	sampleRate int
	sttWithin  time.Duration
	log        zerolog.Logger
	status     StatusUpdater
	notifier   notify.Notifier

	mu             sync.Mutex
	state          State
	session        *audio.Session
	format         audio.Format
	startedAt      time.Time
	flush          chan struct{}
	lastErr        error
	lastRecording  string
	lastTranscript string
}

func New(cfg Config) *Recorder {
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = notify.Nop{}
	}
	within := cfg.TranscribeWithin
	if within <= 0 {
		within = 10 * time.Minute
	}
	return &Recorder{
		host:       cfg.Host,
		writer:     cfg.Writer,
		stt:        cfg.Transcriber,
		channels:   cfg.Channels,
		sampleRate: cfg.SampleRate,
		sttWithin:  within,
		log:        cfg.Logger,
		status:     cfg.Status,
		notifier:   notifier,
	}
}

// Start resolves the device preference, opens a capture session, and moves to
// Recording. A preference that no longer matches the catalog falls back to
// the system default once before failing.
func (r *Recorder) Start(sel audio.Selection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case StateIdle:
	case StateRecording, StateStopping:
		return ErrAlreadyRecording
	default:
		return fmt.Errorf("recorder is %s; acknowledge the failure first", r.state)
	}

	dev, err := audio.Resolve(r.host, sel)
	if errors.Is(err, audio.ErrDeviceNotFound) {
		r.log.Warn().Err(err).Msg("Saved device missing, falling back to default input")
		dev, err = r.host.DefaultDevice()
	}
	if err != nil {
		return err
	}

	format := audio.SessionFormat(dev, r.channels, r.sampleRate)
	session, err := r.host.Open(dev, format)
	if err != nil {
		return err
	}

	r.session = session
	r.format = format
	r.startedAt = time.Now()
	r.lastErr = nil
	r.setStateLocked(StateRecording)
	go r.watch(session)

	r.log.Info().
		Str("device", dev.Name).
		Int("channels", format.Channels).
		Int("sample_rate", format.SampleRate).
		Msg("Recording started")
	return nil
}

// watch drives the Recording -> Failed transition on a capture fault, e.g.
// the device disappearing mid-recording.
func (r *Recorder) watch(session *audio.Session) {
	err := <-session.Failed()
	if err == nil {
		// Clean close.
		return
	}

	r.mu.Lock()
	if r.session != session || r.state != StateRecording {
		r.mu.Unlock()
		return
	}
	session.Close()
	r.session = nil
	r.lastErr = err
	r.setStateLocked(StateFailed)
	r.mu.Unlock()

	r.log.Error().Err(err).Msg("Capture failed")
	r.notifier.Notify("Meeting Recorder", "Recording failed: "+err.Error())
}

// Stop moves to Stopping immediately and flushes in the background; the
// terminal state reaches the UI through the status updater, never by
// blocking this call. Calling Stop outside Recording is a no-op returning
// the current state.
func (r *Recorder) Stop() State {
	r.mu.Lock()
	if r.state != StateRecording {
		state := r.state
		r.mu.Unlock()
		return state
	}
	session := r.session
	format := r.format
	startedAt := r.startedAt
	done := make(chan struct{})
	r.flush = done
	r.setStateLocked(StateStopping)
	r.mu.Unlock()

	go func() {
		defer close(done)
		r.finish(session, format, startedAt)
	}()
	return StateStopping
}

func (r *Recorder) finish(session *audio.Session, format audio.Format, startedAt time.Time) {
	buf, err := session.Close()
	if err != nil {
		r.fail(fmt.Errorf("close capture session: %w", err))
		return
	}
	// A capture fault that lands after Stop moves to Stopping is only
	// recorded on the session; flushing the truncated buffer as a clean
	// stop would hide the gap.
	if err := session.Err(); err != nil {
		r.fail(err)
		return
	}

	stamp := startedAt.Format("2006-01-02_15-04-05")
	path, err := r.writer.Write("recording-"+stamp+".wav", format, buf)
	if err != nil {
		r.fail(fmt.Errorf("write recording: %w", err))
		return
	}

	r.mu.Lock()
	r.session = nil
	r.lastRecording = path
	r.setStateLocked(StateIdle)
	r.mu.Unlock()

	r.log.Info().
		Str("path", path).
		Dur("duration", buf.Duration()).
		Msg("Recording saved")

	go r.handoff(path, stamp)
}

func (r *Recorder) fail(err error) {
	r.mu.Lock()
	r.session = nil
	r.lastErr = err
	r.setStateLocked(StateFailed)
	r.mu.Unlock()

	r.log.Error().Err(err).Msg("Recording failed")
	r.notifier.Notify("Meeting Recorder", "Recording failed: "+err.Error())
}

// handoff transcribes a saved recording. Failures never touch the audio
// file; the user can retry transcription later.
func (r *Recorder) handoff(audioPath, stamp string) {
	if r.stt == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.sttWithin)
	defer cancel()

	segments, err := r.stt.Transcribe(ctx, audioPath)
	if err != nil {
		r.log.Error().Err(err).Str("audio", audioPath).Msg("Transcription failed")
		r.notifier.Notify("Meeting Recorder",
			"Transcription failed; the recording was kept at "+filepath.Base(audioPath))
		return
	}

	transcriptPath := filepath.Join(r.writer.Dir, "transcript-"+stamp+".txt")
	if err := transcribe.WriteTranscript(transcriptPath, segments); err != nil {
		r.log.Error().Err(err).Str("path", transcriptPath).Msg("Transcript write failed")
		r.notifier.Notify("Meeting Recorder",
			"Could not save the transcript; the recording was kept at "+filepath.Base(audioPath))
		return
	}

	r.mu.Lock()
	r.lastTranscript = transcriptPath
	r.mu.Unlock()

	r.log.Info().Str("path", transcriptPath).Int("segments", len(segments)).Msg("Transcript saved")
	r.notifier.Notify("Meeting Recorder", "Transcript saved: "+filepath.Base(transcriptPath))
}

// Acknowledge clears a Failed state back to Idle. It has no effect in any
// other state.
func (r *Recorder) Acknowledge() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateFailed {
		r.lastErr = nil
		r.setStateLocked(StateIdle)
	}
}

func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

func (r *Recorder) LastRecording() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastRecording
}

func (r *Recorder) LastTranscript() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastTranscript
}

func (r *Recorder) Devices() ([]audio.Device, error) {
	return r.host.Devices()
}

// Shutdown stops an active recording and waits for the flush to finish.
func (r *Recorder) Shutdown(ctx context.Context) error {
	if r.Stop() != StateStopping {
		return nil
	}
	r.mu.Lock()
	done := r.flush
	r.mu.Unlock()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		if r.State() == StateFailed {
			return r.Err()
		}
		return nil
	}
}

func (r *Recorder) setStateLocked(state State) {
	r.state = state
	if r.status == nil {
		return
	}
	switch state {
	case StateIdle:
		r.status.SetIdle()
	case StateRecording:
		r.status.SetRecording()
	case StateStopping:
		r.status.SetStopping()
	case StateFailed:
		r.status.SetFailed()
	}
}
