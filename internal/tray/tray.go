package tray

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/atotto/clipboard"
	"github.com/getlantern/systray"
	"github.com/rs/zerolog"

	"github.com/recordist/meeting-tray/internal/audio"
	"github.com/recordist/meeting-tray/internal/config"
	"github.com/recordist/meeting-tray/internal/recorder"
)

type UI struct {
	rec     *recorder.Recorder
	cfg     *config.Config
	version string
	commit  string
	log     zerolog.Logger

	// Menu items
	mToggle  *systray.MenuItem
	mDevices *systray.MenuItem
}

func New(rec *recorder.Recorder, cfg *config.Config, version, commit string, log zerolog.Logger) *UI {
	return &UI{
		rec:     rec,
		cfg:     cfg,
		version: version,
		commit:  commit,
		log:     log,
	}
}

// SetRecorder sets the recorder reference (for circular dependency resolution)
func (u *UI) SetRecorder(rec *recorder.Recorder) {
	u.rec = rec
}

// Status update methods for the recorder to call
func (u *UI) SetIdle() {
	u.updateStatus(recorder.StateIdle)
	if u.mToggle != nil {
		u.mToggle.SetTitle("Start Recording")
	}
}

func (u *UI) SetRecording() {
	u.updateStatus(recorder.StateRecording)
	if u.mToggle != nil {
		u.mToggle.SetTitle("Stop Recording")
	}
}

func (u *UI) SetStopping() {
	u.updateStatus(recorder.StateStopping)
	if u.mToggle != nil {
		u.mToggle.SetTitle("Saving...")
	}
}

func (u *UI) SetFailed() {
	u.updateStatus(recorder.StateFailed)
	if u.mToggle != nil {
		u.mToggle.SetTitle("Clear Error")
	}
}

func (u *UI) Run(ctx context.Context) error {
	systray.Run(u.onReady, u.onExit)
	return nil
}

func (u *UI) onReady() {
	u.updateStatus(recorder.StateIdle)
	systray.SetTooltip("Meeting recorder")

	// Build menu
	u.mToggle = systray.AddMenuItem("Start Recording", "Start or stop recording")
	systray.AddSeparator()

	u.mDevices = systray.AddMenuItem("Microphone", "Select audio device")
	u.buildDeviceMenu()

	systray.AddSeparator()
	mFolder := systray.AddMenuItem("Open Transcripts Folder", "Show recordings and transcripts")
	mCopy := systray.AddMenuItem("Copy Last Transcript", "Copy the last transcript to the clipboard")

	systray.AddSeparator()
	mAbout := systray.AddMenuItem("About", "About Meeting Recorder")
	mQuit := systray.AddMenuItem("Quit", "Exit application")

	// Event loop
	go u.handleEvents(mFolder, mCopy, mAbout, mQuit)
}

func (u *UI) handleEvents(mFolder, mCopy, mAbout, mQuit *systray.MenuItem) {
	for {
		select {
		case <-u.mToggle.ClickedCh:
			u.toggleRecording()
		case <-mFolder.ClickedCh:
			u.openTranscripts()
		case <-mCopy.ClickedCh:
			u.copyLastTranscript()
		case <-mAbout.ClickedCh:
			u.showAbout()
		case <-mQuit.ClickedCh:
			systray.Quit()
			return
		}
	}
}

func (u *UI) toggleRecording() {
	switch u.rec.State() {
	case recorder.StateIdle:
		if err := u.rec.Start(u.cfg.DeviceSelection()); err != nil {
			u.log.Error().Err(err).Msg("Failed to start recording")
		}
	case recorder.StateRecording:
		u.rec.Stop()
	case recorder.StateFailed:
		u.rec.Acknowledge()
	default:
		// Stopping: wait for the flush to finish.
	}
}

func (u *UI) buildDeviceMenu() {
	devices, err := u.rec.Devices()
	if err != nil {
		u.log.Error().Err(err).Msg("Failed to list audio devices")
		return
	}

	items := make([]*systray.MenuItem, 0, len(devices)+1)

	mDefault := u.mDevices.AddSubMenuItem("System Default", "")
	items = append(items, mDefault)
	if u.cfg.DeviceSelection() == audio.SelectDefault() {
		mDefault.Check()
	}
	go func() {
		for {
			<-mDefault.ClickedCh
			u.selectDevice(nil, "", items, mDefault)
		}
	}()

	for _, dev := range devices {
		item := u.mDevices.AddSubMenuItem(dev.Name, "")
		items = append(items, item)
		if u.cfg.Audio.DeviceID != nil && *u.cfg.Audio.DeviceID == dev.ID {
			item.Check()
		}

		go func(id int, name string, menuItem *systray.MenuItem) {
			for {
				<-menuItem.ClickedCh
				u.selectDevice(&id, name, items, menuItem)
			}
		}(dev.ID, dev.Name, item)
	}
}

func (u *UI) selectDevice(id *int, name string, items []*systray.MenuItem, chosen *systray.MenuItem) {
	for _, item := range items {
		if item != chosen {
			item.Uncheck()
		}
	}
	chosen.Check()

	u.cfg.SetDevice(id, name)
	if err := u.cfg.Save(); err != nil {
		u.log.Error().Err(err).Msg("Failed to save config")
	}
	if name == "" {
		name = "System Default"
	}
	u.log.Info().Str("device", name).Msg("Changed audio device")
}

func (u *UI) openTranscripts() {
	if err := os.MkdirAll(u.cfg.TranscriptDir, 0o755); err != nil {
		u.log.Error().Err(err).Msg("Failed to create transcripts dir")
		return
	}
	if err := openPath(u.cfg.TranscriptDir); err != nil {
		u.log.Error().Err(err).Str("path", u.cfg.TranscriptDir).Msg("Failed to open transcripts folder")
	}
}

func (u *UI) copyLastTranscript() {
	path := u.rec.LastTranscript()
	if path == "" {
		u.log.Info().Msg("No transcript to copy yet")
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		u.log.Error().Err(err).Str("path", path).Msg("Failed to read transcript")
		return
	}
	if err := clipboard.WriteAll(string(data)); err != nil {
		u.log.Error().Err(err).Msg("Failed to copy transcript to clipboard")
		return
	}
	u.log.Info().Str("path", path).Msg("Copied transcript to clipboard")
}

func (u *UI) showAbout() {
	fmt.Printf("Meeting Recorder %s (%s)\nRecords meetings and transcribes them\n", u.version, u.commit)
}

func (u *UI) onExit() {
	// Cleanup
}

// updateStatus sets the tray title with microphone emoji and status indicator
func (u *UI) updateStatus(state recorder.State) {
	systray.SetTitle(fmt.Sprintf("🎙️ %s", emojiForState(state)))
}

// emojiForState returns the appropriate status emoji
func emojiForState(state recorder.State) string {
	switch state {
	case recorder.StateRecording:
		return "🔴" // Red - recording
	case recorder.StateStopping:
		return "🟡" // Yellow - flushing the file
	case recorder.StateFailed:
		return "⚪️" // White - error
	default:
		return "🟢" // Green - ready/idle
	}
}

// openPath opens a folder in the platform file browser.
func openPath(path string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", path).Start()
	case "windows":
		return exec.Command("explorer", path).Start()
	default:
		return exec.Command("xdg-open", path).Start()
	}
}
