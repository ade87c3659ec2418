package config

import (
	"testing"

	"github.com/recordist/meeting-tray/internal/audio"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Audio.Channels != 1 {
		t.Errorf("expected mono default, got %d channels", cfg.Audio.Channels)
	}
	if cfg.Audio.SampleRate != 44100 {
		t.Errorf("expected 44100 default, got %d", cfg.Audio.SampleRate)
	}
	if cfg.API.Model != "whisper-1" {
		t.Errorf("unexpected default model %s", cfg.API.Model)
	}
	if cfg.API.MaxRetries != 3 {
		t.Errorf("unexpected default retries %d", cfg.API.MaxRetries)
	}
	if cfg.TranscriptDir == "" {
		t.Error("expected a default transcript dir")
	}
}

func TestDeviceSelection(t *testing.T) {
	id := 3

	tests := []struct {
		name string
		cfg  AudioConfig
		want audio.Selection
	}{
		{"saved id wins", AudioConfig{DeviceID: &id, DeviceName: "USB Interface"}, audio.SelectByID(3)},
		{"saved name", AudioConfig{DeviceName: "USB Interface"}, audio.SelectByName("USB Interface")},
		{"nothing saved", AudioConfig{}, audio.SelectDefault()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Audio: tt.cfg}
			if got := cfg.DeviceSelection(); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSetDevice(t *testing.T) {
	cfg := Defaults()
	id := 2
	cfg.SetDevice(&id, "USB Interface")
	if cfg.DeviceSelection() != audio.SelectByID(2) {
		t.Errorf("unexpected selection %v", cfg.DeviceSelection())
	}

	cfg.SetDevice(nil, "")
	if cfg.DeviceSelection() != audio.SelectDefault() {
		t.Errorf("expected default selection, got %v", cfg.DeviceSelection())
	}
}
