package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/recordist/meeting-tray/internal/audio"
)

type Config struct {
	TranscriptDir string      `json:"transcript_dir"`
	Audio         AudioConfig `json:"audio"`
	API           APIConfig   `json:"api"`
	LogLevel      string      `json:"log_level"`
	Notifications bool        `json:"notifications"`
}

type AudioConfig struct {
	DeviceID   *int   `json:"device_id"`
	DeviceName string `json:"device_name"`
	Channels   int    `json:"channels"`
	SampleRate int    `json:"sample_rate"`
}

type APIConfig struct {
	Endpoint       string `json:"endpoint"`
	Key            string `json:"api_key"`
	Model          string `json:"model"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	MaxRetries     int    `json:"max_retries"`
}

// Load reads the config from disk or returns defaults
func Load() (*Config, error) {
	path := configPath()

	cfg := Defaults()

	// Load existing config if it exists
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	cfg.TranscriptDir = expandHome(cfg.TranscriptDir)
	return cfg, nil
}

func Defaults() *Config {
	return &Config{
		TranscriptDir: "~/Documents/Transcriptions",
		Audio: AudioConfig{
			Channels:   1,
			SampleRate: 44100,
		},
		API: APIConfig{
			Endpoint:       "https://api.openai.com/v1/audio/transcriptions",
			Model:          "whisper-1",
			TimeoutSeconds: 120,
			MaxRetries:     3,
		},
		LogLevel:      "info",
		Notifications: true,
	}
}

// Save writes the config to disk
func (c *Config) Save() error {
	path := configPath()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// DeviceSelection maps the saved preference to a device selection: a saved id
// wins, then a saved name, otherwise the system default.
func (c *Config) DeviceSelection() audio.Selection {
	if c.Audio.DeviceID != nil {
		return audio.SelectByID(*c.Audio.DeviceID)
	}
	if c.Audio.DeviceName != "" {
		return audio.SelectByName(c.Audio.DeviceName)
	}
	return audio.SelectDefault()
}

// SetDevice persists a device choice; a nil id selects the system default.
func (c *Config) SetDevice(id *int, name string) {
	c.Audio.DeviceID = id
	c.Audio.DeviceName = name
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// configPath returns the platform-specific config file path
func configPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("APPDATA")
	default: // linux
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.config"
		}
	}

	return filepath.Join(base, "meeting-tray", "config.json")
}
