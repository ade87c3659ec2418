package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/recordist/meeting-tray/internal/audio"
	"github.com/recordist/meeting-tray/internal/config"
	"github.com/recordist/meeting-tray/internal/logging"
	"github.com/recordist/meeting-tray/internal/notify"
	"github.com/recordist/meeting-tray/internal/recorder"
	"github.com/recordist/meeting-tray/internal/transcribe"
	"github.com/recordist/meeting-tray/internal/tray"
	"github.com/recordist/meeting-tray/internal/wavfile"
)

var (
	// Version is set via ldflags at build time
	Version = "dev"
	// Commit is set via ldflags at build time
	Commit = "unknown"
)

func main() {
	// Load config from XDG/Library/AppData
	cfg, err := config.Load()
	if err != nil {
		// Use default logger if config fails to load
		log := logging.New()
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	// Initialize logger with configured level
	log := logging.NewWithLevel(cfg.LogLevel)

	// Initialize the host audio subsystem
	host, err := audio.NewHost()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize audio")
	}
	defer host.Close()

	var notifier notify.Notifier = notify.Nop{}
	if cfg.Notifications {
		notifier = notify.NewDesktop(log)
	}

	stt := transcribe.NewClient(transcribe.Options{
		Endpoint:   cfg.API.Endpoint,
		APIKey:     cfg.API.Key,
		Model:      cfg.API.Model,
		Timeout:    time.Duration(cfg.API.TimeoutSeconds) * time.Second,
		MaxRetries: cfg.API.MaxRetries,
	}, log)

	// Create tray UI first (we'll pass it to the recorder)
	trayUI := tray.New(nil, cfg, Version, Commit, log) // Recorder reference set below

	rec := recorder.New(recorder.Config{
		Host:        host,
		Writer:      wavfile.Writer{Dir: cfg.TranscriptDir},
		Transcriber: stt,
		Channels:    cfg.Audio.Channels,
		SampleRate:  cfg.Audio.SampleRate,
		Logger:      log,
		Status:      trayUI,
		Notifier:    notifier,
	})

	// Set recorder reference in tray
	trayUI.SetRecorder(rec)

	log.Info().Msg("Meeting recorder starting...")

	// Setup shutdown signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := rec.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Shutdown error")
		}
		os.Exit(0)
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start tray UI - MUST run on main thread
	if err := trayUI.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Tray error")
	}
}
