// Package notify posts user-visible desktop notifications.
package notify

import (
	"github.com/gen2brain/beeep"
	"github.com/rs/zerolog"
)

// Notifier surfaces a message to the user. Terminal failures must always
// reach one of these; nothing fails silently.
type Notifier interface {
	Notify(title, message string)
}

type desktop struct {
	log zerolog.Logger
}

// NewDesktop returns a Notifier backed by the platform notification service.
func NewDesktop(log zerolog.Logger) Notifier {
	return desktop{log: log}
}

func (d desktop) Notify(title, message string) {
	if err := beeep.Notify(title, message, ""); err != nil {
		// The log is the fallback signal when the notification service is down.
		d.log.Warn().Err(err).Str("title", title).Str("message", message).Msg("Desktop notification failed")
	}
}

// Nop discards notifications; used in tests and when disabled in config.
type Nop struct{}

func (Nop) Notify(string, string) {}
