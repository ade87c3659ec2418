package transcribe

import (
	"fmt"
	"os"
	"strings"
)

// WriteTranscript writes one line per segment as
// "[HH:MM:SS–HH:MM:SS] text", preserving the service's order and text.
func WriteTranscript(path string, segments []Segment) error {
	var b strings.Builder
	for _, seg := range segments {
		fmt.Fprintf(&b, "[%s–%s] %s\n", formatOffset(seg.Start), formatOffset(seg.End), strings.TrimSpace(seg.Text))
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}

func formatOffset(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	h, m, s := total/3600, (total%3600)/60, total%60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
