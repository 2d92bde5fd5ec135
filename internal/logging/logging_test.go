package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestNewLevel(t *testing.T) {
	tests := []struct {
		level     string
		debugSeen bool
		infoSeen  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"error", false, false},
		{"bogus", false, true},
		{"", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			l := New(&buf, tt.level)
			l.Debug("dbg")
			l.Info("inf")

			out := buf.String()
			if got := strings.Contains(out, "dbg"); got != tt.debugSeen {
				t.Errorf("debug logged = %v, want %v", got, tt.debugSeen)
			}
			if got := strings.Contains(out, "inf"); got != tt.infoSeen {
				t.Errorf("info logged = %v, want %v", got, tt.infoSeen)
			}
		})
	}
}

func TestForward(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "info")

	lines := make(chan string, 2)
	lines <- "ALSA lib pcm.c: underrun occurred"
	lines <- "second"
	close(lines)

	Forward(context.Background(), l, lines)

	out := buf.String()
	if !strings.Contains(out, "underrun occurred") || !strings.Contains(out, "second") {
		t.Errorf("forwarded output = %q", out)
	}
	if !strings.Contains(out, "WARN") {
		t.Errorf("expected warn level in %q", out)
	}
}

func TestForwardStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	Forward(ctx, New(&bytes.Buffer{}, "info"), make(chan string))
}
