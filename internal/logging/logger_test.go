package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoggerWritesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger("engine", &buf)

	l.Info().Str("path", "/tmp/a").Msg("copied")

	out := buf.String()
	if !strings.Contains(out, "copied") {
		t.Errorf("expected message in output, got %q", out)
	}
	if !strings.Contains(out, "component=engine") {
		t.Errorf("expected component field in output, got %q", out)
	}
	if !strings.Contains(out, "path=/tmp/a") {
		t.Errorf("expected path field in output, got %q", out)
	}
}

func TestLoggerSetOutput(t *testing.T) {
	var first, second bytes.Buffer
	l := NewLogger("x", &first)
	l.SetOutput(&second)

	l.Warn().Msgf("moved %d items", 3)

	if first.Len() != 0 {
		t.Errorf("old writer should be unused, got %q", first.String())
	}
	if !strings.Contains(second.String(), "moved 3 items") {
		t.Errorf("expected message in new writer, got %q", second.String())
	}
}

func TestNamedSharesOutput(t *testing.T) {
	var buf bytes.Buffer
	parent := NewLogger("cli", &buf)
	child := parent.Named("pane")

	child.Info().Msg("navigated")

	if !strings.Contains(buf.String(), "component=pane") {
		t.Errorf("expected child component in shared output, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"", zerolog.InfoLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"off", zerolog.Disabled, false},
		{"loud", zerolog.NoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
