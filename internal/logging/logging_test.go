package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw    string
		want   zerolog.Level
		wantOK bool
	}{
		{"debug", zerolog.DebugLevel, true},
		{" WARN ", zerolog.WarnLevel, true},
		{"warning", zerolog.WarnLevel, true},
		{"off", zerolog.Disabled, true},
		{"", zerolog.InfoLevel, false},
		{"loud", zerolog.InfoLevel, false},
	}

	for _, tt := range tests {
		got, ok := ParseLevel(tt.raw)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseLevel(%q) = (%v, %v), want (%v, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogTimestamp, "false")
	t.Setenv(EnvLogNoColor, "true")

	cfg := defaultConfig(ProfileRuntime)
	applyEnvOverrides(&cfg)

	if cfg.Level != zerolog.ErrorLevel {
		t.Errorf("Level = %v, want error", cfg.Level)
	}
	if cfg.Timestamp {
		t.Errorf("Timestamp = true, want false")
	}
	if !cfg.NoColor {
		t.Errorf("NoColor = false, want true")
	}
}

func TestNewTagsComponent(t *testing.T) {
	prev, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	var buf bytes.Buffer
	apply(Config{Level: zerolog.DebugLevel, NoColor: true, Out: &buf})

	logger := New("decoder-test")
	logger.Info().Msg("hello")

	out := buf.String()
	if !strings.Contains(out, "component=decoder-test") || !strings.Contains(out, "hello") {
		t.Errorf("unexpected log output: %q", out)
	}
}
