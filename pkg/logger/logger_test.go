package logger

import (
	"testing"

	"github.com/JavaNood/record-log/internal/config"
	"github.com/rs/zerolog"
)

func TestNew_Level(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		log := New(config.LogConfig{Level: tt.level})
		if got := log.GetLevel(); got != tt.want {
			t.Errorf("New(level=%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestNew_PrettyFormat(t *testing.T) {
	log := New(config.LogConfig{Level: "warn", Format: "pretty"})
	if got := log.GetLevel(); got != zerolog.WarnLevel {
		t.Errorf("pretty logger level = %v, want %v", got, zerolog.WarnLevel)
	}
	log.Debug().Msg("suppressed below the configured level")
}
