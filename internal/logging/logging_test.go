package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/OCharnyshevich/chunkstream/internal/config"
)

func TestNewLevels(t *testing.T) {
	cases := []struct {
		cfg  config.LoggingConfig
		want zapcore.Level
	}{
		{config.LoggingConfig{Level: "debug", Format: "console"}, zapcore.DebugLevel},
		{config.LoggingConfig{Level: "warn", Format: "json"}, zapcore.WarnLevel},
		{config.LoggingConfig{Level: "nonsense", Format: "console"}, zapcore.InfoLevel},
	}
	for _, c := range cases {
		log, err := New(c.cfg)
		if err != nil {
			t.Fatalf("New(%+v) error: %v", c.cfg, err)
		}
		if !log.Core().Enabled(c.want) {
			t.Errorf("New(%+v): level %v disabled", c.cfg, c.want)
		}
		if c.want > zapcore.DebugLevel && log.Core().Enabled(c.want-1) {
			t.Errorf("New(%+v): level %v enabled", c.cfg, c.want-1)
		}
	}
}
