package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RoundDuration() != time.Minute {
		t.Errorf("round duration = %s, want 1m", cfg.RoundDuration())
	}
	w, err := cfg.Window()
	if err != nil {
		t.Fatal(err)
	}
	if w.Start != 3*time.Hour+30*time.Minute || w.End != 15*time.Hour+32*time.Minute {
		t.Errorf("window = %s-%s", w.Start, w.End)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := writeFile(t, `
game:
  window_start: "08:00"
  window_end: "20:00"
  round_duration_seconds: 30
  tick_interval: 500ms
server:
  port: "9000"
nats:
  enabled: true
`)
	t.Setenv("WINDOW_END", "21:00")
	t.Setenv("PERSIST_TIMEOUT", "3s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Game.WindowStart != "08:00" || cfg.Game.WindowEnd != "21:00" {
		t.Errorf("window = %s-%s", cfg.Game.WindowStart, cfg.Game.WindowEnd)
	}
	if cfg.Game.TickInterval != 500*time.Millisecond {
		t.Errorf("tick interval = %s", cfg.Game.TickInterval)
	}
	if cfg.Game.PersistTimeout != 3*time.Second {
		t.Errorf("persist timeout = %s", cfg.Game.PersistTimeout)
	}
	if cfg.Server.Port != "9000" || !cfg.NATS.Enabled {
		t.Errorf("server/nats not read from file: %+v %+v", cfg.Server, cfg.NATS)
	}
	if cfg.RoundDuration() != 30*time.Second {
		t.Errorf("round duration = %s", cfg.RoundDuration())
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"start after end", map[string]string{"WINDOW_START": "16:00"}, "invalid operating window"},
		{"bad clock", map[string]string{"WINDOW_END": "25:00"}, "window_end"},
		{"bad timezone", map[string]string{"TIMEZONE": "Mars/Olympus"}, "timezone"},
		{"zero duration", map[string]string{"ROUND_DURATION_SECONDS": "0"}, "round_duration_seconds"},
		{"non numeric duration", map[string]string{"ROUND_DURATION_SECONDS": "abc"}, "ROUND_DURATION_SECONDS"},
		{"bad tick", map[string]string{"TICK_INTERVAL": "soon"}, "TICK_INTERVAL"},
		{"bad bool", map[string]string{"NATS_ENABLED": "maybe"}, "NATS_ENABLED"},
		{"bad driver", map[string]string{"DB_DRIVER": "oracle"}, "storage driver"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}
