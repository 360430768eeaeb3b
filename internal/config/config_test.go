package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8000" || cfg.Server.WSPath != "/ws" {
		t.Fatalf("server = %+v", cfg.Server)
	}
	if cfg.Game.PointsCorrect != 10 {
		t.Fatalf("points = %d", cfg.Game.PointsCorrect)
	}
}

func TestYAMLOverridesDefaults(t *testing.T) {
	path := writeFile(t, "config.yaml", `
game:
  tick_interval: 250ms
  points_correct: 25
airspace:
  target_density: 8
  airports:
    - code: sfo
      lat: 37.6
      lon: -122.4
`)
	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Game.TickInterval != 250*time.Millisecond {
		t.Fatalf("tick interval = %s", cfg.Game.TickInterval)
	}
	if cfg.Game.PointsCorrect != 25 || cfg.Airspace.TargetDensity != 8 {
		t.Fatalf("game = %+v density = %d", cfg.Game, cfg.Airspace.TargetDensity)
	}
	if len(cfg.Airspace.Airports) != 1 || cfg.Airspace.Airports[0].Code != "sfo" {
		t.Fatalf("airports = %+v", cfg.Airspace.Airports)
	}
	// untouched sections keep their defaults
	if cfg.Server.Addr != ":8000" || cfg.Airspace.RadiusNM != 60 {
		t.Fatalf("defaults lost: addr %q radius %v", cfg.Server.Addr, cfg.Airspace.RadiusNM)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", "server:\n  addr: \":9000\"\n")
	t.Setenv("PLANEGUESS_ADDR", ":9100")
	t.Setenv("PLANEGUESS_TICK_INTERVAL", "1s")
	t.Setenv("PLANEGUESS_TARGET_DENSITY", "2")
	t.Setenv("PLANEGUESS_POINTS_CORRECT", "5")
	t.Setenv("PLANEGUESS_LOG_LEVEL", "debug")

	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9100" || cfg.Game.TickInterval != time.Second ||
		cfg.Airspace.TargetDensity != 2 || cfg.Game.PointsCorrect != 5 || cfg.Logging.Level != "debug" {
		t.Fatalf("env not applied: %+v %+v %d", cfg.Server, cfg.Game, cfg.Airspace.TargetDensity)
	}
}

func TestEnvFile(t *testing.T) {
	envPath := writeFile(t, ".env", "PLANEGUESS_POINTS_CORRECT=7\n")
	t.Setenv("PLANEGUESS_POINTS_CORRECT", "")
	os.Unsetenv("PLANEGUESS_POINTS_CORRECT")

	cfg, err := Load("", envPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Game.PointsCorrect != 7 {
		t.Fatalf("points = %d, want 7 from env file", cfg.Game.PointsCorrect)
	}
}

func TestMissingEnvFileIsIgnored(t *testing.T) {
	if _, err := Load("", filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("Load: %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{name: "bad tick env", env: map[string]string{"PLANEGUESS_TICK_INTERVAL": "soon"}},
		{name: "bad density env", env: map[string]string{"PLANEGUESS_TARGET_DENSITY": "many"}},
		{name: "zero points", yaml: "game:\n  points_correct: 0\n"},
		{name: "zero tick", yaml: "game:\n  tick_interval: 0s\n"},
		{name: "bad ws path", yaml: "server:\n  ws_path: ws\n"},
		{name: "bad log level", yaml: "logging:\n  level: chatty\n"},
		{name: "bad log format", yaml: "logging:\n  format: xml\n"},
		{name: "no airports", yaml: "airspace:\n  airports: []\n"},
		{name: "ping after pong", yaml: "viewer:\n  ping_period: 2m\n"},
		{name: "malformed yaml", yaml: "game: [oops"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			path := ""
			if tc.yaml != "" {
				path = writeFile(t, "config.yaml", tc.yaml)
			}
			if _, err := Load(path, ""); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
