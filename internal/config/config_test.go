package config

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Simulation.TickRate != 60 {
		t.Errorf("TickRate = %d, want 60", cfg.Simulation.TickRate)
	}
	if cfg.Simulation.TickInterval != 16*time.Millisecond {
		t.Errorf("TickInterval = %v, want 16ms", cfg.Simulation.TickInterval)
	}
	if cfg.Simulation.ArenaWidth != 800 || cfg.Simulation.ArenaHeight != 600 {
		t.Errorf("arena = %vx%v, want 800x600", cfg.Simulation.ArenaWidth, cfg.Simulation.ArenaHeight)
	}
	if cfg.Server.TrustProxy {
		t.Error("proxy headers must not be trusted by default")
	}
	if cfg.Server.Addr() != ":8080" {
		t.Errorf("Addr() = %q, want :8080", cfg.Server.Addr())
	}
	if !cfg.Debug.Enabled || cfg.Debug.Addr != "127.0.0.1:6060" {
		t.Errorf("debug = %+v", cfg.Debug)
	}
	if cfg.Recording.EventLogPath != "" || cfg.Recording.ReplayDir != "" {
		t.Errorf("recording should be disabled by default: %+v", cfg.Recording)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("TICK_INTERVAL_MS", "20")
	t.Setenv("ARENA_WIDTH", "1024")
	t.Setenv("MAX_PLAYERS", "8")
	t.Setenv("RNG_SEED", "-42")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("INPUT_RATE", "30")
	t.Setenv("DISABLE_DEBUG_SERVER", "true")
	t.Setenv("REPLAY_DIR", "/tmp/replays")
	t.Setenv("TRUST_PROXY_HEADERS", "true")

	cfg := Load()

	if cfg.Server.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Simulation.TickInterval != 20*time.Millisecond {
		t.Errorf("TickInterval = %v, want 20ms", cfg.Simulation.TickInterval)
	}
	if cfg.Simulation.ArenaWidth != 1024 || cfg.Simulation.ArenaHeight != 600 {
		t.Errorf("arena = %vx%v", cfg.Simulation.ArenaWidth, cfg.Simulation.ArenaHeight)
	}
	if cfg.Simulation.MaxPlayers != 8 {
		t.Errorf("MaxPlayers = %d, want 8", cfg.Simulation.MaxPlayers)
	}
	if cfg.Simulation.Seed != -42 {
		t.Errorf("Seed = %d, want -42", cfg.Simulation.Seed)
	}
	if len(cfg.Server.AllowedOrigins) != 2 {
		t.Errorf("AllowedOrigins = %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Server.InputRate != 30 || cfg.Server.InputBurst != 240 {
		t.Errorf("input limits = %v/%d", cfg.Server.InputRate, cfg.Server.InputBurst)
	}
	if !cfg.Server.TrustProxy {
		t.Error("proxy headers should be trusted")
	}
	if cfg.Debug.Enabled {
		t.Error("debug server should be disabled")
	}
	if cfg.Recording.ReplayDir != "/tmp/replays" {
		t.Errorf("ReplayDir = %q", cfg.Recording.ReplayDir)
	}
}

func TestInvalidValuesKeepDefaults(t *testing.T) {
	t.Setenv("PORT", "abc")
	t.Setenv("MAX_PLAYERS", "-3")
	t.Setenv("RNG_SEED", "nope")

	cfg := Load()
	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Simulation.MaxPlayers != 64 {
		t.Errorf("MaxPlayers = %d, want 64", cfg.Simulation.MaxPlayers)
	}
	if cfg.Simulation.Seed != 0 {
		t.Errorf("Seed = %d, want 0", cfg.Simulation.Seed)
	}
}
