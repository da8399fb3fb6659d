// Package config provides centralized configuration management.
// Every setting has a default here and an optional environment override.
//
// IMPORTANT: When changing values, only modify this file.
// All other parts of the codebase should reference these values.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// SIMULATION CONFIGURATION
// =============================================================================

// SimulationConfig holds the fixed-timestep and arena settings.
type SimulationConfig struct {
	TickRate     int           // Simulation steps per second; dt = 1/TickRate
	TickInterval time.Duration // Wall-clock time between steps
	ArenaWidth   float64
	ArenaHeight  float64
	MaxPlayers   int   // Joins beyond this are refused
	Seed         int64 // 0 = seeded from the clock
}

// DefaultSimulation returns the default simulation configuration.
func DefaultSimulation() SimulationConfig {
	return SimulationConfig{
		TickRate:     60,
		TickInterval: 16 * time.Millisecond, // ~62.5 Hz cadence for a 1/60 s step, as clients expect
		ArenaWidth:   800,
		ArenaHeight:  600,
		MaxPlayers:   64,
	}
}

// SimulationFromEnv returns simulation configuration with environment variable overrides.
func SimulationFromEnv() SimulationConfig {
	cfg := DefaultSimulation()

	if ms := getEnvInt("TICK_INTERVAL_MS", 0); ms > 0 {
		cfg.TickInterval = time.Duration(ms) * time.Millisecond
	}
	if w := getEnvFloat("ARENA_WIDTH", 0); w > 0 {
		cfg.ArenaWidth = w
	}
	if h := getEnvFloat("ARENA_HEIGHT", 0); h > 0 {
		cfg.ArenaHeight = h
	}
	if mp := getEnvInt("MAX_PLAYERS", 0); mp > 0 {
		cfg.MaxPlayers = mp
	}
	if v := os.Getenv("RNG_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Seed = seed
		}
	}

	return cfg
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP and WebSocket settings.
type ServerConfig struct {
	Port           int
	AllowedOrigins []string // Extra browser origins; "*" accepts any
	InputRate      float64  // Inbound messages per second per connection
	InputBurst     int
	TrustProxy     bool // Account clients by X-Forwarded-For / X-Real-IP
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:       8080,
		InputRate:  120, // Two inputs per tick
		InputBurst: 240,
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = strings.Split(v, ",")
	}
	if r := getEnvFloat("INPUT_RATE", 0); r > 0 {
		cfg.InputRate = r
	}
	if b := getEnvInt("INPUT_BURST", 0); b > 0 {
		cfg.InputBurst = b
	}
	cfg.TrustProxy = getEnvBool("TRUST_PROXY_HEADERS")

	return cfg
}

// Addr returns the listen address for the API server
func (c ServerConfig) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

// =============================================================================
// DEBUG SERVER CONFIGURATION
// =============================================================================

// DebugConfig holds settings for the pprof/metrics listener.
type DebugConfig struct {
	Enabled bool
	Addr    string // Localhost only unless ALLOW_DEBUG_EXTERNAL=true
}

// DefaultDebug returns the default debug server configuration.
func DefaultDebug() DebugConfig {
	return DebugConfig{
		Enabled: true,
		Addr:    "127.0.0.1:6060",
	}
}

// DebugFromEnv returns debug configuration with environment variable overrides.
func DebugFromEnv() DebugConfig {
	cfg := DefaultDebug()

	if v := os.Getenv("DEBUG_ADDR"); v != "" {
		cfg.Addr = v
	}
	if getEnvBool("DISABLE_DEBUG_SERVER") {
		cfg.Enabled = false
	}

	return cfg
}

// =============================================================================
// RECORDING CONFIGURATION
// =============================================================================

// RecordingConfig controls the audit trail and replay bundles. Empty paths disable them.
type RecordingConfig struct {
	EventLogPath string
	ReplayDir    string
}

// RecordingFromEnv returns recording configuration from the environment.
func RecordingFromEnv() RecordingConfig {
	return RecordingConfig{
		EventLogPath: os.Getenv("EVENT_LOG_PATH"),
		ReplayDir:    os.Getenv("REPLAY_DIR"),
	}
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Simulation SimulationConfig
	Server     ServerConfig
	Debug      DebugConfig
	Recording  RecordingConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Simulation: SimulationFromEnv(),
		Server:     ServerFromEnv(),
		Debug:      DebugFromEnv(),
		Recording:  RecordingFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && b
}
