// Package config reads process settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"motion-arena/server/internal/sim"
	"motion-arena/server/internal/telemetry"
	"motion-arena/server/logging"
)

type Config struct {
	Addr            string
	ClientDir       string
	TickRate        int
	BroadcastEvery  int
	CommandCapacity int
	PerActorLimit   int
	DefaultGame     sim.Game
	DisconnectGrace time.Duration

	LogLevel    string
	LogFormat   string
	LogSinks    []string
	LogJSONPath string

	Profile     string
	ProfilePath string
}

func Default() Config {
	return Config{
		Addr:            ":8080",
		TickRate:        60,
		BroadcastEvery:  2,
		CommandCapacity: 1024,
		PerActorLimit:   32,
		DefaultGame:     sim.GameBadminton,
		LogLevel:        "info",
		LogFormat:       "text",
		LogSinks:        []string{logging.SinkLogrus},
		LogJSONPath:     "events.ndjson",
		ProfilePath:     ".",
	}
}

// Load applies .env files (missing files are ignored) and then reads the
// environment. Variables already set win over file values.
func Load(logger telemetry.Logger, files ...string) Config {
	if logger == nil {
		logger = telemetry.Nop()
	}
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				logger.Printf("failed to load %s: %v", file, err)
			}
			continue
		}
		logger.Printf("loaded environment from %s", file)
	}
	return FromEnv(os.LookupEnv, logger)
}

// FromEnv builds a Config from lookup. Invalid values are reported and the
// default kept.
func FromEnv(lookup func(string) (string, bool), logger telemetry.Logger) Config {
	if logger == nil {
		logger = telemetry.Nop()
	}
	cfg := Default()
	r := reader{lookup: lookup, logger: logger}

	cfg.Addr = r.str("ADDR", cfg.Addr)
	cfg.ClientDir = r.str("CLIENT_DIR", cfg.ClientDir)
	cfg.TickRate = r.positiveInt("TICK_RATE", cfg.TickRate)
	cfg.BroadcastEvery = r.positiveInt("BROADCAST_EVERY", cfg.BroadcastEvery)
	cfg.CommandCapacity = r.positiveInt("COMMAND_CAPACITY", cfg.CommandCapacity)
	cfg.PerActorLimit = r.positiveInt("PER_ACTOR_LIMIT", cfg.PerActorLimit)
	cfg.DisconnectGrace = r.duration("DISCONNECT_GRACE", cfg.DisconnectGrace)

	if raw, ok := r.value("DEFAULT_GAME"); ok {
		game := sim.Game(strings.ToLower(raw))
		if _, err := sim.TuningFor(game); err != nil {
			logger.Printf("invalid DEFAULT_GAME=%q: %v", raw, err)
		} else {
			cfg.DefaultGame = game
		}
	}

	cfg.LogLevel = r.str("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = r.str("LOG_FORMAT", cfg.LogFormat)
	if raw, ok := r.value("LOG_SINKS"); ok {
		if sinks := logging.ParseSinks(raw); len(sinks) > 0 {
			cfg.LogSinks = sinks
		}
	}
	cfg.LogJSONPath = r.str("LOG_JSON_PATH", cfg.LogJSONPath)

	if raw, ok := r.value("PROFILE"); ok {
		switch mode := strings.ToLower(raw); mode {
		case "cpu", "mem", "trace", "off":
			cfg.Profile = mode
		default:
			logger.Printf("invalid PROFILE=%q: expected cpu, mem, trace or off", raw)
		}
	}
	cfg.ProfilePath = r.str("PROFILE_PATH", cfg.ProfilePath)
	return cfg
}

type reader struct {
	lookup func(string) (string, bool)
	logger telemetry.Logger
}

func (r reader) value(key string) (string, bool) {
	if r.lookup == nil {
		return "", false
	}
	raw, ok := r.lookup(key)
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		return "", false
	}
	return raw, true
}

func (r reader) str(key, fallback string) string {
	if raw, ok := r.value(key); ok {
		return raw
	}
	return fallback
}

func (r reader) positiveInt(key string, fallback int) int {
	raw, ok := r.value(key)
	if !ok {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		r.logger.Printf("invalid %s=%q: %v", key, raw, err)
		return fallback
	}
	if value <= 0 {
		r.logger.Printf("invalid %s=%q: must be positive", key, raw)
		return fallback
	}
	return value
}

func (r reader) duration(key string, fallback time.Duration) time.Duration {
	raw, ok := r.value(key)
	if !ok {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		r.logger.Printf("invalid %s=%q: %v", key, raw, err)
		return fallback
	}
	if value < 0 {
		r.logger.Printf("invalid %s=%q: must not be negative", key, raw)
		return fallback
	}
	return value
}
