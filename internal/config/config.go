// Package config loads the simulation settings.
// Precedence, lowest to highest: built-in defaults, TOML file, GHOSTHUNT_* environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "GHOSTHUNT_"

// Config holds every tunable of a run.
type Config struct {
	Simulation SimulationConfig `toml:"simulation" envPrefix:"SIM_"`
	Layout     LayoutConfig     `toml:"layout" envPrefix:"LAYOUT_"`
	Log        LogConfig        `toml:"log" envPrefix:"LOG_"`
	Storage    StorageConfig    `toml:"storage" envPrefix:"STORAGE_"`
	Server     ServerConfig     `toml:"server" envPrefix:"SERVER_"`
}

// SimulationConfig tunes the actors.
type SimulationConfig struct {
	FearMax      int           `toml:"fear_max" env:"FEAR_MAX"`
	BoredomMax   int           `toml:"boredom_max" env:"BOREDOM_MAX"`
	EvidenceOdds int           `toml:"evidence_odds" env:"EVIDENCE_ODDS"` // ghost drops with probability 1/EvidenceOdds
	StepDelay    time.Duration `toml:"step_delay" env:"STEP_DELAY"`
	StepJitter   time.Duration `toml:"step_jitter" env:"STEP_JITTER"`
	GhostType    string        `toml:"ghost_type" env:"GHOST_TYPE"` // empty = random
}

// LayoutConfig selects the house.
type LayoutConfig struct {
	Path string `toml:"path" env:"PATH"` // empty = built-in house
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `toml:"level" env:"LEVEL"`
	Format string `toml:"format" env:"FORMAT"`
}

// StorageConfig configures the run archive.
type StorageConfig struct {
	Path string `toml:"path" env:"PATH"` // sqlite file; empty disables archiving
}

// ServerConfig configures the spectator server.
type ServerConfig struct {
	Addr string `toml:"addr" env:"ADDR"`
}

// Default returns the settings of the classic investigation.
func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			FearMax:      15,
			BoredomMax:   15,
			EvidenceOdds: 6,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// Stress returns settings for stress runs: quiet logs and a little scheduling jitter
// so actors interleave differently every step.
func Stress() *Config {
	cfg := Default()
	cfg.Simulation.StepJitter = 200 * time.Microsecond
	cfg.Log.Level = "warn"
	return cfg
}

// Spectator returns settings paced for humans watching the websocket stream.
func Spectator() *Config {
	cfg := Default()
	cfg.Simulation.StepDelay = 400 * time.Millisecond
	cfg.Simulation.StepJitter = 200 * time.Millisecond
	return cfg
}

// fileConfig mirrors Config with string durations, as written by hand in TOML.
type fileConfig struct {
	Simulation struct {
		FearMax      int    `toml:"fear_max"`
		BoredomMax   int    `toml:"boredom_max"`
		EvidenceOdds int    `toml:"evidence_odds"`
		StepDelay    string `toml:"step_delay"`
		StepJitter   string `toml:"step_jitter"`
		GhostType    string `toml:"ghost_type"`
	} `toml:"simulation"`
	Layout  LayoutConfig  `toml:"layout"`
	Log     LogConfig     `toml:"log"`
	Storage StorageConfig `toml:"storage"`
	Server  ServerConfig  `toml:"server"`
}

// Load builds a config from base, the TOML file at path (skipped when empty)
// and the environment. A nil base means Default().
func Load(base *Config, path string) (*Config, error) {
	cfg := base
	if cfg == nil {
		cfg = Default()
	}

	if path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}

	if meta.IsDefined("simulation", "fear_max") {
		cfg.Simulation.FearMax = raw.Simulation.FearMax
	}
	if meta.IsDefined("simulation", "boredom_max") {
		cfg.Simulation.BoredomMax = raw.Simulation.BoredomMax
	}
	if meta.IsDefined("simulation", "evidence_odds") {
		cfg.Simulation.EvidenceOdds = raw.Simulation.EvidenceOdds
	}
	if meta.IsDefined("simulation", "step_delay") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Simulation.StepDelay))
		if err != nil {
			return fmt.Errorf("parse step_delay: %w", err)
		}
		cfg.Simulation.StepDelay = d
	}
	if meta.IsDefined("simulation", "step_jitter") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Simulation.StepJitter))
		if err != nil {
			return fmt.Errorf("parse step_jitter: %w", err)
		}
		cfg.Simulation.StepJitter = d
	}
	if meta.IsDefined("simulation", "ghost_type") {
		cfg.Simulation.GhostType = strings.TrimSpace(raw.Simulation.GhostType)
	}
	if meta.IsDefined("layout", "path") {
		cfg.Layout.Path = strings.TrimSpace(raw.Layout.Path)
	}
	if meta.IsDefined("log", "level") {
		cfg.Log.Level = strings.TrimSpace(raw.Log.Level)
	}
	if meta.IsDefined("log", "format") {
		cfg.Log.Format = strings.TrimSpace(raw.Log.Format)
	}
	if meta.IsDefined("storage", "path") {
		cfg.Storage.Path = strings.TrimSpace(raw.Storage.Path)
	}
	if meta.IsDefined("server", "addr") {
		cfg.Server.Addr = strings.TrimSpace(raw.Server.Addr)
	}
	return nil
}

// Validate rejects settings that would stop the actors from ever terminating
// or that the logger cannot honour.
func (c *Config) Validate() error {
	var errs []error
	if c.Simulation.FearMax <= 0 {
		errs = append(errs, fmt.Errorf("simulation.fear_max must be positive, got %d", c.Simulation.FearMax))
	}
	if c.Simulation.BoredomMax <= 0 {
		errs = append(errs, fmt.Errorf("simulation.boredom_max must be positive, got %d", c.Simulation.BoredomMax))
	}
	if c.Simulation.EvidenceOdds <= 0 {
		errs = append(errs, fmt.Errorf("simulation.evidence_odds must be positive, got %d", c.Simulation.EvidenceOdds))
	}
	if c.Simulation.StepDelay < 0 || c.Simulation.StepJitter < 0 {
		errs = append(errs, errors.New("simulation step delays must not be negative"))
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be console or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
