// Package config loads the structured configuration from §6: a YAML
// document overlaid with environment-variable secrets, validated before
// the orchestrator starts. Grounded in the teacher's
// internal/application/config.go Load*Config pattern (os.ReadFile +
// yaml.Unmarshal + a Validate method), generalized to one Config root
// instead of many sibling per-concern loaders since this domain's
// configuration is small enough to live in one document.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sawpanic/gmofx/internal/gatewayerrors"
	"github.com/sawpanic/gmofx/internal/model"
)

// APIConfig carries the broker credentials. Secrets are never read from
// the YAML file itself — only from the environment overlay in Load.
type APIConfig struct {
	Key    string `yaml:"-"`
	Secret string `yaml:"-"`
}

// TradingConfig gates order-endpoint reachability.
type TradingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// TFQEConfig mirrors internal/tfqe.Params in wire form.
type TFQEConfig struct {
	SessionStart string  `yaml:"session_start"`
	SessionEnd   string  `yaml:"session_end"`
	ATRStopMult  float64 `yaml:"atr_stop_mult"`
	TP1Mult      float64 `yaml:"tp1_mult"`
	TP2Mult      float64 `yaml:"tp2_mult"`
}

// LimitsConfig mirrors the token-bucket rates from §4.1.
type LimitsConfig struct {
	GetPerSec   float64 `yaml:"get_per_sec"`
	PostPerSec  float64 `yaml:"post_per_sec"`
	WSSubPerSec float64 `yaml:"ws_sub_per_sec"`
}

// PostgresConfig is the optional durable persistence backend (§4.5).
type PostgresConfig struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
}

// HTTPConfig is the consumer-facing publication surface bind address.
type HTTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Config is the fully loaded, validated runtime configuration.
type Config struct {
	API            APIConfig      `yaml:"-"`
	Trading        TradingConfig  `yaml:"trading"`
	Symbols        []model.Symbol `yaml:"symbols"`
	TFQE           TFQEConfig     `yaml:"tfqe"`
	Limits         LimitsConfig   `yaml:"limits"`
	ClockSkewMaxMs int            `yaml:"clock_skew_max_ms"`
	Postgres       PostgresConfig `yaml:"postgres"`
	HTTP           HTTPConfig     `yaml:"http"`
}

// rawConfig mirrors Config's YAML-visible fields; API secrets are
// deliberately excluded so they can never land in a config file on disk.
type rawConfig struct {
	Trading        TradingConfig  `yaml:"trading"`
	Symbols        []model.Symbol `yaml:"symbols"`
	TFQE           TFQEConfig     `yaml:"tfqe"`
	Limits         LimitsConfig   `yaml:"limits"`
	ClockSkewMaxMs int            `yaml:"clock_skew_max_ms"`
	Postgres       PostgresConfig `yaml:"postgres"`
	HTTP           HTTPConfig     `yaml:"http"`
}

// Default returns the documented §6 defaults prior to any file/env
// overlay.
func Default() Config {
	return Config{
		Trading: TradingConfig{Enabled: false},
		Symbols: []model.Symbol{model.USDJPY},
		TFQE: TFQEConfig{
			SessionStart: "16:00", SessionEnd: "24:00",
			ATRStopMult: 1.5, TP1Mult: 1.0, TP2Mult: 2.0,
		},
		Limits:         LimitsConfig{GetPerSec: 6, PostPerSec: 1, WSSubPerSec: 1},
		ClockSkewMaxMs: 5000,
		HTTP:           HTTPConfig{Host: "127.0.0.1", Port: 8080},
	}
}

// Load reads path as YAML over the §6 defaults, applies the
// GMOFX_API_KEY/GMOFX_API_SECRET environment overlay, validates the
// result, and returns a CONFIG-tagged error on any failure (§7: fatal at
// startup).
func Load(path string) (Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, gatewayerrors.Wrap(gatewayerrors.Config, "read config file", err)
	}

	raw := rawConfig{
		Trading: cfg.Trading, Symbols: cfg.Symbols, TFQE: cfg.TFQE,
		Limits: cfg.Limits, ClockSkewMaxMs: cfg.ClockSkewMaxMs,
		Postgres: cfg.Postgres, HTTP: cfg.HTTP,
	}
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return Config{}, gatewayerrors.Wrap(gatewayerrors.Config, "parse config YAML", err)
	}
	cfg.Trading, cfg.Symbols, cfg.TFQE = raw.Trading, raw.Symbols, raw.TFQE
	cfg.Limits, cfg.ClockSkewMaxMs = raw.Limits, raw.ClockSkewMaxMs
	cfg.Postgres, cfg.HTTP = raw.Postgres, raw.HTTP

	cfg.API.Key = os.Getenv("GMOFX_API_KEY")
	cfg.API.Secret = os.Getenv("GMOFX_API_SECRET")

	if err := cfg.Validate(); err != nil {
		return Config{}, gatewayerrors.Wrap(gatewayerrors.Config, "validate config", err)
	}
	return cfg, nil
}

// Validate checks every enumerated option from §6: symbols against the
// fixed 14-pair list, session times as parseable clock times, and
// strictly-positive rate limits.
func (c Config) Validate() error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("symbols: at least one symbol is required")
	}
	for _, s := range c.Symbols {
		if !model.Valid(s) {
			return fmt.Errorf("symbols: %q is not one of the 14 permitted pairs", s)
		}
	}
	if _, err := ParseClock(c.TFQE.SessionStart); err != nil {
		return fmt.Errorf("tfqe.session_start: %w", err)
	}
	if _, err := ParseClock(c.TFQE.SessionEnd); err != nil {
		return fmt.Errorf("tfqe.session_end: %w", err)
	}
	if c.TFQE.ATRStopMult <= 0 || c.TFQE.TP1Mult <= 0 || c.TFQE.TP2Mult <= 0 {
		return fmt.Errorf("tfqe: atr_stop_mult/tp1_mult/tp2_mult must be positive")
	}
	if c.Limits.GetPerSec <= 0 || c.Limits.PostPerSec <= 0 || c.Limits.WSSubPerSec <= 0 {
		return fmt.Errorf("limits: get_per_sec/post_per_sec/ws_sub_per_sec must be positive")
	}
	if c.ClockSkewMaxMs <= 0 {
		return fmt.Errorf("clock_skew_max_ms must be positive")
	}
	if c.Trading.Enabled && (c.API.Key == "" || c.API.Secret == "") {
		return fmt.Errorf("trading.enabled requires GMOFX_API_KEY and GMOFX_API_SECRET to be set")
	}
	if c.Postgres.Enabled && c.Postgres.DSN == "" {
		return fmt.Errorf("postgres.enabled requires postgres.dsn")
	}
	return nil
}

// ParseClock accepts "HH:MM" with HH in [0,24] (24:00 meaning midnight
// session end) and MM in [0,59]. Used both to validate the config and to
// build the tfqe.Params session window at runtime.
func ParseClock(s string) (time.Duration, error) {
	if s == "24:00" {
		return 24 * time.Hour, nil
	}
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("not a clock time %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("out of range clock time %q", s)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}
