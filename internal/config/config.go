// Package config loads ppplinkd's daemon configuration using koanf/v2:
// YAML file, then environment variable overrides, layered on top of
// built-in defaults (spec.md Section 6's "Static config items").
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
)

// Config holds the complete ppplinkd configuration.
type Config struct {
	Log       LogConfig       `koanf:"log"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Link      LinkConfig      `koanf:"link"`
	Accounting AccountingConfig `koanf:"accounting"`
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `koanf:"level"`
	// Format is "json" or "console".
	Format string `koanf:"format"`
}

// MetricsConfig holds the Prometheus metrics endpoint configuration.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
	Path string `koanf:"path"`
}

// LinkConfig mirrors spec.md Section 6's recognized static config
// items for a single PPP link.
type LinkConfig struct {
	AuthRequired bool     `koanf:"auth_required"`
	AllowedAuth  []string `koanf:"allowed_auth"` // "pap", "chap-md5", "chap-sha1"

	MRU          uint16        `koanf:"mru"`
	Magic        uint32        `koanf:"magic"` // 0 = pick randomly
	InterimAccounting time.Duration `koanf:"interim_accounting"`

	OurIP      string `koanf:"our_ip"`
	PeerIPPool string `koanf:"peer_ip_pool"`

	NasIdentifier string `koanf:"nas_identifier"`

	AuthName   string `koanf:"auth_name"`   // our identity when we AuthWithPeer
	AuthSecret string `koanf:"auth_secret"` // our secret when we AuthWithPeer
}

// AccountingConfig describes the RADIUS-compatible accounting backend
// (spec.md Section 6: "radius_acct_server: endpoint").
type AccountingConfig struct {
	Server     string   `koanf:"radius_acct_server"`
	Secret     string   `koanf:"radius_secret"`
	Attributes []string `koanf:"accounting"` // extra attribute names to emit
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Addr: ":9110",
			Path: "/metrics",
		},
		Link: LinkConfig{
			AuthRequired:      false,
			AllowedAuth:       []string{"pap"},
			MRU:               1500,
			InterimAccounting: 10 * time.Second,
			NasIdentifier:     "ppplinkd",
		},
	}
}

// envPrefix is the environment variable prefix for ppplinkd configuration.
const envPrefix = "PPPLINKD_"

// Load reads configuration from a YAML file at path, overlays
// environment variable overrides (PPPLINKD_ prefix), and merges on top
// of DefaultConfig(). Missing fields inherit defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := DefaultConfig()
	if err := loadDefaults(k, defaults); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config from %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "_", ".")
}

func loadDefaults(k *koanf.Koanf, defaults *Config) error {
	defaultMap := map[string]any{
		"log.level":                 defaults.Log.Level,
		"log.format":                defaults.Log.Format,
		"metrics.addr":              defaults.Metrics.Addr,
		"metrics.path":              defaults.Metrics.Path,
		"link.auth_required":        defaults.Link.AuthRequired,
		"link.allowed_auth":         defaults.Link.AllowedAuth,
		"link.mru":                  defaults.Link.MRU,
		"link.interim_accounting":   defaults.Link.InterimAccounting.String(),
		"link.nas_identifier":       defaults.Link.NasIdentifier,
	}
	for key, val := range defaultMap {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}
	return nil
}

// Validation errors.
var (
	ErrInvalidMRU              = errors.New("link.mru must be > 0")
	ErrInvalidInterimAccounting = errors.New("link.interim_accounting must be > 0")
	ErrMissingOurIP            = errors.New("link.our_ip must be set when auth_required and IPCP address assignment are in play")
	ErrUnknownAllowedAuth      = errors.New("link.allowed_auth entries must be one of pap, chap-md5, chap-sha1")
)

// Validate checks the configuration for logical errors.
func Validate(cfg *Config) error {
	if cfg.Link.MRU == 0 {
		return ErrInvalidMRU
	}
	if cfg.Link.InterimAccounting <= 0 {
		return ErrInvalidInterimAccounting
	}
	for _, a := range cfg.Link.AllowedAuth {
		switch a {
		case "pap", "chap-md5", "chap-sha1":
		default:
			return ErrUnknownAllowedAuth
		}
	}
	return nil
}

// ParseLogLevel maps a configuration log level string to the
// corresponding zerolog.Level. Unknown values default to InfoLevel.
func ParseLogLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}
