// Package config implements TECP's YAML configuration loading, generalized
// from the teacher's internal/config/config.go: the same ${VAR}/${VAR:default}
// environment expansion and Duration wrapper type, retargeted from
// miner/mediamtx fields to the log daemon's storage/signing/ticker fields.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration for YAML "1s"/"500ms" strings, identical in
// behavior to the teacher's config.Duration.
type Duration struct{ time.Duration }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string (e.g., \"2s\"): %w", err)
	}
	s = expandEnvDefault(s)
	if s == "" {
		d.Duration = 0
		return nil
	}
	dd, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = dd
	return nil
}

// Config is the log daemon's configuration (spec.md §6's entries/roots/keys
// store, §4.4.5's key rotation, §4.4's STH ticker).
type Config struct {
	LogLevel string `yaml:"logLevel"`

	Listen string `yaml:"listen"` // e.g., ":8443"

	Database struct {
		URL             string   `yaml:"url"`
		MaxOpenConns    int      `yaml:"maxOpenConns"`
		MaxIdleConns    int      `yaml:"maxIdleConns"`
		ConnMaxIdleTime Duration `yaml:"connMaxIdleTime"`
		ConnMaxLifetime Duration `yaml:"connMaxLifetime"`
	} `yaml:"database"`

	Signing struct {
		KeyEnv        string `yaml:"keyEnv"`        // env var holding the hex Ed25519 key
		AllowGenerate bool   `yaml:"allowGenerate"` // generate a key if keyEnv is unset
	} `yaml:"signing"`

	STHTicker struct {
		Enable   bool     `yaml:"enable"`
		Interval Duration `yaml:"interval"`
	} `yaml:"sthTicker"`

	Metrics struct {
		Enable bool   `yaml:"enable"`
		Path   string `yaml:"path"`
	} `yaml:"metrics"`

	DefaultProfile string `yaml:"defaultProfile"` // LITE | DEFAULT | STRICT
}

// Load reads, environment-expands, parses YAML, applies defaults, and
// validates, mirroring the teacher's Load pipeline exactly.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	cfg.LogLevel = expandEnvDefault(cfg.LogLevel)
	cfg.Listen = expandEnvDefault(cfg.Listen)
	cfg.Database.URL = expandEnvDefault(cfg.Database.URL)
	cfg.Signing.KeyEnv = expandEnvDefault(cfg.Signing.KeyEnv)
	cfg.Metrics.Path = expandEnvDefault(cfg.Metrics.Path)
	cfg.DefaultProfile = expandEnvDefault(cfg.DefaultProfile)

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(c *Config) {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Listen == "" {
		c.Listen = ":8443"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 2
	}
	if c.Signing.KeyEnv == "" {
		c.Signing.KeyEnv = "TECP_LOG_SIGNING_KEY"
	}
	if c.STHTicker.Interval.Duration == 0 {
		c.STHTicker.Interval = Duration{Duration: 10 * time.Second}
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.DefaultProfile == "" {
		c.DefaultProfile = "DEFAULT"
	}
}

func validate(c *Config) error {
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if c.Listen == "" {
		return errors.New("listen is required")
	}
	switch c.DefaultProfile {
	case "LITE", "DEFAULT", "STRICT":
	default:
		return fmt.Errorf("defaultProfile must be LITE, DEFAULT, or STRICT, got %q", c.DefaultProfile)
	}
	return nil
}

var envRe = regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

// expandEnvDefault replaces ${VAR} with os.Getenv("VAR"), and
// ${VAR:default} with the env value or "default" if unset, identical to
// the teacher's expandEnvDefault.
func expandEnvDefault(s string) string {
	if s == "" {
		return s
	}
	return envRe.ReplaceAllStringFunc(s, func(m string) string {
		parts := envRe.FindStringSubmatch(m)
		if len(parts) != 3 {
			return m
		}
		name := parts[1]
		def := parts[2]
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return def
	})
}
