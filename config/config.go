// Package config loads pagesnap settings from defaults, a YAML file and the
// environment. Command-line flags are applied last by the cmd package.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gaurav-prasanna/pagesnap/core/assemble"
)

// Config is the top-level pagesnap configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig controls the HTTP front controller.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	PreviewRate     float64       `yaml:"preview_rate"` // previews per second, 0 disables limiting
	PreviewBurst    int           `yaml:"preview_burst"`
	MaxFormBytes    int64         `yaml:"max_form_bytes"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// SnapshotConfig bounds a single snapshot.
type SnapshotConfig struct {
	PageTimeout     time.Duration `yaml:"page_timeout"`
	ResourceTimeout time.Duration `yaml:"resource_timeout"`
	MaxResources    int           `yaml:"max_resources"`
	UserAgent       string        `yaml:"user_agent"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	InlineFonts     bool          `yaml:"inline_fonts"`
	MaxFonts        int           `yaml:"max_fonts"`
	RespectRobots   bool          `yaml:"respect_robots"`
	Pretty          *bool         `yaml:"pretty"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Default returns the built-in configuration.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// LoadFile reads a YAML configuration file on top of the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":5000"
	}
	if c.Server.PreviewBurst <= 0 {
		c.Server.PreviewBurst = 5
	}
	if c.Server.MaxFormBytes <= 0 {
		c.Server.MaxFormBytes = 32 << 20
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout <= 0 {
		// A preview can spend 10s on the page and 5s on each of 20 resources.
		c.Server.WriteTimeout = 3 * time.Minute
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}

	def := assemble.DefaultConfig()
	if c.Snapshot.PageTimeout <= 0 {
		c.Snapshot.PageTimeout = def.PageTimeout
	}
	if c.Snapshot.ResourceTimeout <= 0 {
		c.Snapshot.ResourceTimeout = def.ResourceTimeout
	}
	if c.Snapshot.MaxResources <= 0 {
		c.Snapshot.MaxResources = def.MaxResources
	}
	if c.Snapshot.MaxFonts <= 0 {
		c.Snapshot.MaxFonts = def.MaxFonts
	}
	if c.Snapshot.MaxBodyBytes <= 0 {
		c.Snapshot.MaxBodyBytes = 10 << 20
	}
	if c.Snapshot.Pretty == nil {
		pretty := def.Pretty
		c.Snapshot.Pretty = &pretty
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// ApplyEnv overrides settings from the environment. PORT is honored for
// hosting platforms that assign one.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if port := getenv("PORT"); port != "" {
		c.Server.Addr = ":" + port
	}
	if addr := getenv("PAGESNAP_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if lvl := getenv("PAGESNAP_LOG_LEVEL"); lvl != "" {
		c.Log.Level = lvl
	}
	if v := getenv("PAGESNAP_MAX_RESOURCES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PAGESNAP_MAX_RESOURCES: %w", err)
		}
		c.Snapshot.MaxResources = n
	}
	return nil
}

// Validate checks that limits and enum values are sane.
func (c *Config) Validate() error {
	if c.Snapshot.PageTimeout <= 0 || c.Snapshot.ResourceTimeout <= 0 {
		return fmt.Errorf("snapshot timeouts must be > 0")
	}
	if c.Snapshot.MaxResources <= 0 {
		return fmt.Errorf("max_resources must be > 0")
	}
	if c.Snapshot.MaxFonts <= 0 {
		return fmt.Errorf("max_fonts must be > 0")
	}
	if c.Server.PreviewRate < 0 {
		return fmt.Errorf("preview_rate must be >= 0")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log level %q (use debug, info, warn or error)", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported log format %q (use text or json)", c.Log.Format)
	}
	return nil
}

// Assembler converts the snapshot section into assembler limits.
func (c *Config) Assembler() assemble.Config {
	return assemble.Config{
		PageTimeout:     c.Snapshot.PageTimeout,
		ResourceTimeout: c.Snapshot.ResourceTimeout,
		MaxResources:    c.Snapshot.MaxResources,
		InlineFonts:     c.Snapshot.InlineFonts,
		MaxFonts:        c.Snapshot.MaxFonts,
		Pretty:          c.Snapshot.Pretty == nil || *c.Snapshot.Pretty,
	}
}
