package gateway

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/docgate/scrub"
)

// Config holds the full docgate configuration.
type Config struct {
	Listen      string       `yaml:"listen"`
	ScratchDir  string       `yaml:"scratch_dir"`
	MaxUploadMB int          `yaml:"max_upload_mb"`
	DBPath      string       `yaml:"db_path"`
	LogLevel    string       `yaml:"log_level"`
	RateLimit   bool         `yaml:"rate_limit"`
	Scrub       scrub.Config `yaml:"scrub"`
}

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen:      ":8090",
		ScratchDir:  "scratch",
		MaxUploadMB: 50,
		DBPath:      "docgate.db",
		LogLevel:    "info",
		Scrub:       scrub.DefaultConfig(),
	}
}

// LoadConfig reads and parses a YAML config file. Returns DefaultConfig merged with the file.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks that required fields are present and values are sane.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen is required")
	}
	if c.ScratchDir == "" {
		return fmt.Errorf("scratch_dir is required")
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("max_upload_mb must be > 0")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log_level %q (use debug, info, warn or error)", c.LogLevel)
	}
	return nil
}

// MaxUploadBytes converts the configured ceiling to bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}
