package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/tripstats/core/format"
	"github.com/kilianp07/tripstats/core/metrics"
	"github.com/kilianp07/tripstats/core/model"
	"github.com/kilianp07/tripstats/core/worker"
	"github.com/kilianp07/tripstats/infra/mqtt"
)

type Config struct {
	Engine     EngineConfig     `json:"engine"`
	Worker     worker.Config    `json:"worker"`
	MQTT       mqtt.Config      `json:"mqtt"`
	HTTP       HTTPConfig       `json:"http"`
	Metrics    metrics.Config   `json:"metrics"`
	ComputeLog ComputeLogConfig `json:"compute_log"`
	Sentry     SentryConfig     `json:"sentry"`
}

// EngineConfig holds the defaults applied to requests that leave them empty.
type EngineConfig struct {
	Locale   string         `json:"locale"`
	Timezone string         `json:"timezone"`
	Settings model.Settings `json:"settings"`
}

// SetDefaults applies default values.
func (c *EngineConfig) SetDefaults() {
	if c.Locale == "" {
		c.Locale = format.DefaultLocale
	}
}

// Validate checks the timezone name.
func (c EngineConfig) Validate() error {
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("engine.timezone: %w", err)
	}
	return nil
}

// Location resolves Timezone, defaulting to the host zone.
func (c EngineConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// HTTPConfig configures the HTTP API.
type HTTPConfig struct {
	Enabled bool   `json:"enabled"`
	Address string `json:"address"`
	// Token, when set, guards the compute log endpoint.
	Token string `json:"token"`
}

// SetDefaults applies default values.
func (c *HTTPConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
}

// Load reads the configuration file at path, then applies environment
// overrides. A .env file in the working directory is loaded first when
// present. An empty path builds the configuration from the environment only.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies the defaults of every section.
func (c *Config) SetDefaults() {
	c.Engine.SetDefaults()
	c.Worker.SetDefaults()
	c.MQTT.SetDefaults()
	c.HTTP.SetDefaults()
	c.ComputeLog.SetDefaults()
	c.Sentry.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Engine.Validate(); err != nil {
		return err
	}
	if err := c.Worker.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	if err := c.Sentry.Validate(); err != nil {
		return err
	}
	if c.ComputeLog.Enabled {
		if err := c.ComputeLog.Validate(); err != nil {
			return err
		}
	}
	return nil
}
