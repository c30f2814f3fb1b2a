// Package config loads engine configuration for the brace CLI and for
// applications embedding the engine, using Viper for YAML files with
// BRACE_-prefixed environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/bracetpl/brace"
)

type Config struct {
	Templates   TemplatesConfig   `yaml:"templates" mapstructure:"templates"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Development DevelopmentConfig `yaml:"development" mapstructure:"development"`
}

type TemplatesConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
	Ext string `yaml:"ext" mapstructure:"ext"`
}

type CacheConfig struct {
	Enabled    bool   `yaml:"enabled" mapstructure:"enabled"`
	TTLSeconds int    `yaml:"ttl_seconds" mapstructure:"ttl_seconds"`
	Dir        string `yaml:"dir" mapstructure:"dir"`
}

type DevelopmentConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	Watch   bool `yaml:"watch" mapstructure:"watch"`
}

// Load reads configuration from path, or from ./brace.yaml when path is
// empty. A missing default file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("templates.dir", "./templates")
	v.SetDefault("templates.ext", ".html")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl_seconds", 0)
	v.SetDefault("cache.dir", "./cache")
	v.SetDefault("development.enabled", false)
	v.SetDefault("development.watch", false)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("brace")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("BRACE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the engine cannot honor.
func (c *Config) Validate() error {
	if c.Cache.TTLSeconds < 0 {
		return fmt.Errorf("cache.ttl_seconds must not be negative, got %d", c.Cache.TTLSeconds)
	}
	if c.Cache.Enabled && c.Cache.Dir == "" {
		return fmt.Errorf("cache.dir is required when the cache is enabled")
	}
	if c.Templates.Ext != "" && !strings.HasPrefix(c.Templates.Ext, ".") {
		return fmt.Errorf("templates.ext must start with a dot, got %q", c.Templates.Ext)
	}
	return nil
}

// EngineCache translates the loaded cache section into the engine's cache
// configuration, applying the development-mode flag.
func (c *Config) EngineCache() brace.CacheConfig {
	return brace.CacheConfig{
		Enabled: c.Cache.Enabled,
		TTL:     time.Duration(c.Cache.TTLSeconds) * time.Second,
		Dir:     c.Cache.Dir,
		DevMode: c.Development.Enabled,
	}
}
