// Package config loads the optional espalier.yaml settings file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "espalier.yaml"

// Config holds the settings shared by the CLI commands.
type Config struct {
	// Dir is the profile repository.
	Dir string `yaml:"dir" json:"dir"`
	// Catalogs is the base URL catalog hrefs resolve against. Empty means Dir.
	Catalogs    string      `yaml:"catalogs" json:"catalogs"`
	LogLevel    string      `yaml:"log_level" json:"log_level"`
	Parallelism int         `yaml:"parallelism" json:"parallelism"`
	Cache       CacheConfig `yaml:"cache" json:"cache"`
	Serve       ServeConfig `yaml:"serve" json:"serve"`
}

// CacheConfig selects the resolved catalog cache. Redis wins when both are set.
type CacheConfig struct {
	// Dir enables the file cache rooted at this directory.
	Dir   string      `yaml:"dir" json:"dir"`
	Redis RedisConfig `yaml:"redis" json:"redis"`
}

// RedisConfig configures the Redis cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string `yaml:"addr" json:"addr"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
	TTL      string `yaml:"ttl" json:"ttl"`
	Prefix   string `yaml:"prefix" json:"prefix"`
}

// ServeConfig configures the HTTP server.
type ServeConfig struct {
	Port int `yaml:"port" json:"port"`
}

// Default returns the settings used when no file is present.
func Default() Config {
	return Config{
		Dir:         ".",
		LogLevel:    "info",
		Parallelism: 4,
		Serve:       ServeConfig{Port: 8080},
	}
}

// Load reads a configuration file (YAML or JSON) over the defaults.
// A missing file is not an error: the defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		// Default to YAML
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}

	if _, err := cfg.Cache.Redis.TTLDuration(); err != nil {
		return cfg, err
	}
	if cfg.Parallelism < 0 {
		return cfg, fmt.Errorf("parallelism must not be negative, got %d", cfg.Parallelism)
	}
	return cfg, nil
}

// CatalogBase returns the base URL for catalog hrefs.
func (c Config) CatalogBase() string {
	if c.Catalogs != "" {
		return c.Catalogs
	}
	return c.Dir
}

// TTLDuration parses TTL. An empty TTL means entries never expire.
func (r RedisConfig) TTLDuration() (time.Duration, error) {
	if r.TTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(r.TTL)
	if err != nil {
		return 0, fmt.Errorf("invalid cache.redis.ttl %q: %w", r.TTL, err)
	}
	return d, nil
}
