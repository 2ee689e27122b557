// Package config loads gateway settings from an optional YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is everything the gateway needs to start serving.
type Config struct {
	Port           int    `yaml:"port"`
	APIKey         string `yaml:"api_key"`
	AllowLANAccess bool   `yaml:"allow_lan_access"`
	DatabasePath   string `yaml:"database_path"`
	UpstreamURL    string `yaml:"upstream_url"`
	RetryCap       int    `yaml:"retry_cap"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Port:           8045,
		AllowLANAccess: true,
		DatabasePath:   "gravitygate.db",
		RetryCap:       3,
	}
}

// Load reads the YAML file at path (missing file is fine), then applies
// environment overrides.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	applyEnv(&cfg)

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.RetryCap < 1 {
		cfg.RetryCap = 1
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := os.Getenv("GRAVITYGATE_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("GRAVITYGATE_DB"); v != "" {
		cfg.DatabasePath = v
	}
	if v := os.Getenv("GRAVITYGATE_UPSTREAM_URL"); v != "" {
		cfg.UpstreamURL = v
	}
	if v := os.Getenv("HOST"); v != "" {
		// HOST=127.0.0.1 restricts to localhost; anything else opens LAN.
		cfg.AllowLANAccess = v != "127.0.0.1" && v != "localhost"
	}
}

// BindAddr returns the listen address for the configured port.
func (c Config) BindAddr() string {
	host := "127.0.0.1"
	if c.AllowLANAccess {
		host = "0.0.0.0"
	}
	return fmt.Sprintf("%s:%d", host, c.Port)
}
