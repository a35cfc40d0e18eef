// Package config handles global configuration for the cs CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents configuration stored in ~/.config/cs/config.yml.
// Environment variables (S2_API_KEY, OPENALEX_MAILTO) take precedence and
// are applied by the CLI, not here.
type Config struct {
	S2APIKey       string `yaml:"s2_api_key,omitempty"`
	OpenAlexMailto string `yaml:"openalex_mailto,omitempty"`
	CachePath      string `yaml:"cache_path,omitempty"` // response cache DB; empty means the default
	CacheTTL       string `yaml:"cache_ttl,omitempty"`  // Go duration, e.g. "24h"
	FetchLimit     int    `yaml:"fetch_limit,omitempty"`
}

const (
	// ConfigDir is the directory name under XDG_CONFIG_HOME.
	ConfigDir = "cs"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"
	// CacheFile is the default response cache file name under the user
	// cache directory.
	CacheFile = "responses.db"

	// DefaultCacheTTL bounds how long cached API responses are reused.
	DefaultCacheTTL = 24 * time.Hour
)

// Path returns the path to the global config file. Respects
// XDG_CONFIG_HOME, defaults to ~/.config/cs/config.yml.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, ConfigDir, ConfigFile)
}

// Load reads the global configuration file. Returns an empty config (not
// an error) if the file doesn't exist.
func Load() (*Config, error) {
	path := Path()
	if path == "" {
		return &Config{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.CachePath != "" {
		cfg.CachePath = ExpandTilde(cfg.CachePath)
	}
	return &cfg, nil
}

// Save writes the global configuration file, creating its directory if
// needed.
func (c *Config) Save() error {
	path := Path()
	if path == "" {
		return fmt.Errorf("cannot determine config path")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// ResolvedCachePath returns the configured cache path, or the default
// location under the user cache directory.
func (c *Config) ResolvedCachePath() string {
	if c.CachePath != "" {
		return c.CachePath
	}
	cacheHome, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(cacheHome, ConfigDir, CacheFile)
}

// ResolvedCacheTTL parses the configured TTL, falling back to the default
// on an empty or malformed value.
func (c *Config) ResolvedCacheTTL() time.Duration {
	if c.CacheTTL == "" {
		return DefaultCacheTTL
	}
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return DefaultCacheTTL
	}
	return d
}

// ExpandTilde expands a leading ~ to the user's home directory. Returns
// the original path unchanged otherwise.
func ExpandTilde(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
