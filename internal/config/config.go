// Package config loads report settings from built-in defaults, an optional
// YAML file and environment variables. Command-line flags are applied on
// top by the caller.
//
// Sources (in precedence order, highest to lowest):
//  1. Command-line flags
//  2. Environment variables (SF_REPORT_*)
//  3. Configuration file
//  4. Built-in defaults
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownEnvironment is returned for an environment without a login URL.
var ErrUnknownEnvironment = errors.New("unknown environment")

// DefaultPaths are searched, in order, when no config file is given.
var DefaultPaths = []string{
	".sf-bulk-report.yaml",
	".sf-bulk-report.yml",
}

// LoadConfig loads configuration from configPath, or from the first
// existing DefaultPaths entry, then applies environment overrides.
//
// A missing configPath is an error; a missing default file is not.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if err := loadConfigFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		for _, path := range DefaultPaths {
			if _, err := os.Stat(path); err == nil {
				if err := loadConfigFile(path, cfg); err != nil {
					return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
				}
				break
			}
		}
	}

	applyEnvOverrides(cfg)

	cfg.Salesforce.CredentialsFile = expandPath(cfg.Salesforce.CredentialsFile)
	cfg.Cache.File = expandPath(cfg.Cache.File)
	cfg.Output.Dir = expandPath(cfg.Output.Dir)

	return cfg, nil
}

// loadConfigFile reads and parses a YAML config file
func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(cfg *Config) {
	if env := os.Getenv("SF_REPORT_ENV"); env != "" {
		cfg.Salesforce.Environment = env
	}
	if path := os.Getenv("SF_REPORT_CREDS_FILE"); path != "" {
		cfg.Salesforce.CredentialsFile = path
	}
	if dir := os.Getenv("SF_REPORT_OUT_DIR"); dir != "" {
		cfg.Output.Dir = dir
	}
	if backend := os.Getenv("SF_REPORT_CACHE_BACKEND"); backend != "" {
		cfg.Cache.Backend = backend
	}
	if addr := os.Getenv("SF_REPORT_REDIS_ADDR"); addr != "" {
		cfg.Cache.RedisAddr = addr
	}
	if level := os.Getenv("SF_REPORT_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if maxPages := os.Getenv("SF_REPORT_MAX_PAGES"); maxPages != "" {
		if n, err := parsePositiveInt(maxPages); err == nil {
			cfg.Fetch.MaxPages = n
		}
	}
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home := os.Getenv("HOME")
		if home == "" {
			home = os.Getenv("USERPROFILE") // Windows
		}
		path = filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

// parsePositiveInt parses a string to a positive integer
func parsePositiveInt(s string) (int, error) {
	var i int
	_, err := fmt.Sscanf(s, "%d", &i)
	if err != nil {
		return 0, fmt.Errorf("failed to parse integer from '%s': %w", s, err)
	}
	if i <= 0 {
		return 0, fmt.Errorf("value must be positive, got: %d", i)
	}
	return i, nil
}

// LoginURL returns the token endpoint base URL for env. Environment names
// are case-insensitive.
func (c *Config) LoginURL(env string) (string, error) {
	if u, ok := c.Salesforce.LoginURLs[strings.ToLower(env)]; ok && u != "" {
		return u, nil
	}
	return "", fmt.Errorf("%w %q (known: %s)", ErrUnknownEnvironment, env, strings.Join(c.Environments(), ", "))
}

// Environments returns the configured environment names, sorted.
func (c *Config) Environments() []string {
	names := make([]string, 0, len(c.Salesforce.LoginURLs))
	for name := range c.Salesforce.LoginURLs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OutputPath places name in the output directory unless it is absolute.
func (c *Config) OutputPath(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Output.Dir, name)
}

// Validate checks that the configuration is usable. The environment and
// credentials file are checked by the caller, since a cached token makes
// them optional.
func (c *Config) Validate() error {
	if c.Salesforce.Environment != "" {
		if _, err := c.LoginURL(c.Salesforce.Environment); err != nil {
			return err
		}
	}
	if c.Salesforce.TokenPath == "" {
		return fmt.Errorf("token path cannot be empty")
	}
	if c.Salesforce.JobsPath == "" {
		return fmt.Errorf("jobs path cannot be empty")
	}
	if c.Salesforce.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got: %s", c.Salesforce.Timeout)
	}
	switch c.Cache.Backend {
	case BackendFile:
		if c.Cache.File == "" {
			return fmt.Errorf("cache file cannot be empty")
		}
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("redis address cannot be empty")
		}
	default:
		return fmt.Errorf("unknown cache backend %q (want %s or %s)", c.Cache.Backend, BackendFile, BackendRedis)
	}
	if c.Fetch.MaxPages < 0 {
		return fmt.Errorf("max pages cannot be negative, got: %d", c.Fetch.MaxPages)
	}
	if c.Fetch.MaxRecords < 0 {
		return fmt.Errorf("max records cannot be negative, got: %d", c.Fetch.MaxRecords)
	}
	if c.Fetch.PageTimeout < 0 {
		return fmt.Errorf("page timeout cannot be negative, got: %s", c.Fetch.PageTimeout)
	}
	if c.Fetch.WarnUsageRatio < 0 || c.Fetch.BlockUsageRatio < 0 {
		return fmt.Errorf("usage ratios cannot be negative")
	}
	if c.Output.JSONFile == "" || c.Output.CSVFile == "" {
		return fmt.Errorf("output file names cannot be empty")
	}
	return nil
}
