package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Salesforce.TokenPath != "/services/oauth2/token" {
		t.Errorf("TokenPath = %s", cfg.Salesforce.TokenPath)
	}
	if cfg.Salesforce.JobsPath != "/services/data/v47.0/jobs/ingest" {
		t.Errorf("JobsPath = %s", cfg.Salesforce.JobsPath)
	}
	if cfg.Salesforce.Timeout != 30*time.Second {
		t.Errorf("Timeout = %s, want 30s", cfg.Salesforce.Timeout)
	}
	if cfg.Cache.Backend != BackendFile || cfg.Cache.File != "oauth_response.json" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Output.JSONFile != "Bulk_API_Jobs.json" {
		t.Errorf("JSONFile = %s", cfg.Output.JSONFile)
	}
	if cfg.Output.CSVFile != "Bulk API Report.csv" {
		t.Errorf("CSVFile = %s", cfg.Output.CSVFile)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoginURL(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		env      string
		expected string
		wantErr  bool
	}{
		{"prod", "https://login.salesforce.com", false},
		{"dev", "https://test.salesforce.com", false},
		{"PROD", "https://login.salesforce.com", false},
		{"staging", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			got, err := cfg.LoginURL(tt.env)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownEnvironment) {
					t.Errorf("LoginURL(%q) error = %v, want ErrUnknownEnvironment", tt.env, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoginURL(%q) failed: %v", tt.env, err)
			}
			if got != tt.expected {
				t.Errorf("LoginURL(%q) = %s, want %s", tt.env, got, tt.expected)
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
salesforce:
  environment: sandbox
  credentials_file: /etc/sf/creds.json
  login_urls:
    sandbox: https://mycompany--uat.sandbox.my.salesforce.com
  timeout: 10s

cache:
  backend: redis
  redis_addr: redis:6379
  redis_ttl: 1h

fetch:
  max_pages: 20
  page_timeout: 5s

output:
  dir: /tmp/reports
  metrics_file: /var/lib/node_exporter/sf_bulk_report.prom

logging:
  level: debug
  pretty: true
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Salesforce.Environment != "sandbox" {
		t.Errorf("Environment = %s, want sandbox", cfg.Salesforce.Environment)
	}
	if got, _ := cfg.LoginURL("sandbox"); got != "https://mycompany--uat.sandbox.my.salesforce.com" {
		t.Errorf("LoginURL(sandbox) = %s", got)
	}
	if got, _ := cfg.LoginURL("prod"); got != "https://login.salesforce.com" {
		t.Errorf("default prod login URL lost after merge: %s", got)
	}
	if cfg.Salesforce.Timeout != 10*time.Second {
		t.Errorf("Timeout = %s, want 10s", cfg.Salesforce.Timeout)
	}
	if cfg.Cache.Backend != BackendRedis || cfg.Cache.RedisAddr != "redis:6379" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Cache.RedisTTL != time.Hour {
		t.Errorf("RedisTTL = %s, want 1h", cfg.Cache.RedisTTL)
	}
	if cfg.Fetch.MaxPages != 20 || cfg.Fetch.PageTimeout != 5*time.Second {
		t.Errorf("Fetch = %+v", cfg.Fetch)
	}
	if cfg.Output.JSONFile != "Bulk_API_Jobs.json" {
		t.Errorf("unset JSONFile should keep default, got %s", cfg.Output.JSONFile)
	}
	if cfg.Logging.Level != "debug" || !cfg.Logging.Pretty {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() failed: %v", err)
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("fetch: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Errorf("LoadConfig() error = %v, want parse error", err)
	}
}

func TestLoadConfig_DefaultPath(t *testing.T) {
	t.Chdir(t.TempDir())
	if err := os.WriteFile(".sf-bulk-report.yaml", []byte("salesforce:\n  environment: dev\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Salesforce.Environment != "dev" {
		t.Errorf("Environment = %s, want dev", cfg.Salesforce.Environment)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SF_REPORT_ENV", "dev")
	t.Setenv("SF_REPORT_CREDS_FILE", "/run/secrets/sf.json")
	t.Setenv("SF_REPORT_OUT_DIR", "/out")
	t.Setenv("SF_REPORT_CACHE_BACKEND", "redis")
	t.Setenv("SF_REPORT_REDIS_ADDR", "cache:6379")
	t.Setenv("SF_REPORT_LOG_LEVEL", "warn")
	t.Setenv("SF_REPORT_MAX_PAGES", "7")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Salesforce.Environment != "dev" {
		t.Errorf("Environment = %s", cfg.Salesforce.Environment)
	}
	if cfg.Salesforce.CredentialsFile != "/run/secrets/sf.json" {
		t.Errorf("CredentialsFile = %s", cfg.Salesforce.CredentialsFile)
	}
	if cfg.Output.Dir != "/out" {
		t.Errorf("Output.Dir = %s", cfg.Output.Dir)
	}
	if cfg.Cache.Backend != BackendRedis || cfg.Cache.RedisAddr != "cache:6379" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Level = %s", cfg.Logging.Level)
	}
	if cfg.Fetch.MaxPages != 7 {
		t.Errorf("MaxPages = %d, want 7", cfg.Fetch.MaxPages)
	}
}

func TestEnvOverrides_InvalidMaxPagesIgnored(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SF_REPORT_MAX_PAGES", "-3")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Fetch.MaxPages != 0 {
		t.Errorf("MaxPages = %d, want 0", cfg.Fetch.MaxPages)
	}
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/test")
	t.Setenv("SF_DIR", "/data")

	tests := []struct {
		input    string
		expected string
	}{
		{"~/creds.json", "/home/test/creds.json"},
		{"$SF_DIR/out", "/data/out"},
		{"relative.json", "relative.json"},
	}

	for _, tt := range tests {
		if got := expandPath(tt.input); got != tt.expected {
			t.Errorf("expandPath(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestOutputPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output.Dir = "/reports"

	if got := cfg.OutputPath("Bulk API Report.csv"); got != "/reports/Bulk API Report.csv" {
		t.Errorf("OutputPath(relative) = %s", got)
	}
	if got := cfg.OutputPath("/abs/out.json"); got != "/abs/out.json" {
		t.Errorf("OutputPath(absolute) = %s", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"known environment", func(c *Config) { c.Salesforce.Environment = "dev" }, false},
		{"unknown environment", func(c *Config) { c.Salesforce.Environment = "qa" }, true},
		{"zero timeout", func(c *Config) { c.Salesforce.Timeout = 0 }, true},
		{"unknown backend", func(c *Config) { c.Cache.Backend = "memcached" }, true},
		{"redis without address", func(c *Config) { c.Cache.Backend = BackendRedis; c.Cache.RedisAddr = "" }, true},
		{"negative max pages", func(c *Config) { c.Fetch.MaxPages = -1 }, true},
		{"negative max records", func(c *Config) { c.Fetch.MaxRecords = -1 }, true},
		{"empty csv name", func(c *Config) { c.Output.CSVFile = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
