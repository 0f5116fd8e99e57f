package config

import "time"

// Config represents the complete configuration of a report run.
type Config struct {
	Salesforce SalesforceConfig `yaml:"salesforce"`
	Cache      CacheConfig      `yaml:"cache"`
	Fetch      FetchConfig      `yaml:"fetch"`
	Output     OutputConfig     `yaml:"output"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// SalesforceConfig selects the org environment and the endpoints used.
type SalesforceConfig struct {
	// Environment is a key of LoginURLs, typically "prod" or "dev".
	Environment     string            `yaml:"environment"`
	CredentialsFile string            `yaml:"credentials_file"`
	LoginURLs       map[string]string `yaml:"login_urls"`
	TokenPath       string            `yaml:"token_path"`
	JobsPath        string            `yaml:"jobs_path"`
	// UserAgent defaults to sf-bulk-report/<version>.
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
}

// CacheConfig controls where the authorization result is kept.
type CacheConfig struct {
	Backend   string        `yaml:"backend"` // "file" or "redis"
	File      string        `yaml:"file"`
	RedisAddr string        `yaml:"redis_addr"`
	RedisKey  string        `yaml:"redis_key"`
	RedisTTL  time.Duration `yaml:"redis_ttl"`
}

// FetchConfig bounds the pagination walk and API usage.
type FetchConfig struct {
	MaxPages        int           `yaml:"max_pages"`
	MaxRecords      int           `yaml:"max_records"`
	PageTimeout     time.Duration `yaml:"page_timeout"`
	WarnUsageRatio  float64       `yaml:"warn_usage_ratio"`
	BlockUsageRatio float64       `yaml:"block_usage_ratio"`
}

// OutputConfig names the files a run produces. Relative file names are
// placed in Dir.
type OutputConfig struct {
	Dir         string `yaml:"dir"`
	JSONFile    string `yaml:"json_file"`
	CSVFile     string `yaml:"csv_file"`
	MetricsFile string `yaml:"metrics_file"`
}

// LoggingConfig controls log verbosity and format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Backend names.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Salesforce: SalesforceConfig{
			LoginURLs: map[string]string{
				"prod": "https://login.salesforce.com",
				"dev":  "https://test.salesforce.com",
			},
			TokenPath: "/services/oauth2/token",
			JobsPath:  "/services/data/v47.0/jobs/ingest",
			Timeout:   30 * time.Second,
		},
		Cache: CacheConfig{
			Backend:   BackendFile,
			File:      "oauth_response.json",
			RedisAddr: "localhost:6379",
			RedisKey:  "sf-bulk-report:oauth_response",
		},
		Fetch: FetchConfig{
			PageTimeout:     60 * time.Second,
			WarnUsageRatio:  0.80,
			BlockUsageRatio: 0.98,
		},
		Output: OutputConfig{
			Dir:      ".",
			JSONFile: "Bulk_API_Jobs.json",
			CSVFile:  "Bulk API Report.csv",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
