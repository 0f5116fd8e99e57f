package main

import (
	"fmt"
	"time"

	"github.com/Sternrassler/sf-bulk-report/internal/config"
	"github.com/Sternrassler/sf-bulk-report/pkg/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// options holds the raw flag values.
type options struct {
	configPath   string
	credsFile    string
	env          string
	refresh      bool
	outDir       string
	jsonFile     string
	csvFile      string
	cacheFile    string
	cacheBackend string
	redisAddr    string
	maxPages     int
	maxRecords   int
	timeout      time.Duration
	logLevel     string
	logPretty    bool
	metricsFile  string
}

func newRootCommand() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "bulk-report",
		Short: "Export Salesforce Bulk API ingest jobs to JSON and CSV",
		Long: `bulk-report authenticates against a Salesforce org, walks the Bulk API 2.0
ingest job list and writes it to Bulk_API_Jobs.json and "Bulk API Report.csv".

The token response is cached (oauth_response.json by default) and reused by
later runs, so --creds-file and --env are only needed for the first run or
together with --refresh.

Exit codes: 0 success, 2 authentication or credential cache error,
3 fetch error, 4 export error, 1 anything else.`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Don't show usage on error
		SilenceErrors: true, // main prints the error
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(opts.configPath)
			if err != nil {
				return wrapStage(stageConfig, err)
			}
			applyFlags(cmd.Flags(), &opts, cfg)

			logging.Setup(logging.Config{
				Level:      logging.ParseLevel(cfg.Logging.Level),
				Pretty:     cfg.Logging.Pretty,
				AutoPretty: true,
				Output:     cmd.ErrOrStderr(),
			})

			return run(cmd.Context(), cfg, opts.refresh)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "Config file (default: .sf-bulk-report.yaml if present)")
	flags.StringVar(&opts.credsFile, "creds-file", "", "JSON file with token request parameters (client_id, client_secret, username, password, grant_type)")
	flags.StringVar(&opts.env, "env", "", "Org environment: prod (login.salesforce.com) or dev (test.salesforce.com)")
	flags.BoolVar(&opts.refresh, "refresh", false, "Ignore and replace the cached token")
	flags.StringVar(&opts.outDir, "out-dir", "", "Directory for output files (default: current directory)")
	flags.StringVar(&opts.jsonFile, "json-file", "", "JSON dump file name (default: Bulk_API_Jobs.json)")
	flags.StringVar(&opts.csvFile, "csv-file", "", "CSV report file name (default: \"Bulk API Report.csv\")")
	flags.StringVar(&opts.cacheFile, "cache-file", "", "Token cache file for the file backend (default: oauth_response.json)")
	flags.StringVar(&opts.cacheBackend, "cache-backend", "", "Token cache backend: file or redis (default: file)")
	flags.StringVar(&opts.redisAddr, "redis-addr", "", "Redis address for the redis backend (default: localhost:6379)")
	flags.IntVar(&opts.maxPages, "max-pages", 0, "Abort after this many pages (0: unlimited)")
	flags.IntVar(&opts.maxRecords, "max-records", 0, "Abort after this many records (0: unlimited)")
	flags.DurationVar(&opts.timeout, "timeout", 0, "HTTP request timeout (default: 30s)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (default: info)")
	flags.BoolVar(&opts.logPretty, "log-pretty", false, "Human-readable log output")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this .prom file after the run")

	return cmd
}

// applyFlags overrides config values with explicitly set flags.
func applyFlags(flags *pflag.FlagSet, opts *options, cfg *config.Config) {
	set := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}

	set("creds-file", func() { cfg.Salesforce.CredentialsFile = opts.credsFile })
	set("env", func() { cfg.Salesforce.Environment = opts.env })
	set("out-dir", func() { cfg.Output.Dir = opts.outDir })
	set("json-file", func() { cfg.Output.JSONFile = opts.jsonFile })
	set("csv-file", func() { cfg.Output.CSVFile = opts.csvFile })
	set("cache-file", func() { cfg.Cache.File = opts.cacheFile })
	set("cache-backend", func() { cfg.Cache.Backend = opts.cacheBackend })
	set("redis-addr", func() { cfg.Cache.RedisAddr = opts.redisAddr })
	set("max-pages", func() { cfg.Fetch.MaxPages = opts.maxPages })
	set("max-records", func() { cfg.Fetch.MaxRecords = opts.maxRecords })
	set("timeout", func() { cfg.Salesforce.Timeout = opts.timeout })
	set("log-level", func() { cfg.Logging.Level = opts.logLevel })
	set("log-pretty", func() { cfg.Logging.Pretty = opts.logPretty })
	set("metrics-file", func() { cfg.Output.MetricsFile = opts.metricsFile })
}

// userAgent identifies the tool to Salesforce.
func userAgent(cfg *config.Config) string {
	if cfg.Salesforce.UserAgent != "" {
		return cfg.Salesforce.UserAgent
	}
	return fmt.Sprintf("sf-bulk-report/%s", version)
}
