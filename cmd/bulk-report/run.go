package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Sternrassler/sf-bulk-report/internal/config"
	"github.com/Sternrassler/sf-bulk-report/pkg/auth"
	"github.com/Sternrassler/sf-bulk-report/pkg/client"
	"github.com/Sternrassler/sf-bulk-report/pkg/export"
	"github.com/Sternrassler/sf-bulk-report/pkg/logging"
	"github.com/Sternrassler/sf-bulk-report/pkg/metrics"
	"github.com/Sternrassler/sf-bulk-report/pkg/pagination"
	"github.com/Sternrassler/sf-bulk-report/pkg/record"
	"github.com/Sternrassler/sf-bulk-report/pkg/store"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// run executes one report: obtain a token, walk the jobs collection and
// write the outputs.
func run(ctx context.Context, cfg *config.Config, refresh bool) error {
	logger := logging.NewLogger("cli")

	if cfg.Output.MetricsFile != "" {
		defer func() {
			if mErr := metrics.WriteTextfile(cfg.OutputPath(cfg.Output.MetricsFile)); mErr != nil {
				logger.Warn().Err(mErr).Msg("Failed to write metrics file")
			}
		}()
	}

	if err := cfg.Validate(); err != nil {
		return wrapStage(stageConfig, err)
	}

	c, err := client.New(client.Config{
		UserAgent:       userAgent(cfg),
		Timeout:         cfg.Salesforce.Timeout,
		WarnUsageRatio:  cfg.Fetch.WarnUsageRatio,
		BlockUsageRatio: cfg.Fetch.BlockUsageRatio,
	})
	if err != nil {
		return wrapStage(stageConfig, err)
	}
	defer c.Close()

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return wrapStage(stageCache, err)
	}
	defer closeStore()

	result, fromCache, err := loadOrAuthenticate(ctx, cfg, c, st, refresh, logger)
	if err != nil {
		return err
	}

	records, err := fetchJobs(ctx, cfg, c, result)
	if err != nil {
		var httpErr *client.HTTPError
		if fromCache && errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusUnauthorized {
			logger.Warn().Msg("Cached token was rejected; rerun with --refresh to authenticate again")
		}
		return wrapStage(stageFetch, err)
	}

	if err := writeOutputs(cfg, records, logger); err != nil {
		return wrapStage(stageExport, err)
	}

	logger.Info().
		Int("records", len(records)).
		Str("json", cfg.OutputPath(cfg.Output.JSONFile)).
		Msg("Report complete")

	return nil
}

// openStore builds the configured credential store. The returned close
// function is always safe to call.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	switch cfg.Cache.Backend {
	case config.BackendRedis:
		redisClient := redis.NewClient(&redis.Options{
			Addr: cfg.Cache.RedisAddr,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			redisClient.Close()
			return nil, func() {}, fmt.Errorf("connect to redis at %s: %w", cfg.Cache.RedisAddr, err)
		}
		closeFn := func() { _ = redisClient.Close() }
		return store.NewRedisStore(redisClient, cfg.Cache.RedisKey, cfg.Cache.RedisTTL), closeFn, nil
	default:
		return store.NewFileStore(cfg.Cache.File), func() {}, nil
	}
}

// loadOrAuthenticate returns the cached authorization when usable,
// otherwise authenticates and caches the new result. fromCache reports
// which path was taken.
func loadOrAuthenticate(
	ctx context.Context,
	cfg *config.Config,
	c *client.Client,
	st store.Store,
	refresh bool,
	logger zerolog.Logger,
) (result *auth.AuthorizationResult, fromCache bool, err error) {
	haveCreds := cfg.Salesforce.CredentialsFile != "" && cfg.Salesforce.Environment != ""

	// On refresh the cached entry is left in place until Save replaces it.
	if refresh {
		logger.Debug().Msg("Skipping credential cache")
	} else {
		cached, err := st.Load(ctx)
		var corrupt *store.CorruptCacheError
		switch {
		case err == nil:
			logger.Info().Object("authorization", cached).Msg("Using cached authorization")
			return cached, true, nil
		case errors.Is(err, store.ErrCacheMiss):
			logger.Debug().Msg("No cached authorization")
		case errors.As(err, &corrupt) && haveCreds:
			logger.Warn().Err(err).Msg("Ignoring unusable credential cache")
		default:
			return nil, false, wrapStage(stageCache, err)
		}
	}

	if !haveCreds {
		return nil, false, wrapStage(stageAuthenticate,
			errors.New("--creds-file and --env are required when no cached token is available"))
	}

	loginURL, err := cfg.LoginURL(cfg.Salesforce.Environment)
	if err != nil {
		return nil, false, wrapStage(stageAuthenticate, err)
	}

	creds, err := auth.LoadCredentials(cfg.Salesforce.CredentialsFile)
	if err != nil {
		return nil, false, wrapStage(stageAuthenticate, err)
	}

	result, err = auth.New(c).Authenticate(ctx, loginURL, cfg.Salesforce.TokenPath, creds)
	if err != nil {
		return nil, false, wrapStage(stageAuthenticate, err)
	}

	if err := st.Save(ctx, result); err != nil {
		return nil, false, wrapStage(stageCache, err)
	}

	return result, false, nil
}

// fetchJobs walks the jobs collection on the org's instance.
func fetchJobs(ctx context.Context, cfg *config.Config, c *client.Client, result *auth.AuthorizationResult) ([]record.Record, error) {
	fetcher := pagination.NewHTTPPageFetcher(c.WithToken(result.Token()))
	walker := pagination.NewWalker(fetcher, pagination.Config{
		MaxPages:    cfg.Fetch.MaxPages,
		MaxRecords:  cfg.Fetch.MaxRecords,
		PageTimeout: cfg.Fetch.PageTimeout,
	})
	return walker.FetchAll(ctx, result.InstanceURL, cfg.Salesforce.JobsPath)
}

// writeOutputs writes the JSON dump, then the CSV report. An empty job
// list still produces the dump; the CSV is skipped with a warning.
func writeOutputs(cfg *config.Config, records []record.Record, logger zerolog.Logger) error {
	if err := export.WriteJSONFile(cfg.OutputPath(cfg.Output.JSONFile), records); err != nil {
		return err
	}

	err := export.WriteCSVFile(cfg.OutputPath(cfg.Output.CSVFile), records)
	if errors.Is(err, export.ErrEmptyInput) {
		logger.Warn().Msg("No jobs returned; CSV report not written")
		return nil
	}
	return err
}
