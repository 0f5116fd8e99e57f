package pagination

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Sternrassler/sf-bulk-report/pkg/record"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// ErrPageLimit indicates the walk needed more pages than Config.MaxPages.
	ErrPageLimit = errors.New("page limit exceeded")

	// ErrRecordLimit indicates the walk accumulated more than Config.MaxRecords.
	ErrRecordLimit = errors.New("record limit exceeded")

	// ErrCursorCycle indicates a cursor pointed at an already fetched page.
	ErrCursorCycle = errors.New("pagination cursor cycle")
)

var (
	sfPagesFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sf_pages_fetched_total",
		Help: "Total collection pages fetched",
	})

	sfRecordsFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sf_records_fetched_total",
		Help: "Total collection records accumulated",
	})

	sfWalkDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sf_pagination_walk_duration_seconds",
		Help:    "Duration of complete pagination walks",
		Buckets: []float64{0.5, 1, 5, 15, 60, 300},
	})
)

// progressEvery controls how often walk progress is logged.
const progressEvery = 50

// Config holds walker configuration.
type Config struct {
	// MaxPages bounds the number of pages fetched. Zero means unlimited.
	MaxPages int

	// MaxRecords bounds the number of records accumulated. Zero means unlimited.
	MaxRecords int

	// PageTimeout bounds each page fetch. Zero disables the per-page deadline.
	PageTimeout time.Duration
}

// DefaultConfig returns an unlimited walk with a 60s per-page timeout.
func DefaultConfig() Config {
	return Config{
		PageTimeout: 60 * time.Second,
	}
}

// Walker follows nextRecordsUrl cursors sequentially.
type Walker struct {
	fetcher PageFetcher
	config  Config
	logger  zerolog.Logger
}

// NewWalker creates a Walker. Negative limits are treated as unlimited.
func NewWalker(fetcher PageFetcher, config Config) *Walker {
	if config.MaxPages < 0 {
		config.MaxPages = 0
	}
	if config.MaxRecords < 0 {
		config.MaxRecords = 0
	}
	if config.PageTimeout < 0 {
		config.PageTimeout = 0
	}

	return &Walker{
		fetcher: fetcher,
		config:  config,
		logger:  log.With().Str("component", "pagination").Logger(),
	}
}

// FetchAll fetches baseURL+initialPath and every page reachable through
// nextRecordsUrl, returning all records in order. The result is never nil.
// Any page error aborts the walk and discards accumulated records.
func (w *Walker) FetchAll(ctx context.Context, baseURL, initialPath string) ([]record.Record, error) {
	start := time.Now()
	defer func() {
		sfWalkDuration.Observe(time.Since(start).Seconds())
	}()

	records := make([]record.Record, 0)
	seen := make(map[string]struct{})
	pages := 0

	for next := initialPath; next != ""; {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pageURL := resolveCursor(baseURL, next)
		if _, dup := seen[pageURL]; dup {
			return nil, fmt.Errorf("%w: %s", ErrCursorCycle, pageURL)
		}
		seen[pageURL] = struct{}{}

		if w.config.MaxPages > 0 && pages >= w.config.MaxPages {
			return nil, fmt.Errorf("%w: more than %d pages", ErrPageLimit, w.config.MaxPages)
		}

		page, err := w.fetchPage(ctx, pageURL)
		if err != nil {
			w.logger.Warn().
				Err(err).
				Int("page", pages+1).
				Int("records_so_far", len(records)).
				Msg("Page fetch failed")
			return nil, fmt.Errorf("page %d: %w", pages+1, err)
		}
		pages++
		sfPagesFetched.Inc()
		sfRecordsFetched.Add(float64(len(page.Records)))

		records = append(records, page.Records...)
		if w.config.MaxRecords > 0 && len(records) > w.config.MaxRecords {
			return nil, fmt.Errorf("%w: more than %d records", ErrRecordLimit, w.config.MaxRecords)
		}

		w.logger.Debug().
			Int("page", pages).
			Int("records", len(page.Records)).
			Bool("done", page.Done).
			Bool("has_next", page.NextRecordsURL != "").
			Msg("Page fetched")

		if pages%progressEvery == 0 {
			w.logger.Info().
				Int("pages", pages).
				Int("records", len(records)).
				Msg("Fetch progress")
		}

		next = page.NextRecordsURL
	}

	w.logger.Info().
		Str("path", initialPath).
		Int("pages", pages).
		Int("records", len(records)).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return records, nil
}

func (w *Walker) fetchPage(ctx context.Context, pageURL string) (*Page, error) {
	if w.config.PageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.config.PageTimeout)
		defer cancel()
	}
	return w.fetcher.FetchPage(ctx, pageURL)
}

// resolveCursor returns absolute cursors unchanged and appends relative
// ones to baseURL.
func resolveCursor(baseURL, cursor string) string {
	if u, err := url.Parse(cursor); err == nil && u.IsAbs() {
		return cursor
	}
	if !strings.HasPrefix(cursor, "/") {
		cursor = "/" + cursor
	}
	return strings.TrimRight(baseURL, "/") + cursor
}
