package limits

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// ErrUsageCritical is returned when the org API usage reached the block ratio.
var ErrUsageCritical = errors.New("salesforce api usage critical")

// Prometheus metrics for API usage tracking.
var (
	apiUsageUsed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sf_api_usage_used",
		Help: "API requests used in the current 24h window (Sforce-Limit-Info)",
	})

	apiUsageMax = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sf_api_usage_max",
		Help: "API request allocation of the org (Sforce-Limit-Info)",
	})

	apiUsageBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sf_api_usage_blocks_total",
		Help: "Total number of requests blocked due to critical API usage",
	})
)

// Tracker monitors org API usage and gates requests.
type Tracker struct {
	mu         sync.RWMutex
	state      UsageState
	warnRatio  float64
	blockRatio float64
	logger     zerolog.Logger
}

// NewTracker creates a tracker. Ratios <= 0 fall back to the defaults;
// a block ratio above 1 disables blocking.
func NewTracker(warnRatio, blockRatio float64, logger zerolog.Logger) *Tracker {
	if warnRatio <= 0 {
		warnRatio = DefaultWarnRatio
	}
	if blockRatio <= 0 {
		blockRatio = DefaultBlockRatio
	}
	return &Tracker{
		warnRatio:  warnRatio,
		blockRatio: blockRatio,
		logger:     logger,
	}
}

// State returns a copy of the current usage state.
func (t *Tracker) State() UsageState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// UpdateFromHeaders parses the Sforce-Limit-Info header and updates state.
// Responses without the header (e.g. the token endpoint) are ignored.
func (t *Tracker) UpdateFromHeaders(headers http.Header) error {
	raw := headers.Get(HeaderLimitInfo)
	if raw == "" {
		return nil
	}

	used, max, err := ParseLimitInfo(raw)
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.state = UsageState{Used: used, Max: max, LastUpdate: time.Now()}
	state := t.state
	t.mu.Unlock()

	apiUsageUsed.Set(float64(used))
	apiUsageMax.Set(float64(max))

	switch {
	case state.Ratio() >= t.blockRatio:
		t.logger.Error().
			Int("api_used", used).
			Int("api_max", max).
			Msg("Salesforce API usage CRITICAL - further requests will be blocked")
	case state.Ratio() >= t.warnRatio:
		t.logger.Warn().
			Int("api_used", used).
			Int("api_max", max).
			Msg("Salesforce API usage high")
	default:
		t.logger.Debug().
			Int("api_used", used).
			Int("api_max", max).
			Msg("Salesforce API usage updated")
	}

	return nil
}

// CheckRequest returns ErrUsageCritical if the last observed usage reached
// the block ratio. Unknown usage always allows the request.
func (t *Tracker) CheckRequest() error {
	state := t.State()
	if !state.Known() {
		return nil
	}

	if state.Ratio() >= t.blockRatio {
		apiUsageBlocksTotal.Inc()
		t.logger.Error().
			Int("api_used", state.Used).
			Int("api_max", state.Max).
			Msg("Salesforce API usage critical - blocking request")
		return fmt.Errorf("%w: %d/%d requests used", ErrUsageCritical, state.Used, state.Max)
	}

	return nil
}

// ParseLimitInfo parses a Sforce-Limit-Info value such as "api-usage=25/15000".
// The header may carry several comma separated entries; only api-usage is read.
func ParseLimitInfo(raw string) (used, max int, err error) {
	for _, part := range strings.Split(raw, ",") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || name != "api-usage" {
			continue
		}

		usedStr, maxStr, ok := strings.Cut(value, "/")
		if !ok {
			return 0, 0, fmt.Errorf("parse %s header %q: missing '/'", HeaderLimitInfo, raw)
		}
		if used, err = strconv.Atoi(strings.TrimSpace(usedStr)); err != nil {
			return 0, 0, fmt.Errorf("parse %s used: %w", HeaderLimitInfo, err)
		}
		if max, err = strconv.Atoi(strings.TrimSpace(maxStr)); err != nil {
			return 0, 0, fmt.Errorf("parse %s max: %w", HeaderLimitInfo, err)
		}
		return used, max, nil
	}

	return 0, 0, fmt.Errorf("parse %s header %q: no api-usage entry", HeaderLimitInfo, raw)
}
