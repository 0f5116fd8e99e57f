// Package client provides the Salesforce REST HTTP client with API usage
// tracking, bearer authentication and error handling.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Sternrassler/sf-bulk-report/pkg/limits"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Prometheus metrics for Salesforce client operations.
var (
	sfRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sf_requests_total",
		Help: "Total Salesforce requests by endpoint and status",
	}, []string{"endpoint", "status"})

	sfRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sf_request_duration_seconds",
		Help:    "Salesforce request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"endpoint"})

	sfErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sf_errors_total",
		Help: "Total Salesforce errors by class",
	}, []string{"class"})
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassLimit represents requests blocked by the API usage tracker.
	ErrorClassLimit ErrorClass = "api_limit"
)

// Client is the Salesforce REST client.
type Client struct {
	httpClient *http.Client
	limits     *limits.Tracker
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// User-Agent header sent with every request.
	UserAgent string

	// Timeout bounds each HTTP round trip, including reading the body.
	Timeout time.Duration

	// API usage ratios (see package limits). Zero values use the defaults.
	WarnUsageRatio  float64
	BlockUsageRatio float64
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(userAgent string) Config {
	return Config{
		UserAgent:       userAgent,
		Timeout:         30 * time.Second,
		WarnUsageRatio:  limits.DefaultWarnRatio,
		BlockUsageRatio: limits.DefaultBlockRatio,
	}
}

// New creates a new Salesforce client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive (got %s)", cfg.Timeout)
	}

	logger := log.With().Str("component", "client").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limits: limits.NewTracker(cfg.WarnUsageRatio, cfg.BlockUsageRatio, logger),
		config: cfg,
		logger: logger,
	}, nil
}

// WithToken returns a client that authorizes every request with tok.
// The returned client shares the usage tracker with c.
func (c *Client) WithToken(tok *oauth2.Token) *Client {
	authed := *c
	authed.httpClient = &http.Client{
		Timeout: c.httpClient.Timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(tok),
			Base:   c.httpClient.Transport,
		},
	}
	return &authed
}

// Do performs an HTTP request with usage gating, metrics and logging.
// Non-2xx responses are returned as-is; the caller owns the body.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	endpoint := req.URL.Path

	startTime := time.Now()
	defer func() {
		sfRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	if err := c.limits.CheckRequest(); err != nil {
		sfErrorsTotal.WithLabelValues(string(ErrorClassLimit)).Inc()
		sfRequestsTotal.WithLabelValues(endpoint, "blocked").Inc()
		return nil, err
	}

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("method", req.Method).
		Str("url", redactURL(req.URL)).
		Msg("Executing Salesforce request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// *url.Error repeats the full URL, query string included.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		sfErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		sfRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
		return nil, fmt.Errorf("%s %s: %w", req.Method, redactURL(req.URL), err)
	}

	if err := c.limits.UpdateFromHeaders(resp.Header); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to update API usage from headers")
	}

	sfRequestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()
	if class := classifyStatus(resp.StatusCode); class != "" {
		sfErrorsTotal.WithLabelValues(string(class)).Inc()
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("Salesforce request error")
	}

	return resp, nil
}

// GetJSON performs a GET and decodes a 200 response body into v.
// Any other status yields an *HTTPError carrying the body; an undecodable
// body yields a *MalformedResponseError.
func (c *Client) GetJSON(ctx context.Context, rawURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &HTTPError{
			StatusCode: resp.StatusCode,
			URL:        rawURL,
			Body:       string(body),
		}
	}

	if err := json.Unmarshal(body, v); err != nil {
		return &MalformedResponseError{Source: rawURL, Err: err}
	}

	return nil
}

// classifyStatus categorizes an HTTP status for observability.
func classifyStatus(status int) ErrorClass {
	switch {
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// redactURL drops the query string, which carries credentials on the
// token endpoint.
func redactURL(u *url.URL) string {
	clean := *u
	clean.RawQuery = ""
	clean.User = nil
	return clean.String()
}

// Limits returns the API usage tracker.
func (c *Client) Limits() *limits.Tracker {
	return c.limits
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
