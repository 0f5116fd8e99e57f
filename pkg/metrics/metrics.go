// Package metrics provides centralized Prometheus metrics registry for the
// report runner. All metrics are defined in their respective packages
// (client, auth, limits, pagination, store) to maintain modularity and
// avoid circular dependencies.
//
// A report run is a short-lived process, so instead of serving /metrics it
// dumps the registry to a file for node_exporter's textfile collector.
package metrics

import (
	"fmt"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the runner.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the source written by WriteTextfile.
var Gatherer = prometheus.DefaultGatherer

// WriteTextfile writes every registered metric to path in the text
// exposition format. node_exporter only picks up files ending in .prom.
func WriteTextfile(path string) error {
	return WriteTextfileFrom(path, Gatherer)
}

// WriteTextfileFrom writes the metrics gathered from g to path.
func WriteTextfileFrom(path string, g prometheus.Gatherer) error {
	if filepath.Ext(path) != ".prom" {
		return fmt.Errorf("metrics file %q must have a .prom extension", path)
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Metrics Documentation
//
// API Usage Metrics (pkg/limits):
//   - sf_api_usage_used (Gauge): API requests used in the org's rolling 24h window
//   - sf_api_usage_max (Gauge): API request allowance of the org
//   - sf_api_usage_blocks_total (Counter): Requests blocked at the critical usage ratio
//
// Request Metrics (pkg/client):
//   - sf_requests_total{endpoint, status} (Counter): Total requests by endpoint and HTTP status
//   - sf_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - sf_errors_total{class} (Counter): Errors by class (client, server, network, api_limit)
//
// Authentication Metrics (pkg/auth):
//   - sf_auth_attempts_total{result} (Counter): Token requests by result (success, rejected, malformed, error)
//
// Credential Cache Metrics (pkg/store):
//   - sf_credential_cache_hits_total{backend} (Counter): Loads that returned a usable token
//   - sf_credential_cache_misses_total{backend} (Counter): Loads that found nothing stored
//   - sf_credential_cache_errors_total{backend, operation} (Counter): Failed load/save/clear operations
//
// Pagination Metrics (pkg/pagination):
//   - sf_pages_fetched_total (Counter): Collection pages fetched
//   - sf_records_fetched_total (Counter): Collection records accumulated
//   - sf_pagination_walk_duration_seconds (Histogram): Duration of complete walks
//
// Example Prometheus Queries:
//
//   # API allowance consumed
//   sf_api_usage_used / sf_api_usage_max
//
//   # Token requests avoided by the cache
//   sum(sf_credential_cache_hits_total) / (sum(sf_credential_cache_hits_total) + sum(sf_auth_attempts_total))
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(sf_request_duration_seconds_bucket[1h]))
