// Package limits tracks Salesforce org API usage and gates requests.
// It reads the Sforce-Limit-Info response header ("api-usage=USED/MAX")
// that Salesforce attaches to every REST response.
package limits

import (
	"time"
)

// HeaderLimitInfo is the response header carrying org API usage.
const HeaderLimitInfo = "Sforce-Limit-Info"

// Default usage ratios.
const (
	// DefaultWarnRatio logs a warning once used/max reaches this value.
	DefaultWarnRatio = 0.80

	// DefaultBlockRatio blocks further requests once used/max reaches this value.
	// Exhausting the 24h allocation locks out every integration of the org.
	DefaultBlockRatio = 0.98
)

// UsageState represents the last observed API usage of the org.
type UsageState struct {
	// Used is the number of API requests consumed in the rolling 24h window.
	Used int `json:"used"`

	// Max is the 24h allocation of the org.
	Max int `json:"max"`

	// LastUpdate is when the header was last observed.
	LastUpdate time.Time `json:"last_update"`
}

// Known reports whether the state was populated from a response header.
func (s UsageState) Known() bool {
	return s.Max > 0
}

// Ratio returns Used/Max, or 0 when the allocation is unknown.
func (s UsageState) Ratio() float64 {
	if !s.Known() {
		return 0
	}
	return float64(s.Used) / float64(s.Max)
}

// Remaining returns the requests left in the window (never negative).
func (s UsageState) Remaining() int {
	if !s.Known() || s.Used >= s.Max {
		return 0
	}
	return s.Max - s.Used
}

// IsStale returns true if the state is older than maxAge.
func (s UsageState) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}
