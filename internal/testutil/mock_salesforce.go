// Package testutil provides a mock Salesforce org for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
)

// Default endpoint paths served by MockSalesforce.
const (
	TokenPath = "/services/oauth2/token"
	JobsPath  = "/services/data/v47.0/jobs/ingest"
)

// DefaultAccessToken is issued by the default token handler.
const DefaultAccessToken = "00DMOCK!token"

// MockResponse defines the behavior for a mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
}

// MockSalesforce is a configurable mock of the token and jobs endpoints.
// By default the token endpoint issues DefaultAccessToken with the mock's
// own URL as instance_url, and the jobs endpoint returns one empty page.
type MockSalesforce struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount       int
	TokenRequestCount  int
	LastTokenMethod    string
	LastTokenQuery     url.Values
	LastAuthorizations []string
}

// NewMockSalesforce creates and starts a mock server.
func NewMockSalesforce() *MockSalesforce {
	mock := &MockSalesforce{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		if r.URL.Path == TokenPath {
			mock.TokenRequestCount++
			mock.LastTokenMethod = r.Method
			mock.LastTokenQuery = r.URL.Query()
		} else {
			mock.LastAuthorizations = append(mock.LastAuthorizations, r.Header.Get("Authorization"))
		}
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockSalesforce) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockSalesforce) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockSalesforce) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.TokenRequestCount = 0
	m.LastTokenMethod = ""
	m.LastTokenQuery = nil
	m.LastAuthorizations = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockSalesforce) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockSalesforce) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetJobPages serves the jobs collection as a chain of pages. Each entry
// is the JSON array of records for one page; every page but the last
// links to the next through a relative nextRecordsUrl.
func (m *MockSalesforce) SetJobPages(pages ...string) {
	if len(pages) == 0 {
		pages = []string{`[]`}
	}
	for i, records := range pages {
		path := pagePath(i)
		next := ""
		if i < len(pages)-1 {
			next = pagePath(i + 1)
		}
		body := fmt.Sprintf(`{"done":%t,"nextRecordsUrl":%s,"records":%s}`,
			next == "", jsonString(next), records)
		m.SetResponse(path, NewHealthyResponse(body))
	}
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockSalesforce) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetTokenRequestCount returns the number of token endpoint requests.
func (m *MockSalesforce) GetTokenRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.TokenRequestCount
}

// GetLastTokenQuery returns the query parameters of the last token request.
func (m *MockSalesforce) GetLastTokenQuery() url.Values {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastTokenQuery
}

// GetAuthorizations returns the Authorization headers of non-token requests.
func (m *MockSalesforce) GetAuthorizations() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.LastAuthorizations...)
}

// TokenBody returns a complete token response pointing at instanceURL.
func TokenBody(instanceURL, accessToken string) string {
	body, _ := json.Marshal(map[string]string{
		"id":           instanceURL + "/id/00DMOCK/005MOCK",
		"access_token": accessToken,
		"instance_url": instanceURL,
		"issued_at":    "1700000000000",
		"signature":    "bW9jaw==",
		"token_type":   "Bearer",
	})
	return string(body)
}

// defaultHandler issues a token or an empty jobs page.
func (m *MockSalesforce) defaultHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json;charset=UTF-8")
	w.Header().Set("Sforce-Limit-Info", "api-usage=10/15000")

	switch r.URL.Path {
	case TokenPath:
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(TokenBody(m.server.URL, DefaultAccessToken)))
	case JobsPath:
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"done":true,"nextRecordsUrl":null,"records":[]}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`[{"errorCode":"NOT_FOUND","message":"The requested resource does not exist"}]`))
	}
}

// NewHealthyResponse creates a 200 OK JSON response with usage headers.
func NewHealthyResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers: map[string]string{
			"Content-Type":      "application/json;charset=UTF-8",
			"Sforce-Limit-Info": "api-usage=10/15000",
		},
	}
}

// NewAuthErrorResponse creates a token endpoint rejection.
func NewAuthErrorResponse(code, description string) MockResponse {
	body, _ := json.Marshal(map[string]string{
		"error":             code,
		"error_description": description,
	})
	return MockResponse{
		StatusCode: http.StatusBadRequest,
		Body:       string(body),
		Headers:    map[string]string{"Content-Type": "application/json;charset=UTF-8"},
	}
}

// NewSessionExpiredResponse creates the 401 returned for a stale token.
func NewSessionExpiredResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusUnauthorized,
		Body:       `[{"message":"Session expired or invalid","errorCode":"INVALID_SESSION_ID"}]`,
		Headers:    map[string]string{"Content-Type": "application/json;charset=UTF-8"},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `[{"message":"An unexpected error occurred","errorCode":"UNKNOWN_EXCEPTION"}]`,
		Headers:    map[string]string{"Content-Type": "application/json;charset=UTF-8"},
	}
}

func pagePath(i int) string {
	if i == 0 {
		return JobsPath
	}
	return fmt.Sprintf("%s/750MOCK%04d", JobsPath, i)
}

func jsonString(s string) string {
	if s == "" {
		return "null"
	}
	b, _ := json.Marshal(s)
	return string(b)
}
