package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Sternrassler/sf-bulk-report/pkg/client"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultTokenPath is the Salesforce OAuth2 token endpoint path.
const DefaultTokenPath = "/services/oauth2/token"

var sfAuthAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sf_auth_attempts_total",
	Help: "Total token requests by result (success, rejected, malformed, error)",
}, []string{"result"})

// Authenticator performs the OAuth2 token exchange.
type Authenticator struct {
	client *client.Client
	logger zerolog.Logger
}

// New creates an Authenticator that sends token requests through c.
func New(c *client.Client) *Authenticator {
	return &Authenticator{
		client: c,
		logger: log.With().Str("component", "auth").Logger(),
	}
}

// Authenticate posts creds to baseURL+tokenPath and returns the parsed
// token response. Credentials travel as URL query parameters with an
// empty body, which is what the Salesforce username-password flow accepts.
//
// A non-200 response yields *AuthenticationError. A 200 response that is
// not JSON or lacks a required field yields *client.MalformedResponseError.
func (a *Authenticator) Authenticate(ctx context.Context, baseURL, tokenPath string, creds Credentials) (*AuthorizationResult, error) {
	endpoint, err := url.Parse(strings.TrimRight(baseURL, "/") + tokenPath)
	if err != nil {
		return nil, fmt.Errorf("invalid token endpoint: %w", err)
	}
	endpoint.RawQuery = creds.Values().Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create token request: %w", err)
	}

	a.logger.Info().
		Str("login_url", baseURL).
		Int("params", len(creds)).
		Msg("Requesting access token")

	resp, err := a.client.Do(req)
	if err != nil {
		sfAuthAttempts.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		sfAuthAttempts.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		sfAuthAttempts.WithLabelValues("rejected").Inc()
		authErr := parseAuthError(resp.StatusCode, body)
		a.logger.Warn().
			Int("status", resp.StatusCode).
			Str("error_code", authErr.Code).
			Msg("Token request rejected")
		return nil, authErr
	}

	var result AuthorizationResult
	if err := json.Unmarshal(body, &result); err != nil {
		sfAuthAttempts.WithLabelValues("malformed").Inc()
		return nil, &client.MalformedResponseError{Source: "token response", Err: err}
	}
	if missing := result.MissingFields(); len(missing) > 0 {
		sfAuthAttempts.WithLabelValues("malformed").Inc()
		return nil, &client.MalformedResponseError{Source: "token response", Fields: missing}
	}

	sfAuthAttempts.WithLabelValues("success").Inc()
	a.logger.Info().Object("authorization", &result).Msg("Access token obtained")

	return &result, nil
}

// parseAuthError extracts error/error_description from a failure body,
// falling back to GenericErrorCode.
func parseAuthError(status int, body []byte) *AuthenticationError {
	authErr := &AuthenticationError{StatusCode: status, Code: GenericErrorCode}

	var resp errorResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return authErr
	}
	if resp.Error != "" {
		authErr.Code = resp.Error
	}
	authErr.Description = resp.ErrorDescription
	return authErr
}
