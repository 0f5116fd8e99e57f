// Package auth exchanges connected-app credentials for a Salesforce access
// token via the OAuth2 token endpoint.
package auth

import (
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// AuthorizationResult is the token endpoint's success response. It is
// persisted as-is by the credential store, so the JSON field names are
// those of the Salesforce response.
type AuthorizationResult struct {
	ID          string `json:"id"`
	AccessToken string `json:"access_token"`
	InstanceURL string `json:"instance_url"`
	IssuedAt    string `json:"issued_at"`
	Signature   string `json:"signature"`
	TokenType   string `json:"token_type"`
}

// Header returns the Authorization header value, "<token_type> <access_token>".
func (r *AuthorizationResult) Header() string {
	return r.TokenType + " " + r.AccessToken
}

// Token converts the result into an oauth2 token for use with oauth2.Transport.
func (r *AuthorizationResult) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken: r.AccessToken,
		TokenType:   r.TokenType,
	}
}

// MissingFields returns the JSON names of required fields that are empty.
func (r *AuthorizationResult) MissingFields() []string {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"id", r.ID},
		{"access_token", r.AccessToken},
		{"instance_url", r.InstanceURL},
		{"issued_at", r.IssuedAt},
		{"signature", r.Signature},
		{"token_type", r.TokenType},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// MarshalZerologObject logs the result without the access token or signature.
func (r *AuthorizationResult) MarshalZerologObject(e *zerolog.Event) {
	e.Str("id", r.ID).
		Str("instance_url", r.InstanceURL).
		Str("issued_at", r.IssuedAt).
		Str("token_type", r.TokenType)
}
