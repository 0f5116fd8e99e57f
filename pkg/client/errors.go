package client

import (
	"fmt"
	"strings"
)

// maxErrorBody bounds how much of a response body Error() prints.
const maxErrorBody = 512

// HTTPError is returned when a REST endpoint answers with a non-200 status.
type HTTPError struct {
	StatusCode int
	URL        string
	Body       string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody] + "..."
	}
	if body == "" {
		return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("unexpected status %d from %s: %s", e.StatusCode, e.URL, body)
}

// Class returns the error class of the status code.
func (e *HTTPError) Class() ErrorClass {
	return classifyStatus(e.StatusCode)
}

// MalformedResponseError is returned when a response body cannot be decoded
// or lacks required fields.
type MalformedResponseError struct {
	// Source names the response (an URL or a logical name such as "token response").
	Source string

	// Fields lists the required fields that were missing.
	Fields []string

	// Err is the underlying decode error, if any.
	Err error
}

// Error implements the error interface.
func (e *MalformedResponseError) Error() string {
	switch {
	case len(e.Fields) > 0:
		return fmt.Sprintf("malformed response from %s: missing required fields: %s",
			e.Source, strings.Join(e.Fields, ", "))
	case e.Err != nil:
		return fmt.Sprintf("malformed response from %s: %v", e.Source, e.Err)
	default:
		return fmt.Sprintf("malformed response from %s", e.Source)
	}
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}
