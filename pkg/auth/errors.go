package auth

import "fmt"

// GenericErrorCode is used when the token endpoint does not supply an error code.
const GenericErrorCode = "authentication_failed"

// AuthenticationError is returned when the token endpoint rejects the request.
type AuthenticationError struct {
	StatusCode  int
	Code        string
	Description string
}

// Error implements the error interface.
func (e *AuthenticationError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("authentication failed (status %d): %s", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("authentication failed (status %d): %s: %s", e.StatusCode, e.Code, e.Description)
}

// errorResponse is the token endpoint's failure body.
type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}
