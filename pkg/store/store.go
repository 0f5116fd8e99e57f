// Package store persists the OAuth2 authorization result between runs so
// that later invocations can skip the token request.
//
// Two backends are provided: FileStore writes the token response to a local
// JSON file, RedisStore keeps it under a single Redis key. Both return
// ErrCacheMiss when nothing is stored and *CorruptCacheError when stored
// data cannot be used.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Sternrassler/sf-bulk-report/pkg/auth"
	"github.com/Sternrassler/sf-bulk-report/pkg/client"
)

// ErrCacheMiss indicates no authorization result is stored.
var ErrCacheMiss = errors.New("credential cache miss")

// Store loads and saves the cached authorization result.
type Store interface {
	// Load returns the stored result, ErrCacheMiss, or *CorruptCacheError.
	Load(ctx context.Context) (*auth.AuthorizationResult, error)

	// Save replaces the stored result.
	Save(ctx context.Context, result *auth.AuthorizationResult) error

	// Clear removes the stored result. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

// CorruptCacheError reports stored data that is unreadable or incomplete.
type CorruptCacheError struct {
	Location string
	Err      error
}

// Error implements the error interface.
func (e *CorruptCacheError) Error() string {
	return fmt.Sprintf("corrupt credential cache %s: %v", e.Location, e.Err)
}

// Unwrap returns the underlying decode error.
func (e *CorruptCacheError) Unwrap() error {
	return e.Err
}

// decode parses stored bytes and requires every token response field.
func decode(location string, data []byte) (*auth.AuthorizationResult, error) {
	var result auth.AuthorizationResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, &CorruptCacheError{Location: location, Err: err}
	}
	if missing := result.MissingFields(); len(missing) > 0 {
		return nil, &CorruptCacheError{
			Location: location,
			Err:      &client.MalformedResponseError{Source: location, Fields: missing},
		}
	}
	return &result, nil
}

// encode serializes a result for storage.
func encode(result *auth.AuthorizationResult) ([]byte, error) {
	if result == nil {
		return nil, errors.New("authorization result cannot be nil")
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal authorization result: %w", err)
	}
	return data, nil
}
