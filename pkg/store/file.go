package store

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/Sternrassler/sf-bulk-report/internal/fileutil"
	"github.com/Sternrassler/sf-bulk-report/pkg/auth"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultFileName is the cache file used when no path is configured.
const DefaultFileName = "oauth_response.json"

// FileStore keeps the authorization result in a JSON file. The file holds
// a live access token in plain text, so it is written with mode 0600.
type FileStore struct {
	path   string
	logger zerolog.Logger
}

// NewFileStore creates a FileStore at path, or DefaultFileName if empty.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultFileName
	}
	return &FileStore{
		path:   path,
		logger: log.With().Str("component", "store").Str("backend", "file").Logger(),
	}
}

// Path returns the cache file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the cache file.
func (s *FileStore) Load(_ context.Context) (*auth.AuthorizationResult, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			CacheMisses.WithLabelValues("file").Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("file", "load").Inc()
		return nil, fmt.Errorf("read credential cache: %w", err)
	}

	result, err := decode(s.path, data)
	if err != nil {
		CacheErrors.WithLabelValues("file", "load").Inc()
		return nil, err
	}

	CacheHits.WithLabelValues("file").Inc()
	s.logger.Debug().Str("path", s.path).Msg("Loaded cached authorization")
	return result, nil
}

// Save atomically replaces the cache file.
func (s *FileStore) Save(_ context.Context, result *auth.AuthorizationResult) error {
	data, err := encode(result)
	if err != nil {
		CacheErrors.WithLabelValues("file", "save").Inc()
		return err
	}

	if err := fileutil.WriteFile(s.path, data, 0o600); err != nil {
		CacheErrors.WithLabelValues("file", "save").Inc()
		return fmt.Errorf("write credential cache: %w", err)
	}

	s.logger.Debug().Str("path", s.path).Msg("Saved authorization")
	return nil
}

// Clear deletes the cache file.
func (s *FileStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		CacheErrors.WithLabelValues("file", "clear").Inc()
		return fmt.Errorf("remove credential cache: %w", err)
	}
	return nil
}
