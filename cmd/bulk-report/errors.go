package main

import (
	"errors"

	"github.com/Sternrassler/sf-bulk-report/pkg/auth"
	"github.com/Sternrassler/sf-bulk-report/pkg/client"
	"github.com/Sternrassler/sf-bulk-report/pkg/export"
	"github.com/Sternrassler/sf-bulk-report/pkg/pagination"
	"github.com/Sternrassler/sf-bulk-report/pkg/store"
)

// Pipeline stages, used as the error message prefix.
const (
	stageConfig       = "config"
	stageAuthenticate = "authenticate"
	stageCache        = "credential cache"
	stageFetch        = "fetch"
	stageExport       = "export"
)

// Exit codes.
const (
	exitOK      = 0
	exitGeneral = 1
	exitAuth    = 2
	exitFetch   = 3
	exitExport  = 4
)

// stageError tags an error with the pipeline stage it came from.
type stageError struct {
	stage string
	err   error
}

func (e *stageError) Error() string {
	return e.stage + ": " + e.err.Error()
}

func (e *stageError) Unwrap() error {
	return e.err
}

func wrapStage(stage string, err error) error {
	if err == nil {
		return nil
	}
	return &stageError{stage: stage, err: err}
}

// mapErrorToExitCode maps pipeline errors to exit codes
func mapErrorToExitCode(err error) int {
	if err == nil {
		return exitOK
	}

	var se *stageError
	if errors.As(err, &se) {
		switch se.stage {
		case stageAuthenticate, stageCache:
			return exitAuth
		case stageFetch:
			return exitFetch
		case stageExport:
			return exitExport
		}
	}

	var authErr *auth.AuthenticationError
	var corrupt *store.CorruptCacheError
	if errors.As(err, &authErr) || errors.As(err, &corrupt) {
		return exitAuth
	}

	var httpErr *client.HTTPError
	var malformed *client.MalformedResponseError
	if errors.As(err, &httpErr) || errors.As(err, &malformed) ||
		errors.Is(err, pagination.ErrPageLimit) ||
		errors.Is(err, pagination.ErrRecordLimit) ||
		errors.Is(err, pagination.ErrCursorCycle) {
		return exitFetch
	}

	if errors.Is(err, export.ErrEmptyInput) {
		return exitExport
	}

	return exitGeneral
}
