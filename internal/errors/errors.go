// Package errors defines the error types shared by the store adapters, the
// reconciler and the scheduler. Typed errors map onto sentinels so callers
// can branch with errors.Is regardless of which store produced them.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-exported so packages importing this one do not also need the standard
// library errors package.
var (
	New = errors.New
	Is  = errors.Is
	As  = errors.As
)

var (
	ErrNotFound       = errors.New("not found")
	ErrRateLimited    = errors.New("rate limited")
	ErrUnavailable    = errors.New("service unavailable")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrPassInProgress = errors.New("sync pass already in progress")
)

// APIError is a non-2xx response from a remote store.
type APIError struct {
	Service    string // "notion" or "gcal"
	StatusCode int
	Code       string // service-specific error code, if any
	Message    string
	Endpoint   string
	Err        error
}

func (e *APIError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	head := e.Service + " API error"
	if e.StatusCode != 0 {
		head += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Endpoint != "" {
		head += " at " + e.Endpoint
	}
	return head + ": " + msg
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Is maps HTTP status classes onto the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusGone
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	case ErrUnavailable:
		return e.StatusCode >= 500
	}
	return false
}

// Stage names the step of a sync pass at which a SyncError occurred.
type Stage string

const (
	StageFetchRecords Stage = "fetch-records"
	StageFetchEvents  Stage = "fetch-events"
	StageInsert       Stage = "insert"
	StageUpdate       Stage = "update"
	StageDelete       Stage = "delete"
)

// SyncError records which item stopped a pass.
type SyncError struct {
	Stage Stage
	ID    string // event or record id; empty for fetch stages
	Err   error
}

func (e *SyncError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("sync %s %s: %v", e.Stage, e.ID, e.Err)
	}
	return fmt.Sprintf("sync %s: %v", e.Stage, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// ConfigError is a single invalid or missing configuration value.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Message)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// NewConfigError creates a ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}
