package errors

import (
	"errors"
	"fmt"
	"time"
)

// Base error types
var (
	ErrTransport  = errors.New("transport failure")
	ErrMapping    = errors.New("mapping failure")
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("invalid input")
	ErrStore      = errors.New("store failure")
)

// ErrorType represents the category of error
type ErrorType string

const (
	ErrorTypeTransport  ErrorType = "transport"
	ErrorTypeMapping    ErrorType = "mapping"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeStore      ErrorType = "store"
)

// SyncError is a structured error for discovery, reconciliation and mutation
type SyncError struct {
	Type       ErrorType
	Op         string // Operation that failed (e.g., "fetch", "reconcile", "configure_vlan")
	Device     string // Management IP of the device
	Kind       string // Resource kind if applicable
	Key        string // Natural key if applicable
	Err        error  // Underlying error
	StatusCode int    // HTTP status code from the device if applicable
	Timestamp  time.Time
	Retryable  bool
}

func (e *SyncError) Error() string {
	target := e.Device
	if e.Kind != "" {
		if target != "" {
			target += "/"
		}
		target += e.Kind
	}
	if e.Key != "" {
		target += "/" + e.Key
	}
	if target != "" {
		return fmt.Sprintf("%s failed on %s: %v", e.Op, target, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is interface
func (e *SyncError) Is(target error) bool {
	if target == nil {
		return false
	}

	switch target {
	case ErrTransport:
		return e.Type == ErrorTypeTransport
	case ErrMapping:
		return e.Type == ErrorTypeMapping
	case ErrNotFound:
		return e.Type == ErrorTypeNotFound
	case ErrValidation:
		return e.Type == ErrorTypeValidation
	case ErrStore:
		return e.Type == ErrorTypeStore
	}

	return errors.Is(e.Err, target)
}

// New creates a new SyncError
func New(errorType ErrorType, op, device string, err error) *SyncError {
	return &SyncError{
		Type:      errorType,
		Op:        op,
		Device:    device,
		Err:       err,
		Timestamp: time.Now(),
		Retryable: errorType == ErrorTypeTransport,
	}
}

// WithKind adds resource kind information to the error
func (e *SyncError) WithKind(kind string) *SyncError {
	e.Kind = kind
	return e
}

// WithKey adds the natural key of the entity involved
func (e *SyncError) WithKey(key string) *SyncError {
	e.Key = key
	return e
}

// WithDevice sets the device if it is not already known
func (e *SyncError) WithDevice(device string) *SyncError {
	if e.Device == "" {
		e.Device = device
	}
	return e
}

// WithStatusCode adds the device's HTTP status code to the error
func (e *SyncError) WithStatusCode(code int) *SyncError {
	e.StatusCode = code
	if code >= 500 || code == 429 || code == 408 {
		e.Retryable = true
	} else if code >= 400 && code < 500 {
		e.Retryable = false
	}
	return e
}

// Helper functions

// WrapTransport wraps a transport failure with context
func WrapTransport(op, device string, err error) *SyncError {
	return New(ErrorTypeTransport, op, device, err)
}

// WrapMapping wraps a mapping failure with context
func WrapMapping(op, kind string, err error) *SyncError {
	return New(ErrorTypeMapping, op, "", err).WithKind(kind)
}

// WrapStore wraps a store failure with context
func WrapStore(op, device string, err error) *SyncError {
	return New(ErrorTypeStore, op, device, err)
}

// NotFound reports a missing device or entity
func NotFound(device, kind, key string) *SyncError {
	return New(ErrorTypeNotFound, "lookup", device, ErrNotFound).WithKind(kind).WithKey(key)
}

// Invalid reports rejected input
func Invalid(op, format string, args ...any) *SyncError {
	return New(ErrorTypeValidation, op, "", fmt.Errorf(format, args...))
}

// Mappingf builds a mapping error from a message
func Mappingf(kind, format string, args ...any) *SyncError {
	return WrapMapping("map", kind, fmt.Errorf(format, args...))
}

// As returns the first SyncError in err's chain
func As(err error) (*SyncError, bool) {
	var syncErr *SyncError
	if errors.As(err, &syncErr) {
		return syncErr, true
	}
	return nil, false
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	if syncErr, ok := As(err); ok {
		return syncErr.Retryable
	}
	return false
}

// IsNotFound checks if err is a not-found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
