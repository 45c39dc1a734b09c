package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents network, timeout and non-2xx failures
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeRateLimit represents a host that asked us to slow down
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeParsing represents HTML or price parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeStructure represents markup where no selector pattern matched
	ErrorTypeStructure ErrorType = "structure"
	// ErrorTypeCategory represents a failure contained at a category task boundary
	ErrorTypeCategory ErrorType = "category"
	// ErrorTypePersistence represents seen-store I/O errors
	ErrorTypePersistence ErrorType = "persistence"
	// ErrorTypeNotify represents notification delivery errors
	ErrorTypeNotify ErrorType = "notify"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// Error is the typed error used across the crawl path
type Error struct {
	Type    ErrorType
	Target  string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *Error) Error() string {
	target := ""
	if e.Target != "" {
		target = " " + e.Target
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s]%s: %s - %v", e.Type, target, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s]%s: %s", e.Type, target, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is retryable
func (e *Error) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork:
		return true
	default:
		return false
	}
}

// New creates a new Error
func New(errType ErrorType, target, message string, err error) *Error {
	return &Error{
		Type:    errType,
		Target:  target,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(url, message string, err error) *Error {
	return New(ErrorTypeNetwork, url, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(host string, duration time.Duration) *Error {
	return New(ErrorTypeRateLimit, host, fmt.Sprintf("rate limited for %v", duration), nil)
}

// NewParsing creates a new parsing error
func NewParsing(url, message string, err error) *Error {
	return New(ErrorTypeParsing, url, message, err)
}

// NewStructure creates a new structure-not-found error
func NewStructure(url, message string) *Error {
	return New(ErrorTypeStructure, url, message, nil)
}

// NewCategory creates a new category failure
func NewCategory(category, message string, err error) *Error {
	return New(ErrorTypeCategory, category, message, err)
}

// NewPersistence creates a new persistence error
func NewPersistence(backend, message string, err error) *Error {
	return New(ErrorTypePersistence, backend, message, err)
}

// NewNotify creates a new notification error
func NewNotify(channel, message string, err error) *Error {
	return New(ErrorTypeNotify, channel, message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *Error {
	return New(ErrorTypeConfiguration, "", message, err)
}

// TypeOf returns the ErrorType carried by err, or "other"
func TypeOf(err error) ErrorType {
	if err == nil {
		return ""
	}
	var typed *Error
	if stderrors.As(err, &typed) {
		return typed.Type
	}
	return "other"
}

// Is reports whether err carries the given ErrorType
func Is(err error, errType ErrorType) bool {
	return TypeOf(err) == errType
}
