// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	// ErrDataUnavailable marks genuine data absence: no price, no
	// expirations, or an empty chain side that was requested. Callers map
	// this to a not-found class response; it is never silently replaced
	// with zero-valued results.
	ErrDataUnavailable = errors.New("market data unavailable")
	// ErrInvalidInput marks malformed or unsupported request parameters.
	ErrInvalidInput  = errors.New("invalid input")
	ErrRateLimited   = errors.New("rate limited")
	ErrTimeout       = errors.New("operation timed out")
	ErrConfigInvalid = errors.New("invalid configuration")
	ErrDataNotFound  = errors.New("data not found")
	ErrDatabaseError = errors.New("database error")
)

// DataError reports that market data for a symbol could not be fetched or
// is invalid. It wraps ErrDataUnavailable so callers can classify it with
// errors.Is.
type DataError struct {
	Symbol string
	Detail string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("options data error for %s: %s", e.Symbol, e.Detail)
}

func (e *DataError) Unwrap() error {
	return ErrDataUnavailable
}

// NewDataError creates a new DataError.
func NewDataError(symbol, detail string) *DataError {
	return &DataError{Symbol: symbol, Detail: detail}
}

// ValidationError reports a rejected request parameter. It wraps
// ErrInvalidInput.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ProviderError represents an error from a market data provider API.
type ProviderError struct {
	Provider string
	Code     int
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider error [%s %d]: %s: %v", e.Provider, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("provider error [%s %d]: %s", e.Provider, e.Code, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a new ProviderError.
func NewProviderError(provider string, code int, message string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Code: code, Message: message, Err: err}
}

// AgentError represents an error from the LLM enrichment path.
type AgentError struct {
	Operation string
	Err       error
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("agent error [%s]: %v", e.Operation, e.Err)
}

func (e *AgentError) Unwrap() error {
	return e.Err
}

// NewAgentError creates a new AgentError.
func NewAgentError(operation string, err error) *AgentError {
	return &AgentError{Operation: operation, Err: err}
}
