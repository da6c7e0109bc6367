package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Third-Party API & LLM Specific Errors
var (
	ErrRateLimitExceeded  = errors.New("rate limit exceeded")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrServiceUnreachable = errors.New("service unreachable")
	ErrDependencyFailure  = errors.New("dependency failure")
)

// Configuration & Environment Errors
var (
	ErrConfigMissing       = errors.New("configuration missing")
	ErrEnvironmentVariable = errors.New("environment variable error")
)

// Data Consistency & Integrity Errors
var (
	ErrPartialFailure = errors.New("partial failure")
)

// Serialization & Encoding Errors
var (
	ErrJSONUnmarshal = errors.New("JSON unmarshal error")
)

func NewRateLimitError(service string, retryAfter time.Duration) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusTooManyRequests,
		err:        ErrRateLimitExceeded,
		Details:    fmt.Sprintf("Rate limit exceeded for %s, retry after %s", service, retryAfter.Round(time.Second)),
		Field:      "rate_limit",
	}
}

func NewServiceUnavailableError(service string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusServiceUnavailable,
		err:        ErrServiceUnavailable,
		Details:    fmt.Sprintf("%s is not configured", service),
	}
}

// NewDependencyFailure reports that a store or remote service rejected an
// operation.
func NewDependencyFailure(service, operation string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrDependencyFailure,
		Details:    fmt.Sprintf("%s failed to %s", service, operation),
		Cause:      cause,
	}
}

// Configuration & Environment Error Constructors
func NewConfigError(configName string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrConfigMissing,
		Details:    fmt.Sprintf("Configuration error for %s", configName),
		Cause:      cause,
	}
}

func NewEnvironmentVariableError(varName string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrEnvironmentVariable,
		Details:    fmt.Sprintf("Environment variable %s is not set or invalid", varName),
		Field:      varName,
	}
}

// NewPartialFailureError is a dependency failure that left state behind
// which needs manual reconciliation.
func NewPartialFailureError(operation string, failedSteps []string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        fmt.Errorf("%w: %w", ErrDependencyFailure, ErrPartialFailure),
		Details:    fmt.Sprintf("%s stopped at %s and was flagged for reconciliation", operation, strings.Join(failedSteps, ", ")),
		Cause:      cause,
	}
}

func NewJSONUnmarshalError(operation string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadGateway,
		err:        ErrJSONUnmarshal,
		Details:    fmt.Sprintf("JSON unmarshal error in %s", operation),
		Cause:      cause,
	}
}

func NewServiceUnreachableError(service string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadGateway,
		err:        ErrServiceUnreachable,
		Details:    fmt.Sprintf("%s is unreachable", service),
		Cause:      cause,
	}
}

func IsRateLimitError(err error) bool {
	return errors.Is(err, ErrRateLimitExceeded)
}

func IsServiceUnavailableError(err error) bool {
	return errors.Is(err, ErrServiceUnavailable)
}

func IsDependencyFailure(err error) bool {
	return errors.Is(err, ErrDependencyFailure)
}

func IsPartialFailureError(err error) bool {
	return errors.Is(err, ErrPartialFailure)
}

func IsJSONUnmarshalError(err error) bool {
	return errors.Is(err, ErrJSONUnmarshal)
}
