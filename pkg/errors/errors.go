package errors

import "fmt"

// Error codes
const (
	CodeAnalyzer   = "ANALYZER_ERROR"
	CodeAPI        = "API_ERROR"
	CodeQuota      = "QUOTA_EXCEEDED"
	CodeStorage    = "STORAGE_ERROR"
	CodeCache      = "CACHE_ERROR"
	CodeValidation = "VALIDATION_ERROR"
	CodeConfig     = "CONFIG_ERROR"
)

type AnalyzerError struct {
	Message string
	Code    string
	Context map[string]any
	Cause   error
}

func (e *AnalyzerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AnalyzerError) Unwrap() error {
	return e.Cause
}

func NewAnalyzerError(message, code string, context map[string]any) *AnalyzerError {
	if code == "" {
		code = CodeAnalyzer
	}
	return &AnalyzerError{
		Message: message,
		Code:    code,
		Context: context,
	}
}

func (e *AnalyzerError) WithCause(cause error) *AnalyzerError {
	e.Cause = cause
	return e
}

// APIError is a failed YouTube Data API call.
type APIError struct {
	*AnalyzerError
	StatusCode int
}

func NewAPIError(message string, statusCode int, context map[string]any) *APIError {
	return &APIError{
		AnalyzerError: &AnalyzerError{
			Message: message,
			Code:    CodeAPI,
			Context: context,
		},
		StatusCode: statusCode,
	}
}

// QuotaError means the daily API quota is spent; retrying before the reset is pointless.
type QuotaError struct {
	*APIError
}

func NewQuotaError(message string, context map[string]any) *QuotaError {
	return &QuotaError{
		APIError: &APIError{
			AnalyzerError: &AnalyzerError{
				Message: message,
				Code:    CodeQuota,
				Context: context,
			},
			StatusCode: 403,
		},
	}
}

type StorageError struct {
	*AnalyzerError
	Operation string
	Table     string
}

func NewStorageError(message, operation, table string, cause error) *StorageError {
	return &StorageError{
		AnalyzerError: &AnalyzerError{
			Message: message,
			Code:    CodeStorage,
			Context: map[string]any{
				"operation": operation,
				"table":     table,
			},
			Cause: cause,
		},
		Operation: operation,
		Table:     table,
	}
}

type CacheError struct {
	*AnalyzerError
	Operation string
	Key       string
}

func NewCacheError(message, operation, key string, cause error) *CacheError {
	return &CacheError{
		AnalyzerError: &AnalyzerError{
			Message: message,
			Code:    CodeCache,
			Context: map[string]any{
				"operation": operation,
				"key":       key,
			},
			Cause: cause,
		},
		Operation: operation,
		Key:       key,
	}
}

type ValidationError struct {
	*AnalyzerError
	Field string
	Value any
}

func NewValidationError(message, field string, value any) *ValidationError {
	return &ValidationError{
		AnalyzerError: &AnalyzerError{
			Message: message,
			Code:    CodeValidation,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

// ConfigError wraps a configuration that could not be loaded or failed validation.
type ConfigError struct {
	*AnalyzerError
}

func NewConfigError(message string, cause error) *ConfigError {
	return &ConfigError{
		AnalyzerError: &AnalyzerError{
			Message: message,
			Code:    CodeConfig,
			Cause:   cause,
		},
	}
}
