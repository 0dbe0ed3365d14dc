// Package errors provides standardized error handling for the training pipeline.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeDatasetReadFailed  ErrorCode = "DATASET_READ_FAILED"
	ErrCodeDatasetParseFailed ErrorCode = "DATASET_PARSE_FAILED"
	ErrCodeDatasetWriteFailed ErrorCode = "DATASET_WRITE_FAILED"

	ErrCodeSchemaValidationFailed ErrorCode = "SCHEMA_VALIDATION_FAILED"

	ErrCodePromptTemplateMissing ErrorCode = "PROMPT_TEMPLATE_MISSING"
	ErrCodeModelContextMissing   ErrorCode = "MODEL_CONTEXT_MISSING"

	ErrCodeLLMTimeout         ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMCallFailed      ErrorCode = "LLM_CALL_FAILED"
	ErrCodeLLMResponseInvalid ErrorCode = "LLM_RESPONSE_INVALID"

	ErrCodeCacheReadFailed  ErrorCode = "CACHE_READ_FAILED"
	ErrCodeCacheWriteFailed ErrorCode = "CACHE_WRITE_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"

	ErrCodeIndexingFailed                ErrorCode = "INDEXING_FAILED"
	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	// ErrCodeUnknown labels errors that did not originate from this package.
	ErrCodeUnknown ErrorCode = "UNKNOWN"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ToFields returns a map suitable for structured log fields.
func (e *StandardError) ToFields() map[string]interface{} {
	fields := map[string]interface{}{
		"errorCode":    string(e.Code),
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
		"category":     GetErrorCategory(e.Code),
		"timestamp":    e.Timestamp.Format(time.RFC3339),
	}

	if e.Metadata != nil {
		for k, v := range e.Metadata {
			fields[k] = v
		}
	}

	return fields
}

// ==========================
// 2. Error Constructors
// ==========================

// NewDatasetReadFailedError creates a retryable dataset read error.
func NewDatasetReadFailedError(path string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatasetReadFailed,
		Message:   "Failed to read dataset file",
		Details:   fmt.Sprintf("path: %s, error: %s", path, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatasetParseFailedError creates a non-retryable dataset parse error.
func NewDatasetParseFailedError(path string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatasetParseFailed,
		Message:   "Dataset file is not valid JSON",
		Details:   fmt.Sprintf("path: %s, error: %s", path, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatasetWriteFailedError creates a retryable dataset write error.
func NewDatasetWriteFailedError(path string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatasetWriteFailed,
		Message:   "Failed to write dataset file",
		Details:   fmt.Sprintf("path: %s, error: %s", path, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSchemaValidationFailedError creates a non-retryable record validation error.
func NewSchemaValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSchemaValidationFailed,
		Message:   "Record failed structural validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPromptTemplateMissingError creates a non-retryable template error.
func NewPromptTemplateMissingError(path string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePromptTemplateMissing,
		Message:   "Prompt template not found",
		Details:   fmt.Sprintf("path: %s, error: %s", path, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewModelContextMissingError creates a non-retryable model context error.
func NewModelContextMissingError(dir string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeModelContextMissing,
		Message:   "Model context directory unreadable",
		Details:   fmt.Sprintf("dir: %s, error: %s", dir, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewLLMTimeoutError creates a retryable LLM timeout error.
func NewLLMTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMTimeout,
		Message:   "LLM completion timeout",
		Details:   "API call exceeded timeout threshold",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLLMCallFailedError creates a retryable LLM API error.
func NewLLMCallFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMCallFailed,
		Message:   "LLM completion API error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLLMResponseInvalidError creates a retryable malformed-response error.
// Retryable because a second attempt often yields parseable JSON.
func NewLLMResponseInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMResponseInvalid,
		Message:   "LLM response is not a valid result document",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheReadFailedError creates a retryable cache read error.
func NewCacheReadFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheReadFailed,
		Message:   "Response cache read error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheWriteFailedError creates a retryable cache write error.
func NewCacheWriteFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheWriteFailed,
		Message:   "Response cache write error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseInsertFailedError creates a retryable database insert error.
func NewDatabaseInsertFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseInsertFailed,
		Message:   "Database insert operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewIndexingFailedError creates a retryable indexing error.
func NewIndexingFailedError(index string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeIndexingFailed,
		Message:   "Elasticsearch indexing failed",
		Details:   fmt.Sprintf("index: %s, error: %s", index, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewElasticsearchConnectionFailedError creates a retryable Elasticsearch connection error.
func NewElasticsearchConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeElasticsearchConnectionFailed,
		Message:   "Elasticsearch connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// CodeOf extracts the error code from a StandardError anywhere in the chain.
// Errors that did not originate from this package report ErrCodeUnknown, so
// the result is always safe to use as a metric label.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ErrCodeUnknown
}

// FieldsFor returns structured log fields for any error, expanding the
// StandardError fields when the chain carries one.
func FieldsFor(err error) map[string]interface{} {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.ToFields()
	}
	return map[string]interface{}{"error": err.Error()}
}

// ==========================
// 3. Retry Policy
// ==========================

// GetRetryCount returns the recommended retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatasetReadFailed,
		ErrCodeDatasetWriteFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeElasticsearchConnectionFailed,
		ErrCodeIndexingFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeLLMCallFailed,
		ErrCodeLLMResponseInvalid:
		return 3 // Retryable technical errors

	case ErrCodeCacheReadFailed,
		ErrCodeCacheWriteFailed:
		return 2 // Cache errors degrade to a direct call

	case ErrCodeLLMTimeout:
		return 1

	default:
		return 0 // Data/config errors: no retry
	}
}

// ==========================
// 4. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "DATASET"):
		return "DATASET"
	case strings.Contains(codeStr, "SCHEMA") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "PROMPT") || strings.Contains(codeStr, "MODEL_CONTEXT"):
		return "PROMPT"
	case strings.Contains(codeStr, "LLM"):
		return "AI"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	case strings.Contains(codeStr, "DATABASE"):
		return "DATABASE"
	case strings.Contains(codeStr, "ELASTICSEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	default:
		return "OTHER"
	}
}
