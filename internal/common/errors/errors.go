// Package errors provides standardized error handling for BPMN workflow integration.
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

// Proposal lifecycle errors
const (
	ErrCodeProposalValidationFailed  ErrorCode = "PROPOSAL_VALIDATION_FAILED"
	ErrCodeProposalStateConflict     ErrorCode = "PROPOSAL_STATE_CONFLICT"
	ErrCodeProposalNotFound          ErrorCode = "PROPOSAL_NOT_FOUND"
	ErrCodeRequestNotFound           ErrorCode = "REQUEST_NOT_FOUND"
	ErrCodeCompanyNotFound           ErrorCode = "COMPANY_NOT_FOUND"
	ErrCodeForbiddenProposalAction   ErrorCode = "FORBIDDEN_PROPOSAL_ACTION"
	ErrCodeProposalTransactionFailed ErrorCode = "PROPOSAL_TRANSACTION_FAILED"
)

// Matching, infrastructure and notification errors
const (
	ErrCodeMatchingFailed ErrorCode = "MATCHING_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"

	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"
	ErrCodeSearchQueryFailed             ErrorCode = "SEARCH_QUERY_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeInvalidInput           ErrorCode = "INVALID_INPUT"
	ErrCodeInternal               ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is matches any *StandardError carrying the same code, so sentinels like
// ErrStateConflict can be used with errors.Is.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is checks. Only Code is compared.
var (
	ErrValidation        = &StandardError{Code: ErrCodeProposalValidationFailed}
	ErrStateConflict     = &StandardError{Code: ErrCodeProposalStateConflict}
	ErrProposalNotFound  = &StandardError{Code: ErrCodeProposalNotFound}
	ErrRequestNotFound   = &StandardError{Code: ErrCodeRequestNotFound}
	ErrCompanyNotFound   = &StandardError{Code: ErrCodeCompanyNotFound}
	ErrForbidden         = &StandardError{Code: ErrCodeForbiddenProposalAction}
	ErrTransactionFailed = &StandardError{Code: ErrCodeProposalTransactionFailed}
)

// AsStandardError extracts a *StandardError from err's chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func NewValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProposalValidationFailed,
		Message:   "Proposal input validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStateConflictError reports a transition the current state does not
// permit. The caller should re-fetch state rather than retry.
func NewStateConflictError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProposalStateConflict,
		Message:   "Proposal state does not permit this transition",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewProposalNotFoundError(proposalID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProposalNotFound,
		Message:   "Proposal not found",
		Details:   fmt.Sprintf("proposalId: %s", proposalID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewRequestNotFoundError(requestID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRequestNotFound,
		Message:   "Request not found",
		Details:   fmt.Sprintf("requestId: %s", requestID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewCompanyNotFoundError(companyID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCompanyNotFound,
		Message:   "Company not found",
		Details:   fmt.Sprintf("companyId: %s", companyID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewForbiddenError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeForbiddenProposalAction,
		Message:   "Caller may not act on this proposal",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTransactionFailedError reports that the persistence layer could not
// commit atomically. Nothing from the attempted transition was applied.
func NewTransactionFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeProposalTransactionFailed,
		Message:   "Proposal transaction failed",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewMatchingFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeMatchingFailed,
		Message:   "Company matching failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
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
		cause:     err,
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewQueryTimeoutError(queryType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryTimeout,
		Message:   "Database query timeout",
		Details:   fmt.Sprintf("queryType: %s", queryType),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewElasticsearchConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeElasticsearchConnectionFailed,
		Message:   "Elasticsearch connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewSearchQueryFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchQueryFailed,
		Message:   "Elasticsearch query error",
		Details:   fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Invalid job input",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Mapping & Retry Policy
// ==========================

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeProposalValidationFailed:      "PROPOSAL_VALIDATION_FAILED",
	ErrCodeProposalStateConflict:         "PROPOSAL_STATE_CONFLICT",
	ErrCodeProposalNotFound:              "PROPOSAL_NOT_FOUND",
	ErrCodeRequestNotFound:               "REQUEST_NOT_FOUND",
	ErrCodeCompanyNotFound:               "COMPANY_NOT_FOUND",
	ErrCodeForbiddenProposalAction:       "FORBIDDEN_PROPOSAL_ACTION",
	ErrCodeProposalTransactionFailed:     "PROPOSAL_TRANSACTION_FAILED",
	ErrCodeMatchingFailed:                "MATCHING_FAILED",
	ErrCodeDatabaseConnectionFailed:      "DATABASE_CONNECTION_FAILED",
	ErrCodeQueryExecutionFailed:          "QUERY_EXECUTION_FAILED",
	ErrCodeQueryTimeout:                  "QUERY_TIMEOUT",
	ErrCodeElasticsearchConnectionFailed: "ELASTICSEARCH_CONNECTION_FAILED",
	ErrCodeSearchQueryFailed:             "SEARCH_QUERY_FAILED",
	ErrCodeNotificationSendFailed:        "NOTIFICATION_SEND_FAILED",
	ErrCodeInvalidInput:                  "INVALID_INPUT",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeElasticsearchConnectionFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeMatchingFailed:
		return 3

	case ErrCodeQueryTimeout,
		ErrCodeProposalTransactionFailed:
		return 2

	default:
		return 0 // Business errors: no retry
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"errorCategory":     GetErrorCategory(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory groups codes into the categories callers branch on.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CONFLICT"):
		return "CONFLICT"
	case strings.Contains(codeStr, "NOT_FOUND"):
		return "NOT_FOUND"
	case strings.Contains(codeStr, "TRANSACTION"):
		return "TRANSACTION"
	case strings.Contains(codeStr, "FORBIDDEN"):
		return "AUTHORIZATION"
	case strings.Contains(codeStr, "ELASTICSEARCH") || strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "MATCHING"):
		return "MATCHING"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
