// Package errors provides standardized error handling for the intake orchestrator.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Structural violations are resolved inside the orchestrator and never reach
// an external system. Execution failures are surfaced to the dialogue agent.
const (
	ErrCodeConsentViolation     ErrorCode = "CONSENT_VIOLATION"
	ErrCodeSequenceViolation    ErrorCode = "SEQUENCE_VIOLATION"
	ErrCodeDuplicateSubmission  ErrorCode = "DUPLICATE_SUBMISSION"
	ErrCodeToolExecutionFailure ErrorCode = "TOOL_EXECUTION_FAILURE"
	ErrCodeInvalidScoringInput  ErrorCode = "INVALID_SCORING_INPUT"

	ErrCodeInvalidToolInput ErrorCode = "INVALID_TOOL_INPUT"
	ErrCodeUnknownTool      ErrorCode = "UNKNOWN_TOOL"
	ErrCodeSessionNotFound  ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeSessionClosed    ErrorCode = "SESSION_CLOSED"

	ErrCodeSessionStoreFailed       ErrorCode = "SESSION_STORE_FAILED"
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeReportingIndexFailed     ErrorCode = "REPORTING_INDEX_FAILED"
	ErrCodeCaseReferenceNotFound    ErrorCode = "CASE_REFERENCE_NOT_FOUND"
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

// AsStandard unwraps err into a *StandardError when possible.
func AsStandard(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err is a StandardError with the given code.
func HasCode(err error, code ErrorCode) bool {
	if stdErr, ok := AsStandard(err); ok {
		return stdErr.Code == code
	}
	return false
}

// ==========================
// 2. Error Constructors
// ==========================

// NewConsentViolationError creates a non-retryable consent error. The
// dispatcher refuses the action outright; nothing is written and nothing
// is forwarded.
func NewConsentViolationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConsentViolation,
		Message:   "Personal data action attempted without granted consent",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSequenceViolationError creates a non-retryable ordering error with a
// reason the dialogue agent can relay to the client.
func NewSequenceViolationError(tool, reason string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSequenceViolation,
		Message:   "Tool requested out of allowed order",
		Details:   fmt.Sprintf("tool: %s, reason: %s", tool, reason),
		Retryable: false,
		Metadata:  map[string]interface{}{"tool": tool, "reason": reason},
		Timestamp: time.Now().UTC(),
	}
}

// NewDuplicateSubmissionError marks a repeated case-creation attempt. The
// dispatcher resolves it by returning the already-issued case reference.
func NewDuplicateSubmissionError(caseReference string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDuplicateSubmission,
		Message:   "Case already submitted for this session",
		Details:   fmt.Sprintf("caseReference: %s", caseReference),
		Retryable: false,
		Metadata:  map[string]interface{}{"caseReference": caseReference},
		Timestamp: time.Now().UTC(),
	}
}

// NewToolExecutionFailureError wraps an adapter failure. Marked retryable for
// infrastructure accounting, but the dispatcher never retries automatically;
// the failure is surfaced upward instead.
func NewToolExecutionFailureError(tool string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeToolExecutionFailure,
		Message:   fmt.Sprintf("Tool '%s' failed to execute", tool),
		Details:   err.Error(),
		Retryable: true,
		Metadata:  map[string]interface{}{"tool": tool},
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidScoringInputError creates a non-retryable validation error for a
// missing or out-of-range scoring field. Inputs are never defaulted.
func NewInvalidScoringInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidScoringInput,
		Message:   "Scoring input is missing or out of range",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidToolInputError creates a non-retryable schema validation error.
func NewInvalidToolInputError(tool, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidToolInput,
		Message:   fmt.Sprintf("Input validation failed for tool '%s'", tool),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnknownToolError creates a non-retryable routing error.
func NewUnknownToolError(tool string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownTool,
		Message:   "No adapter registered for requested tool",
		Details:   fmt.Sprintf("tool: %s", tool),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionNotFoundError creates a non-retryable session lookup error.
func NewSessionNotFoundError(sessionID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionNotFound,
		Message:   "Session not found",
		Details:   fmt.Sprintf("sessionId: %s", sessionID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionClosedError rejects turns against a terminally routed session.
func NewSessionClosedError(sessionID, route string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionClosed,
		Message:   "Session has reached a terminal escalation route",
		Details:   fmt.Sprintf("sessionId: %s, route: %s", sessionID, route),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionStoreFailedError creates a retryable session persistence error.
func NewSessionStoreFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionStoreFailed,
		Message:   "Session store operation failed",
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

// NewReportingIndexFailedError creates a retryable reporting index error.
func NewReportingIndexFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeReportingIndexFailed,
		Message:   "Reporting index operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCaseReferenceNotFoundError creates a non-retryable case lookup error.
func NewCaseReferenceNotFoundError(caseReference string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCaseReferenceNotFound,
		Message:   "No case found for reference",
		Details:   fmt.Sprintf("caseReference: %s", caseReference),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Classification Helpers
// ==========================

// IsStructural reports whether the error is a structural violation resolved
// inside the orchestrator rather than propagated to external systems.
func IsStructural(err error) bool {
	stdErr, ok := AsStandard(err)
	if !ok {
		return false
	}
	switch stdErr.Code {
	case ErrCodeConsentViolation, ErrCodeSequenceViolation, ErrCodeDuplicateSubmission:
		return true
	default:
		return false
	}
}

// RelayMessage returns the client-safe phrasing the dialogue agent may use
// for a rejected or failed action. No technical detail leaks.
func RelayMessage(code ErrorCode) string {
	switch code {
	case ErrCodeSequenceViolation:
		return "Let me finish gathering a bit more information first."
	case ErrCodeToolExecutionFailure:
		return "I ran into a problem completing that. I can try once more, or connect you with a team member."
	case ErrCodeInvalidToolInput, ErrCodeInvalidScoringInput:
		return "I'm missing some information I need before I can do that."
	default:
		return "I wasn't able to complete that step."
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CONSENT") || strings.Contains(codeStr, "SEQUENCE") || strings.Contains(codeStr, "DUPLICATE"):
		return "GUARD"
	case strings.Contains(codeStr, "SCORING"):
		return "SCORING"
	case strings.Contains(codeStr, "SESSION"):
		return "SESSION"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "REPORTING"):
		return "STORAGE"
	case strings.Contains(codeStr, "TOOL"):
		return "TOOL"
	default:
		return "OTHER"
	}
}
