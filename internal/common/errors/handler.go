// internal/common/errors/handler.go
package errors

import (
	"time"
)

// Handler normalizes adapter errors and logs them with standardized fields.
type Handler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewHandler(logger Logger) *Handler {
	return &Handler{logger: logger}
}

// Refusal is the structured outcome handed back to the dialogue agent when
// an action is rejected or fails. It carries no technical detail.
type Refusal struct {
	Code         ErrorCode `json:"code"`
	Relay        string    `json:"relay"`
	Recoverable  bool      `json:"recoverable"`
	ResolvedInto string    `json:"resolvedInto,omitempty"`
}

// HandleToolError normalizes err, logs it, and builds the refusal for the
// dialogue agent. Structural violations are marked resolved internally.
func (h *Handler) HandleToolError(sessionID, tool string, err error) Refusal {
	stdErr := h.normalizeError(err)

	h.logger.Error("Tool call rejected", map[string]interface{}{
		"sessionId":     sessionID,
		"tool":          tool,
		"errorCode":     string(stdErr.Code),
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	})

	refusal := Refusal{
		Code:        stdErr.Code,
		Relay:       RelayMessage(stdErr.Code),
		Recoverable: stdErr.Retryable,
	}
	if IsStructural(err) {
		refusal.ResolvedInto = resolution(stdErr)
	}
	return refusal
}

// normalizeError ensures we always have a StandardError.
func (h *Handler) normalizeError(err error) *StandardError {
	if stdErr, ok := AsStandard(err); ok {
		return stdErr
	}
	return &StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func resolution(stdErr *StandardError) string {
	switch stdErr.Code {
	case ErrCodeDuplicateSubmission:
		return "cached_result"
	case ErrCodeSequenceViolation:
		return "deferred"
	case ErrCodeConsentViolation:
		return "refused"
	default:
		return ""
	}
}
