package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/context-keeper/internal/apperr"
	"github.com/rpggio/context-keeper/internal/domain/assembler"
	"github.com/rpggio/context-keeper/internal/domain/association"
	"github.com/rpggio/context-keeper/internal/domain/edit"
	"github.com/rpggio/context-keeper/internal/domain/session"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes. Storage failures are
// reported without detail.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return &APIError{Code: "SESSION_NOT_FOUND", Message: "session not found or expired", RecoveryHint: "Call create_session and retry"}
	case errors.Is(err, association.ErrFileNotAssociated):
		return &APIError{Code: "FILE_NOT_ASSOCIATED", Message: "file not associated with session", RecoveryHint: "Call associate_file first"}
	case errors.Is(err, edit.ErrInvalidDiff):
		return &APIError{Code: "INVALID_DIFF", Message: err.Error(), RecoveryHint: "Send a unified diff, or new_content to have one computed"}
	case errors.Is(err, assembler.ErrEmptyQuery):
		return &APIError{Code: "EMPTY_QUERY", Message: "query required", RecoveryHint: "Describe the task in query"}
	}
	switch apperr.KindOf(err) {
	case apperr.ErrNotFound, apperr.ErrInvalidInput:
		return &APIError{Code: apperr.Code(err), Message: err.Error()}
	default:
		return &APIError{Code: apperr.Code(err), Message: "internal error", RecoveryHint: "Retry the call"}
	}
}
