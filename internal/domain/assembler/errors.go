package assembler

import "github.com/rpggio/context-keeper/internal/apperr"

var (
	// ErrEmptyQuery indicates a blank context query.
	ErrEmptyQuery = apperr.New(apperr.ErrInvalidInput, "query required")
	// ErrInvalidLimits indicates a negative limit.
	ErrInvalidLimits = apperr.New(apperr.ErrInvalidInput, "limits must not be negative")
)
