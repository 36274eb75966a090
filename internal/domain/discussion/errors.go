package discussion

import "github.com/rpggio/context-keeper/internal/apperr"

var (
	// ErrInvalidType indicates an unknown discussion type.
	ErrInvalidType = apperr.New(apperr.ErrInvalidInput, "invalid discussion type")
	// ErrEmptySummary indicates a discussion without text.
	ErrEmptySummary = apperr.New(apperr.ErrInvalidInput, "discussion summary required")
)
