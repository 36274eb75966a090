package edit

import "github.com/rpggio/context-keeper/internal/apperr"

var (
	// ErrInvalidDiff indicates the payload is not a valid unified diff.
	ErrInvalidDiff = apperr.New(apperr.ErrInvalidInput, "invalid diff")
	// ErrInvalidHash indicates a content hash that is not sha256 hex.
	ErrInvalidHash = apperr.New(apperr.ErrInvalidInput, "invalid content hash")
	// ErrMissingDiff indicates neither a diff nor new content was supplied.
	ErrMissingDiff = apperr.New(apperr.ErrInvalidInput, "diff or newContent required")
)
