package session

import "github.com/rpggio/context-keeper/internal/apperr"

var (
	// ErrSessionNotFound indicates the session doesn't exist or has expired.
	ErrSessionNotFound = apperr.New(apperr.ErrNotFound, "session not found")
	// ErrInvalidSessionID indicates a missing or malformed session id.
	ErrInvalidSessionID = apperr.New(apperr.ErrInvalidInput, "invalid session id")
)
