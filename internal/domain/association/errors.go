package association

import "github.com/rpggio/context-keeper/internal/apperr"

var (
	// ErrInvalidPath indicates an empty or malformed file path.
	ErrInvalidPath = apperr.New(apperr.ErrInvalidInput, "invalid file path")
	// ErrFileNotAssociated indicates the file is not associated with the session.
	ErrFileNotAssociated = apperr.New(apperr.ErrNotFound, "file not associated with session")
)
