package discussion

import (
	"context"
	"time"

	"github.com/rpggio/context-keeper/internal/domain/session"
)

// Repository provides persistence for discussions.
type Repository interface {
	// Create returns repository.ErrNotFound when the file is not associated.
	Create(ctx context.Context, d *Discussion) error
	// ListForFiles returns discussions newest first; no paths means all files.
	ListForFiles(ctx context.Context, sessionID string, paths []string) ([]Discussion, error)
}

// Sessions is the session capability discussions depend on.
type Sessions interface {
	Get(ctx context.Context, id string) (*session.Session, error)
	Touch(ctx context.Context, id string) error
	Locks() *session.Locks
	Now() time.Time
}

// PathNormalizer keys caller paths the way associations store them.
type PathNormalizer interface {
	Normalize(p string) (string, error)
}
