package edit

import (
	"context"
	"time"

	"github.com/rpggio/context-keeper/internal/domain/association"
	"github.com/rpggio/context-keeper/internal/domain/session"
)

// Repository provides persistence for edit history.
type Repository interface {
	// Append assigns the next sequence number for the (session, path)
	// association, stores e, evicts the oldest records beyond maxPerFile and
	// refreshes the association's last access, all atomically. It returns
	// repository.ErrNotFound when the association does not exist.
	Append(ctx context.Context, e *Edit, maxPerFile int) error
	Last(ctx context.Context, sessionID, path string) (*Edit, error)
	// Recent orders by time then id, newest first.
	Recent(ctx context.Context, sessionID string, limit int) ([]Edit, error)
	// ListForFile orders by sequence number ascending.
	ListForFile(ctx context.Context, sessionID, path string) ([]Edit, error)
}

// Sessions is the session capability the edit log depends on.
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

// Associations reads the association an edit belongs to.
type Associations interface {
	Get(ctx context.Context, sessionID, path string) (*association.Association, error)
}
