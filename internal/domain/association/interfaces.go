package association

import (
	"context"
	"time"

	"github.com/rpggio/context-keeper/internal/domain/session"
)

// Repository provides persistence for file associations.
type Repository interface {
	// Upsert inserts or refreshes the (session, path) pair. Empty metadata
	// fields keep their stored values. a is updated with the stored row.
	Upsert(ctx context.Context, a *Association) error
	Get(ctx context.Context, sessionID, path string) (*Association, error)
	// List orders by last access, newest first; limit <= 0 returns all.
	List(ctx context.Context, sessionID string, limit int) ([]Association, error)
	Delete(ctx context.Context, sessionID, path string) error
}

// Sessions is the session capability associations depend on.
type Sessions interface {
	Get(ctx context.Context, id string) (*session.Session, error)
	Ensure(ctx context.Context, id string) (*session.Session, error)
	Touch(ctx context.Context, id string) error
	Locks() *session.Locks
	Now() time.Time
}
