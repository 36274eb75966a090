package session

import (
	"context"
	"time"
)

// SessionRepository provides persistence for sessions. Deleting a session
// removes everything it owns.
type SessionRepository interface {
	Create(ctx context.Context, sess *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Touch(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
	ListIdleSince(ctx context.Context, cutoff time.Time) ([]string, error)
}
