package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/rpggio/context-keeper/internal/repository"
)

const maxIDLength = 128

// Options configures session lifetime.
type Options struct {
	// TTL is the inactivity window after which a session expires.
	TTL time.Duration
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// Service handles session lifecycle operations.
//
// Get and Touch never take the session lock, so callers already holding it
// may use them. Delete and Expire take the write lock themselves.
type Service struct {
	sessions SessionRepository
	locks    *Locks
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// NewService creates a new session service.
func NewService(sessions SessionRepository, locks *Locks, opts Options, logger *slog.Logger) *Service {
	if locks == nil {
		locks = NewLocks()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		sessions: sessions,
		locks:    locks,
		ttl:      opts.TTL,
		now:      opts.Now,
		logger:   logger,
	}
}

// CreateRequest describes a session creation request.
type CreateRequest struct {
	Metadata map[string]string
}

// Locks returns the per-session lock registry shared with other services.
func (s *Service) Locks() *Locks {
	return s.locks
}

// TTL returns the configured inactivity window.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Now returns the service clock reading.
func (s *Service) Now() time.Time {
	return s.now()
}

// NewID generates a session id of the form session-YYYYMMDD-HHMMSS-xxxxxxxx.
func NewID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("session-%s-%s", now.UTC().Format("20060102-150405"), suffix)
}

// ValidateID checks that id is usable as a session identifier.
func ValidateID(id string) error {
	if id == "" || len(id) > maxIDLength {
		return ErrInvalidSessionID
	}
	for _, r := range id {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return ErrInvalidSessionID
		}
	}
	return nil
}

// Create creates a new session.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Session, error) {
	now := s.now()
	sess := &Session{
		ID:           NewID(now),
		Metadata:     req.Metadata,
		CreatedAt:    now,
		LastActivity: now,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			// Suffix collision; one retry with a fresh suffix.
			sess.ID = NewID(now)
			if err := s.sessions.Create(ctx, sess); err != nil {
				return nil, fmt.Errorf("creating session: %w", err)
			}
		} else {
			return nil, fmt.Errorf("creating session: %w", err)
		}
	}
	s.logger.Debug("session created", "session_id", sess.ID)
	return sess, nil
}

// Get returns a live session. Unknown and expired sessions are NotFound.
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if sess.StatusAt(s.now(), s.ttl) == StatusExpired {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Ensure returns the session with id, creating it when absent. An expired
// session is still NotFound; it is left for the sweeper.
func (s *Service) Ensure(ctx context.Context, id string) (*Session, error) {
	sess, err := s.Get(ctx, id)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, ErrSessionNotFound) {
		return nil, err
	}
	if _, getErr := s.sessions.Get(ctx, id); getErr == nil {
		return nil, ErrSessionNotFound
	}

	now := s.now()
	sess = &Session{ID: id, CreatedAt: now, LastActivity: now}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	s.logger.Debug("session created implicitly", "session_id", id)
	return sess, nil
}

// Touch refreshes the session's last activity.
func (s *Service) Touch(ctx context.Context, id string) error {
	if err := s.sessions.Touch(ctx, id, s.now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("touching session: %w", err)
	}
	return nil
}

// Delete removes a session and everything it owns. Deleting an absent
// session is not an error.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	unlock := s.locks.Lock(id)
	defer unlock()

	if err := s.sessions.Delete(ctx, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// Expire removes sessions idle longer than the TTL at now. Each candidate is
// re-checked under its write lock so an in-flight request either finishes
// first or observes NotFound afterwards.
func (s *Service) Expire(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-s.ttl)
	ids, err := s.sessions.ListIdleSince(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("listing idle sessions: %w", err)
	}

	removed := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		ok, err := s.expireOne(ctx, id, cutoff)
		if err != nil {
			return removed, err
		}
		if ok {
			removed++
		}
	}
	if removed > 0 {
		s.logger.Info("expired sessions", "count", removed)
	}
	return removed, nil
}

func (s *Service) expireOne(ctx context.Context, id string, cutoff time.Time) (bool, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("loading session %s: %w", id, err)
	}
	if !sess.LastActivity.Before(cutoff) {
		return false, nil
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("deleting session %s: %w", id, err)
	}
	s.logger.Debug("session expired", "session_id", id, "last_activity", sess.LastActivity)
	return true, nil
}
