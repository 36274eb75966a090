package session_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/rpggio/context-keeper/internal/apperr"
	"github.com/rpggio/context-keeper/internal/domain/session"
	"github.com/rpggio/context-keeper/internal/repository"
	"github.com/rpggio/context-keeper/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var idPattern = regexp.MustCompile(`^session-\d{8}-\d{6}-[0-9a-f]{8}$`)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestSessionService_Create(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC)
	repo := &mocks.SessionRepository{}
	repo.On("Create", ctx, mock.AnythingOfType("*session.Session")).Return(nil)

	svc := session.NewService(repo, nil, session.Options{TTL: time.Hour, Now: fixedClock(now)}, nil)
	sess, err := svc.Create(ctx, session.CreateRequest{Metadata: map[string]string{"k": "v"}})
	require.NoError(t, err)
	require.Regexp(t, idPattern, sess.ID)
	require.Contains(t, sess.ID, "20240309-140506")
	require.Equal(t, now, sess.CreatedAt)
	require.Equal(t, now, sess.LastActivity)
	repo.AssertExpectations(t)
}

func TestSessionService_CreateRetriesCollision(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.SessionRepository{}
	repo.On("Create", ctx, mock.Anything).Return(repository.ErrConflict).Once()
	repo.On("Create", ctx, mock.Anything).Return(nil).Once()

	svc := session.NewService(repo, nil, session.Options{TTL: time.Hour}, nil)
	_, err := svc.Create(ctx, session.CreateRequest{})
	require.NoError(t, err)
	repo.AssertNumberOfCalls(t, "Create", 2)
}

func TestSessionService_Get(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	repo := &mocks.SessionRepository{}
	repo.On("Get", ctx, "live").Return(&session.Session{ID: "live", LastActivity: now.Add(-time.Minute)}, nil)
	repo.On("Get", ctx, "stale").Return(&session.Session{ID: "stale", LastActivity: now.Add(-2 * time.Hour)}, nil)
	repo.On("Get", ctx, "gone").Return(nil, repository.ErrNotFound)
	repo.On("Get", ctx, "broken").Return(nil, errors.New("disk I/O error"))

	svc := session.NewService(repo, nil, session.Options{TTL: time.Hour, Now: fixedClock(now)}, nil)

	sess, err := svc.Get(ctx, "live")
	require.NoError(t, err)
	require.Equal(t, "live", sess.ID)

	_, err = svc.Get(ctx, "stale")
	require.ErrorIs(t, err, session.ErrSessionNotFound)

	_, err = svc.Get(ctx, "gone")
	require.ErrorIs(t, err, session.ErrSessionNotFound)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.Get(ctx, "broken")
	require.Error(t, err)
	require.Equal(t, apperr.ErrInternal, apperr.KindOf(err))

	_, err = svc.Get(ctx, "")
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = svc.Get(ctx, "has space")
	require.ErrorIs(t, err, session.ErrInvalidSessionID)
}

func TestSessionService_Ensure(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	repo := &mocks.SessionRepository{}
	repo.On("Get", ctx, "new-one").Return(nil, repository.ErrNotFound)
	repo.On("Create", ctx, mock.MatchedBy(func(s *session.Session) bool {
		return s.ID == "new-one" && s.CreatedAt.Equal(now)
	})).Return(nil)
	repo.On("Get", ctx, "expired").Return(&session.Session{ID: "expired", LastActivity: now.Add(-48 * time.Hour)}, nil)

	svc := session.NewService(repo, nil, session.Options{TTL: time.Hour, Now: fixedClock(now)}, nil)

	sess, err := svc.Ensure(ctx, "new-one")
	require.NoError(t, err)
	require.Equal(t, "new-one", sess.ID)

	_, err = svc.Ensure(ctx, "expired")
	require.ErrorIs(t, err, session.ErrSessionNotFound)
	repo.AssertNumberOfCalls(t, "Create", 1)
}

func TestSessionService_Touch(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	repo := &mocks.SessionRepository{}
	repo.On("Touch", ctx, "s1", now).Return(nil)
	repo.On("Touch", ctx, "gone", now).Return(repository.ErrNotFound)

	svc := session.NewService(repo, nil, session.Options{TTL: time.Hour, Now: fixedClock(now)}, nil)
	require.NoError(t, svc.Touch(ctx, "s1"))
	require.ErrorIs(t, svc.Touch(ctx, "gone"), session.ErrSessionNotFound)
}

func TestSessionService_DeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.SessionRepository{}
	repo.On("Delete", ctx, "s1").Return(nil).Once()
	repo.On("Delete", ctx, "s1").Return(repository.ErrNotFound).Once()

	svc := session.NewService(repo, nil, session.Options{TTL: time.Hour}, nil)
	require.NoError(t, svc.Delete(ctx, "s1"))
	require.NoError(t, svc.Delete(ctx, "s1"))
}

func TestSessionService_Expire(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	ttl := time.Hour
	cutoff := now.Add(-ttl)

	repo := &mocks.SessionRepository{}
	repo.On("ListIdleSince", ctx, cutoff).Return([]string{"idle", "revived", "vanished"}, nil)
	repo.On("Get", ctx, "idle").Return(&session.Session{ID: "idle", LastActivity: cutoff.Add(-time.Second)}, nil)
	// Touched between listing and locking.
	repo.On("Get", ctx, "revived").Return(&session.Session{ID: "revived", LastActivity: now}, nil)
	repo.On("Get", ctx, "vanished").Return(nil, repository.ErrNotFound)
	repo.On("Delete", ctx, "idle").Return(nil)

	locks := session.NewLocks()
	svc := session.NewService(repo, locks, session.Options{TTL: ttl, Now: fixedClock(now)}, nil)
	removed, err := svc.Expire(ctx, now)
	require.NoError(t, err)
	require.Equal(t, 1, removed)
	repo.AssertNotCalled(t, "Delete", ctx, "revived")
	require.Zero(t, locks.Len())
}

func TestSessionStatusAt(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	sess := &session.Session{LastActivity: now.Add(-30 * time.Minute)}
	require.Equal(t, session.StatusActive, sess.StatusAt(now, time.Hour))
	require.Equal(t, session.StatusExpired, sess.StatusAt(now, 10*time.Minute))
}
