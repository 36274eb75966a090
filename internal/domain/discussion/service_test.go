package discussion_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rpggio/context-keeper/internal/domain/association"
	"github.com/rpggio/context-keeper/internal/domain/discussion"
	"github.com/rpggio/context-keeper/internal/domain/session"
	"github.com/rpggio/context-keeper/internal/repository"
	"github.com/rpggio/context-keeper/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T) (*discussion.Service, *mocks.DiscussionRepository, *mocks.SessionRepository) {
	t.Helper()
	sessRepo := &mocks.SessionRepository{}
	sessions := session.NewService(sessRepo, nil, session.Options{
		TTL: time.Hour,
		Now: func() time.Time { return now },
	}, nil)
	paths := association.NewService(&mocks.AssociationRepository{}, sessions, association.Options{Root: "/work"}, nil)
	repo := &mocks.DiscussionRepository{}
	return discussion.NewService(repo, sessions, paths, nil), repo, sessRepo
}

func TestDiscussionService_Link(t *testing.T) {
	ctx := context.Background()
	svc, repo, sessRepo := newService(t)
	sessRepo.On("Get", ctx, "s1").Return(&session.Session{ID: "s1", LastActivity: now}, nil)
	sessRepo.On("Touch", ctx, "s1", now).Return(nil)
	repo.On("Create", ctx, mock.MatchedBy(func(d *discussion.Discussion) bool {
		return d.Path == "/work/a.py" && d.Type == discussion.TypeMessage &&
			d.Summary == "rename the helper" && d.ID != "" && d.CreatedAt.Equal(now)
	})).Return(nil)

	d, err := svc.Link(ctx, discussion.LinkRequest{SessionID: "s1", FilePath: "a.py", Summary: "  rename the helper "})
	require.NoError(t, err)
	require.Equal(t, discussion.TypeMessage, d.Type)
	repo.AssertExpectations(t)
}

func TestDiscussionService_LinkTruncatesSummary(t *testing.T) {
	ctx := context.Background()
	svc, repo, sessRepo := newService(t)
	sessRepo.On("Get", ctx, "s1").Return(&session.Session{ID: "s1", LastActivity: now}, nil)
	sessRepo.On("Touch", ctx, "s1", now).Return(nil)
	repo.On("Create", ctx, mock.Anything).Return(nil)

	d, err := svc.Link(ctx, discussion.LinkRequest{
		SessionID: "s1",
		FilePath:  "a.py",
		Type:      discussion.TypeDecision,
		Summary:   strings.Repeat("x", 5000),
	})
	require.NoError(t, err)
	require.Len(t, d.Summary, 4000)
}

func TestDiscussionService_LinkValidation(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newService(t)

	_, err := svc.Link(ctx, discussion.LinkRequest{SessionID: "s1", FilePath: "a.py", Type: "chat", Summary: "x"})
	require.ErrorIs(t, err, discussion.ErrInvalidType)

	_, err = svc.Link(ctx, discussion.LinkRequest{SessionID: "s1", FilePath: "a.py", Summary: "   "})
	require.ErrorIs(t, err, discussion.ErrEmptySummary)

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDiscussionService_LinkNotAssociated(t *testing.T) {
	ctx := context.Background()
	svc, repo, sessRepo := newService(t)
	sessRepo.On("Get", ctx, "s1").Return(&session.Session{ID: "s1", LastActivity: now}, nil)
	repo.On("Create", ctx, mock.Anything).Return(repository.ErrNotFound)

	_, err := svc.Link(ctx, discussion.LinkRequest{SessionID: "s1", FilePath: "b.py", Summary: "x"})
	require.ErrorIs(t, err, association.ErrFileNotAssociated)
}

func TestDiscussionService_List(t *testing.T) {
	ctx := context.Background()
	svc, repo, sessRepo := newService(t)
	sessRepo.On("Get", ctx, "s1").Return(&session.Session{ID: "s1", LastActivity: now}, nil)
	repo.On("ListForFiles", ctx, "s1", []string{"/work/a.py"}).Return([]discussion.Discussion{{ID: "d1"}}, nil)
	repo.On("ListForFiles", ctx, "s1", []string(nil)).Return([]discussion.Discussion{{ID: "d1"}, {ID: "d2"}}, nil)

	one, err := svc.List(ctx, "s1", "a.py")
	require.NoError(t, err)
	require.Len(t, one, 1)

	all, err := svc.List(ctx, "s1", "")
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestGroupByPath(t *testing.T) {
	groups := discussion.GroupByPath([]discussion.Discussion{
		{ID: "1", Path: "/a"},
		{ID: "2", Path: "/b"},
		{ID: "3", Path: "/a"},
	})
	require.Len(t, groups, 2)
	require.Equal(t, "1", groups["/a"][0].ID)
	require.Equal(t, "3", groups["/a"][1].ID)
}
