package mocks

import (
	"context"
	"time"

	"github.com/rpggio/context-keeper/internal/domain/assembler"
	"github.com/rpggio/context-keeper/internal/domain/association"
	"github.com/rpggio/context-keeper/internal/domain/discussion"
	"github.com/rpggio/context-keeper/internal/domain/edit"
	"github.com/rpggio/context-keeper/internal/domain/session"
	"github.com/stretchr/testify/mock"
)

// SessionRepository is a mock for session.SessionRepository.
type SessionRepository struct {
	mock.Mock
}

func (m *SessionRepository) Create(ctx context.Context, sess *session.Session) error {
	args := m.Called(ctx, sess)
	return args.Error(0)
}

func (m *SessionRepository) Get(ctx context.Context, id string) (*session.Session, error) {
	args := m.Called(ctx, id)
	if sess, ok := args.Get(0).(*session.Session); ok {
		return sess, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) Touch(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *SessionRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *SessionRepository) ListIdleSince(ctx context.Context, cutoff time.Time) ([]string, error) {
	args := m.Called(ctx, cutoff)
	if ids, ok := args.Get(0).([]string); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

// AssociationRepository is a mock for association.Repository.
type AssociationRepository struct {
	mock.Mock
}

func (m *AssociationRepository) Upsert(ctx context.Context, a *association.Association) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *AssociationRepository) Get(ctx context.Context, sessionID, path string) (*association.Association, error) {
	args := m.Called(ctx, sessionID, path)
	if a, ok := args.Get(0).(*association.Association); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AssociationRepository) List(ctx context.Context, sessionID string, limit int) ([]association.Association, error) {
	args := m.Called(ctx, sessionID, limit)
	if list, ok := args.Get(0).([]association.Association); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AssociationRepository) Delete(ctx context.Context, sessionID, path string) error {
	args := m.Called(ctx, sessionID, path)
	return args.Error(0)
}

// EditRepository is a mock for edit.Repository.
type EditRepository struct {
	mock.Mock
}

func (m *EditRepository) Append(ctx context.Context, e *edit.Edit, maxPerFile int) error {
	args := m.Called(ctx, e, maxPerFile)
	return args.Error(0)
}

func (m *EditRepository) Last(ctx context.Context, sessionID, path string) (*edit.Edit, error) {
	args := m.Called(ctx, sessionID, path)
	if e, ok := args.Get(0).(*edit.Edit); ok {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *EditRepository) Recent(ctx context.Context, sessionID string, limit int) ([]edit.Edit, error) {
	args := m.Called(ctx, sessionID, limit)
	if list, ok := args.Get(0).([]edit.Edit); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *EditRepository) ListForFile(ctx context.Context, sessionID, path string) ([]edit.Edit, error) {
	args := m.Called(ctx, sessionID, path)
	if list, ok := args.Get(0).([]edit.Edit); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// DiscussionRepository is a mock for discussion.Repository.
type DiscussionRepository struct {
	mock.Mock
}

func (m *DiscussionRepository) Create(ctx context.Context, d *discussion.Discussion) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *DiscussionRepository) ListForFiles(ctx context.Context, sessionID string, paths []string) ([]discussion.Discussion, error) {
	args := m.Called(ctx, sessionID, paths)
	if list, ok := args.Get(0).([]discussion.Discussion); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// Retriever is a mock for assembler.Retriever.
type Retriever struct {
	mock.Mock
}

func (m *Retriever) Retrieve(ctx context.Context, q assembler.Query) ([]assembler.Snippet, error) {
	args := m.Called(ctx, q)
	if list, ok := args.Get(0).([]assembler.Snippet); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}
