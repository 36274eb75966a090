package discussion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/rpggio/context-keeper/internal/domain/association"
	"github.com/rpggio/context-keeper/internal/domain/session"
	"github.com/rpggio/context-keeper/internal/repository"
)

const maxSummaryLength = 4000

// Service links discussions to associated files.
type Service struct {
	repo     Repository
	sessions Sessions
	paths    PathNormalizer
	logger   *slog.Logger
}

// NewService creates a new discussion service.
func NewService(repo Repository, sessions Sessions, paths PathNormalizer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, sessions: sessions, paths: paths, logger: logger}
}

// LinkRequest describes a discussion to attach to a file.
type LinkRequest struct {
	SessionID string
	FilePath  string
	Type      Type
	Summary   string
}

// Link records a discussion against an associated file.
func (s *Service) Link(ctx context.Context, req LinkRequest) (*Discussion, error) {
	if err := session.ValidateID(req.SessionID); err != nil {
		return nil, err
	}
	path, err := s.paths.Normalize(req.FilePath)
	if err != nil {
		return nil, err
	}
	if req.Type == "" {
		req.Type = TypeMessage
	}
	if !req.Type.Valid() {
		return nil, ErrInvalidType
	}
	summary := strings.TrimSpace(req.Summary)
	if summary == "" {
		return nil, ErrEmptySummary
	}
	if len(summary) > maxSummaryLength {
		summary = summary[:maxSummaryLength]
	}

	unlock := s.sessions.Locks().Lock(req.SessionID)
	defer unlock()

	if _, err := s.sessions.Get(ctx, req.SessionID); err != nil {
		return nil, err
	}

	d := &Discussion{
		ID:        uuid.NewString(),
		SessionID: req.SessionID,
		Path:      path,
		Type:      req.Type,
		Summary:   summary,
		CreatedAt: s.sessions.Now(),
	}
	if err := s.repo.Create(ctx, d); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, association.ErrFileNotAssociated
		}
		return nil, fmt.Errorf("linking discussion: %w", err)
	}
	if err := s.sessions.Touch(ctx, req.SessionID); err != nil {
		return nil, err
	}
	return d, nil
}

// GroupByPath buckets discussions by file path, keeping their order.
func GroupByPath(list []Discussion) map[string][]Discussion {
	out := make(map[string][]Discussion)
	for _, d := range list {
		out[d.Path] = append(out[d.Path], d)
	}
	return out
}

// List returns the discussions of one file, or of every file when filePath
// is empty, newest first.
func (s *Service) List(ctx context.Context, sessionID, filePath string) ([]Discussion, error) {
	var paths []string
	if strings.TrimSpace(filePath) != "" {
		path, err := s.paths.Normalize(filePath)
		if err != nil {
			return nil, err
		}
		paths = []string{path}
	}

	unlock := s.sessions.Locks().RLock(sessionID)
	defer unlock()

	if _, err := s.sessions.Get(ctx, sessionID); err != nil {
		return nil, err
	}
	list, err := s.repo.ListForFiles(ctx, sessionID, paths)
	if err != nil {
		return nil, fmt.Errorf("listing discussions: %w", err)
	}
	return list, nil
}
