package edit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rpggio/context-keeper/internal/domain/association"
	"github.com/rpggio/context-keeper/internal/domain/session"
	"github.com/rpggio/context-keeper/internal/repository"
)

// Service handles the edit history log.
type Service struct {
	repo         Repository
	associations Associations
	sessions     Sessions
	paths        PathNormalizer
	opts         Options
	logger       *slog.Logger
}

// NewService creates a new edit service.
func NewService(
	repo Repository,
	associations Associations,
	sessions Sessions,
	paths PathNormalizer,
	opts Options,
	logger *slog.Logger,
) *Service {
	defaults := DefaultOptions()
	if opts.MaxPerFile <= 0 {
		opts.MaxPerFile = defaults.MaxPerFile
	}
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = defaults.RecentLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:         repo,
		associations: associations,
		sessions:     sessions,
		paths:        paths,
		opts:         opts,
		logger:       logger,
	}
}

// RecordRequest describes one recorded edit. Diff may be omitted when
// NewContent is given, in which case the server computes it.
type RecordRequest struct {
	SessionID  string
	FilePath   string
	Diff       string
	OldContent *string
	NewContent *string
	PreHash    string
	PostHash   string
}

// Record appends an edit to the file's history.
func (s *Service) Record(ctx context.Context, req RecordRequest) (*Edit, error) {
	if err := session.ValidateID(req.SessionID); err != nil {
		return nil, err
	}
	path, err := s.paths.Normalize(req.FilePath)
	if err != nil {
		return nil, err
	}
	payload, err := prepare(req, path)
	if err != nil {
		return nil, err
	}

	unlock := s.sessions.Locks().Lock(req.SessionID)
	defer unlock()

	if _, err := s.sessions.Get(ctx, req.SessionID); err != nil {
		return nil, err
	}
	if _, err := s.associations.Get(ctx, req.SessionID, path); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, association.ErrFileNotAssociated
		}
		return nil, fmt.Errorf("loading association: %w", err)
	}

	parsed, err := parseDiff(payload.diff)
	if err != nil {
		s.logger.Debug("edit rejected", "session_id", req.SessionID, "path", path, "error", err)
		return nil, err
	}

	if s.opts.DedupeConsecutive {
		last, err := s.repo.Last(ctx, req.SessionID, path)
		switch {
		case err == nil && last.Diff == payload.diff:
			if err := s.sessions.Touch(ctx, req.SessionID); err != nil {
				return nil, err
			}
			return last, nil
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("loading last edit: %w", err)
		}
	}

	e := &Edit{
		SessionID:    req.SessionID,
		Path:         path,
		CreatedAt:    s.sessions.Now(),
		Diff:         payload.diff,
		PreHash:      payload.preHash,
		PostHash:     payload.postHash,
		LinesAdded:   parsed.Added,
		LinesRemoved: parsed.Removed,
	}
	if err := s.repo.Append(ctx, e, s.opts.MaxPerFile); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, association.ErrFileNotAssociated
		}
		return nil, fmt.Errorf("appending edit: %w", err)
	}
	if err := s.sessions.Touch(ctx, req.SessionID); err != nil {
		return nil, err
	}

	s.logger.Debug("edit recorded", "session_id", req.SessionID, "path", path, "seq", e.Seq)
	return e, nil
}

// Recent returns the session's latest edits across all files, newest first.
// A non-positive limit uses the configured default.
func (s *Service) Recent(ctx context.Context, sessionID string, limit int) ([]Edit, error) {
	if limit <= 0 {
		limit = s.opts.RecentLimit
	}

	unlock := s.sessions.Locks().RLock(sessionID)
	defer unlock()

	if _, err := s.sessions.Get(ctx, sessionID); err != nil {
		return nil, err
	}
	edits, err := s.repo.Recent(ctx, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent edits: %w", err)
	}
	if err := s.sessions.Touch(ctx, sessionID); err != nil {
		return nil, err
	}
	return edits, nil
}

// ListForFile returns a file's retained history in sequence order.
func (s *Service) ListForFile(ctx context.Context, sessionID, filePath string) ([]Edit, error) {
	path, err := s.paths.Normalize(filePath)
	if err != nil {
		return nil, err
	}

	unlock := s.sessions.Locks().RLock(sessionID)
	defer unlock()

	if _, err := s.sessions.Get(ctx, sessionID); err != nil {
		return nil, err
	}
	if _, err := s.associations.Get(ctx, sessionID, path); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, association.ErrFileNotAssociated
		}
		return nil, fmt.Errorf("loading association: %w", err)
	}
	edits, err := s.repo.ListForFile(ctx, sessionID, path)
	if err != nil {
		return nil, fmt.Errorf("listing file edits: %w", err)
	}
	return edits, nil
}

// RecentLimit returns the configured default for Recent.
func (s *Service) RecentLimit() int {
	return s.opts.RecentLimit
}
