package association

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/rpggio/context-keeper/internal/domain/session"
	"github.com/rpggio/context-keeper/internal/repository"
)

// Options configures path resolution and implicit session creation.
type Options struct {
	Root       string
	AutoCreate bool
}

// Service handles file association operations.
type Service struct {
	repo     Repository
	sessions Sessions
	opts     Options
	logger   *slog.Logger
}

// NewService creates a new association service.
func NewService(repo Repository, sessions Sessions, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, sessions: sessions, opts: opts, logger: logger}
}

// AssociateRequest describes a file association request.
type AssociateRequest struct {
	SessionID string
	FilePath  string
	// Language overrides extension-based detection.
	Language string
	// Content, when present, fills size and summary metadata.
	Content *string
}

// Normalize resolves a caller-supplied path the way stored paths are keyed.
func (s *Service) Normalize(p string) (string, error) {
	return NormalizePath(s.opts.Root, p)
}

// Associate creates or refreshes the association of a file with a session.
func (s *Service) Associate(ctx context.Context, req AssociateRequest) (*Association, error) {
	if err := session.ValidateID(req.SessionID); err != nil {
		return nil, err
	}
	path, err := s.Normalize(req.FilePath)
	if err != nil {
		return nil, err
	}

	unlock := s.sessions.Locks().Lock(req.SessionID)
	defer unlock()

	if s.opts.AutoCreate {
		_, err = s.sessions.Ensure(ctx, req.SessionID)
	} else {
		_, err = s.sessions.Get(ctx, req.SessionID)
	}
	if err != nil {
		return nil, err
	}

	a := &Association{
		SessionID:    req.SessionID,
		Path:         path,
		Language:     strings.TrimSpace(req.Language),
		LastAccessed: s.sessions.Now(),
	}
	if a.Language == "" {
		a.Language = DetectLanguage(path)
	}
	if req.Content != nil {
		a.Size = int64(len(*req.Content))
		a.Summary = summarize(*req.Content)
	} else if info, statErr := os.Stat(path); statErr == nil && info.Mode().IsRegular() {
		a.Size = info.Size()
	}

	if err := s.repo.Upsert(ctx, a); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, session.ErrSessionNotFound
		}
		return nil, fmt.Errorf("associating file: %w", err)
	}
	if err := s.sessions.Touch(ctx, req.SessionID); err != nil {
		return nil, err
	}

	s.logger.Debug("file associated", "session_id", req.SessionID, "path", path)
	return a, nil
}

// List returns the session's associations, most recently accessed first.
func (s *Service) List(ctx context.Context, sessionID string, limit int) ([]Association, error) {
	unlock := s.sessions.Locks().RLock(sessionID)
	defer unlock()

	if _, err := s.sessions.Get(ctx, sessionID); err != nil {
		return nil, err
	}
	list, err := s.repo.List(ctx, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing associations: %w", err)
	}
	if err := s.sessions.Touch(ctx, sessionID); err != nil {
		return nil, err
	}
	return list, nil
}

// Dissociate removes an association and its history. Removing a file that
// is not associated is not an error.
func (s *Service) Dissociate(ctx context.Context, sessionID, filePath string) error {
	if err := session.ValidateID(sessionID); err != nil {
		return err
	}
	path, err := s.Normalize(filePath)
	if err != nil {
		return err
	}

	unlock := s.sessions.Locks().Lock(sessionID)
	defer unlock()

	if _, err := s.sessions.Get(ctx, sessionID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, sessionID, path); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("dissociating file: %w", err)
	}
	if err := s.sessions.Touch(ctx, sessionID); err != nil {
		return err
	}
	s.logger.Debug("file dissociated", "session_id", sessionID, "path", path)
	return nil
}

func summarize(content string) string {
	lines := strings.Count(content, "\n")
	if content != "" && !strings.HasSuffix(content, "\n") {
		lines++
	}
	return fmt.Sprintf("%d lines, %d bytes", lines, len(content))
}
