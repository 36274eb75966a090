package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rpggio/context-keeper/internal/domain/session"
	"github.com/rpggio/context-keeper/internal/repository"
)

// SessionRepository implements session.SessionRepository for SQLite
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new session
func (r *SessionRepository) Create(ctx context.Context, sess *session.Session) error {
	metadata := sess.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	encoded, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to encode session metadata: %w", err)
	}

	query := `
		INSERT INTO sessions (id, metadata, created_at, last_activity)
		VALUES (?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		sess.ID,
		string(encoded),
		toNanos(sess.CreatedAt),
		toNanos(sess.LastActivity),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Get retrieves a session by ID along with its file count
func (r *SessionRepository) Get(ctx context.Context, id string) (*session.Session, error) {
	query := `
		SELECT
			s.id, s.metadata, s.created_at, s.last_activity,
			(SELECT COUNT(*) FROM file_associations a WHERE a.session_id = s.id)
		FROM sessions s
		WHERE s.id = ?
	`

	var sess session.Session
	var metadata string
	var createdAt, lastActivity int64
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&sess.ID,
		&metadata,
		&createdAt,
		&lastActivity,
		&sess.FileCount,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	sess.CreatedAt = fromNanos(createdAt)
	sess.LastActivity = fromNanos(lastActivity)
	if metadata != "" && metadata != "{}" {
		if err := json.Unmarshal([]byte(metadata), &sess.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode session metadata: %w", err)
		}
	}
	return &sess, nil
}

// Touch moves last_activity forward to at; it never moves it back
func (r *SessionRepository) Touch(ctx context.Context, id string, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET last_activity = MAX(last_activity, ?) WHERE id = ?`,
		toNanos(at), id,
	)
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return requireRow(result)
}

// Delete removes a session; associations, edits and discussions cascade
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return requireRow(result)
}

// ListIdleSince returns ids of sessions whose last activity is before cutoff
func (r *SessionRepository) ListIdleSince(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM sessions WHERE last_activity < ? ORDER BY last_activity, id`,
		toNanos(cutoff),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list idle sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session rows: %w", err)
	}
	return ids, nil
}
