package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/rpggio/context-keeper/internal/domain/discussion"
	"github.com/rpggio/context-keeper/internal/repository"
)

// DiscussionRepository implements discussion.Repository for SQLite
type DiscussionRepository struct {
	db *DB
}

// NewDiscussionRepository creates a new DiscussionRepository
func NewDiscussionRepository(db *DB) *DiscussionRepository {
	return &DiscussionRepository{db: db}
}

// Create links a discussion to an existing association
func (r *DiscussionRepository) Create(ctx context.Context, d *discussion.Discussion) error {
	query := `
		INSERT INTO discussions (id, association_id, session_id, type, summary, created_at)
		SELECT ?, a.id, a.session_id, ?, ?, ?
		FROM file_associations a
		WHERE a.session_id = ? AND a.path = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		d.ID,
		string(d.Type),
		d.Summary,
		toNanos(d.CreatedAt),
		d.SessionID,
		d.Path,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to create discussion: %w", err)
	}
	return requireRow(result)
}

// ListForFiles returns discussions for the given paths, newest first. No
// paths lists every file of the session.
func (r *DiscussionRepository) ListForFiles(ctx context.Context, sessionID string, paths []string) ([]discussion.Discussion, error) {
	query := `
		SELECT d.id, d.session_id, a.path, d.type, d.summary, d.created_at
		FROM discussions d
		JOIN file_associations a ON a.id = d.association_id
		WHERE d.session_id = ?
	`
	args := []interface{}{sessionID}
	if len(paths) > 0 {
		query += fmt.Sprintf(" AND a.path IN (%s)", placeholders(len(paths)))
		for _, p := range paths {
			args = append(args, p)
		}
	}
	query += " ORDER BY d.created_at DESC, d.rid DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list discussions: %w", err)
	}
	defer rows.Close()

	list := []discussion.Discussion{}
	for rows.Next() {
		var d discussion.Discussion
		var typ string
		var createdAt int64
		if err := rows.Scan(&d.ID, &d.SessionID, &d.Path, &typ, &d.Summary, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan discussion: %w", err)
		}
		d.Type = discussion.Type(typ)
		d.CreatedAt = fromNanos(createdAt)
		list = append(list, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating discussion rows: %w", err)
	}
	return list, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
