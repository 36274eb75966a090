package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rpggio/context-keeper/internal/domain/edit"
	"github.com/rpggio/context-keeper/internal/repository"
)

// EditRepository implements edit.Repository for SQLite
type EditRepository struct {
	db *DB
}

// NewEditRepository creates a new EditRepository
func NewEditRepository(db *DB) *EditRepository {
	return &EditRepository{db: db}
}

const editColumns = `
	e.id, e.session_id, a.path, e.seq, e.created_at, e.diff,
	e.pre_hash, e.post_hash, e.lines_added, e.lines_removed
`

// Append stores e with the association's next sequence number, evicts the
// oldest records beyond maxPerFile and refreshes the association's last
// access, in one transaction
func (r *EditRepository) Append(ctx context.Context, e *edit.Edit, maxPerFile int) error {
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = timeNow()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var associationID, seq int64
	err = tx.QueryRowContext(ctx,
		`SELECT id, next_seq FROM file_associations WHERE session_id = ? AND path = ?`,
		e.SessionID, e.Path,
	).Scan(&associationID, &seq)
	if err == sql.ErrNoRows {
		return repository.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load association: %w", err)
	}

	insertQuery := `
		INSERT INTO edits (
			association_id, session_id, seq, diff, pre_hash, post_hash,
			lines_added, lines_removed, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := tx.ExecContext(ctx, insertQuery,
		associationID,
		e.SessionID,
		seq,
		e.Diff,
		e.PreHash,
		e.PostHash,
		e.LinesAdded,
		e.LinesRemoved,
		toNanos(createdAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert edit: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get edit id: %w", err)
	}

	updateQuery := `
		UPDATE file_associations
		SET next_seq = next_seq + 1,
			last_accessed = MAX(last_accessed, ?)
		WHERE id = ?
	`
	if _, err := tx.ExecContext(ctx, updateQuery, toNanos(createdAt), associationID); err != nil {
		return fmt.Errorf("failed to advance sequence: %w", err)
	}

	if maxPerFile > 0 {
		evictQuery := `
			DELETE FROM edits
			WHERE association_id = ? AND id NOT IN (
				SELECT id FROM edits WHERE association_id = ?
				ORDER BY seq DESC
				LIMIT ?
			)
		`
		if _, err := tx.ExecContext(ctx, evictQuery, associationID, associationID, maxPerFile); err != nil {
			return fmt.Errorf("failed to evict old edits: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	e.ID = id
	e.Seq = seq
	e.CreatedAt = fromNanos(toNanos(createdAt))
	return nil
}

// Last returns the newest edit of a file
func (r *EditRepository) Last(ctx context.Context, sessionID, path string) (*edit.Edit, error) {
	query := `SELECT ` + editColumns + `
		FROM edits e
		JOIN file_associations a ON a.id = e.association_id
		WHERE a.session_id = ? AND a.path = ?
		ORDER BY e.seq DESC
		LIMIT 1
	`
	e, err := scanEdit(r.db.QueryRowContext(ctx, query, sessionID, path))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last edit: %w", err)
	}
	return e, nil
}

// Recent returns a session's edits across files, newest first
func (r *EditRepository) Recent(ctx context.Context, sessionID string, limit int) ([]edit.Edit, error) {
	query := `SELECT ` + editColumns + `
		FROM edits e
		JOIN file_associations a ON a.id = e.association_id
		WHERE e.session_id = ?
		ORDER BY e.created_at DESC, e.id DESC
	`
	args := []interface{}{sessionID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return r.list(ctx, query, args...)
}

// ListForFile returns a file's edits in sequence order
func (r *EditRepository) ListForFile(ctx context.Context, sessionID, path string) ([]edit.Edit, error) {
	query := `SELECT ` + editColumns + `
		FROM edits e
		JOIN file_associations a ON a.id = e.association_id
		WHERE a.session_id = ? AND a.path = ?
		ORDER BY e.seq ASC
	`
	return r.list(ctx, query, sessionID, path)
}

func (r *EditRepository) list(ctx context.Context, query string, args ...interface{}) ([]edit.Edit, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list edits: %w", err)
	}
	defer rows.Close()

	edits := []edit.Edit{}
	for rows.Next() {
		e, err := scanEdit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan edit: %w", err)
		}
		edits = append(edits, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating edit rows: %w", err)
	}
	return edits, nil
}

func scanEdit(row rowScanner) (*edit.Edit, error) {
	var e edit.Edit
	var createdAt int64
	if err := row.Scan(
		&e.ID,
		&e.SessionID,
		&e.Path,
		&e.Seq,
		&createdAt,
		&e.Diff,
		&e.PreHash,
		&e.PostHash,
		&e.LinesAdded,
		&e.LinesRemoved,
	); err != nil {
		return nil, err
	}
	e.CreatedAt = fromNanos(createdAt)
	return &e, nil
}
