package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rpggio/context-keeper/internal/domain/association"
	"github.com/rpggio/context-keeper/internal/repository"
)

// AssociationRepository implements association.Repository for SQLite
type AssociationRepository struct {
	db *DB
}

// NewAssociationRepository creates a new AssociationRepository
func NewAssociationRepository(db *DB) *AssociationRepository {
	return &AssociationRepository{db: db}
}

const associationColumns = `
	a.id, a.session_id, a.path, a.language, a.size, a.summary,
	a.first_associated, a.last_accessed,
	(SELECT COUNT(*) FROM edits e WHERE e.association_id = a.id),
	(SELECT MAX(e.created_at) FROM edits e WHERE e.association_id = a.id)
`

// Upsert creates the association or refreshes its last access and any
// metadata supplied
func (r *AssociationRepository) Upsert(ctx context.Context, a *association.Association) error {
	now := toNanos(a.LastAccessed)
	if a.LastAccessed.IsZero() {
		now = toNanos(timeNow())
	}

	query := `
		INSERT INTO file_associations (
			session_id, path, language, size, summary, first_associated, last_accessed
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id, path) DO UPDATE SET
			last_accessed = MAX(file_associations.last_accessed, excluded.last_accessed),
			language = CASE WHEN excluded.language != '' THEN excluded.language ELSE file_associations.language END,
			size = CASE WHEN excluded.size > 0 THEN excluded.size ELSE file_associations.size END,
			summary = CASE WHEN excluded.summary != '' THEN excluded.summary ELSE file_associations.summary END
		RETURNING id, language, size, summary, first_associated, last_accessed
	`

	var firstAssociated, lastAccessed int64
	err := r.db.QueryRowContext(ctx, query,
		a.SessionID,
		a.Path,
		a.Language,
		a.Size,
		a.Summary,
		now,
		now,
	).Scan(&a.ID, &a.Language, &a.Size, &a.Summary, &firstAssociated, &lastAccessed)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("failed to upsert association: %w", err)
	}
	a.FirstAssociated = fromNanos(firstAssociated)
	a.LastAccessed = fromNanos(lastAccessed)

	// Edit aggregates are unchanged by an upsert; reload them for the caller.
	var lastEdit sql.NullInt64
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MAX(created_at) FROM edits WHERE association_id = ?`, a.ID,
	).Scan(&a.EditCount, &lastEdit)
	if err != nil {
		return fmt.Errorf("failed to load edit aggregates: %w", err)
	}
	if lastEdit.Valid {
		t := fromNanos(lastEdit.Int64)
		a.LastEdit = &t
	}
	return nil
}

// Get retrieves one association by session and normalized path
func (r *AssociationRepository) Get(ctx context.Context, sessionID, path string) (*association.Association, error) {
	query := `SELECT ` + associationColumns + `
		FROM file_associations a
		WHERE a.session_id = ? AND a.path = ?
	`
	a, err := scanAssociation(r.db.QueryRowContext(ctx, query, sessionID, path))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get association: %w", err)
	}
	return a, nil
}

// List returns a session's associations, most recently accessed first
func (r *AssociationRepository) List(ctx context.Context, sessionID string, limit int) ([]association.Association, error) {
	query := `SELECT ` + associationColumns + `
		FROM file_associations a
		WHERE a.session_id = ?
		ORDER BY a.last_accessed DESC, a.id DESC
	`
	args := []interface{}{sessionID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list associations: %w", err)
	}
	defer rows.Close()

	list := []association.Association{}
	for rows.Next() {
		a, err := scanAssociation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan association: %w", err)
		}
		list = append(list, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating association rows: %w", err)
	}
	return list, nil
}

// Delete removes an association; its edits and discussions cascade
func (r *AssociationRepository) Delete(ctx context.Context, sessionID, path string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM file_associations WHERE session_id = ? AND path = ?`,
		sessionID, path,
	)
	if err != nil {
		return fmt.Errorf("failed to delete association: %w", err)
	}
	return requireRow(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssociation(row rowScanner) (*association.Association, error) {
	var a association.Association
	var firstAssociated, lastAccessed int64
	var lastEdit sql.NullInt64
	if err := row.Scan(
		&a.ID,
		&a.SessionID,
		&a.Path,
		&a.Language,
		&a.Size,
		&a.Summary,
		&firstAssociated,
		&lastAccessed,
		&a.EditCount,
		&lastEdit,
	); err != nil {
		return nil, err
	}
	a.FirstAssociated = fromNanos(firstAssociated)
	a.LastAccessed = fromNanos(lastAccessed)
	if lastEdit.Valid {
		t := fromNanos(lastEdit.Int64)
		a.LastEdit = &t
	}
	return &a, nil
}
