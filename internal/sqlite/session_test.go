package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/context-keeper/internal/domain/session"
	"github.com/rpggio/context-keeper/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestSessionRepository_CreateGet(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewSessionRepository(db)

	now := time.Now()
	sess := &session.Session{
		ID:           "s1",
		Metadata:     map[string]string{"client": "cli"},
		CreatedAt:    now,
		LastActivity: now,
	}
	require.NoError(t, repo.Create(ctx, sess))
	insertAssociation(t, db, "s1", "/src/a.py", now)

	loaded, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, "s1", loaded.ID)
	require.Equal(t, "cli", loaded.Metadata["client"])
	require.Equal(t, 1, loaded.FileCount)
	require.True(t, now.Equal(loaded.CreatedAt))

	require.ErrorIs(t, repo.Create(ctx, sess), repository.ErrConflict)

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSessionRepository_TouchNeverMovesBack(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewSessionRepository(db)

	base := time.Unix(1_700_000_000, 0)
	insertSession(t, db, "s1", base)

	require.NoError(t, repo.Touch(ctx, "s1", base.Add(time.Minute)))
	require.NoError(t, repo.Touch(ctx, "s1", base))

	loaded, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	require.True(t, base.Add(time.Minute).Equal(loaded.LastActivity))

	require.ErrorIs(t, repo.Touch(ctx, "missing", base), repository.ErrNotFound)
}

func TestSessionRepository_DeleteCascades(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewSessionRepository(db)
	edits := NewEditRepository(db)

	now := time.Now()
	insertSession(t, db, "s1", now)
	insertAssociation(t, db, "s1", "/src/a.py", now)
	require.NoError(t, edits.Append(ctx, newEdit("s1", "/src/a.py", now), 10))

	require.NoError(t, repo.Delete(ctx, "s1"))
	require.ErrorIs(t, repo.Delete(ctx, "s1"), repository.ErrNotFound)

	for _, table := range []string{"file_associations", "edits"} {
		var count int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&count))
		require.Zero(t, count, "rows left in %s", table)
	}

	var ftsCount int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM edits_fts WHERE edits_fts MATCH '"hello"'`).Scan(&ftsCount))
	require.Zero(t, ftsCount)
}

func TestSessionRepository_ListIdleSince(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewSessionRepository(db)

	base := time.Unix(1_700_000_000, 0)
	insertSession(t, db, "old", base)
	insertSession(t, db, "older", base.Add(-time.Hour))
	insertSession(t, db, "fresh", base.Add(time.Hour))

	ids, err := repo.ListIdleSince(ctx, base.Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, []string{"older", "old"}, ids)
}
