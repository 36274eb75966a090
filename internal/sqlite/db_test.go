package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/context-keeper/internal/domain/association"
	"github.com/rpggio/context-keeper/internal/domain/session"
	"github.com/stretchr/testify/require"
)

// NewTestDB creates a new in-memory SQLite database for testing
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err, "failed to create test database")

	err = db.RunMigrations()
	require.NoError(t, err, "failed to run migrations")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// TestMigrations verifies that migrations run successfully
func TestMigrations(t *testing.T) {
	db := NewTestDB(t)

	// Verify all tables were created
	tables := []string{
		"sessions",
		"file_associations",
		"edits",
		"discussions",
		"edits_fts",
		"discussions_fts",
	}

	for _, table := range tables {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err, "failed to query table %s", table)
		require.Equal(t, 1, count, "table %s not found", table)
	}
}

func TestMigrations_Idempotent(t *testing.T) {
	db := NewTestDB(t)
	require.NoError(t, db.RunMigrations())
}

// TestForeignKeys verifies that foreign key constraints are enabled
func TestForeignKeys(t *testing.T) {
	db := NewTestDB(t)

	var enabled int
	err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled)
	require.NoError(t, err)
	require.Equal(t, 1, enabled, "foreign keys not enabled")
}

func insertSession(t *testing.T, db *DB, id string, at time.Time) {
	t.Helper()
	repo := NewSessionRepository(db)
	require.NoError(t, repo.Create(context.Background(), &session.Session{
		ID:           id,
		CreatedAt:    at,
		LastActivity: at,
	}))
}

func insertAssociation(t *testing.T, db *DB, sessionID, path string, at time.Time) *association.Association {
	t.Helper()
	repo := NewAssociationRepository(db)
	a := &association.Association{SessionID: sessionID, Path: path, LastAccessed: at}
	require.NoError(t, repo.Upsert(context.Background(), a))
	return a
}
