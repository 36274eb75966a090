package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/context-keeper/internal/domain/edit"
	"github.com/rpggio/context-keeper/internal/repository"
	"github.com/stretchr/testify/require"
)

func newEdit(sessionID, path string, at time.Time) *edit.Edit {
	return &edit.Edit{
		SessionID:  sessionID,
		Path:       path,
		CreatedAt:  at,
		Diff:       "--- a/f\n+++ b/f\n@@ -0,0 +1 @@\n+hello\n",
		LinesAdded: 1,
	}
}

func TestEditRepository_AppendSequences(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewEditRepository(db)

	base := time.Unix(1_700_000_000, 0)
	insertSession(t, db, "s1", base)
	insertAssociation(t, db, "s1", "/a", base)
	insertAssociation(t, db, "s1", "/b", base)

	for i := 1; i <= 3; i++ {
		e := newEdit("s1", "/a", base.Add(time.Duration(i)*time.Second))
		require.NoError(t, repo.Append(ctx, e, 10))
		require.Equal(t, int64(i), e.Seq)
		require.NotZero(t, e.ID)
	}
	other := newEdit("s1", "/b", base.Add(5*time.Second))
	require.NoError(t, repo.Append(ctx, other, 10))
	require.Equal(t, int64(1), other.Seq, "sequences are per file")

	list, err := repo.ListForFile(ctx, "s1", "/a")
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, e := range list {
		require.Equal(t, int64(i+1), e.Seq)
		require.Equal(t, "/a", e.Path)
	}

	a, err := NewAssociationRepository(db).Get(ctx, "s1", "/a")
	require.NoError(t, err)
	require.True(t, base.Add(3*time.Second).Equal(a.LastAccessed), "append refreshes last access")
}

func TestEditRepository_AppendMissingAssociation(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewEditRepository(db)

	insertSession(t, db, "s1", time.Now())
	err := repo.Append(ctx, newEdit("s1", "/nope", time.Now()), 10)
	require.ErrorIs(t, err, repository.ErrNotFound)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM edits").Scan(&count))
	require.Zero(t, count)
}

func TestEditRepository_EvictsOldest(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewEditRepository(db)

	base := time.Unix(1_700_000_000, 0)
	insertSession(t, db, "s1", base)
	insertAssociation(t, db, "s1", "/a", base)

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Append(ctx, newEdit("s1", "/a", base.Add(time.Duration(i)*time.Second)), 3))
	}

	list, err := repo.ListForFile(ctx, "s1", "/a")
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, []int64{3, 4, 5}, []int64{list[0].Seq, list[1].Seq, list[2].Seq})
}

func TestEditRepository_RecentOrder(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewEditRepository(db)

	base := time.Unix(1_700_000_000, 0)
	insertSession(t, db, "s1", base)
	insertSession(t, db, "s2", base)
	insertAssociation(t, db, "s1", "/a", base)
	insertAssociation(t, db, "s1", "/b", base)
	insertAssociation(t, db, "s2", "/a", base)

	e1 := newEdit("s1", "/a", base.Add(1*time.Second))
	e2 := newEdit("s1", "/b", base.Add(2*time.Second))
	e3 := newEdit("s1", "/a", base.Add(2*time.Second)) // ties with e2
	foreign := newEdit("s2", "/a", base.Add(9*time.Second))
	for _, e := range []*edit.Edit{e1, e2, e3, foreign} {
		require.NoError(t, repo.Append(ctx, e, 10))
	}

	recent, err := repo.Recent(ctx, "s1", 10)
	require.NoError(t, err)
	require.Equal(t, []int64{e3.ID, e2.ID, e1.ID}, ids(recent))

	limited, err := repo.Recent(ctx, "s1", 2)
	require.NoError(t, err)
	require.Equal(t, []int64{e3.ID, e2.ID}, ids(limited))

	last, err := repo.Last(ctx, "s1", "/a")
	require.NoError(t, err)
	require.Equal(t, e3.ID, last.ID)

	_, err = repo.Last(ctx, "s1", "/none")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func ids(list []edit.Edit) []int64 {
	out := make([]int64, len(list))
	for i, e := range list {
		out[i] = e.ID
	}
	return out
}
