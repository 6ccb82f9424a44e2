package repository

import (
	"context"
	"testing"

	"github.com/alexanderramin/pmdash/internal/domain"
	"github.com/alexanderramin/pmdash/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProject(t *testing.T, repo *SQLiteProjectRepo, tenant, id string) {
	t.Helper()
	require.NoError(t, repo.Upsert(context.Background(), &ProjectRow{ID: id, Tenant: tenant}))
}

func TestEntityRepo_UpsertPreservesOrder(t *testing.T) {
	database := testutil.NewTestDB(t)
	seedProject(t, NewSQLiteProjectRepo(database), "acme", "p1")
	repo := NewSQLiteEntityRepo(database)
	ctx := context.Background()

	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, repo.Upsert(ctx, &EntityRow{ProjectID: "p1", Kind: domain.KindTasks, ID: id, Body: `{"id":"` + id + `"}`}))
	}
	// Updating an existing entity keeps its slot.
	require.NoError(t, repo.Upsert(ctx, &EntityRow{ProjectID: "p1", Kind: domain.KindTasks, ID: "c", Body: `{"id":"c","title":"x"}`}))

	rows, err := repo.ListByProject(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{rows[0].ID, rows[1].ID, rows[2].ID})
	assert.Equal(t, `{"id":"c","title":"x"}`, rows[0].Body)
}

func TestEntityRepo_UnknownProjectRejected(t *testing.T) {
	repo := NewSQLiteEntityRepo(testutil.NewTestDB(t))

	err := repo.Upsert(context.Background(), &EntityRow{ProjectID: "ghost", Kind: domain.KindTasks, ID: "t1", Body: "{}"})
	assert.Error(t, err)
}

func TestEntityRepo_Delete(t *testing.T) {
	database := testutil.NewTestDB(t)
	seedProject(t, NewSQLiteProjectRepo(database), "acme", "p1")
	repo := NewSQLiteEntityRepo(database)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &EntityRow{ProjectID: "p1", Kind: domain.KindRisks, ID: "r1", Body: "{}"}))
	require.NoError(t, repo.Delete(ctx, "p1", domain.KindRisks, "r1"))
	// Deleting again is a no-op.
	require.NoError(t, repo.Delete(ctx, "p1", domain.KindRisks, "r1"))

	rows, err := repo.ListByProject(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestEntityRepo_ListByTenant(t *testing.T) {
	database := testutil.NewTestDB(t)
	projects := NewSQLiteProjectRepo(database)
	seedProject(t, projects, "acme", "p1")
	seedProject(t, projects, "acme", "p2")
	seedProject(t, projects, "globex", "p3")
	repo := NewSQLiteEntityRepo(database)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &EntityRow{ProjectID: "p2", Kind: domain.KindTasks, ID: "t2", Body: "{}"}))
	require.NoError(t, repo.Upsert(ctx, &EntityRow{ProjectID: "p1", Kind: domain.KindTasks, ID: "t1", Body: "{}"}))
	require.NoError(t, repo.Upsert(ctx, &EntityRow{ProjectID: "p3", Kind: domain.KindTasks, ID: "t3", Body: "{}"}))

	rows, err := repo.ListByTenant(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "p1", rows[0].ProjectID)
	assert.Equal(t, "p2", rows[1].ProjectID)
}
