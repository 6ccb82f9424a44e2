package remote_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alexanderramin/pmdash/internal/domain"
	"github.com/alexanderramin/pmdash/internal/remote"
	"github.com/alexanderramin/pmdash/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tenant = "acme"

func newLocal(t *testing.T) *remote.Local {
	t.Helper()
	return remote.NewLocal(testutil.NewTestDB(t))
}

// pushProject writes a whole project the way the sync agent does.
func pushProject(t *testing.T, svc remote.Service, p domain.Project) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, svc.UpsertEntity(ctx, tenant, p.ID, domain.KindProjects, p.Header()))
	for _, r := range p.Records() {
		require.NoError(t, svc.UpsertEntity(ctx, tenant, p.ID, r.Kind, r.Value))
	}
}

func collect(t *testing.T) (func(remote.Change), <-chan remote.Change) {
	t.Helper()
	ch := make(chan remote.Change, 32)
	return func(c remote.Change) { ch <- c }, ch
}

func next(t *testing.T, ch <-chan remote.Change) remote.Change {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change")
		return remote.Change{}
	}
}

func TestLocal_RoundTripsWholeProject(t *testing.T) {
	svc := newLocal(t)
	dep := testutil.NewTestTask("Foundations")
	p := testutil.NewTestProject("Bridge",
		testutil.WithContract("1000000"),
		testutil.WithTasks(dep, testutil.NewTestTask("Deck", testutil.WithDependencies(dep.ID))),
		testutil.WithIssues(testutil.NewTestIssue("Flooding")),
		testutil.WithMembers(testutil.NewTestMember("Ana", "Engineer")),
		testutil.WithExpenses(testutil.NewTestExpense("Steel", "2500.10")),
	)
	pushProject(t, svc, p)

	got, err := svc.GetAllProjects(context.Background(), tenant)
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, p.ID, got[0].ID)
	assert.Equal(t, p.Info, got[0].Info)
	assert.Equal(t, p.Tasks, got[0].Tasks)
	assert.Equal(t, p.Issues, got[0].Issues)
	assert.Equal(t, p.Members, got[0].Members)
	assert.True(t, got[0].Budget.ContractAmount.Equal(decimal.RequireFromString("1000000")))
	assert.True(t, got[0].Budget.Spent().Equal(decimal.RequireFromString("2500.10")))
	assert.NotNil(t, got[0].Risks, "collections are allocated")
}

func TestLocal_UpsertReplacesInPlace(t *testing.T) {
	svc := newLocal(t)
	ctx := context.Background()
	a := testutil.NewTestTask("A")
	b := testutil.NewTestTask("B")
	p := testutil.NewTestProject("Depot", testutil.WithTasks(a, b))
	pushProject(t, svc, p)

	a.Status = domain.TaskDone
	require.NoError(t, svc.UpsertEntity(ctx, tenant, p.ID, domain.KindTasks, a))

	got, err := svc.GetAllProjects(ctx, tenant)
	require.NoError(t, err)
	require.Len(t, got[0].Tasks, 2)
	assert.Equal(t, a.ID, got[0].Tasks[0].ID)
	assert.Equal(t, domain.TaskDone, got[0].Tasks[0].Status)
}

func TestLocal_UpsertErrors(t *testing.T) {
	svc := newLocal(t)
	ctx := context.Background()

	err := svc.UpsertEntity(ctx, tenant, "ghost", domain.KindTasks, testutil.NewTestTask("x"))
	assert.ErrorIs(t, err, remote.ErrProjectNotFound)

	err = svc.UpsertEntity(ctx, tenant, "ghost", domain.KindBudget, domain.BudgetHeader{})
	assert.ErrorIs(t, err, remote.ErrProjectNotFound)

	err = svc.UpsertEntity(ctx, tenant, "p1", "widgets", map[string]string{"id": "w"})
	assert.ErrorIs(t, err, remote.ErrUnknownEntityType)

	pushProject(t, svc, testutil.NewTestProject("Real", testutil.WithProjectID("p1")))
	err = svc.UpsertEntity(ctx, tenant, "p1", domain.KindTasks, domain.Task{Title: "no id"})
	assert.ErrorIs(t, err, remote.ErrMissingEntityID)
}

func TestLocal_TenantIsolation(t *testing.T) {
	svc := newLocal(t)
	ctx := context.Background()
	pushProject(t, svc, testutil.NewTestProject("Mine"))

	other, err := svc.GetAllProjects(ctx, "globex")
	require.NoError(t, err)
	assert.Empty(t, other)

	// Another tenant cannot write into this tenant's project.
	mine, err := svc.GetAllProjects(ctx, tenant)
	require.NoError(t, err)
	err = svc.UpsertEntity(ctx, "globex", mine[0].ID, domain.KindTasks, testutil.NewTestTask("intruder"))
	assert.ErrorIs(t, err, remote.ErrProjectNotFound)
}

func TestLocal_DeleteProjectCascades(t *testing.T) {
	svc := newLocal(t)
	ctx := context.Background()
	p := testutil.NewTestProject("Gone", testutil.WithTasks(testutil.NewTestTask("t")))
	pushProject(t, svc, p)
	keep := testutil.NewTestProject("Kept")
	pushProject(t, svc, keep)

	require.NoError(t, svc.DeleteEntity(ctx, tenant, p.ID, domain.KindProjects, p.ID))

	got, err := svc.GetAllProjects(ctx, tenant)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, keep.ID, got[0].ID)

	// Re-creating the id starts from an empty project.
	require.NoError(t, svc.UpsertEntity(ctx, tenant, p.ID, domain.KindProjects, p.Header()))
	got, err = svc.GetAllProjects(ctx, tenant)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Empty(t, got[1].Tasks)
}

func TestLocal_DeleteEntityAndBudget(t *testing.T) {
	svc := newLocal(t)
	ctx := context.Background()
	task := testutil.NewTestTask("t")
	p := testutil.NewTestProject("P", testutil.WithContract("50"), testutil.WithTasks(task))
	pushProject(t, svc, p)

	require.NoError(t, svc.DeleteEntity(ctx, tenant, p.ID, domain.KindTasks, task.ID))
	require.NoError(t, svc.DeleteEntity(ctx, tenant, p.ID, domain.KindBudget, p.ID))
	// Missing rows and projects are not errors.
	require.NoError(t, svc.DeleteEntity(ctx, tenant, p.ID, domain.KindTasks, task.ID))
	require.NoError(t, svc.DeleteEntity(ctx, tenant, "ghost", domain.KindTasks, "x"))

	got, err := svc.GetAllProjects(ctx, tenant)
	require.NoError(t, err)
	assert.Empty(t, got[0].Tasks)
	assert.True(t, got[0].Budget.ContractAmount.IsZero())
}

func TestLocal_SubscribeFiltersByTenantAndTable(t *testing.T) {
	svc := newLocal(t)
	ctx := context.Background()
	fn, ch := collect(t)

	sub, err := svc.Subscribe(ctx, tenant, []domain.EntityType{domain.KindTasks}, fn)
	require.NoError(t, err)
	defer sub.Close()

	p := testutil.NewTestProject("P")
	require.NoError(t, svc.UpsertEntity(ctx, tenant, p.ID, domain.KindProjects, p.Header()))
	require.NoError(t, svc.UpsertEntity(ctx, "globex", "other", domain.KindProjects, domain.ProjectHeader{ID: "other"}))
	task := testutil.NewTestTask("t")
	require.NoError(t, svc.UpsertEntity(ctx, tenant, p.ID, domain.KindTasks, task))

	c := next(t, ch)
	assert.Equal(t, tenant, c.Tenant)
	assert.Equal(t, domain.KindTasks, c.Table)
	assert.Equal(t, remote.ChangeUpsert, c.Op)
	assert.Equal(t, p.ID, c.ProjectID)
	assert.Equal(t, task.ID, c.EntityID)

	select {
	case extra := <-ch:
		t.Fatalf("unexpected change %+v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLocal_SubscribeClosedByContext(t *testing.T) {
	svc := newLocal(t)
	ctx, cancel := context.WithCancel(context.Background())
	fn, _ := collect(t)

	_, err := svc.Subscribe(ctx, tenant, nil, fn)
	require.NoError(t, err)
	assert.Equal(t, 1, svc.Hub().Len())

	cancel()
	assert.Eventually(t, func() bool { return svc.Hub().Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestLocal_SubscribeRejectsUnknownTable(t *testing.T) {
	svc := newLocal(t)
	_, err := svc.Subscribe(context.Background(), tenant, []domain.EntityType{"widgets"}, func(remote.Change) {})
	assert.ErrorIs(t, err, remote.ErrUnknownEntityType)
}

func TestLocal_FailedWriteRollsBackAndIsNotPublished(t *testing.T) {
	database := testutil.NewTestDB(t)
	injected := errors.New("disk full")
	svc := remote.NewLocal(database, remote.WithUnitOfWork(&testutil.FailingUoW{DB: database, FailOn: 1, Err: injected}))
	fn, ch := collect(t)
	sub, err := svc.Subscribe(context.Background(), tenant, nil, fn)
	require.NoError(t, err)
	defer sub.Close()

	p := testutil.NewTestProject("P")
	err = svc.UpsertEntity(context.Background(), tenant, p.ID, domain.KindProjects, p.Header())
	assert.ErrorIs(t, err, injected)

	got, err := svc.GetAllProjects(context.Background(), tenant)
	require.NoError(t, err)
	assert.Empty(t, got)

	select {
	case c := <-ch:
		t.Fatalf("unexpected change %+v", c)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLocal_DeleteProjectOnFileDB(t *testing.T) {
	database := testutil.NewTestFileDB(t)
	ctx := context.Background()

	// Keep one connection busy so writes land on others in the pool.
	pinned, err := database.Conn(ctx)
	require.NoError(t, err)
	defer pinned.Close()

	svc := remote.NewLocal(database)
	p := testutil.NewTestProject("Bridge", testutil.WithTasks(testutil.NewTestTask("Deck")))
	pushProject(t, svc, p)

	require.NoError(t, svc.DeleteEntity(ctx, tenant, p.ID, domain.KindProjects, p.ID))
	require.NoError(t, svc.UpsertEntity(ctx, tenant, p.ID, domain.KindProjects, p.Header()))

	projects, err := svc.GetAllProjects(ctx, tenant)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Empty(t, projects[0].Tasks)
}

func TestLocal_FailedEntityWriteKeepsProject(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	p := testutil.NewTestProject("Bridge")
	require.NoError(t, remote.NewLocal(database).UpsertEntity(ctx, tenant, p.ID, domain.KindProjects, p.Header()))

	injected := errors.New("disk full")
	svc := remote.NewLocal(database, remote.WithUnitOfWork(&testutil.FailingUoW{DB: database, Table: "remote_entities", Err: injected}))
	err := svc.UpsertEntity(ctx, tenant, p.ID, domain.KindTasks, testutil.NewTestTask("Deck"))
	assert.ErrorIs(t, err, injected)

	got, err := svc.GetAllProjects(ctx, tenant)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].Tasks)
}
