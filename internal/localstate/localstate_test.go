package localstate

import (
	"context"
	"testing"

	"github.com/alexanderramin/pmdash/internal/domain"
	"github.com/alexanderramin/pmdash/internal/repository"
	"github.com/alexanderramin/pmdash/internal/snapshot"
	"github.com/alexanderramin/pmdash/internal/store"
	"github.com/alexanderramin/pmdash/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRepo struct {
	repository.StateRepo
	puts int
}

func (c *countingRepo) Put(ctx context.Context, rec *repository.StateRecord) error {
	c.puts++
	return c.StateRepo.Put(ctx, rec)
}

func newPersister(t *testing.T, format snapshot.Format, compress bool) (*Persister, *countingRepo) {
	t.Helper()
	repo := &countingRepo{StateRepo: repository.NewSQLiteStateRepo(testutil.NewTestDB(t))}
	return New(repo, snapshot.NewCodec(format, compress)), repo
}

func sampleState() store.AppState {
	p := testutil.NewTestProject("Harbor",
		testutil.WithContract("250000"),
		testutil.WithTasks(testutil.NewTestTask("Dredge", testutil.WithDependencies("x"))),
		testutil.WithExpenses(testutil.NewTestExpense("Crane", "1200.50")),
	)
	return store.AppState{Projects: []domain.Project{p}, ActiveProjectID: p.ID}
}

func TestLoadState_Missing(t *testing.T) {
	p, _ := newPersister(t, snapshot.FormatJSON, false)

	_, ok, err := p.LoadState(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	for _, format := range []snapshot.Format{snapshot.FormatJSON, snapshot.FormatCBOR} {
		t.Run(string(format), func(t *testing.T) {
			p, _ := newPersister(t, format, true)
			ctx := context.Background()
			in := sampleState()

			require.NoError(t, p.SaveState(ctx, in))
			out, ok, err := p.LoadState(ctx)
			require.NoError(t, err)
			require.True(t, ok)

			require.Len(t, out.Projects, 1)
			assert.Equal(t, in.ActiveProjectID, out.ActiveProjectID)
			got := out.Projects[0]
			assert.Equal(t, "Harbor", got.Info.Name)
			assert.Equal(t, []string{"x"}, got.Tasks[0].Dependencies)
			assert.True(t, got.Budget.ContractAmount.Equal(in.Projects[0].Budget.ContractAmount))
			assert.Equal(t, "1200.5", got.Budget.Spent().String())
		})
	}
}

func TestSaveState_SkipsUnchanged(t *testing.T) {
	p, repo := newPersister(t, snapshot.FormatJSON, false)
	ctx := context.Background()
	st := sampleState()

	require.NoError(t, p.SaveState(ctx, st))
	require.NoError(t, p.SaveState(ctx, st))
	assert.Equal(t, 1, repo.puts)

	st.ActiveProjectID = ""
	require.NoError(t, p.SaveState(ctx, st))
	assert.Equal(t, 2, repo.puts)
}

func TestLoadState_ReadsOtherFormat(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := repository.NewSQLiteStateRepo(database)
	ctx := context.Background()

	require.NoError(t, New(repo, snapshot.NewCodec(snapshot.FormatCBOR, true)).SaveState(ctx, sampleState()))

	out, ok, err := New(repo, snapshot.NewCodec(snapshot.FormatJSON, false)).LoadState(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, out.Projects, 1)
}

func TestLoadState_Corrupt(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := repository.NewSQLiteStateRepo(database)
	ctx := context.Background()
	require.NoError(t, repo.Put(ctx, &repository.StateRecord{Key: StateKey, Value: []byte("garbage")}))

	_, ok, err := New(repo, nil).LoadState(ctx)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestClear(t *testing.T) {
	p, _ := newPersister(t, snapshot.FormatJSON, false)
	ctx := context.Background()
	require.NoError(t, p.SaveState(ctx, sampleState()))

	require.NoError(t, p.Clear(ctx))

	_, ok, err := p.LoadState(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_WriteThroughAndRestore(t *testing.T) {
	p, _ := newPersister(t, snapshot.FormatCBOR, false)
	ctx := context.Background()

	s := store.New(store.WithPersister(p))
	s.AddProject(testutil.NewTestProject("Depot"))
	id := s.Tasks().Add(domain.Task{Title: "Survey"})
	require.NotEmpty(t, id)

	restored := store.New(store.WithPersister(p))
	require.NoError(t, restored.Load(ctx))
	assert.Equal(t, "Depot", restored.Active().Info.Name)
	task, ok := restored.Tasks().Get(id)
	require.True(t, ok)
	assert.Equal(t, "Survey", task.Title)
}
