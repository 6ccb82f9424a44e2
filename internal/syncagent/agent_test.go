package syncagent

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/pmdash/internal/domain"
	"github.com/alexanderramin/pmdash/internal/remote"
	"github.com/alexanderramin/pmdash/internal/remote/remotetest"
	"github.com/alexanderramin/pmdash/internal/store"
	"github.com/alexanderramin/pmdash/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type toastSink struct {
	mu     sync.Mutex
	toasts []Toast
}

func (t *toastSink) Notify(toast Toast) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.toasts = append(t.toasts, toast)
}

func (t *toastSink) all() []Toast {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Toast(nil), t.toasts...)
}

func newAgent(t *testing.T, s *store.ProjectStore, svc remote.Service) (*Agent, *toastSink) {
	t.Helper()
	toasts := &toastSink{}
	a := New(s, svc, Options{Tenant: "acme", Notifier: toasts})
	t.Cleanup(a.Close)
	return a, toasts
}

func drain(t *testing.T, a *Agent) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, a.Drain(ctx))
}

func projectIDs(s *store.ProjectStore) []string {
	var ids []string
	for _, p := range s.Snapshot().Projects {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestFetchRemoteState_ReplacesWholesale(t *testing.T) {
	s := store.New()
	fake := &remotetest.Service{}
	a, _ := newAgent(t, s, fake)

	// A locally added project the remote has not seen yet.
	s.AddProject(testutil.NewTestProject("Local only", testutil.WithProjectID("p-local")))
	fake.SetProjects(testutil.NewTestProject("Remote", testutil.WithProjectID("p3")))

	require.NoError(t, a.FetchRemoteState(context.Background()))

	assert.Equal(t, []string{"p3"}, projectIDs(s))
	assert.Equal(t, "p3", s.ActiveID())
}

func TestFetchRemoteState_KeepsActiveWhenPresent(t *testing.T) {
	s := store.New(store.WithState(store.AppState{
		Projects:        []domain.Project{domain.NewProject("p1", domain.ProjectInfo{}), domain.NewProject("p2", domain.ProjectInfo{})},
		ActiveProjectID: "p2",
	}))
	fake := &remotetest.Service{}
	fake.SetProjects(domain.NewProject("p1", domain.ProjectInfo{}), domain.NewProject("p2", domain.ProjectInfo{Name: "renamed"}))
	a, _ := newAgent(t, s, fake)

	require.NoError(t, a.FetchRemoteState(context.Background()))

	assert.Equal(t, "p2", s.ActiveID())
	assert.Equal(t, "renamed", s.Active().Info.Name)
}

func TestFetchRemoteState_FailureKeepsSnapshot(t *testing.T) {
	s := store.New()
	s.AddProject(testutil.NewTestProject("Cached", testutil.WithProjectID("p1")))
	fake := &remotetest.Service{
		GetAllProjectsFunc: func(context.Context, string) ([]domain.Project, error) {
			return nil, errors.New("connection refused")
		},
	}
	a, toasts := newAgent(t, s, fake)

	err := a.FetchRemoteState(context.Background())
	require.Error(t, err)

	assert.Equal(t, []string{"p1"}, projectIDs(s))
	got := toasts.all()
	require.Len(t, got, 1)
	assert.Equal(t, LevelError, got[0].Level)
	assert.Contains(t, got[0].Message, "connection refused")
}

func TestFetchRemoteState_DiscardsStaleResponse(t *testing.T) {
	s := store.New()
	started := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	call := 0
	fake := &remotetest.Service{
		GetAllProjectsFunc: func(context.Context, string) ([]domain.Project, error) {
			mu.Lock()
			call++
			n := call
			mu.Unlock()
			if n == 1 {
				close(started)
				<-release
				return []domain.Project{domain.NewProject("old", domain.ProjectInfo{})}, nil
			}
			return []domain.Project{domain.NewProject("new", domain.ProjectInfo{})}, nil
		},
	}
	a, _ := newAgent(t, s, fake)

	firstDone := make(chan error, 1)
	go func() { firstDone <- a.FetchRemoteState(context.Background()) }()
	<-started

	require.NoError(t, a.FetchRemoteState(context.Background()))
	close(release)
	require.NoError(t, <-firstDone)

	assert.Equal(t, []string{"new"}, projectIDs(s))
}

func TestWritePath_SendsMutationsInOrder(t *testing.T) {
	s := store.New()
	fake := &remotetest.Service{}
	a, _ := newAgent(t, s, fake)

	s.AddProject(domain.NewProject("p1", domain.ProjectInfo{Name: "Bridge"}))
	id := s.Tasks().Add(domain.Task{ID: "t1", Title: "Kickoff", Status: domain.TaskNotStarted})
	require.NoError(t, s.Tasks().Update(id, domain.Patch{"status": "Done"}))
	s.Tasks().Delete(id)
	drain(t, a)

	calls := fake.Calls()
	require.Len(t, calls, 5)
	assert.Equal(t, domain.KindProjects, calls[0].Kind)
	assert.Equal(t, domain.KindBudget, calls[1].Kind)

	assert.Equal(t, remote.ChangeUpsert, calls[2].Op)
	assert.Equal(t, "Kickoff", calls[2].Entity.(domain.Task).Title)
	assert.Equal(t, domain.TaskNotStarted, calls[2].Entity.(domain.Task).Status)

	assert.Equal(t, remote.ChangeUpsert, calls[3].Op)
	assert.Equal(t, domain.TaskDone, calls[3].Entity.(domain.Task).Status)

	assert.Equal(t, remote.ChangeDelete, calls[4].Op)
	assert.Equal(t, "t1", calls[4].EntityID)
	for _, c := range calls {
		assert.Equal(t, "acme", c.Tenant)
		assert.Equal(t, "p1", c.ProjectID)
	}
}

func TestWritePath_FailureNotifiesWithoutRollback(t *testing.T) {
	s := store.New()
	s.AddProject(domain.NewProject("p1", domain.ProjectInfo{}))
	fake := &remotetest.Service{
		UpsertFunc: func(context.Context, remotetest.Call) error { return errors.New("503 unavailable") },
	}
	a, toasts := newAgent(t, s, fake)

	id := s.Tasks().Add(domain.Task{Title: "Survey"})
	drain(t, a)

	_, ok := s.Tasks().Get(id)
	assert.True(t, ok, "local change stays after a failed write")
	assert.Equal(t, uint64(1), a.FailedWrites())
	got := toasts.all()
	require.Len(t, got, 1)
	assert.Equal(t, "Save failed", got[0].Title)
	assert.Contains(t, got[0].Message, "503 unavailable")
}

func TestRecord_DoesNotBlockOnSlowRemote(t *testing.T) {
	s := store.New()
	s.AddProject(domain.NewProject("p1", domain.ProjectInfo{}))
	gate := make(chan struct{})
	fake := &remotetest.Service{
		UpsertFunc: func(context.Context, remotetest.Call) error { <-gate; return nil },
	}
	a, _ := newAgent(t, s, fake)
	a.startWriter()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 20; i++ {
			s.Tasks().Add(domain.Task{Title: "x"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("local mutations blocked on remote writes")
	}
	assert.Equal(t, 20, a.Pending())

	close(gate)
	drain(t, a)
	assert.Equal(t, 0, a.Pending())
}

// A reload that lands before a queued write reaches the service overwrites
// the optimistic change.
func TestReloadRacesAheadOfWrite(t *testing.T) {
	s := store.New()
	s.AddProject(domain.NewProject("p1", domain.ProjectInfo{}))
	fake := &remotetest.Service{}
	fake.SetProjects(domain.NewProject("p1", domain.ProjectInfo{}))
	a, _ := newAgent(t, s, fake)

	id := s.Tasks().Add(domain.Task{Title: "Optimistic"})
	_, ok := s.Tasks().Get(id)
	require.True(t, ok)

	// The writer has not run yet; the remote snapshot lacks the task.
	require.NoError(t, a.FetchRemoteState(context.Background()))
	_, ok = s.Tasks().Get(id)
	assert.False(t, ok)

	drain(t, a)
	assert.Len(t, fake.Calls(), 1)
}

func TestSubscribeToChanges_ReloadsOnNotification(t *testing.T) {
	s := store.New()
	fake := &remotetest.Service{}
	a, _ := newAgent(t, s, fake)

	sub, err := a.SubscribeToChanges(context.Background())
	require.NoError(t, err)
	defer sub.Close()

	fake.SetProjects(domain.NewProject("p9", domain.ProjectInfo{Name: "From another client"}))
	fake.Emit(remote.Change{Tenant: "acme", Table: domain.KindProjects, Op: remote.ChangeUpsert, ProjectID: "p9"})

	assert.Eventually(t, func() bool { return s.ActiveID() == "p9" }, 2*time.Second, 5*time.Millisecond)
}

func TestSubscribeToChanges_CoalescesReloads(t *testing.T) {
	s := store.New()
	started := make(chan struct{}, 16)
	gate := make(chan struct{})
	fake := &remotetest.Service{
		GetAllProjectsFunc: func(context.Context, string) ([]domain.Project, error) {
			started <- struct{}{}
			<-gate
			return nil, nil
		},
	}
	a, _ := newAgent(t, s, fake)
	sub, err := a.SubscribeToChanges(context.Background())
	require.NoError(t, err)
	defer sub.Close()

	fake.Emit(remote.Change{Tenant: "acme", Table: domain.KindTasks})
	<-started
	for i := 0; i < 5; i++ {
		fake.Emit(remote.Change{Tenant: "acme", Table: domain.KindTasks})
	}
	close(gate)

	assert.Eventually(t, func() bool { return fake.Fetches() == 2 }, 2*time.Second, 5*time.Millisecond)
	a.reloads.Wait()
	assert.Equal(t, 2, fake.Fetches())
}

func TestSubscribeToChanges_NoReloadOnceStopping(t *testing.T) {
	fake := &remotetest.Service{}
	a, _ := newAgent(t, store.New(), fake)

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := a.SubscribeToChanges(ctx)
	require.NoError(t, err)
	defer sub.Close()

	cancel()
	fake.Emit(remote.Change{Tenant: "acme", Table: domain.KindTasks})
	a.reloads.Wait()
	assert.Zero(t, fake.Fetches())

	live, err := a.SubscribeToChanges(context.Background())
	require.NoError(t, err)
	defer live.Close()

	a.reloadMu.Lock()
	a.stopping = true
	a.reloadMu.Unlock()
	fake.Emit(remote.Change{Tenant: "acme", Table: domain.KindTasks})
	a.reloads.Wait()
	assert.Zero(t, fake.Fetches())
}

func TestSubscribeToChanges_FailureNotifies(t *testing.T) {
	fake := &remotetest.Service{SubscribeErr: errors.New("stream refused")}
	a, toasts := newAgent(t, store.New(), fake)

	_, err := a.SubscribeToChanges(context.Background())
	require.Error(t, err)
	require.Len(t, toasts.all(), 1)
	assert.Equal(t, "Live updates unavailable", toasts.all()[0].Title)
}

func TestRun_ScopedLifecycle(t *testing.T) {
	s := store.New()
	fake := &remotetest.Service{}
	fake.SetProjects(domain.NewProject("p1", domain.ProjectInfo{}))
	a, _ := newAgent(t, s, fake)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- a.Run(ctx) }()

	require.Eventually(t, func() bool { return fake.Subscribers() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "p1", s.ActiveID())
	assert.ErrorIs(t, a.Run(ctx), ErrAlreadyRunning)

	s.Tasks().Add(domain.Task{Title: "Queued before shutdown"})
	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.Equal(t, 0, fake.Subscribers(), "subscription released on exit")
	assert.Equal(t, 0, a.Pending(), "queued writes flushed on exit")
	assert.Len(t, fake.Calls(), 1)
}

func TestTwoClientsConverge(t *testing.T) {
	svc := remote.NewLocal(testutil.NewTestDB(t))

	alice := store.New()
	aliceAgent, _ := newAgent(t, alice, svc)
	bob := store.New()
	bobAgent, _ := newAgent(t, bob, svc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub, err := bobAgent.SubscribeToChanges(ctx)
	require.NoError(t, err)
	defer sub.Close()

	alice.AddProject(domain.NewProject("p1", domain.ProjectInfo{Name: "Shared"}))
	taskID := alice.Tasks().Add(domain.Task{Title: "Pour concrete", Dependencies: []string{}})
	drain(t, aliceAgent)

	assert.Eventually(t, func() bool {
		_, ok := bob.Tasks().Get(taskID)
		return ok
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "Shared", bob.Active().Info.Name)
}
