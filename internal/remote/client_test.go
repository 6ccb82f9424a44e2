package remote_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alexanderramin/pmdash/internal/domain"
	"github.com/alexanderramin/pmdash/internal/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_GetAllProjectsNormalizes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tenants/acme/projects", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[{"id":"p1","info":{"name":"Bridge"},"tasks":[{"id":"t1","title":"Deck","dependencies":[]}]}]`)
	}))
	defer srv.Close()

	projects, err := remote.NewClient(srv.URL).GetAllProjects(context.Background(), "acme")
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "Bridge", projects[0].Info.Name)
	assert.Len(t, projects[0].Tasks, 1)
	assert.NotNil(t, projects[0].Issues)
	assert.NotNil(t, projects[0].Budget.Expenses)
}

func TestClient_UpsertPathAndBody(t *testing.T) {
	var gotPath, gotMethod string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()
	client := remote.NewClient(srv.URL)
	ctx := context.Background()

	require.NoError(t, client.UpsertEntity(ctx, "acme", "p1", domain.KindTasks, domain.Task{ID: "t1", Title: "Deck"}))
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/api/tenants/acme/projects/p1/tasks/t1", gotPath)
	assert.Equal(t, "Deck", gotBody["title"])

	require.NoError(t, client.UpsertEntity(ctx, "acme", "p1", domain.KindBudget, domain.BudgetHeader{}))
	assert.Equal(t, "/api/tenants/acme/projects/p1/budget/p1", gotPath)
}

func TestClient_UpsertValidatesLocally(t *testing.T) {
	client := remote.NewClient("http://127.0.0.1:1")
	ctx := context.Background()

	assert.ErrorIs(t, client.UpsertEntity(ctx, "acme", "p1", "widgets", struct{}{}), remote.ErrUnknownEntityType)
	assert.ErrorIs(t, client.UpsertEntity(ctx, "acme", "p1", domain.KindTasks, domain.Task{}), remote.ErrMissingEntityID)
}

func TestClient_MapsErrorCodes(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"project not found", http.StatusNotFound, `{"error":"x","code":"project_not_found"}`, remote.ErrProjectNotFound},
		{"unknown type", http.StatusBadRequest, `{"error":"x","code":"unknown_entity_type"}`, remote.ErrUnknownEntityType},
		{"missing id", http.StatusBadRequest, `{"error":"x","code":"missing_entity_id"}`, remote.ErrMissingEntityID},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			err := remote.NewClient(srv.URL).DeleteEntity(context.Background(), "acme", "p1", domain.KindTasks, "t1")
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestClient_UnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := remote.NewClient(srv.URL).GetAllProjects(context.Background(), "acme")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "boom")
}

func writeChange(w http.ResponseWriter, c remote.Change) {
	data, _ := json.Marshal(c)
	fmt.Fprintf(w, "event:change\ndata:%s\n\n", data)
	w.(http.Flusher).Flush()
}

func TestClient_SubscribeStreamsAndResyncs(t *testing.T) {
	var conns atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, []string{"tasks", "risks"}, r.URL.Query()["table"])
		n := conns.Add(1)
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, ": connected\n\n")
		w.(http.Flusher).Flush()
		if n == 1 {
			writeChange(w, remote.Change{Tenant: "acme", Table: domain.KindTasks, Op: remote.ChangeUpsert, EntityID: "t1"})
			return // drop the stream
		}
		<-r.Context().Done()
	}))
	defer srv.Close()

	client := remote.NewClient(srv.URL, remote.WithReconnectBackoff(10*time.Millisecond, 20*time.Millisecond))
	fn, ch := collect(t)
	sub, err := client.Subscribe(context.Background(), "acme", []domain.EntityType{domain.KindTasks, domain.KindRisks}, fn)
	require.NoError(t, err)
	defer sub.Close()

	first := next(t, ch)
	assert.Equal(t, remote.ChangeUpsert, first.Op)
	assert.Equal(t, "t1", first.EntityID)

	second := next(t, ch)
	assert.Equal(t, remote.ChangeResync, second.Op)
	assert.Equal(t, "acme", second.Tenant)
	assert.GreaterOrEqual(t, conns.Load(), int32(2))
}

func TestClient_SubscribeFailsFast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":"bad","code":"unknown_entity_type"}`)
	}))
	defer srv.Close()

	_, err := remote.NewClient(srv.URL).Subscribe(context.Background(), "acme", nil, func(remote.Change) {})
	assert.ErrorIs(t, err, remote.ErrUnknownEntityType)
}

func TestClient_SubscribeCloseStopsReader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	sub, err := remote.NewClient(srv.URL).Subscribe(context.Background(), "acme", nil, func(remote.Change) {})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		sub.Close()
		sub.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}
}
