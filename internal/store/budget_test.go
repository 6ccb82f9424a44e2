package store

import (
	"testing"
	"time"

	"github.com/alexanderramin/pmdash/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func domainAmount(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSetContractAmount(t *testing.T) {
	sink := &recordingSink{}
	s := New(WithState(AppState{Projects: []domain.Project{project("p1", "P1")}}), WithSink(sink))

	require.NoError(t, s.SetContractAmount(domainAmount("50000")))
	assert.True(t, domainAmount("50000").Equal(s.Budget().ContractAmount))

	muts := sink.all()
	require.Len(t, muts, 1)
	assert.Equal(t, domain.KindBudget, muts[0].Kind)
	assert.Equal(t, "p1", muts[0].EntityID)
}

func TestSetContractAmount_RejectsNegative(t *testing.T) {
	s := storeWith(project("p1", "P1"))
	require.NoError(t, s.SetContractAmount(domainAmount("10")))

	err := s.SetContractAmount(domainAmount("-1"))

	assert.ErrorIs(t, err, ErrNegativeAmount)
	assert.True(t, domainAmount("10").Equal(s.Budget().ContractAmount))
}

func TestExpenses_SpendTracksEntries(t *testing.T) {
	s := storeWith(project("p1", "P1"))
	require.NoError(t, s.SetContractAmount(domainAmount("1000")))

	s.Expenses().Add(domain.ExpenseEntry{ID: "e1", Amount: domainAmount("120.50")})
	s.Expenses().Add(domain.ExpenseEntry{ID: "e2", Amount: domainAmount("79.50")})
	assert.True(t, domainAmount("200").Equal(s.Budget().Spent()))

	before := s.Budget().Spent()
	s.Expenses().Delete("e1")
	assert.True(t, before.Sub(domainAmount("120.50")).Equal(s.Budget().Spent()))

	require.NoError(t, s.Expenses().Update("e2", domain.Patch{"amount": "100"}))
	assert.True(t, domainAmount("100").Equal(s.Budget().Spent()))
	assert.InDelta(t, 10.0, s.Budget().SpentPct(), 0.0001)
}

func TestAddActivity_AppendsWithTimestamp(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s := New(
		WithState(AppState{Projects: []domain.Project{project("p1", "P1")}}),
		WithClock(func() time.Time { return at }),
	)

	s.AddActivity(domain.Activity{Action: "created task", TargetType: domain.KindTasks, TargetID: "t1"})
	s.AddActivity(domain.Activity{Action: "closed issue", TargetType: domain.KindIssues, TargetID: "i1"})

	feed := s.Activities().List()
	require.Len(t, feed, 2)
	assert.Equal(t, "created task", feed[0].Action)
	assert.Equal(t, at, feed[0].At)
	assert.NotEmpty(t, feed[0].ID)

	recent := s.RecentActivities(1)
	require.Len(t, recent, 1)
	assert.Equal(t, "closed issue", recent[0].Action)
}
