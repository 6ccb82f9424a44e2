package store

import (
	"github.com/alexanderramin/pmdash/internal/domain"
	"github.com/shopspring/decimal"
)

// Budget returns a copy of the active project's budget.
func (s *ProjectStore) Budget() domain.Budget {
	return s.Active().Budget
}

// SetContractAmount replaces the active project's contract amount.
func (s *ProjectStore) SetContractAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrNegativeAmount
	}
	s.commit(func(st *AppState) ([]Mutation, bool) {
		p := activeProject(st)
		if p == nil || p.Budget.ContractAmount.Equal(amount) {
			return nil, false
		}
		p.Budget.ContractAmount = amount
		return []Mutation{{Op: OpUpsert, ProjectID: p.ID, Kind: domain.KindBudget, EntityID: p.ID, Entity: p.Budget.Header()}}, true
	})
	return nil
}

// AddActivity appends to the active project's audit feed. The feed is stored
// oldest first; readers reverse it for display.
func (s *ProjectStore) AddActivity(entry domain.Activity) string {
	if entry.At.IsZero() {
		entry.At = s.now().UTC()
	}
	return s.Activities().Add(entry)
}

// RecentActivities returns up to n feed entries, newest first.
func (s *ProjectStore) RecentActivities(n int) []domain.Activity {
	all := s.Activities().List()
	out := make([]domain.Activity, 0, min(n, len(all)))
	for i := len(all) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, all[i])
	}
	return out
}
