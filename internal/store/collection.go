package store

import (
	"github.com/alexanderramin/pmdash/internal/domain"
)

// Collection gives typed access to one entity collection of the active
// project. Every entity type exposes the same operations.
type Collection[T domain.Entity[T]] struct {
	s    *ProjectStore
	kind domain.EntityType
	slot func(*domain.Project) *[]T
}

func newCollection[T domain.Entity[T]](s *ProjectStore, kind domain.EntityType, slot func(*domain.Project) *[]T) Collection[T] {
	return Collection[T]{s: s, kind: kind, slot: slot}
}

func (c Collection[T]) Kind() domain.EntityType { return c.kind }

// List returns a copy of the collection in insertion order.
func (c Collection[T]) List() []T {
	p := c.s.Active()
	return *c.slot(&p)
}

func (c Collection[T]) Get(id string) (T, bool) {
	for _, it := range c.List() {
		if it.EntityID() == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// Add appends item to the active project and returns its id, generating one
// when item has none. Adding an id that already exists, or adding with no
// active project, does nothing and returns "". The store keeps its own copy
// of item.
func (c Collection[T]) Add(item T) string {
	item = domain.CloneEntity(item)
	if item.EntityID() == "" {
		item = item.WithEntityID(domain.NewID())
	}
	id := item.EntityID()
	added := false
	c.s.commit(func(st *AppState) ([]Mutation, bool) {
		p := activeProject(st)
		if p == nil {
			return nil, false
		}
		items := c.slot(p)
		if indexByID(*items, id) >= 0 {
			c.s.logger.Warn("add ignored", "kind", c.kind, "id", id, "reason", "duplicate id")
			return nil, false
		}
		*items = append(*items, item)
		added = true
		return []Mutation{{Op: OpUpsert, ProjectID: p.ID, Kind: c.kind, EntityID: id, Entity: item}}, true
	})
	if !added {
		return ""
	}
	return id
}

// Update merges patch into the element with the given id. Unknown ids are a
// no-op; a malformed patch returns domain.ErrInvalidPatch and changes nothing.
func (c Collection[T]) Update(id string, patch domain.Patch) error {
	var patchErr error
	c.s.commit(func(st *AppState) ([]Mutation, bool) {
		p := activeProject(st)
		if p == nil {
			return nil, false
		}
		items := c.slot(p)
		i := indexByID(*items, id)
		if i < 0 {
			return nil, false
		}
		merged, err := domain.ApplyPatch((*items)[i], patch)
		if err != nil {
			patchErr = err
			return nil, false
		}
		(*items)[i] = merged
		return []Mutation{{Op: OpUpsert, ProjectID: p.ID, Kind: c.kind, EntityID: id, Entity: merged}}, true
	})
	return patchErr
}

// Delete removes the element with the given id. References to it held by
// other entities are left dangling.
func (c Collection[T]) Delete(id string) {
	c.s.commit(func(st *AppState) ([]Mutation, bool) {
		p := activeProject(st)
		if p == nil {
			return nil, false
		}
		items := c.slot(p)
		i := indexByID(*items, id)
		if i < 0 {
			return nil, false
		}
		*items = append((*items)[:i:i], (*items)[i+1:]...)
		return []Mutation{{Op: OpDelete, ProjectID: p.ID, Kind: c.kind, EntityID: id}}, true
	})
}

func activeProject(st *AppState) *domain.Project {
	i := st.indexOf(st.ActiveProjectID)
	if i < 0 {
		return nil
	}
	return &st.Projects[i]
}

func indexByID[T domain.Entity[T]](items []T, id string) int {
	for i, it := range items {
		if it.EntityID() == id {
			return i
		}
	}
	return -1
}

func (s *ProjectStore) Tasks() Collection[domain.Task] {
	return newCollection(s, domain.KindTasks, func(p *domain.Project) *[]domain.Task { return &p.Tasks })
}

func (s *ProjectStore) Issues() Collection[domain.Issue] {
	return newCollection(s, domain.KindIssues, func(p *domain.Project) *[]domain.Issue { return &p.Issues })
}

func (s *ProjectStore) Members() Collection[domain.Member] {
	return newCollection(s, domain.KindMembers, func(p *domain.Project) *[]domain.Member { return &p.Members })
}

func (s *ProjectStore) Documents() Collection[domain.Document] {
	return newCollection(s, domain.KindDocuments, func(p *domain.Project) *[]domain.Document { return &p.Documents })
}

func (s *ProjectStore) Policies() Collection[domain.Policy] {
	return newCollection(s, domain.KindPolicies, func(p *domain.Project) *[]domain.Policy { return &p.Policies })
}

func (s *ProjectStore) Risks() Collection[domain.Risk] {
	return newCollection(s, domain.KindRisks, func(p *domain.Project) *[]domain.Risk { return &p.Risks })
}

func (s *ProjectStore) ChangeRequests() Collection[domain.ChangeRequest] {
	return newCollection(s, domain.KindChangeRequests, func(p *domain.Project) *[]domain.ChangeRequest { return &p.ChangeRequests })
}

func (s *ProjectStore) ActionItems() Collection[domain.ActionItem] {
	return newCollection(s, domain.KindActionItems, func(p *domain.Project) *[]domain.ActionItem { return &p.ActionItems })
}

func (s *ProjectStore) Decisions() Collection[domain.Decision] {
	return newCollection(s, domain.KindDecisions, func(p *domain.Project) *[]domain.Decision { return &p.Decisions })
}

func (s *ProjectStore) Meetings() Collection[domain.Meeting] {
	return newCollection(s, domain.KindMeetings, func(p *domain.Project) *[]domain.Meeting { return &p.Meetings })
}

func (s *ProjectStore) Communications() Collection[domain.Communication] {
	return newCollection(s, domain.KindCommunications, func(p *domain.Project) *[]domain.Communication { return &p.Communications })
}

func (s *ProjectStore) Milestones() Collection[domain.Milestone] {
	return newCollection(s, domain.KindMilestones, func(p *domain.Project) *[]domain.Milestone { return &p.Milestones })
}

func (s *ProjectStore) Deployments() Collection[domain.Deployment] {
	return newCollection(s, domain.KindDeployments, func(p *domain.Project) *[]domain.Deployment { return &p.Deployments })
}

func (s *ProjectStore) Vendors() Collection[domain.Vendor] {
	return newCollection(s, domain.KindVendors, func(p *domain.Project) *[]domain.Vendor { return &p.Vendors })
}

func (s *ProjectStore) Procurements() Collection[domain.Procurement] {
	return newCollection(s, domain.KindProcurements, func(p *domain.Project) *[]domain.Procurement { return &p.Procurements })
}

func (s *ProjectStore) Assets() Collection[domain.Asset] {
	return newCollection(s, domain.KindAssets, func(p *domain.Project) *[]domain.Asset { return &p.Assets })
}

func (s *ProjectStore) Systems() Collection[domain.System] {
	return newCollection(s, domain.KindSystems, func(p *domain.Project) *[]domain.System { return &p.Systems })
}

func (s *ProjectStore) SiteLogs() Collection[domain.SiteLog] {
	return newCollection(s, domain.KindSiteLogs, func(p *domain.Project) *[]domain.SiteLog { return &p.SiteLogs })
}

func (s *ProjectStore) Notifications() Collection[domain.Notification] {
	return newCollection(s, domain.KindNotifications, func(p *domain.Project) *[]domain.Notification { return &p.Notifications })
}

func (s *ProjectStore) Activities() Collection[domain.Activity] {
	return newCollection(s, domain.KindActivities, func(p *domain.Project) *[]domain.Activity { return &p.Activities })
}

func (s *ProjectStore) Expenses() Collection[domain.ExpenseEntry] {
	return newCollection(s, domain.KindExpenses, func(p *domain.Project) *[]domain.ExpenseEntry { return &p.Budget.Expenses })
}
