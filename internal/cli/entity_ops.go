package cli

import (
	"fmt"

	"github.com/alexanderramin/pmdash/internal/domain"
	"github.com/alexanderramin/pmdash/internal/store"
)

// entityOps erases the element type of a store collection so one set of
// commands can drive every collection.
type entityOps struct {
	ids    func() []string
	add    func(patch domain.Patch) (string, error)
	update func(id string, patch domain.Patch) error
	remove func(id string)

	// cycle advances the status field; nil when the kind has none.
	cycle func(id string) (string, error)
}

func collectionOps[T domain.Entity[T]](c store.Collection[T]) entityOps {
	return entityOps{
		ids: func() []string {
			items := c.List()
			ids := make([]string, len(items))
			for i, it := range items {
				ids[i] = it.EntityID()
			}
			return ids
		},
		add: func(patch domain.Patch) (string, error) {
			var zero T
			item, err := domain.ApplyPatch(zero, patch)
			if err != nil {
				return "", err
			}
			id := c.Add(item)
			if id == "" {
				return "", fmt.Errorf("%s not added: id already exists or no project is active", c.Kind())
			}
			return id, nil
		},
		update: c.Update,
		remove: c.Delete,
	}
}

func withCycle[T domain.Entity[T], S ~string](ops entityOps, c store.Collection[T], status func(T) S, next func(S) S) entityOps {
	ops.cycle = func(id string) (string, error) {
		item, ok := c.Get(id)
		if !ok {
			return "", fmt.Errorf("%s %q not found", c.Kind(), id)
		}
		n := string(next(status(item)))
		if err := c.Update(id, domain.Patch{"status": n}); err != nil {
			return "", err
		}
		return n, nil
	}
	return ops
}

// opsFor returns the operations for a collection kind of the active project.
func (a *App) opsFor(kind domain.EntityType) (entityOps, error) {
	s := a.Store
	switch kind {
	case domain.KindTasks:
		c := s.Tasks()
		return withCycle(collectionOps(c), c, func(t domain.Task) domain.TaskStatus { return t.Status }, domain.TaskStatus.Next), nil
	case domain.KindIssues:
		c := s.Issues()
		return withCycle(collectionOps(c), c, func(i domain.Issue) domain.IssueStatus { return i.Status }, domain.IssueStatus.Next), nil
	case domain.KindRisks:
		c := s.Risks()
		return withCycle(collectionOps(c), c, func(r domain.Risk) domain.RiskStatus { return r.Status }, domain.RiskStatus.Next), nil
	case domain.KindChangeRequests:
		c := s.ChangeRequests()
		return withCycle(collectionOps(c), c, func(r domain.ChangeRequest) domain.ChangeRequestStatus { return r.Status }, domain.ChangeRequestStatus.Next), nil
	case domain.KindActionItems:
		c := s.ActionItems()
		return withCycle(collectionOps(c), c, func(i domain.ActionItem) domain.ActionItemStatus { return i.Status }, domain.ActionItemStatus.Next), nil
	case domain.KindMilestones:
		c := s.Milestones()
		return withCycle(collectionOps(c), c, func(m domain.Milestone) domain.MilestoneStatus { return m.Status }, domain.MilestoneStatus.Next), nil
	case domain.KindDeployments:
		c := s.Deployments()
		return withCycle(collectionOps(c), c, func(d domain.Deployment) domain.DeploymentStatus { return d.Status }, domain.DeploymentStatus.Next), nil
	case domain.KindProcurements:
		c := s.Procurements()
		return withCycle(collectionOps(c), c, func(p domain.Procurement) domain.ProcurementStatus { return p.Status }, domain.ProcurementStatus.Next), nil
	case domain.KindAssets:
		c := s.Assets()
		return withCycle(collectionOps(c), c, func(x domain.Asset) domain.AssetStatus { return x.Status }, domain.AssetStatus.Next), nil
	case domain.KindSystems:
		c := s.Systems()
		return withCycle(collectionOps(c), c, func(x domain.System) domain.SystemStatus { return x.Status }, domain.SystemStatus.Next), nil
	case domain.KindMembers:
		return collectionOps(s.Members()), nil
	case domain.KindDocuments:
		return collectionOps(s.Documents()), nil
	case domain.KindPolicies:
		return collectionOps(s.Policies()), nil
	case domain.KindDecisions:
		return collectionOps(s.Decisions()), nil
	case domain.KindMeetings:
		return collectionOps(s.Meetings()), nil
	case domain.KindCommunications:
		return collectionOps(s.Communications()), nil
	case domain.KindVendors:
		return collectionOps(s.Vendors()), nil
	case domain.KindSiteLogs:
		return collectionOps(s.SiteLogs()), nil
	case domain.KindNotifications:
		return collectionOps(s.Notifications()), nil
	case domain.KindActivities:
		return collectionOps(s.Activities()), nil
	case domain.KindExpenses:
		return collectionOps(s.Expenses()), nil
	}
	return entityOps{}, fmt.Errorf("%q is not an entity collection", kind)
}
