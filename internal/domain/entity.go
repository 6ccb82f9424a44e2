package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entity is implemented by every sub-object owned by a Project.
// WithEntityID returns a copy carrying the given id.
type Entity[T any] interface {
	EntityID() string
	WithEntityID(id string) T
}

// CloneEntity returns a copy of v that shares no slices with it.
func CloneEntity[T any](v T) T {
	switch e := any(v).(type) {
	case Task:
		return any(e.clone()).(T)
	case Meeting:
		return any(e.clone()).(T)
	}
	return v
}

// EntityType names an entity collection. The value doubles as the JSON field
// of the collection and as the remote table name used for change
// notifications.
type EntityType string

const (
	KindProjects       EntityType = "projects"
	KindBudget         EntityType = "budget"
	KindExpenses       EntityType = "expenses"
	KindTasks          EntityType = "tasks"
	KindIssues         EntityType = "issues"
	KindMembers        EntityType = "members"
	KindDocuments      EntityType = "documents"
	KindPolicies       EntityType = "policies"
	KindRisks          EntityType = "risks"
	KindChangeRequests EntityType = "changeRequests"
	KindActionItems    EntityType = "actionItems"
	KindDecisions      EntityType = "decisions"
	KindMeetings       EntityType = "meetings"
	KindCommunications EntityType = "communications"
	KindMilestones     EntityType = "milestones"
	KindDeployments    EntityType = "deployments"
	KindVendors        EntityType = "vendors"
	KindProcurements   EntityType = "procurements"
	KindAssets         EntityType = "assets"
	KindSystems        EntityType = "systems"
	KindSiteLogs       EntityType = "siteLogs"
	KindNotifications  EntityType = "notifications"
	KindActivities     EntityType = "activities"
)

// CollectionTypes lists the top-level entity collections of a Project in
// their canonical order. Budget expenses are not included; they live under
// the budget singleton.
var CollectionTypes = []EntityType{
	KindTasks, KindIssues, KindMembers, KindDocuments, KindPolicies,
	KindRisks, KindChangeRequests, KindActionItems, KindDecisions,
	KindMeetings, KindCommunications, KindMilestones, KindDeployments,
	KindVendors, KindProcurements, KindAssets, KindSystems, KindSiteLogs,
	KindNotifications, KindActivities,
}

// AllTables is every table a sync client listens to.
func AllTables() []EntityType {
	tables := make([]EntityType, 0, len(CollectionTypes)+3)
	tables = append(tables, KindProjects, KindBudget, KindExpenses)
	tables = append(tables, CollectionTypes...)
	return tables
}

// IsCollection reports whether k names a per-project entity collection,
// including budget expenses.
func (k EntityType) IsCollection() bool {
	if k == KindExpenses {
		return true
	}
	for _, c := range CollectionTypes {
		if c == k {
			return true
		}
	}
	return false
}

// Valid reports whether k is any known entity type.
func (k EntityType) Valid() bool {
	return k == KindProjects || k == KindBudget || k.IsCollection()
}

// ParseEntityType accepts the canonical name or a case-insensitive match.
func ParseEntityType(s string) (EntityType, bool) {
	for _, k := range AllTables() {
		if strings.EqualFold(string(k), s) {
			return k, true
		}
	}
	return "", false
}

// NewID returns an opaque identifier built from the current time and a random
// suffix. Collisions are improbable, not impossible.
func NewID() string {
	return newIDAt(time.Now())
}

func newIDAt(t time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return strconv.FormatInt(t.UnixMilli(), 36) + "-" + suffix
}
