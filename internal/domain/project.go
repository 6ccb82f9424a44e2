package domain

import "slices"

// ProjectInfo is the descriptive header of a project.
type ProjectInfo struct {
	Name      string `json:"name"`
	Client    string `json:"client"`
	Manager   string `json:"manager"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Location  string `json:"location"`
}

// Project is the aggregate root. It exclusively owns every entity below it;
// no entity is shared across projects.
type Project struct {
	ID             string          `json:"id"`
	Info           ProjectInfo     `json:"info"`
	Tasks          []Task          `json:"tasks"`
	Issues         []Issue         `json:"issues"`
	Members        []Member        `json:"members"`
	Documents      []Document      `json:"documents"`
	Policies       []Policy        `json:"policies"`
	Risks          []Risk          `json:"risks"`
	ChangeRequests []ChangeRequest `json:"changeRequests"`
	ActionItems    []ActionItem    `json:"actionItems"`
	Decisions      []Decision      `json:"decisions"`
	Meetings       []Meeting       `json:"meetings"`
	Communications []Communication `json:"communications"`
	Milestones     []Milestone     `json:"milestones"`
	Deployments    []Deployment    `json:"deployments"`
	Vendors        []Vendor        `json:"vendors"`
	Procurements   []Procurement   `json:"procurements"`
	Assets         []Asset         `json:"assets"`
	Systems        []System        `json:"systems"`
	SiteLogs       []SiteLog       `json:"siteLogs"`
	Notifications  []Notification  `json:"notifications"`
	Activities     []Activity      `json:"activities"`
	Budget         Budget          `json:"budget"`
}

// ProjectHeader is the part of a Project that is not a collection. It is the
// entity written to the remote "projects" table.
type ProjectHeader struct {
	ID   string      `json:"id"`
	Info ProjectInfo `json:"info"`
}

func (p Project) Header() ProjectHeader {
	return ProjectHeader{ID: p.ID, Info: p.Info}
}

// NewProject returns a project with every collection allocated and a zero
// budget.
func NewProject(id string, info ProjectInfo) Project {
	p := Project{ID: id, Info: info}
	p.Normalize()
	return p
}

// EmptyProject is the renderable placeholder used when no project exists.
func EmptyProject() Project {
	return NewProject("", ProjectInfo{})
}

// Normalize allocates nil collections so that decoded projects render the
// same as freshly created ones.
func (p *Project) Normalize() {
	ensure(&p.Tasks)
	ensure(&p.Issues)
	ensure(&p.Members)
	ensure(&p.Documents)
	ensure(&p.Policies)
	ensure(&p.Risks)
	ensure(&p.ChangeRequests)
	ensure(&p.ActionItems)
	ensure(&p.Decisions)
	ensure(&p.Meetings)
	ensure(&p.Communications)
	ensure(&p.Milestones)
	ensure(&p.Deployments)
	ensure(&p.Vendors)
	ensure(&p.Procurements)
	ensure(&p.Assets)
	ensure(&p.Systems)
	ensure(&p.SiteLogs)
	ensure(&p.Notifications)
	ensure(&p.Activities)
	ensure(&p.Budget.Expenses)
}

func ensure[T any](s *[]T) {
	if *s == nil {
		*s = []T{}
	}
}

// Clone returns a deep copy.
func (p Project) Clone() Project {
	out := p
	out.Tasks = cloneEach(p.Tasks, Task.clone)
	out.Issues = slices.Clone(p.Issues)
	out.Members = slices.Clone(p.Members)
	out.Documents = slices.Clone(p.Documents)
	out.Policies = slices.Clone(p.Policies)
	out.Risks = slices.Clone(p.Risks)
	out.ChangeRequests = slices.Clone(p.ChangeRequests)
	out.ActionItems = slices.Clone(p.ActionItems)
	out.Decisions = slices.Clone(p.Decisions)
	out.Meetings = cloneEach(p.Meetings, Meeting.clone)
	out.Communications = slices.Clone(p.Communications)
	out.Milestones = slices.Clone(p.Milestones)
	out.Deployments = slices.Clone(p.Deployments)
	out.Vendors = slices.Clone(p.Vendors)
	out.Procurements = slices.Clone(p.Procurements)
	out.Assets = slices.Clone(p.Assets)
	out.Systems = slices.Clone(p.Systems)
	out.SiteLogs = slices.Clone(p.SiteLogs)
	out.Notifications = slices.Clone(p.Notifications)
	out.Activities = slices.Clone(p.Activities)
	out.Budget = p.Budget.clone()
	return out
}

func cloneEach[T any](s []T, f func(T) T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	for i, v := range s {
		out[i] = f(v)
	}
	return out
}

// Record is one entity of a project tagged with its collection.
type Record struct {
	Kind  EntityType
	ID    string
	Value any
}

// Records lists the budget header followed by every entity of every
// collection in canonical order. Used to write a whole project remotely.
func (p Project) Records() []Record {
	var out []Record
	out = append(out, Record{Kind: KindBudget, ID: p.ID, Value: p.Budget.Header()})
	out = appendRecords(out, KindTasks, p.Tasks)
	out = appendRecords(out, KindIssues, p.Issues)
	out = appendRecords(out, KindMembers, p.Members)
	out = appendRecords(out, KindDocuments, p.Documents)
	out = appendRecords(out, KindPolicies, p.Policies)
	out = appendRecords(out, KindRisks, p.Risks)
	out = appendRecords(out, KindChangeRequests, p.ChangeRequests)
	out = appendRecords(out, KindActionItems, p.ActionItems)
	out = appendRecords(out, KindDecisions, p.Decisions)
	out = appendRecords(out, KindMeetings, p.Meetings)
	out = appendRecords(out, KindCommunications, p.Communications)
	out = appendRecords(out, KindMilestones, p.Milestones)
	out = appendRecords(out, KindDeployments, p.Deployments)
	out = appendRecords(out, KindVendors, p.Vendors)
	out = appendRecords(out, KindProcurements, p.Procurements)
	out = appendRecords(out, KindAssets, p.Assets)
	out = appendRecords(out, KindSystems, p.Systems)
	out = appendRecords(out, KindSiteLogs, p.SiteLogs)
	out = appendRecords(out, KindNotifications, p.Notifications)
	out = appendRecords(out, KindActivities, p.Activities)
	out = appendRecords(out, KindExpenses, p.Budget.Expenses)
	return out
}

func appendRecords[T Entity[T]](out []Record, kind EntityType, items []T) []Record {
	for _, it := range items {
		out = append(out, Record{Kind: kind, ID: it.EntityID(), Value: it})
	}
	return out
}

// TaskProgressPct is the share of tasks that are Done, 0 for no tasks.
func (p Project) TaskProgressPct() float64 {
	if len(p.Tasks) == 0 {
		return 0
	}
	done := 0
	for _, t := range p.Tasks {
		if t.Status == TaskDone {
			done++
		}
	}
	return float64(done) / float64(len(p.Tasks)) * 100
}

func (p Project) OpenIssueCount() int {
	n := 0
	for _, i := range p.Issues {
		if i.Status.IsOpen() {
			n++
		}
	}
	return n
}

func (p Project) OpenRiskCount() int {
	n := 0
	for _, r := range p.Risks {
		if r.Status != RiskClosed {
			n++
		}
	}
	return n
}

// DisplayName returns the project name, or its id when unnamed.
func (p Project) DisplayName() string {
	if p.Info.Name != "" {
		return p.Info.Name
	}
	if p.ID == "" {
		return MissingRef
	}
	return p.ID
}
