package testutil

import (
	"github.com/alexanderramin/pmdash/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Project options
type ProjectOption func(*domain.Project)

func WithProjectID(id string) ProjectOption {
	return func(p *domain.Project) {
		p.ID = id
	}
}

func WithClient(c string) ProjectOption {
	return func(p *domain.Project) {
		p.Info.Client = c
	}
}

func WithContract(amount string) ProjectOption {
	return func(p *domain.Project) {
		p.Budget.ContractAmount = decimal.RequireFromString(amount)
	}
}

func WithTasks(tasks ...domain.Task) ProjectOption {
	return func(p *domain.Project) {
		p.Tasks = append(p.Tasks, tasks...)
	}
}

func WithIssues(issues ...domain.Issue) ProjectOption {
	return func(p *domain.Project) {
		p.Issues = append(p.Issues, issues...)
	}
}

func WithRisks(risks ...domain.Risk) ProjectOption {
	return func(p *domain.Project) {
		p.Risks = append(p.Risks, risks...)
	}
}

func WithMembers(members ...domain.Member) ProjectOption {
	return func(p *domain.Project) {
		p.Members = append(p.Members, members...)
	}
}

func WithExpenses(entries ...domain.ExpenseEntry) ProjectOption {
	return func(p *domain.Project) {
		p.Budget.Expenses = append(p.Budget.Expenses, entries...)
	}
}

func NewTestProject(name string, opts ...ProjectOption) domain.Project {
	p := domain.NewProject(uuid.New().String(), domain.ProjectInfo{
		Name:      name,
		Client:    "Test Client",
		Manager:   "Test Manager",
		StartDate: "2026-01-05",
		EndDate:   "2026-12-18",
		Location:  "Site A",
	})
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// Task options
type TaskOption func(*domain.Task)

func WithTaskID(id string) TaskOption {
	return func(t *domain.Task) {
		t.ID = id
	}
}

func WithTaskStatus(s domain.TaskStatus) TaskOption {
	return func(t *domain.Task) {
		t.Status = s
	}
}

func WithOwner(memberID string) TaskOption {
	return func(t *domain.Task) {
		t.OwnerID = domain.Ref(memberID)
	}
}

func WithDependencies(ids ...string) TaskOption {
	return func(t *domain.Task) {
		t.Dependencies = append(t.Dependencies, ids...)
	}
}

func WithTaskDueDate(d string) TaskOption {
	return func(t *domain.Task) {
		t.DueDate = d
	}
}

func NewTestTask(title string, opts ...TaskOption) domain.Task {
	t := domain.Task{
		ID:           domain.NewID(),
		Title:        title,
		Status:       domain.TaskNotStarted,
		Priority:     "Medium",
		Dependencies: []string{},
	}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

// Issue options
type IssueOption func(*domain.Issue)

func WithIssueStatus(s domain.IssueStatus) IssueOption {
	return func(i *domain.Issue) {
		i.Status = s
	}
}

func WithSeverity(s domain.Severity) IssueOption {
	return func(i *domain.Issue) {
		i.Severity = s
	}
}

func NewTestIssue(title string, opts ...IssueOption) domain.Issue {
	i := domain.Issue{
		ID:       domain.NewID(),
		Title:    title,
		Severity: domain.SeverityMedium,
		Status:   domain.IssueOpen,
	}
	for _, opt := range opts {
		opt(&i)
	}
	return i
}

// Risk options
type RiskOption func(*domain.Risk)

func WithRiskStatus(s domain.RiskStatus) RiskOption {
	return func(r *domain.Risk) {
		r.Status = s
	}
}

func NewTestRisk(title string, opts ...RiskOption) domain.Risk {
	r := domain.Risk{
		ID:          domain.NewID(),
		Title:       title,
		Probability: domain.SeverityMedium,
		Impact:      domain.SeverityHigh,
		Status:      domain.RiskIdentified,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

func NewTestMember(name, role string) domain.Member {
	return domain.Member{ID: domain.NewID(), Name: name, Role: role}
}

func NewTestExpense(description, amount string) domain.ExpenseEntry {
	return domain.ExpenseEntry{
		ID:          domain.NewID(),
		Description: description,
		Category:    "General",
		Amount:      decimal.RequireFromString(amount),
		Date:        "2026-03-01",
	}
}
