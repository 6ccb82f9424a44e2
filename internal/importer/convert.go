package importer

import (
	"fmt"

	"github.com/alexanderramin/pmdash/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Convert turns a validated seed into a project ready for store.AddProject.
// The project gets a fresh uuid and every entity a fresh id; refs are
// rewritten to the new ids. Call ValidateSeed first.
func Convert(schema *SeedSchema) (domain.Project, error) {
	info := domain.ProjectInfo{
		Name:      schema.Project.Name,
		Client:    schema.Project.Client,
		Manager:   schema.Project.Manager,
		StartDate: schema.Project.StartDate,
		EndDate:   schema.Project.EndDate,
		Location:  schema.Project.Location,
	}
	project := domain.NewProject(uuid.New().String(), info)

	if schema.Project.ContractAmount != "" {
		amount, err := decimal.NewFromString(schema.Project.ContractAmount)
		if err != nil {
			return domain.Project{}, fmt.Errorf("parsing contract_amount: %w", err)
		}
		project.Budget.ContractAmount = amount
	}

	refMap := make(map[string]string) // seed ref -> entity id
	ref := func(r string) domain.Ref {
		if r == "" {
			return ""
		}
		return domain.Ref(refMap[r])
	}

	for _, m := range schema.Members {
		id := domain.NewID()
		refMap["member:"+m.Ref] = id
		project.Members = append(project.Members, domain.Member{
			ID: id, Name: m.Name, Role: m.Role, Email: m.Email, Phone: m.Phone, Company: m.Company,
		})
	}

	for _, m := range schema.Milestones {
		id := domain.NewID()
		refMap["milestone:"+m.Ref] = id
		project.Milestones = append(project.Milestones, domain.Milestone{
			ID:      id,
			Title:   m.Title,
			DueDate: m.DueDate,
			Status:  domain.MilestoneStatus(domain.CoalesceStr(m.Status, string(domain.MilestonePlanned))),
		})
	}

	for _, t := range schema.Tasks {
		id := domain.NewID()
		refMap["task:"+t.Ref] = id
		project.Tasks = append(project.Tasks, domain.Task{
			ID:           id,
			Title:        t.Title,
			Description:  t.Description,
			Status:       domain.TaskStatus(domain.CoalesceStr(t.Status, string(domain.TaskNotStarted))),
			Priority:     t.Priority,
			OwnerID:      ref(prefixed("member:", t.OwnerRef)),
			MilestoneID:  ref(prefixed("milestone:", t.MilestoneRef)),
			StartDate:    t.StartDate,
			DueDate:      t.DueDate,
			Progress:     t.Progress,
			Dependencies: []string{},
		})
	}

	for _, d := range schema.Dependencies {
		predID, ok := refMap["task:"+d.PredecessorRef]
		if !ok {
			return domain.Project{}, fmt.Errorf("predecessor_ref %q not found", d.PredecessorRef)
		}
		succID, ok := refMap["task:"+d.SuccessorRef]
		if !ok {
			return domain.Project{}, fmt.Errorf("successor_ref %q not found", d.SuccessorRef)
		}
		for i := range project.Tasks {
			if project.Tasks[i].ID == succID {
				project.Tasks[i].Dependencies = append(project.Tasks[i].Dependencies, predID)
			}
		}
	}

	for _, is := range schema.Issues {
		project.Issues = append(project.Issues, domain.Issue{
			ID:            domain.NewID(),
			Title:         is.Title,
			Description:   is.Description,
			Severity:      domain.Severity(domain.CoalesceStr(is.Severity, string(domain.SeverityMedium))),
			Status:        domain.IssueStatus(domain.CoalesceStr(is.Status, string(domain.IssueOpen))),
			AssigneeID:    ref(prefixed("member:", is.AssigneeRef)),
			RelatedTaskID: ref(prefixed("task:", is.TaskRef)),
			OpenedAt:      is.OpenedAt,
		})
	}

	for _, r := range schema.Risks {
		project.Risks = append(project.Risks, domain.Risk{
			ID:          domain.NewID(),
			Title:       r.Title,
			Description: r.Description,
			Probability: domain.Severity(domain.CoalesceStr(r.Probability, string(domain.SeverityMedium))),
			Impact:      domain.Severity(domain.CoalesceStr(r.Impact, string(domain.SeverityMedium))),
			Status:      domain.RiskStatus(domain.CoalesceStr(r.Status, string(domain.RiskIdentified))),
			OwnerID:     ref(prefixed("member:", r.OwnerRef)),
			Mitigation:  r.Mitigation,
		})
	}

	for _, e := range schema.Expenses {
		amount, err := decimal.NewFromString(e.Amount)
		if err != nil {
			return domain.Project{}, fmt.Errorf("parsing expense amount %q: %w", e.Amount, err)
		}
		project.Budget.Expenses = append(project.Budget.Expenses, domain.ExpenseEntry{
			ID:          domain.NewID(),
			Description: e.Description,
			Category:    e.Category,
			Amount:      amount,
			Date:        e.Date,
		})
	}

	return project, nil
}

// Import validates and converts in one step. All validation errors are
// joined into the returned error.
func Import(schema *SeedSchema) (domain.Project, error) {
	if errs := ValidateSeed(schema); len(errs) > 0 {
		return domain.Project{}, &ValidationError{Errs: errs}
	}
	return Convert(schema)
}

// ValidationError carries every problem ValidateSeed found.
type ValidationError struct {
	Errs []error
}

func (e *ValidationError) Error() string {
	if len(e.Errs) == 1 {
		return "invalid seed: " + e.Errs[0].Error()
	}
	return fmt.Sprintf("invalid seed: %v (and %d more)", e.Errs[0], len(e.Errs)-1)
}

func (e *ValidationError) Unwrap() []error { return e.Errs }

func prefixed(ns, r string) string {
	if r == "" {
		return ""
	}
	return ns + r
}
