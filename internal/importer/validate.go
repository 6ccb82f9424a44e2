package importer

import (
	"fmt"
	"slices"
	"time"

	"github.com/alexanderramin/pmdash/internal/domain"
	"github.com/shopspring/decimal"
)

// refSet tracks the refs declared by one section of the seed.
type refSet map[string]bool

// ValidateSeed checks the seed before conversion and returns every problem
// found. Convert assumes an empty result.
func ValidateSeed(schema *SeedSchema) []error {
	var errs []error

	errs = append(errs, validateProject(&schema.Project)...)

	members := make(refSet)
	errs = append(errs, validateMembers(schema.Members, members)...)

	milestones := make(refSet)
	errs = append(errs, validateMilestones(schema.Milestones, milestones)...)

	tasks := make(refSet)
	errs = append(errs, validateTasks(schema.Tasks, members, milestones, tasks)...)
	errs = append(errs, validateDependencies(schema.Dependencies, tasks)...)

	errs = append(errs, validateIssues(schema.Issues, members, tasks)...)
	errs = append(errs, validateRisks(schema.Risks, members)...)
	errs = append(errs, validateExpenses(schema.Expenses)...)

	return errs
}

func validateProject(p *ProjectSeed) []error {
	var errs []error

	if p.Name == "" {
		errs = append(errs, fmt.Errorf("project.name is required"))
	}
	errs = append(errs, validateDate("project.start_date", p.StartDate)...)
	errs = append(errs, validateDate("project.end_date", p.EndDate)...)
	if p.StartDate != "" && p.EndDate != "" {
		start, startErr := time.Parse(domain.DateLayout, p.StartDate)
		end, endErr := time.Parse(domain.DateLayout, p.EndDate)
		if startErr == nil && endErr == nil && end.Before(start) {
			errs = append(errs, fmt.Errorf("project.end_date %q must not be before start_date %q", p.EndDate, p.StartDate))
		}
	}
	errs = append(errs, validateAmount("project.contract_amount", p.ContractAmount, false)...)

	return errs
}

func validateMembers(members []MemberSeed, refs refSet) []error {
	var errs []error
	for i, m := range members {
		prefix := fmt.Sprintf("members[%d]", i)
		errs = append(errs, declareRef(prefix, m.Ref, refs)...)
		if m.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		}
	}
	return errs
}

func validateMilestones(milestones []MilestoneSeed, refs refSet) []error {
	var errs []error
	for i, m := range milestones {
		prefix := fmt.Sprintf("milestones[%d]", i)
		errs = append(errs, declareRef(prefix, m.Ref, refs)...)
		if m.Title == "" {
			errs = append(errs, fmt.Errorf("%s.title is required", prefix))
		}
		errs = append(errs, validateEnum(prefix+".status", m.Status, domain.ParseMilestoneStatus)...)
		errs = append(errs, validateDate(prefix+".due_date", m.DueDate)...)
	}
	return errs
}

func validateTasks(tasks []TaskSeed, members, milestones, refs refSet) []error {
	var errs []error
	for i, t := range tasks {
		prefix := fmt.Sprintf("tasks[%d]", i)
		errs = append(errs, declareRef(prefix, t.Ref, refs)...)
		if t.Title == "" {
			errs = append(errs, fmt.Errorf("%s.title is required", prefix))
		}
		errs = append(errs, validateEnum(prefix+".status", t.Status, domain.ParseTaskStatus)...)
		errs = append(errs, resolveRef(prefix+".owner_ref", t.OwnerRef, members, "members")...)
		errs = append(errs, resolveRef(prefix+".milestone_ref", t.MilestoneRef, milestones, "milestones")...)
		errs = append(errs, validateDate(prefix+".start_date", t.StartDate)...)
		errs = append(errs, validateDate(prefix+".due_date", t.DueDate)...)
		if t.Progress < 0 || t.Progress > 100 {
			errs = append(errs, fmt.Errorf("%s.progress must be between 0 and 100, got %d", prefix, t.Progress))
		}
	}
	return errs
}

func validateDependencies(deps []DependencySeed, tasks refSet) []error {
	var errs []error

	for i, d := range deps {
		prefix := fmt.Sprintf("dependencies[%d]", i)

		if d.PredecessorRef == "" {
			errs = append(errs, fmt.Errorf("%s.predecessor_ref is required", prefix))
		} else if !tasks[d.PredecessorRef] {
			errs = append(errs, fmt.Errorf("%s.predecessor_ref: ref %q not found in tasks", prefix, d.PredecessorRef))
		}

		if d.SuccessorRef == "" {
			errs = append(errs, fmt.Errorf("%s.successor_ref is required", prefix))
		} else if !tasks[d.SuccessorRef] {
			errs = append(errs, fmt.Errorf("%s.successor_ref: ref %q not found in tasks", prefix, d.SuccessorRef))
		}

		if d.PredecessorRef != "" && d.PredecessorRef == d.SuccessorRef {
			errs = append(errs, fmt.Errorf("%s: task %q cannot depend on itself", prefix, d.PredecessorRef))
		}
	}

	if len(deps) > 1 {
		errs = append(errs, detectCycles(deps)...)
	}

	return errs
}

func detectCycles(deps []DependencySeed) []error {
	graph := make(map[string][]string)
	var nodes []string
	for _, d := range deps {
		if d.PredecessorRef == "" || d.SuccessorRef == "" || d.PredecessorRef == d.SuccessorRef {
			continue
		}
		graph[d.PredecessorRef] = append(graph[d.PredecessorRef], d.SuccessorRef)
		nodes = append(nodes, d.PredecessorRef, d.SuccessorRef)
	}
	slices.Sort(nodes)
	nodes = slices.Compact(nodes)

	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int)
	var errs []error

	var visit func(node string) bool
	visit = func(node string) bool {
		color[node] = gray
		for _, next := range graph[node] {
			if color[next] == gray {
				errs = append(errs, fmt.Errorf("circular dependency detected involving %q and %q", node, next))
				return true
			}
			if color[next] == white && visit(next) {
				return true
			}
		}
		color[node] = black
		return false
	}

	for _, node := range nodes {
		if color[node] == white {
			visit(node)
		}
	}

	return errs
}

func validateIssues(issues []IssueSeed, members, tasks refSet) []error {
	var errs []error
	for i, is := range issues {
		prefix := fmt.Sprintf("issues[%d]", i)
		if is.Title == "" {
			errs = append(errs, fmt.Errorf("%s.title is required", prefix))
		}
		errs = append(errs, validateEnum(prefix+".severity", is.Severity, domain.ParseSeverity)...)
		errs = append(errs, validateEnum(prefix+".status", is.Status, domain.ParseIssueStatus)...)
		errs = append(errs, resolveRef(prefix+".assignee_ref", is.AssigneeRef, members, "members")...)
		errs = append(errs, resolveRef(prefix+".task_ref", is.TaskRef, tasks, "tasks")...)
		errs = append(errs, validateDate(prefix+".opened_at", is.OpenedAt)...)
	}
	return errs
}

func validateRisks(risks []RiskSeed, members refSet) []error {
	var errs []error
	for i, r := range risks {
		prefix := fmt.Sprintf("risks[%d]", i)
		if r.Title == "" {
			errs = append(errs, fmt.Errorf("%s.title is required", prefix))
		}
		errs = append(errs, validateEnum(prefix+".probability", r.Probability, domain.ParseSeverity)...)
		errs = append(errs, validateEnum(prefix+".impact", r.Impact, domain.ParseSeverity)...)
		errs = append(errs, validateEnum(prefix+".status", r.Status, domain.ParseRiskStatus)...)
		errs = append(errs, resolveRef(prefix+".owner_ref", r.OwnerRef, members, "members")...)
	}
	return errs
}

func validateExpenses(expenses []ExpenseSeed) []error {
	var errs []error
	for i, e := range expenses {
		prefix := fmt.Sprintf("expenses[%d]", i)
		if e.Description == "" {
			errs = append(errs, fmt.Errorf("%s.description is required", prefix))
		}
		errs = append(errs, validateAmount(prefix+".amount", e.Amount, true)...)
		errs = append(errs, validateDate(prefix+".date", e.Date)...)
	}
	return errs
}

func declareRef(prefix, ref string, refs refSet) []error {
	switch {
	case ref == "":
		return []error{fmt.Errorf("%s.ref is required", prefix)}
	case refs[ref]:
		return []error{fmt.Errorf("%s.ref: duplicate ref %q", prefix, ref)}
	}
	refs[ref] = true
	return nil
}

func resolveRef(field, ref string, refs refSet, section string) []error {
	if ref == "" || refs[ref] {
		return nil
	}
	return []error{fmt.Errorf("%s: ref %q not found in %s", field, ref, section)}
}

func validateEnum[T any](field, value string, parse func(string) (T, error)) []error {
	if value == "" {
		return nil
	}
	if _, err := parse(value); err != nil {
		return []error{fmt.Errorf("%s: %w", field, err)}
	}
	return nil
}

func validateDate(field, value string) []error {
	if value == "" {
		return nil
	}
	if _, err := time.Parse(domain.DateLayout, value); err != nil {
		return []error{fmt.Errorf("%s: invalid date format %q (expected YYYY-MM-DD)", field, value)}
	}
	return nil
}

func validateAmount(field, value string, required bool) []error {
	if value == "" {
		if required {
			return []error{fmt.Errorf("%s is required", field)}
		}
		return nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return []error{fmt.Errorf("%s: invalid amount %q", field, value)}
	}
	if d.IsNegative() {
		return []error{fmt.Errorf("%s must not be negative", field)}
	}
	return nil
}
