package importer

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"
)

// SeedSchema is the top-level structure of a project seed file. Entities are
// addressed by file-local refs; Convert replaces them with fresh ids so the
// same seed can be imported any number of times.
type SeedSchema struct {
	Project      ProjectSeed      `json:"project"`
	Members      []MemberSeed     `json:"members,omitempty"`
	Milestones   []MilestoneSeed  `json:"milestones,omitempty"`
	Tasks        []TaskSeed       `json:"tasks,omitempty"`
	Dependencies []DependencySeed `json:"dependencies,omitempty"`
	Issues       []IssueSeed      `json:"issues,omitempty"`
	Risks        []RiskSeed       `json:"risks,omitempty"`
	Expenses     []ExpenseSeed    `json:"expenses,omitempty"`
}

type ProjectSeed struct {
	Name           string `json:"name"`
	Client         string `json:"client,omitempty"`
	Manager        string `json:"manager,omitempty"`
	StartDate      string `json:"start_date,omitempty"`
	EndDate        string `json:"end_date,omitempty"`
	Location       string `json:"location,omitempty"`
	ContractAmount string `json:"contract_amount,omitempty"`
}

type MemberSeed struct {
	Ref     string `json:"ref"`
	Name    string `json:"name"`
	Role    string `json:"role,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Company string `json:"company,omitempty"`
}

type MilestoneSeed struct {
	Ref     string `json:"ref"`
	Title   string `json:"title"`
	DueDate string `json:"due_date,omitempty"`
	Status  string `json:"status,omitempty"`
}

type TaskSeed struct {
	Ref          string `json:"ref"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	Status       string `json:"status,omitempty"`
	Priority     string `json:"priority,omitempty"`
	OwnerRef     string `json:"owner_ref,omitempty"`
	MilestoneRef string `json:"milestone_ref,omitempty"`
	StartDate    string `json:"start_date,omitempty"`
	DueDate      string `json:"due_date,omitempty"`
	Progress     int    `json:"progress,omitempty"`
}

// DependencySeed declares that the successor task waits on the predecessor.
type DependencySeed struct {
	PredecessorRef string `json:"predecessor_ref"`
	SuccessorRef   string `json:"successor_ref"`
}

type IssueSeed struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Severity    string `json:"severity,omitempty"`
	Status      string `json:"status,omitempty"`
	AssigneeRef string `json:"assignee_ref,omitempty"`
	TaskRef     string `json:"task_ref,omitempty"`
	OpenedAt    string `json:"opened_at,omitempty"`
}

type RiskSeed struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Probability string `json:"probability,omitempty"`
	Impact      string `json:"impact,omitempty"`
	Status      string `json:"status,omitempty"`
	OwnerRef    string `json:"owner_ref,omitempty"`
	Mitigation  string `json:"mitigation,omitempty"`
}

type ExpenseSeed struct {
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	Amount      string `json:"amount"`
	Date        string `json:"date,omitempty"`
}

// ParseSeed strips comments and trailing commas, then decodes the seed.
func ParseSeed(data []byte) (*SeedSchema, error) {
	var schema SeedSchema
	if err := json.Unmarshal(jsonc.ToJSON(data), &schema); err != nil {
		return nil, fmt.Errorf("parsing seed: %w", err)
	}
	return &schema, nil
}

// LoadSeed reads and parses a seed file.
func LoadSeed(path string) (*SeedSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	schema, err := ParseSeed(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return schema, nil
}
