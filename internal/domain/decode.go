package domain

import (
	"encoding/json"
	"fmt"
)

type attachFn func(p *Project, data []byte) error

func into[T Entity[T]](slot func(p *Project) *[]T) attachFn {
	return func(p *Project, data []byte) error {
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		s := slot(p)
		*s = append(*s, v)
		return nil
	}
}

var attachers = map[EntityType]attachFn{
	KindProjects: func(p *Project, data []byte) error {
		var h ProjectHeader
		if err := json.Unmarshal(data, &h); err != nil {
			return err
		}
		p.Info = h.Info
		return nil
	},
	KindBudget: func(p *Project, data []byte) error {
		var h BudgetHeader
		if err := json.Unmarshal(data, &h); err != nil {
			return err
		}
		p.Budget.ContractAmount = h.ContractAmount
		return nil
	},
	KindExpenses:       into(func(p *Project) *[]ExpenseEntry { return &p.Budget.Expenses }),
	KindTasks:          into(func(p *Project) *[]Task { return &p.Tasks }),
	KindIssues:         into(func(p *Project) *[]Issue { return &p.Issues }),
	KindMembers:        into(func(p *Project) *[]Member { return &p.Members }),
	KindDocuments:      into(func(p *Project) *[]Document { return &p.Documents }),
	KindPolicies:       into(func(p *Project) *[]Policy { return &p.Policies }),
	KindRisks:          into(func(p *Project) *[]Risk { return &p.Risks }),
	KindChangeRequests: into(func(p *Project) *[]ChangeRequest { return &p.ChangeRequests }),
	KindActionItems:    into(func(p *Project) *[]ActionItem { return &p.ActionItems }),
	KindDecisions:      into(func(p *Project) *[]Decision { return &p.Decisions }),
	KindMeetings:       into(func(p *Project) *[]Meeting { return &p.Meetings }),
	KindCommunications: into(func(p *Project) *[]Communication { return &p.Communications }),
	KindMilestones:     into(func(p *Project) *[]Milestone { return &p.Milestones }),
	KindDeployments:    into(func(p *Project) *[]Deployment { return &p.Deployments }),
	KindVendors:        into(func(p *Project) *[]Vendor { return &p.Vendors }),
	KindProcurements:   into(func(p *Project) *[]Procurement { return &p.Procurements }),
	KindAssets:         into(func(p *Project) *[]Asset { return &p.Assets }),
	KindSystems:        into(func(p *Project) *[]System { return &p.Systems }),
	KindSiteLogs:       into(func(p *Project) *[]SiteLog { return &p.SiteLogs }),
	KindNotifications:  into(func(p *Project) *[]Notification { return &p.Notifications }),
	KindActivities:     into(func(p *Project) *[]Activity { return &p.Activities }),
}

// Attach decodes one JSON record of the given table into p. Header tables
// overwrite the matching fields; collection entities are appended.
func (p *Project) Attach(kind EntityType, data []byte) error {
	fn, ok := attachers[kind]
	if !ok {
		return fmt.Errorf("attach %q: unknown entity type", kind)
	}
	if err := fn(p, data); err != nil {
		return fmt.Errorf("attach %s: %w", kind, err)
	}
	return nil
}

// RecordID reads the "id" member of a JSON entity body.
func RecordID(data []byte) (string, error) {
	var v struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return "", fmt.Errorf("reading entity id: %w", err)
	}
	return v.ID, nil
}
