package formatter

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/alexanderramin/pmdash/internal/domain"
	"github.com/shopspring/decimal"
)

// entityColumns lists, per collection, the JSON fields shown in list views.
// The id column is always first and not listed here.
var entityColumns = map[domain.EntityType][]string{
	domain.KindTasks:          {"title", "status", "priority", "ownerId", "milestoneId", "dueDate", "progress", "dependencies"},
	domain.KindIssues:         {"title", "severity", "status", "assigneeId", "relatedTaskId", "openedAt"},
	domain.KindMembers:        {"name", "role", "email", "phone", "company"},
	domain.KindDocuments:      {"title", "category", "version", "uploadedBy", "uploadedAt"},
	domain.KindPolicies:       {"title", "category", "effectiveDate", "ownerId"},
	domain.KindRisks:          {"title", "probability", "impact", "score", "status", "ownerId"},
	domain.KindChangeRequests: {"title", "status", "requestedBy", "costImpact", "scheduleImpactDays", "submittedAt"},
	domain.KindActionItems:    {"title", "status", "ownerId", "dueDate", "meetingId"},
	domain.KindDecisions:      {"title", "decidedBy", "decidedAt", "meetingId"},
	domain.KindMeetings:       {"title", "date", "location", "attendees"},
	domain.KindCommunications: {"subject", "channel", "from", "to", "sentAt"},
	domain.KindMilestones:     {"title", "status", "dueDate"},
	domain.KindDeployments:    {"version", "environment", "systemId", "scheduledAt", "status"},
	domain.KindVendors:        {"name", "category", "contact", "email", "rating"},
	domain.KindProcurements:   {"item", "vendorId", "quantity", "amount", "status", "expectedAt"},
	domain.KindAssets:         {"name", "tag", "category", "status", "assignedTo", "location"},
	domain.KindSystems:        {"name", "type", "version", "status", "ownerId"},
	domain.KindSiteLogs:       {"date", "weather", "crew", "summary", "authorId"},
	domain.KindNotifications:  {"message", "level", "createdAt", "read"},
	domain.KindActivities:     {"at", "action", "entityType", "entityId", "actor"},
	domain.KindExpenses:       {"date", "description", "category", "amount", "vendorId"},
}

var memberRefFields = map[string]bool{
	"ownerId": true, "assigneeId": true, "reportedBy": true, "uploadedBy": true,
	"requestedBy": true, "decidedBy": true, "assignedTo": true, "authorId": true,
}

var moneyFields = map[string]bool{"amount": true, "costImpact": true}

var dueFields = map[string]bool{"dueDate": true, "expectedAt": true}

// Columns returns the list-view fields for kind, or nil for non-collections.
func Columns(kind domain.EntityType) []string {
	return entityColumns[kind]
}

// FormatEntityTable renders one collection of p. References are resolved
// against p; dangling ones render as the missing marker.
func FormatEntityTable(p domain.Project, kind domain.EntityType, now time.Time) (string, error) {
	cols, ok := entityColumns[kind]
	if !ok {
		return "", fmt.Errorf("%s is not a collection", kind)
	}

	headers := make([]string, 0, len(cols)+1)
	headers = append(headers, "ID")
	for _, c := range cols {
		headers = append(headers, columnHeader(c))
	}
	t := NewTable(headers...)

	for _, rec := range p.Records() {
		if rec.Kind != kind {
			continue
		}
		fields, err := toFields(rec.Value)
		if err != nil {
			return "", err
		}
		if risk, ok := rec.Value.(domain.Risk); ok {
			fields["score"] = risk.Score()
		}
		row := []string{TruncID(rec.ID)}
		for _, c := range cols {
			row = append(row, renderCell(p, c, fields, now))
		}
		t.AddRow(row...)
	}

	if t.Len() == 0 {
		return StyleDim.Render(fmt.Sprintf("No %s.", kind)), nil
	}
	return t.Render(), nil
}

// FormatEntity renders every field of one entity as label/value lines.
func FormatEntity(p domain.Project, kind domain.EntityType, id string, now time.Time) (string, error) {
	for _, rec := range p.Records() {
		if rec.Kind != kind || rec.ID != id {
			continue
		}
		fields, err := toFields(rec.Value)
		if err != nil {
			return "", err
		}
		if risk, ok := rec.Value.(domain.Risk); ok {
			fields["score"] = risk.Score()
		}
		keys := append([]string{"id"}, entityColumns[kind]...)
		seen := make(map[string]bool, len(keys))
		for _, k := range keys {
			seen[k] = true
		}
		var extra []string
		for k := range fields {
			if !seen[k] {
				extra = append(extra, k)
			}
		}
		slices.Sort(extra)
		keys = append(keys, extra...)

		var b strings.Builder
		for _, k := range keys {
			if _, ok := fields[k]; !ok {
				continue
			}
			value := renderCell(p, k, fields, now)
			if k == "id" {
				value = id
			}
			fmt.Fprintf(&b, "%s  %s\n", StyleDim.Render(fmt.Sprintf("%-18s", columnHeader(k))), value)
		}
		return RenderBox(string(kind), strings.TrimRight(b.String(), "\n")), nil
	}
	return "", fmt.Errorf("%s %q not found", kind, id)
}

func toFields(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding %T: %w", v, err)
	}
	fields := make(map[string]any)
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decoding %T: %w", v, err)
	}
	return fields, nil
}

// columnHeader turns a camelCase field name into an upper-case header.
func columnHeader(field string) string {
	var b strings.Builder
	for i, r := range field {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}

func renderCell(p domain.Project, field string, fields map[string]any, now time.Time) string {
	raw := fields[field]

	switch {
	case field == "status":
		return StatusPill(asString(raw))
	case field == "severity" || field == "probability" || field == "impact":
		s := domain.Severity(asString(raw))
		return SeverityColor(s).Render(orMissing(string(s)))
	case field == "score":
		n, _ := raw.(int)
		return RiskScoreIndicator(n)
	case field == "progress":
		n, _ := raw.(float64)
		return RenderProgress(n, 8)
	case field == "dependencies":
		return strings.Join(dependencyTitles(p, raw), ", ")
	case field == "attendees":
		return memberNames(p, raw)
	case memberRefFields[field]:
		return p.MemberName(domain.Ref(asString(raw)))
	case field == "milestoneId":
		return p.MilestoneTitle(domain.Ref(asString(raw)))
	case field == "relatedTaskId":
		return p.TaskTitle(domain.Ref(asString(raw)))
	case field == "vendorId":
		return p.VendorName(domain.Ref(asString(raw)))
	case field == "systemId":
		return p.SystemName(domain.Ref(asString(raw)))
	case field == "meetingId":
		return p.MeetingTitle(domain.Ref(asString(raw)))
	case moneyFields[field]:
		d, err := decimal.NewFromString(asString(raw))
		if err != nil {
			return orMissing(asString(raw))
		}
		return FormatMoney(d)
	case dueFields[field]:
		return DueLabel(asString(raw), now, isFinished(asString(fields["status"])))
	case field == "at" || field == "createdAt":
		ts, err := time.Parse(time.RFC3339Nano, asString(raw))
		if err != nil || ts.IsZero() {
			return orMissing("")
		}
		return HumanTimestamp(ts, now)
	}

	switch v := raw.(type) {
	case bool:
		if v {
			return "yes"
		}
		return StyleDim.Render("no")
	case float64:
		return fmt.Sprintf("%g", v)
	case nil:
		return orMissing("")
	default:
		return orMissing(Truncate(asString(v), 48))
	}
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}

func isFinished(status string) bool {
	tone, ok := statusTones[status]
	return ok && (tone == toneGood || tone == toneInactive || tone == toneBad)
}

func dependencyTitles(p domain.Project, raw any) []string {
	ids, _ := raw.([]any)
	titles := make([]string, 0, len(ids))
	for _, id := range ids {
		titles = append(titles, p.TaskTitle(domain.Ref(asString(id))))
	}
	if len(titles) == 0 {
		return []string{StyleDim.Render(domain.MissingRef)}
	}
	return titles
}

func memberNames(p domain.Project, raw any) string {
	ids, _ := raw.([]any)
	if len(ids) == 0 {
		return StyleDim.Render(domain.MissingRef)
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, p.MemberName(domain.Ref(asString(id))))
	}
	return strings.Join(names, ", ")
}
