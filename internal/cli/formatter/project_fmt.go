package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/pmdash/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// FormatProjectList renders every project in a bordered box, marking the
// active one.
func FormatProjectList(projects []domain.Project, activeID string) string {
	t := NewTable("", "ID", "NAME", "CLIENT", "TASKS", "ISSUES", "SPENT")
	for _, p := range projects {
		marker := " "
		name := p.DisplayName()
		if p.ID == activeID {
			marker = StyleGreen.Render("●")
			name = Bold(name)
		}
		t.AddRow(
			marker,
			TruncID(p.ID),
			name,
			orMissing(p.Info.Client),
			RenderProgress(p.TaskProgressPct(), 10),
			openCount(p.OpenIssueCount()),
			spendCell(p.Budget),
		)
	}
	return RenderBox("Projects", t.Render())
}

func openCount(n int) string {
	if n == 0 {
		return StyleDim.Render("0 open")
	}
	return StyleYellow.Render(fmt.Sprintf("%d open", n))
}

func spendCell(b domain.Budget) string {
	if !b.ContractAmount.IsPositive() {
		return FormatMoney(b.Spent())
	}
	return RenderSpend(b.SpentPct(), 8)
}

// FormatProjectDetail renders the overview card: header fields on the left,
// the milestone plan on the right, and summary counts underneath.
func FormatProjectDetail(p domain.Project, now time.Time) string {
	left := lipgloss.NewStyle().Width(46).Render(projectInfoPanel(p, now))
	right := planPanel(p)
	top := lipgloss.JoinHorizontal(lipgloss.Top, left, "    ", right)

	return RenderBox("", top+"\n"+summaryLine(p))
}

func projectInfoPanel(p domain.Project, now time.Time) string {
	var b strings.Builder
	b.WriteString(StyleBold.Render(p.DisplayName()) + "\n")
	if p.Info.Client != "" {
		b.WriteString(StylePurple.Render(p.Info.Client) + "\n")
	}
	b.WriteString("\n")

	field := func(label, value string) {
		fmt.Fprintf(&b, "%s  %s\n", StyleDim.Render(fmt.Sprintf("%-8s", label)), value)
	}
	field("ID", TruncID(p.ID))
	field("MANAGER", orMissing(p.Info.Manager))
	field("LOCATION", orMissing(p.Info.Location))
	field("START", orMissing(p.Info.StartDate))
	if p.Info.EndDate != "" {
		field("END", DueLabel(p.Info.EndDate, now, false)+" "+Dim("("+p.Info.EndDate+")"))
	} else {
		field("END", orMissing(""))
	}
	field("BUDGET", FormatMoney(p.Budget.ContractAmount))
	field("SPENT", FormatMoney(p.Budget.Spent()))
	return b.String()
}

func planPanel(p domain.Project) string {
	var b strings.Builder
	header := StyleHeader.Render("PLAN")
	if len(p.Tasks) > 0 {
		header += "  " + RenderProgress(p.TaskProgressPct(), 12)
	}
	b.WriteString(header + "\n" + StyleDim.Render(strings.Repeat("─", 4)) + "\n")

	items := MilestoneTree(p)
	if len(items) == 0 {
		b.WriteString(StyleDim.Render("No tasks or milestones"))
		return b.String()
	}
	b.WriteString(RenderTree(items))
	return b.String()
}

func summaryLine(p domain.Project) string {
	parts := []string{
		fmt.Sprintf("%d tasks", len(p.Tasks)),
		fmt.Sprintf("%d open issues", p.OpenIssueCount()),
		fmt.Sprintf("%d open risks", p.OpenRiskCount()),
		fmt.Sprintf("%d members", len(p.Members)),
	}
	return Dim(strings.Join(parts, " · "))
}
