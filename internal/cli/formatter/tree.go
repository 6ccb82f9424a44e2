package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/pmdash/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// TreeItem is one line of a tree display.
type TreeItem struct {
	Title  string
	Level  int
	IsLast bool
	Done   bool
	Active bool
	Detail string
}

const (
	treeBranch = "├─ "
	treeCorner = "└─ "
	treePipe   = "│  "
)

var styleYellowBold = StyleYellow.Bold(true)

// RenderTree draws items with box-drawing connectors. Detail badges are
// aligned in a column after the widest title.
func RenderTree(items []TreeItem) string {
	if len(items) == 0 {
		return ""
	}

	contents := make([]string, len(items))
	widest := 0
	for i, item := range items {
		var prefix string
		if item.Level > 0 {
			prefix = strings.Repeat(treePipe, item.Level-1)
			if item.IsLast {
				prefix += treeCorner
			} else {
				prefix += treeBranch
			}
		}

		title := item.Title
		switch {
		case item.Done:
			title = StyleGreen.Render("✔ ") + Dim(title)
		case item.Active:
			title = styleYellowBold.Render("▶ " + title)
		}
		contents[i] = prefix + title
		widest = max(widest, lipgloss.Width(contents[i]))
	}

	var b strings.Builder
	for i, item := range items {
		b.WriteString(contents[i])
		if item.Detail != "" {
			pad := widest - lipgloss.Width(contents[i])
			b.WriteString(strings.Repeat(" ", pad) + "  " + StyleBlue.Render(fmt.Sprintf("[ %s ]", item.Detail)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// MilestoneTree groups tasks under their milestone in milestone order.
// Tasks without a milestone, or whose milestone was deleted, are listed
// under "Unscheduled".
func MilestoneTree(p domain.Project) []TreeItem {
	byMilestone := make(map[string][]domain.Task)
	known := make(map[string]bool, len(p.Milestones))
	for _, m := range p.Milestones {
		known[m.ID] = true
	}
	var loose []domain.Task
	for _, t := range p.Tasks {
		if id := string(t.MilestoneID); id != "" && known[id] {
			byMilestone[id] = append(byMilestone[id], t)
		} else {
			loose = append(loose, t)
		}
	}

	var items []TreeItem
	addTasks := func(tasks []domain.Task) {
		for i, t := range tasks {
			detail := ""
			if t.DueDate != "" {
				detail = t.DueDate
			}
			items = append(items, TreeItem{
				Title:  t.Title,
				Level:  1,
				IsLast: i == len(tasks)-1,
				Done:   t.Status == domain.TaskDone,
				Active: t.Status == domain.TaskInProgress,
				Detail: detail,
			})
		}
	}

	for _, m := range p.Milestones {
		items = append(items, TreeItem{
			Title:  m.Title,
			Done:   m.Status == domain.MilestoneAchieved,
			Detail: m.DueDate,
		})
		addTasks(byMilestone[m.ID])
	}
	if len(loose) > 0 {
		items = append(items, TreeItem{Title: "Unscheduled"})
		addTasks(loose)
	}
	return items
}
