package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/pmdash/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// statusTone groups status values by how far along they are. Values shared
// between enums ("In Progress", "Closed") read the same everywhere.
type statusTone int

const (
	toneWaiting statusTone = iota
	toneMoving
	toneGood
	toneBad
	toneInactive
)

var statusTones = map[string]statusTone{
	"Not Started": toneWaiting,
	"Open":        toneWaiting,
	"Identified":  toneWaiting,
	"Pending":     toneWaiting,
	"Planned":     toneWaiting,
	"Scheduled":   toneWaiting,
	"Requested":   toneWaiting,
	"Available":   toneWaiting,

	"In Progress": toneMoving,
	"Mitigating":  toneMoving,
	"Ordered":     toneMoving,
	"In Use":      toneMoving,
	"Maintenance": toneMoving,
	"Degraded":    toneMoving,

	"Done":        toneGood,
	"Resolved":    toneGood,
	"Approved":    toneGood,
	"Achieved":    toneGood,
	"Succeeded":   toneGood,
	"Delivered":   toneGood,
	"Operational": toneGood,

	"Rejected": toneBad,
	"Missed":   toneBad,
	"Failed":   toneBad,
	"Down":     toneBad,

	"Closed":  toneInactive,
	"Retired": toneInactive,
}

// StatusPill renders any entity status with its color and a marker.
func StatusPill(status string) string {
	if status == "" {
		return StyleDim.Render("○ " + domain.MissingRef)
	}
	tone, ok := statusTones[status]
	if !ok {
		return StyleDim.Render("○ " + status)
	}
	switch tone {
	case toneWaiting:
		return StyleBlue.Render("○ " + status)
	case toneMoving:
		return StyleYellow.Render("● " + status)
	case toneGood:
		return StyleGreen.Render("✔ " + status)
	case toneBad:
		return StyleRed.Render("✖ " + status)
	default:
		return StyleDim.Render("✖ " + status)
	}
}

// SeverityColor returns the style for an issue severity or a risk
// probability/impact grade.
func SeverityColor(s domain.Severity) lipgloss.Style {
	switch s {
	case domain.SeverityCritical:
		return StyleRed
	case domain.SeverityHigh:
		return StyleYellow
	case domain.SeverityMedium:
		return StyleBlue
	case domain.SeverityLow:
		return StyleGreen
	default:
		return StyleDim
	}
}

// RiskScoreIndicator renders probability x impact, 0..16.
func RiskScoreIndicator(score int) string {
	label := fmt.Sprintf("● %d", score)
	switch {
	case score >= 9:
		return StyleRed.Render(label)
	case score >= 4:
		return StyleYellow.Render(label)
	case score > 0:
		return StyleGreen.Render(label)
	default:
		return StyleDim.Render(label)
	}
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

func Dim(text string) string {
	return StyleDim.Render(text)
}

func Bold(text string) string {
	return StyleBold.Render(text)
}
