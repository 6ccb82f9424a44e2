package formatter

import (
	"strings"
	"time"

	"github.com/alexanderramin/pmdash/internal/domain"
)

// FormatActivityFeed renders audit entries newest first, as given.
func FormatActivityFeed(entries []domain.Activity, now time.Time) string {
	if len(entries) == 0 {
		return StyleDim.Render("No activity yet.")
	}
	var b strings.Builder
	for _, a := range entries {
		actor := a.Actor
		if actor == "" {
			actor = "someone"
		}
		line := StyleDim.Render(padRight(HumanTimestamp(a.At, now), 12)) + " " +
			StyleBold.Render(actor) + " " + a.Action
		if a.TargetType != "" {
			line += " " + StylePurple.Render(string(a.TargetType))
			if a.TargetID != "" {
				line += " " + TruncID(a.TargetID)
			}
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}
