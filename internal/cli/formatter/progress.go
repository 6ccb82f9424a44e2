package formatter

import (
	"fmt"
	"strings"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// RenderProgress renders completion as [████░░░░]  45%. pct is 0..100.
// Green above two thirds, yellow above one third, red below.
func RenderProgress(pct float64, width int) string {
	return renderBar(pct, width, func(p float64) func(...string) string {
		switch {
		case p < 33:
			return StyleRed.Render
		case p < 66:
			return StyleYellow.Render
		default:
			return StyleGreen.Render
		}
	})
}

// RenderSpend renders budget consumption, where more is worse: green up to
// 75%, yellow up to 100%, red once the contract is overrun. The bar caps at
// full width but the label shows the real percentage.
func RenderSpend(pct float64, width int) string {
	return renderBar(pct, width, func(p float64) func(...string) string {
		switch {
		case p > 100:
			return StyleRed.Render
		case p > 75:
			return StyleYellow.Render
		default:
			return StyleGreen.Render
		}
	})
}

func renderBar(pct float64, width int, color func(float64) func(...string) string) string {
	if pct < 0 {
		pct = 0
	}
	if width < 2 {
		width = 2
	}
	filled := min(int(pct/100*float64(width)), width)
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)
	return fmt.Sprintf("[%s] %3.0f%%", color(pct)(bar), pct)
}
