package formatter

import (
	"fmt"
	"slices"
	"strings"

	"github.com/alexanderramin/pmdash/internal/domain"
)

// FormatBudget renders the contract, spend against it, the per-category
// breakdown, and the expense ledger.
func FormatBudget(p domain.Project) string {
	b := p.Budget
	var out strings.Builder

	line := func(label, value string) {
		fmt.Fprintf(&out, "%s  %s\n", StyleDim.Render(fmt.Sprintf("%-9s", label)), value)
	}
	line("CONTRACT", FormatMoney(b.ContractAmount))
	line("SPENT", FormatMoney(b.Spent()))

	remaining := b.Remaining()
	remainingText := FormatMoney(remaining)
	if remaining.IsNegative() {
		remainingText = StyleRed.Render(remainingText + " over")
	}
	line("REMAINING", remainingText)
	if b.ContractAmount.IsPositive() {
		line("USED", RenderSpend(b.SpentPct(), 20))
	}

	byCategory := b.SpentByCategory()
	if len(byCategory) > 0 {
		cats := make([]string, 0, len(byCategory))
		for c := range byCategory {
			cats = append(cats, c)
		}
		slices.Sort(cats)

		out.WriteString("\n" + Header("By category") + "\n")
		t := NewTable("CATEGORY", "SPENT")
		for _, c := range cats {
			t.AddRow(orMissing(c), FormatMoney(byCategory[c]))
		}
		out.WriteString(t.Render())
	}

	if len(b.Expenses) > 0 {
		out.WriteString("\n" + Header("Expenses") + "\n")
		t := NewTable("ID", "DATE", "DESCRIPTION", "CATEGORY", "AMOUNT", "VENDOR")
		for _, e := range b.Expenses {
			t.AddRow(
				TruncID(e.ID),
				orMissing(e.Date),
				Truncate(e.Description, 40),
				orMissing(e.Category),
				FormatMoney(e.Amount),
				p.VendorName(e.VendorID),
			)
		}
		out.WriteString(t.Render())
	}

	return RenderBox("Budget", strings.TrimRight(out.String(), "\n"))
}
