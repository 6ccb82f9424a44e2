package domain

import (
	"slices"

	"github.com/shopspring/decimal"
)

type ExpenseEntry struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"`
	VendorID    Ref             `json:"vendorId"`
}

func (e ExpenseEntry) EntityID() string { return e.ID }
func (e ExpenseEntry) WithEntityID(id string) ExpenseEntry { e.ID = id; return e }

// Budget is the per-project singleton. Spend is derived from the expense
// entries and never stored.
type Budget struct {
	ContractAmount decimal.Decimal `json:"contractAmount"`
	Expenses       []ExpenseEntry  `json:"expenses"`
}

// BudgetHeader is the part of a Budget that is not a collection.
type BudgetHeader struct {
	ContractAmount decimal.Decimal `json:"contractAmount"`
}

func (b Budget) Header() BudgetHeader {
	return BudgetHeader{ContractAmount: b.ContractAmount}
}

// Spent sums all expense amounts.
func (b Budget) Spent() decimal.Decimal {
	total := decimal.Zero
	for _, e := range b.Expenses {
		total = total.Add(e.Amount)
	}
	return total
}

func (b Budget) Remaining() decimal.Decimal {
	return b.ContractAmount.Sub(b.Spent())
}

// SpentPct is spend as a percentage of the contract amount, 0 when no
// contract amount is set.
func (b Budget) SpentPct() float64 {
	if !b.ContractAmount.IsPositive() {
		return 0
	}
	pct, _ := b.Spent().Div(b.ContractAmount).Mul(decimal.NewFromInt(100)).Float64()
	return pct
}

// SpentByCategory groups spend per expense category.
func (b Budget) SpentByCategory() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, e := range b.Expenses {
		out[e.Category] = out[e.Category].Add(e.Amount)
	}
	return out
}

func (b Budget) clone() Budget {
	b.Expenses = slices.Clone(b.Expenses)
	return b
}
