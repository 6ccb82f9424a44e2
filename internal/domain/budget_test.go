package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestBudget_SpentIsSumOfEntries(t *testing.T) {
	b := Budget{
		ContractAmount: d("1000"),
		Expenses: []ExpenseEntry{
			{ID: "e1", Amount: d("100.25"), Category: "labor"},
			{ID: "e2", Amount: d("49.75"), Category: "material"},
			{ID: "e3", Amount: d("50"), Category: "labor"},
		},
	}

	assert.True(t, d("200").Equal(b.Spent()))
	assert.True(t, d("800").Equal(b.Remaining()))
	assert.InDelta(t, 20.0, b.SpentPct(), 0.0001)

	byCat := b.SpentByCategory()
	assert.True(t, d("150.25").Equal(byCat["labor"]))
	assert.True(t, d("49.75").Equal(byCat["material"]))
}

func TestBudget_SpentPctWithoutContract(t *testing.T) {
	b := Budget{Expenses: []ExpenseEntry{{ID: "e1", Amount: d("10")}}}
	assert.Zero(t, b.SpentPct())
}

func TestBudget_EmptyIsZero(t *testing.T) {
	assert.True(t, Budget{}.Spent().IsZero())
}
