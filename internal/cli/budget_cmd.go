package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/pmdash/internal/cli/formatter"
	"github.com/alexanderramin/pmdash/internal/domain"
	"github.com/alexanderramin/pmdash/internal/store"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newBudgetCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Show and edit the active project's budget",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.requireActive()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatBudget(p))
			return nil
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the budget summary",
			Args:  cobra.NoArgs,
			RunE:  cmd.RunE,
		},
		newBudgetSetContractCmd(app),
		newBudgetAddExpenseCmd(app),
		newBudgetRemoveExpenseCmd(app),
	)
	return cmd
}

func newBudgetSetContractCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set-contract AMOUNT",
		Short: "Set the contract amount",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.requireActive()
			if err != nil {
				return err
			}
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			if err := app.Store.SetContractAmount(amount); err != nil {
				if errors.Is(err, store.ErrNegativeAmount) {
					return fmt.Errorf("contract %w", err)
				}
				return err
			}
			app.recordActivity("set contract to "+formatter.FormatMoney(amount), domain.KindBudget, p.ID)
			app.finishWrites(cmd)
			fmt.Fprintf(cmd.OutOrStdout(), "Contract set to %s\n", formatter.FormatMoney(amount))
			return nil
		},
	}
}

func newBudgetAddExpenseCmd(app *App) *cobra.Command {
	var e domain.ExpenseEntry
	var amount, vendor string

	cmd := &cobra.Command{
		Use:   "add-expense DESCRIPTION",
		Short: "Record an expense against the budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.requireActive(); err != nil {
				return err
			}
			amt, err := parseAmount(amount)
			if err != nil {
				return err
			}
			if amt.IsNegative() {
				return fmt.Errorf("expense %w", store.ErrNegativeAmount)
			}
			if e.Date == "" {
				e.Date = app.now().Format(domain.DateLayout)
			} else if _, err := time.Parse(domain.DateLayout, e.Date); err != nil {
				return fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", e.Date)
			}

			entry := e
			entry.Description = args[0]
			entry.Amount = amt
			entry.VendorID = domain.Ref(vendor)

			id := app.Store.Expenses().Add(entry)
			app.recordActivity("recorded expense "+formatter.FormatMoney(amt), domain.KindExpenses, id)
			app.finishWrites(cmd)
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded expense %s (%s)\n", id, formatter.FormatMoney(amt))
			return nil
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "Amount spent")
	cmd.Flags().StringVar(&e.Category, "category", "", "Expense category")
	cmd.Flags().StringVar(&e.Date, "date", "", "Date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&vendor, "vendor", "", "Vendor ID")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func newBudgetRemoveExpenseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm-expense ID",
		Aliases: []string{"remove-expense"},
		Short:   "Delete an expense",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.removeEntity(cmd, domain.KindExpenses, "expense", args[0])
		},
	}
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	return d, nil
}
