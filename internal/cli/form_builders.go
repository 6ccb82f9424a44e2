package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/pmdash/internal/cli/formatter"
	"github.com/alexanderramin/pmdash/internal/domain"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

func pmdashHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(formatter.ColorFg).Background(formatter.ColorHeader).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(formatter.ColorDim).Padding(0, 1)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.ErrorMessage = lipgloss.NewStyle().Foreground(formatter.ColorRed)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

// projectForm prompts for the fields of a new project. Values already set
// on info and contract show up as defaults.
func projectForm(info *domain.ProjectInfo, contract *string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Placeholder("Project name").
				Value(&info.Name).
				Validate(validateRequired),
			huh.NewInput().
				Title("Client").
				Value(&info.Client),
			huh.NewInput().
				Title("Manager").
				Value(&info.Manager),
			huh.NewInput().
				Title("Location").
				Value(&info.Location),
		),
		huh.NewGroup(
			dateInput("Start Date (YYYY-MM-DD, blank for none)", &info.StartDate),
			dateInput("End Date (YYYY-MM-DD, blank for none)", &info.EndDate),
			huh.NewInput().
				Title("Contract Amount (blank for none)").
				Placeholder("250000.00").
				Value(contract).
				Validate(validateAmount),
		),
	).WithTheme(pmdashHuhTheme()).WithShowHelp(false)
}

func dateInput(title string, value *string) *huh.Input {
	return huh.NewInput().
		Title(title).
		Placeholder("2025-06-30").
		Value(value).
		Validate(validateOptionalDate)
}

func validateRequired(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("required")
	}
	return nil
}

// validateOptionalDate accepts empty or a YYYY-MM-DD date.
func validateOptionalDate(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse(domain.DateLayout, s); err != nil {
		return fmt.Errorf("use YYYY-MM-DD format")
	}
	return nil
}

// validateAmount accepts empty or a non-negative decimal.
func validateAmount(s string) error {
	if s == "" {
		return nil
	}
	v, err := decimal.NewFromString(s)
	if err != nil || v.IsNegative() {
		return fmt.Errorf("enter a non-negative amount")
	}
	return nil
}
