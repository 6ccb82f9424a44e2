package cli

import (
	"errors"
	"testing"

	"github.com/alexanderramin/pmdash/internal/domain"
	"github.com/charmbracelet/huh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormValidators(t *testing.T) {
	tests := []struct {
		name    string
		fn      func(string) error
		input   string
		wantErr bool
	}{
		{"required empty", validateRequired, "  ", true},
		{"required set", validateRequired, "Harbor Bridge", false},
		{"date blank", validateOptionalDate, "", false},
		{"date valid", validateOptionalDate, "2026-06-30", false},
		{"date invalid", validateOptionalDate, "next week", true},
		{"amount blank", validateAmount, "", false},
		{"amount valid", validateAmount, "250000.50", false},
		{"amount negative", validateAmount, "-1", true},
		{"amount garbage", validateAmount, "lots", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.fn(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProjectForm_Builds(t *testing.T) {
	var info domain.ProjectInfo
	var contract string
	form := projectForm(&info, &contract)
	require.NotNil(t, form)
	assert.NotNil(t, pmdashHuhTheme())
}

func interactiveApp(t *testing.T, run func(*huh.Form) error) (*App, *int) {
	t.Helper()
	app, _ := testApp(t)
	calls := 0
	app.IsInteractive = func() bool { return true }
	app.RunForm = func(form *huh.Form) error {
		calls++
		return run(form)
	}
	return app, &calls
}

func TestProjectAdd_PromptsWhenInteractive(t *testing.T) {
	app, calls := interactiveApp(t, func(*huh.Form) error { return nil })

	_, err := executeCmd(t, app, "project", "add", "--client", "Acme")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "project name is required")
	assert.Equal(t, 1, *calls)
	assert.Empty(t, app.Store.Snapshot().Projects)
}

func TestProjectAdd_PromptAborted(t *testing.T) {
	app, _ := interactiveApp(t, func(*huh.Form) error { return huh.ErrUserAborted })

	_, err := executeCmd(t, app, "project", "add")
	require.Error(t, err)
	assert.True(t, errors.Is(err, huh.ErrUserAborted))
	assert.Empty(t, app.Store.Snapshot().Projects)
}

func TestProjectAdd_NameFlagSkipsPrompt(t *testing.T) {
	app, calls := interactiveApp(t, func(*huh.Form) error { return errors.New("unexpected prompt") })

	_, err := executeCmd(t, app, "project", "add", "--name", "Harbor Bridge")
	require.NoError(t, err)
	assert.Zero(t, *calls)
	require.Len(t, app.Store.Snapshot().Projects, 1)
}
