package cli

import (
	"testing"

	"github.com/alexanderramin/pmdash/internal/domain"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatchFlags_TypedValues(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	patch := newPatchFlags(fs)

	require.NoError(t, fs.Parse([]string{
		"--set", "progress=40",
		"--set", "read=true",
		"--set", "title=Pour concrete",
		"--set", "attendees=[ana, ben]",
		"--set", "dueDate=2026-04-01",
		"--set", "notes=",
		"--set-str", "version=1.10",
	}))

	assert.Equal(t, domain.Patch{
		"progress":  40,
		"read":      true,
		"title":     "Pour concrete",
		"attendees": []any{"ana", "ben"},
		"dueDate":   "2026-04-01",
		"notes":     "",
		"version":   "1.10",
	}, patch)
}

func TestPatchFlags_Malformed(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	newPatchFlags(fs)

	err := fs.Parse([]string{"--set", "novalue"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected key=value")

	err = fs.Parse([]string{"--set", "=x"})
	require.Error(t, err)
}

func TestParseValue_Mapping(t *testing.T) {
	v, err := parseValue("{a: 1, b: [x]}")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1, "b": []any{"x"}}, v)

	_, err = parseValue("[unclosed")
	require.Error(t, err)
}
