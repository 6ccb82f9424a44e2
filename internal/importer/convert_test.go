package importer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alexanderramin/pmdash/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert_MinimalProject(t *testing.T) {
	p, err := Convert(validMinimalSeed())
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Harbor Bridge", p.Info.Name)
	assert.True(t, p.Budget.ContractAmount.IsZero())

	require.Len(t, p.Tasks, 1)
	assert.NotEmpty(t, p.Tasks[0].ID)
	assert.Equal(t, "Survey site", p.Tasks[0].Title)
	assert.Equal(t, domain.TaskNotStarted, p.Tasks[0].Status)
	assert.Empty(t, p.Tasks[0].Dependencies)

	// Collections not named in the seed are allocated, not nil.
	assert.NotNil(t, p.Documents)
	assert.NotNil(t, p.Budget.Expenses)
}

func TestConvert_FullProjectResolvesRefs(t *testing.T) {
	p, err := Convert(validFullSeed())
	require.NoError(t, err)

	require.Len(t, p.Members, 2)
	require.Len(t, p.Milestones, 1)
	require.Len(t, p.Tasks, 3)

	ana, ben := p.Members[0], p.Members[1]
	m1 := p.Milestones[0]
	t1, t2, t3 := p.Tasks[0], p.Tasks[1], p.Tasks[2]

	assert.Equal(t, domain.Ref(ana.ID), t1.OwnerID)
	assert.Equal(t, domain.Ref(ben.ID), t2.OwnerID)
	assert.Equal(t, domain.Ref(m1.ID), t2.MilestoneID)
	assert.True(t, t3.OwnerID.IsZero())

	assert.Empty(t, t1.Dependencies)
	assert.Equal(t, []string{t1.ID}, t2.Dependencies)
	assert.Equal(t, []string{t2.ID}, t3.Dependencies)

	require.Len(t, p.Issues, 1)
	assert.Equal(t, domain.Ref(ben.ID), p.Issues[0].AssigneeID)
	assert.Equal(t, domain.Ref(t2.ID), p.Issues[0].RelatedTaskID)
	assert.Equal(t, domain.SeverityHigh, p.Issues[0].Severity)

	require.Len(t, p.Risks, 1)
	assert.Equal(t, domain.Ref(ana.ID), p.Risks[0].OwnerID)
	assert.Equal(t, 6, p.Risks[0].Score())

	assert.Equal(t, "250000", p.Budget.ContractAmount.String())
	require.Len(t, p.Budget.Expenses, 1)
	assert.Equal(t, "4200.5", p.Budget.Expenses[0].Amount.String())
	assert.Equal(t, "Labor", p.Budget.Expenses[0].Category)

	// Resolved refs render through the project's lookup helpers.
	assert.Equal(t, "Ana", p.MemberName(t1.OwnerID))
}

func TestConvert_DefaultStatuses(t *testing.T) {
	seed := validMinimalSeed()
	seed.Milestones = []MilestoneSeed{{Ref: "m1", Title: "M"}}
	seed.Issues = []IssueSeed{{Title: "Leak"}}
	seed.Risks = []RiskSeed{{Title: "Rain"}}

	p, err := Convert(seed)
	require.NoError(t, err)

	assert.Equal(t, domain.MilestonePlanned, p.Milestones[0].Status)
	assert.Equal(t, domain.IssueOpen, p.Issues[0].Status)
	assert.Equal(t, domain.SeverityMedium, p.Issues[0].Severity)
	assert.Equal(t, domain.RiskIdentified, p.Risks[0].Status)
	assert.Equal(t, domain.SeverityMedium, p.Risks[0].Probability)
}

func TestConvert_FreshIDsPerImport(t *testing.T) {
	first, err := Convert(validFullSeed())
	require.NoError(t, err)
	second, err := Convert(validFullSeed())
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEqual(t, first.Tasks[0].ID, second.Tasks[0].ID)
}

func TestConvert_RefsDoNotCrossSections(t *testing.T) {
	// A member and a task share the ref "x"; each resolves within its own section.
	seed := validMinimalSeed()
	seed.Members = []MemberSeed{{Ref: "x", Name: "Xavier"}}
	seed.Tasks = []TaskSeed{{Ref: "x", Title: "X task", OwnerRef: "x"}}
	seed.Issues = []IssueSeed{{Title: "About x", TaskRef: "x", AssigneeRef: "x"}}
	require.Empty(t, ValidateSeed(seed))

	p, err := Convert(seed)
	require.NoError(t, err)
	assert.Equal(t, domain.Ref(p.Members[0].ID), p.Tasks[0].OwnerID)
	assert.Equal(t, domain.Ref(p.Tasks[0].ID), p.Issues[0].RelatedTaskID)
	assert.Equal(t, domain.Ref(p.Members[0].ID), p.Issues[0].AssigneeID)
}

func TestImport_ReturnsValidationError(t *testing.T) {
	seed := validMinimalSeed()
	seed.Project.Name = ""
	seed.Tasks[0].Status = "bogus"

	_, err := Import(seed)
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Errs, 2)
	assert.Contains(t, err.Error(), "and 1 more")
}

func TestParseSeed_AcceptsCommentsAndTrailingCommas(t *testing.T) {
	data := []byte(`{
		// seeded from the kickoff workbook
		"project": {"name": "Depot Refit", "contract_amount": "1200",},
		/* two tasks, one waiting on the other */
		"tasks": [
			{"ref": "a", "title": "Strip out"},
			{"ref": "b", "title": "Rewire",},
		],
		"dependencies": [{"predecessor_ref": "a", "successor_ref": "b"}],
	}`)

	seed, err := ParseSeed(data)
	require.NoError(t, err)
	assert.Equal(t, "Depot Refit", seed.Project.Name)
	require.Len(t, seed.Tasks, 2)
	require.Len(t, seed.Dependencies, 1)

	p, err := Import(seed)
	require.NoError(t, err)
	assert.Equal(t, []string{p.Tasks[0].ID}, p.Tasks[1].Dependencies)
}

func TestParseSeed_Malformed(t *testing.T) {
	_, err := ParseSeed([]byte(`{"project": `))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing seed")
}

func TestLoadSeed_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(`{"project": {"name": "From disk"}}`), 0o644))

	seed, err := LoadSeed(path)
	require.NoError(t, err)
	assert.Equal(t, "From disk", seed.Project.Name)

	_, err = LoadSeed(filepath.Join(t.TempDir(), "missing.jsonc"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading")
}
