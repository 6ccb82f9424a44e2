package cli

import (
	"fmt"
	"strings"
)

// resolveID matches input against ids: exact match first, then a unique
// prefix. noun names the thing in error messages.
func resolveID(noun string, ids []string, input string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("%s ID is required", noun)
	}
	for _, id := range ids {
		if id == input {
			return id, nil
		}
	}

	var matches []string
	for _, id := range ids {
		if strings.HasPrefix(id, input) {
			matches = append(matches, id)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%s not found: %q", noun, input)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%s ID prefix %q is ambiguous (%d matches)", noun, input, len(matches))
	}
}

func (a *App) resolveProjectID(input string) (string, error) {
	st := a.Store.Snapshot()
	ids := make([]string, len(st.Projects))
	for i, p := range st.Projects {
		ids[i] = p.ID
	}
	if id, err := resolveID("project", ids, input); err == nil {
		return id, nil
	} else if len(ids) == 0 {
		return "", err
	}

	// Fall back to a case-insensitive name match.
	var byName []string
	for _, p := range st.Projects {
		if strings.EqualFold(p.Info.Name, input) {
			byName = append(byName, p.ID)
		}
	}
	switch len(byName) {
	case 1:
		return byName[0], nil
	case 0:
		return "", fmt.Errorf("project not found: %q", input)
	default:
		return "", fmt.Errorf("project name %q is ambiguous (%d matches)", input, len(byName))
	}
}
