package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alexanderramin/pmdash/internal/domain"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// patchFlag collects repeated --set key=value pairs into a domain.Patch.
// Values are read as YAML scalars or flow collections, so numbers, booleans,
// null and [a, b] lists keep their type. Use --set-str to force a string.
type patchFlag struct {
	patch   domain.Patch
	literal bool
}

var _ pflag.Value = (*patchFlag)(nil)

func newPatchFlags(fs *pflag.FlagSet) domain.Patch {
	patch := domain.Patch{}
	fs.Var(&patchFlag{patch: patch}, "set", "Set a field: key=value (repeatable; YAML values)")
	fs.Var(&patchFlag{patch: patch, literal: true}, "set-str", "Set a field to a literal string: key=value (repeatable)")
	return patch
}

func (f *patchFlag) Type() string { return "key=value" }

func (f *patchFlag) String() string {
	keys := make([]string, 0, len(f.patch))
	for k := range f.patch {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, f.patch[k])
	}
	return strings.Join(parts, ",")
}

func (f *patchFlag) Set(s string) error {
	key, raw, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return fmt.Errorf("expected key=value, got %q", s)
	}
	if f.literal {
		f.patch[key] = raw
		return nil
	}
	v, err := parseValue(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	f.patch[key] = v
	return nil
}

// parseValue reads one YAML value. Empty input is the empty string.
func parseValue(raw string) (any, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("parsing value %q: %w", raw, err)
	}
	return normalizeYAML(v), nil
}

// normalizeYAML converts yaml.v3 maps into JSON-encodable ones.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = normalizeYAML(val)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return out
	case []any:
		for i, val := range t {
			t[i] = normalizeYAML(val)
		}
		return t
	default:
		return v
	}
}
