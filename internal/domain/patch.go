package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidPatch is returned when a patch names an unknown field or carries a
// value of the wrong shape.
var ErrInvalidPatch = errors.New("invalid patch")

// Patch is a partial update keyed by JSON field name.
type Patch map[string]any

// ApplyPatch merges p into v. Only fields present in p change; "id" is never
// changed. v is returned unchanged on error.
func ApplyPatch[T any](v T, p Patch) (T, error) {
	if len(p) == 0 {
		return v, nil
	}
	base, err := json.Marshal(v)
	if err != nil {
		return v, fmt.Errorf("encoding %T: %w", v, err)
	}
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(base, &fields); err != nil {
		return v, fmt.Errorf("%w: %T is not an object", ErrInvalidPatch, v)
	}
	for key, val := range p {
		if key == "id" {
			continue
		}
		if _, ok := fields[key]; !ok {
			return v, fmt.Errorf("%w: unknown field %q", ErrInvalidPatch, key)
		}
		raw, err := json.Marshal(val)
		if err != nil {
			return v, fmt.Errorf("%w: field %q: %v", ErrInvalidPatch, key, err)
		}
		fields[key] = raw
	}
	merged, err := json.Marshal(fields)
	if err != nil {
		return v, fmt.Errorf("encoding merged %T: %w", v, err)
	}
	var out T
	if err := json.Unmarshal(merged, &out); err != nil {
		return v, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	return out, nil
}
