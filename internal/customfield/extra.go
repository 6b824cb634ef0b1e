package customfield

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// ExtraField is a free-text attribute outside the slot schema.
type ExtraField struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ExtraFields is an ordered list of free-text attributes with unique keys.
type ExtraFields []ExtraField

func normalizeExtraKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Has reports whether a field with key exists. Keys compare trimmed and case-insensitively.
func (f ExtraFields) Has(key string) bool {
	n := normalizeExtraKey(key)
	return lo.ContainsBy(f, func(x ExtraField) bool { return normalizeExtraKey(x.Key) == n })
}

// Add appends a new field. An empty or already used key is rejected with
// ErrValidationRejected and f is returned unchanged.
func (f ExtraFields) Add(key, value string) (ExtraFields, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return f, fmt.Errorf("%w: key required", ErrValidationRejected)
	}
	if f.Has(key) {
		return f, fmt.Errorf("%w: duplicate key %q", ErrValidationRejected, key)
	}
	out := make(ExtraFields, len(f), len(f)+1)
	copy(out, f)
	return append(out, ExtraField{Key: key, Value: value}), nil
}

// Set changes the value of an existing field. It reports false when key is unknown.
func (f ExtraFields) Set(key, value string) (ExtraFields, bool) {
	n := normalizeExtraKey(key)
	_, idx, ok := lo.FindIndexOf(f, func(x ExtraField) bool { return normalizeExtraKey(x.Key) == n })
	if !ok {
		return f, false
	}
	out := make(ExtraFields, len(f))
	copy(out, f)
	out[idx].Value = value
	return out, true
}

// Remove drops the field with key, if present.
func (f ExtraFields) Remove(key string) ExtraFields {
	n := normalizeExtraKey(key)
	return lo.Reject(f, func(x ExtraField, _ int) bool { return normalizeExtraKey(x.Key) == n })
}
