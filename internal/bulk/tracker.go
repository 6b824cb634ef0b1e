// Package bulk tracks an edit made to many entities at once as a sparse record
// of touched fields and derives the single patch applied to every selected entity.
package bulk

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/samber/lo"

	"cardvault-api/internal/customfield"
)

var (
	// ErrNoChanges is returned by Patch when nothing was changed; callers close
	// the edit without calling persistence.
	ErrNoChanges = errors.New("bulk: no changed fields")
	// ErrTriStateValue is returned when a tri-state field is tracked with a non-boolean value.
	ErrTriStateValue = errors.New("bulk: tri-state fields accept true, false or null")
)

// Patch is the shallow merge applied, unmodified, to every selected entity.
type Patch map[string]any

// Keys returns the patch keys in sorted order.
func (p Patch) Keys() []string {
	keys := lo.Keys(p)
	sort.Strings(keys)
	return keys
}

// ChangedField is one removable chip of the edit summary.
type ChangedField struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value any    `json:"value"`
}

// Labeler returns the display label of a field key, or "" to fall back to the key.
type Labeler func(key string) string

// Tracker accumulates a partial edit record. Key presence in the record is the
// only signal of intent; a key set to an empty value is kept in the record but
// never reaches the patch.
type Tracker struct {
	record   map[string]any
	order    []string
	tri      map[string]TriState
	triOrder []string
	label    Labeler
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithTriState declares fields tracked as tri-state instead of plain booleans.
func WithTriState(fields ...string) Option {
	return func(t *Tracker) {
		for _, f := range fields {
			if _, ok := t.tri[f]; ok {
				continue
			}
			t.tri[f] = Unchanged
			t.triOrder = append(t.triOrder, f)
		}
	}
}

// WithLabeler sets the label source for ChangedFields.
func WithLabeler(l Labeler) Option {
	return func(t *Tracker) { t.label = l }
}

// NewTracker returns an empty tracker.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{record: map[string]any{}, tri: map[string]TriState{}}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// IsTriState reports whether field was declared tri-state.
func (t *Tracker) IsTriState(field string) bool {
	_, ok := t.tri[field]
	return ok
}

// Track records value as the intended new value of field.
func (t *Tracker) Track(field string, value any) error {
	if t.IsTriState(field) {
		var s TriState
		switch v := value.(type) {
		case nil:
			s = Unchanged
		case bool:
			s = TriState{set: true, value: v}
		case *bool:
			s = TriStateOf(v)
		case TriState:
			s = v
		default:
			return fmt.Errorf("%w: %s got %T", ErrTriStateValue, field, value)
		}
		t.tri[field] = s
		return nil
	}
	if _, ok := t.record[field]; !ok {
		t.order = append(t.order, field)
	}
	t.record[field] = value
	return nil
}

// SetTriState sets the state of a declared tri-state field.
func (t *Tracker) SetTriState(field string, s TriState) error {
	if !t.IsTriState(field) {
		return fmt.Errorf("%w: %s is not tri-state", ErrTriStateValue, field)
	}
	t.tri[field] = s
	return nil
}

// TriState returns the state of a tri-state field.
func (t *Tracker) TriState(field string) TriState { return t.tri[field] }

// Remove discards the edit of field. A tri-state field returns to Unchanged.
func (t *Tracker) Remove(field string) {
	if t.IsTriState(field) {
		t.tri[field] = Unchanged
		return
	}
	if _, ok := t.record[field]; !ok {
		return
	}
	delete(t.record, field)
	t.order = lo.Without(t.order, field)
}

// Reset discards every edit.
func (t *Tracker) Reset() {
	t.record = map[string]any{}
	t.order = nil
	for f := range t.tri {
		t.tri[f] = Unchanged
	}
}

// Record returns a copy of the sparse edit record, tri-state fields excluded.
func (t *Tracker) Record() map[string]any {
	out := make(map[string]any, len(t.record))
	for k, v := range t.record {
		out[k] = v
	}
	return out
}

// ChangedFields lists the edits that carry a non-empty value, in the order the
// fields were first touched, followed by the set tri-state fields.
func (t *Tracker) ChangedFields() []ChangedField {
	out := make([]ChangedField, 0, len(t.order)+len(t.triOrder))
	for _, k := range t.order {
		v := t.record[k]
		if IsEmpty(k, v) {
			continue
		}
		out = append(out, ChangedField{Key: k, Label: t.labelOf(k), Value: v})
	}
	for _, k := range t.triOrder {
		if v, ok := t.tri[k].Value(); ok {
			out = append(out, ChangedField{Key: k, Label: t.labelOf(k), Value: v})
		}
	}
	return out
}

// Patch reduces ChangedFields into the patch for every selected entity. It
// returns ErrNoChanges when there is nothing to apply.
func (t *Tracker) Patch() (Patch, error) {
	changed := t.ChangedFields()
	if len(changed) == 0 {
		return nil, ErrNoChanges
	}
	return lo.SliceToMap(changed, func(c ChangedField) (string, any) { return c.Key, c.Value }), nil
}

func (t *Tracker) labelOf(key string) string {
	if t.label != nil {
		if l := t.label(key); l != "" {
			return l
		}
	}
	return key
}

// IsEmpty reports whether value is the empty value for field key: nil, blank
// strings, empty collections and, for custom slots, the slot type's empty value.
func IsEmpty(key string, value any) bool {
	if value == nil {
		return true
	}
	if slot, err := customfield.ParseKey(customfield.KindCard, key); err == nil {
		v, err := customfield.Normalize(slot.Type, value)
		if err != nil {
			return false
		}
		return !customfield.HasValue(slot.Type, v)
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v) == ""
	case TriState:
		return !v.IsSet()
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer:
		return rv.IsNil()
	}
	return false
}

// Patchable is an entity a bulk patch can be applied to.
type Patchable interface {
	ApplyPatch(patch map[string]any) error
}

// Apply merges patch into every target. It stops at the first failing target.
func Apply[T Patchable](patch Patch, targets []T) error {
	if len(patch) == 0 {
		return ErrNoChanges
	}
	for i, target := range targets {
		if err := target.ApplyPatch(patch); err != nil {
			return fmt.Errorf("bulk: apply to target %d: %w", i, err)
		}
	}
	return nil
}
