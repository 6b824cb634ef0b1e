package bulk

import (
	"bytes"
	"encoding/json"
)

// TriState is a boolean with an explicit "leave unchanged" state, the zero value.
type TriState struct {
	set   bool
	value bool
}

// Unchanged, True and False are the three states.
var (
	Unchanged = TriState{}
	True      = TriState{set: true, value: true}
	False     = TriState{set: true, value: false}
)

// TriStateOf converts a nullable bool.
func TriStateOf(v *bool) TriState {
	if v == nil {
		return Unchanged
	}
	return TriState{set: true, value: *v}
}

// IsSet reports whether a change is requested.
func (t TriState) IsSet() bool { return t.set }

// Value returns the requested value and whether one is set.
func (t TriState) Value() (bool, bool) { return t.value, t.set }

// Ptr returns the nullable bool form.
func (t TriState) Ptr() *bool {
	if !t.set {
		return nil
	}
	v := t.value
	return &v
}

// Next cycles unchanged → true → false → true.
func (t TriState) Next() TriState {
	if !t.set {
		return True
	}
	return TriState{set: true, value: !t.value}
}

func (t TriState) String() string {
	switch {
	case !t.set:
		return "unchanged"
	case t.value:
		return "true"
	default:
		return "false"
	}
}

// MarshalJSON encodes the unchanged state as null.
func (t TriState) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Ptr())
}

// UnmarshalJSON accepts null, true or false.
func (t *TriState) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*t = Unchanged
		return nil
	}
	var v bool
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*t = TriState{set: true, value: v}
	return nil
}
