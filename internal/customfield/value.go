package customfield

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Values holds the custom attribute values of one entity instance, keyed by Slot.Key.
// Numbers are stored as float64, a present-but-empty number as nil.
type Values map[string]any

// Get returns the raw value of slot, nil when absent.
func (v Values) Get(slot Slot) any {
	if v == nil {
		return nil
	}
	return v[slot.Key()]
}

// Clone returns an independent copy.
func (v Values) Clone() Values {
	if v == nil {
		return nil
	}
	out := make(Values, len(v))
	for k, x := range v {
		out[k] = x
	}
	return out
}

// HasValue reports whether value deviates from the empty value of vt.
// A value of the wrong Go type counts as empty.
func HasValue(vt ValueType, value any) bool {
	switch vt {
	case TypeBool:
		b, ok := value.(bool)
		return ok && b
	case TypeStr:
		s, ok := value.(string)
		return ok && strings.TrimSpace(s) != ""
	case TypeNum:
		f, ok := toFloat(value)
		return ok && f != 0
	}
	return false
}

// EmptyValue is the value a slot is cleared to.
func EmptyValue(vt ValueType) any {
	switch vt {
	case TypeBool:
		return false
	case TypeStr:
		return ""
	}
	return nil
}

// ActivatedValue is the value a freshly activated slot starts with. A boolean
// starts out true so that it shows as present under HasValue.
func ActivatedValue(vt ValueType) any {
	switch vt {
	case TypeBool:
		return true
	case TypeStr:
		return ""
	}
	return nil
}

// Normalize coerces a decoded value into the canonical Go type of vt.
// nil is accepted for every type and normalizes to the type's empty value.
func Normalize(vt ValueType, value any) (any, error) {
	if value == nil {
		return EmptyValue(vt), nil
	}
	switch vt {
	case TypeBool:
		if b, ok := value.(bool); ok {
			return b, nil
		}
	case TypeStr:
		if s, ok := value.(string); ok {
			return s, nil
		}
	case TypeNum:
		if f, ok := toFloat(value); ok {
			if math.IsNaN(f) || math.IsInf(f, 0) {
				break
			}
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: %s does not accept %T", ErrInvalidValue, vt, value)
}

func toFloat(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
