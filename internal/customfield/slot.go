// Package customfield implements the fixed-slot custom attribute schema shared by
// cards, decks and packs: the slot universe, per-kind field settings, the
// active field resolver and the activation/deletion rules.
package customfield

import (
	"fmt"
	"strconv"
	"strings"
)

// EntityKind names one of the collection entities that carry custom slots.
type EntityKind string

const (
	KindCard EntityKind = "card"
	KindDeck EntityKind = "deck"
	KindPack EntityKind = "pack"
)

// Kinds lists every entity kind in a stable order.
var Kinds = []EntityKind{KindCard, KindDeck, KindPack}

// ParseKind accepts the singular or plural lower-case kind name ("card", "cards").
func ParseKind(s string) (EntityKind, error) {
	k := EntityKind(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s"))
	switch k {
	case KindCard, KindDeck, KindPack:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// ValueType is the storage type of a slot.
type ValueType string

const (
	TypeBool ValueType = "bool"
	TypeNum  ValueType = "num"
	TypeStr  ValueType = "str"
)

// ValueTypes is the type-major order used by the slot universe.
var ValueTypes = []ValueType{TypeBool, TypeNum, TypeStr}

// ParseValueType validates a value type name.
func ParseValueType(s string) (ValueType, error) {
	switch vt := ValueType(strings.ToLower(strings.TrimSpace(s))); vt {
	case TypeBool, TypeNum, TypeStr:
		return vt, nil
	}
	return "", fmt.Errorf("%w: value type %q", ErrUnknownSlot, s)
}

// Label is the human name of the value type, used for default display names.
func (vt ValueType) Label() string {
	switch vt {
	case TypeBool:
		return "Checkbox"
	case TypeNum:
		return "Number"
	default:
		return "Text"
	}
}

// SlotsPerType is the number of indices available for each value type.
const SlotsPerType = 10

// Slot addresses one custom attribute position of an entity kind.
type Slot struct {
	Kind  EntityKind `json:"kind"`
	Type  ValueType  `json:"type"`
	Index int        `json:"index"`
}

// NewSlot validates its arguments and returns the slot.
func NewSlot(kind EntityKind, vt ValueType, index int) (Slot, error) {
	k, err := ParseKind(string(kind))
	if err != nil {
		return Slot{}, err
	}
	t, err := ParseValueType(string(vt))
	if err != nil {
		return Slot{}, err
	}
	if index < 1 || index > SlotsPerType {
		return Slot{}, fmt.Errorf("%w: index %d out of range 1..%d", ErrUnknownSlot, index, SlotsPerType)
	}
	return Slot{Kind: k, Type: t, Index: index}, nil
}

// Key is the attribute name of the slot on an entity instance, e.g. "custom_3_num".
func (s Slot) Key() string {
	return "custom_" + strconv.Itoa(s.Index) + "_" + string(s.Type)
}

// SettingKey is the name of the slot inside a kind's settings, e.g. "num_3".
func (s Slot) SettingKey() string {
	return string(s.Type) + "_" + strconv.Itoa(s.Index)
}

func (s Slot) String() string { return string(s.Kind) + "." + s.Key() }

// ParseKey parses an attribute name of the form custom_<index>_<type>.
func ParseKey(kind EntityKind, key string) (Slot, error) {
	rest, ok := strings.CutPrefix(key, "custom_")
	if !ok {
		return Slot{}, fmt.Errorf("%w: %q", ErrUnknownSlot, key)
	}
	idx, vt, ok := strings.Cut(rest, "_")
	if !ok {
		return Slot{}, fmt.Errorf("%w: %q", ErrUnknownSlot, key)
	}
	n, err := strconv.Atoi(idx)
	if err != nil {
		return Slot{}, fmt.Errorf("%w: %q", ErrUnknownSlot, key)
	}
	slot, err := NewSlot(kind, ValueType(vt), n)
	if err != nil {
		return Slot{}, err
	}
	// "custom_03_num" and "custom_+3_num" would alias custom_3_num
	if slot.Key() != key {
		return Slot{}, fmt.Errorf("%w: %q is not canonical", ErrUnknownSlot, key)
	}
	return slot, nil
}

// ParseSettingKey parses a settings key of the form <type>_<index>.
func ParseSettingKey(kind EntityKind, key string) (Slot, error) {
	vt, idx, ok := strings.Cut(key, "_")
	if !ok {
		return Slot{}, fmt.Errorf("%w: setting %q", ErrUnknownSlot, key)
	}
	n, err := strconv.Atoi(idx)
	if err != nil {
		return Slot{}, fmt.Errorf("%w: setting %q", ErrUnknownSlot, key)
	}
	slot, err := NewSlot(kind, ValueType(vt), n)
	if err != nil {
		return Slot{}, err
	}
	if slot.SettingKey() != key {
		return Slot{}, fmt.Errorf("%w: setting %q is not canonical", ErrUnknownSlot, key)
	}
	return slot, nil
}

// IsSlotKey reports whether key names a custom slot attribute.
func IsSlotKey(key string) bool {
	_, err := ParseKey(KindCard, key)
	return err == nil
}

// Universe returns all slots of kind, type-major then index ascending.
func Universe(kind EntityKind) []Slot {
	out := make([]Slot, 0, len(ValueTypes)*SlotsPerType)
	for _, vt := range ValueTypes {
		for i := 1; i <= SlotsPerType; i++ {
			out = append(out, Slot{Kind: kind, Type: vt, Index: i})
		}
	}
	return out
}
