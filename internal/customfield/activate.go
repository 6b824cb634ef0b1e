package customfield

import "fmt"

// EntityPatch is a set of attribute assignments for one entity instance.
type EntityPatch map[string]any

// Activation describes the two writes that put a slot into use.
type Activation struct {
	Slot         Slot         `json:"slot"`
	EntityPatch  EntityPatch  `json:"entityPatch"`
	SettingPatch SettingPatch `json:"settingPatch"`
}

// Activate returns the entity and setting patches that activate a slot. The
// caller applies both and is expected to only offer slots from Resolution.Available.
func Activate(kind EntityKind, vt ValueType, index int) (Activation, error) {
	slot, err := NewSlot(kind, vt, index)
	if err != nil {
		return Activation{}, err
	}
	enabled := true
	return Activation{
		Slot:         slot,
		EntityPatch:  EntityPatch{slot.Key(): ActivatedValue(vt)},
		SettingPatch: SettingPatch{IsEnabled: &enabled},
	}, nil
}

// DeleteValue returns the patch that clears the value of a disabled slot.
// Enabled slots are refused with ErrGuardRejected; the settings are never changed.
func DeleteValue(kind EntityKind, vt ValueType, index int, settings Settings) (EntityPatch, error) {
	slot, err := NewSlot(kind, vt, index)
	if err != nil {
		return nil, err
	}
	if settings.Get(slot).IsEnabled {
		return nil, fmt.Errorf("%w: %s", ErrGuardRejected, slot.Key())
	}
	return EntityPatch{slot.Key(): EmptyValue(vt)}, nil
}
