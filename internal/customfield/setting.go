package customfield

import (
	"strconv"

	"github.com/samber/lo"
)

// FieldSetting is the schema-level configuration of one slot, shared by every
// instance of the slot's entity kind.
type FieldSetting struct {
	DisplayName string `json:"displayName"`
	IsEnabled   bool   `json:"isEnabled"`
	Description string `json:"description,omitempty"`
}

// SettingPatch is a partial FieldSetting. Nil members are left unchanged.
type SettingPatch struct {
	DisplayName *string `json:"displayName,omitempty"`
	IsEnabled   *bool   `json:"isEnabled,omitempty"`
	Description *string `json:"description,omitempty"`
}

// IsZero reports whether the patch changes nothing.
func (p SettingPatch) IsZero() bool {
	return p.DisplayName == nil && p.IsEnabled == nil && p.Description == nil
}

// Merge returns s with the members present in p applied.
func (s FieldSetting) Merge(p SettingPatch) FieldSetting {
	if p.DisplayName != nil {
		s.DisplayName = *p.DisplayName
	}
	if p.IsEnabled != nil {
		s.IsEnabled = *p.IsEnabled
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	return s
}

// DefaultSetting is the setting a slot starts with: disabled, named after its
// value type and index.
func DefaultSetting(slot Slot) FieldSetting {
	return FieldSetting{DisplayName: slot.Type.Label() + " " + strconv.Itoa(slot.Index)}
}

// Settings holds the field settings of one entity kind, keyed by Slot.SettingKey.
type Settings map[string]FieldSetting

// DefaultSettings returns the initial settings for every slot of kind.
func DefaultSettings(kind EntityKind) Settings {
	return lo.SliceToMap(Universe(kind), func(s Slot) (string, FieldSetting) {
		return s.SettingKey(), DefaultSetting(s)
	})
}

// Get returns the setting of slot. A slot missing from the map has its default setting.
func (s Settings) Get(slot Slot) FieldSetting {
	if fs, ok := s[slot.SettingKey()]; ok {
		return fs
	}
	return DefaultSetting(slot)
}

// Clone returns an independent copy.
func (s Settings) Clone() Settings {
	out := make(Settings, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Update merges patch into the setting of slot and returns the new setting.
// Enablement only changes when the patch carries IsEnabled.
func (s Settings) Update(slot Slot, patch SettingPatch) FieldSetting {
	next := s.Get(slot).Merge(patch)
	s[slot.SettingKey()] = next
	return next
}

// Label returns the display name for an attribute key, or "" when key is not a slot of kind.
func (s Settings) Label(kind EntityKind, key string) string {
	slot, err := ParseKey(kind, key)
	if err != nil {
		return ""
	}
	return s.Get(slot).DisplayName
}

// Registry maps every entity kind to its settings. It is plain data owned by
// the caller; nothing in this package keeps a registry globally.
type Registry struct {
	kinds map[EntityKind]Settings
}

// NewRegistry returns a registry with default settings for every kind.
func NewRegistry() *Registry {
	r := &Registry{kinds: make(map[EntityKind]Settings, len(Kinds))}
	for _, k := range Kinds {
		r.kinds[k] = DefaultSettings(k)
	}
	return r
}

// Settings returns the live settings of kind.
func (r *Registry) Settings(kind EntityKind) Settings {
	s, ok := r.kinds[kind]
	if !ok {
		s = DefaultSettings(kind)
		r.kinds[kind] = s
	}
	return s
}

// Replace swaps the settings of kind, filling in defaults for missing slots.
func (r *Registry) Replace(kind EntityKind, s Settings) {
	next := DefaultSettings(kind)
	for k, v := range s {
		if _, err := ParseSettingKey(kind, k); err == nil {
			next[k] = v
		}
	}
	r.kinds[kind] = next
}

// Setting returns the setting of slot.
func (r *Registry) Setting(slot Slot) FieldSetting {
	return r.Settings(slot.Kind).Get(slot)
}

// UpdateSetting merges patch into the setting addressed by kind, vt and index.
func (r *Registry) UpdateSetting(kind EntityKind, vt ValueType, index int, patch SettingPatch) (FieldSetting, error) {
	slot, err := NewSlot(kind, vt, index)
	if err != nil {
		return FieldSetting{}, err
	}
	return r.Settings(kind).Update(slot, patch), nil
}
