package customfield

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// ActiveField is one slot rendered for an entity.
type ActiveField struct {
	Slot     Slot         `json:"slot"`
	Key      string       `json:"key"`
	Setting  FieldSetting `json:"setting"`
	Value    any          `json:"value"`
	HasValue bool         `json:"hasValue"`
}

// Resolution is the result of resolving the custom fields of an entity.
type Resolution struct {
	// Active is the render list, ordered by display name.
	Active []ActiveField `json:"active"`
	// Available are the slots that are disabled and not rendered, in universe order.
	Available []Slot `json:"available"`
}

// IsAvailable reports whether slot can be offered for activation.
func (r Resolution) IsAvailable(slot Slot) bool {
	for _, s := range r.Available {
		if s == slot {
			return true
		}
	}
	return false
}

// Included decides whether a slot is rendered. Edit mode shows enabled slots
// and any slot holding data; read-only mode shows only slots holding data.
func Included(isEnabled, hasValue, readOnly bool) bool {
	if readOnly {
		return hasValue
	}
	return isEnabled || hasValue
}

type resolveOptions struct {
	lang language.Tag
}

// ResolveOption configures Resolve.
type ResolveOption func(*resolveOptions)

// WithLanguage sets the collation language used to order display names.
func WithLanguage(tag language.Tag) ResolveOption {
	return func(o *resolveOptions) { o.lang = tag }
}

// Resolve computes the rendered and available slots of one entity instance.
func Resolve(kind EntityKind, settings Settings, values Values, readOnly bool, opts ...ResolveOption) Resolution {
	o := resolveOptions{lang: language.Und}
	for _, opt := range opts {
		opt(&o)
	}

	res := Resolution{Active: []ActiveField{}, Available: []Slot{}}
	for _, slot := range Universe(kind) {
		setting := settings.Get(slot)
		value := values.Get(slot)
		has := HasValue(slot.Type, value)
		if Included(setting.IsEnabled, has, readOnly) {
			res.Active = append(res.Active, ActiveField{
				Slot:     slot,
				Key:      slot.Key(),
				Setting:  setting,
				Value:    value,
				HasValue: has,
			})
			continue
		}
		if !setting.IsEnabled {
			res.Available = append(res.Available, slot)
		}
	}

	col := collate.New(o.lang)
	sort.SliceStable(res.Active, func(i, j int) bool {
		return col.CompareString(res.Active[i].Setting.DisplayName, res.Active[j].Setting.DisplayName) < 0
	})
	return res
}
