// Package catalog defines the collection entities (cards, decks, packs) and the
// shallow patch merge shared by single and bulk edits.
package catalog

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"cardvault-api/internal/customfield"
)

var (
	ErrUnknownField = errors.New("catalog: unknown field")
	ErrInvalidField = errors.New("catalog: invalid field value")
)

// Field names accepted by ApplyPatch besides the custom slot keys.
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldSeries      = "series"
	FieldTags        = "tags"
	FieldIsFavorite  = "isFavorite"
	FieldRarity      = "rarity"
	FieldQuantity    = "quantity"
	FieldFormat      = "format"
	FieldReleaseDate = "releaseDate"
)

var commonFields = []string{FieldName, FieldDescription, FieldSeries, FieldTags, FieldIsFavorite}

var kindFields = map[customfield.EntityKind][]string{
	customfield.KindCard: {FieldRarity, FieldQuantity},
	customfield.KindDeck: {FieldFormat},
	customfield.KindPack: {FieldReleaseDate},
}

var fieldLabels = map[string]string{
	FieldName:        "Name",
	FieldDescription: "Description",
	FieldSeries:      "Series",
	FieldTags:        "Tags",
	FieldIsFavorite:  "Favorite",
	FieldRarity:      "Rarity",
	FieldQuantity:    "Quantity",
	FieldFormat:      "Format",
	FieldReleaseDate: "Release date",
}

// Fields returns the ordinary (non-slot) fields of kind.
func Fields(kind customfield.EntityKind) []string {
	return append(append([]string{}, commonFields...), kindFields[kind]...)
}

// FieldLabel returns the display label of an ordinary field, "" if unknown.
func FieldLabel(field string) string { return fieldLabels[field] }

// Entity is a card, deck or pack owned by one user.
type Entity struct {
	ID          uuid.UUID               `json:"id"`
	OwnerID     uuid.UUID               `json:"ownerId"`
	Kind        customfield.EntityKind  `json:"kind"`
	Name        string                  `json:"name"`
	Description string                  `json:"description"`
	Series      string                  `json:"series"`
	Tags        []string                `json:"tags"`
	IsFavorite  bool                    `json:"isFavorite"`
	Rarity      string                  `json:"rarity,omitempty"`
	Quantity    int                     `json:"quantity,omitempty"`
	Format      string                  `json:"format,omitempty"`
	ReleaseDate string                  `json:"releaseDate,omitempty"`
	Custom      customfield.Values      `json:"custom"`
	Extra       customfield.ExtraFields `json:"extra"`
	CreatedAt   time.Time               `json:"createdAt"`
	UpdatedAt   time.Time               `json:"updatedAt"`
}

// New returns an entity of kind with a fresh id.
func New(owner uuid.UUID, kind customfield.EntityKind, name string) *Entity {
	now := time.Now().UTC()
	return &Entity{
		ID:        uuid.New(),
		OwnerID:   owner,
		Kind:      kind,
		Name:      name,
		Tags:      []string{},
		Custom:    customfield.Values{},
		Extra:     customfield.ExtraFields{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy.
func (e *Entity) Clone() *Entity {
	out := *e
	out.Tags = append([]string{}, e.Tags...)
	out.Custom = e.Custom.Clone()
	if out.Custom == nil {
		out.Custom = customfield.Values{}
	}
	out.Extra = append(customfield.ExtraFields{}, e.Extra...)
	return &out
}

// Validate checks the invariants a stored entity must hold.
func (e *Entity) Validate() error {
	if _, err := customfield.ParseKind(string(e.Kind)); err != nil {
		return err
	}
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("%w: name required", ErrInvalidField)
	}
	if e.Quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", ErrInvalidField)
	}
	for k := range e.Custom {
		if _, err := customfield.ParseKey(e.Kind, k); err != nil {
			return err
		}
	}
	return nil
}

// ApplyPatch merges patch into e. Either every key is applied or, on error, none.
func (e *Entity) ApplyPatch(patch map[string]any) error {
	next := e.Clone()
	for k, v := range patch {
		if err := next.set(k, v); err != nil {
			return err
		}
	}
	if err := next.Validate(); err != nil {
		return err
	}
	next.UpdatedAt = time.Now().UTC()
	*e = *next
	return nil
}

func (e *Entity) set(key string, value any) error {
	if customfield.IsSlotKey(key) {
		slot, err := customfield.ParseKey(e.Kind, key)
		if err != nil {
			return err
		}
		v, err := customfield.Normalize(slot.Type, value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if e.Custom == nil {
			e.Custom = customfield.Values{}
		}
		e.Custom[slot.Key()] = v
		return nil
	}
	if !lo.Contains(Fields(e.Kind), key) {
		return fmt.Errorf("%w: %s on %s", ErrUnknownField, key, e.Kind)
	}

	switch key {
	case FieldName:
		return setString(&e.Name, key, value)
	case FieldDescription:
		return setString(&e.Description, key, value)
	case FieldSeries:
		return setString(&e.Series, key, value)
	case FieldRarity:
		return setString(&e.Rarity, key, value)
	case FieldFormat:
		return setString(&e.Format, key, value)
	case FieldReleaseDate:
		var s string
		if err := setString(&s, key, value); err != nil {
			return err
		}
		if s != "" {
			if _, err := time.Parse(time.DateOnly, s); err != nil {
				return fmt.Errorf("%w: %s must be YYYY-MM-DD", ErrInvalidField, key)
			}
		}
		e.ReleaseDate = s
	case FieldIsFavorite:
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("%w: %s expects a boolean", ErrInvalidField, key)
		}
		e.IsFavorite = b
	case FieldQuantity:
		n, ok := toInt(value)
		if !ok {
			return fmt.Errorf("%w: %s expects an integer", ErrInvalidField, key)
		}
		e.Quantity = n
	case FieldTags:
		tags, ok := toStrings(value)
		if !ok {
			return fmt.Errorf("%w: %s expects a list of strings", ErrInvalidField, key)
		}
		e.Tags = lo.Uniq(lo.Compact(lo.Map(tags, func(s string, _ int) string { return strings.TrimSpace(s) })))
	}
	return nil
}

func setString(dst *string, key string, value any) error {
	switch v := value.(type) {
	case nil:
		*dst = ""
	case string:
		*dst = v
	default:
		return fmt.Errorf("%w: %s expects a string", ErrInvalidField, key)
	}
	return nil
}

func toInt(value any) (int, bool) {
	switch n := value.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}

func toStrings(value any) ([]string, bool) {
	switch v := value.(type) {
	case nil:
		return []string{}, true
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, x := range v {
			s, ok := x.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}
