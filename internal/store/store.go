// Package store persists users, collection entities and per-owner field settings.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"cardvault-api/internal/bulk"
	"cardvault-api/internal/catalog"
	"cardvault-api/internal/customfield"
	"cardvault-api/internal/logx"
)

var storeLogger = logx.GetScope("store")

var (
	ErrNotFound = errors.New("store: not found")
	ErrConflict = errors.New("store: conflict")
)

// User is an account owning a collection.
type User struct {
	ID           uuid.UUID `json:"id"`
	Identifier   string    `json:"identifier"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// ListFilter narrows ListEntities. Zero values mean "no filter".
type ListFilter struct {
	Kind     customfield.EntityKind
	Query    string // substring of name or series, case-insensitive
	Favorite *bool
	Limit    int
	Offset   int
}

// EntityStore persists cards, decks and packs.
type EntityStore interface {
	CreateEntity(ctx context.Context, e *catalog.Entity) error
	GetEntity(ctx context.Context, owner, id uuid.UUID) (*catalog.Entity, error)
	// ListEntities returns one page and the total number of matches.
	ListEntities(ctx context.Context, owner uuid.UUID, f ListFilter) ([]*catalog.Entity, int, error)
	UpdateEntity(ctx context.Context, e *catalog.Entity) error
	DeleteEntity(ctx context.Context, owner, id uuid.UUID) error
	// PatchEntities applies patch to every listed entity of kind atomically:
	// either all are saved or none. A missing id fails the whole call with ErrNotFound.
	PatchEntities(ctx context.Context, owner uuid.UUID, kind customfield.EntityKind, ids []uuid.UUID, patch bulk.Patch) ([]*catalog.Entity, error)
}

// SettingStore persists the field settings of each owner and kind. Slots
// without a stored row have their default setting.
type SettingStore interface {
	LoadSettings(ctx context.Context, owner uuid.UUID, kind customfield.EntityKind) (customfield.Settings, error)
	SaveSetting(ctx context.Context, owner uuid.UUID, slot customfield.Slot, s customfield.FieldSetting) error
}

// UserStore persists accounts.
type UserStore interface {
	// CreateUser fails with ErrConflict when the identifier is taken.
	CreateUser(ctx context.Context, u *User) error
	UserByIdentifier(ctx context.Context, identifier string) (*User, error)
	UserByID(ctx context.Context, id uuid.UUID) (*User, error)
}

// Repository is everything the API needs from persistence.
type Repository interface {
	EntityStore
	SettingStore
	UserStore
}

// patchAll applies patch to clones of entities; the inputs are left untouched on error.
func patchAll(entities []*catalog.Entity, patch bulk.Patch) ([]*catalog.Entity, error) {
	next := make([]*catalog.Entity, len(entities))
	for i, e := range entities {
		next[i] = e.Clone()
	}
	if err := bulk.Apply(patch, next); err != nil {
		return nil, err
	}
	return next, nil
}

// mergeSettings overlays stored rows on the defaults of kind.
func mergeSettings(kind customfield.EntityKind, stored customfield.Settings) customfield.Settings {
	r := customfield.NewRegistry()
	r.Replace(kind, stored)
	return r.Settings(kind)
}
