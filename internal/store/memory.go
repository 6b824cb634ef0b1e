package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"cardvault-api/internal/bulk"
	"cardvault-api/internal/catalog"
	"cardvault-api/internal/customfield"
)

type settingsKey struct {
	owner uuid.UUID
	kind  customfield.EntityKind
}

// MemoryStore is a Repository kept in process memory. Used by tests and by
// the CLI's dry runs.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]*User
	entities map[uuid.UUID]*catalog.Entity
	settings map[settingsKey]customfield.Settings
}

var _ Repository = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    map[uuid.UUID]*User{},
		entities: map[uuid.UUID]*catalog.Entity{},
		settings: map[settingsKey]customfield.Settings{},
	}
}

func (m *MemoryStore) CreateEntity(_ context.Context, e *catalog.Entity) error {
	if err := e.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entities[e.ID]; ok {
		return fmt.Errorf("%w: entity %s exists", ErrConflict, e.ID)
	}
	m.entities[e.ID] = e.Clone()
	return nil
}

func (m *MemoryStore) GetEntity(_ context.Context, owner, id uuid.UUID) (*catalog.Entity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entities[id]
	if !ok || e.OwnerID != owner {
		return nil, ErrNotFound
	}
	return e.Clone(), nil
}

func (m *MemoryStore) ListEntities(_ context.Context, owner uuid.UUID, f ListFilter) ([]*catalog.Entity, int, error) {
	m.mu.RLock()
	q := strings.ToLower(strings.TrimSpace(f.Query))
	matches := lo.Filter(lo.Values(m.entities), func(e *catalog.Entity, _ int) bool {
		if e.OwnerID != owner || (f.Kind != "" && e.Kind != f.Kind) {
			return false
		}
		if f.Favorite != nil && e.IsFavorite != *f.Favorite {
			return false
		}
		if q != "" && !strings.Contains(strings.ToLower(e.Name), q) && !strings.Contains(strings.ToLower(e.Series), q) {
			return false
		}
		return true
	})
	matches = lo.Map(matches, func(e *catalog.Entity, _ int) *catalog.Entity { return e.Clone() })
	m.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
		return matches[i].ID.String() > matches[j].ID.String()
	})
	total := len(matches)
	page := lo.Drop(matches, f.Offset)
	if f.Limit > 0 && len(page) > f.Limit {
		page = page[:f.Limit]
	}
	return page, total, nil
}

func (m *MemoryStore) UpdateEntity(_ context.Context, e *catalog.Entity) error {
	if err := e.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.entities[e.ID]
	if !ok || cur.OwnerID != e.OwnerID {
		return ErrNotFound
	}
	m.entities[e.ID] = e.Clone()
	return nil
}

func (m *MemoryStore) DeleteEntity(_ context.Context, owner, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entities[id]
	if !ok || e.OwnerID != owner {
		return ErrNotFound
	}
	delete(m.entities, id)
	return nil
}

func (m *MemoryStore) PatchEntities(_ context.Context, owner uuid.UUID, kind customfield.EntityKind, ids []uuid.UUID, patch bulk.Patch) ([]*catalog.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current := make([]*catalog.Entity, 0, len(ids))
	for _, id := range lo.Uniq(ids) {
		e, ok := m.entities[id]
		if !ok || e.OwnerID != owner || e.Kind != kind {
			return nil, fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
		}
		current = append(current, e)
	}
	next, err := patchAll(current, patch)
	if err != nil {
		return nil, err
	}
	for _, e := range next {
		m.entities[e.ID] = e.Clone()
	}
	return next, nil
}

func (m *MemoryStore) LoadSettings(_ context.Context, owner uuid.UUID, kind customfield.EntityKind) (customfield.Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return mergeSettings(kind, m.settings[settingsKey{owner, kind}]), nil
}

func (m *MemoryStore) SaveSetting(_ context.Context, owner uuid.UUID, slot customfield.Slot, s customfield.FieldSetting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := settingsKey{owner, slot.Kind}
	if m.settings[k] == nil {
		m.settings[k] = customfield.Settings{}
	}
	m.settings[k][slot.SettingKey()] = s
	return nil
}

func (m *MemoryStore) CreateUser(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := lo.Find(lo.Values(m.users), func(x *User) bool { return x.Identifier == u.Identifier }); taken {
		return fmt.Errorf("%w: identifier %q", ErrConflict, u.Identifier)
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *MemoryStore) UserByIdentifier(_ context.Context, identifier string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := lo.Find(lo.Values(m.users), func(x *User) bool { return x.Identifier == identifier })
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryStore) UserByID(_ context.Context, id uuid.UUID) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}
