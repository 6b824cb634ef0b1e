package collection

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"cardvault-api/internal/catalog"
	"cardvault-api/internal/customfield"
	"cardvault-api/internal/esx"
	"cardvault-api/internal/store"
)

// Create builds a new entity of kind from fields (ordinary fields and slot keys).
func (s *Service) Create(ctx context.Context, owner uuid.UUID, kind customfield.EntityKind, fields map[string]any) (*catalog.Entity, error) {
	e := catalog.New(owner, kind, "")
	if err := e.ApplyPatch(fields); err != nil {
		return nil, err
	}
	if err := s.repo.CreateEntity(ctx, e); err != nil {
		return nil, err
	}
	s.reindex(ctx, e, nil)
	return e, nil
}

// Get returns one entity of kind.
func (s *Service) Get(ctx context.Context, owner uuid.UUID, kind customfield.EntityKind, id uuid.UUID) (*catalog.Entity, error) {
	return s.entity(ctx, owner, kind, id)
}

// List returns a page of entities and the total count.
func (s *Service) List(ctx context.Context, owner uuid.UUID, f store.ListFilter) ([]*catalog.Entity, int, error) {
	return s.repo.ListEntities(ctx, owner, f)
}

// Update merges fields into one entity.
func (s *Service) Update(ctx context.Context, owner uuid.UUID, kind customfield.EntityKind, id uuid.UUID, fields map[string]any) (*catalog.Entity, error) {
	e, err := s.entity(ctx, owner, kind, id)
	if err != nil {
		return nil, err
	}
	if err := e.ApplyPatch(fields); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateEntity(ctx, e); err != nil {
		return nil, err
	}
	s.reindex(ctx, e, nil)
	return e, nil
}

// Delete removes one entity.
func (s *Service) Delete(ctx context.Context, owner uuid.UUID, kind customfield.EntityKind, id uuid.UUID) error {
	if _, err := s.entity(ctx, owner, kind, id); err != nil {
		return err
	}
	if err := s.repo.DeleteEntity(ctx, owner, id); err != nil {
		return err
	}
	if s.index != nil {
		if err := s.index.DeleteEntity(ctx, id); err != nil {
			svcLogger.Sugar().Warnf("unindex %s: %v", id, err)
		}
	}
	return nil
}

// AddExtra appends a free-text field. Empty and duplicate keys are refused
// with customfield.ErrValidationRejected.
func (s *Service) AddExtra(ctx context.Context, owner uuid.UUID, kind customfield.EntityKind, id uuid.UUID, key, value string) (*catalog.Entity, error) {
	e, err := s.entity(ctx, owner, kind, id)
	if err != nil {
		return nil, err
	}
	next, err := e.Extra.Add(key, value)
	if err != nil {
		return nil, err
	}
	e.Extra = next
	e.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateEntity(ctx, e); err != nil {
		return nil, err
	}
	s.reindex(ctx, e, nil)
	return e, nil
}

// RemoveExtra drops a free-text field; removing a missing key is a no-op.
func (s *Service) RemoveExtra(ctx context.Context, owner uuid.UUID, kind customfield.EntityKind, id uuid.UUID, key string) (*catalog.Entity, error) {
	e, err := s.entity(ctx, owner, kind, id)
	if err != nil {
		return nil, err
	}
	if !e.Extra.Has(key) {
		return e, nil
	}
	e.Extra = e.Extra.Remove(key)
	e.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateEntity(ctx, e); err != nil {
		return nil, err
	}
	s.reindex(ctx, e, nil)
	return e, nil
}

// Search queries the index; without an indexer it returns no hits.
func (s *Service) Search(ctx context.Context, owner uuid.UUID, kind customfield.EntityKind, query string, from, size int) (esx.SearchResult, error) {
	if s.index == nil {
		return esx.SearchResult{Hits: []esx.Hit{}}, nil
	}
	return s.index.Search(ctx, owner, string(kind), query, from, size)
}

// Document renders e for the search index. Only fields shown in read-only
// mode are indexed, labelled with their display name.
func Document(e *catalog.Entity, settings customfield.Settings) esx.EntityDoc {
	res := customfield.Resolve(e.Kind, settings, e.Custom, true)
	return esx.EntityDoc{
		ID:          e.ID,
		OwnerID:     e.OwnerID,
		Kind:        string(e.Kind),
		Name:        e.Name,
		Description: e.Description,
		Series:      e.Series,
		Tags:        e.Tags,
		IsFavorite:  e.IsFavorite,
		Custom: lo.Map(res.Active, func(f customfield.ActiveField, _ int) string {
			return f.Setting.DisplayName + ": " + formatValue(f.Value)
		}),
		Extra: lo.Map(e.Extra, func(x customfield.ExtraField, _ int) string {
			return x.Key + ": " + x.Value
		}),
		UpdatedAt: e.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func formatValue(v any) string {
	switch x := v.(type) {
	case bool:
		return lo.Ternary(x, "yes", "no")
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
