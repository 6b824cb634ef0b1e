package collection

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"cardvault-api/internal/bulk"
	"cardvault-api/internal/catalog"
	"cardvault-api/internal/customfield"
	"cardvault-api/internal/metrics"
	"cardvault-api/internal/mqx"
)

// FieldEdit is one tracked edit of a bulk request.
type FieldEdit struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

// BulkRequest replays an edit session: edits are tracked in order, then the
// fields in Remove are discarded again.
type BulkRequest struct {
	IDs      []uuid.UUID   `json:"ids"`
	Edits    []FieldEdit   `json:"edits"`
	Remove   []string      `json:"remove"`
	Favorite bulk.TriState `json:"favorite"`
}

// BulkResult reports how many entities were patched and with which fields.
type BulkResult struct {
	Applied int                 `json:"applied"`
	Fields  []bulk.ChangedField `json:"fields"`
}

// Tracker returns an empty tracker for kind, labelling slot keys with the
// owner's display names and ordinary fields with their catalog labels.
func (s *Service) Tracker(ctx context.Context, owner uuid.UUID, kind customfield.EntityKind) (*bulk.Tracker, error) {
	settings, err := s.repo.LoadSettings(ctx, owner, kind)
	if err != nil {
		return nil, err
	}
	return bulk.NewTracker(
		bulk.WithTriState(catalog.FieldIsFavorite),
		bulk.WithLabeler(func(key string) string {
			if l := settings.Label(kind, key); l != "" {
				return l
			}
			return catalog.FieldLabel(key)
		}),
	), nil
}

// BulkEdit applies the changed fields of req to every selected entity, all or
// nothing. A request without changed fields completes with Applied 0 and
// nothing is written.
func (s *Service) BulkEdit(ctx context.Context, owner uuid.UUID, kind customfield.EntityKind, req BulkRequest) (BulkResult, error) {
	t, err := s.Tracker(ctx, owner, kind)
	if err != nil {
		return BulkResult{}, err
	}
	// favorite, then edits, then removals: a later step overrides an earlier one
	if req.Favorite.IsSet() {
		if err := t.SetTriState(catalog.FieldIsFavorite, req.Favorite); err != nil {
			return BulkResult{}, err
		}
	}
	for _, edit := range req.Edits {
		if err := t.Track(edit.Field, edit.Value); err != nil {
			return BulkResult{}, err
		}
	}
	for _, f := range req.Remove {
		t.Remove(f)
	}

	patch, err := t.Patch()
	if errors.Is(err, bulk.ErrNoChanges) {
		s.metrics.BulkPatch(string(kind), metrics.OutcomeNoop, 0)
		return BulkResult{Applied: 0, Fields: []bulk.ChangedField{}}, nil
	}
	if err != nil {
		return BulkResult{}, err
	}
	ids := lo.Uniq(req.IDs)
	if len(ids) == 0 {
		return BulkResult{}, ErrEmptySelection
	}

	patched, err := s.repo.PatchEntities(ctx, owner, kind, ids, patch)
	if err != nil {
		s.metrics.BulkPatch(string(kind), metrics.OutcomeFailed, 0)
		return BulkResult{}, err
	}
	changed := t.ChangedFields()
	s.metrics.BulkPatch(string(kind), metrics.OutcomeApplied, len(patched))
	mqx.Emit(ctx, s.events, mqx.NewEvent(mqx.EventEntitiesBulkPatched, owner, string(kind), map[string]any{
		"ids": ids, "fields": patch.Keys(),
	}))
	if s.index != nil {
		settings, err := s.repo.LoadSettings(ctx, owner, kind)
		if err == nil {
			for _, e := range patched {
				s.reindex(ctx, e, settings)
			}
		}
	}
	return BulkResult{Applied: len(patched), Fields: changed}, nil
}
