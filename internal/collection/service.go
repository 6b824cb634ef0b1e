// Package collection implements the collection use cases on top of the
// custom-field engine: entity CRUD, field resolution, slot activation, legacy
// value deletion, schema settings and bulk edits.
package collection

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"cardvault-api/internal/catalog"
	"cardvault-api/internal/customfield"
	"cardvault-api/internal/esx"
	"cardvault-api/internal/logx"
	"cardvault-api/internal/metrics"
	"cardvault-api/internal/mqx"
	"cardvault-api/internal/store"
)

var svcLogger = logx.GetScope("collection")

// ErrEmptySelection is returned by BulkEdit when changes target no entity.
var ErrEmptySelection = errors.New("collection: no entities selected")

// Indexer keeps the search index in sync. *esx.Client implements it.
type Indexer interface {
	IndexEntity(ctx context.Context, doc esx.EntityDoc) error
	DeleteEntity(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, owner uuid.UUID, kind, query string, from, size int) (esx.SearchResult, error)
}

// Service is safe for concurrent use.
type Service struct {
	repo    store.Repository
	events  mqx.Publisher
	index   Indexer
	metrics *metrics.Registry
	lang    atomic.Pointer[language.Tag]
}

// Option configures a Service.
type Option func(*Service)

func WithPublisher(p mqx.Publisher) Option { return func(s *Service) { s.events = p } }

func WithIndexer(i Indexer) Option { return func(s *Service) { s.index = i } }

func WithMetrics(m *metrics.Registry) Option { return func(s *Service) { s.metrics = m } }

// WithCollation sets the language used to order resolved fields.
func WithCollation(tag language.Tag) Option {
	return func(s *Service) { s.lang.Store(&tag) }
}

func New(repo store.Repository, opts ...Option) *Service {
	s := &Service{repo: repo}
	und := language.Und
	s.lang.Store(&und)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetCollation parses a BCP 47 tag and uses it for subsequent resolutions.
func (s *Service) SetCollation(tag string) error {
	t, err := language.Parse(tag)
	if err != nil {
		return fmt.Errorf("collection: collation %q: %w", tag, err)
	}
	s.lang.Store(&t)
	return nil
}

func (s *Service) collation() language.Tag { return *s.lang.Load() }

// SlotSetting is one row of the schema registry of a kind.
type SlotSetting struct {
	customfield.Slot
	Key        string                   `json:"key"`
	SettingKey string                   `json:"settingKey"`
	Setting    customfield.FieldSetting `json:"setting"`
}

// Schema lists the settings of every slot of kind in universe order.
func (s *Service) Schema(ctx context.Context, owner uuid.UUID, kind customfield.EntityKind) ([]SlotSetting, error) {
	settings, err := s.repo.LoadSettings(ctx, owner, kind)
	if err != nil {
		return nil, err
	}
	universe := customfield.Universe(kind)
	out := make([]SlotSetting, 0, len(universe))
	for _, slot := range universe {
		out = append(out, SlotSetting{Slot: slot, Key: slot.Key(), SettingKey: slot.SettingKey(), Setting: settings.Get(slot)})
	}
	return out, nil
}

// UpdateSetting merges patch into one slot setting and persists the result.
func (s *Service) UpdateSetting(ctx context.Context, owner uuid.UUID, kind customfield.EntityKind, vt customfield.ValueType, index int, patch customfield.SettingPatch) (customfield.FieldSetting, error) {
	settings, err := s.repo.LoadSettings(ctx, owner, kind)
	if err != nil {
		return customfield.FieldSetting{}, err
	}
	r := customfield.NewRegistry()
	r.Replace(kind, settings)
	next, err := r.UpdateSetting(kind, vt, index, patch)
	if err != nil {
		return customfield.FieldSetting{}, err
	}
	if patch.IsZero() {
		return next, nil
	}
	slot, _ := customfield.NewSlot(kind, vt, index)
	if err := s.repo.SaveSetting(ctx, owner, slot, next); err != nil {
		return customfield.FieldSetting{}, err
	}
	s.metrics.SettingUpdated(string(kind))
	mqx.Emit(ctx, s.events, mqx.NewEvent(mqx.EventFieldSettingUpdated, owner, string(kind), map[string]any{
		"slot": slot, "setting": next,
	}))
	return next, nil
}

func (s *Service) entity(ctx context.Context, owner uuid.UUID, kind customfield.EntityKind, id uuid.UUID) (*catalog.Entity, error) {
	e, err := s.repo.GetEntity(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if e.Kind != kind {
		return nil, fmt.Errorf("%w: %s %s", store.ErrNotFound, kind, id)
	}
	return e, nil
}

// Resolve computes the rendered and available custom fields of one entity.
func (s *Service) Resolve(ctx context.Context, owner uuid.UUID, kind customfield.EntityKind, id uuid.UUID, readOnly bool) (customfield.Resolution, error) {
	e, err := s.entity(ctx, owner, kind, id)
	if err != nil {
		return customfield.Resolution{}, err
	}
	settings, err := s.repo.LoadSettings(ctx, owner, kind)
	if err != nil {
		return customfield.Resolution{}, err
	}
	s.metrics.Resolved(string(kind), readOnly)
	return customfield.Resolve(kind, settings, e.Custom, readOnly, customfield.WithLanguage(s.collation())), nil
}

// ActivateResult reports whether a slot was activated and the entity's fields afterwards.
type ActivateResult struct {
	Activated  bool                   `json:"activated"`
	Slot       customfield.Slot       `json:"slot"`
	Resolution customfield.Resolution `json:"resolution"`
}

// Activate puts an available slot into use: the setting is enabled and the
// entity receives the slot's activation value. Slots that are not currently
// available are left untouched and reported with Activated false.
func (s *Service) Activate(ctx context.Context, owner uuid.UUID, kind customfield.EntityKind, id uuid.UUID, vt customfield.ValueType, index int) (ActivateResult, error) {
	act, err := customfield.Activate(kind, vt, index)
	if err != nil {
		return ActivateResult{}, err
	}
	e, err := s.entity(ctx, owner, kind, id)
	if err != nil {
		return ActivateResult{}, err
	}
	settings, err := s.repo.LoadSettings(ctx, owner, kind)
	if err != nil {
		return ActivateResult{}, err
	}
	opt := customfield.WithLanguage(s.collation())
	before := customfield.Resolve(kind, settings, e.Custom, false, opt)
	if !before.IsAvailable(act.Slot) {
		return ActivateResult{Slot: act.Slot, Resolution: before}, nil
	}

	setting := settings.Update(act.Slot, act.SettingPatch)
	if err := e.ApplyPatch(act.EntityPatch); err != nil {
		return ActivateResult{}, err
	}
	if err := s.repo.SaveSetting(ctx, owner, act.Slot, setting); err != nil {
		return ActivateResult{}, err
	}
	if err := s.repo.UpdateEntity(ctx, e); err != nil {
		return ActivateResult{}, err
	}

	s.metrics.FieldActivated(string(kind), string(vt))
	mqx.Emit(ctx, s.events, mqx.NewEvent(mqx.EventFieldActivated, owner, string(kind), map[string]any{
		"entity_id": e.ID, "slot": act.Slot, "setting": setting,
	}))
	s.reindex(ctx, e, settings)
	return ActivateResult{
		Activated:  true,
		Slot:       act.Slot,
		Resolution: customfield.Resolve(kind, settings, e.Custom, false, opt),
	}, nil
}

// DeleteValue clears the value of a disabled slot on one entity. Enabled
// slots are refused with customfield.ErrGuardRejected.
func (s *Service) DeleteValue(ctx context.Context, owner uuid.UUID, kind customfield.EntityKind, id uuid.UUID, vt customfield.ValueType, index int) (customfield.Resolution, error) {
	e, err := s.entity(ctx, owner, kind, id)
	if err != nil {
		return customfield.Resolution{}, err
	}
	settings, err := s.repo.LoadSettings(ctx, owner, kind)
	if err != nil {
		return customfield.Resolution{}, err
	}
	patch, err := customfield.DeleteValue(kind, vt, index, settings)
	if err != nil {
		if errors.Is(err, customfield.ErrGuardRejected) {
			s.metrics.ValueDeleted(string(kind), true)
		}
		return customfield.Resolution{}, err
	}
	if err := e.ApplyPatch(patch); err != nil {
		return customfield.Resolution{}, err
	}
	if err := s.repo.UpdateEntity(ctx, e); err != nil {
		return customfield.Resolution{}, err
	}
	s.metrics.ValueDeleted(string(kind), false)
	mqx.Emit(ctx, s.events, mqx.NewEvent(mqx.EventFieldValueDeleted, owner, string(kind), map[string]any{
		"entity_id": e.ID, "patch": patch,
	}))
	s.reindex(ctx, e, settings)
	return customfield.Resolve(kind, settings, e.Custom, false, customfield.WithLanguage(s.collation())), nil
}

// reindex pushes e to the search index; failures are logged.
func (s *Service) reindex(ctx context.Context, e *catalog.Entity, settings customfield.Settings) {
	if s.index == nil {
		return
	}
	if settings == nil {
		var err error
		if settings, err = s.repo.LoadSettings(ctx, e.OwnerID, e.Kind); err != nil {
			svcLogger.Sugar().Warnf("reindex %s: load settings: %v", e.ID, err)
			return
		}
	}
	if err := s.index.IndexEntity(ctx, Document(e, settings)); err != nil {
		svcLogger.Sugar().Warnf("reindex %s: %v", e.ID, err)
	}
}
