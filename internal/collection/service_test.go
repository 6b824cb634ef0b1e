package collection

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardvault-api/internal/bulk"
	"cardvault-api/internal/catalog"
	"cardvault-api/internal/customfield"
	"cardvault-api/internal/esx"
	"cardvault-api/internal/metrics"
	"cardvault-api/internal/mqx"
	"cardvault-api/internal/store"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []mqx.Event
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, body []byte) error {
	var evt mqx.Event
	if err := json.Unmarshal(body, &evt); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return lo.Map(p.events, func(e mqx.Event, _ int) string { return e.Type })
}

type memoryIndex struct {
	mu   sync.Mutex
	docs map[uuid.UUID]esx.EntityDoc
}

func (m *memoryIndex) IndexEntity(_ context.Context, doc esx.EntityDoc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.ID] = doc
	return nil
}

func (m *memoryIndex) DeleteEntity(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	return nil
}

func (m *memoryIndex) Search(_ context.Context, owner uuid.UUID, kind, query string, _, _ int) (esx.SearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := esx.SearchResult{Hits: []esx.Hit{}}
	for _, d := range m.docs {
		if d.OwnerID == owner && (kind == "" || d.Kind == kind) && d.Name == query {
			out.Hits = append(out.Hits, esx.Hit{ID: d.ID, Kind: d.Kind, Name: d.Name})
		}
	}
	out.Total = len(out.Hits)
	return out, nil
}

type fixture struct {
	svc     *Service
	repo    *store.MemoryStore
	events  *recordingPublisher
	index   *memoryIndex
	metrics *metrics.Registry
	owner   uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:    store.NewMemoryStore(),
		events:  &recordingPublisher{},
		index:   &memoryIndex{docs: map[uuid.UUID]esx.EntityDoc{}},
		metrics: metrics.New(),
		owner:   uuid.New(),
	}
	f.svc = New(f.repo, WithPublisher(f.events), WithIndexer(f.index), WithMetrics(f.metrics))
	return f
}

func (f *fixture) create(t *testing.T, kind customfield.EntityKind, name string, fields map[string]any) *catalog.Entity {
	t.Helper()
	patch := map[string]any{"name": name}
	for k, v := range fields {
		patch[k] = v
	}
	e, err := f.svc.Create(context.Background(), f.owner, kind, patch)
	require.NoError(t, err)
	return e
}

func slot(t *testing.T, kind customfield.EntityKind, vt customfield.ValueType, index int) customfield.Slot {
	t.Helper()
	s, err := customfield.NewSlot(kind, vt, index)
	require.NoError(t, err)
	return s
}

func TestCreate_RequiresName(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), f.owner, customfield.KindCard, map[string]any{"series": "Alpha"})
	assert.ErrorIs(t, err, catalog.ErrInvalidField)

	e := f.create(t, customfield.KindCard, "Black Lotus", map[string]any{"rarity": "rare"})
	assert.Equal(t, "rare", e.Rarity)
	assert.Contains(t, f.index.docs, e.ID)
}

func TestGet_WrongKindIsNotFound(t *testing.T) {
	f := newFixture(t)
	e := f.create(t, customfield.KindDeck, "Burn", nil)
	_, err := f.svc.Get(context.Background(), f.owner, customfield.KindCard, e.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	got, err := f.svc.Get(context.Background(), f.owner, customfield.KindDeck, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Burn", got.Name)
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.create(t, customfield.KindPack, "Alpha Booster", nil)

	got, err := f.svc.Update(ctx, f.owner, customfield.KindPack, e.ID, map[string]any{"releaseDate": "1993-08-05"})
	require.NoError(t, err)
	assert.Equal(t, "1993-08-05", got.ReleaseDate)

	_, err = f.svc.Update(ctx, f.owner, customfield.KindPack, e.ID, map[string]any{"rarity": "rare"})
	assert.ErrorIs(t, err, catalog.ErrUnknownField)

	require.NoError(t, f.svc.Delete(ctx, f.owner, customfield.KindPack, e.ID))
	assert.NotContains(t, f.index.docs, e.ID)
	assert.ErrorIs(t, f.svc.Delete(ctx, f.owner, customfield.KindPack, e.ID), store.ErrNotFound)
}

func TestSchemaAndUpdateSetting(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	rows, err := f.svc.Schema(ctx, f.owner, customfield.KindCard)
	require.NoError(t, err)
	require.Len(t, rows, 3*customfield.SlotsPerType)
	assert.Equal(t, "custom_1_bool", rows[0].Key)
	assert.Equal(t, "Checkbox 1", rows[0].Setting.DisplayName)

	name := "Signed"
	got, err := f.svc.UpdateSetting(ctx, f.owner, customfield.KindCard, customfield.TypeBool, 1, customfield.SettingPatch{DisplayName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Signed", got.DisplayName)
	assert.False(t, got.IsEnabled)
	assert.Equal(t, []string{mqx.EventFieldSettingUpdated}, f.events.types())

	// An empty patch returns the current setting without a write.
	got, err = f.svc.UpdateSetting(ctx, f.owner, customfield.KindCard, customfield.TypeBool, 1, customfield.SettingPatch{})
	require.NoError(t, err)
	assert.Equal(t, "Signed", got.DisplayName)
	assert.Len(t, f.events.types(), 1)

	_, err = f.svc.UpdateSetting(ctx, f.owner, customfield.KindCard, customfield.TypeBool, 11, customfield.SettingPatch{DisplayName: &name})
	assert.ErrorIs(t, err, customfield.ErrUnknownSlot)
	assert.Equal(t, 1.0, metricsCounter(f.metrics, "cardvault_fields_setting_updates_total"))
}

func metricsCounter(m *metrics.Registry, name string) float64 {
	mfs, err := m.Gatherer().Gather()
	if err != nil {
		return -1
	}
	var sum float64
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			sum += metric.GetCounter().GetValue()
		}
	}
	return sum
}

func TestActivate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.create(t, customfield.KindCard, "Shivan Dragon", nil)

	res, err := f.svc.Activate(ctx, f.owner, customfield.KindCard, e.ID, customfield.TypeBool, 2)
	require.NoError(t, err)
	assert.True(t, res.Activated)
	s := slot(t, customfield.KindCard, customfield.TypeBool, 2)
	assert.False(t, res.Resolution.IsAvailable(s))
	require.True(t, lo.ContainsBy(res.Resolution.Active, func(a customfield.ActiveField) bool { return a.Slot == s }))

	settings, err := f.repo.LoadSettings(ctx, f.owner, customfield.KindCard)
	require.NoError(t, err)
	assert.True(t, settings.Get(s).IsEnabled)
	stored, err := f.repo.GetEntity(ctx, f.owner, e.ID)
	require.NoError(t, err)
	assert.Equal(t, true, stored.Custom[s.Key()])

	// The slot is no longer available, so a second activation changes nothing.
	again, err := f.svc.Activate(ctx, f.owner, customfield.KindCard, e.ID, customfield.TypeBool, 2)
	require.NoError(t, err)
	assert.False(t, again.Activated)
	assert.Equal(t, []string{mqx.EventFieldActivated}, f.events.types())

	assert.Contains(t, f.index.docs[e.ID].Custom, "Checkbox 2: yes")
}

func TestResolve_ReadOnlyHidesEmptyEnabled(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.create(t, customfield.KindDeck, "Sligh", map[string]any{"custom_3_str": "aggro"})
	enabled := true
	_, err := f.svc.UpdateSetting(ctx, f.owner, customfield.KindDeck, customfield.TypeNum, 1, customfield.SettingPatch{IsEnabled: &enabled})
	require.NoError(t, err)

	edit, err := f.svc.Resolve(ctx, f.owner, customfield.KindDeck, e.ID, false)
	require.NoError(t, err)
	keys := lo.Map(edit.Active, func(a customfield.ActiveField, _ int) string { return a.Key })
	assert.ElementsMatch(t, []string{"custom_1_num", "custom_3_str"}, keys)

	read, err := f.svc.Resolve(ctx, f.owner, customfield.KindDeck, e.ID, true)
	require.NoError(t, err)
	require.Len(t, read.Active, 1)
	assert.Equal(t, "custom_3_str", read.Active[0].Key)
}

func TestDeleteValue_Guard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.create(t, customfield.KindCard, "Counterspell", map[string]any{"custom_4_num": 7})

	res, err := f.svc.DeleteValue(ctx, f.owner, customfield.KindCard, e.ID, customfield.TypeNum, 4)
	require.NoError(t, err)
	assert.Empty(t, res.Active)
	stored, err := f.repo.GetEntity(ctx, f.owner, e.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Custom["custom_4_num"])

	enabled := true
	_, err = f.svc.UpdateSetting(ctx, f.owner, customfield.KindCard, customfield.TypeNum, 4, customfield.SettingPatch{IsEnabled: &enabled})
	require.NoError(t, err)
	_, err = f.svc.DeleteValue(ctx, f.owner, customfield.KindCard, e.ID, customfield.TypeNum, 4)
	assert.ErrorIs(t, err, customfield.ErrGuardRejected)
}

func TestExtraFields(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.create(t, customfield.KindCard, "Ancestral Recall", nil)

	got, err := f.svc.AddExtra(ctx, f.owner, customfield.KindCard, e.ID, "Artist", "Mark Poole")
	require.NoError(t, err)
	assert.Equal(t, customfield.ExtraFields{{Key: "Artist", Value: "Mark Poole"}}, got.Extra)

	_, err = f.svc.AddExtra(ctx, f.owner, customfield.KindCard, e.ID, " artist ", "x")
	assert.ErrorIs(t, err, customfield.ErrValidationRejected)
	_, err = f.svc.AddExtra(ctx, f.owner, customfield.KindCard, e.ID, "  ", "x")
	assert.ErrorIs(t, err, customfield.ErrValidationRejected)

	got, err = f.svc.RemoveExtra(ctx, f.owner, customfield.KindCard, e.ID, "ARTIST")
	require.NoError(t, err)
	assert.Empty(t, got.Extra)
	_, err = f.svc.RemoveExtra(ctx, f.owner, customfield.KindCard, e.ID, "missing")
	require.NoError(t, err)
}

func TestBulkEdit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.create(t, customfield.KindDeck, "Mono Red", map[string]any{"description": "burn"})
	b := f.create(t, customfield.KindDeck, "Mono Blue", map[string]any{"description": "control", "isFavorite": true})

	label := "Budget"
	_, err := f.svc.UpdateSetting(ctx, f.owner, customfield.KindDeck, customfield.TypeNum, 2, customfield.SettingPatch{DisplayName: &label})
	require.NoError(t, err)

	res, err := f.svc.BulkEdit(ctx, f.owner, customfield.KindDeck, BulkRequest{
		IDs: []uuid.UUID{a.ID, b.ID, a.ID},
		Edits: []FieldEdit{
			{Field: "series", Value: "Legacy"},
			{Field: "custom_2_num", Value: 40.0},
			{Field: "description", Value: ""},
			{Field: "format", Value: "modern"},
		},
		Remove:   []string{"format"},
		Favorite: bulk.False,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Applied)
	assert.Equal(t, []bulk.ChangedField{
		{Key: "series", Label: "Series", Value: "Legacy"},
		{Key: "custom_2_num", Label: "Budget", Value: 40.0},
		{Key: "isFavorite", Label: "Favorite", Value: false},
	}, res.Fields)

	for id, desc := range map[uuid.UUID]string{a.ID: "burn", b.ID: "control"} {
		e, err := f.repo.GetEntity(ctx, f.owner, id)
		require.NoError(t, err)
		assert.Equal(t, "Legacy", e.Series)
		assert.Equal(t, desc, e.Description)
		assert.Equal(t, 40.0, e.Custom["custom_2_num"])
		assert.False(t, e.IsFavorite)
		assert.Empty(t, e.Format)
	}
	assert.Contains(t, f.events.types(), mqx.EventEntitiesBulkPatched)
}

func TestBulkEdit_NoChangesSkipsPersistence(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.create(t, customfield.KindCard, "Island", nil)
	before := len(f.events.types())

	res, err := f.svc.BulkEdit(ctx, f.owner, customfield.KindCard, BulkRequest{
		IDs:   []uuid.UUID{a.ID, uuid.New()},
		Edits: []FieldEdit{{Field: "series", Value: "Beta"}, {Field: "rarity", Value: "  "}},
		Remove: []string{"series"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Applied)
	assert.Empty(t, res.Fields)
	assert.Len(t, f.events.types(), before)
}

func TestBulkEdit_FavoriteAsEdit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.create(t, customfield.KindDeck, "Elves", nil)

	res, err := f.svc.BulkEdit(ctx, f.owner, customfield.KindDeck, BulkRequest{
		IDs:   []uuid.UUID{a.ID},
		Edits: []FieldEdit{{Field: "isFavorite", Value: true}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Applied)
	assert.Equal(t, []bulk.ChangedField{{Key: "isFavorite", Label: "Favorite", Value: true}}, res.Fields)
	stored, err := f.repo.GetEntity(ctx, f.owner, a.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsFavorite)

	// removal wins over the favorite member
	res, err = f.svc.BulkEdit(ctx, f.owner, customfield.KindDeck, BulkRequest{
		IDs:      []uuid.UUID{a.ID},
		Favorite: bulk.False,
		Remove:   []string{"isFavorite"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Applied)
	stored, err = f.repo.GetEntity(ctx, f.owner, a.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsFavorite)
}

func TestCreate_RejectsNonCanonicalSlotKey(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for _, key := range []string{"custom_03_num", "custom_+3_num"} {
		_, err := f.svc.Create(ctx, f.owner, customfield.KindCard, map[string]any{"name": "A", key: 5.0})
		assert.ErrorIs(t, err, catalog.ErrUnknownField, key)
	}

	e := f.create(t, customfield.KindCard, "B", nil)
	_, err := f.svc.BulkEdit(ctx, f.owner, customfield.KindCard, BulkRequest{
		IDs:   []uuid.UUID{e.ID},
		Edits: []FieldEdit{{Field: "custom_03_num", Value: 5.0}},
	})
	require.Error(t, err)
	stored, err := f.repo.GetEntity(ctx, f.owner, e.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Custom)
}

func TestBulkEdit_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.create(t, customfield.KindCard, "Forest", nil)

	_, err := f.svc.BulkEdit(ctx, f.owner, customfield.KindCard, BulkRequest{
		Edits: []FieldEdit{{Field: "series", Value: "Beta"}},
	})
	assert.ErrorIs(t, err, ErrEmptySelection)

	_, err = f.svc.BulkEdit(ctx, f.owner, customfield.KindCard, BulkRequest{
		IDs:   []uuid.UUID{a.ID},
		Edits: []FieldEdit{{Field: "isFavorite", Value: "yes"}},
	})
	assert.ErrorIs(t, err, bulk.ErrTriStateValue)

	_, err = f.svc.BulkEdit(ctx, f.owner, customfield.KindCard, BulkRequest{
		IDs:   []uuid.UUID{a.ID, uuid.New()},
		Edits: []FieldEdit{{Field: "series", Value: "Beta"}},
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
	stored, err := f.repo.GetEntity(ctx, f.owner, a.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Series)
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.create(t, customfield.KindCard, "Sol Ring", nil)

	res, err := f.svc.Search(ctx, f.owner, "", "Sol Ring", 0, 10)
	require.NoError(t, err)
	require.Equal(t, 1, res.Total)
	assert.Equal(t, e.ID, res.Hits[0].ID)

	bare := New(f.repo)
	res, err = bare.Search(ctx, f.owner, customfield.KindCard, "Sol Ring", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)
	assert.NotNil(t, res.Hits)
}

func TestSetCollation(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.svc.SetCollation("sv"))
	assert.Equal(t, "sv", f.svc.collation().String())
	assert.Error(t, f.svc.SetCollation("!!"))
	assert.Equal(t, "sv", f.svc.collation().String())
}

func TestDocument(t *testing.T) {
	e := catalog.New(uuid.New(), customfield.KindCard, "Time Walk")
	e.Custom["custom_1_bool"] = true
	e.Custom["custom_2_num"] = 2.5
	e.Custom["custom_3_bool"] = false
	e.Extra = customfield.ExtraFields{{Key: "Set", Value: "Alpha"}}

	doc := Document(e, customfield.DefaultSettings(customfield.KindCard))
	assert.Equal(t, "card", doc.Kind)
	assert.ElementsMatch(t, []string{"Checkbox 1: yes", "Number 2: 2.5"}, doc.Custom)
	assert.Equal(t, []string{"Set: Alpha"}, doc.Extra)
}
