package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardvault-api/internal/bulk"
	"cardvault-api/internal/catalog"
	"cardvault-api/internal/config"
	"cardvault-api/internal/customfield"
	"cardvault-api/internal/db"
)

func newSQLStore(t *testing.T) *SQLStore {
	t.Helper()
	cfg := config.FromEnv()
	cfg.DB.Driver = "sqlite"
	cfg.DB.URL = "file:" + uuid.NewString() + "?mode=memory&cache=shared&_pragma=foreign_keys(1)"
	drv, closeFn, err := db.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(closeFn)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, db.Migrate(ctx, drv))
	return NewSQLStore(drv)
}

func repositories(t *testing.T) map[string]Repository {
	return map[string]Repository{
		"memory": NewMemoryStore(),
		"sql":    newSQLStore(t),
	}
}

func TestRepository_EntityCRUD(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			owner := uuid.New()
			e := catalog.New(owner, customfield.KindCard, "Lightning Bolt")
			e.Tags = []string{"red"}
			e.Quantity = 4
			e.Custom["custom_2_num"] = 3.0
			e.Custom["custom_1_bool"] = true
			e.Extra = customfield.ExtraFields{{Key: "Artist", Value: "Christopher Rush"}}
			require.NoError(t, repo.CreateEntity(ctx, e))
			assert.ErrorIs(t, repo.CreateEntity(ctx, e), ErrConflict)

			got, err := repo.GetEntity(ctx, owner, e.ID)
			require.NoError(t, err)
			assert.Equal(t, e.Name, got.Name)
			assert.Equal(t, []string{"red"}, got.Tags)
			assert.Equal(t, 4, got.Quantity)
			assert.Equal(t, 3.0, got.Custom["custom_2_num"])
			assert.Equal(t, true, got.Custom["custom_1_bool"])
			assert.Equal(t, e.Extra, got.Extra)

			_, err = repo.GetEntity(ctx, uuid.New(), e.ID)
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, got.ApplyPatch(map[string]any{"series": "Alpha"}))
			require.NoError(t, repo.UpdateEntity(ctx, got))
			again, err := repo.GetEntity(ctx, owner, e.ID)
			require.NoError(t, err)
			assert.Equal(t, "Alpha", again.Series)

			require.NoError(t, repo.DeleteEntity(ctx, owner, e.ID))
			assert.ErrorIs(t, repo.DeleteEntity(ctx, owner, e.ID), ErrNotFound)
		})
	}
}

func TestRepository_ListEntities(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			owner := uuid.New()
			base := time.Now().UTC().Add(-time.Hour)
			for i, n := range []string{"Alpha Deck", "Beta Deck", "Gamma Deck"} {
				e := catalog.New(owner, customfield.KindDeck, n)
				e.CreatedAt = base.Add(time.Duration(i) * time.Minute)
				e.IsFavorite = i == 1
				require.NoError(t, repo.CreateEntity(ctx, e))
			}
			require.NoError(t, repo.CreateEntity(ctx, catalog.New(owner, customfield.KindCard, "Alpha Card")))
			require.NoError(t, repo.CreateEntity(ctx, catalog.New(uuid.New(), customfield.KindDeck, "Other")))

			page, total, err := repo.ListEntities(ctx, owner, ListFilter{Kind: customfield.KindDeck, Limit: 2})
			require.NoError(t, err)
			assert.Equal(t, 3, total)
			assert.Equal(t, []string{"Gamma Deck", "Beta Deck"}, lo.Map(page, func(e *catalog.Entity, _ int) string { return e.Name }))

			page, _, err = repo.ListEntities(ctx, owner, ListFilter{Kind: customfield.KindDeck, Limit: 2, Offset: 2})
			require.NoError(t, err)
			require.Len(t, page, 1)
			assert.Equal(t, "Alpha Deck", page[0].Name)

			page, total, err = repo.ListEntities(ctx, owner, ListFilter{Favorite: lo.ToPtr(true)})
			require.NoError(t, err)
			assert.Equal(t, 1, total)
			assert.Equal(t, "Beta Deck", page[0].Name)

			_, total, err = repo.ListEntities(ctx, owner, ListFilter{Query: "alpha"})
			require.NoError(t, err)
			assert.Equal(t, 2, total)
		})
	}
}

func TestRepository_PatchEntities(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			owner := uuid.New()
			var ids []uuid.UUID
			for i, n := range []string{"One", "Two", "Three"} {
				e := catalog.New(owner, customfield.KindDeck, n)
				e.Description = n + " desc"
				e.IsFavorite = i == 0
				require.NoError(t, repo.CreateEntity(ctx, e))
				ids = append(ids, e.ID)
			}

			out, err := repo.PatchEntities(ctx, owner, customfield.KindDeck, ids, bulk.Patch{"name": "X"})
			require.NoError(t, err)
			assert.Len(t, out, 3)
			for i, id := range ids {
				e, err := repo.GetEntity(ctx, owner, id)
				require.NoError(t, err)
				assert.Equal(t, "X", e.Name)
				assert.Equal(t, []string{"One", "Two", "Three"}[i]+" desc", e.Description)
				assert.Equal(t, i == 0, e.IsFavorite)
			}

			// One bad id or one failing entity leaves every row untouched.
			_, err = repo.PatchEntities(ctx, owner, customfield.KindDeck, append(ids, uuid.New()), bulk.Patch{"name": "Y"})
			assert.ErrorIs(t, err, ErrNotFound)
			_, err = repo.PatchEntities(ctx, owner, customfield.KindDeck, ids, bulk.Patch{"series": "S", "rarity": "rare"})
			assert.ErrorIs(t, err, catalog.ErrUnknownField)
			for _, id := range ids {
				e, err := repo.GetEntity(ctx, owner, id)
				require.NoError(t, err)
				assert.Equal(t, "X", e.Name)
				assert.Empty(t, e.Series)
			}

			_, err = repo.PatchEntities(ctx, owner, customfield.KindCard, ids, bulk.Patch{"name": "Z"})
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestRepository_Settings(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			owner := uuid.New()

			s, err := repo.LoadSettings(ctx, owner, customfield.KindPack)
			require.NoError(t, err)
			assert.Len(t, s, 3*customfield.SlotsPerType)
			slot, _ := customfield.NewSlot(customfield.KindPack, customfield.TypeNum, 3)
			assert.Equal(t, customfield.DefaultSetting(slot), s.Get(slot))

			want := customfield.FieldSetting{DisplayName: "Print run", IsEnabled: true}
			require.NoError(t, repo.SaveSetting(ctx, owner, slot, want))
			want.Description = "copies printed"
			require.NoError(t, repo.SaveSetting(ctx, owner, slot, want))

			s, err = repo.LoadSettings(ctx, owner, customfield.KindPack)
			require.NoError(t, err)
			assert.Equal(t, want, s.Get(slot))

			other, err := repo.LoadSettings(ctx, owner, customfield.KindCard)
			require.NoError(t, err)
			cardSlot, _ := customfield.NewSlot(customfield.KindCard, customfield.TypeNum, 3)
			assert.False(t, other.Get(cardSlot).IsEnabled)
		})
	}
}

func TestRepository_Users(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			u := &User{Identifier: "alice@example.com", DisplayName: "Alice", PasswordHash: "h"}
			require.NoError(t, repo.CreateUser(ctx, u))
			assert.NotEqual(t, uuid.Nil, u.ID)
			assert.ErrorIs(t, repo.CreateUser(ctx, &User{Identifier: "alice@example.com"}), ErrConflict)

			got, err := repo.UserByIdentifier(ctx, "alice@example.com")
			require.NoError(t, err)
			assert.Equal(t, u.ID, got.ID)
			got, err = repo.UserByID(ctx, u.ID)
			require.NoError(t, err)
			assert.Equal(t, "Alice", got.DisplayName)

			_, err = repo.UserByIdentifier(ctx, "bob@example.com")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestWithSettingsCache_FallsThrough(t *testing.T) {
	mem := NewMemoryStore()
	assert.Same(t, mem, WithSettingsCache(mem, nil, time.Minute))

	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	repo := WithSettingsCache(mem, rdb, time.Minute)

	ctx := context.Background()
	owner := uuid.New()
	slot, _ := customfield.NewSlot(customfield.KindDeck, customfield.TypeStr, 1)
	require.NoError(t, repo.SaveSetting(ctx, owner, slot, customfield.FieldSetting{DisplayName: "Archetype", IsEnabled: true}))
	s, err := repo.LoadSettings(ctx, owner, customfield.KindDeck)
	require.NoError(t, err)
	assert.Equal(t, "Archetype", s.Get(slot).DisplayName)
	assert.Equal(t, "cf:settings:"+owner.String()+":deck", settingsCacheKey(owner, customfield.KindDeck))
}
