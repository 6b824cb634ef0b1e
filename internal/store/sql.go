package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/sqlgraph"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"cardvault-api/internal/bulk"
	"cardvault-api/internal/catalog"
	"cardvault-api/internal/customfield"
	"cardvault-api/internal/db"
)

var entityColumns = []string{
	"id", "owner_id", "kind", "name", "description", "series", "tags", "is_favorite",
	"rarity", "quantity", "format", "release_date", "custom", "extra", "created_at", "updated_at",
}

var userColumns = []string{"id", "identifier", "display_name", "password_hash", "created_at"}

// SQLStore is the Repository backed by the tables created by db.Migrate. Queries
// are built with the ent SQL builder so the same code serves sqlite and postgres.
type SQLStore struct {
	drv *entsql.Driver
}

var _ Repository = (*SQLStore)(nil)

func NewSQLStore(drv *entsql.Driver) *SQLStore {
	return &SQLStore{drv: drv}
}

func (s *SQLStore) dialect() *entsql.DialectBuilder {
	return entsql.Dialect(s.drv.Dialect())
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *SQLStore) CreateEntity(ctx context.Context, e *catalog.Entity) error {
	if err := e.Validate(); err != nil {
		return err
	}
	vals, err := entityValues(e)
	if err != nil {
		return err
	}
	q, args := s.dialect().Insert(db.TableEntities).Columns(entityColumns...).Values(vals...).Query()
	if _, err := s.drv.DB().ExecContext(ctx, q, args...); err != nil {
		if sqlgraph.IsUniqueConstraintError(err) {
			return fmt.Errorf("%w: entity %s exists", ErrConflict, e.ID)
		}
		return fmt.Errorf("store: insert entity: %w", err)
	}
	return nil
}

func (s *SQLStore) GetEntity(ctx context.Context, owner, id uuid.UUID) (*catalog.Entity, error) {
	return s.getEntity(ctx, s.drv.DB(), owner, id)
}

func (s *SQLStore) getEntity(ctx context.Context, eq entsql.ExecQuerier, owner, id uuid.UUID) (*catalog.Entity, error) {
	q, args := s.dialect().Select(entityColumns...).
		From(s.dialect().Table(db.TableEntities)).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("owner_id", owner))).
		Query()
	rows, err := eq.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: get entity: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	return scanEntity(rows)
}

func (s *SQLStore) listPredicate(owner uuid.UUID, f ListFilter) *entsql.Predicate {
	preds := []*entsql.Predicate{entsql.EQ("owner_id", owner)}
	if f.Kind != "" {
		preds = append(preds, entsql.EQ("kind", string(f.Kind)))
	}
	if f.Favorite != nil {
		preds = append(preds, entsql.EQ("is_favorite", *f.Favorite))
	}
	if f.Query != "" {
		preds = append(preds, entsql.Or(entsql.ContainsFold("name", f.Query), entsql.ContainsFold("series", f.Query)))
	}
	return entsql.And(preds...)
}

func (s *SQLStore) ListEntities(ctx context.Context, owner uuid.UUID, f ListFilter) ([]*catalog.Entity, int, error) {
	cq, cargs := s.dialect().Select().Count().
		From(s.dialect().Table(db.TableEntities)).
		Where(s.listPredicate(owner, f)).
		Query()
	var total int
	if err := s.drv.DB().QueryRowContext(ctx, cq, cargs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store: count entities: %w", err)
	}

	sel := s.dialect().Select(entityColumns...).
		From(s.dialect().Table(db.TableEntities)).
		Where(s.listPredicate(owner, f)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("id"))
	if f.Limit > 0 {
		sel = sel.Limit(f.Limit)
	}
	if f.Offset > 0 {
		sel = sel.Offset(f.Offset)
	}
	q, args := sel.Query()
	rows, err := s.drv.DB().QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list entities: %w", err)
	}
	defer rows.Close()
	out := []*catalog.Entity{}
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

func (s *SQLStore) UpdateEntity(ctx context.Context, e *catalog.Entity) error {
	if err := e.Validate(); err != nil {
		return err
	}
	return s.updateEntity(ctx, s.drv.DB(), e)
}

func (s *SQLStore) updateEntity(ctx context.Context, eq entsql.ExecQuerier, e *catalog.Entity) error {
	vals, err := entityValues(e)
	if err != nil {
		return err
	}
	u := s.dialect().Update(db.TableEntities)
	// id, owner_id, kind and created_at are immutable.
	for i, col := range entityColumns {
		switch col {
		case "id", "owner_id", "kind", "created_at":
			continue
		}
		u = u.Set(col, vals[i])
	}
	q, args := u.Where(entsql.And(entsql.EQ("id", e.ID), entsql.EQ("owner_id", e.OwnerID))).Query()
	res, err := eq.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("store: update entity: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) DeleteEntity(ctx context.Context, owner, id uuid.UUID) error {
	q, args := s.dialect().Delete(db.TableEntities).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("owner_id", owner))).
		Query()
	res, err := s.drv.DB().ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("store: delete entity: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) PatchEntities(ctx context.Context, owner uuid.UUID, kind customfield.EntityKind, ids []uuid.UUID, patch bulk.Patch) (out []*catalog.Entity, err error) {
	ids = lo.Uniq(ids)
	tx, err := s.drv.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin: %w", err)
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
				storeLogger.Sugar().Warnf("rollback bulk patch: %v", rerr)
			}
		}
	}()

	current := make([]*catalog.Entity, 0, len(ids))
	for _, id := range ids {
		e, gerr := s.getEntity(ctx, tx, owner, id)
		if gerr != nil {
			if errors.Is(gerr, ErrNotFound) {
				return nil, fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
			}
			return nil, gerr
		}
		if e.Kind != kind {
			return nil, fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
		}
		current = append(current, e)
	}

	next, err := patchAll(current, patch)
	if err != nil {
		return nil, err
	}
	for _, e := range next {
		if err = s.updateEntity(ctx, tx, e); err != nil {
			return nil, err
		}
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: commit bulk patch: %w", err)
	}
	return next, nil
}

func (s *SQLStore) LoadSettings(ctx context.Context, owner uuid.UUID, kind customfield.EntityKind) (customfield.Settings, error) {
	q, args := s.dialect().Select("setting_key", "display_name", "is_enabled", "description").
		From(s.dialect().Table(db.TableFieldSettings)).
		Where(entsql.And(entsql.EQ("owner_id", owner), entsql.EQ("kind", string(kind)))).
		Query()
	rows, err := s.drv.DB().QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: load settings: %w", err)
	}
	defer rows.Close()
	stored := customfield.Settings{}
	for rows.Next() {
		var key string
		var fs customfield.FieldSetting
		if err := rows.Scan(&key, &fs.DisplayName, &fs.IsEnabled, &fs.Description); err != nil {
			return nil, fmt.Errorf("store: scan setting: %w", err)
		}
		stored[key] = fs
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return mergeSettings(kind, stored), nil
}

func (s *SQLStore) SaveSetting(ctx context.Context, owner uuid.UUID, slot customfield.Slot, fs customfield.FieldSetting) error {
	q, args := s.dialect().Insert(db.TableFieldSettings).
		Columns("owner_id", "kind", "setting_key", "display_name", "is_enabled", "description").
		Values(owner, string(slot.Kind), slot.SettingKey(), fs.DisplayName, fs.IsEnabled, fs.Description).
		OnConflict(
			entsql.ConflictColumns("owner_id", "kind", "setting_key"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if _, err := s.drv.DB().ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("store: save setting: %w", err)
	}
	return nil
}

func (s *SQLStore) CreateUser(ctx context.Context, u *User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	q, args := s.dialect().Insert(db.TableUsers).
		Columns(userColumns...).
		Values(u.ID, u.Identifier, u.DisplayName, u.PasswordHash, u.CreatedAt).
		Query()
	if _, err := s.drv.DB().ExecContext(ctx, q, args...); err != nil {
		if sqlgraph.IsUniqueConstraintError(err) {
			return fmt.Errorf("%w: identifier %q", ErrConflict, u.Identifier)
		}
		return fmt.Errorf("store: insert user: %w", err)
	}
	return nil
}

func (s *SQLStore) UserByIdentifier(ctx context.Context, identifier string) (*User, error) {
	return s.user(ctx, entsql.EQ("identifier", identifier))
}

func (s *SQLStore) UserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.user(ctx, entsql.EQ("id", id))
}

func (s *SQLStore) user(ctx context.Context, p *entsql.Predicate) (*User, error) {
	q, args := s.dialect().Select(userColumns...).From(s.dialect().Table(db.TableUsers)).Where(p).Query()
	var u User
	err := s.drv.DB().QueryRowContext(ctx, q, args...).Scan(&u.ID, &u.Identifier, &u.DisplayName, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get user: %w", err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

// entityValues returns the row values in entityColumns order.
func entityValues(e *catalog.Entity) ([]any, error) {
	tags, err := json.Marshal(lo.Ternary(e.Tags == nil, []string{}, e.Tags))
	if err != nil {
		return nil, err
	}
	custom, err := json.Marshal(lo.Ternary(e.Custom == nil, customfield.Values{}, e.Custom))
	if err != nil {
		return nil, err
	}
	extra, err := json.Marshal(lo.Ternary(e.Extra == nil, customfield.ExtraFields{}, e.Extra))
	if err != nil {
		return nil, err
	}
	return []any{
		e.ID, e.OwnerID, string(e.Kind), e.Name, e.Description, e.Series, string(tags), e.IsFavorite,
		e.Rarity, e.Quantity, e.Format, e.ReleaseDate, string(custom), string(extra),
		e.CreatedAt.UTC(), e.UpdatedAt.UTC(),
	}, nil
}

func scanEntity(row scanner) (*catalog.Entity, error) {
	var (
		e                   catalog.Entity
		kind                string
		tags, custom, extra []byte
	)
	err := row.Scan(&e.ID, &e.OwnerID, &kind, &e.Name, &e.Description, &e.Series, &tags, &e.IsFavorite,
		&e.Rarity, &e.Quantity, &e.Format, &e.ReleaseDate, &custom, &extra, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("store: scan entity: %w", err)
	}
	e.Kind = customfield.EntityKind(kind)
	e.Tags, e.Custom, e.Extra = []string{}, customfield.Values{}, customfield.ExtraFields{}
	if err := unmarshalColumn(tags, &e.Tags); err != nil {
		return nil, err
	}
	if err := unmarshalColumn(custom, &e.Custom); err != nil {
		return nil, err
	}
	if err := unmarshalColumn(extra, &e.Extra); err != nil {
		return nil, err
	}
	e.CreatedAt, e.UpdatedAt = e.CreatedAt.UTC(), e.UpdatedAt.UTC()
	return &e, nil
}

func unmarshalColumn(b []byte, v any) error {
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("store: decode json column: %w", err)
	}
	return nil
}
