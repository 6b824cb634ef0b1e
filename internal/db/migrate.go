package db

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table and column names shared with the SQL store.
const (
	TableUsers         = "users"
	TableEntities      = "entities"
	TableFieldSettings = "field_settings"
)

var (
	// UsersColumns holds the columns for the "users" table.
	UsersColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "identifier", Type: field.TypeString, Unique: true},
		{Name: "display_name", Type: field.TypeString, Default: ""},
		{Name: "password_hash", Type: field.TypeString},
		{Name: "created_at", Type: field.TypeTime},
	}
	// UsersTable holds the schema information for the "users" table.
	UsersTable = &schema.Table{
		Name:       TableUsers,
		Columns:    UsersColumns,
		PrimaryKey: []*schema.Column{UsersColumns[0]},
	}

	// EntitiesColumns holds the columns for the "entities" table. Cards, decks
	// and packs share one table; kind-specific columns stay empty for the others.
	EntitiesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "owner_id", Type: field.TypeUUID},
		{Name: "kind", Type: field.TypeString, Size: 16},
		{Name: "name", Type: field.TypeString},
		{Name: "description", Type: field.TypeString, Default: ""},
		{Name: "series", Type: field.TypeString, Default: ""},
		{Name: "tags", Type: field.TypeJSON},
		{Name: "is_favorite", Type: field.TypeBool, Default: false},
		{Name: "rarity", Type: field.TypeString, Default: ""},
		{Name: "quantity", Type: field.TypeInt, Default: 0},
		{Name: "format", Type: field.TypeString, Default: ""},
		{Name: "release_date", Type: field.TypeString, Size: 10, Default: ""},
		{Name: "custom", Type: field.TypeJSON},
		{Name: "extra", Type: field.TypeJSON},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// EntitiesTable holds the schema information for the "entities" table.
	EntitiesTable = &schema.Table{
		Name:       TableEntities,
		Columns:    EntitiesColumns,
		PrimaryKey: []*schema.Column{EntitiesColumns[0]},
		Indexes: []*schema.Index{
			{Name: "entity_owner_id_kind", Columns: []*schema.Column{EntitiesColumns[1], EntitiesColumns[2]}},
		},
	}

	// FieldSettingsColumns holds the columns for the "field_settings" table.
	FieldSettingsColumns = []*schema.Column{
		{Name: "owner_id", Type: field.TypeUUID},
		{Name: "kind", Type: field.TypeString, Size: 16},
		{Name: "setting_key", Type: field.TypeString, Size: 16},
		{Name: "display_name", Type: field.TypeString},
		{Name: "is_enabled", Type: field.TypeBool, Default: false},
		{Name: "description", Type: field.TypeString, Default: ""},
	}
	// FieldSettingsTable holds one row per overridden slot setting.
	FieldSettingsTable = &schema.Table{
		Name:       TableFieldSettings,
		Columns:    FieldSettingsColumns,
		PrimaryKey: []*schema.Column{FieldSettingsColumns[0], FieldSettingsColumns[1], FieldSettingsColumns[2]},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{UsersTable, EntitiesTable, FieldSettingsTable}
)

// Migrate creates or upgrades the tables. Columns and indexes are never dropped.
func Migrate(ctx context.Context, drv dialect.Driver) error {
	m, err := schema.NewMigrate(drv, schema.WithForeignKeys(false))
	if err != nil {
		return fmt.Errorf("db: init migrate: %w", err)
	}
	if err := m.Create(ctx, Tables...); err != nil {
		return fmt.Errorf("db: migrate: %w", err)
	}
	dbLogger.Sugar().Infof("schema migrated (%d tables)", len(Tables))
	return nil
}
