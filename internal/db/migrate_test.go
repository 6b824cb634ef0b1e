package db

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"cardvault-api/internal/config"
)

func openSQLite(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.FromEnv()
	cfg.DB.Driver = "sqlite"
	cfg.DB.URL = "file:" + uuid.NewString() + "?mode=memory&cache=shared&_pragma=foreign_keys(1)"
	return cfg
}

func TestOpenAndMigrate_SQLite(t *testing.T) {
	drv, closeFn, err := Open(openSQLite(t))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer closeFn()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := Migrate(ctx, drv); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// Second run is a no-op.
	if err := Migrate(ctx, drv); err != nil {
		t.Fatalf("re-migrate: %v", err)
	}
	for _, tbl := range Tables {
		var n int
		if err := drv.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM "+tbl.Name).Scan(&n); err != nil {
			t.Fatalf("count %s: %v", tbl.Name, err)
		}
		if n != 0 {
			t.Fatalf("%s not empty: %d", tbl.Name, n)
		}
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	cfg := openSQLite(t)
	cfg.DB.Driver = "oracle"
	if _, _, err := Open(cfg); err == nil {
		t.Fatalf("want error for unknown driver")
	}
}
