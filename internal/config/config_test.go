package config

import (
	"errors"
	"testing"
)

func TestGetIntBool(t *testing.T) {
	t.Setenv("X_INT", "42")
	if v := getInt("X_INT", 1); v != 42 {
		t.Fatalf("want 42, got %d", v)
	}
	t.Setenv("X_INT_BAD", "forty")
	if v := getInt("X_INT_BAD", 7); v != 7 {
		t.Fatalf("want default 7, got %d", v)
	}

	t.Setenv("X_BOOL_T", "true")
	t.Setenv("X_BOOL_F", "false")
	if !getBool("X_BOOL_T", false) {
		t.Fatalf("want true")
	}
	if getBool("X_BOOL_F", true) {
		t.Fatalf("want false")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()
	if cfg.DB.Driver != "sqlite" {
		t.Fatalf("default driver=%q", cfg.DB.Driver)
	}
	if cfg.Schema.CacheTTLSec != 300 || cfg.Schema.Collation != "und" {
		t.Fatalf("schema defaults: %+v", cfg.Schema)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "POSTGRES")
	t.Setenv("DB_URL", "postgres://x")
	t.Setenv("SCHEMA_COLLATION", "fr")
	cfg := FromEnv()
	if cfg.DB.Driver != "postgres" || cfg.DB.URL != "postgres://x" || cfg.Schema.Collation != "fr" {
		t.Fatalf("unexpected: %+v", cfg.DB)
	}
}

func TestValidate(t *testing.T) {
	cfg := FromEnv()
	cfg.DB.Driver = "mysql"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("want driver error")
	}
	cfg = FromEnv()
	cfg.DB.MaxIdleConns = cfg.DB.MaxOpenConns + 1
	if err := cfg.Validate(); err == nil {
		t.Fatalf("want pool error")
	}
}

func TestApplyOverrides(t *testing.T) {
	values := map[string]string{
		"log.level":        "debug",
		"db.max_open":      "20",
		"db.max_idle":      "oops",
		"redis.password":   "",
		"schema.cache_ttl": "60",
		"server.addr":      "",
	}
	get := func(k string) (string, bool) { v, ok := values[k]; return v, ok }

	cfg := FromEnv()
	cfg.Redis.Password = "old"
	changed := applyOverrides(get, cfg)

	if cfg.Log.Level != "debug" || cfg.DB.MaxOpenConns != 20 || cfg.Schema.CacheTTLSec != 60 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.Redis.Password != "" {
		t.Fatalf("empty secret should override")
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("empty server.addr should be ignored, got %q", cfg.Server.Addr)
	}
	for _, k := range []string{"log.level", "db.max_open", "redis.password", "schema.cache_ttl"} {
		if !changed[k] {
			t.Fatalf("missing changed key %s: %v", k, changed)
		}
	}
	if changed["db.max_idle"] || changed["server.addr"] {
		t.Fatalf("unexpected changed keys: %v", changed)
	}
}

func TestStore_ValidatorsAndWatchers(t *testing.T) {
	s := NewStore(FromEnv())
	var seen []string
	stop := s.Watch(func(c *Config, changed map[string]bool) { seen = append(seen, c.Log.Level) })
	s.AddValidator(func(c *Config, changed map[string]bool) error {
		if c.Log.Level == "trace" {
			return errors.New("no trace")
		}
		return nil
	})

	next := cloneConfig(s.Get())
	next.Log.Level = "trace"
	if s.UpdateValidated(next, map[string]bool{"log.level": true}) {
		t.Fatalf("validator should veto")
	}
	next = cloneConfig(s.Get())
	next.Log.Level = "warn"
	if !s.UpdateValidated(next, map[string]bool{"log.level": true}) {
		t.Fatalf("update should apply")
	}
	if s.Get().Log.Level != "warn" {
		t.Fatalf("store not updated")
	}

	stop()
	next = cloneConfig(s.Get())
	next.Log.Level = "error"
	s.Update(next, nil)
	if len(seen) != 1 || seen[0] != "warn" {
		t.Fatalf("watcher calls: %v", seen)
	}
}

func TestApplyInitial(t *testing.T) {
	values := map[string]string{"db.max_open": "4", "db.max_idle": "8"}
	get := func(k string) (string, bool) { v, ok := values[k]; return v, ok }

	s := NewStore(FromEnv())
	before := s.Get()
	if applyInitial(s, get) {
		t.Fatalf("idle above open must be rejected")
	}
	if s.Get() != before {
		t.Fatalf("rejected initial values must keep the environment config")
	}

	values["db.max_idle"] = "2"
	var changed map[string]bool
	s.Watch(func(_ *Config, c map[string]bool) { changed = c })
	if !applyInitial(s, get) {
		t.Fatalf("valid initial values should apply")
	}
	if s.Get().DB.MaxOpenConns != 4 || s.Get().DB.MaxIdleConns != 2 {
		t.Fatalf("initial values not applied: %+v", s.Get().DB)
	}
	if !changed["apollo.init"] || !changed["db.max_open"] {
		t.Fatalf("changed keys: %v", changed)
	}
}
