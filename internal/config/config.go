package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"cardvault-api/internal/logx"
)

var configLogger = logx.GetScope("config")

// Config holds the application configuration
type Config struct {
	AppEnv string
	Server struct {
		Addr string
	}
	Log struct {
		Level  string // debug, info, warn, error
		Format string // text, json
	}
	DB struct {
		Driver       string // sqlite | postgres
		URL          string
		MaxOpenConns int
		MaxIdleConns int
		AutoMigrate  bool
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
	}
	MQ struct {
		URL      string // RabbitMQ URL
		Exchange string
	}
	ES struct {
		Addrs    string // comma separated
		Username string
		Password string
		Index    string
	}
	JWT struct {
		Algo         string // HS256 | RS256
		HSSecret     string
		RSPrivateKey string
		RSPublicKey  string
		Issuer       string
		Audience     string
		AccessMin    int
		RefreshDays  int
	}
	Schema struct {
		CacheTTLSec int
		Collation   string // BCP 47 tag used to order active fields
	}
	RateLimit struct {
		WindowSec int
		Max       int
	}
	Apollo struct {
		Enable    bool
		AppID     string
		Cluster   string
		Namespace string
		Addrs     string
		AccessKey string
	}
}

// Validate checks values that would make the server misbehave.
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	if c.DB.MaxIdleConns > c.DB.MaxOpenConns {
		return fmt.Errorf("DB_MAX_IDLE cannot exceed DB_MAX_OPEN")
	}
	if c.Schema.CacheTTLSec < 0 {
		return fmt.Errorf("SCHEMA_CACHE_TTL must not be negative")
	}
	if c.JWT.AccessMin <= 0 || c.JWT.RefreshDays <= 0 {
		return fmt.Errorf("JWT lifetimes must be positive")
	}
	return nil
}

// Load loads config from env, and if enabled, overrides with Apollo values.
// Returns config, store, optional apollo closer, and error.
func Load() (*Config, *Store, func(), error) {
	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}

	store := NewStore(cfg)

	if cfg.Apollo.Enable {
		closer, err := overrideFromApollo(cfg, store)
		if err != nil {
			configLogger.Sugar().Errorf("apollo override failed: %v", err)
			return cfg, store, closer, err
		}
		return store.Get(), store, closer, nil
	}

	return cfg, store, nil, nil
}

// FromEnv builds a config from environment variables and defaults.
func FromEnv() *Config {
	cfg := &Config{}

	cfg.AppEnv = getEnv("APP_ENV", "dev")
	cfg.Server.Addr = getEnv("SERVER_ADDR", ":8080")
	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "text")

	cfg.DB.Driver = strings.ToLower(getEnv("DB_DRIVER", "sqlite"))
	cfg.DB.URL = getEnv("DB_URL", getEnv("POSTGRES_URL", "file:cardvault.db?_pragma=foreign_keys(1)"))
	cfg.DB.MaxOpenConns = getInt("DB_MAX_OPEN", 10)
	cfg.DB.MaxIdleConns = getInt("DB_MAX_IDLE", 5)
	cfg.DB.AutoMigrate = getBool("DB_AUTO_MIGRATE", true)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getInt("REDIS_DB", 0)

	cfg.MQ.URL = getEnv("RABBITMQ_URL", "")
	cfg.MQ.Exchange = getEnv("RABBITMQ_EXCHANGE", "cardvault.events")

	cfg.ES.Addrs = getEnv("ES_ADDRS", "")
	cfg.ES.Username = getEnv("ES_USERNAME", "")
	cfg.ES.Password = getEnv("ES_PASSWORD", "")
	cfg.ES.Index = getEnv("ES_INDEX", "entities")

	cfg.JWT.Algo = getEnv("JWT_ALGO", "HS256")
	cfg.JWT.HSSecret = getEnv("JWT_HS_SECRET", "dev-secret")
	cfg.JWT.RSPrivateKey = getEnv("JWT_RS_PRIVATE_KEY", "")
	cfg.JWT.RSPublicKey = getEnv("JWT_RS_PUBLIC_KEY", "")
	cfg.JWT.Issuer = getEnv("JWT_ISSUER", "cardvault")
	cfg.JWT.Audience = getEnv("JWT_AUDIENCE", "cardvault-web")
	cfg.JWT.AccessMin = getInt("JWT_ACCESS_MIN", 15)
	cfg.JWT.RefreshDays = getInt("JWT_REFRESH_DAYS", 7)

	cfg.Schema.CacheTTLSec = getInt("SCHEMA_CACHE_TTL", 300)
	cfg.Schema.Collation = getEnv("SCHEMA_COLLATION", "und")

	cfg.RateLimit.WindowSec = getInt("RATE_LIMIT_WINDOW", 60)
	cfg.RateLimit.Max = getInt("RATE_LIMIT_MAX", 120)

	cfg.Apollo.Enable = getBool("APOLLO_ENABLE", false)
	cfg.Apollo.AppID = getEnv("APOLLO_APP_ID", "")
	cfg.Apollo.Cluster = getEnv("APOLLO_CLUSTER", "default")
	cfg.Apollo.Namespace = getEnv("APOLLO_NAMESPACE", "application")
	cfg.Apollo.Addrs = getEnv("APOLLO_ADDRS", "")
	cfg.Apollo.AccessKey = getEnv("APOLLO_ACCESS_KEY", "")

	return cfg
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	return lo.Ternary(v != "", v, def)
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
