// Package main is the entry point for the API server
//
//	@title			CardVault API
//	@version		1.0
//	@description	Card collection API with per-user custom fields
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes		http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in						header
//	@name					Authorization
//
//	@security			BearerAuth
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"cardvault-api/internal/collection"
	"cardvault-api/internal/config"
	"cardvault-api/internal/db"
	"cardvault-api/internal/esx"
	"cardvault-api/internal/httpx"
	"cardvault-api/internal/httpx/auth"
	"cardvault-api/internal/logx"
	"cardvault-api/internal/metrics"
	"cardvault-api/internal/mqx"
	"cardvault-api/internal/redisx"
	"cardvault-api/internal/server"
	"cardvault-api/internal/store"

	_ "cardvault-api/docs" // swagger docs
)

func main() {
	// Load .env if present
	_ = godotenv.Load()

	// env first, Apollo overrides when enabled
	cfg, cfgStore, apClose, err := config.Load()
	if err != nil {
		panic(err)
	}
	if apClose != nil {
		defer apClose()
	}

	logx.Init(cfg.Log.Level, cfg.Log.Format)
	mainLogger := logx.GetScope("main")
	mainLogger.Info("config loaded",
		zap.String("env", cfg.AppEnv),
		zap.String("addr", cfg.Server.Addr),
		zap.String("db.driver", cfg.DB.Driver),
		zap.String("log.level", cfg.Log.Level),
	)

	drv, closeDB, err := db.Open(cfg)
	if err != nil {
		mainLogger.Error("open db error", zap.Error(err))
		panic(err)
	}
	defer closeDB()

	if cfg.DB.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := db.Migrate(ctx, drv)
		cancel()
		if err != nil {
			mainLogger.Error("auto migrate error", zap.Error(err))
			panic(err)
		}
	}

	// Optional deps: Redis, MQ, ES
	rdb, redisClose, err := redisx.Open(cfg)
	if err != nil {
		warnInitFailed(mainLogger, "redis", err)
		rdb = nil
	} else {
		defer redisClose()
	}
	repo := store.WithSettingsCache(store.NewSQLStore(drv), rdb, time.Duration(cfg.Schema.CacheTTLSec)*time.Second)

	reg := metrics.New()
	opts := []collection.Option{collection.WithMetrics(reg)}
	if cfg.MQ.URL != "" {
		if pub, err := mqx.NewRabbitPublisher(cfg.MQ.URL, cfg.MQ.Exchange); err != nil {
			warnInitFailed(mainLogger, "mq", err)
		} else {
			defer func() { _ = pub.Close() }()
			opts = append(opts, collection.WithPublisher(pub))
		}
	}
	esClient, esClose, err := esx.Open(cfg)
	if err != nil {
		warnInitFailed(mainLogger, "es", err)
	} else {
		defer esClose()
		if esClient != nil {
			opts = append(opts, collection.WithIndexer(esClient))
		}
	}

	svc := collection.New(repo, opts...)
	if cfg.Schema.Collation != "" {
		if err := svc.SetCollation(cfg.Schema.Collation); err != nil {
			mainLogger.Warn("invalid collation, using root order", zap.Error(err))
		}
	}

	tokens, err := auth.NewTokens(cfg)
	if err != nil {
		panic(err)
	}

	app := httpx.NewApp(reg)
	httpx.Register(app, httpx.Deps{
		Config:  cfg,
		Users:   repo,
		Service: svc,
		Tokens:  tokens,
		Redis:   rdb,
		Metrics: reg,
	})

	// Validators reject a change set before watchers see it
	cfgStore.AddValidator(func(newCfg *config.Config, changed map[string]bool) error {
		if changed["db.max_open"] || changed["db.max_idle"] {
			if newCfg.DB.MaxIdleConns > newCfg.DB.MaxOpenConns {
				return fmt.Errorf("DB_MAX_IDLE cannot exceed DB_MAX_OPEN")
			}
		}
		if changed["schema.cache_ttl"] && newCfg.Schema.CacheTTLSec < 0 {
			return fmt.Errorf("SCHEMA_CACHE_TTL must not be negative")
		}
		return nil
	})

	cfgStore.Watch(func(newCfg *config.Config, changed map[string]bool) {
		if changed["db.max_open"] || changed["db.max_idle"] {
			db.UpdatePool(newCfg.DB.MaxOpenConns, newCfg.DB.MaxIdleConns)
			mainLogger.Info("db pool updated",
				zap.Int("max_open", newCfg.DB.MaxOpenConns),
				zap.Int("max_idle", newCfg.DB.MaxIdleConns),
			)
		}
		if changed["db.url"] {
			mainLogger.Warn("db.url changed; restart required to reconnect")
		}
		if changed["server.addr"] {
			mainLogger.Warn("server.addr changed; restart required to take effect",
				zap.String("addr", newCfg.Server.Addr),
			)
		}
		if changed["log.level"] || changed["log.format"] {
			logx.Init(newCfg.Log.Level, newCfg.Log.Format)
			mainLogger.Info("logger reconfigured",
				zap.String("level", newCfg.Log.Level),
				zap.String("format", newCfg.Log.Format),
			)
		}
		if changed["schema.cache_ttl"] {
			if c, ok := repo.(*store.CachedRepository); ok {
				c.SetTTL(time.Duration(newCfg.Schema.CacheTTLSec) * time.Second)
				mainLogger.Info("settings cache ttl updated", zap.Int("ttl_s", newCfg.Schema.CacheTTLSec))
			}
		}
		if changed["schema.collation"] {
			if err := svc.SetCollation(newCfg.Schema.Collation); err != nil {
				mainLogger.Warn("collation change ignored", zap.Error(err))
			} else {
				mainLogger.Info("collation updated", zap.String("collation", newCfg.Schema.Collation))
			}
		}
	})

	go func() {
		ln, err := server.GetListener(cfg.Server.Addr)
		if err != nil {
			mainLogger.Sugar().Errorf("listener error: %v", err)
			return
		}
		if err := app.Listener(ln); err != nil {
			mainLogger.Sugar().Infof("fiber exit: %v", err)
		}
	}()
	mainLogger.Sugar().Infof("server started on %s", cfg.Server.Addr)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	mainLogger.Sugar().Info("shutting down...")
	_ = app.ShutdownWithTimeout(10 * time.Second)
}

// warnInitFailed reports an optional dependency the server runs without.
func warnInitFailed(l *logx.Logger, dep string, err error) {
	l.Warn(dep+" init failed; continuing without it", zap.String("dep", dep), zap.Error(err))
}
