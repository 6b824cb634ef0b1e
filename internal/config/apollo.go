package config

import (
	"slices"
	"strconv"

	agollo "github.com/apolloconfig/agollo/v4"
	apconf "github.com/apolloconfig/agollo/v4/env/config"
	"github.com/apolloconfig/agollo/v4/storage"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// overrideFromApollo starts the Apollo client, applies the namespace values on
// top of cfg and keeps the store in sync with later changes.
func overrideFromApollo(cfg *Config, store *Store) (func(), error) {
	if cfg.Apollo.Addrs == "" || cfg.Apollo.AppID == "" {
		configLogger.Warn("apollo: missing APOLLO_ADDRS or APOLLO_APP_ID; skip")
		return nil, nil
	}

	ns := lo.Ternary(cfg.Apollo.Namespace != "", cfg.Apollo.Namespace, "application")
	appCfg := &apconf.AppConfig{
		AppID:         cfg.Apollo.AppID,
		Cluster:       cfg.Apollo.Cluster,
		NamespaceName: ns,
		IP:            cfg.Apollo.Addrs,
		Secret:        cfg.Apollo.AccessKey,
	}

	client, err := agollo.StartWithConfig(func() (*apconf.AppConfig, error) { return appCfg, nil })
	if err != nil {
		return nil, err
	}

	applyInitial(store, lookupFrom(client, ns))

	client.AddChangeListener(&changeListener{ns: ns, client: client, store: store})

	// agollo v4 exposes no Stop.
	return func() {}, nil
}

// applyInitial commits the namespace values present at startup. A rejected set
// leaves the environment config in place and is logged with the keys it carried.
func applyInitial(store *Store, get lookup) bool {
	next := cloneConfig(store.Get())
	changed := applyOverrides(get, next)
	changed["apollo.init"] = true
	if store.UpdateValidated(next, changed) {
		return true
	}
	keys := lo.Keys(changed)
	slices.Sort(keys)
	configLogger.Error("apollo: initial values rejected; keeping environment config", zap.Strings("keys", keys))
	return false
}

// lookup returns the raw string value of an Apollo key.
type lookup func(key string) (string, bool)

func lookupFrom(client agollo.Client, ns string) lookup {
	return func(key string) (string, bool) {
		cache := client.GetConfigCache(ns)
		if cache == nil {
			return "", false
		}
		v, err := cache.Get(key)
		if err != nil {
			return "", false
		}
		s, ok := v.(string)
		return s, ok
	}
}

type override struct {
	allowEmpty bool
	apply      func(cfg *Config, v string) bool
}

func str(set func(*Config, string)) override {
	return override{apply: func(c *Config, v string) bool { set(c, v); return true }}
}

func num(set func(*Config, int)) override {
	return override{apply: func(c *Config, v string) bool {
		n, err := strconv.Atoi(v)
		if err != nil {
			return false
		}
		set(c, n)
		return true
	}}
}

func secret(set func(*Config, string)) override {
	o := str(set)
	o.allowEmpty = true
	return o
}

// overrides maps Apollo keys to config fields.
var overrides = map[string]override{
	"app.env":            str(func(c *Config, v string) { c.AppEnv = v }),
	"server.addr":        str(func(c *Config, v string) { c.Server.Addr = v }),
	"log.level":          str(func(c *Config, v string) { c.Log.Level = v }),
	"log.format":         str(func(c *Config, v string) { c.Log.Format = v }),
	"db.url":             str(func(c *Config, v string) { c.DB.URL = v }),
	"db.max_open":        num(func(c *Config, n int) { c.DB.MaxOpenConns = n }),
	"db.max_idle":        num(func(c *Config, n int) { c.DB.MaxIdleConns = n }),
	"redis.addr":         str(func(c *Config, v string) { c.Redis.Addr = v }),
	"redis.password":     secret(func(c *Config, v string) { c.Redis.Password = v }),
	"redis.db":           num(func(c *Config, n int) { c.Redis.DB = n }),
	"mq.url":             str(func(c *Config, v string) { c.MQ.URL = v }),
	"es.addrs":           str(func(c *Config, v string) { c.ES.Addrs = v }),
	"es.username":        secret(func(c *Config, v string) { c.ES.Username = v }),
	"es.password":        secret(func(c *Config, v string) { c.ES.Password = v }),
	"schema.cache_ttl":   num(func(c *Config, n int) { c.Schema.CacheTTLSec = n }),
	"schema.collation":   str(func(c *Config, v string) { c.Schema.Collation = v }),
	"ratelimit.max":      num(func(c *Config, n int) { c.RateLimit.Max = n }),
	"ratelimit.window_s": num(func(c *Config, n int) { c.RateLimit.WindowSec = n }),
}

// applyOverrides writes every known key found by get into cfg and returns the
// keys that were applied.
func applyOverrides(get lookup, cfg *Config) map[string]bool {
	changed := map[string]bool{}
	for key, o := range overrides {
		v, ok := get(key)
		if !ok || (v == "" && !o.allowEmpty) {
			continue
		}
		if o.apply(cfg, v) {
			changed[key] = true
		}
	}
	return changed
}

type changeListener struct {
	ns     string
	client agollo.Client
	store  *Store
}

func (c *changeListener) OnChange(e *storage.ChangeEvent) {
	configLogger.Sugar().Infof("apollo change: namespace=%s, changes=%d", e.Namespace, len(e.Changes))
	next := cloneConfig(c.store.Get())
	applyOverrides(lookupFrom(c.client, c.ns), next)
	changed := lo.MapValues(e.Changes, func(_ *storage.ConfigChange, _ string) bool { return true })
	if !c.store.UpdateValidated(next, changed) {
		configLogger.Sugar().Warnf("apollo change rejected by validators: %v", lo.Keys(changed))
	}
}

func (c *changeListener) OnNewestChange(e *storage.FullChangeEvent) {
	configLogger.Sugar().Debugf("apollo snapshot: namespace=%s, keys=%d", e.Namespace, len(e.Changes))
}
