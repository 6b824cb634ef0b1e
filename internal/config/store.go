package config

import (
	"sync"
	"sync/atomic"
)

// Watcher is notified after a config update was committed. changed holds the
// dotted keys (e.g. "db.max_open") that triggered the update.
type Watcher func(newCfg *Config, changed map[string]bool)

// Validator vetoes an update by returning an error.
type Validator func(newCfg *Config, changed map[string]bool) error

// Store holds the live config and fans out updates.
type Store struct {
	v          atomic.Pointer[Config]
	mu         sync.RWMutex
	seq        int
	watchers   map[int]Watcher
	validators map[int]Validator
}

func NewStore(cfg *Config) *Store {
	s := &Store{watchers: map[int]Watcher{}, validators: map[int]Validator{}}
	s.v.Store(cfg)
	return s
}

func (s *Store) Get() *Config {
	return s.v.Load()
}

// Update commits newCfg without validation and notifies watchers.
func (s *Store) Update(newCfg *Config, changed map[string]bool) {
	s.v.Store(newCfg)
	s.mu.RLock()
	ws := make([]Watcher, 0, len(s.watchers))
	for _, w := range s.watchers {
		ws = append(ws, w)
	}
	s.mu.RUnlock()
	for _, w := range ws {
		w(newCfg, changed)
	}
}

// Watch registers w and returns its unregister func.
func (s *Store) Watch(w Watcher) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	id := s.seq
	s.watchers[id] = w
	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

// AddValidator registers a validator. If any validator returns error on update, the update is discarded.
func (s *Store) AddValidator(v Validator) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	id := s.seq
	s.validators[id] = v
	return func() {
		s.mu.Lock()
		delete(s.validators, id)
		s.mu.Unlock()
	}
}

// UpdateValidated runs Config.Validate and the registered validators before
// committing. It reports whether the update was applied.
func (s *Store) UpdateValidated(newCfg *Config, changed map[string]bool) bool {
	if err := newCfg.Validate(); err != nil {
		configLogger.Sugar().Warnf("config update rejected: %v", err)
		return false
	}
	s.mu.RLock()
	vals := make([]Validator, 0, len(s.validators))
	for _, v := range s.validators {
		vals = append(vals, v)
	}
	s.mu.RUnlock()
	for _, v := range vals {
		if err := v(newCfg, changed); err != nil {
			configLogger.Sugar().Warnf("config update rejected: %v", err)
			return false
		}
	}
	s.Update(newCfg, changed)
	return true
}

func cloneConfig(in *Config) *Config {
	out := *in
	return &out
}
