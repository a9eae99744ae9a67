package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/prostak402/csmrashireniye/internal/domain"
)

// SettingsService owns the derived settings snapshot. The store holds raw
// values only; every change rebuilds the whole snapshot through BuildSettings
// so clamps and derivations are always applied, never persisted.
type SettingsService struct {
	store   domain.SettingsStore
	current atomic.Pointer[domain.EngineSettings]

	mu        sync.Mutex
	callbacks []func(prev, next *domain.EngineSettings)
}

// NewSettingsService loads the initial snapshot from the store.
func NewSettingsService(store domain.SettingsStore) (*SettingsService, error) {
	raw, err := store.Load()
	if err != nil {
		return nil, err
	}

	s := &SettingsService{store: store}
	s.current.Store(domain.BuildSettings(raw))
	return s, nil
}

// Current returns the active settings snapshot. The pointer is immutable;
// callers keep it for the duration of one batch or cycle.
func (s *SettingsService) Current() *domain.EngineSettings {
	return s.current.Load()
}

// Update persists a partial raw update. The rebuilt snapshot propagates
// through the store's change notification, so watchers and this service see
// the same ordering.
func (s *SettingsService) Update(partial map[string]string) error {
	return s.store.Save(partial)
}

// OnChange registers a callback invoked with the previous and next snapshot
// after every store change. Callbacks run on the watch goroutine.
func (s *SettingsService) OnChange(fn func(prev, next *domain.EngineSettings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, fn)
}

// Start runs the watch loop until ctx is cancelled.
func (s *SettingsService) Start(ctx context.Context) {
	ch := s.store.Watch()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("settings watch panic recovered", slog.Any("panic", r))
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case keys, ok := <-ch:
				if !ok {
					return
				}
				s.reload(keys)
			}
		}
	}()
}

func (s *SettingsService) reload(changedKeys []string) {
	raw, err := s.store.Load()
	if err != nil {
		slog.Error("settings reload failed", slog.Any("error", err))
		return
	}

	next := domain.BuildSettings(raw)
	prev := s.current.Swap(next)

	slog.Info("settings reloaded", slog.Any("changed", changedKeys))

	s.mu.Lock()
	callbacks := make([]func(prev, next *domain.EngineSettings), len(s.callbacks))
	copy(callbacks, s.callbacks)
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn(prev, next)
	}
}
