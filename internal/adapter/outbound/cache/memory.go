// Package cache provides outbound.ResultCache adapters.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/textguard/textguard/internal/domain/guard"
	"github.com/textguard/textguard/internal/port/outbound"
)

type entry struct {
	result   guard.CheckResult
	expireAt time.Time
}

// Memory is an in-process outbound.ResultCache keyed by text fingerprint,
// with a background janitor goroutine that evicts expired entries so the
// map does not grow unbounded when Get is never called again for a stale
// key.
type Memory struct {
	mu      sync.Mutex
	entries map[string]entry

	cleanupInterval time.Duration
	stopChan        chan struct{}
	wg              sync.WaitGroup
	once            sync.Once
}

// NewMemory creates a Memory cache with a 1-minute janitor sweep interval.
func NewMemory() *Memory {
	return NewMemoryWithInterval(1 * time.Minute)
}

// NewMemoryWithInterval creates a Memory cache with a custom janitor sweep
// interval.
func NewMemoryWithInterval(cleanupInterval time.Duration) *Memory {
	return &Memory{
		entries:         make(map[string]entry),
		cleanupInterval: cleanupInterval,
		stopChan:        make(chan struct{}),
	}
}

// Get returns the cached result for fingerprint if present and unexpired.
func (m *Memory) Get(_ context.Context, fingerprint string) (guard.CheckResult, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[fingerprint]
	if !ok || time.Now().After(e.expireAt) {
		return guard.CheckResult{}, false
	}
	return e.result, true
}

// Put stores result under fingerprint with the given time-to-live.
func (m *Memory) Put(_ context.Context, fingerprint string, result guard.CheckResult, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[fingerprint] = entry{result: result, expireAt: time.Now().Add(ttl)}
}

// StartJanitor starts the background goroutine that evicts expired entries.
// It stops when ctx is cancelled or Stop is called.
func (m *Memory) StartJanitor(ctx context.Context) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-m.stopChan:
				return
			case <-ticker.C:
				m.sweep()
			}
		}
	}()
}

func (m *Memory) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	cleaned := 0
	for key, e := range m.entries {
		if now.After(e.expireAt) {
			delete(m.entries, key)
			cleaned++
		}
	}
	if cleaned > 0 {
		slog.Debug("result cache janitor swept expired entries", "cleaned", cleaned, "remaining", len(m.entries))
	}
}

// Stop gracefully stops the janitor goroutine. Safe to call multiple times.
func (m *Memory) Stop() {
	m.once.Do(func() {
		close(m.stopChan)
	})
	m.wg.Wait()
}

// Size returns the current number of tracked entries, expired or not.
func (m *Memory) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

var _ outbound.ResultCache = (*Memory)(nil)
