package transport

import (
	"context"
	"sync"
	"time"
)

// ShutdownConfig configures how a listener drains open sessions.
type ShutdownConfig struct {
	// Timeout bounds the wait for open sessions. Zero means 30 seconds.
	Timeout time.Duration
}

// DefaultShutdownConfig returns the default drain settings.
func DefaultShutdownConfig() ShutdownConfig {
	return ShutdownConfig{Timeout: 30 * time.Second}
}

// ShutdownManager counts open sessions and, once draining, refuses new ones
// and reports when the last one ends.
type ShutdownManager struct {
	timeout time.Duration

	mu       sync.Mutex
	active   int64
	draining bool
	idle     chan struct{}
}

// NewShutdownManager creates a manager with no open sessions.
func NewShutdownManager(config ShutdownConfig) *ShutdownManager {
	if config.Timeout <= 0 {
		config.Timeout = DefaultShutdownConfig().Timeout
	}
	return &ShutdownManager{
		timeout: config.Timeout,
		idle:    make(chan struct{}),
	}
}

// Acquire registers a session. It returns false once draining has begun.
func (sm *ShutdownManager) Acquire() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.draining {
		return false
	}
	sm.active++
	return true
}

// Release ends a session obtained from Acquire.
func (sm *ShutdownManager) Release() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.active--
	sm.signalIdle()
}

// Active returns the number of open sessions.
func (sm *ShutdownManager) Active() int64 {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.active
}

// Draining reports whether new sessions are refused.
func (sm *ShutdownManager) Draining() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.draining
}

// Shutdown refuses new sessions and waits until the open ones end, the
// configured timeout passes, or ctx is done. It may be called more than once.
func (sm *ShutdownManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	sm.draining = true
	sm.signalIdle()
	sm.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, sm.timeout)
	defer cancel()

	select {
	case <-sm.idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once draining has begun and no sessions remain.
func (sm *ShutdownManager) Done() <-chan struct{} {
	return sm.idle
}

// signalIdle must be called with mu held.
func (sm *ShutdownManager) signalIdle() {
	if !sm.draining || sm.active > 0 {
		return
	}
	select {
	case <-sm.idle:
	default:
		close(sm.idle)
	}
}
