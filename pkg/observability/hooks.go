// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register hooks
// at startup to receive events about snapshot-cache operations and part
// activations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    observability.SetActivationHooks(&myActivationHooks{})
//	    // ... run application
//	}
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from snapshot-cache operations.
type CacheHooks interface {
	// OnCacheHit records a decodable cached snapshot.
	OnCacheHit(ctx context.Context, key string)

	// OnCacheMiss records an absent snapshot.
	OnCacheMiss(ctx context.Context, key string)

	// OnCacheSet records a snapshot write.
	OnCacheSet(ctx context.Context, key string, size int)

	// OnCacheEvict records the eviction of an undecodable snapshot.
	OnCacheEvict(ctx context.Context, key string, reason error)
}

// =============================================================================
// Activation Hooks
// =============================================================================

// ActivationHooks receives events from the activation engine's callers.
type ActivationHooks interface {
	// OnActivation records one completed activation request.
	OnActivation(ctx context.Context, contract string, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)          {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)         {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int)     {}
func (NoopCacheHooks) OnCacheEvict(context.Context, string, error) {}

// NoopActivationHooks is a no-op implementation of ActivationHooks.
type NoopActivationHooks struct{}

func (NoopActivationHooks) OnActivation(context.Context, string, time.Duration, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	cacheHooks      CacheHooks      = NoopCacheHooks{}
	activationHooks ActivationHooks = NoopActivationHooks{}
	hooksMu         sync.RWMutex
)

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetActivationHooks registers custom activation hooks.
// This should be called once at application startup.
func SetActivationHooks(h ActivationHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		activationHooks = h
	}
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Activation returns the registered activation hooks.
func Activation() ActivationHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return activationHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	cacheHooks = NoopCacheHooks{}
	activationHooks = NoopActivationHooks{}
}
