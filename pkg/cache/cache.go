// Package cache stores compiled composition-graph snapshots so a process can
// skip recompilation when the source composition is unchanged. Backends share
// one Store interface; keys are content-addressed from a fingerprint of the
// source composition.
package cache

import (
	"context"
	"time"
)

// Store is a byte-level snapshot store.
//
// Get reports a miss with ok=false and a nil error; errors are reserved for
// backend failures. An expired entry is a miss.
type Store interface {
	// Get retrieves a value from the store.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)

	// Set stores a value. A non-positive ttl stores it without expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
