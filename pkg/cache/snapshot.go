package cache

import (
	"context"
	"time"

	"github.com/weftlab/weft/pkg/codec"
	"github.com/weftlab/weft/pkg/graph"
	"github.com/weftlab/weft/pkg/observability"
)

// Snapshots pairs a Store with the graph codec. Load treats a snapshot that
// fails to decode as invalid: the entry is evicted and the caller rebuilds
// from the source composition, which is the designed recovery path.
type Snapshots struct {
	store Store
	codec codec.Codec
	ttl   time.Duration
}

// NewSnapshots wraps a store. A non-positive ttl stores entries without
// expiry.
func NewSnapshots(store Store, ttl time.Duration) *Snapshots {
	return &Snapshots{store: store, ttl: ttl}
}

// key derives the store key for a source-composition fingerprint.
func (s *Snapshots) key(fingerprint []byte) string {
	return Key("weft:graph", fingerprint)
}

// Load retrieves and decodes the graph cached for a fingerprint. A missing
// entry and an undecodable entry both report ok=false with a nil error; the
// undecodable entry is evicted on the way out.
func (s *Snapshots) Load(ctx context.Context, fingerprint []byte) (*graph.Graph, bool, error) {
	key := s.key(fingerprint)
	data, ok, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		observability.Cache().OnCacheMiss(ctx, key)
		return nil, false, nil
	}

	g, err := s.codec.Unmarshal(data)
	if err != nil {
		_ = s.store.Delete(ctx, key)
		observability.Cache().OnCacheEvict(ctx, key, err)
		return nil, false, nil
	}
	observability.Cache().OnCacheHit(ctx, key)
	return g, true, nil
}

// Save encodes a graph and stores it under the fingerprint's key.
func (s *Snapshots) Save(ctx context.Context, fingerprint []byte, g *graph.Graph) error {
	data, err := s.codec.Marshal(g)
	if err != nil {
		return err
	}
	key := s.key(fingerprint)
	if err := s.store.Set(ctx, key, data, s.ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, key, len(data))
	return nil
}

// Invalidate drops the entry for a fingerprint.
func (s *Snapshots) Invalidate(ctx context.Context, fingerprint []byte) error {
	return s.store.Delete(ctx, s.key(fingerprint))
}
