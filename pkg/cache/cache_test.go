package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/weftlab/weft/pkg/graph"
	"github.com/weftlab/weft/pkg/ref"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if _, ok, err := store.Get(ctx, "absent"); err != nil || ok {
		t.Fatalf("Get(absent) = ok=%v err=%v, want miss", ok, err)
	}

	payload := []byte("snapshot bytes")
	if err := store.Set(ctx, "k", payload, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, ok, err := store.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Get = ok=%v err=%v, want hit", ok, err)
	}
	if string(data) != string(payload) {
		t.Errorf("Get = %q, want %q", data, payload)
	}

	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Error("Get after Delete still hits")
	}
	if err := store.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete of absent key: %v", err)
	}
}

func TestFileStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if err := store.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if _, ok, err := store.Get(ctx, "k"); err != nil || ok {
		t.Errorf("expired entry: ok=%v err=%v, want miss", ok, err)
	}
}

func TestFileStoreCorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if err := store.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		return os.WriteFile(path, []byte("not json"), 0644)
	}); err != nil {
		t.Fatalf("corrupting entry: %v", err)
	}

	if _, ok, err := store.Get(ctx, "k"); err != nil || ok {
		t.Errorf("corrupt entry: ok=%v err=%v, want miss", ok, err)
	}
}

func TestFileStoreClear(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	for _, k := range []string{"a", "b", "c"} {
		if err := store.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatalf("Set(%s): %v", k, err)
		}
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if _, ok, _ := store.Get(ctx, k); ok {
			t.Errorf("Get(%s) hits after Clear", k)
		}
	}
}

func TestNullStore(t *testing.T) {
	ctx := context.Background()
	store := NewNullStore()

	if err := store.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok, err := store.Get(ctx, "k"); err != nil || ok {
		t.Errorf("null store must always miss, got ok=%v err=%v", ok, err)
	}
}

func TestKeyFormat(t *testing.T) {
	k := Key("weft:graph", []byte("fingerprint"))
	if len(k) != len("weft:graph:")+64 {
		t.Errorf("Key length = %d, want prefix plus 64 hex chars", len(k))
	}
	if k[:11] != "weft:graph:" {
		t.Errorf("Key prefix = %q", k[:11])
	}
	if k != Key("weft:graph", []byte("fingerprint")) {
		t.Error("Key is not deterministic")
	}
}

func snapshotTestGraph(t *testing.T) *graph.Graph {
	t.Helper()
	partType := ref.Type("app", "Widget")
	export := &graph.Export{Contract: "widget", Declaring: partType}
	g, err := graph.New(
		[]*graph.Part{{
			Type:      partType,
			Activator: ref.Constructor(partType, "New"),
			Exports:   []*graph.Export{export},
		}},
		map[ref.TypeRef]*graph.Export{ref.Type("app", "WidgetView"): export},
	)
	if err != nil {
		t.Fatalf("graph.New: %v", err)
	}
	return g
}

func TestSnapshotsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	snaps := NewSnapshots(store, 0)
	g := snapshotTestGraph(t)
	fp := []byte("composition-v1")

	if _, ok, err := snaps.Load(ctx, fp); err != nil || ok {
		t.Fatalf("Load before Save: ok=%v err=%v, want miss", ok, err)
	}
	if err := snaps.Save(ctx, fp, g); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, ok, err := snaps.Load(ctx, fp)
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v, want hit", ok, err)
	}
	if !loaded.Equal(g) {
		t.Error("loaded graph differs from saved graph")
	}

	if err := snaps.Invalidate(ctx, fp); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, ok, _ := snaps.Load(ctx, fp); ok {
		t.Error("Load hits after Invalidate")
	}
}

func TestSnapshotsEvictUndecodable(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	snaps := NewSnapshots(store, 0)
	fp := []byte("composition-v1")

	// Plant garbage where a snapshot should be; Load must report a miss and
	// evict the entry so the rebuild path takes over.
	if err := store.Set(ctx, snaps.key(fp), []byte("garbage"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok, err := snaps.Load(ctx, fp); err != nil || ok {
		t.Fatalf("Load of garbage: ok=%v err=%v, want clean miss", ok, err)
	}
	if _, ok, _ := store.Get(ctx, snaps.key(fp)); ok {
		t.Error("undecodable entry was not evicted")
	}
}
