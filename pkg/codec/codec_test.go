package codec_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftlab/weft/pkg/codec"
	"github.com/weftlab/weft/pkg/errors"
	"github.com/weftlab/weft/pkg/graph"
	"github.com/weftlab/weft/pkg/metadata"
	"github.com/weftlab/weft/pkg/ref"
)

// buildSnapshotGraph assembles a graph exercising every wire feature: an
// instantiable shared part with a constructor import, a field-exporting part,
// a view provider, and a metadata map shared between two exports.
func buildSnapshotGraph(t *testing.T) *graph.Graph {
	t.Helper()

	loggerType := ref.Type("app", "Logger")
	serverType := ref.Type("app", "Server")
	adapterType := ref.Type("app", "LegacyAdapter")
	viewType := ref.Type("app", "StatusView")

	sharedMeta := map[string]metadata.Value{
		"tier":   metadata.StringVal("core"),
		"weight": metadata.Int32Val(10),
	}

	loggerExport := &graph.Export{
		Contract:  "logger",
		Declaring: loggerType,
		Metadata:  sharedMeta,
	}
	sinkExport := &graph.Export{
		Contract:  "log.sink",
		Declaring: loggerType,
		Member:    ref.Field(loggerType, "Sink"),
		Metadata:  sharedMeta,
	}
	adapterExport := &graph.Export{
		Contract:  "status.view",
		Declaring: adapterType,
	}

	loggerPart := &graph.Part{
		Type:            loggerType,
		Activator:       ref.Constructor(loggerType, "NewLogger"),
		Exports:         []*graph.Export{loggerExport, sinkExport},
		SharingBoundary: "app",
	}
	serverPart := &graph.Part{
		Type:      serverType,
		Activator: ref.Constructor(serverType, "NewServer"),
		ActivatorImports: []*graph.Import{{
			Parameter:   ref.Parameter(ref.Constructor(serverType, "NewServer"), 0),
			Containing:  serverType,
			SiteType:    loggerType,
			ElementType: loggerType,
			Cardinality: graph.ExactlyOne,
			Satisfying:  []*graph.Export{loggerExport},
			Requirements: map[string]metadata.Value{
				"tier": metadata.StringVal("core"),
			},
		}},
		MemberImports: []*graph.Import{{
			Member:            ref.Field(serverType, "Sinks"),
			Containing:        serverType,
			SiteType:          ref.Type("app", "SinkList"),
			ElementType:       loggerType,
			Cardinality:       graph.ZeroOrMany,
			Factory:           true,
			FactoryBoundaries: []string{"request"},
			Satisfying:        []*graph.Export{sinkExport},
		}},
		OnActivated: []ref.MemberRef{ref.Method(serverType, "OnReady")},
		Exports: []*graph.Export{{
			Contract:  "server",
			Declaring: serverType,
		}},
	}
	adapterPart := &graph.Part{
		Type:    adapterType,
		Exports: []*graph.Export{adapterExport},
	}

	g, err := graph.New(
		[]*graph.Part{loggerPart, serverPart, adapterPart},
		map[ref.TypeRef]*graph.Export{viewType: adapterExport},
	)
	require.NoError(t, err)
	return g
}

func findPart(t *testing.T, g *graph.Graph, module, name string) *graph.Part {
	t.Helper()
	p, err := g.PartForType(ref.Type(module, name))
	require.NoError(t, err)
	return p
}

func TestRoundTrip(t *testing.T) {
	g := buildSnapshotGraph(t)

	data, err := codec.Marshal(g)
	require.NoError(t, err)

	decoded, err := codec.Unmarshal(data)
	require.NoError(t, err)
	assert.True(t, decoded.Equal(g), "decoded graph differs from original")
	assert.True(t, g.Equal(decoded))
}

func TestRoundTripPreservesExportIdentity(t *testing.T) {
	g := buildSnapshotGraph(t)

	data, err := codec.Marshal(g)
	require.NoError(t, err)
	decoded, err := codec.Unmarshal(data)
	require.NoError(t, err)

	logger := findPart(t, decoded, "app", "Logger")
	server := findPart(t, decoded, "app", "Server")

	// The export declared on the logger part and the one satisfying the
	// server's constructor import must be the same object, not two equal
	// copies.
	require.Len(t, server.ActivatorImports, 1)
	require.Len(t, server.ActivatorImports[0].Satisfying, 1)
	assert.Same(t, logger.Exports[0], server.ActivatorImports[0].Satisfying[0])

	require.Len(t, server.MemberImports, 1)
	require.Len(t, server.MemberImports[0].Satisfying, 1)
	assert.Same(t, logger.Exports[1], server.MemberImports[0].Satisfying[0])

	adapter := findPart(t, decoded, "app", "LegacyAdapter")
	assert.Same(t, adapter.Exports[0], decoded.ViewProviders()[ref.Type("app", "StatusView")])
}

func TestRoundTripPreservesMetadataMapIdentity(t *testing.T) {
	g := buildSnapshotGraph(t)

	data, err := codec.Marshal(g)
	require.NoError(t, err)
	decoded, err := codec.Unmarshal(data)
	require.NoError(t, err)

	logger := findPart(t, decoded, "app", "Logger")
	m1, m2 := logger.Exports[0].Metadata, logger.Exports[1].Metadata
	require.NotNil(t, m1)

	// Both exports carried the same map instance; mutating one must be
	// visible through the other after decode.
	m1["probe"] = metadata.BoolVal(true)
	_, ok := m2["probe"]
	assert.True(t, ok, "metadata map instance was duplicated during decode")
}

func TestRoundTripMutualSatisfaction(t *testing.T) {
	aType := ref.Type("app", "Broker")
	bType := ref.Type("app", "Dispatcher")

	aExport := &graph.Export{Contract: "broker", Declaring: aType}
	bExport := &graph.Export{Contract: "dispatcher", Declaring: bType}

	a := &graph.Part{
		Type:      aType,
		Activator: ref.Constructor(aType, "NewBroker"),
		Exports:   []*graph.Export{aExport},
		MemberImports: []*graph.Import{{
			Member:      ref.Field(aType, "Dispatcher"),
			Containing:  aType,
			SiteType:    bType,
			ElementType: bType,
			Satisfying:  []*graph.Export{bExport},
		}},
	}
	b := &graph.Part{
		Type:      bType,
		Activator: ref.Constructor(bType, "NewDispatcher"),
		Exports:   []*graph.Export{bExport},
		MemberImports: []*graph.Import{{
			Member:      ref.Field(bType, "Broker"),
			Containing:  bType,
			SiteType:    aType,
			ElementType: aType,
			Satisfying:  []*graph.Export{aExport},
		}},
	}

	g, err := graph.New([]*graph.Part{a, b}, map[ref.TypeRef]*graph.Export{
		ref.Type("app", "BrokerView"): aExport,
	})
	require.NoError(t, err)

	data, err := codec.Marshal(g)
	require.NoError(t, err)
	decoded, err := codec.Unmarshal(data)
	require.NoError(t, err)
	require.True(t, decoded.Equal(g))

	da := findPart(t, decoded, "app", "Broker")
	db := findPart(t, decoded, "app", "Dispatcher")
	assert.Same(t, da.Exports[0], db.MemberImports[0].Satisfying[0])
	assert.Same(t, db.Exports[0], da.MemberImports[0].Satisfying[0])
}

func TestMarshalDeterministic(t *testing.T) {
	g := buildSnapshotGraph(t)

	first, err := codec.Marshal(g)
	require.NoError(t, err)
	second, err := codec.Marshal(g)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMarshalNilGraph(t *testing.T) {
	_, err := codec.Marshal(nil)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestUnmarshalRejectsBadHeader(t *testing.T) {
	g := buildSnapshotGraph(t)
	data, err := codec.Marshal(g)
	require.NoError(t, err)

	t.Run("bad magic", func(t *testing.T) {
		corrupt := bytes.Clone(data)
		corrupt[0] = 'X'
		_, err := codec.Unmarshal(corrupt)
		assert.True(t, errors.Is(err, errors.ErrCodeSchemaMismatch), "got %v", err)
	})

	t.Run("future version", func(t *testing.T) {
		corrupt := bytes.Clone(data)
		corrupt[4] = 0xFF
		_, err := codec.Unmarshal(corrupt)
		assert.True(t, errors.Is(err, errors.ErrCodeSchemaMismatch), "got %v", err)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := codec.Unmarshal(nil)
		assert.True(t, errors.Is(err, errors.ErrCodeSchemaMismatch), "got %v", err)
	})

	t.Run("trailing bytes", func(t *testing.T) {
		_, err := codec.Unmarshal(append(bytes.Clone(data), 0x00))
		assert.True(t, errors.Is(err, errors.ErrCodeSchemaMismatch), "got %v", err)
	})
}

func TestUnmarshalTruncated(t *testing.T) {
	g := buildSnapshotGraph(t)
	data, err := codec.Marshal(g)
	require.NoError(t, err)

	// Every proper prefix must fail cleanly, never panic or succeed.
	for i := 0; i < len(data); i++ {
		_, err := codec.Unmarshal(data[:i])
		require.Error(t, err, "prefix of %d bytes decoded successfully", i)
	}
}

func TestUnmarshalCorruptedBytesNeverPanic(t *testing.T) {
	g := buildSnapshotGraph(t)
	data, err := codec.Marshal(g)
	require.NoError(t, err)

	// Flipping any single byte may or may not produce a decodable snapshot,
	// but it must never crash the decoder.
	for i := range data {
		corrupt := bytes.Clone(data)
		corrupt[i] ^= 0xFF
		_, _ = codec.Unmarshal(corrupt)
	}

	// A wrong record arity byte is a schema mismatch, not a generic failure.
	// Offset 6 is the graph arity, right after the magic and version.
	corrupt := bytes.Clone(data)
	corrupt[6] ^= 0xFF
	_, err = codec.Unmarshal(corrupt)
	assert.True(t, errors.Is(err, errors.ErrCodeSchemaMismatch), "got %v", err)
}

func TestUnmarshalRejectsHugeDeclaredCount(t *testing.T) {
	g := buildSnapshotGraph(t)
	data, err := codec.Marshal(g)
	require.NoError(t, err)

	// Replace the part count with a varint above MaxInt64. The decoder must
	// run out of input and report it, not size an allocation to the claim.
	hostile := bytes.Clone(data[:7])
	hostile = binary.AppendUvarint(hostile, 1<<63)

	_, err = codec.Unmarshal(hostile)
	assert.True(t, errors.Is(err, errors.ErrCodeSchemaMismatch), "got %v", err)
}

func TestStreamingRoundTrip(t *testing.T) {
	g := buildSnapshotGraph(t)

	var c codec.Codec
	var buf bytes.Buffer
	require.NoError(t, c.MarshalTo(&buf, g))

	decoded, err := c.UnmarshalFrom(&buf)
	require.NoError(t, err)
	assert.True(t, decoded.Equal(g))
}
