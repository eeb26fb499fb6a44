package graph

import (
	"reflect"
	"testing"

	"github.com/weftlab/weft/pkg/errors"
	"github.com/weftlab/weft/pkg/metadata"
	"github.com/weftlab/weft/pkg/ref"
)

var (
	loggerType  = ref.Type("app/logging", "FileLogger")
	serverType  = ref.Type("app/http", "Server")
	adapterType = ref.Type("weft/views", "Adapter")
	viewType    = ref.Type("app/meta", "PartInfo")
)

// buildTestGraph assembles a small two-part graph: a logger exported under
// "logger" feeding the server's constructor import, plus a non-instantiable
// view adapter part.
func buildTestGraph(t *testing.T) (*Graph, *Export) {
	t.Helper()

	logExport := &Export{
		Contract:  "logger",
		Declaring: loggerType,
		Metadata:  map[string]metadata.Value{"level": metadata.StringVal("debug")},
	}
	logger := &Part{
		Type:      loggerType,
		Activator: ref.Constructor(loggerType, "New"),
		Exports:   []*Export{logExport},
	}

	ctor := ref.Constructor(serverType, "New")
	server := &Part{
		Type:      serverType,
		Activator: ctor,
		ActivatorImports: []*Import{{
			Parameter:   ref.Parameter(ctor, 0),
			Containing:  serverType,
			SiteType:    loggerType,
			ElementType: loggerType,
			Cardinality: ExactlyOne,
			Satisfying:  []*Export{logExport},
		}},
		Exports: []*Export{{Contract: "server", Declaring: serverType}},
	}

	adapterExport := &Export{Contract: "views/adapter", Declaring: adapterType}
	adapter := &Part{
		Type:    adapterType, // no activator: metadata-view provider only
		Exports: []*Export{adapterExport},
	}

	g, err := New([]*Part{logger, server, adapter}, map[ref.TypeRef]*Export{viewType: adapterExport})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g, logExport
}

func TestNewRejectsEmptyGraph(t *testing.T) {
	part := &Part{Type: loggerType}
	provider := map[ref.TypeRef]*Export{viewType: {Contract: "v", Declaring: adapterType}}

	if _, err := New(nil, provider); !errors.Is(err, errors.ErrCodeGraphConstruction) {
		t.Errorf("no parts: got %v, want GRAPH_CONSTRUCTION", err)
	}
	if _, err := New([]*Part{part}, nil); !errors.Is(err, errors.ErrCodeGraphConstruction) {
		t.Errorf("no providers: got %v, want GRAPH_CONSTRUCTION", err)
	}
}

func TestNewValidatesParts(t *testing.T) {
	provider := map[ref.TypeRef]*Export{viewType: {Contract: "v", Declaring: adapterType}}

	tests := []struct {
		name string
		part *Part
	}{
		{"zero type surrogate", &Part{}},
		{"empty contract", &Part{
			Type:    loggerType,
			Exports: []*Export{{Declaring: loggerType}},
		}},
		{"import without site", &Part{
			Type:          loggerType,
			MemberImports: []*Import{{Containing: loggerType}},
		}},
		{"import with both sites", &Part{
			Type: loggerType,
			MemberImports: []*Import{{
				Member:     ref.Field(loggerType, "Out"),
				Parameter:  ref.Parameter(ref.Constructor(loggerType, "New"), 0),
				Containing: loggerType,
			}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New([]*Part{tt.part}, provider)
			if !errors.Is(err, errors.ErrCodeGraphConstruction) {
				t.Errorf("got %v, want GRAPH_CONSTRUCTION", err)
			}
		})
	}
}

func TestDuplicatePartsCollapse(t *testing.T) {
	first := &Part{Type: loggerType, SharingBoundary: "app"}
	second := &Part{Type: loggerType} // same surrogate, collapses into first

	g, err := New([]*Part{first, second},
		map[ref.TypeRef]*Export{viewType: {Contract: "v", Declaring: adapterType}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if len(g.Parts()) != 1 {
		t.Fatalf("parts = %d, want 1", len(g.Parts()))
	}
	p, err := g.PartForType(loggerType)
	if err != nil {
		t.Fatal(err)
	}
	if p != first {
		t.Error("first occurrence should win")
	}
}

func TestLookups(t *testing.T) {
	g, logExport := buildTestGraph(t)

	exports := g.ExportsFor("logger")
	if len(exports) != 1 || exports[0] != logExport {
		t.Errorf("ExportsFor(logger) = %v", exports)
	}
	if got := g.ExportsFor("unknown"); got != nil {
		t.Errorf("ExportsFor(unknown) = %v, want nil", got)
	}

	p, err := g.PartForType(serverType)
	if err != nil || p.Type != serverType {
		t.Errorf("PartForType(server) = %v, %v", p, err)
	}
	if _, err := g.PartForType(ref.Type("gone", "Type")); !errors.Is(err, errors.ErrCodePartNotFound) {
		t.Errorf("missing part: got %v, want PART_NOT_FOUND", err)
	}

	owner, err := g.PartFor(logExport)
	if err != nil || owner.Type != loggerType {
		t.Errorf("PartFor(logExport) = %v, %v", owner, err)
	}
}

func TestGraphEquality(t *testing.T) {
	g1, _ := buildTestGraph(t)
	g2, _ := buildTestGraph(t)

	if !g1.Equal(g2) {
		t.Error("independently built identical graphs should be equal")
	}

	// Part order must not matter.
	parts := g2.Parts()
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	g3, err := New(parts, g2.ViewProviders())
	if err != nil {
		t.Fatal(err)
	}
	if !g1.Equal(g3) {
		t.Error("part order should not affect equality")
	}

	// A metadata difference must.
	g4, _ := buildTestGraph(t)
	g4.ExportsFor("logger")[0].Metadata["level"] = metadata.StringVal("error")
	if g1.Equal(g4) {
		t.Error("metadata difference should break equality")
	}
}

func TestBuilder(t *testing.T) {
	adapterExport := &Export{Contract: "views/adapter", Declaring: adapterType}

	if _, err := NewBuilder().Build(); !errors.Is(err, errors.ErrCodeGraphConstruction) {
		t.Errorf("empty builder: got %v, want GRAPH_CONSTRUCTION", err)
	}

	g, err := NewBuilder().
		AddPart(&Part{Type: adapterType, Exports: []*Export{adapterExport}}).
		AddViewProvider(viewType, adapterExport).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(g.Parts()) != 1 {
		t.Errorf("parts = %d, want 1", len(g.Parts()))
	}
}

type fileLogger struct {
	Path string
}

func (l *fileLogger) Writer() *fileLogger { return l }

func TestExportValueType(t *testing.T) {
	rt := ref.NewRuntime()
	rt.RegisterType(loggerType, reflect.TypeOf(&fileLogger{}))

	// Instance export: value type is the declaring type.
	self := &Export{Contract: "logger", Declaring: loggerType}
	got, err := self.ValueType(rt)
	if err != nil {
		t.Fatalf("ValueType: %v", err)
	}
	if got != reflect.TypeOf(&fileLogger{}) {
		t.Errorf("value type = %v", got)
	}

	// Field export: the member's type.
	field := &Export{Contract: "path", Declaring: loggerType, Member: ref.Field(loggerType, "Path")}
	got, err = field.ValueType(rt)
	if err != nil {
		t.Fatalf("ValueType(field): %v", err)
	}
	if got.Kind() != reflect.String {
		t.Errorf("field value type = %v", got)
	}

	// Method export: the first result type.
	method := &Export{Contract: "writer", Declaring: loggerType, Member: ref.Method(loggerType, "Writer")}
	got, err = method.ValueType(rt)
	if err != nil {
		t.Fatalf("ValueType(method): %v", err)
	}
	if got != reflect.TypeOf(&fileLogger{}) {
		t.Errorf("method value type = %v", got)
	}

	// Unresolvable: cached error, stable across calls.
	orphan := &Export{Contract: "x", Declaring: ref.Type("gone", "T")}
	if _, err := orphan.ValueType(rt); !errors.Is(err, errors.ErrCodeUnresolvedReference) {
		t.Errorf("orphan: got %v", err)
	}
	if _, err2 := orphan.ValueType(rt); !errors.Is(err2, errors.ErrCodeUnresolvedReference) {
		t.Errorf("cached orphan: got %v", err2)
	}
}
