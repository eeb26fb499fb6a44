package graph

import "github.com/weftlab/weft/pkg/ref"

// Builder accumulates parts and view providers for internal graph
// transformations. It exists so that intermediate, partially-assembled state
// never leaks out as a Graph: the only way to materialize is Build, which
// goes through the validating constructor.
type Builder struct {
	parts     []*Part
	providers map[ref.TypeRef]*Export
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{providers: make(map[ref.TypeRef]*Export)}
}

// AddPart appends a part. Duplicate type surrogates collapse at Build time.
func (b *Builder) AddPart(p *Part) *Builder {
	b.parts = append(b.parts, p)
	return b
}

// AddViewProvider registers the adapter export for a metadata-view type.
func (b *Builder) AddViewProvider(view ref.TypeRef, adapter *Export) *Builder {
	b.providers[view] = adapter
	return b
}

// Build materializes the graph through the validating constructor.
func (b *Builder) Build() (*Graph, error) {
	return New(b.parts, b.providers)
}
