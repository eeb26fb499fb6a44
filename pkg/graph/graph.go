package graph

import (
	"github.com/weftlab/weft/pkg/errors"
	"github.com/weftlab/weft/pkg/ref"
)

// Graph is an immutable, queryable composition graph.
type Graph struct {
	parts             []*Part // deduplicated, discovery order
	partsByType       map[ref.TypeRef]*Part
	exportsByContract map[string][]*Export
	viewProviders     map[ref.TypeRef]*Export
}

// New builds a graph from parts and the metadata-view adapter index.
//
// Parts are deduplicated by type surrogate (first occurrence wins). The
// contract index is derived in discovery order: it is stable within the built
// graph but not guaranteed stable across rebuilds. Construction fails with
// GRAPH_CONSTRUCTION when parts or viewProviders are empty, or when a part
// carries a structurally invalid export or import.
func New(parts []*Part, viewProviders map[ref.TypeRef]*Export) (*Graph, error) {
	if len(parts) == 0 {
		return nil, errors.New(errors.ErrCodeGraphConstruction, "composition graph has no parts")
	}
	if len(viewProviders) == 0 {
		return nil, errors.New(errors.ErrCodeGraphConstruction, "composition graph has no metadata-view providers")
	}

	g := &Graph{
		partsByType:       make(map[ref.TypeRef]*Part, len(parts)),
		exportsByContract: make(map[string][]*Export),
		viewProviders:     make(map[ref.TypeRef]*Export, len(viewProviders)),
	}

	for _, p := range parts {
		if err := validatePart(p); err != nil {
			return nil, err
		}
		if _, dup := g.partsByType[p.Type]; dup {
			continue // same type surrogate collapses to the first part
		}
		g.partsByType[p.Type] = p
		g.parts = append(g.parts, p)
		for _, e := range p.Exports {
			g.exportsByContract[e.Contract] = append(g.exportsByContract[e.Contract], e)
		}
	}

	for view, adapter := range viewProviders {
		g.viewProviders[view] = adapter
	}
	return g, nil
}

func validatePart(p *Part) error {
	if p == nil {
		return errors.New(errors.ErrCodeGraphConstruction, "nil part")
	}
	if p.Type.IsZero() {
		return errors.New(errors.ErrCodeGraphConstruction, "part with zero type surrogate")
	}
	for _, e := range p.Exports {
		if e.Contract == "" {
			return errors.New(errors.ErrCodeGraphConstruction,
				"part %s declares an export with an empty contract name", p.Type)
		}
	}
	for _, im := range p.AllImports() {
		memberSet := !im.Member.IsZero()
		paramSet := !im.Parameter.IsZero()
		if memberSet == paramSet {
			return errors.New(errors.ErrCodeGraphConstruction,
				"import on part %s must have exactly one site (member or parameter)", p.Type)
		}
	}
	return nil
}

// Parts returns the graph's parts in discovery order. The returned slice is a
// copy; the parts themselves are shared and must not be mutated.
func (g *Graph) Parts() []*Part {
	out := make([]*Part, len(g.parts))
	copy(out, g.parts)
	return out
}

// ExportsFor returns the exports registered under a contract name, in
// discovery order. A nil result is a valid "no exports" outcome, not an error.
func (g *Graph) ExportsFor(contract string) []*Export {
	return g.exportsByContract[contract]
}

// PartForType returns the part with the given type surrogate.
func (g *Graph) PartForType(t ref.TypeRef) (*Part, error) {
	p, ok := g.partsByType[t]
	if !ok {
		return nil, errors.New(errors.ErrCodePartNotFound, "no part with type %s", t)
	}
	return p, nil
}

// PartFor returns the part that declares the given export.
func (g *Graph) PartFor(e *Export) (*Part, error) {
	return g.PartForType(e.Declaring)
}

// ViewProviders returns the metadata-view adapter index. The returned map is
// a copy; the exports are shared.
func (g *Graph) ViewProviders() map[ref.TypeRef]*Export {
	out := make(map[ref.TypeRef]*Export, len(g.viewProviders))
	for k, v := range g.viewProviders {
		out[k] = v
	}
	return out
}

// Equal reports graph equality: set-equality of parts (order-independent,
// keyed by type surrogate) combined with map-equality of view providers.
// Used for cache-invalidation comparison upstream, not performance-critical.
func (g *Graph) Equal(o *Graph) bool {
	if g == o {
		return true
	}
	if g == nil || o == nil {
		return false
	}
	if len(g.parts) != len(o.parts) || len(g.viewProviders) != len(o.viewProviders) {
		return false
	}
	for t, p := range g.partsByType {
		op, ok := o.partsByType[t]
		if !ok || !p.Equal(op) {
			return false
		}
	}
	for view, adapter := range g.viewProviders {
		other, ok := o.viewProviders[view]
		if !ok || !adapter.Equal(other) {
			return false
		}
	}
	return true
}
