package graph

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/weftlab/weft/pkg/errors"
	"github.com/weftlab/weft/pkg/metadata"
	"github.com/weftlab/weft/pkg/ref"
)

// =============================================================================
// Cardinality
// =============================================================================

// Cardinality declares how many exports may satisfy an import site.
type Cardinality uint8

const (
	// ExactlyOne requires a single satisfying export.
	ExactlyOne Cardinality = iota
	// ZeroOrOne permits an unsatisfied site.
	ZeroOrOne
	// ZeroOrMany accepts any number of satisfying exports.
	ZeroOrMany
)

// String returns the cardinality name for diagnostics.
func (c Cardinality) String() string {
	switch c {
	case ExactlyOne:
		return "ExactlyOne"
	case ZeroOrOne:
		return "ZeroOrOne"
	case ZeroOrMany:
		return "ZeroOrMany"
	default:
		return fmt.Sprintf("Cardinality(%d)", uint8(c))
	}
}

// =============================================================================
// Export
// =============================================================================

// Export is a named, typed value a part makes available under a contract.
// The same *Export instance is shared between its declaring part's export
// list and the satisfaction lists of the imports it was matched to; identity
// matters and is preserved by the snapshot codec.
type Export struct {
	// Contract is the non-empty name imports look the export up by.
	Contract string
	// Declaring identifies the part that contributes this export.
	Declaring ref.TypeRef
	// Member is the exporting field or method; the zero value means the
	// part instance itself is the exported value.
	Member ref.MemberRef
	// Metadata carries the export's typed metadata map, in substituted form.
	Metadata map[string]metadata.Value

	valueTypeOnce sync.Once
	valueType     reflect.Type
	valueTypeErr  error
}

// FromMember reports whether the export is supplied by a member rather than
// the part instance itself.
func (e *Export) FromMember() bool { return !e.Member.IsZero() }

// ValueType resolves the exported value's runtime type: the declaring type
// when the part instance itself is exported, otherwise the member's value
// type. The result is computed on first call and cached.
func (e *Export) ValueType(rt *ref.Runtime) (reflect.Type, error) {
	e.valueTypeOnce.Do(func() {
		if !e.FromMember() {
			e.valueType, e.valueTypeErr = rt.ResolveType(e.Declaring)
			return
		}
		switch e.Member.Kind {
		case ref.MemberField:
			f, err := rt.ResolveField(e.Member)
			if err != nil {
				e.valueTypeErr = err
				return
			}
			e.valueType = f.Type
		case ref.MemberMethod:
			m, err := rt.ResolveMethod(e.Member)
			if err != nil {
				e.valueTypeErr = err
				return
			}
			if m.Type.NumOut() == 0 {
				e.valueTypeErr = errors.New(errors.ErrCodeUnresolvedReference,
					"exporting method %s returns nothing", e.Member)
				return
			}
			e.valueType = m.Type.Out(0)
		default:
			e.valueTypeErr = errors.New(errors.ErrCodeUnresolvedReference,
				"export member %s has unknown kind", e.Member)
		}
	})
	return e.valueType, e.valueTypeErr
}

// Equal reports structural equality of two exports.
func (e *Export) Equal(o *Export) bool {
	if e == o {
		return true
	}
	if e == nil || o == nil {
		return false
	}
	return e.Contract == o.Contract &&
		e.Declaring == o.Declaring &&
		e.Member == o.Member &&
		metadata.MapsEqual(e.Metadata, o.Metadata)
}

// =============================================================================
// Import
// =============================================================================

// Import is a declared dependency site on a part. Exactly one of Member and
// Parameter is set: either a struct member populated after construction or a
// positional constructor argument.
type Import struct {
	// Member is the field/method site; zero when Parameter is set.
	Member ref.MemberRef
	// Parameter is the constructor-argument site; zero when Member is set.
	Parameter ref.ParameterRef
	// Containing identifies the importing part's type.
	Containing ref.TypeRef
	// SiteType is the site's declared type as written.
	SiteType ref.TypeRef
	// ElementType is SiteType with any collection or laziness wrapping
	// stripped; equal to SiteType for plain sites.
	ElementType ref.TypeRef
	// Cardinality constrains how many exports may satisfy the site.
	Cardinality Cardinality
	// Satisfying is the resolved export list selected at graph-build time.
	// It may be empty only if the cardinality permits it.
	Satisfying []*Export
	// ForceNonShared demands a fresh instance of the target part even when
	// that part declares a sharing boundary.
	ForceNonShared bool
	// Factory marks the site as factory-style: it imports an invoker that
	// produces new instances on demand rather than a value.
	Factory bool
	// FactoryBoundaries are the sharing-boundary names newly created on
	// each factory invocation.
	FactoryBoundaries []string
	// Requirements is the metadata requirement map attached to the site.
	Requirements map[string]metadata.Value
}

// IsParameter reports whether the site is a constructor argument.
func (im *Import) IsParameter() bool { return !im.Parameter.IsZero() }

// Site returns a human-readable description of the import site.
func (im *Import) Site() string {
	if im.IsParameter() {
		return im.Parameter.String()
	}
	return im.Member.String()
}

// Equal reports structural equality of two imports. Satisfying exports are
// compared by export equality in order.
func (im *Import) Equal(o *Import) bool {
	if im == o {
		return true
	}
	if im == nil || o == nil {
		return false
	}
	if im.Member != o.Member ||
		im.Parameter != o.Parameter ||
		im.Containing != o.Containing ||
		im.SiteType != o.SiteType ||
		im.ElementType != o.ElementType ||
		im.Cardinality != o.Cardinality ||
		im.ForceNonShared != o.ForceNonShared ||
		im.Factory != o.Factory {
		return false
	}
	if len(im.FactoryBoundaries) != len(o.FactoryBoundaries) {
		return false
	}
	for i := range im.FactoryBoundaries {
		if im.FactoryBoundaries[i] != o.FactoryBoundaries[i] {
			return false
		}
	}
	if len(im.Satisfying) != len(o.Satisfying) {
		return false
	}
	for i := range im.Satisfying {
		if !im.Satisfying[i].Equal(o.Satisfying[i]) {
			return false
		}
	}
	return metadata.MapsEqual(im.Requirements, o.Requirements)
}

// =============================================================================
// Part
// =============================================================================

// Part is one composable unit: what it exports, what it imports, and how it
// is activated. The type surrogate is the part's unique key within a graph.
type Part struct {
	// Type identifies the part; two parts with the same surrogate collapse
	// into one at graph construction.
	Type ref.TypeRef
	// Activator is the constructor or static factory surrogate. The zero
	// value means the part can never be instantiated (it may still serve
	// as a metadata-view adapter).
	Activator ref.MethodRef
	// ActivatorImports are the ordered constructor-argument imports.
	ActivatorImports []*Import
	// MemberImports are populated after construction.
	MemberImports []*Import
	// Exports are the values this part contributes.
	Exports []*Export
	// OnActivated are callback methods invoked after all imports are
	// satisfied.
	OnActivated []ref.MemberRef
	// SharingBoundary names the scope within which at most one instance
	// exists; empty means a fresh instance per request.
	SharingBoundary string
}

// Instantiable reports whether the part has an activation method.
func (p *Part) Instantiable() bool { return !p.Activator.IsZero() }

// Shared reports whether the part declares a sharing boundary.
func (p *Part) Shared() bool { return p.SharingBoundary != "" }

// AllImports returns constructor-argument imports followed by member imports.
func (p *Part) AllImports() []*Import {
	out := make([]*Import, 0, len(p.ActivatorImports)+len(p.MemberImports))
	out = append(out, p.ActivatorImports...)
	return append(out, p.MemberImports...)
}

// Equal reports structural equality of two parts.
func (p *Part) Equal(o *Part) bool {
	if p == o {
		return true
	}
	if p == nil || o == nil {
		return false
	}
	if p.Type != o.Type || p.Activator != o.Activator || p.SharingBoundary != o.SharingBoundary {
		return false
	}
	if len(p.OnActivated) != len(o.OnActivated) {
		return false
	}
	for i := range p.OnActivated {
		if p.OnActivated[i] != o.OnActivated[i] {
			return false
		}
	}
	if len(p.Exports) != len(o.Exports) {
		return false
	}
	for i := range p.Exports {
		if !p.Exports[i].Equal(o.Exports[i]) {
			return false
		}
	}
	if len(p.ActivatorImports) != len(o.ActivatorImports) || len(p.MemberImports) != len(o.MemberImports) {
		return false
	}
	for i := range p.ActivatorImports {
		if !p.ActivatorImports[i].Equal(o.ActivatorImports[i]) {
			return false
		}
	}
	for i := range p.MemberImports {
		if !p.MemberImports[i].Equal(o.MemberImports[i]) {
			return false
		}
	}
	return true
}
