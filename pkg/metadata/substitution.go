package metadata

import (
	"reflect"
	"sort"
	"sync"

	"github.com/weftlab/weft/pkg/errors"
	"github.com/weftlab/weft/pkg/ref"
)

// =============================================================================
// Substitution
// =============================================================================

// Substitute returns a copy of m with every concrete resolved-type value,
// array of resolved types, and boxed enum rewritten into surrogate
// substitution form, so that encoding the result never touches a live handle.
//
// Substitution-form values pass through unchanged, which makes Substitute
// idempotent: a map that was already substituted (for example one produced by
// decode and passed back in) wraps to an equal map rather than being
// double-substituted.
func Substitute(m map[string]Value) map[string]Value {
	out := make(map[string]Value, len(m))
	for k, v := range m {
		out[k] = substituteValue(v)
	}
	return out
}

// substituteValue canonicalizes one value into substitution form.
func substituteValue(v Value) Value {
	switch v.kind {
	case KindResolvedType:
		return TypeSubVal(v.typ)
	case KindArray:
		if allResolvedTypes(v.values) {
			refs := make([]ref.TypeRef, len(v.values))
			for i, el := range v.values {
				refs[i] = el.typ
			}
			return TypeArraySubVal(refs...)
		}
		values := make([]Value, len(v.values))
		for i, el := range v.values {
			values[i] = substituteValue(el)
		}
		return ArrayVal(v.typ, values...)
	default:
		// All remaining kinds, including the substitution kinds themselves,
		// are already in wire-safe form.
		return v
	}
}

func allResolvedTypes(values []Value) bool {
	if len(values) == 0 {
		return false
	}
	for _, v := range values {
		if v.kind != KindResolvedType {
			return false
		}
	}
	return true
}

// =============================================================================
// View
// =============================================================================

// View reads through a substituted metadata map, resolving substitution
// values to concrete Go handles on first consumption and caching the result.
// A View is safe for concurrent readers.
type View struct {
	mu       sync.Mutex
	m        map[string]Value
	rt       *ref.Runtime
	resolved map[string]any
}

// NewView creates a read-through view over a metadata map.
func NewView(m map[string]Value, rt *ref.Runtime) *View {
	return &View{m: m, rt: rt, resolved: make(map[string]any)}
}

// Keys returns the map's keys in sorted order.
func (v *View) Keys() []string {
	keys := make([]string, 0, len(v.m))
	for k := range v.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Raw returns the underlying substituted map.
func (v *View) Raw() map[string]Value { return v.m }

// Get resolves the value under key to its native Go form. Substitution values
// resolve through the runtime: TypeSubstitution to reflect.Type,
// TypeArraySubstitution to []reflect.Type, EnumSubstitution to a reflect.Value
// of the enum type carrying the raw representation. Scalars convert to their
// exact-width Go counterparts.
func (v *View) Get(key string) (any, error) {
	val, ok := v.m[key]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "metadata key %q not present", key)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if cached, ok := v.resolved[key]; ok {
		return cached, nil
	}

	native, err := v.nativeValue(val)
	if err != nil {
		return nil, err
	}
	v.resolved[key] = native
	return native, nil
}

func (v *View) nativeValue(val Value) (any, error) {
	switch val.kind {
	case KindNull:
		return nil, nil
	case KindBool:
		return val.b, nil
	case KindInt8:
		return int8(val.i), nil
	case KindInt16:
		return int16(val.i), nil
	case KindInt32:
		return int32(val.i), nil
	case KindInt64:
		return val.i, nil
	case KindUint8:
		return uint8(val.u), nil
	case KindUint16:
		return uint16(val.u), nil
	case KindUint32:
		return uint32(val.u), nil
	case KindUint64:
		return val.u, nil
	case KindFloat32:
		return float32(val.f), nil
	case KindFloat64:
		return val.f, nil
	case KindChar:
		return val.c, nil
	case KindString:
		return val.s, nil
	case KindGUID:
		return val.g, nil
	case KindCreationPolicy:
		return val.policy, nil
	case KindTypeRef:
		return val.typ, nil
	case KindResolvedType:
		return val.resolved, nil
	case KindArray:
		out := make([]any, len(val.values))
		for i, el := range val.values {
			native, err := v.nativeValue(el)
			if err != nil {
				return nil, err
			}
			out[i] = native
		}
		return out, nil
	case KindTypeSubstitution:
		return v.rt.ResolveType(val.typ)
	case KindTypeArraySubstitution:
		out := make([]reflect.Type, len(val.types))
		for i, r := range val.types {
			t, err := v.rt.ResolveType(r)
			if err != nil {
				return nil, err
			}
			out[i] = t
		}
		return out, nil
	case KindEnumSubstitution:
		t, err := v.rt.ResolveType(val.typ)
		if err != nil {
			return nil, err
		}
		ev := reflect.New(t).Elem()
		switch t.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			ev.SetInt(int64(val.enumRaw))
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			ev.SetUint(uint64(uint32(val.enumRaw)))
		default:
			return nil, errors.New(errors.ErrCodeUnresolvedReference,
				"enum type %s has non-integer kind %s", val.typ, t.Kind())
		}
		return ev.Interface(), nil
	case KindOpaque:
		return val.raw, nil
	default:
		return nil, errors.New(errors.ErrCodeUnsupportedValueKind, "cannot resolve %s", val.kind)
	}
}
