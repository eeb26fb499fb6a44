package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/google/uuid"

	"github.com/weftlab/weft/pkg/ref"
)

// =============================================================================
// Kinds
// =============================================================================

// Kind is the tag of the metadata value union. The numeric values are part of
// the wire contract and must never be reordered.
type Kind uint8

const (
	KindNull                  Kind = 0x00
	KindBool                  Kind = 0x01
	KindInt8                  Kind = 0x02
	KindInt16                 Kind = 0x03
	KindInt32                 Kind = 0x04
	KindInt64                 Kind = 0x05
	KindUint8                 Kind = 0x06
	KindUint16                Kind = 0x07
	KindUint32                Kind = 0x08
	KindUint64                Kind = 0x09
	KindFloat32               Kind = 0x0A
	KindFloat64               Kind = 0x0B
	KindChar                  Kind = 0x0C
	KindString                Kind = 0x0D
	KindGUID                  Kind = 0x0E
	KindCreationPolicy        Kind = 0x0F
	KindTypeRef               Kind = 0x10
	KindResolvedType          Kind = 0x11
	KindArray                 Kind = 0x12
	KindEnumSubstitution      Kind = 0x13
	KindTypeSubstitution      Kind = 0x14
	KindTypeArraySubstitution Kind = 0x15
	KindOpaque                Kind = 0x16
)

// String returns the kind name for diagnostics.
func (k Kind) String() string {
	names := map[Kind]string{
		KindNull: "Null", KindBool: "Bool",
		KindInt8: "Int8", KindInt16: "Int16", KindInt32: "Int32", KindInt64: "Int64",
		KindUint8: "Uint8", KindUint16: "Uint16", KindUint32: "Uint32", KindUint64: "Uint64",
		KindFloat32: "Float32", KindFloat64: "Float64",
		KindChar: "Char", KindString: "String", KindGUID: "GUID",
		KindCreationPolicy: "CreationPolicy", KindTypeRef: "TypeRef",
		KindResolvedType: "ResolvedType", KindArray: "Array",
		KindEnumSubstitution: "EnumSubstitution", KindTypeSubstitution: "TypeSubstitution",
		KindTypeArraySubstitution: "TypeArraySubstitution", KindOpaque: "Opaque",
	}
	if n, ok := names[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(0x%02x)", uint8(k))
}

// CreationPolicy mirrors the part-creation policy enum carried in metadata.
type CreationPolicy uint8

const (
	CreationAny CreationPolicy = iota
	CreationShared
	CreationNonShared
)

// =============================================================================
// Value
// =============================================================================

// Value is one member of the closed metadata union. The zero Value is Null.
// Values are immutable; all fields are reached through accessors.
type Value struct {
	kind Kind

	b        bool
	i        int64
	u        uint64
	f        float64
	c        rune
	s        string
	g        uuid.UUID
	policy   CreationPolicy
	typ      ref.TypeRef // TypeRef, TypeSubstitution, array element type, enum type
	resolved reflect.Type
	values   []Value
	types    []ref.TypeRef
	raw      []byte
	enumRaw  int32
}

// Kind returns the union tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is the null marker.
func (v Value) IsNull() bool { return v.kind == KindNull }

// =============================================================================
// Constructors
// =============================================================================

// NullVal is the null metadata value.
var NullVal = Value{kind: KindNull}

// BoolVal wraps a boolean.
func BoolVal(b bool) Value { return Value{kind: KindBool, b: b} }

// Int8Val wraps an int8; the 8-bit width is preserved on the wire.
func Int8Val(v int8) Value { return Value{kind: KindInt8, i: int64(v)} }

// Int16Val wraps an int16.
func Int16Val(v int16) Value { return Value{kind: KindInt16, i: int64(v)} }

// Int32Val wraps an int32.
func Int32Val(v int32) Value { return Value{kind: KindInt32, i: int64(v)} }

// Int64Val wraps an int64.
func Int64Val(v int64) Value { return Value{kind: KindInt64, i: v} }

// Uint8Val wraps a uint8.
func Uint8Val(v uint8) Value { return Value{kind: KindUint8, u: uint64(v)} }

// Uint16Val wraps a uint16.
func Uint16Val(v uint16) Value { return Value{kind: KindUint16, u: uint64(v)} }

// Uint32Val wraps a uint32.
func Uint32Val(v uint32) Value { return Value{kind: KindUint32, u: uint64(v)} }

// Uint64Val wraps a uint64.
func Uint64Val(v uint64) Value { return Value{kind: KindUint64, u: v} }

// Float32Val wraps a float32.
func Float32Val(v float32) Value { return Value{kind: KindFloat32, f: float64(v)} }

// Float64Val wraps a float64.
func Float64Val(v float64) Value { return Value{kind: KindFloat64, f: v} }

// CharVal wraps a single character.
func CharVal(c rune) Value { return Value{kind: KindChar, c: c} }

// StringVal wraps a string.
func StringVal(s string) Value { return Value{kind: KindString, s: s} }

// GUIDVal wraps a UUID.
func GUIDVal(g uuid.UUID) Value { return Value{kind: KindGUID, g: g} }

// PolicyVal wraps a creation policy.
func PolicyVal(p CreationPolicy) Value { return Value{kind: KindCreationPolicy, policy: p} }

// TypeRefVal wraps a type surrogate carried as data.
func TypeRefVal(r ref.TypeRef) Value { return Value{kind: KindTypeRef, typ: r} }

// ResolvedVal wraps a concrete runtime type together with its surrogate
// identity. Encoding substitutes it; the live handle never reaches the wire.
func ResolvedVal(t reflect.Type, id ref.TypeRef) Value {
	return Value{kind: KindResolvedType, resolved: t, typ: id}
}

// ArrayVal wraps an ordered, homogeneously-declared array of values.
func ArrayVal(elem ref.TypeRef, values ...Value) Value {
	return Value{kind: KindArray, typ: elem, values: values}
}

// EnumVal wraps a boxed enum value in substitution form: the enum type's
// surrogate plus the raw 32-bit representation.
func EnumVal(enumType ref.TypeRef, raw int32) Value {
	return Value{kind: KindEnumSubstitution, typ: enumType, enumRaw: raw}
}

// TypeSubVal wraps a type substitution.
func TypeSubVal(r ref.TypeRef) Value { return Value{kind: KindTypeSubstitution, typ: r} }

// TypeArraySubVal wraps an ordered type-array substitution.
func TypeArraySubVal(refs ...ref.TypeRef) Value {
	return Value{kind: KindTypeArraySubstitution, types: refs}
}

// OpaqueVal wraps pre-encoded fallback bytes for a value no other kind covers.
func OpaqueVal(raw []byte) Value { return Value{kind: KindOpaque, raw: raw} }

// OpaqueJSON fallback-encodes an arbitrary Go value as JSON bytes.
func OpaqueJSON(v any) (Value, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return NullVal, err
	}
	return OpaqueVal(raw), nil
}

// =============================================================================
// Accessors
// =============================================================================

// AsBool returns the boolean payload.
func (v Value) AsBool() bool { return v.b }

// AsInt returns the signed payload widened to int64.
func (v Value) AsInt() int64 { return v.i }

// AsUint returns the unsigned payload widened to uint64.
func (v Value) AsUint() uint64 { return v.u }

// AsFloat returns the float payload widened to float64.
func (v Value) AsFloat() float64 { return v.f }

// AsChar returns the character payload.
func (v Value) AsChar() rune { return v.c }

// AsString returns the string payload.
func (v Value) AsString() string { return v.s }

// AsGUID returns the UUID payload.
func (v Value) AsGUID() uuid.UUID { return v.g }

// AsPolicy returns the creation-policy payload.
func (v Value) AsPolicy() CreationPolicy { return v.policy }

// AsTypeRef returns the type surrogate payload (TypeRef, TypeSubstitution,
// ResolvedType identity, array element type, or enum type).
func (v Value) AsTypeRef() ref.TypeRef { return v.typ }

// AsResolvedType returns the live handle of a ResolvedType value.
func (v Value) AsResolvedType() reflect.Type { return v.resolved }

// AsArray returns the element values of an Array.
func (v Value) AsArray() []Value { return v.values }

// AsTypeRefs returns the elements of a TypeArraySubstitution.
func (v Value) AsTypeRefs() []ref.TypeRef { return v.types }

// AsEnumRaw returns the raw 32-bit payload of an EnumSubstitution.
func (v Value) AsEnumRaw() int32 { return v.enumRaw }

// AsBytes returns the fallback bytes of an Opaque value.
func (v Value) AsBytes() []byte { return v.raw }

// String returns a debug representation.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%v", v.b)
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return fmt.Sprintf("%d%s", v.i, v.kind)
	case KindUint8, KindUint16, KindUint32, KindUint64:
		return fmt.Sprintf("%d%s", v.u, v.kind)
	case KindFloat32, KindFloat64:
		return fmt.Sprintf("%g%s", v.f, v.kind)
	case KindChar:
		return fmt.Sprintf("%q", v.c)
	case KindString:
		return fmt.Sprintf("%q", v.s)
	case KindGUID:
		return v.g.String()
	case KindCreationPolicy:
		return fmt.Sprintf("policy(%d)", v.policy)
	case KindTypeRef:
		return "typeref " + v.typ.String()
	case KindResolvedType:
		return "resolved " + v.typ.String()
	case KindArray:
		return fmt.Sprintf("array<%s>[%d]", v.typ, len(v.values))
	case KindEnumSubstitution:
		return fmt.Sprintf("enum %s(%d)", v.typ, v.enumRaw)
	case KindTypeSubstitution:
		return "typesub " + v.typ.String()
	case KindTypeArraySubstitution:
		return fmt.Sprintf("typesub[%d]", len(v.types))
	case KindOpaque:
		return fmt.Sprintf("opaque[%d bytes]", len(v.raw))
	default:
		return v.kind.String()
	}
}

// =============================================================================
// Equality
// =============================================================================

// Equal reports deep structural equality. Substitution forms compare equal to
// their concrete counterparts: ResolvedType(t) equals TypeSubstitution(ref(t))
// and an array of resolved types equals the matching TypeArraySubstitution.
func (v Value) Equal(o Value) bool {
	return substituteValue(v).strictEqual(substituteValue(o))
}

func (v Value) strictEqual(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return v.i == o.i
	case KindUint8, KindUint16, KindUint32, KindUint64:
		return v.u == o.u
	case KindFloat32, KindFloat64:
		return v.f == o.f
	case KindChar:
		return v.c == o.c
	case KindString:
		return v.s == o.s
	case KindGUID:
		return v.g == o.g
	case KindCreationPolicy:
		return v.policy == o.policy
	case KindTypeRef, KindTypeSubstitution:
		return v.typ == o.typ
	case KindResolvedType:
		return v.typ == o.typ && v.resolved == o.resolved
	case KindArray:
		if v.typ != o.typ || len(v.values) != len(o.values) {
			return false
		}
		for i := range v.values {
			if !v.values[i].strictEqual(o.values[i]) {
				return false
			}
		}
		return true
	case KindEnumSubstitution:
		return v.typ == o.typ && v.enumRaw == o.enumRaw
	case KindTypeArraySubstitution:
		if len(v.types) != len(o.types) {
			return false
		}
		for i := range v.types {
			if v.types[i] != o.types[i] {
				return false
			}
		}
		return true
	case KindOpaque:
		return bytes.Equal(v.raw, o.raw)
	default:
		return false
	}
}

// MapsEqual reports key-wise equality of two metadata maps under Value.Equal.
func MapsEqual(a, b map[string]Value) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !av.Equal(bv) {
			return false
		}
	}
	return true
}
