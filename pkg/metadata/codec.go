package metadata

import (
	"sort"

	"github.com/google/uuid"

	"github.com/weftlab/weft/internal/wire"
	"github.com/weftlab/weft/pkg/errors"
	"github.com/weftlab/weft/pkg/ref"
)

// DefaultMaxDepth bounds recursive descent into array payloads when no
// explicit limit is configured.
const DefaultMaxDepth = 64

// Codec encodes and decodes metadata values and maps. The zero Codec is ready
// to use with DefaultMaxDepth.
type Codec struct {
	// MaxDepth is the maximum nesting depth of array payloads accepted on
	// both encode and decode. Zero means DefaultMaxDepth.
	MaxDepth int
}

func (c *Codec) limit() int {
	if c.MaxDepth > 0 {
		return c.MaxDepth
	}
	return DefaultMaxDepth
}

// =============================================================================
// Values
// =============================================================================

// EncodeValue appends the self-describing encoding of v to w.
// Concrete resolved-type and resolved-type-array values are rewritten to
// substitution form before tag dispatch, so encoding never forces resolution.
func (c *Codec) EncodeValue(w *wire.Writer, v Value) error {
	return c.encodeValue(w, v, 0)
}

func (c *Codec) encodeValue(w *wire.Writer, v Value, depth int) error {
	if depth > c.limit() {
		return errors.New(errors.ErrCodeExcessiveNesting,
			"metadata value nested deeper than %d levels", c.limit())
	}
	v = substituteValue(v)

	w.Byte(byte(v.kind))
	switch v.kind {
	case KindNull:
		// Tag alone is the nil marker.
	case KindBool:
		w.Bool(v.b)
	case KindInt8:
		w.Byte(byte(int8(v.i)))
	case KindInt16:
		w.U16(uint16(int16(v.i)))
	case KindInt32:
		w.U32(uint32(int32(v.i)))
	case KindInt64:
		w.U64(uint64(v.i))
	case KindUint8:
		w.Byte(uint8(v.u))
	case KindUint16:
		w.U16(uint16(v.u))
	case KindUint32:
		w.U32(uint32(v.u))
	case KindUint64:
		w.U64(v.u)
	case KindFloat32:
		w.F32(float32(v.f))
	case KindFloat64:
		w.F64(v.f)
	case KindChar:
		w.U32(uint32(v.c))
	case KindString:
		w.String(v.s)
	case KindGUID:
		w.Append(v.g[:])
	case KindCreationPolicy:
		w.Byte(byte(v.policy))
	case KindTypeRef, KindTypeSubstitution:
		encodeTypeRef(w, v.typ)
	case KindArray:
		encodeTypeRef(w, v.typ)
		w.Uvarint(uint64(len(v.values)))
		for _, el := range v.values {
			if err := c.encodeValue(w, el, depth+1); err != nil {
				return err
			}
		}
	case KindEnumSubstitution:
		encodeTypeRef(w, v.typ)
		w.U32(uint32(v.enumRaw))
	case KindTypeArraySubstitution:
		w.Uvarint(uint64(len(v.types)))
		for _, r := range v.types {
			encodeTypeRef(w, r)
		}
	case KindOpaque:
		w.Raw(v.raw)
	default:
		return errors.New(errors.ErrCodeUnsupportedValueKind, "cannot encode %s", v.kind)
	}
	return nil
}

// DecodeValue reads one value from r. Substitution forms are returned as-is;
// resolution to concrete handles is the View's job, not the codec's.
func (c *Codec) DecodeValue(r *wire.Reader) (Value, error) {
	return c.decodeValue(r, 0)
}

func (c *Codec) decodeValue(r *wire.Reader, depth int) (Value, error) {
	if depth > c.limit() {
		return NullVal, errors.New(errors.ErrCodeExcessiveNesting,
			"metadata value nested deeper than %d levels", c.limit())
	}

	tag, err := r.Byte()
	if err != nil {
		return NullVal, err
	}

	switch Kind(tag) {
	case KindNull:
		return NullVal, nil
	case KindBool:
		b, err := r.Bool()
		if err != nil {
			return NullVal, err
		}
		return BoolVal(b), nil
	case KindInt8:
		b, err := r.Byte()
		if err != nil {
			return NullVal, err
		}
		return Int8Val(int8(b)), nil
	case KindInt16:
		u, err := r.U16()
		if err != nil {
			return NullVal, err
		}
		return Int16Val(int16(u)), nil
	case KindInt32:
		u, err := r.U32()
		if err != nil {
			return NullVal, err
		}
		return Int32Val(int32(u)), nil
	case KindInt64:
		u, err := r.U64()
		if err != nil {
			return NullVal, err
		}
		return Int64Val(int64(u)), nil
	case KindUint8:
		b, err := r.Byte()
		if err != nil {
			return NullVal, err
		}
		return Uint8Val(b), nil
	case KindUint16:
		u, err := r.U16()
		if err != nil {
			return NullVal, err
		}
		return Uint16Val(u), nil
	case KindUint32:
		u, err := r.U32()
		if err != nil {
			return NullVal, err
		}
		return Uint32Val(u), nil
	case KindUint64:
		u, err := r.U64()
		if err != nil {
			return NullVal, err
		}
		return Uint64Val(u), nil
	case KindFloat32:
		f, err := r.F32()
		if err != nil {
			return NullVal, err
		}
		return Float32Val(f), nil
	case KindFloat64:
		f, err := r.F64()
		if err != nil {
			return NullVal, err
		}
		return Float64Val(f), nil
	case KindChar:
		u, err := r.U32()
		if err != nil {
			return NullVal, err
		}
		return CharVal(rune(u)), nil
	case KindString:
		s, err := r.String()
		if err != nil {
			return NullVal, err
		}
		return StringVal(s), nil
	case KindGUID:
		var g uuid.UUID
		for i := range g {
			b, err := r.Byte()
			if err != nil {
				return NullVal, err
			}
			g[i] = b
		}
		return GUIDVal(g), nil
	case KindCreationPolicy:
		b, err := r.Byte()
		if err != nil {
			return NullVal, err
		}
		return PolicyVal(CreationPolicy(b)), nil
	case KindTypeRef:
		tr, err := decodeTypeRef(r)
		if err != nil {
			return NullVal, err
		}
		return TypeRefVal(tr), nil
	case KindTypeSubstitution:
		tr, err := decodeTypeRef(r)
		if err != nil {
			return NullVal, err
		}
		return TypeSubVal(tr), nil
	case KindArray:
		elem, err := decodeTypeRef(r)
		if err != nil {
			return NullVal, err
		}
		count, err := r.Uvarint()
		if err != nil {
			return NullVal, err
		}
		values := make([]Value, 0, capHint(count, 64))
		for i := uint64(0); i < count; i++ {
			el, err := c.decodeValue(r, depth+1)
			if err != nil {
				return NullVal, err
			}
			values = append(values, el)
		}
		return ArrayVal(elem, values...), nil
	case KindEnumSubstitution:
		tr, err := decodeTypeRef(r)
		if err != nil {
			return NullVal, err
		}
		raw, err := r.U32()
		if err != nil {
			return NullVal, err
		}
		return EnumVal(tr, int32(raw)), nil
	case KindTypeArraySubstitution:
		count, err := r.Uvarint()
		if err != nil {
			return NullVal, err
		}
		refs := make([]ref.TypeRef, 0, capHint(count, 64))
		for i := uint64(0); i < count; i++ {
			tr, err := decodeTypeRef(r)
			if err != nil {
				return NullVal, err
			}
			refs = append(refs, tr)
		}
		return TypeArraySubVal(refs...), nil
	case KindOpaque:
		raw, err := r.Raw()
		if err != nil {
			return NullVal, err
		}
		return OpaqueVal(raw), nil
	default:
		return NullVal, errors.New(errors.ErrCodeUnsupportedValueKind,
			"unknown metadata kind tag 0x%02x", tag)
	}
}

// =============================================================================
// Maps
// =============================================================================

// EncodeMap appends the substituted encoding of m to w. Keys are written in
// sorted order so identical maps always produce identical bytes.
func (c *Codec) EncodeMap(w *wire.Writer, m map[string]Value) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w.Uvarint(uint64(len(keys)))
	for _, k := range keys {
		w.String(k)
		if err := c.EncodeValue(w, m[k]); err != nil {
			return err
		}
	}
	return nil
}

// DecodeMap reads a metadata map from r.
func (c *Codec) DecodeMap(r *wire.Reader) (map[string]Value, error) {
	count, err := r.Uvarint()
	if err != nil {
		return nil, err
	}
	m := make(map[string]Value, capHint(count, 64))
	for i := uint64(0); i < count; i++ {
		k, err := r.String()
		if err != nil {
			return nil, err
		}
		v, err := c.DecodeValue(r)
		if err != nil {
			return nil, err
		}
		m[k] = v
	}
	return m, nil
}

// capHint clamps a count read from the wire to a safe preallocation size.
// Counts are untrusted: a hostile varint must not turn into a negative or
// enormous capacity.
func capHint(count uint64, limit int) int {
	if count < uint64(limit) {
		return int(count)
	}
	return limit
}

func encodeTypeRef(w *wire.Writer, r ref.TypeRef) {
	w.String(r.Module)
	w.String(r.Name)
}

func decodeTypeRef(r *wire.Reader) (ref.TypeRef, error) {
	module, err := r.String()
	if err != nil {
		return ref.TypeRef{}, err
	}
	name, err := r.String()
	if err != nil {
		return ref.TypeRef{}, err
	}
	return ref.TypeRef{Module: module, Name: name}, nil
}
