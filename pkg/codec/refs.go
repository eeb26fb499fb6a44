package codec

import (
	"github.com/weftlab/weft/internal/wire"
	"github.com/weftlab/weft/pkg/errors"
	"github.com/weftlab/weft/pkg/ref"
)

// Surrogate references serialize as their identity keys and nothing else:
// module and name strings, a member-kind byte, a parameter index. Live
// handles never reach the wire.

func writeTypeRef(w *wire.Writer, r ref.TypeRef) {
	w.String(r.Module)
	w.String(r.Name)
}

func readTypeRef(r *wire.Reader) (ref.TypeRef, error) {
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

func writeMemberRef(w *wire.Writer, m ref.MemberRef) {
	writeTypeRef(w, m.Declaring)
	w.String(m.Name)
	w.Byte(byte(m.Kind))
}

func readMemberRef(r *wire.Reader) (ref.MemberRef, error) {
	declaring, err := readTypeRef(r)
	if err != nil {
		return ref.MemberRef{}, err
	}
	name, err := r.String()
	if err != nil {
		return ref.MemberRef{}, err
	}
	kind, err := r.Byte()
	if err != nil {
		return ref.MemberRef{}, err
	}
	switch ref.MemberKind(kind) {
	case ref.MemberField, ref.MemberMethod:
	default:
		return ref.MemberRef{}, errors.New(errors.ErrCodeSchemaMismatch,
			"invalid member kind byte 0x%02x", kind)
	}
	return ref.MemberRef{Declaring: declaring, Name: name, Kind: ref.MemberKind(kind)}, nil
}

func writeMethodRef(w *wire.Writer, m ref.MethodRef) {
	writeTypeRef(w, m.Declaring)
	w.String(m.Name)
}

func readMethodRef(r *wire.Reader) (ref.MethodRef, error) {
	declaring, err := readTypeRef(r)
	if err != nil {
		return ref.MethodRef{}, err
	}
	name, err := r.String()
	if err != nil {
		return ref.MethodRef{}, err
	}
	return ref.MethodRef{Declaring: declaring, Name: name}, nil
}

func writeParameterRef(w *wire.Writer, p ref.ParameterRef) {
	writeMethodRef(w, p.Method)
	w.Uvarint(uint64(p.Index))
}

func readParameterRef(r *wire.Reader) (ref.ParameterRef, error) {
	method, err := readMethodRef(r)
	if err != nil {
		return ref.ParameterRef{}, err
	}
	idx, err := r.Uvarint()
	if err != nil {
		return ref.ParameterRef{}, err
	}
	return ref.ParameterRef{Method: method, Index: int(idx)}, nil
}
