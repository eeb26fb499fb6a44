// Package metadata models the typed metadata values attached to exports and
// imports, and their compact self-describing binary encoding.
//
// Values form a closed tagged union: null, exact-width integers, floats,
// bool, char, string, GUID, creation policy, type references, arrays, enum
// and type substitutions, and an opaque fallback. The declared width of a
// scalar is part of the wire contract - an Int32 is never widened to Int64
// on the wire.
//
// # Substitution
//
// Metadata may contain concrete runtime types (resolved reflect handles).
// Encoding such a value directly would force type resolution at snapshot
// time, so Substitute rewrites resolved types, arrays of resolved types, and
// boxed enum values into surrogate substitution forms before tag dispatch.
// Substitution forms and their concrete counterparts are interchangeable at
// the value level: Equal treats ResolvedType(t) and TypeSubstitution(ref(t))
// as the same value, and a View resolves substitutions back to concrete
// handles on first read.
//
// # Safety
//
// Decoding is guarded: an unknown kind tag fails with UNSUPPORTED_VALUE_KIND
// and recursion beyond the configured depth fails with EXCESSIVE_NESTING, so
// malformed or adversarial snapshot bytes cannot overflow the stack or be
// silently skipped.
package metadata
