package ref

import "fmt"

// =============================================================================
// TypeRef
// =============================================================================

// TypeRef identifies a type by qualified name and defining module.
// The zero value means "no type" and is used for absent optional fields.
type TypeRef struct {
	Module string // defining-module identity (e.g. import path or assembly name)
	Name   string // qualified type name within the module
}

// Type constructs a TypeRef from a module identity and qualified name.
func Type(module, name string) TypeRef {
	return TypeRef{Module: module, Name: name}
}

// IsZero reports whether the ref is the absent sentinel.
func (r TypeRef) IsZero() bool { return r.Module == "" && r.Name == "" }

// String returns a human-readable identity, e.g. "app/logging.FileLogger".
func (r TypeRef) String() string {
	if r.IsZero() {
		return "<none>"
	}
	if r.Module == "" {
		return r.Name
	}
	return r.Module + "." + r.Name
}

// =============================================================================
// MemberRef
// =============================================================================

// MemberKind distinguishes the flavors of member a MemberRef can name.
type MemberKind uint8

const (
	// MemberField names a struct field.
	MemberField MemberKind = iota + 1
	// MemberMethod names a method in the declaring type's method set.
	MemberMethod
)

// String returns the kind name for diagnostics.
func (k MemberKind) String() string {
	switch k {
	case MemberField:
		return "field"
	case MemberMethod:
		return "method"
	default:
		return fmt.Sprintf("MemberKind(%d)", uint8(k))
	}
}

// MemberRef identifies a field or method on a declaring type.
type MemberRef struct {
	Declaring TypeRef
	Name      string
	Kind      MemberKind
}

// Field constructs a MemberRef naming a struct field.
func Field(declaring TypeRef, name string) MemberRef {
	return MemberRef{Declaring: declaring, Name: name, Kind: MemberField}
}

// Method constructs a MemberRef naming a method.
func Method(declaring TypeRef, name string) MemberRef {
	return MemberRef{Declaring: declaring, Name: name, Kind: MemberMethod}
}

// IsZero reports whether the ref is the absent sentinel.
func (r MemberRef) IsZero() bool { return r == MemberRef{} }

// String returns a human-readable identity, e.g. "app.Server.Store (field)".
func (r MemberRef) String() string {
	return fmt.Sprintf("%s.%s (%s)", r.Declaring, r.Name, r.Kind)
}

// =============================================================================
// MethodRef
// =============================================================================

// MethodRef identifies a constructor or static factory function for a type.
// Name is the registered function identity; by convention a plain constructor
// registers under "New".
type MethodRef struct {
	Declaring TypeRef
	Name      string
}

// Constructor constructs a MethodRef for a type's registered factory.
func Constructor(declaring TypeRef, name string) MethodRef {
	return MethodRef{Declaring: declaring, Name: name}
}

// IsZero reports whether the ref is the absent sentinel.
func (r MethodRef) IsZero() bool { return r == MethodRef{} }

// String returns a human-readable identity, e.g. "app.Server.New".
func (r MethodRef) String() string {
	return fmt.Sprintf("%s.%s", r.Declaring, r.Name)
}

// =============================================================================
// ParameterRef
// =============================================================================

// ParameterRef identifies one positional parameter of a factory method.
type ParameterRef struct {
	Method MethodRef
	Index  int
}

// Parameter constructs a ParameterRef.
func Parameter(method MethodRef, index int) ParameterRef {
	return ParameterRef{Method: method, Index: index}
}

// IsZero reports whether the ref is the absent sentinel.
func (r ParameterRef) IsZero() bool { return r == ParameterRef{} }

// String returns a human-readable identity, e.g. "app.Server.New[1]".
func (r ParameterRef) String() string {
	return fmt.Sprintf("%s[%d]", r.Method, r.Index)
}
