package ref

import (
	"reflect"
	"sync"

	"github.com/weftlab/weft/pkg/errors"
)

// Runtime is the resolution environment for reference surrogates.
//
// Registration happens once during process startup (registering a duplicate
// identity panics, catching wiring bugs early); resolution is lazy, cached,
// and safe for unsynchronized concurrent readers. Duplicate resolution work
// under contention is acceptable; the cached result is always consistent
// because registrations are immutable after the first Resolve call.
type Runtime struct {
	mu        sync.RWMutex
	types     map[TypeRef]reflect.Type
	factories map[MethodRef]reflect.Value
	fields    map[MemberRef]reflect.StructField // lazy member-resolution cache
	methods   map[MemberRef]reflect.Method
}

// NewRuntime creates an empty resolution environment.
func NewRuntime() *Runtime {
	return &Runtime{
		types:     make(map[TypeRef]reflect.Type),
		factories: make(map[MethodRef]reflect.Value),
		fields:    make(map[MemberRef]reflect.StructField),
		methods:   make(map[MemberRef]reflect.Method),
	}
}

// RegisterType registers the live type for a surrogate.
// Panics if the surrogate is already registered.
func (rt *Runtime) RegisterType(r TypeRef, t reflect.Type) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if _, exists := rt.types[r]; exists {
		panic("ref: type already registered: " + r.String())
	}
	rt.types[r] = t
}

// RegisterFactory registers a factory function for a surrogate.
// fn must be a func; its results are the activated part value (and optionally
// an error). Panics if fn is not a func or the surrogate is already registered.
func (rt *Runtime) RegisterFactory(r MethodRef, fn any) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		panic("ref: factory for " + r.String() + " is not a func")
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if _, exists := rt.factories[r]; exists {
		panic("ref: factory already registered: " + r.String())
	}
	rt.factories[r] = v
}

// ResolveType returns the live type for a surrogate.
func (rt *Runtime) ResolveType(r TypeRef) (reflect.Type, error) {
	rt.mu.RLock()
	t, ok := rt.types[r]
	rt.mu.RUnlock()
	if !ok {
		return nil, errors.New(errors.ErrCodeUnresolvedReference, "type %s is not registered", r)
	}
	return t, nil
}

// ResolveFactory returns the factory func registered for a surrogate.
func (rt *Runtime) ResolveFactory(r MethodRef) (reflect.Value, error) {
	rt.mu.RLock()
	fn, ok := rt.factories[r]
	rt.mu.RUnlock()
	if !ok {
		return reflect.Value{}, errors.New(errors.ErrCodeUnresolvedReference, "factory %s is not registered", r)
	}
	return fn, nil
}

// ResolveField returns the struct field a MemberRef names, resolving through
// the declaring type on first use and caching the result.
func (rt *Runtime) ResolveField(r MemberRef) (reflect.StructField, error) {
	if r.Kind != MemberField {
		return reflect.StructField{}, errors.New(errors.ErrCodeUnresolvedReference, "%s is not a field reference", r)
	}

	rt.mu.RLock()
	f, ok := rt.fields[r]
	rt.mu.RUnlock()
	if ok {
		return f, nil
	}

	t, err := rt.ResolveType(r.Declaring)
	if err != nil {
		return reflect.StructField{}, err
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return reflect.StructField{}, errors.New(errors.ErrCodeUnresolvedReference,
			"type %s is not a struct, cannot resolve field %s", r.Declaring, r.Name)
	}
	f, ok = t.FieldByName(r.Name)
	if !ok {
		return reflect.StructField{}, errors.New(errors.ErrCodeUnresolvedReference,
			"type %s has no field %s", r.Declaring, r.Name)
	}

	rt.mu.Lock()
	rt.fields[r] = f
	rt.mu.Unlock()
	return f, nil
}

// ResolveMethod returns the method a MemberRef names, resolving through the
// declaring type's method set on first use and caching the result.
func (rt *Runtime) ResolveMethod(r MemberRef) (reflect.Method, error) {
	if r.Kind != MemberMethod {
		return reflect.Method{}, errors.New(errors.ErrCodeUnresolvedReference, "%s is not a method reference", r)
	}

	rt.mu.RLock()
	m, ok := rt.methods[r]
	rt.mu.RUnlock()
	if ok {
		return m, nil
	}

	t, err := rt.ResolveType(r.Declaring)
	if err != nil {
		return reflect.Method{}, err
	}
	m, ok = t.MethodByName(r.Name)
	if !ok && t.Kind() != reflect.Pointer {
		// Pointer method sets include value methods; retry through *T.
		m, ok = reflect.PointerTo(t).MethodByName(r.Name)
	}
	if !ok {
		return reflect.Method{}, errors.New(errors.ErrCodeUnresolvedReference,
			"type %s has no method %s", r.Declaring, r.Name)
	}

	rt.mu.Lock()
	rt.methods[r] = m
	rt.mu.Unlock()
	return m, nil
}

// ResolveParameter returns the declared type of a factory parameter.
func (rt *Runtime) ResolveParameter(r ParameterRef) (reflect.Type, error) {
	fn, err := rt.ResolveFactory(r.Method)
	if err != nil {
		return nil, err
	}
	ft := fn.Type()
	if r.Index < 0 || r.Index >= ft.NumIn() {
		return nil, errors.New(errors.ErrCodeUnresolvedReference,
			"factory %s has %d parameters, index %d out of range", r.Method, ft.NumIn(), r.Index)
	}
	return ft.In(r.Index), nil
}
