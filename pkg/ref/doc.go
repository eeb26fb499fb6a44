// Package ref provides serializable reference surrogates for runtime identities.
//
// A surrogate is a small comparable value that stands in for a type, struct
// member, constructor function, or constructor parameter. Equality and map-key
// behavior derive purely from the identity key (qualified name plus defining
// module), never from a resolved handle, so surrogates can index maps and
// round-trip through the snapshot codec before the underlying Go types are
// registered in the current process.
//
// Resolution to live reflect handles goes through a Runtime, which plays the
// role of the loading environment: types and factory functions are registered
// under their surrogate keys, and member lookups are resolved lazily and
// cached. Resolving a surrogate the Runtime has never seen fails with
// UNRESOLVED_REFERENCE.
//
// # Example
//
//	rt := ref.NewRuntime()
//	logRef := ref.Type("app/logging", "FileLogger")
//	rt.RegisterType(logRef, reflect.TypeOf(FileLogger{}))
//
//	t, err := rt.ResolveType(logRef) // lazy, cached, concurrency-safe
package ref
