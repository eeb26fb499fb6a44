// Package activation turns a composition graph into live values.
//
// # Engine
//
// An Engine pairs a graph with a resolution runtime and answers contract
// queries with deferred Activation descriptors. Nothing is instantiated until
// a descriptor's Activate method runs; an empty candidate list is a valid
// outcome, not an error.
//
// # Sharing
//
// A Scope owns the live instances of shared parts. At most one instance of a
// shared part exists per (boundary, part) pair within a scope; concurrent
// requests for the same pair are arbitrated so the first creation wins and
// later requests receive the existing instance. Nested scopes give factory
// imports fresh boundary instances per invocation.
//
// # Cycles
//
// Parts whose dependency cycle runs through member imports activate fine: an
// instance is published to the request's provisional table as soon as its
// activator returns, before its own member imports are populated, so a
// dependent reachable through a cycle receives it early. The dependent must
// not use such a reference until activation of the whole request completes;
// that ordering is a usage contract, not enforced here. Cycles that run
// through activator arguments cannot be broken this way and fail.
package activation
