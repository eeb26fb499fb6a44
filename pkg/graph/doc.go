// Package graph models a resolved part-composition graph: which parts exist,
// what they export under which contract names, and how their import sites are
// satisfied by other parts' exports.
//
// A Graph and everything it holds are immutable value objects built once -
// either from an upstream composition pass or by decoding a snapshot - and
// never mutated; composing differently means building a new graph.
//
// Exports are canonical records shared by reference: the same *Export appears
// in its declaring part's export list and in every import satisfaction list
// that selected it. Derived indices (by contract, by type, view providers)
// point into those shared records rather than owning copies, so the snapshot
// codec can preserve object identity across the whole structure.
//
// Construction goes through the validating entry point New (or a Builder that
// materializes through New): a graph with no parts or no metadata-view
// providers signals a malformed upstream composition and is rejected with
// GRAPH_CONSTRUCTION rather than silently becoming a usable-but-empty
// provider.
package graph
