// Package pkg provides the core libraries for Weft composition graphs.
//
// # Overview
//
// Weft models, serializes, and activates dependency-composition graphs:
// parts export values under contract names, declare imports satisfied by
// other parts' exports, and are instantiated on demand with sharing
// boundaries. The pkg directory is organized into five main areas:
//
//  1. [ref] - Reference surrogates and their runtime resolution
//  2. [metadata] - Tagged metadata values and their binary codec
//  3. [graph] - The composition graph model (parts, imports, exports)
//  4. [codec] - The binary snapshot codec for whole graphs
//  5. [activation] - Turning a graph plus a runtime into live values
//
// Supporting packages: [cache] stores compiled snapshots, [errors] carries
// the module's error taxonomy, [observability] exposes instrumentation
// hooks, and [buildinfo] holds build-time version metadata.
//
// # Architecture
//
// The typical data flow:
//
//	Source composition (external)
//	         ↓ compile
//	graph.Graph ⇄ codec (snapshot bytes) ⇄ cache.Store
//	         ↓ activation.Engine + ref.Runtime
//	Live part instances
//
// A failed snapshot decode is treated as a cache invalidation: the caller
// rebuilds the graph from the source composition and stores a fresh
// snapshot.
package pkg
