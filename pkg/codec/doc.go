// Package codec serializes composition graphs to a compact binary snapshot
// and reconstructs an equal graph from those bytes, so the expensive
// discovery-and-resolution pass does not rerun on every process start.
//
// # Protocol
//
// Every record kind (graph, part, import, export) is framed with a declared
// field count; the reader verifies the count and fails with SCHEMA_MISMATCH
// on any skew, catching stale or corrupt snapshots before bytes can be
// misinterpreted. Optional fields consume their frame slot as an explicit
// presence marker, and small per-import facts (site flavor, forced
// non-sharing, factory style, cardinality) pack into one flag byte.
//
// Exports and metadata-map instances flow through a reusable-object table:
// the first occurrence writes a monotonically increasing id plus the full
// payload, later occurrences write only the id, and the decoder's registry
// hands back the already-constructed instance. The graph is not a tree -
// parts' exports are shared into import satisfaction lists - so identity
// preservation is what keeps the snapshot compact and the decoded structure
// reference-identical to the encoded one.
//
// Any decode failure is terminal for the call: partially-read state is
// discarded and the error surfaces to the caller, whose designed recovery is
// to treat the snapshot as invalid and rebuild from the source composition.
package codec
