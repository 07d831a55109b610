// Package pools provides object pooling for reducing GC pressure.
//
// This package contains the pools used on the hot paths of parallel
// drivers and progress reporting:
//
//   - IDPool: size-class pooling for node-id batches and BFS frontiers
//   - BytePool: size-class pooling for rendered text
//   - TextBuilder: pooled builder for task-tree renderings and log lines
//   - FieldMapPool: pooling for structured log field maps
package pools
