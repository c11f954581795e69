// Package materialize binds spec nodes to graph nodes.
//
// Each spec node is reused by its stable id, repaired onto an untagged node
// that looks like it, created through a spawner factory, or skipped, in that
// order of preference. The stable id is written to the node itself, which
// is what lets a second apply update instead of duplicate.
package materialize
