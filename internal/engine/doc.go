// Package engine is the apply orchestrator. It owns the single-writer lock
// and drives one call end to end: load the target container, canonicalize
// the spec, materialize nodes, connect links, validate and save. The edit
// operations (delete_node, delete_link, replace_node) run under the same
// lock against the same store.
//
// Nothing in this package returns an error or panics across its API: every
// call yields a report whose Success field, warnings and error codes tell
// the caller what happened.
package engine
