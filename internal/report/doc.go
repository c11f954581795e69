// Package report defines the structured results returned by every engine
// call: ApplyResult for apply, EditResult for the single-node edits, and the
// append-only Step log shared by auto-fix and repair.
package report
