// Package autofix connects spec links inside a function graph and, when the
// schema refuses a connection, applies a bounded number of logged fixes:
// resolving a pin through its aliases, swapping a reversed link, or
// inserting a conversion node between mismatched types.
//
// All fixes of one apply draw from a single State so that the budget set by
// auto_fix_max_steps holds across every link. Once the budget is spent the
// connector stops fixing and reports failures as ordinary connection errors.
package autofix
