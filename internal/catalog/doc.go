// Package catalog is the action catalog: the functions and variables that
// call and variable nodes can be spawned from. Definitions come from HCL
// manifests plus a fixed set of built-in conversion functions used by the
// auto-fixer.
package catalog
