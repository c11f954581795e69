// Package migration rewrites obsolete names in a spec to their current
// equivalents. Three independent tables drive it: node-kind aliases,
// function-identifier aliases and pin aliases scoped by node kind and/or
// function. Tables are built-in defaults merged with optional HCL files,
// loaded once per process and read-only afterwards.
package migration
