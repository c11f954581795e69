// Package app wires the registry, the blueprint store, the engine and the
// dispatch queue into one application instance, and hosts the HTTP surface
// used in serve mode. It is decoupled from any specific entrypoint.
package app
