// Package registry provides the process-wide context shared by every apply.
//
// The Registry owns the function/variable catalog, the spawner-factory cache
// built on top of it, and the lazily loaded migration tables. It is built
// once at startup, validated, and then injected into the engine, so no part
// of the pipeline reaches for hidden global state.
//
// During application startup, the registry is populated and then validated to
// ensure that the catalog provides everything the auto-fixer and the
// migration tables refer to, preventing a wide class of runtime errors.
package registry
