// Package spawner turns spawner keys into factories capable of building
// nodes. Resolved factories are cached per key for the life of the process;
// Clear empties the cache.
package spawner
