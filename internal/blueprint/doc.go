// Package blueprint persists containers of function graphs.
//
// A blueprint is identified by its asset path and owns any number of graphs
// keyed by "TYPE.name". The engine loads one blueprint, mutates it, and
// saves it back as a unit; KVStore writes the header and every graph record
// in a single batch so a save is never observed half done.
package blueprint
