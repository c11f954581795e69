// Package graph holds the function body graph: the nodes and links that make
// up one callable's implementation, plus the schema rules deciding which
// links are legal.
//
// # Ownership
//
// A Graph is owned by its container (see package blueprint) and outlives any
// single apply. Node ids ("N1", "N2", ...) are assigned by the graph from a
// persisted sequence so they are deterministic and never reused. The stable
// id carried by a node is the caller's identity and is independent of it.
//
// # Connecting
//
// There are two ways to add a link:
//
//	Connect     schema-validated: direction, exec/data, category and
//	            single-link rules. Inputs carrying data and exec outputs
//	            accept one link; connecting replaces the previous one.
//	ConnectRaw  only checks that both pins exist.
//
// Connect reports refusals as *RejectError so callers (the auto-fixer) can
// decide whether swapping endpoints or inserting an adapter would help.
//
// # Thread-Safety
//
// A Graph has no internal locking. Callers mutate it under the engine's
// single-writer lock.
package graph
