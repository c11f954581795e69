// Package spec defines the wire model of a graph patch: the desired nodes,
// links and target of one apply call. Field defaults are applied while
// decoding, so an absent field and its default decode identically.
package spec
