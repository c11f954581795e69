// Package canon turns a raw graph spec into its canonical form.
//
// Canonicalization is a pure function of the spec, the migration tables and
// the options. Two specs that differ only in the order of their node and link
// arrays canonicalize to byte-identical JSON, which is what makes repeated
// applies comparable and replayable.
package canon
