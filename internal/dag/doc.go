// Package dag is a small directed graph over string ids used to check the
// data-flow portion of a function body for cycles before it is saved.
// Exec links are allowed to loop; pure data dependencies are not.
package dag
