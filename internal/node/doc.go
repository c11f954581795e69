// Package node defines the vertices of a function body graph: the closed set
// of node kinds, typed pins and the first-class stable identity carried by
// every node that a spec has ever claimed.
package node
