// Package testutil holds fixtures shared by package tests: a small catalog
// manifest, registry and logger helpers, and assertions on engine reports.
package testutil
