// Package cli is the cobra command tree of the pinpatch binary. It turns
// flags into an app.Config, runs one operation per invocation (or serves),
// prints reports as JSON and maps failures onto ExitError codes.
package cli
