// Package probe turns dependency checks into readiness and liveness functions.
// NewDocumentProbe reports a captured document generation failure, the other
// constructors wrap database, MongoDB, HTTP, and arbitrary ping checks.
package probe
