// Package info exposes the operational endpoints that sit next to a served
// API document: status, liveness, readiness, version, and an HTML viewer
// pointed at the document path.
//
// See ExampleHandler_Mount for a runnable wiring.
package info
