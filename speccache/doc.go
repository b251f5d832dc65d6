// Package speccache keeps the last rendered OpenAPI document per document name
// and decides, on every lookup, whether that text can be served as is.
//
// A cached document stays valid for as long as the version source reports the
// token it was rendered against. A failed generation is cached too, and
// replayed to every caller for the configured exception TTL so that a broken
// API description is not regenerated on every request.
//
// Each document name owns one immutable snapshot behind an atomic pointer. A
// snapshot holds either rendered text or a captured failure, never both, and
// is replaced as a whole so readers never observe a torn state. No lock is
// held while generating. Concurrent misses for the same name and version are
// collapsed into a single generation unless WithoutSingleFlight is used.
package speccache
