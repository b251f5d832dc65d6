// Package specserve intercepts requests for a configured document path and
// answers them from a spec cache. Every other request passes through to the
// next handler untouched.
//
// Documents are decorated with the server URL of the request that triggered
// their generation. Cached responses keep that decoration until the document
// is regenerated; requests arriving through another host or scheme do not
// re-decorate a cached document.
package specserve
