// Package version provides sources of the opaque token that tells the spec
// cache whether the described API surface changed since the document was last
// rendered. Tokens are compared by equality only.
package version
