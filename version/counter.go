package version

import "sync/atomic"

// Counter is a version source that changes whenever Bump is called. Hosts bump
// it after registering or removing routes. The zero value is ready to use.
type Counter struct {
	n atomic.Uint64
}

// CurrentVersion returns the current counter value.
func (c *Counter) CurrentVersion() uint64 {
	return c.n.Load()
}

// Bump advances the counter and returns the new value.
func (c *Counter) Bump() uint64 {
	return c.n.Add(1)
}

// Static is a version source that never changes. Documents behind it are
// generated once and then only on failure recovery.
type Static[V comparable] struct {
	Token V
}

// CurrentVersion returns the fixed token.
func (s Static[V]) CurrentVersion() V {
	return s.Token
}
