package render

import "sync"

// Container is the mount target of one view. It holds the currently mounted
// HTML fragment and issues monotonically increasing render tokens: a render
// that started earlier but finishes later finds its token superseded and is
// discarded, so overlapping renders never interleave in the container.
type Container struct {
	mu      sync.Mutex
	latest  uint64
	html    []byte
	mounted bool
}

// Begin issues a new render token. Any token issued earlier is superseded
// from this point on.
func (c *Container) Begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latest++
	return c.latest
}

// Mount atomically replaces the container content, but only if token is
// still the latest issued. It reports whether the mount happened.
func (c *Container) Mount(token uint64, html []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if token != c.latest {
		return false
	}
	c.html = html
	c.mounted = true
	return true
}

// HTML returns the currently mounted fragment, or nil when nothing has been
// mounted yet.
func (c *Container) HTML() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.html
}

// Mounted reports whether the container has content.
func (c *Container) Mounted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mounted
}
