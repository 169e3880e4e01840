package bleadv

// cacheSize bounds the number of remembered advertisers.
const cacheSize = 32

// AddrCache remembers the most recently seen advertiser addresses so a
// scanner reports each device once. It holds a fixed number of entries
// and overwrites the oldest when full. Not safe for concurrent use.
type AddrCache struct {
	addrs  [cacheSize]Addr
	next   int
	filled int
	ignore Addr
}

// NewAddrCache returns an empty cache. Addresses equal to ignore are
// never stored, which keeps a node's own advertisements out of its
// scan results. Pass 0 to keep everything.
func NewAddrCache(ignore Addr) *AddrCache {
	return &AddrCache{ignore: ignore}
}

// Len returns the number of cached addresses.
func (c *AddrCache) Len() int { return c.filled }

// Contains reports whether addr is cached.
func (c *AddrCache) Contains(addr Addr) bool {
	for i := 0; i < c.filled; i++ {
		if c.addrs[i] == addr {
			return true
		}
	}
	return false
}

// Add caches addr and reports whether it was new. Known and ignored
// addresses are left alone.
func (c *AddrCache) Add(addr Addr) bool {
	if addr == c.ignore || c.Contains(addr) {
		return false
	}
	c.addrs[c.next] = addr
	c.next = (c.next + 1) % cacheSize
	if c.filled < cacheSize {
		c.filled++
	}
	return true
}

// Clear forgets all cached addresses.
func (c *AddrCache) Clear() {
	c.next = 0
	c.filled = 0
}

// Addrs returns the cached addresses, oldest first.
func (c *AddrCache) Addrs() []Addr {
	out := make([]Addr, 0, c.filled)
	start := 0
	if c.filled == cacheSize {
		start = c.next
	}
	for i := 0; i < c.filled; i++ {
		out = append(out, c.addrs[(start+i)%cacheSize])
	}
	return out
}
