package sanity

import (
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

type clientKey struct {
	perspective Perspective
	stega       bool
}

// generation is one lifetime of cached clients, replaced wholesale by Reset.
type generation struct {
	seq     uint64
	mu      sync.RWMutex
	clients map[clientKey]*Client
}

func (g *generation) lookup(k clientKey) (*Client, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	c, ok := g.clients[k]
	return c, ok
}

// ClientCache memoizes clients per (perspective, stega) pair.
type ClientCache struct {
	factory *Factory
	seq     atomic.Uint64
	current atomic.Pointer[generation]
	group   singleflight.Group
}

// NewClientCache returns an empty cache backed by factory.
func NewClientCache(factory *Factory) *ClientCache {
	c := &ClientCache{factory: factory}
	c.current.Store(&generation{clients: make(map[clientKey]*Client)})
	return c
}

// Get returns the client for the pair, building it on first use. Concurrent
// callers for the same pair share one construction.
func (c *ClientCache) Get(perspective Perspective, stega bool) (*Client, error) {
	k := clientKey{perspective, stega}
	g := c.current.Load()
	if cl, ok := g.lookup(k); ok {
		return cl, nil
	}

	v, err, _ := c.group.Do(fmt.Sprintf("%d/%s/%t", g.seq, perspective, stega), func() (any, error) {
		if cl, ok := g.lookup(k); ok {
			return cl, nil
		}
		cl, err := c.factory.NewClient(perspective, stega)
		if err != nil {
			return nil, err
		}
		// Stored into the generation the lookup started in, so a build that
		// raced Reset never lands in the fresh generation.
		g.mu.Lock()
		g.clients[k] = cl
		g.mu.Unlock()
		return cl, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Client), nil
}

// Reset drops every cached client. Callers holding a client keep using it.
func (c *ClientCache) Reset() {
	c.current.Store(&generation{
		seq:     c.seq.Add(1),
		clients: make(map[clientKey]*Client),
	})
}

// Len reports the number of clients in the current generation.
func (c *ClientCache) Len() int {
	g := c.current.Load()
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.clients)
}
