package directions

import (
	"context"
	"sync"

	"github.com/RideMatchTools/ridematch/foundation/geo"
)

// Cache wraps a Provider with a process-lifetime route cache keyed by the
// canonical waypoint string. Coordinates are exact so no TTL is needed.
// Concurrent identical misses may duplicate the upstream call but the last
// completed writer simply stores an identical result.
type Cache struct {
	provider Provider

	mu     sync.RWMutex
	routes map[string]*Route
}

// NewCache builds a Cache around provider.
func NewCache(provider Provider) *Cache {
	return &Cache{
		provider: provider,
		routes:   make(map[string]*Route),
	}
}

// Directions returns the cached route for the waypoint sequence, calling
// through to the wrapped provider on a miss. Failed calls are not cached.
func (c *Cache) Directions(ctx context.Context, waypoints []geo.Point) (*Route, error) {
	key := geo.WaypointKey(waypoints)

	c.mu.RLock()
	route, found := c.routes[key]
	c.mu.RUnlock()
	if found {
		return route, nil
	}

	route, err := c.provider.Directions(ctx, waypoints)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.routes[key] = route
	c.mu.Unlock()
	return route, nil
}

// Len reports the number of cached routes.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.routes)
}
