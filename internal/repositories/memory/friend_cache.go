package memory

import (
	"context"
	"sync"
)

// FriendCache is an in-memory repositories.FriendCache without expiry
type FriendCache struct {
	mu       sync.Mutex
	entries  map[uint][]uint
	versions map[uint]int64
}

// NewFriendCache creates an empty FriendCache
func NewFriendCache() *FriendCache {
	return &FriendCache{entries: make(map[uint][]uint), versions: make(map[uint]int64)}
}

// GetFriendIDs returns a copy of the cached set and its version
func (c *FriendCache) GetFriendIDs(ctx context.Context, userID uint) ([]uint, int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids, ok := c.entries[userID]
	if !ok {
		return nil, c.versions[userID], false, nil
	}
	return append([]uint{}, ids...), c.versions[userID], true, nil
}

// SetFriendIDs replaces the cached set unless userID was invalidated after version was read
func (c *FriendCache) SetFriendIDs(ctx context.Context, userID uint, ids []uint, version int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.versions[userID] != version {
		return nil
	}
	c.entries[userID] = append([]uint{}, ids...)
	return nil
}

// Invalidate drops the cached sets of userIDs
func (c *FriendCache) Invalidate(ctx context.Context, userIDs ...uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range userIDs {
		delete(c.entries, id)
		c.versions[id]++
	}
	return nil
}
