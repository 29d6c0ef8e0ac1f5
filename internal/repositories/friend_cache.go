package repositories

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// FriendCache caches the friend-ID set of a user. A miss is reported with ok=false
// together with the version the caller hands back to SetFriendIDs once it has
// loaded the set from storage. Invalidate moves the version on, so a set loaded
// before an invalidation is dropped instead of caching a stale set.
type FriendCache interface {
	GetFriendIDs(ctx context.Context, userID uint) (ids []uint, version int64, ok bool, err error)
	SetFriendIDs(ctx context.Context, userID uint, ids []uint, version int64) error
	Invalidate(ctx context.Context, userIDs ...uint) error
}

// emptyMarker is stored in place of an empty set so that users without friends still hit the cache.
const emptyMarker = "0"

// setIfVersionScript replaces the set only while the version key still holds ARGV[1]
var setIfVersionScript = redis.NewScript(`
if (redis.call("GET", KEYS[2]) or "0") ~= ARGV[1] then
	return 0
end
redis.call("DEL", KEYS[1])
redis.call("SADD", KEYS[1], unpack(ARGV, 3))
redis.call("PEXPIRE", KEYS[1], ARGV[2])
return 1
`)

// RedisFriendCache implements FriendCache with one redis set and one version counter per user
type RedisFriendCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisFriendCache creates a new RedisFriendCache
func NewRedisFriendCache(client *redis.Client, ttl time.Duration) *RedisFriendCache {
	return &RedisFriendCache{client: client, ttl: ttl}
}

// The hash tag keeps a user's set and version in one cluster slot
func friendsKey(userID uint) string {
	return fmt.Sprintf("walltribe:friends:{%d}", userID)
}

func friendsVersionKey(userID uint) string {
	return fmt.Sprintf("walltribe:friends:{%d}:version", userID)
}

// GetFriendIDs reads the cached set and its version
func (c *RedisFriendCache) GetFriendIDs(ctx context.Context, userID uint) ([]uint, int64, bool, error) {
	pipe := c.client.TxPipeline()
	membersCmd := pipe.SMembers(ctx, friendsKey(userID))
	versionCmd := pipe.Get(ctx, friendsVersionKey(userID))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, false, err
	}

	version, err := versionCmd.Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, false, err
	}
	members := membersCmd.Val()
	if len(members) == 0 {
		return nil, version, false, nil
	}

	ids := make([]uint, 0, len(members))
	for _, m := range members {
		if m == emptyMarker {
			continue
		}
		id, err := strconv.ParseUint(m, 10, 64)
		if err != nil {
			return nil, 0, false, fmt.Errorf("corrupt friend cache entry %q: %w", m, err)
		}
		ids = append(ids, uint(id))
	}
	return ids, version, true, nil
}

// SetFriendIDs replaces the cached set unless the user was invalidated after version was read
func (c *RedisFriendCache) SetFriendIDs(ctx context.Context, userID uint, ids []uint, version int64) error {
	args := []interface{}{strconv.FormatInt(version, 10), c.ttl.Milliseconds(), emptyMarker}
	for _, id := range ids {
		args = append(args, strconv.FormatUint(uint64(id), 10))
	}
	keys := []string{friendsKey(userID), friendsVersionKey(userID)}
	return setIfVersionScript.Run(ctx, c.client, keys, args...).Err()
}

// Invalidate drops the cached sets of the given users and moves their versions on
func (c *RedisFriendCache) Invalidate(ctx context.Context, userIDs ...uint) error {
	if len(userIDs) == 0 {
		return nil
	}
	pipe := c.client.TxPipeline()
	for _, id := range userIDs {
		pipe.Del(ctx, friendsKey(id))
		pipe.Incr(ctx, friendsVersionKey(id))
		pipe.Expire(ctx, friendsVersionKey(id), c.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}
