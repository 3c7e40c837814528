package redis

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// extendScript resets the expiry only while the lock still holds our token.
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RunLock implements usecase.RunLock with SET NX. Every RunLock carries its
// own token, so one process can never release a lock held by another.
type RunLock struct {
	client *redis.Client
	prefix string
	token  string
}

// NewRunLock creates a new RunLock.
func NewRunLock(client *redis.Client) *RunLock {
	return &RunLock{
		client: client,
		prefix: "lock:",
		token:  ulid.Make().String(),
	}
}

// Acquire takes the lock for ttl. It returns false if someone else holds it.
func (l *RunLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, l.prefix+key, l.token, ttl).Result()
}

// Extend resets the lock expiry to ttl if the lock is still ours.
func (l *RunLock) Extend(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	n, err := extendScript.Run(ctx, l.client, []string{l.prefix + key}, l.token, ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Release gives the lock back if it is still ours.
func (l *RunLock) Release(ctx context.Context, key string) error {
	return releaseScript.Run(ctx, l.client, []string{l.prefix + key}, l.token).Err()
}
