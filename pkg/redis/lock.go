package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// releaseScript deletes the lock only while it still holds our token, so an
// expired lock re-acquired by another request is never released by us.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// Lock is a held SET NX lock. Release is safe to call more than once.
type Lock struct {
	client *Client
	key    string
	token  string
}

// Key returns the namespaced redis key backing the lock.
func (l *Lock) Key() string {
	if l == nil {
		return ""
	}
	return l.key
}

// AcquireLock tries to take scope/id for ttl. It returns (nil, false, nil) when
// another holder owns the lock.
func (c *Client) AcquireLock(ctx context.Context, scope, id string, ttl time.Duration) (*Lock, bool, error) {
	if c.store == nil {
		return nil, false, ErrNotInitialized
	}
	if ttl <= 0 {
		return nil, false, errors.New("lock ttl must be positive")
	}
	key := c.LockKey(scope, id)
	token := uuid.NewString()
	ok, err := c.store.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	return &Lock{client: c, key: key, token: token}, true, nil
}

// Release frees the lock if it is still owned by this holder.
func (l *Lock) Release(ctx context.Context) error {
	if l == nil || l.client == nil || l.client.store == nil {
		return nil
	}
	return l.client.store.Eval(ctx, releaseScript, []string{l.key}, l.token).Err()
}
