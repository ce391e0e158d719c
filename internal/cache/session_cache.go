package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionViewTTL = 5 * time.Minute

// SessionViewCache caches the client-safe session view served by GetSession.
// Every mutation invalidates the entry; the next read repopulates it.
type SessionViewCache interface {
	Get(ctx context.Context, tenantID, sessionID string, out interface{}) (bool, error)
	Set(ctx context.Context, tenantID, sessionID string, view interface{}) error
	Invalidate(ctx context.Context, tenantID, sessionID string) error
}

type sessionViewCache struct {
	client *redis.Client
}

// NewSessionViewCache creates the session view cache.
func NewSessionViewCache(client *redis.Client) SessionViewCache {
	return &sessionViewCache{
		client: client,
	}
}

func sessionViewKey(tenantID, sessionID string) string {
	return "sessionview:" + tenantID + ":" + sessionID
}

func (c *sessionViewCache) Get(ctx context.Context, tenantID, sessionID string, out interface{}) (bool, error) {
	data, err := c.client.Get(ctx, sessionViewKey(tenantID, sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(data), out); err != nil {
		return false, err
	}
	return true, nil
}

func (c *sessionViewCache) Set(ctx context.Context, tenantID, sessionID string, view interface{}) error {
	data, err := json.Marshal(view)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, sessionViewKey(tenantID, sessionID), data, sessionViewTTL).Err()
}

func (c *sessionViewCache) Invalidate(ctx context.Context, tenantID, sessionID string) error {
	return c.client.Del(ctx, sessionViewKey(tenantID, sessionID)).Err()
}
