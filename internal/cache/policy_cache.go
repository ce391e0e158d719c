// Package cache holds the redis-backed read caches. Nothing in here is a
// source of truth; every entry can be rebuilt from Mongo or config.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"sectrain/internal/model"
)

// PolicyCache caches per-tenant policy snapshots.
type PolicyCache interface {
	Get(ctx context.Context, tenantID string) (*model.TenantPolicy, error)
	Set(ctx context.Context, tenantID string, policy *model.TenantPolicy) error
}

type policyCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPolicyCache creates a policy cache with the given entry TTL.
func NewPolicyCache(client *redis.Client, ttl time.Duration) PolicyCache {
	return &policyCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *policyCache) Get(ctx context.Context, tenantID string) (*model.TenantPolicy, error) {
	data, err := c.client.Get(ctx, "policy:"+tenantID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var policy model.TenantPolicy
	if err := json.Unmarshal([]byte(data), &policy); err != nil {
		return nil, err
	}
	return &policy, nil
}

func (c *policyCache) Set(ctx context.Context, tenantID string, policy *model.TenantPolicy) error {
	data, err := json.Marshal(policy)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, "policy:"+tenantID, data, c.ttl).Err()
}
