package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sharedcode/som"
)

// ErrNotFound is returned by InMemoryL2's Get/GetStruct when the key is absent, mirroring
// go-redis's redis.Nil sentinel so callers can branch on "miss" the same way regardless of
// which L2Cache implementation is configured.
var ErrNotFound = errors.New("cache: key not found")

// inMemoryL2 adapts the generic MRU Cache into the narrower L2Cache surface so a session can
// run with process-local L2 caching and no external Redis dependency.
type inMemoryL2 struct {
	entries Cache[string, string]
}

// NewInMemoryL2 returns an L2Cache with MRU eviction that keeps at most maxCapacity entries.
// minCapacity is stored by the underlying cache but does not affect eviction.
func NewInMemoryL2(minCapacity, maxCapacity int) L2Cache {
	return &inMemoryL2{entries: NewCache[string, string](minCapacity, maxCapacity)}
}

func (c *inMemoryL2) Ping(ctx context.Context) error {
	return nil
}

func (c *inMemoryL2) Set(ctx context.Context, key, value string, expiration time.Duration) error {
	c.entries.Set([]som.KeyValuePair[string, string]{{Key: key, Value: value}})
	return nil
}

func (c *inMemoryL2) Get(ctx context.Context, key string) (string, error) {
	v := c.entries.Get([]string{key})[0]
	if v == "" {
		return "", ErrNotFound
	}
	return v, nil
}

func (c *inMemoryL2) SetStruct(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, string(b), expiration)
}

func (c *inMemoryL2) GetStruct(ctx context.Context, key string, target interface{}) (interface{}, error) {
	s, err := c.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(s), target); err != nil {
		return nil, err
	}
	return target, nil
}

func (c *inMemoryL2) Delete(ctx context.Context, key string) error {
	c.entries.Delete([]string{key})
	return nil
}
