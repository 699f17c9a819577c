package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// L2Cache is the narrow surface session.SessionObjectManager needs from an out-of-process
// cache: struct payload get/set/delete and a connectivity probe. Deliberately excludes the
// locking primitives a full SOP-style Cache carries (spec.md's Non-goals explicitly place
// "lock management" out of scope for the Session Object Manager).
type L2Cache interface {
	Ping(ctx context.Context) error
	Set(ctx context.Context, key, value string, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	SetStruct(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	GetStruct(ctx context.Context, key string, target interface{}) (interface{}, error)
	Delete(ctx context.Context, key string) error
}

type Options struct {
	Address                  string
	Password                 string
	DB                       int
	DefaultDurationInSeconds int
}

func (opt *Options) GetDefaultDuration() time.Duration {
	return time.Duration(opt.DefaultDurationInSeconds) * time.Second
}

type Connection struct {
	Client  *redis.Client
	Options Options
}

func DefaultOptions() Options {
	return Options{
		Address:                  "localhost:6379",
		Password:                 "", // no password set
		DB:                       0,  // use default DB
		DefaultDurationInSeconds: 24 * 60 * 60,
	}
}

// NewClient dials Redis and returns an L2Cache backed by it.
func NewClient(options Options) L2Cache {
	client := redis.NewClient(&redis.Options{
		Addr:     options.Address,
		Password: options.Password,
		DB:       options.DB})

	return &Connection{
		Client:  client,
		Options: options,
	}
}

// Ping tests connectivity for redis (PONG should be returned).
func (c *Connection) Ping(ctx context.Context) error {
	_, err := c.Client.Ping(ctx).Result()
	return err
}

// Set executes the redis Set command.
func (c *Connection) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	if expiration < 0 {
		expiration = c.Options.GetDefaultDuration()
	}
	return c.Client.Set(ctx, key, value, expiration).Err()
}

// Get executes the redis Get command.
func (c *Connection) Get(ctx context.Context, key string) (string, error) {
	return c.Client.Get(ctx, key).Result()
}

// SetStruct JSON-encodes value and stores it under key.
func (c *Connection) SetStruct(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if expiration < 0 {
		expiration = c.Options.GetDefaultDuration()
	}
	return c.Client.Set(ctx, key, b, expiration).Err()
}

// GetStruct fetches the value stored at key and JSON-decodes it into target.
func (c *Connection) GetStruct(ctx context.Context, key string, target interface{}) (interface{}, error) {
	if target == nil {
		panic("target can't be nil.")
	}
	s, err := c.Client.Get(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(s), target); err != nil {
		return nil, err
	}
	return target, nil
}

// Delete executes the redis Del command.
func (c *Connection) Delete(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}
