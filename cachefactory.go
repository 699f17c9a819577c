package som

import "github.com/sharedcode/som/cache"

// CacheType defines the type of L2 cache a session should use.
type CacheType int

const (
	// NoCache means no L2 caching: every read-through fetch goes straight to the transport.
	NoCache CacheType = iota
	// InMemory represents an in-process L2 cache (no external dependency, bounded by an MRU policy).
	InMemory
	// Redis represents a Redis-backed L2 cache.
	Redis
)

// CacheFactory defines the function signature for creating an L2 cache client.
type CacheFactory func() cache.L2Cache

var globalCacheFactory CacheFactory
var globalCacheFactoryType CacheType
var cacheRegistry = make(map[CacheType]CacheFactory)

// RegisterCacheFactory registers a cache factory for a given type.
func RegisterCacheFactory(t CacheType, f CacheFactory) {
	cacheRegistry[t] = f
}

// setCacheFactory sets the global cache factory function.
func setCacheFactory(f CacheFactory) {
	globalCacheFactory = f
}

// SetCacheFactory sets the global cache factory based on the provided type.
func SetCacheFactory(t CacheType) {
	if f, ok := cacheRegistry[t]; ok {
		setCacheFactory(f)
		globalCacheFactoryType = t
	}
}

// GetCacheFactoryType returns the currently registered cache factory type.
func GetCacheFactoryType() CacheType {
	return globalCacheFactoryType
}

// NewCacheClient creates a new L2 cache client using the registered factory.
// It returns nil if no factory is registered.
func NewCacheClient() cache.L2Cache {
	if globalCacheFactory == nil {
		return nil
	}
	return globalCacheFactory()
}
