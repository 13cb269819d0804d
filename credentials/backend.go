package credentials

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Names of the three persisted entries
const (
	KeyToken    = "token"
	KeyIdentity = "identity"
	KeyProfile  = "profile"
)

// Backend is the durable key/value storage behind a Store.
// Save replaces the whole set of keys in one step; a key missing from
// values must not survive the call.
type Backend interface {
	Load(ctx context.Context) (map[string]string, error)
	Save(ctx context.Context, values map[string]string) error
	Clear(ctx context.Context) error
}

// Backend kinds understood by Factory
const (
	KindMemory = "memory"
	KindFile   = "file"
	KindRedis  = "redis"
)

// Factory builds a Backend scoped to a single browser profile
type Factory struct {
	Kind  string        // memory, file or redis
	Dir   string        // Directory holding one JSON document per browser (file)
	Redis *redis.Client // Shared client (redis)
	TTL   time.Duration // Optional expiry for redis entries, 0 = none
}

// Durable reports whether stored credentials outlive the Store that wrote
// them. Memory backends go away with their browser.
func (f Factory) Durable() bool {
	return f.Kind == KindFile || f.Kind == KindRedis
}

// Expires reports whether the backend drops credentials on its own
func (f Factory) Expires() bool {
	return f.Kind == KindRedis && f.TTL > 0
}

// New returns the backend for browserID
func (f Factory) New(browserID string) (Backend, error) {
	if browserID == "" {
		return nil, fmt.Errorf("[Factory New] browserID is required")
	}
	switch f.Kind {
	case "", KindMemory:
		return NewMemoryBackend(), nil
	case KindFile:
		return NewFileBackend(f.Dir, browserID)
	case KindRedis:
		if f.Redis == nil {
			return nil, fmt.Errorf("[Factory New] redis client is required for the %q backend", KindRedis)
		}
		return NewRedisBackend(f.Redis, browserID, f.TTL), nil
	default:
		return nil, fmt.Errorf("[Factory New] unknown credential backend %q", f.Kind)
	}
}
