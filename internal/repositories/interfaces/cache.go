package interfaces

import (
	"context"
	"time"
)

// Cache is the read-through cache used by repositories and services. A
// nil Cache disables caching.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
