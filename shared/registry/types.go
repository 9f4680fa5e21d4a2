// shared/registry/types.go
package registry

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// InstanceInfo represents one running bot process. It is stored in Redis and
// used to split scheduled destinations between instances.
type InstanceInfo struct {
	InstanceID  string            `json:"instanceId"`  // Unique ID for this process (type + uuid)
	ServiceType string            `json:"serviceType"` // e.g. "dayz-bot"
	Hostname    string            `json:"hostname"`
	LastSeen    int64             `json:"last_seen"` // unix milliseconds
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// HashStore is the subset of redis.UniversalClient the registry uses.
type HashStore interface {
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	HDel(ctx context.Context, key string, fields ...string) *redis.IntCmd
}
