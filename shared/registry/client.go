// shared/registry/client.go
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// RegistryClient reads the registry. It is kept apart from InstanceRegistrar
// so that readers never heartbeat.
type RegistryClient struct {
	store       HashStore
	serviceType string
	timeout     time.Duration
	logger      *zap.SugaredLogger
	now         func() time.Time
}

// NewRegistryClient takes an already initialized Redis client.
func NewRegistryClient(store HashStore, serviceType string, timeout time.Duration, logger *zap.Logger) *RegistryClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistryClient{
		store:       store,
		serviceType: serviceType,
		timeout:     timeout,
		logger:      logger.Sugar(),
		now:         time.Now,
	}
}

// GetActiveInstances returns the instances whose last heartbeat is within the timeout,
// keyed by instance ID.
func (rc *RegistryClient) GetActiveInstances(ctx context.Context) (map[string]InstanceInfo, error) {
	results, err := rc.store.HGetAll(ctx, hashKey(rc.serviceType)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get instances of type %s from Redis: %w", rc.serviceType, err)
	}

	active := make(map[string]InstanceInfo)
	currentTime := rc.now()

	for instanceID, infoJSON := range results {
		var info InstanceInfo
		if err := json.Unmarshal([]byte(infoJSON), &info); err != nil {
			// Malformed entries are removed by the registrar's cleanup pass.
			rc.logger.Warnw("Failed to unmarshal InstanceInfo", "instance", instanceID, "error", err)
			continue
		}
		if currentTime.Sub(time.UnixMilli(info.LastSeen)) <= rc.timeout {
			active[instanceID] = info
		}
	}
	return active, nil
}
