// shared/registry/registrar.go
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InstanceRegistrar handles the self-registration and heartbeating of one process.
type InstanceRegistrar struct {
	store             HashStore
	serviceType       string
	instanceID        string
	hostname          string
	heartbeatInterval time.Duration
	heartbeatTTL      time.Duration
	logger            *zap.SugaredLogger
	now               func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewInstanceRegistrar(store HashStore, serviceType string, heartbeatInterval, heartbeatTTL time.Duration, logger *zap.Logger) *InstanceRegistrar {
	if logger == nil {
		logger = zap.NewNop()
	}
	hostname, _ := os.Hostname()
	ctx, cancel := context.WithCancel(context.Background())

	return &InstanceRegistrar{
		store:             store,
		serviceType:       serviceType,
		instanceID:        fmt.Sprintf("%s-%s", serviceType, uuid.New().String()),
		hostname:          hostname,
		heartbeatInterval: heartbeatInterval,
		heartbeatTTL:      heartbeatTTL,
		logger:            logger.Sugar(),
		now:               time.Now,
		ctx:               ctx,
		cancel:            cancel,
		done:              make(chan struct{}),
	}
}

// Start registers immediately and then heartbeats in a goroutine.
func (r *InstanceRegistrar) Start() {
	r.logger.Infow("Starting instance registrar", "type", r.serviceType, "instance", r.instanceID)
	r.Heartbeat(r.ctx)
	go r.run()
}

// Stop ends heartbeating and removes this instance from the registry.
func (r *InstanceRegistrar) Stop() {
	r.cancel()
	<-r.done

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.store.HDel(ctx, hashKey(r.serviceType), r.instanceID).Err(); err != nil {
		r.logger.Errorw("Failed to remove instance from registry on shutdown", "instance", r.instanceID, "error", err)
		return
	}
	r.logger.Infow("Instance removed from registry", "instance", r.instanceID)
}

func (r *InstanceRegistrar) run() {
	defer close(r.done)

	ticker := time.NewTicker(r.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Heartbeat(r.ctx)
			r.Cleanup(r.ctx)
		case <-r.ctx.Done():
			return
		}
	}
}

// Heartbeat writes this instance's info with the current time.
func (r *InstanceRegistrar) Heartbeat(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	info := InstanceInfo{
		InstanceID:  r.instanceID,
		ServiceType: r.serviceType,
		Hostname:    r.hostname,
		LastSeen:    r.now().UnixMilli(),
	}
	infoJSON, err := json.Marshal(info)
	if err != nil {
		r.logger.Errorw("Failed to marshal InstanceInfo", "instance", r.instanceID, "error", err)
		return
	}

	if err := r.store.HSet(ctx, hashKey(r.serviceType), r.instanceID, infoJSON).Err(); err != nil {
		r.logger.Errorw("Failed to heartbeat instance", "instance", r.instanceID, "error", err)
		return
	}
	r.logger.Debugw("Instance heartbeated", "instance", r.instanceID)
}

// Cleanup removes entries that are corrupt or older than the heartbeat TTL.
func (r *InstanceRegistrar) Cleanup(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	key := hashKey(r.serviceType)
	results, err := r.store.HGetAll(ctx, key).Result()
	if err != nil {
		r.logger.Errorw("Registry cleanup failed to list instances", "error", err)
		return
	}

	currentTime := r.now()
	for instanceID, infoJSON := range results {
		var info InstanceInfo
		stale := false
		if err := json.Unmarshal([]byte(infoJSON), &info); err != nil {
			r.logger.Warnw("Deleting corrupt registry entry", "instance", instanceID, "error", err)
			stale = true
		} else if currentTime.Sub(time.UnixMilli(info.LastSeen)) > r.heartbeatTTL {
			stale = true
		}
		if !stale {
			continue
		}
		if err := r.store.HDel(ctx, key, instanceID).Err(); err != nil {
			r.logger.Errorw("Failed to delete stale registry entry", "instance", instanceID, "error", err)
			continue
		}
		r.logger.Infow("Removed stale instance from registry", "instance", instanceID)
	}
}

// InstanceID returns the unique ID assigned to this process.
func (r *InstanceRegistrar) InstanceID() string {
	return r.instanceID
}
