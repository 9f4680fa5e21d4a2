// shared/cluster/assignment_manager.go
package cluster

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Ftotnem/DAYZ-BOT/shared/registry"
	"github.com/stathat/consistent"
	"go.uber.org/zap"
)

// Membership lists the live instances. *registry.RegistryClient satisfies it.
type Membership interface {
	GetActiveInstances(ctx context.Context) (map[string]registry.InstanceInfo, error)
}

// AssignmentManager decides whether this instance owns a given destination,
// using consistent hashing across the active instances.
type AssignmentManager struct {
	membership     Membership
	selfID         string
	updateInterval time.Duration
	logger         *zap.SugaredLogger

	consistentHash *consistent.Consistent
	chMux          sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
}

func NewAssignmentManager(membership Membership, selfID string, updateInterval time.Duration, logger *zap.Logger) *AssignmentManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())

	am := &AssignmentManager{
		membership:     membership,
		selfID:         selfID,
		updateInterval: updateInterval,
		logger:         logger.Sugar(),
		consistentHash: consistent.New(),
		ctx:            ctx,
		cancel:         cancel,
	}
	// This instance owns everything until the first refresh sees its peers.
	am.consistentHash.Add(selfID)
	return am
}

// Start refreshes the ring periodically. It blocks until Stop is called.
func (am *AssignmentManager) Start() {
	ticker := time.NewTicker(am.updateInterval)
	defer ticker.Stop()

	am.Refresh(am.ctx)
	for {
		select {
		case <-am.ctx.Done():
			am.logger.Info("Assignment ring updater shutting down")
			return
		case <-ticker.C:
			am.Refresh(am.ctx)
		}
	}
}

func (am *AssignmentManager) Stop() {
	am.cancel()
}

// Refresh rebuilds the ring when the set of active instances has changed.
func (am *AssignmentManager) Refresh(ctx context.Context) {
	active, err := am.membership.GetActiveInstances(ctx)
	if err != nil {
		am.logger.Errorw("Failed to get active instances", "error", err)
		return
	}

	members := make([]string, 0, len(active)+1)
	for id := range active {
		members = append(members, id)
	}
	if !slices.Contains(members, am.selfID) {
		// Self stays in the ring even when its own heartbeat is missing.
		members = append(members, am.selfID)
	}
	slices.Sort(members)

	am.chMux.Lock()
	defer am.chMux.Unlock()

	current := am.consistentHash.Members()
	slices.Sort(current)
	if slices.Equal(members, current) {
		return
	}

	ring := consistent.New()
	for _, member := range members {
		ring.Add(member)
	}
	am.consistentHash = ring
	am.logger.Infow("Assignment ring updated", "members", members)
}

// IsResponsible reports whether this instance owns the destination.
func (am *AssignmentManager) IsResponsible(destination string) (bool, error) {
	am.chMux.RLock()
	defer am.chMux.RUnlock()

	owner, err := am.consistentHash.Get(destination)
	if err != nil {
		return false, fmt.Errorf("failed to get owner for destination %q: %w", destination, err)
	}
	return owner == am.selfID, nil
}
