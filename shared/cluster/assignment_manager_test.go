package cluster

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Ftotnem/DAYZ-BOT/shared/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticMembership struct {
	ids []string
	err error
}

func (s staticMembership) GetActiveInstances(ctx context.Context) (map[string]registry.InstanceInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make(map[string]registry.InstanceInfo, len(s.ids))
	for _, id := range s.ids {
		out[id] = registry.InstanceInfo{InstanceID: id}
	}
	return out, nil
}

func TestSingleInstanceOwnsEverything(t *testing.T) {
	am := NewAssignmentManager(staticMembership{}, "a", 0, zap.NewNop())
	for i := 0; i < 10; i++ {
		ok, err := am.IsResponsible(fmt.Sprintf("server-%d", i))
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestDestinationsArePartitioned(t *testing.T) {
	members := staticMembership{ids: []string{"a", "b", "c"}}
	managers := []*AssignmentManager{
		NewAssignmentManager(members, "a", 0, zap.NewNop()),
		NewAssignmentManager(members, "b", 0, zap.NewNop()),
		NewAssignmentManager(members, "c", 0, zap.NewNop()),
	}
	for _, am := range managers {
		am.Refresh(context.Background())
	}

	for i := 0; i < 50; i++ {
		dest := fmt.Sprintf("server-%d", i)
		owners := 0
		for _, am := range managers {
			ok, err := am.IsResponsible(dest)
			require.NoError(t, err)
			if ok {
				owners++
			}
		}
		assert.Equal(t, 1, owners, dest)
	}
}

func TestRefreshKeepsSelfOnError(t *testing.T) {
	am := NewAssignmentManager(staticMembership{err: errors.New("redis down")}, "a", 0, zap.NewNop())
	am.Refresh(context.Background())
	ok, err := am.IsResponsible("server")
	require.NoError(t, err)
	assert.True(t, ok)
}
