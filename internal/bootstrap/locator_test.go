package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/fleetboot/internal/election"
	"github.com/imamik/fleetboot/internal/node"
	"github.com/imamik/fleetboot/internal/store"
	"github.com/imamik/fleetboot/internal/util/retry"
)

func TestHealthLocator(t *testing.T) {
	s := store.NewMemory()
	ctx := context.Background()
	addrs := store.AddressRegistry{Store: s}
	require.NoError(t, addrs.Publish(ctx, "b", "10.0.0.2"))

	reg := &scriptedRegistry{script: [][]node.TargetHealth{{
		{NodeID: "a", Health: node.HealthUnhealthy},
		{NodeID: "self", Health: node.HealthHealthy},
		{NodeID: "b", Health: node.HealthHealthy},
		{NodeID: "c", Health: node.HealthHealthy},
	}}}
	l := HealthLocator{Registry: reg, RegistryID: "lb", Addresses: addrs}

	addr, err := l.Locate(ctx, node.Node{ID: "self"}, election.Resolution{Role: election.RoleJoiner})
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.2", addr)
}

func TestHealthLocator_HealthyWithoutAddressIsTransient(t *testing.T) {
	reg := &scriptedRegistry{script: [][]node.TargetHealth{{{NodeID: "a", Health: node.HealthHealthy}}}}
	l := HealthLocator{Registry: reg, RegistryID: "lb", Addresses: store.AddressRegistry{Store: store.NewMemory()}}

	_, err := l.Locate(context.Background(), node.Node{ID: "self"}, election.Resolution{})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.False(t, retry.IsFatal(err))
}

func TestHealthLocator_SkipsHealthyTargetWithoutAddress(t *testing.T) {
	s := store.NewMemory()
	ctx := context.Background()
	addrs := store.AddressRegistry{Store: s}
	require.NoError(t, addrs.Publish(ctx, "b", "10.0.0.3"))

	reg := &scriptedRegistry{script: [][]node.TargetHealth{{
		{NodeID: "a", Health: node.HealthHealthy},
		{NodeID: "b", Health: node.HealthHealthy},
	}}}
	l := HealthLocator{Registry: reg, RegistryID: "lb", Addresses: addrs}

	addr, err := l.Locate(ctx, node.Node{ID: "self"}, election.Resolution{Role: election.RoleJoiner})
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.3", addr)
	assert.Equal(t, 1, reg.Calls())
}

func TestHealthLocator_RegistryError(t *testing.T) {
	boom := errors.New("api unavailable")
	l := HealthLocator{Registry: &scriptedRegistry{err: boom}, RegistryID: "lb"}

	_, err := l.Locate(context.Background(), node.Node{ID: "self"}, election.Resolution{})
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "failed to describe targets of lb")
}

func TestDirectoryLocator(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	require.NoError(t, store.AddressRegistry{Store: s}.Publish(ctx, "leader", "192.0.2.10"))

	tests := []struct {
		name    string
		loc     DirectoryLocator
		res     election.Resolution
		want    string
		wantErr error
		fatal   bool
	}{
		{
			name: "directory address",
			res:  election.Resolution{Leader: &node.Node{ID: "leader", LocalAddress: "10.0.0.1"}},
			want: "10.0.0.1",
		},
		{
			name: "public address fallback",
			res:  election.Resolution{Leader: &node.Node{ID: "leader", PublicAddress: "203.0.113.1"}},
			want: "203.0.113.1",
		},
		{
			name: "registry fallback",
			loc:  DirectoryLocator{Addresses: store.AddressRegistry{Store: s}},
			res:  election.Resolution{Leader: &node.Node{ID: "leader"}},
			want: "192.0.2.10",
		},
		{
			name:    "no leader",
			res:     election.Resolution{},
			wantErr: ErrNoLeader,
			fatal:   true,
		},
		{
			name:  "no address anywhere",
			res:   election.Resolution{Leader: &node.Node{ID: "leader"}},
			fatal: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := tt.loc.Locate(ctx, node.Node{ID: "self"}, tt.res)
			if tt.want != "" {
				require.NoError(t, err)
				assert.Equal(t, tt.want, addr)
				return
			}
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, tt.fatal, retry.IsFatal(err))
		})
	}
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition("", StateDeterminingRole))
	assert.True(t, CanTransition("", StateReady))
	assert.True(t, CanTransition(StateDeterminingRole, StateAwaitingLeader))
	assert.True(t, CanTransition(StateAwaitingLeader, StateJoining))
	assert.False(t, CanTransition(StateAwaitingLeader, StateReady))
	assert.False(t, CanTransition(StateReady, StateFailed))
	assert.False(t, CanTransition(StateFailed, StateDeterminingRole))

	assert.True(t, StateReady.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StateJoining.Terminal())
}
