package election

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/fleetboot/internal/node"
	"github.com/imamik/fleetboot/internal/store"
)

type staticDirectory struct {
	nodes []node.Node
	err   error
	calls int
}

func (d *staticDirectory) ListFleet(_ context.Context, _ string) ([]node.Node, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	// Hand out a shuffled copy: resolution must not depend on listing order.
	out := make([]node.Node, len(d.nodes))
	copy(out, d.nodes)
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out, nil
}

func fleetAt(offsets ...time.Duration) []node.Node {
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	nodes := make([]node.Node, 0, len(offsets))
	for i, off := range offsets {
		nodes = append(nodes, node.Node{
			ID:           fmt.Sprintf("node-%02d", i),
			LaunchTime:   base.Add(off),
			LocalAddress: fmt.Sprintf("10.0.0.%d", i+2),
		})
	}
	return nodes
}

func TestInstanceOrdering_DemoFleet(t *testing.T) {
	fleet := fleetAt(0, time.Second, 2*time.Second)
	dir := &staticDirectory{nodes: fleet}
	r := &InstanceOrdering{Directory: dir, Fleet: "demo"}

	for i, self := range fleet {
		res, err := r.Resolve(context.Background(), self)
		require.NoError(t, err)
		require.NotNil(t, res.Leader)
		assert.Equal(t, "node-00", res.Leader.ID)
		if i == 0 {
			assert.Equal(t, RoleInitializer, res.Role)
		} else {
			assert.Equal(t, RoleJoiner, res.Role)
		}
	}
}

func TestInstanceOrdering_ExactlyOneInitializer(t *testing.T) {
	for n := 1; n <= 25; n++ {
		offsets := make([]time.Duration, n)
		for i := range offsets {
			offsets[i] = time.Duration(rand.IntN(1000)) * time.Millisecond
		}
		fleet := fleetAt(offsets...)
		r := &InstanceOrdering{Directory: &staticDirectory{nodes: fleet}, Fleet: "demo"}

		initializers := 0
		leaders := map[string]bool{}
		for _, self := range fleet {
			res, err := r.Resolve(context.Background(), self)
			require.NoError(t, err)
			leaders[res.Leader.ID] = true
			if res.Role == RoleInitializer {
				initializers++
			}
		}
		assert.Equal(t, 1, initializers, "fleet size %d", n)
		assert.Len(t, leaders, 1, "fleet size %d", n)
	}
}

func TestInstanceOrdering_TieBreaksOnID(t *testing.T) {
	fleet := fleetAt(time.Second, 0, 0)
	r := &InstanceOrdering{Directory: &staticDirectory{nodes: fleet}, Fleet: "demo"}

	res, err := r.Resolve(context.Background(), fleet[1])
	require.NoError(t, err)
	assert.Equal(t, RoleInitializer, res.Role)

	res, err = r.Resolve(context.Background(), fleet[2])
	require.NoError(t, err)
	assert.Equal(t, RoleJoiner, res.Role)
	assert.Equal(t, "node-01", res.Leader.ID)
}

func TestInstanceOrdering_TransientErrors(t *testing.T) {
	self := fleetAt(0)[0]

	t.Run("directory unreachable", func(t *testing.T) {
		r := &InstanceOrdering{Directory: &staticDirectory{err: errors.New("timeout")}, Fleet: "demo"}
		_, err := r.Resolve(context.Background(), self)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to list fleet demo")
	})

	t.Run("empty fleet", func(t *testing.T) {
		r := &InstanceOrdering{Directory: &staticDirectory{}, Fleet: "demo"}
		_, err := r.Resolve(context.Background(), self)
		assert.ErrorIs(t, err, ErrEmptyFleet)
	})

	t.Run("self not listed", func(t *testing.T) {
		others := fleetAt(time.Second, 2*time.Second)
		others[0].ID, others[1].ID = "x", "y"
		r := &InstanceOrdering{Directory: &staticDirectory{nodes: others}, Fleet: "demo"}
		_, err := r.Resolve(context.Background(), self)
		assert.ErrorIs(t, err, ErrSelfNotListed)
	})
}

func TestVersionedLock_ConcurrentWritersConverge(t *testing.T) {
	for round := 0; round < 20; round++ {
		s := store.NewMemory()
		fleet := fleetAt(0, 0, 0, 0, 0, 0)
		resolvers := make([]*VersionedLock, len(fleet))
		roles := make([]Role, len(fleet))

		var wg sync.WaitGroup
		for i := range fleet {
			resolvers[i] = &VersionedLock{Store: s}
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				res, err := resolvers[i].Resolve(context.Background(), fleet[i])
				assert.NoError(t, err)
				roles[i] = res.Role
			}(i)
		}
		wg.Wait()

		history, err := s.ListVersions(context.Background(), store.KeyLock)
		require.NoError(t, err)
		require.Len(t, history, len(fleet))

		initializers := 0
		for i, r := range resolvers {
			if IsLeaderVersion(history, r.Version()) {
				initializers++
				assert.Equal(t, RoleInitializer, roles[i])
			} else {
				assert.Equal(t, RoleJoiner, roles[i])
			}
		}
		assert.Equal(t, 1, initializers)
	}
}

func TestVersionedLock_PublishesAddress(t *testing.T) {
	s := store.NewMemory()
	self := fleetAt(0)[0]

	res, err := (&VersionedLock{Store: s}).Resolve(context.Background(), self)
	require.NoError(t, err)
	assert.Equal(t, RoleInitializer, res.Role)

	addr, err := store.AddressRegistry{Store: s}.Lookup(context.Background(), self.ID)
	require.NoError(t, err)
	assert.Equal(t, self.LocalAddress, addr)
}

func TestVersionedLock_RetryDoesNotRewrite(t *testing.T) {
	s := store.NewMemory()
	listFailures := 2
	s.Hook = func(op, _ string) error {
		if op == "list" && listFailures > 0 {
			listFailures--
			return errors.New("store unreachable")
		}
		return nil
	}
	l := &VersionedLock{Store: s}
	self := fleetAt(0)[0]

	for i := 0; i < 2; i++ {
		_, err := l.Resolve(context.Background(), self)
		require.Error(t, err)
	}
	res, err := l.Resolve(context.Background(), self)
	require.NoError(t, err)
	assert.Equal(t, RoleInitializer, res.Role)
	assert.Equal(t, 1, s.Writes(store.KeyLock))
	assert.Equal(t, 1, s.Writes(store.NodeKey(self.ID)))
}

func TestVersionedLock_LaterWriterIsJoiner(t *testing.T) {
	s := store.NewMemory()
	fleet := fleetAt(0, time.Second)

	first, err := (&VersionedLock{Store: s}).Resolve(context.Background(), fleet[0])
	require.NoError(t, err)
	second, err := (&VersionedLock{Store: s}).Resolve(context.Background(), fleet[1])
	require.NoError(t, err)

	assert.Equal(t, RoleInitializer, first.Role)
	assert.Equal(t, RoleJoiner, second.Role)
	assert.Nil(t, second.Leader)
}

func TestIsLeaderVersion(t *testing.T) {
	assert.False(t, IsLeaderVersion(nil, "1"))
	assert.True(t, IsLeaderVersion([]store.Version{"1", "2"}, "1"))
	assert.False(t, IsLeaderVersion([]store.Version{"1", "2"}, "2"))
}

func TestNew(t *testing.T) {
	dir := &staticDirectory{}
	s := store.NewMemory()

	r, err := New(StrategyInstanceOrdering, Deps{Directory: dir, Fleet: "demo"})
	require.NoError(t, err)
	assert.IsType(t, &InstanceOrdering{}, r)

	r, err = New(StrategyVersionedLock, Deps{Store: s})
	require.NoError(t, err)
	assert.IsType(t, &VersionedLock{}, r)

	_, err = New(StrategyInstanceOrdering, Deps{Store: s})
	assert.ErrorContains(t, err, "requires a fleet directory")

	_, err = New(StrategyVersionedLock, Deps{Directory: dir})
	assert.ErrorContains(t, err, "requires a versioned store")

	_, err = New("bully", Deps{})
	assert.True(t, errors.Is(err, ErrUnknownStrategy))
}
