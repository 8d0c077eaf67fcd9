package cart

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/aquadrop/internal/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T, events *identity.Broadcaster) (*Registry, *memLocal, *memRemote) {
	t.Helper()
	local, remote := newMemLocal(), newMemRemote()
	reg, err := NewRegistry(RegistryParams{Local: local, Remote: remote, Events: events, PersistTimeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Close(context.Background()) })
	return reg, local, remote
}

func TestRegistryReusesSessionStore(t *testing.T) {
	t.Parallel()

	reg, _, _ := newTestRegistry(t, nil)
	ctx := context.Background()

	a, err := reg.Get(ctx, "sess-1")
	require.NoError(t, err)
	b, err := reg.Get(ctx, "sess-1")
	require.NoError(t, err)
	c, err := reg.Get(ctx, "sess-2")
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, reg.Len())

	_, err = reg.Get(ctx, " ")
	assert.Error(t, err)
}

func TestRegistryIdentifyPublishesOncePerTransition(t *testing.T) {
	t.Parallel()

	bus := identity.NewBroadcaster()
	var events []identity.Event
	bus.Subscribe(func(_ context.Context, ev identity.Event) { events = append(events, ev) })

	reg, _, remote := newTestRegistry(t, bus)
	ctx := context.Background()

	_, err := reg.Identify(ctx, "sess-1", nil)
	require.NoError(t, err)
	_, err = reg.Identify(ctx, "sess-1", user("u1"))
	require.NoError(t, err)
	_, err = reg.Identify(ctx, "sess-1", user("u1"))
	require.NoError(t, err)
	_, err = reg.Identify(ctx, "sess-1", nil)
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.True(t, events[0].LoggedIn())
	assert.Equal(t, "sess-1", events[0].SessionID)
	assert.Equal(t, "u1", events[0].Current.UID)
	assert.True(t, events[1].LoggedOut())
	assert.Equal(t, "u1", events[1].Previous.UID)

	loads, _, _ := remote.counts()
	assert.Equal(t, 1, loads)
}

func TestRegistrySweepEvictsIdleStores(t *testing.T) {
	t.Parallel()

	reg, local, _ := newTestRegistry(t, nil)
	ctx := context.Background()

	s, err := reg.Get(ctx, "sess-1")
	require.NoError(t, err)
	_, _ = s.Add(ctx, product("p1", 80))
	s.lastUsed.Store(time.Now().Add(-time.Hour).UnixNano())

	fresh, err := reg.Get(ctx, "sess-2")
	require.NoError(t, err)
	_, _ = fresh.Add(ctx, product("p2", 20))

	n, err := reg.Sweep(ctx, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, reg.Len())

	stored, ok := local.get("sess-1")
	require.True(t, ok, "evicted stores flush before closing")
	assert.Len(t, stored, 1)

	revived, err := reg.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.NotSame(t, s, revived)
	assert.Len(t, revived.Items(), 1)
}

func TestRegistryGetShieldsStoreFromSweep(t *testing.T) {
	t.Parallel()

	reg, local, _ := newTestRegistry(t, nil)
	ctx := context.Background()

	s, err := reg.Get(ctx, "sess-1")
	require.NoError(t, err)
	s.lastUsed.Store(time.Now().Add(-time.Hour).UnixNano())

	again, err := reg.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.Same(t, s, again)

	n, err := reg.Sweep(ctx, 30*time.Minute)
	require.NoError(t, err)
	assert.Zero(t, n, "a store just handed out is not idle")

	_, err = again.Add(ctx, product("p1", 80))
	require.NoError(t, err)
	require.NoError(t, again.Flush(ctx))

	current, err := reg.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Same(t, s, current)
	assert.Len(t, current.Items(), 1)
	stored, ok := local.get("sess-1")
	require.True(t, ok)
	assert.Len(t, stored, 1)
}

func TestRegistryCloseRejectsNewSessions(t *testing.T) {
	t.Parallel()

	reg, _, _ := newTestRegistry(t, nil)
	require.NoError(t, reg.Close(context.Background()))
	_, err := reg.Get(context.Background(), "sess-1")
	assert.Error(t, err)
}
