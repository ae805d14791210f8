package container

import (
	"testing"

	"github.com/The404Studios/Kenshi-Online-sub006/authority"
	"github.com/The404Studios/Kenshi-Online-sub006/identity"
	"github.com/The404Studios/Kenshi-Online-sub006/space"
	"github.com/The404Studios/Kenshi-Online-sub006/tick"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() *Registry {
	ids := identity.NewRegistry(identity.Capacities{identity.KindPlayer: 16, identity.KindNPC: 16}, nil)
	authz := authority.NewTracker()
	return NewRegistry(ids, authz, 8)
}

func TestRegisterUnregisterLifecycle(t *testing.T) {
	r := newTestRegistry()
	grant := authority.Coordinate{Owner: authority.OwnerServer, Scope: authority.ScopeAll, Epoch: 1, ExpiresAt: authority.NoExpiry}

	id := r.Register(identity.KindPlayer, Handle(1), space.WorldFrame, []authority.Coordinate{grant}, 0, 7)
	require.True(t, id.Valid())
	require.True(t, r.IsAlive(id))

	entry, ok := r.Get(id)
	require.True(t, ok)
	require.Equal(t, uint64(7), entry.TemplateId)

	require.True(t, r.Unregister(id, 5, "left game"))
	require.False(t, r.IsAlive(id))
	_, ok = r.Get(id)
	require.False(t, ok)
}

func TestRegisterExhaustedPoolReturnsInvalid(t *testing.T) {
	ids := identity.NewRegistry(identity.Capacities{identity.KindNPC: 1}, nil)
	authz := authority.NewTracker()
	r := NewRegistry(ids, authz, 8)

	a := r.Register(identity.KindNPC, Handle(1), space.WorldFrame, nil, 0, 0)
	require.True(t, a.Valid())
	b := r.Register(identity.KindNPC, Handle(2), space.WorldFrame, nil, 0, 0)
	require.Equal(t, identity.Invalid, b)
}

func TestUpdateHandleAndFrameEmitEvents(t *testing.T) {
	r := newTestRegistry()
	id := r.Register(identity.KindPlayer, Handle(1), space.WorldFrame, nil, 0, 0)

	require.True(t, r.UpdateHandle(id, Handle(42), 1))
	entry, _ := r.Get(id)
	require.Equal(t, Handle(42), entry.Handle)

	newFrame := space.Frame{Kind: space.Parented, Parent: 99, Bone: "hand_r"}
	require.True(t, r.UpdateFrame(id, newFrame, 2))
	entry, _ = r.Get(id)
	require.Equal(t, newFrame, entry.Frame)

	events, head := r.EventsSince(0)
	require.GreaterOrEqual(t, len(events), 3) // spawn + handle + frame
	require.Equal(t, head, uint64(len(events)))
}

func TestEventRingEvictsOldest(t *testing.T) {
	r := newTestRegistry()
	id := r.Register(identity.KindPlayer, Handle(1), space.WorldFrame, nil, 0, 0)
	for i := 0; i < 20; i++ {
		r.UpdateHandle(id, Handle(uint64(i)), tick.Tick(i))
	}
	events, head := r.EventsSince(0)
	require.Equal(t, uint64(21), head) // 1 spawn + 20 updates
	require.Less(t, len(events), 21)   // ring capacity 8 evicted older entries
}

func TestByKindAndByOwner(t *testing.T) {
	r := newTestRegistry()
	grant := authority.Coordinate{Owner: authority.OwnerServer, Scope: authority.ScopeAll, Epoch: 1, ExpiresAt: authority.NoExpiry}
	p1 := r.Register(identity.KindPlayer, Handle(1), space.WorldFrame, []authority.Coordinate{grant}, 0, 0)
	_ = r.Register(identity.KindNPC, Handle(2), space.WorldFrame, nil, 0, 0)

	players := r.ByKind(identity.KindPlayer)
	require.Len(t, players, 1)
	require.Equal(t, p1, players[0].NetId)

	owned := r.ByOwner(authority.OwnerServer, identity.Invalid, authority.ScopeAll, 0)
	require.Len(t, owned, 1)
}

func TestValidateFlagsInvalidHandle(t *testing.T) {
	r := newTestRegistry()
	_ = r.Register(identity.KindPlayer, InvalidHandle, space.WorldFrame, nil, 0, 0)
	issues := r.Validate()
	require.NotEmpty(t, issues)
}
