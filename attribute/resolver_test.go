package attribute

import (
	"testing"

	"github.com/The404Studios/Kenshi-Online-sub006/identity"
	"github.com/The404Studios/Kenshi-Online-sub006/space"
	"github.com/stretchr/testify/require"
)

func TestResolverBlocksWithoutHistory(t *testing.T) {
	r := NewResolver()
	subject := identity.Pack(identity.KindPlayer, 1, 1)
	resp := r.ReadTransform(subject, CategoryPhysics, 10)
	require.Equal(t, DecisionBlock, resp.Decision)
}

func TestResolverAllowsFreshPhysicsRead(t *testing.T) {
	r := NewResolver()
	subject := identity.Pack(identity.KindPlayer, 1, 1)
	r.RecordTransform(subject, Sample{Tick: 8, Position: space.Vec3{X: 1}, Rotation: space.IdentityQuat, Confidence: 0.95})

	resp := r.ReadTransform(subject, CategoryPhysics, 10)
	require.Equal(t, DecisionAllow, resp.Decision)
}

func TestResolverAICategoryNeverExtrapolates(t *testing.T) {
	r := NewResolver()
	subject := identity.Pack(identity.KindNPC, 1, 1)
	r.RecordTransform(subject, Sample{Tick: 0, Position: space.Vec3{}, Rotation: space.IdentityQuat, Confidence: 0.95})

	resp := r.ReadTransform(subject, CategoryAI, 100)
	require.Equal(t, DecisionBlock, resp.Decision)
}

func TestResolverRenderFallsBackToExtrapolation(t *testing.T) {
	r := NewResolver()
	subject := identity.Pack(identity.KindPlayer, 1, 1)
	r.RecordTransform(subject, Sample{Tick: 0, Position: space.Vec3{}, Velocity: space.Vec3{X: 1}, Rotation: space.IdentityQuat, Confidence: 0.9})

	resp := r.ReadTransform(subject, CategoryRender, 50)
	require.Equal(t, DecisionSubstitute, resp.Decision)
}

func TestResolverCacheHitSkipsRecompute(t *testing.T) {
	r := NewResolver()
	subject := identity.Pack(identity.KindPlayer, 1, 1)
	r.RecordTransform(subject, Sample{Tick: 8, Position: space.Vec3{X: 1}, Rotation: space.IdentityQuat, Confidence: 0.95})

	first := r.ReadTransform(subject, CategoryPhysics, 10)
	r.RecordTransform(subject, Sample{Tick: 9, Position: space.Vec3{X: 99}, Rotation: space.IdentityQuat, Confidence: 0.95})
	second := r.ReadTransform(subject, CategoryPhysics, 10)

	require.Equal(t, first.Position, second.Position)
}

func TestResolverInvalidateSubjectClearsCache(t *testing.T) {
	r := NewResolver()
	subject := identity.Pack(identity.KindPlayer, 1, 1)
	r.RecordTransform(subject, Sample{Tick: 8, Position: space.Vec3{X: 1}, Rotation: space.IdentityQuat, Confidence: 0.95})
	r.ReadTransform(subject, CategoryPhysics, 10)

	r.InvalidateSubject(subject)
	require.Empty(t, r.cache)
}

func TestResponseBusGetDataDefaultsWhenMissing(t *testing.T) {
	r := NewResolver()
	bus := NewResponseBus(r)
	bus.PreconditionRender(nil, 10)

	resp := bus.GetData(identity.Pack(identity.KindPlayer, 1, 1))
	require.Equal(t, DecisionSubstitute, resp.Decision)
}

func TestResponseBusPreconditionAIIncludesSelf(t *testing.T) {
	r := NewResolver()
	self := identity.Pack(identity.KindPlayer, 1, 1)
	candidate := identity.Pack(identity.KindNPC, 2, 1)
	r.RecordTransform(self, Sample{Tick: 0, Position: space.Vec3{}, Rotation: space.IdentityQuat, Confidence: 0.9})

	bus := NewResponseBus(r)
	bus.PreconditionAI(self, []identity.NetId{candidate}, 1)

	_, ok := bus.snapshot[self]
	require.True(t, ok)
	_, ok = bus.snapshot[candidate]
	require.True(t, ok)
}
