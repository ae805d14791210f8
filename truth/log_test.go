package truth

import (
	"testing"
	"time"

	"github.com/The404Studios/Kenshi-Online-sub006/identity"
	"github.com/The404Studios/Kenshi-Online-sub006/schema"
	"github.com/The404Studios/Kenshi-Online-sub006/space"
	"github.com/The404Studios/Kenshi-Online-sub006/tick"
	"github.com/stretchr/testify/require"
)

func fixedNow(t time.Time) NowFunc {
	return func() time.Time { return t }
}

func TestCommitAssignsMonotoneIds(t *testing.T) {
	l := NewLog(Config{})
	subject := identity.Pack(identity.KindPlayer, 1, 1)
	now := fixedNow(time.Unix(0, 0))

	c1 := l.Commit(Request{Subject: subject, Op: OpSet, Payload: schema.HealthPayload{Current: 10, Maximum: 100}, Tick: 1}, now)
	c2 := l.Commit(Request{Subject: subject, Op: OpSet, Payload: schema.HealthPayload{Current: 20, Maximum: 100}, Tick: 2}, now)

	require.Equal(t, ResultAccepted, c1.Result)
	require.Equal(t, ResultAccepted, c2.Result)
	require.Greater(t, c2.CommitId, c1.CommitId)
}

func TestCommitRejectsTeleport(t *testing.T) {
	l := NewLog(Config{})
	subject := identity.Pack(identity.KindPlayer, 1, 1)
	now := fixedNow(time.Unix(0, 0))

	l.Commit(Request{
		Subject: subject, Op: OpSet, Tick: 1,
		Payload: schema.TransformPayload{Transform: space.Transform{Position: space.Vec3{X: 0}, Frame: space.WorldFrame}},
	}, now)

	rejected := l.Commit(Request{
		Subject: subject, Op: OpSet, Tick: 2,
		Payload: schema.TransformPayload{Transform: space.Transform{Position: space.Vec3{X: 10000}, Frame: space.WorldFrame}},
	}, now)

	require.Equal(t, ResultRejected, rejected.Result)
	require.Equal(t, RejectedCommitId, rejected.CommitId)
	require.Contains(t, rejected.Reason, "Teleport")

	// A rejection must never consume the commit-id counter.
	accepted := l.Commit(Request{
		Subject: subject, Op: OpSet, Tick: 3,
		Payload: schema.TransformPayload{Transform: space.Transform{Position: space.Vec3{X: 1}, Frame: space.WorldFrame}},
	}, now)
	require.Equal(t, int64(2), accepted.CommitId)
}

func TestCommitCoalescesSameTickSets(t *testing.T) {
	l := NewLog(Config{})
	subject := identity.Pack(identity.KindPlayer, 1, 1)
	now := fixedNow(time.Unix(0, 0))

	first := l.Commit(Request{Subject: subject, Op: OpSet, Tick: 5, Payload: schema.HealthPayload{Current: 10, Maximum: 100}}, now)
	second := l.Commit(Request{Subject: subject, Op: OpSet, Tick: 5, Payload: schema.HealthPayload{Current: 15, Maximum: 100}}, now)

	require.Equal(t, ResultCoalesced, second.Result)
	require.Equal(t, first.CommitId, second.CommitId)

	st, ok := l.EntityState(subject)
	require.True(t, ok)
	require.Equal(t, 15.0, st.Health.Current)

	// Coalescing must not allocate a fresh commit id.
	third := l.Commit(Request{Subject: subject, Op: OpSet, Tick: 6, Payload: schema.HealthPayload{Current: 20, Maximum: 100}}, now)
	require.Equal(t, first.CommitId+1, third.CommitId)
}

func TestCoalesceOccupiesExactlyOneRecentCommitsSlot(t *testing.T) {
	l := NewLog(Config{})
	subject := identity.Pack(identity.KindPlayer, 1, 1)
	now := fixedNow(time.Unix(0, 0))

	l.Commit(Request{Subject: subject, Op: OpSet, Tick: 5, Payload: schema.HealthPayload{Current: 10, Maximum: 100}}, now)
	second := l.Commit(Request{Subject: subject, Op: OpSet, Tick: 5, Payload: schema.HealthPayload{Current: 15, Maximum: 100}}, now)

	// A coalesced commit must replace, not append: RecentCommits holds
	// exactly one slot for the folded write, matching what a replay
	// from a snapshot taken after this point would reconstruct.
	st, ok := l.EntityState(subject)
	require.True(t, ok)
	require.Len(t, st.RecentCommits, 1)
	require.Equal(t, second.CommitId, st.RecentCommits[0].CommitId)
	require.Equal(t, 15.0, st.RecentCommits[0].Payload.(schema.HealthPayload).Current)
}

func TestCommitDoesNotCoalesceAcrossTicks(t *testing.T) {
	l := NewLog(Config{})
	subject := identity.Pack(identity.KindPlayer, 1, 1)
	now := fixedNow(time.Unix(0, 0))

	first := l.Commit(Request{Subject: subject, Op: OpSet, Tick: 1, Payload: schema.HealthPayload{Current: 10, Maximum: 100}}, now)
	second := l.Commit(Request{Subject: subject, Op: OpSet, Tick: 2, Payload: schema.HealthPayload{Current: 10, Maximum: 100}}, now)

	require.NotEqual(t, first.CommitId, second.CommitId)
	require.Equal(t, ResultAccepted, second.Result)
}

func TestCommitsSinceReturnsOrderedWindow(t *testing.T) {
	l := NewLog(Config{})
	subject := identity.Pack(identity.KindPlayer, 1, 1)
	now := fixedNow(time.Unix(0, 0))

	var ids []int64
	for i := 0; i < 5; i++ {
		c := l.Commit(Request{Subject: subject, Op: OpSet, Tick: tickOf(i), Payload: schema.HealthPayload{Current: float64(i), Maximum: 100}}, now)
		ids = append(ids, c.CommitId)
	}

	since := l.CommitsSince(ids[1])
	require.Len(t, since, 3)
	require.Equal(t, ids[2], since[0].CommitId)
	for i := 1; i < len(since); i++ {
		require.Greater(t, since[i].CommitId, since[i-1].CommitId)
	}
}

func TestCommitsForEntityFiltersBySubject(t *testing.T) {
	l := NewLog(Config{})
	a := identity.Pack(identity.KindPlayer, 1, 1)
	b := identity.Pack(identity.KindPlayer, 2, 1)
	now := fixedNow(time.Unix(0, 0))

	l.Commit(Request{Subject: a, Op: OpSet, Tick: 1, Payload: schema.HealthPayload{Current: 1, Maximum: 100}}, now)
	l.Commit(Request{Subject: b, Op: OpSet, Tick: 1, Payload: schema.HealthPayload{Current: 2, Maximum: 100}}, now)
	l.Commit(Request{Subject: a, Op: OpSet, Tick: 2, Payload: schema.HealthPayload{Current: 3, Maximum: 100}}, now)

	forA := l.CommitsForEntity(a, nil)
	require.Len(t, forA, 2)
	for _, c := range forA {
		require.Equal(t, a, c.Subject)
	}
}

func TestMaybeSnapshotLockedTriggersOnInterval(t *testing.T) {
	l := NewLog(Config{SnapshotInterval: 3})
	subject := identity.Pack(identity.KindPlayer, 1, 1)
	now := fixedNow(time.Unix(0, 0))

	for i := 0; i < 3; i++ {
		l.Commit(Request{Subject: subject, Op: OpSet, Tick: tickOf(i), Payload: schema.HealthPayload{Current: float64(i), Maximum: 100}}, now)
	}

	snaps := l.Snapshots()
	require.Len(t, snaps, 1)
	require.Equal(t, int64(3), snaps[0].CommitId)
}

func tickOf(i int) tick.Tick {
	return tick.Tick(i)
}
