package transport

import (
	"testing"
	"time"

	"github.com/The404Studios/Kenshi-Online-sub006/confidence"
	"github.com/The404Studios/Kenshi-Online-sub006/identity"
	"github.com/The404Studios/Kenshi-Online-sub006/info"
	"github.com/The404Studios/Kenshi-Online-sub006/schema"
	"github.com/The404Studios/Kenshi-Online-sub006/tick"
	"github.com/The404Studios/Kenshi-Online-sub006/truth"
	"github.com/stretchr/testify/require"
)

func TestRingInboundEnqueueUsesNowTick(t *testing.T) {
	ring := info.NewRing(8, confidence.DefaultPolicy(), confidence.NewReliabilityTracker(0.05), info.DefaultRateLimitPolicy())
	inbound := RingInbound{Ring: ring, NowTick: func() tick.Tick { return 42 }}

	subject := identity.Pack(identity.KindPlayer, 1, 1)
	entry, ok := inbound.Enqueue(info.EnqueueRequest{
		Subject: subject, Source: "src", Payload: schema.HealthPayload{Current: 1, Maximum: 100}, SampleCount: 1,
	})

	require.True(t, ok)
	require.Equal(t, tick.Tick(42), entry.ReceiveTick)
}

func TestLogOutboundDrainsCommits(t *testing.T) {
	l := truth.NewLog(truth.Config{})
	subject := identity.Pack(identity.KindPlayer, 1, 1)
	now := func() time.Time { return time.Unix(0, 0) }

	l.Commit(truth.Request{Subject: subject, Op: truth.OpSet, Tick: 1, Payload: schema.HealthPayload{Current: 1, Maximum: 100}}, now)

	out := LogOutbound{Log: l}
	commits := out.CommitsSince(0)
	require.Len(t, commits, 1)
}
