package authority

import (
	"testing"

	"github.com/The404Studios/Kenshi-Online-sub006/identity"
	"github.com/stretchr/testify/require"
)

func TestCanWriteRequiresMatchingOwnerAndScope(t *testing.T) {
	tr := NewTracker()
	entity := identity.Pack(identity.KindPlayer, 1, 1)
	client := identity.Pack(identity.KindPlayer, 2, 1)

	tr.Grant(entity, Coordinate{
		Owner: OwnerClient, Scope: ScopeTransform, Epoch: 1,
		OwnerId: client, GrantedAt: 0, ExpiresAt: NoExpiry,
	})

	require.True(t, tr.CanWrite(entity, OwnerClient, client, ScopeTransform, 5))
	require.False(t, tr.CanWrite(entity, OwnerServer, identity.Invalid, ScopeTransform, 5))
	require.False(t, tr.CanWrite(entity, OwnerClient, client, ScopeHealth, 5))

	other := identity.Pack(identity.KindPlayer, 3, 1)
	require.False(t, tr.CanWrite(entity, OwnerClient, other, ScopeTransform, 5))
}

func TestTransferAuthorityRequiresHigherEpoch(t *testing.T) {
	tr := NewTracker()
	entity := identity.Pack(identity.KindPlayer, 1, 1)

	require.True(t, tr.TransferAuthority(entity, Coordinate{
		Owner: OwnerServer, Scope: ScopeHealth, Epoch: 1, GrantedAt: 0, ExpiresAt: NoExpiry,
	}))
	// Same or lower epoch is rejected.
	require.False(t, tr.TransferAuthority(entity, Coordinate{
		Owner: OwnerClient, Scope: ScopeHealth, Epoch: 1, GrantedAt: 0, ExpiresAt: NoExpiry,
	}))
	require.True(t, tr.CanWrite(entity, OwnerServer, identity.Invalid, ScopeHealth, 0))

	require.True(t, tr.TransferAuthority(entity, Coordinate{
		Owner: OwnerClient, Scope: ScopeHealth, Epoch: 2, GrantedAt: 0, ExpiresAt: NoExpiry,
	}))
	require.False(t, tr.CanWrite(entity, OwnerServer, identity.Invalid, ScopeHealth, 0))
}

func TestScopedIndependentGrants(t *testing.T) {
	tr := NewTracker()
	entity := identity.Pack(identity.KindPlayer, 1, 1)
	client := identity.Pack(identity.KindPlayer, 9, 1)

	tr.Grant(entity, Coordinate{Owner: OwnerServer, Scope: ScopeInventory, Epoch: 1, ExpiresAt: NoExpiry})
	tr.Grant(entity, Coordinate{Owner: OwnerClient, Scope: ScopeTransform, Epoch: 1, OwnerId: client, ExpiresAt: NoExpiry})

	require.True(t, tr.CanWrite(entity, OwnerServer, identity.Invalid, ScopeInventory, 0))
	require.True(t, tr.CanWrite(entity, OwnerClient, client, ScopeTransform, 0))
	require.False(t, tr.CanWrite(entity, OwnerClient, client, ScopeInventory, 0))
}

func TestRevokeClearsAllGrants(t *testing.T) {
	tr := NewTracker()
	entity := identity.Pack(identity.KindPlayer, 1, 1)
	tr.Grant(entity, Coordinate{Owner: OwnerServer, Scope: ScopeAll, Epoch: 1, ExpiresAt: NoExpiry})
	require.True(t, tr.CanWrite(entity, OwnerServer, identity.Invalid, ScopeAll, 0))

	tr.Revoke(entity)
	require.False(t, tr.CanWrite(entity, OwnerServer, identity.Invalid, ScopeAll, 0))
}

func TestExpiredGrantCannotWrite(t *testing.T) {
	tr := NewTracker()
	entity := identity.Pack(identity.KindPlayer, 1, 1)
	tr.Grant(entity, Coordinate{Owner: OwnerServer, Scope: ScopeTransform, Epoch: 1, GrantedAt: 0, ExpiresAt: 10})

	require.True(t, tr.CanWrite(entity, OwnerServer, identity.Invalid, ScopeTransform, 5))
	require.False(t, tr.CanWrite(entity, OwnerServer, identity.Invalid, ScopeTransform, 11))
}

func TestNextEpochMonotone(t *testing.T) {
	tr := NewTracker()
	a := tr.NextEpoch()
	b := tr.NextEpoch()
	require.Less(t, a, b)
}
