package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibe-music/vibe-music-server/internal/domain"
)

func newTestRegistry(t *testing.T) (*Registry, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRegistry(client), mr
}

var testIdentity = domain.Identity{Role: domain.RoleUser, SubjectID: 7}

func TestRegistryPutAndRevoke(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	live, err := reg.IsLive(ctx, "tok-a")
	require.NoError(t, err)
	assert.False(t, live, "never issued")

	require.NoError(t, reg.Put(ctx, "tok-a", testIdentity, time.Hour))

	live, err = reg.IsLive(ctx, "tok-a")
	require.NoError(t, err)
	assert.True(t, live)

	require.NoError(t, reg.Revoke(ctx, "tok-a"))

	live, err = reg.IsLive(ctx, "tok-a")
	require.NoError(t, err)
	assert.False(t, live)
}

func TestRegistryRevokeIsIdempotent(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	assert.NoError(t, reg.Revoke(ctx, "never-issued"))
	require.NoError(t, reg.Put(ctx, "tok", testIdentity, time.Hour))
	assert.NoError(t, reg.Revoke(ctx, "tok"))
	assert.NoError(t, reg.Revoke(ctx, "tok"))
	assert.NoError(t, reg.Revoke(ctx, ""))
}

func TestRegistryEntryExpiresWithTTL(t *testing.T) {
	reg, mr := newTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, reg.Put(ctx, "tok", testIdentity, 6*time.Hour))

	ttl, err := reg.TTL(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, 6*time.Hour, ttl)

	mr.FastForward(6*time.Hour + time.Second)

	live, err := reg.IsLive(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, live)

	ttl, err = reg.TTL(ctx, "tok")
	require.NoError(t, err)
	assert.Zero(t, ttl)
}

func TestRegistryEntriesAreIndependent(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, reg.Put(ctx, "device-1", testIdentity, time.Hour))
	require.NoError(t, reg.Put(ctx, "device-2", testIdentity, time.Hour))
	require.NoError(t, reg.Revoke(ctx, "device-1"))

	live, err := reg.IsLive(ctx, "device-2")
	require.NoError(t, err)
	assert.True(t, live)
}

func TestRegistryStoresSentinel(t *testing.T) {
	reg, mr := newTestRegistry(t)

	require.NoError(t, reg.Put(context.Background(), "tok", testIdentity, time.Minute))

	val, err := mr.Get("session:tok")
	require.NoError(t, err)
	assert.Equal(t, "ROLE_USER:7", val)
}

func TestRegistryRejectsBadInput(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	assert.Error(t, reg.Put(ctx, "", testIdentity, time.Hour))
	assert.Error(t, reg.Put(ctx, "tok", testIdentity, 0))

	live, err := reg.IsLive(ctx, "")
	require.NoError(t, err)
	assert.False(t, live)
}

func TestRegistryStoreFailure(t *testing.T) {
	reg, mr := newTestRegistry(t)
	ctx := context.Background()
	require.NoError(t, reg.Put(ctx, "tok", testIdentity, time.Hour))

	mr.SetError("ERR simulated outage")

	live, err := reg.IsLive(ctx, "tok")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.False(t, live)

	assert.ErrorIs(t, reg.Put(ctx, "other", testIdentity, time.Hour), ErrStoreUnavailable)
	assert.ErrorIs(t, reg.Revoke(ctx, "tok"), ErrStoreUnavailable)
}
