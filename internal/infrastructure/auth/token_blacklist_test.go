package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryTokenBlacklist(t *testing.T) {
	ctx := context.Background()
	b := NewInMemoryTokenBlacklist()

	revoked, err := b.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, b.Revoke(ctx, "jti-1", time.Minute))
	revoked, err = b.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	require.NoError(t, b.Revoke(ctx, "jti-2", time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	revoked, err = b.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}
