package revocation

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_RevokeAndCheck(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reg := NewMemory(nil)

	revoked, err := reg.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, reg.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))

	revoked, err = reg.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = reg.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestMemory_RevokeIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reg := NewMemory(nil)
	exp := time.Now().Add(time.Hour)

	for i := 0; i < 3; i++ {
		require.NoError(t, reg.Revoke(ctx, "jti-1", exp))
	}
	assert.Equal(t, 1, reg.Len())
}

func TestMemory_RevokeEmptyJTI(t *testing.T) {
	t.Parallel()

	err := NewMemory(nil).Revoke(context.Background(), "", time.Now())
	assert.ErrorIs(t, err, ErrEmptyJTI)
}

func TestMemory_SweepEvictsOnlyExpired(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reg := NewMemory(nil)
	now := time.Now()

	require.NoError(t, reg.Revoke(ctx, "expired", now.Add(-time.Second)))
	require.NoError(t, reg.Revoke(ctx, "at-deadline", now))
	require.NoError(t, reg.Revoke(ctx, "live", now.Add(time.Hour)))

	removed := reg.Sweep(now)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, reg.Len())

	revoked, err := reg.IsRevoked(ctx, "live")
	require.NoError(t, err)
	assert.True(t, revoked, "unexpired revocation must survive the sweep")
}

func TestMemory_RevokeExtendsExpiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reg := NewMemory(nil)
	now := time.Now()

	require.NoError(t, reg.Revoke(ctx, "jti", now.Add(time.Minute)))
	require.NoError(t, reg.Revoke(ctx, "jti", now.Add(time.Hour)))
	require.NoError(t, reg.Revoke(ctx, "jti", now.Add(time.Second)))

	assert.Equal(t, 0, reg.Sweep(now.Add(30*time.Minute)))
	assert.Equal(t, 1, reg.Sweep(now.Add(2*time.Hour)))
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reg := NewMemory(nil)
	exp := time.Now().Add(time.Hour)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(2)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_ = reg.Revoke(ctx, fmt.Sprintf("jti-%d-%d", w, i), exp)
			}
		}(w)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_, _ = reg.IsRevoked(ctx, fmt.Sprintf("jti-%d-%d", w, i))
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 800, reg.Len())
}

func TestMemory_RunSweepsAndShutsDown(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reg := NewMemory(nil)
	require.NoError(t, reg.Revoke(ctx, "expired", time.Now().Add(-time.Minute)))

	errCh := make(chan error, 1)
	go func() {
		errCh <- reg.Run(ctx, 10*time.Millisecond)
	}()

	require.Eventually(t, func() bool { return reg.Len() == 0 }, time.Second, 5*time.Millisecond)

	shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, reg.Shutdown(shutdownCtx))
	require.NoError(t, <-errCh)
}

func TestMemory_ShutdownWithoutRun(t *testing.T) {
	t.Parallel()

	assert.NoError(t, NewMemory(nil).Shutdown(context.Background()))
}
