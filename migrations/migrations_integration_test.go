//go:build integration

package migrations

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegrationMigrations_UpResetUp(t *testing.T) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()

	require.NoError(t, Up(ctx, databaseURL))
	require.NoError(t, Up(ctx, databaseURL), "second Up must be a no-op")

	version, err := Version(ctx, databaseURL)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	require.NoError(t, Reset(ctx, databaseURL))
	version, err = Version(ctx, databaseURL)
	require.NoError(t, err)
	assert.Equal(t, int64(0), version)

	require.NoError(t, Up(ctx, databaseURL))
}
