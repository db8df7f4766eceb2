package distlock

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/cmlabs-hris/worklog-ledger/internal/domain/worklog"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLocker(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDRESS")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDRESS not set, skipping Redis integration test")
	}

	ctx := context.Background()
	rdb, err := NewRedisClient(ctx, addr, "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	locker := NewRedisLocker(rdb)
	key := "lock:worklog-sweep:test:" + uuid.NewString()

	release, err := locker.Obtain(ctx, key, time.Minute)
	require.NoError(t, err)

	_, err = locker.Obtain(ctx, key, time.Minute)
	assert.ErrorIs(t, err, worklog.ErrSweepAlreadyInProgress)

	require.NoError(t, release(ctx))
	assert.NoError(t, release(ctx), "releasing twice is harmless")

	again, err := locker.Obtain(ctx, key, time.Minute)
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}
