package service

import (
	"testing"

	"edforge_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cachedRecord(userID, blockID uint, completed bool, seconds int) model.ProgressRecord {
	return model.ProgressRecord{
		UserID:           userID,
		ContentBlockID:   blockID,
		IsCompleted:      completed,
		TimeSpentSeconds: seconds,
	}
}

func TestCacheOptimisticApplyAndRollback(t *testing.T) {
	cache := NewProgressCache()
	cache.Seed([]model.ProgressRecord{cachedRecord(5, 1, false, 30)})

	snap := cache.ApplyOptimistic(cachedRecord(5, 1, true, 60))
	rec, ok := cache.Get(5, 1)
	require.True(t, ok)
	assert.True(t, rec.IsCompleted)

	cache.Rollback(snap)
	rec, ok = cache.Get(5, 1)
	require.True(t, ok)
	assert.False(t, rec.IsCompleted)
	assert.Equal(t, 30, rec.TimeSpentSeconds)
}

func TestCacheRollbackRemovesFreshEntry(t *testing.T) {
	cache := NewProgressCache()

	snap := cache.ApplyOptimistic(cachedRecord(5, 2, true, 10))
	_, ok := cache.Get(5, 2)
	require.True(t, ok)

	// no prior state existed, so rollback clears the key entirely
	cache.Rollback(snap)
	_, ok = cache.Get(5, 2)
	assert.False(t, ok)
}

func TestCacheReconcileSupersedesGuess(t *testing.T) {
	cache := NewProgressCache()

	cache.ApplyOptimistic(cachedRecord(5, 3, true, 0))
	cache.Reconcile(cachedRecord(5, 3, false, 45))

	rec, ok := cache.Get(5, 3)
	require.True(t, ok)
	assert.False(t, rec.IsCompleted, "server rejection wins over the guess")
	assert.Equal(t, 45, rec.TimeSpentSeconds)
}

func TestBlockProgressZeroStateAndMirror(t *testing.T) {
	env := newTestEnv(t)
	blockID := env.addBlock(t, env.sessionID, model.BlockText, true, 1, model.TextData{Body: "x"})

	// never touched: zero state, not an error
	rec, err := env.progress.BlockProgress(5, blockID)
	require.NoError(t, err)
	assert.False(t, rec.IsCompleted)
	assert.Equal(t, 0, rec.TimeSpentSeconds)

	_, err = env.progress.UpdateProgress(5, blockID, UpdateProgressRequest{IsCompleted: true, TimeSpentSeconds: 25})
	require.NoError(t, err)

	// served from the mirror after the write reconciled it
	_, ok := env.progress.Cache.Get(5, blockID)
	assert.True(t, ok)
	rec, err = env.progress.BlockProgress(5, blockID)
	require.NoError(t, err)
	assert.True(t, rec.IsCompleted)
	assert.Equal(t, 25, rec.TimeSpentSeconds)
}

func TestCacheEntriesArePerUser(t *testing.T) {
	cache := NewProgressCache()
	cache.Seed([]model.ProgressRecord{
		cachedRecord(5, 1, true, 100),
		cachedRecord(6, 1, false, 5),
	})

	mine, ok := cache.Get(5, 1)
	require.True(t, ok)
	assert.True(t, mine.IsCompleted)

	theirs, ok := cache.Get(6, 1)
	require.True(t, ok)
	assert.False(t, theirs.IsCompleted)
}
