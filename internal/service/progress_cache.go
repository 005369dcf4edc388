package service

import (
	"sync"

	"edforge_backend/internal/model"
)

// ProgressCache is the optimistic mirror of ledger state consumed by
// UI-facing callers: apply the guess immediately, reconcile with the
// server's answer, or roll back when the write fails. The cache never
// retains a state the server rejected.
type ProgressCache struct {
	mu      sync.RWMutex
	entries map[progressKey]model.ProgressRecord
}

type progressKey struct {
	UserID  uint
	BlockID uint
}

// CacheSnapshot is the rollback token for one optimistic write.
type CacheSnapshot struct {
	key    progressKey
	prior  model.ProgressRecord
	hadKey bool
}

func NewProgressCache() *ProgressCache {
	return &ProgressCache{entries: make(map[progressKey]model.ProgressRecord)}
}

func (c *ProgressCache) Get(userID, blockID uint) (model.ProgressRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.entries[progressKey{UserID: userID, BlockID: blockID}]
	return rec, ok
}

// ApplyOptimistic stores the guessed record and returns the snapshot
// needed to undo it if the server write fails.
func (c *ProgressCache) ApplyOptimistic(record model.ProgressRecord) CacheSnapshot {
	key := progressKey{UserID: record.UserID, BlockID: record.ContentBlockID}

	c.mu.Lock()
	defer c.mu.Unlock()
	prior, hadKey := c.entries[key]
	c.entries[key] = record
	return CacheSnapshot{key: key, prior: prior, hadKey: hadKey}
}

// Reconcile replaces the optimistic guess with the authoritative
// server record. Server truth supersedes the guess: server-side rules
// may have rejected or altered what the client assumed.
func (c *ProgressCache) Reconcile(record model.ProgressRecord) {
	key := progressKey{UserID: record.UserID, BlockID: record.ContentBlockID}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = record
}

// Rollback restores the pre-optimistic value after a failed write.
func (c *ProgressCache) Rollback(snap CacheSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if snap.hadKey {
		c.entries[snap.key] = snap.prior
	} else {
		delete(c.entries, snap.key)
	}
}

// Seed loads authoritative records wholesale, e.g. after a bulk read.
func (c *ProgressCache) Seed(records []model.ProgressRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, rec := range records {
		c.entries[progressKey{UserID: rec.UserID, BlockID: rec.ContentBlockID}] = rec
	}
}
