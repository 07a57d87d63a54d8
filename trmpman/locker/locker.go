/*
This file contains the UTXO lock table: the only cross-request
coordination in the engine.

Every input of a TxPlan is locked here before the plan is handed to
signing, and released unconditionally when the sign/broadcast attempt
ends, success or failure. Locks expire after a bounded TTL so a crashed
or stalled holder cannot strand funds.

The table is an explicit component with New/Stop lifecycle, owned by
whoever builds the engine. No package-level mutable state.
*/
package locker

import (
	"fmt"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/trumpow/txcraft/trmpman/utxo"
)

// DefaultTTL bounds how long an outpoint stays locked without release.
const DefaultTTL = 30 * time.Minute

// ConflictError reports an attempt to lock an outpoint already held by
// another in-flight selection. Triggers exactly one re-selection retry
// in the engine, then surfaces as a transient failure.
type ConflictError struct {
	Outpoint utxo.Outpoint
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("utxo %s is locked by another request", e.Outpoint)
}

// LockInfo describes one held lock, for operator inspection.
type LockInfo struct {
	Outpoint  utxo.Outpoint `json:"outpoint"`
	LockedAt  time.Time     `json:"locked_at"`
	ExpiresAt time.Time     `json:"expires_at"`
}

// Table is a process-wide advisory lock table keyed by outpoint.
type Table struct {
	mu    sync.Mutex
	cache *ttlcache.Cache[utxo.Outpoint, time.Time]
}

// New creates a lock table whose entries expire after ttl and starts
// its expiry janitor. Call Stop when done.
func New(ttl time.Duration) *Table {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := ttlcache.New[utxo.Outpoint, time.Time](
		ttlcache.WithTTL[utxo.Outpoint, time.Time](ttl),
		ttlcache.WithDisableTouchOnHit[utxo.Outpoint, time.Time](),
	)
	go c.Start()
	return &Table{cache: c}
}

// LockAll acquires every outpoint or none. On conflict nothing is left
// locked and the contested outpoint is reported.
func (t *Table) LockAll(ops []utxo.Outpoint) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, op := range ops {
		if t.cache.Has(op) {
			return &ConflictError{Outpoint: op}
		}
	}
	now := time.Now()
	for _, op := range ops {
		t.cache.Set(op, now, ttlcache.DefaultTTL)
	}
	return nil
}

// Unlock releases the given outpoints. Unlocking an expired or never
// locked outpoint is a no-op, which is what the unconditional deferred
// release on every engine exit path needs.
func (t *Table) Unlock(ops ...utxo.Outpoint) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, op := range ops {
		t.cache.Delete(op)
	}
}

// Locked reports whether the outpoint is currently held.
func (t *Table) Locked(op utxo.Outpoint) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cache.Has(op)
}

// Snapshot lists the currently held locks.
func (t *Table) Snapshot() []LockInfo {
	t.mu.Lock()
	defer t.mu.Unlock()

	items := t.cache.Items()
	infos := make([]LockInfo, 0, len(items))
	for op, item := range items {
		infos = append(infos, LockInfo{
			Outpoint:  op,
			LockedAt:  item.Value(),
			ExpiresAt: item.ExpiresAt(),
		})
	}
	return infos
}

// Stop drains the table and halts the expiry janitor.
func (t *Table) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cache.DeleteAll()
	t.cache.Stop()
}
