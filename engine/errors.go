/*
This file contains the typed failures that cross the engine boundary.

Everything surfaced to the caller carries enough context (target
amount, available total, fee attempted, contested outpoint) to render a
precise user-facing message without re-deriving it. Strategy-internal
failures never appear here; they are control flow inside the selector.
*/
package engine

import (
	"fmt"

	"github.com/trumpow/txcraft/trmpman/utxo"
)

// InventoryUnavailableError reports a failed node query during
// inventory load. It is always surfaced; a failed load is never
// treated as an empty inventory.
type InventoryUnavailableError struct {
	Cause error
}

func (e *InventoryUnavailableError) Error() string {
	return fmt.Sprintf("utxo inventory unavailable: %v", e.Cause)
}

func (e *InventoryUnavailableError) Unwrap() error { return e.Cause }

// StaleInputError reports an input that vanished between the inventory
// snapshot and the pre-sign verification: spent elsewhere, or rolled
// back below the confirmation floor.
type StaleInputError struct {
	Outpoint utxo.Outpoint
}

func (e *StaleInputError) Error() string {
	return fmt.Sprintf("input %s is no longer unspent", e.Outpoint)
}

// SigningError reports a node-side signing failure. Not retried by the
// engine; the caller decides.
type SigningError struct {
	Cause error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("signing failed: %v", e.Cause)
}

func (e *SigningError) Unwrap() error { return e.Cause }

// BroadcastError reports a node-side broadcast failure. Never retried
// by the engine: re-sending an already-accepted transaction looks like
// a duplicate send.
type BroadcastError struct {
	Cause error
}

func (e *BroadcastError) Error() string {
	return fmt.Sprintf("broadcast failed: %v", e.Cause)
}

func (e *BroadcastError) Unwrap() error { return e.Cause }
