/*
This file contains the low-level data structures shared across the engine:
  - Outpoint: the (tx_id, vout) pair that identifies a spendable output.
  - UTXO: one unspent transaction output, as snapshotted from the node.
*/
package utxo

import (
	"fmt"

	"github.com/trumpow/txcraft/common"
)

// Outpoint identifies a single transaction output.
// It is comparable, so it can key maps and lock tables directly.
type Outpoint struct {
	TxID string // 64-character hex string, no 0x prefix
	Vout uint32 // index into the tx's outputs
}

func (o Outpoint) String() string {
	return fmt.Sprintf("%s:%d", o.TxID, o.Vout)
}

// UTXO represents one unspent transaction output.
// A UTXO value is a snapshot: immutable once loaded, and never a live
// reference into node state. The underlying output can be spent elsewhere
// between snapshot and broadcast, which is why snapshots are reloaded
// fresh for every selection attempt.
type UTXO struct {
	TxID          string // Identifier, human readable
	Vout          uint32 // exact index of the tx's outputs to be spent
	Address       string // owning address
	Amount        int64  // in trumpies
	Confirmations int64  // depth at snapshot time
	PkScript      []byte // locking script of the output
}

// Outpoint returns the identifying (tx_id, vout) pair.
func (u *UTXO) Outpoint() Outpoint {
	return Outpoint{TxID: u.TxID, Vout: u.Vout}
}

// AmountHuman returns a display amount in whole TRMP.
// eg. 1e8 (trumpies) = "1" (TRMP)
func (u *UTXO) AmountHuman() string {
	return common.FormatAmount(u.Amount)
}
