/*
This file contains the inventory loader: the snapshot of spendable
outputs a selection runs against.

A snapshot is loaded fresh for every attempt — never cached across
requests — because the underlying outputs can be spent elsewhere
between snapshot and broadcast. Outputs locked by other in-flight
selections are excluded here, so the selector never sees them.
*/
package engine

import (
	"github.com/scylladb/go-set/strset"
	logger "github.com/sirupsen/logrus"

	"github.com/trumpow/txcraft/trmpman/locker"
	"github.com/trumpow/txcraft/trmpman/rpc"
	"github.com/trumpow/txcraft/trmpman/utxo"
)

// Inventory loads spendable-output snapshots for address sets.
type Inventory struct {
	node  NodeClient
	locks *locker.Table
}

// NewInventory wires the loader to a node and the shared lock table.
func NewInventory(node NodeClient, locks *locker.Table) *Inventory {
	return &Inventory{node: node, locks: locks}
}

// Load snapshots the spendable outputs of the given addresses with at
// least minConf confirmations, excluding anything currently locked.
// A failed node query surfaces as InventoryUnavailableError, never as
// an empty set.
func (inv *Inventory) Load(addresses []string, minConf int) ([]*utxo.UTXO, error) {
	// de-duplicate while keeping a stable order
	set := strset.New(addresses...)
	addrs := set.List()

	utxos, err := inv.node.ListUnspent(minConf, rpc.MaxConfirm, addrs)
	if err != nil {
		return nil, &InventoryUnavailableError{Cause: err}
	}

	usable := utxo.Filter(utxos, int64(minConf), inv.locks.Locked)
	if len(usable) < len(utxos) {
		logger.Debugf("inventory: %d of %d outputs excluded (locked or shallow)",
			len(utxos)-len(usable), len(utxos))
	}
	return usable, nil
}
