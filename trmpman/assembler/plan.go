/*
This file contains the TxPlan: the finished description of a transaction
to be signed and broadcast by the node.

A plan holds outpoints and an address→amount map, not scripts; the
MsgTx method materializes it into a wire.MsgTx when the node boundary
needs one. Balance invariant: sum(outputs) + fee == total input, exact
integer arithmetic, no rounding loss anywhere.
*/
package assembler

import (
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/trumpow/txcraft/trmpman/utxo"
)

// TxPlan is an ordered input list plus an output map and the fee they
// imply. Short-lived: created, optionally locked, consumed by signing,
// then discarded.
type TxPlan struct {
	Inputs     []utxo.Outpoint  // ordered
	Outputs    map[string]int64 // address -> trumpies
	Fee        int64            // trumpies
	TotalInput int64            // sum of the amounts behind Inputs
}

// OutputTotal sums the output values.
func (p *TxPlan) OutputTotal() int64 {
	var total int64
	for _, v := range p.Outputs {
		total += v
	}
	return total
}

// Check verifies the balance invariant and the dust floor.
func (p *TxPlan) Check(dust int64) error {
	if len(p.Inputs) == 0 {
		return fmt.Errorf("plan has no inputs")
	}
	if got := p.OutputTotal() + p.Fee; got != p.TotalInput {
		return fmt.Errorf("plan does not balance: outputs+fee=%d, inputs=%d", got, p.TotalInput)
	}
	for addr, v := range p.Outputs {
		if v < dust {
			return fmt.Errorf("output of %d to %s is below the dust floor %d", v, addr, dust)
		}
	}
	return nil
}

// SortedAddresses returns the output addresses in a fixed order, so
// that plan rendering and MsgTx materialization are deterministic.
func (p *TxPlan) SortedAddresses() []string {
	addrs := make([]string, 0, len(p.Outputs))
	for a := range p.Outputs {
		addrs = append(addrs, a)
	}
	sort.Strings(addrs)
	return addrs
}

// MsgTx materializes the plan as an unsigned wire.MsgTx for the given
// network. Outputs are emitted in SortedAddresses order.
func (p *TxPlan) MsgTx(params *chaincfg.Params) (*wire.MsgTx, error) {
	tx := wire.NewMsgTx(wire.TxVersion)

	for _, in := range p.Inputs {
		hash, err := chainhash.NewHashFromStr(in.TxID)
		if err != nil {
			return nil, fmt.Errorf("bad input txid %s: %w", in.TxID, err)
		}
		tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(hash, in.Vout), nil, nil))
	}

	for _, addr := range p.SortedAddresses() {
		decoded, err := btcutil.DecodeAddress(addr, params)
		if err != nil {
			return nil, fmt.Errorf("bad output address %s: %w", addr, err)
		}
		pkScript, err := txscript.PayToAddrScript(decoded)
		if err != nil {
			return nil, err
		}
		tx.AddTxOut(wire.NewTxOut(p.Outputs[addr], pkScript))
	}
	return tx, nil
}
