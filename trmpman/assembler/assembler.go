/*
This file contains the transaction assembler: it turns a selection into
a TxPlan, deciding how the leftover is disposed of.

Rules:
  - change-free selection: any leftover (already capped by the
    selector's overpay window) is absorbed into the fee.
  - change-permitting selection with leftover below the dust floor:
    folded into the fee, no change output.
  - change-permitting selection with leftover at or above the dust
    floor: one change output of exactly the leftover.

Exactly one output goes to the destination, for the exact target
amount. A payment is never split across destination outputs, and the
output map never carries two outputs to the same address.
*/
package assembler

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"

	"github.com/trumpow/txcraft/chain"
	"github.com/trumpow/txcraft/common"
	"github.com/trumpow/txcraft/trmpman/selector"
	"github.com/trumpow/txcraft/trmpman/utxo"
)

// DefaultDustThreshold is 0.001 TRMP. Outputs below it are disallowed
// and folded into the fee instead.
const DefaultDustThreshold int64 = 100_000

// TargetPayment describes a single-recipient payment.
// Amounts are integers in trumpies; decimal input must be converted at
// the boundary (common.ParseAmount) before it gets here.
type TargetPayment struct {
	DestAddr string
	Amount   int64
	MaxFee   int64 // 0 means no cap
}

// MaxFeeExceededError reports a plan whose fee (after dust folding)
// passed the payment's acceptable maximum.
type MaxFeeExceededError struct {
	Fee    int64
	MaxFee int64
}

func (e *MaxFeeExceededError) Error() string {
	return fmt.Sprintf("fee %s exceeds the acceptable maximum %s",
		common.FormatAmount(e.Fee), common.FormatAmount(e.MaxFee))
}

// Assembler builds TxPlans for one network.
type Assembler struct {
	ChainParams *chaincfg.Params
	Dust        int64
}

// New returns an assembler with the default dust threshold.
func New(params *chaincfg.Params) *Assembler {
	return &Assembler{ChainParams: params, Dust: DefaultDustThreshold}
}

// Build turns a selection into a TxPlan paying exactly pay.Amount to
// pay.DestAddr. changeAddr receives the leftover when the selection
// permits change and the leftover clears the dust floor; it may be
// empty otherwise.
func (a *Assembler) Build(sel *selector.Result, pay TargetPayment, changeAddr string) (*TxPlan, error) {
	if err := chain.ValidateAddress(pay.DestAddr, a.ChainParams); err != nil {
		return nil, err
	}
	if pay.Amount < a.Dust {
		return nil, fmt.Errorf("payment of %s is below the dust floor %s",
			common.FormatAmount(pay.Amount), common.FormatAmount(a.Dust))
	}

	fee := sel.Fee
	leftover := sel.Leftover
	outputs := map[string]int64{pay.DestAddr: pay.Amount}

	switch {
	case leftover == 0:
		// exact; nothing to dispose of
	case !sel.WithChange || leftover < a.Dust:
		// absorbed: either a change-free overpay or sub-dust change
		fee += leftover
	default:
		if changeAddr == "" {
			return nil, fmt.Errorf("selection requires a change output but no change address was designated")
		}
		if err := chain.ValidateAddress(changeAddr, a.ChainParams); err != nil {
			return nil, err
		}
		if changeAddr == pay.DestAddr {
			// merging change into the payment would silently pay the
			// destination more than requested
			return nil, fmt.Errorf("change address equals the destination address %s", changeAddr)
		}
		outputs[changeAddr] = leftover
	}

	if pay.MaxFee > 0 && fee > pay.MaxFee {
		return nil, &MaxFeeExceededError{Fee: fee, MaxFee: pay.MaxFee}
	}

	plan := &TxPlan{
		Inputs:     sel.Outpoints(),
		Outputs:    outputs,
		Fee:        fee,
		TotalInput: sel.TotalInput,
	}
	if err := plan.Check(a.Dust); err != nil {
		return nil, err
	}
	return plan, nil
}

// ConsolidationPlan builds a plan spending the given UTXOs into a single
// output of sum-fee to dest. Used by the consolidation planner, which
// owns the qualification rules.
func (a *Assembler) ConsolidationPlan(chosen []*utxo.UTXO, dest string, fee int64) (*TxPlan, error) {
	if err := chain.ValidateAddress(dest, a.ChainParams); err != nil {
		return nil, err
	}
	total := utxo.Sum(chosen)
	out := total - fee
	if out < a.Dust {
		return nil, fmt.Errorf("consolidated output of %s would be below the dust floor",
			common.FormatAmount(out))
	}

	ops := make([]utxo.Outpoint, len(chosen))
	for i, u := range chosen {
		ops[i] = u.Outpoint()
	}
	plan := &TxPlan{
		Inputs:     ops,
		Outputs:    map[string]int64{dest: out},
		Fee:        fee,
		TotalInput: total,
	}
	if err := plan.Check(a.Dust); err != nil {
		return nil, err
	}
	return plan, nil
}
