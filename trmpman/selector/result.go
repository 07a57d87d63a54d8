/*
This file contains the selector's result and failure types.

A Result is short-lived: created, optionally locked, consumed by the
assembler/signing, then discarded whether the attempt succeeds or fails.
*/
package selector

import (
	"errors"
	"fmt"

	"github.com/trumpow/txcraft/common"
	"github.com/trumpow/txcraft/trmpman/utxo"
)

// Result is a successful selection of UTXOs for a target amount.
//
// Invariants: TotalInput == sum of Chosen amounts,
// TotalInput >= target + Fee, Leftover == TotalInput - target - Fee >= 0.
type Result struct {
	Chosen     []*utxo.UTXO // ordered, largest first
	TotalInput int64
	Fee        int64
	Leftover   int64

	// WithChange marks a result produced by the change-permitting
	// fallback. Only such a result may grow a change output; for
	// change-free results any leftover is absorbed into the fee.
	WithChange bool
}

// Outpoints returns the outpoints of the chosen UTXOs, in order.
func (r *Result) Outpoints() []utxo.Outpoint {
	ops := make([]utxo.Outpoint, len(r.Chosen))
	for i, u := range r.Chosen {
		ops[i] = u.Outpoint()
	}
	return ops
}

// ErrNoChangeFreeSolution reports that strategies A-C are exhausted.
// It is local control flow between the selector and the assembler's
// change-permitting fallback, never a user-visible failure.
var ErrNoChangeFreeSolution = errors.New("no change-free utxo combination")

// InsufficientFundsError reports that no combination of available UTXOs,
// even with change, reaches target + minimum fee. Terminal.
type InsufficientFundsError struct {
	Target    int64 // trumpies requested
	Available int64 // sum of all spendable trumpies
	Fee       int64 // fee attempted for the largest shape tried
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: need %s + %s fee, have %s",
		common.FormatAmount(e.Target), common.FormatAmount(e.Fee), common.FormatAmount(e.Available))
}
