/*
This file contains the consolidation planner: merging many small UTXOs
into a single larger one to reduce future selection cost.

Qualifying outputs are those under the small threshold. They are spent
smallest-first, capped at MaxInputs to bound transaction size, into one
output of sum - fee. A single qualifying UTXO is a no-op "consolidation"
and is rejected, not silently executed.
*/
package consolidate

import (
	"errors"

	"github.com/trumpow/txcraft/trmpman/assembler"
	"github.com/trumpow/txcraft/trmpman/feemodel"
	"github.com/trumpow/txcraft/trmpman/utxo"
)

// ErrNothingToConsolidate reports fewer than two qualifying UTXOs.
var ErrNothingToConsolidate = errors.New("fewer than 2 utxos qualify for consolidation")

// Defaults for the planner knobs.
const (
	DefaultSmallThreshold int64 = 5 * 100_000_000 // 5 TRMP
	DefaultMaxInputs            = 50
)

// Planner plans consolidation transactions.
type Planner struct {
	Assembler      *assembler.Assembler
	Model          feemodel.Model
	SmallThreshold int64 // qualify UTXOs strictly under this amount
	MaxInputs      int   // bound on transaction size
}

// Plan selects every qualifying UTXO (ascending by amount, up to
// MaxInputs) and assembles a single output to dest for sum - fee.
func (p *Planner) Plan(inv []*utxo.UTXO, dest string) (*assembler.TxPlan, error) {
	var small []*utxo.UTXO
	for _, u := range utxo.SortedByAmountAsc(inv) {
		if u.Amount >= p.SmallThreshold {
			continue
		}
		small = append(small, u)
		if len(small) == p.MaxInputs {
			break
		}
	}
	if len(small) < 2 {
		return nil, ErrNothingToConsolidate
	}

	fee := p.Model.Estimate(len(small), 1)
	return p.Assembler.ConsolidationPlan(small, dest, fee)
}
