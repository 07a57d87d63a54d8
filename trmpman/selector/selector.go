/*
This file contains the coin selector: the ordered chain of strategies
that choose which UTXOs a payment spends.

Strategies run in priority order, first success wins:

  A. single-output match     (no combinatorial risk, smallest waste)
  B. bounded combinations    (2..5 inputs from the largest candidates)
  C. exact subset-sum        (zero leftover, small inventories only)

Each strategy is a pure function over an immutable snapshot; failures
between strategies are plain control flow. When all three fail the
caller falls back to SelectWithChange, which greedily covers the target
and leaves change handling to the assembler.

Global tie-break order: fewer inputs > smaller leftover > higher
aggregate confirmation count (prefer spending older, safer outputs).
*/
package selector

import (
	"fmt"

	"github.com/trumpow/txcraft/trmpman/feemodel"
	"github.com/trumpow/txcraft/trmpman/utxo"
)

// Config holds the selector tunables.
type Config struct {
	// MaxOverpay is the largest leftover, in trumpies, a change-free
	// selection may fold into the fee. First-class knob: raising it
	// trades fee waste for more change-free hits.
	MaxOverpay int64

	// CandidateCap restricts strategy B to the N largest candidates so
	// the combination count stays polynomially bounded.
	CandidateCap int

	// MaxCombinationInputs caps the combination size strategy B tries.
	MaxCombinationInputs int

	// ExactSearchLimit is the largest inventory strategy C will search.
	ExactSearchLimit int
}

// DefaultConfig returns the production tunables.
func DefaultConfig() Config {
	return Config{
		MaxOverpay:           50_000, // 0.0005 TRMP
		CandidateCap:         20,
		MaxCombinationInputs: 5,
		ExactSearchLimit:     15,
	}
}

// Select runs strategies A, B and C over the inventory, in that order,
// and returns the first change-free selection covering target + fee.
// Returns ErrNoChangeFreeSolution when all strategies are exhausted.
func Select(inv []*utxo.UTXO, target int64, model feemodel.Model, cfg Config) (*Result, error) {
	if target <= 0 {
		return nil, fmt.Errorf("target amount must be positive, got %d", target)
	}
	sorted := utxo.SortedByAmountDesc(inv)

	if r := selectSingle(sorted, target, model, cfg.MaxOverpay); r != nil {
		return r, nil
	}
	if r, _ := selectCombination(sorted, target, model, cfg); r != nil {
		return r, nil
	}
	if len(sorted) <= cfg.ExactSearchLimit {
		if r := selectExact(sorted, target, model); r != nil {
			return r, nil
		}
	}
	return nil, ErrNoChangeFreeSolution
}

// selectSingle is strategy A: one UTXO whose amount lands in
// [target+fee, target+fee+maxOverpay] for a 1-input/1-output shape.
// Among matches the smallest leftover wins, then higher confirmations.
func selectSingle(sorted []*utxo.UTXO, target int64, model feemodel.Model, maxOverpay int64) *Result {
	fee := model.Estimate(1, 1)

	var best *utxo.UTXO
	var bestLeftover int64
	for _, u := range sorted {
		leftover := u.Amount - target - fee
		if leftover < 0 || leftover > maxOverpay {
			continue
		}
		if best == nil || leftover < bestLeftover ||
			(leftover == bestLeftover && u.Confirmations > best.Confirmations) {
			best = u
			bestLeftover = leftover
		}
	}
	if best == nil {
		return nil
	}
	return &Result{
		Chosen:     []*utxo.UTXO{best},
		TotalInput: best.Amount,
		Fee:        fee,
		Leftover:   bestLeftover,
	}
}

// SelectWithChange is the change-permitting fallback: greedily take
// UTXOs largest-first until they cover target + fee for an
// n-input/2-output shape (destination + change). The assembler decides
// whether the leftover becomes a change output or is folded into the fee.
func SelectWithChange(inv []*utxo.UTXO, target int64, model feemodel.Model) (*Result, error) {
	if target <= 0 {
		return nil, fmt.Errorf("target amount must be positive, got %d", target)
	}
	sorted := utxo.SortedByAmountDesc(inv)

	var sum int64
	for n, u := range sorted {
		sum += u.Amount
		fee := model.Estimate(n+1, 2)
		if sum >= target+fee {
			chosen := sorted[:n+1]
			return &Result{
				Chosen:     chosen,
				TotalInput: sum,
				Fee:        fee,
				Leftover:   sum - target - fee,
				WithChange: true,
			}, nil
		}
	}
	return nil, &InsufficientFundsError{
		Target:    target,
		Available: sum,
		Fee:       model.Estimate(max(len(sorted), 1), 2),
	}
}
