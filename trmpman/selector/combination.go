/*
This file contains strategy B: the bounded combination search.

Candidates are restricted to a fixed-size prefix of the inventory sorted
descending by amount, so the number of combinations examined is bounded
by C(cap,2)+...+C(cap,maxInputs) regardless of inventory size — with the
default cap of 20 and max 5 inputs, at most 21,679 — never exponential
in the full inventory.
*/
package selector

import (
	"github.com/trumpow/txcraft/trmpman/feemodel"
	"github.com/trumpow/txcraft/trmpman/utxo"
)

// selectCombination tries combinations of 2..MaxCombinationInputs UTXOs
// drawn from the CandidateCap largest candidates. Input counts are tried
// ascending (fewer inputs preferred); within a count, the smallest
// leftover wins, then higher aggregate confirmations.
//
// The examined combination count is returned for bound verification.
func selectCombination(sorted []*utxo.UTXO, target int64, model feemodel.Model, cfg Config) (*Result, int) {
	cands := sorted
	if len(cands) > cfg.CandidateCap {
		cands = cands[:cfg.CandidateCap]
	}

	examined := 0
	for k := 2; k <= cfg.MaxCombinationInputs && k <= len(cands); k++ {
		fee := model.Estimate(k, 1)

		var best []int
		var bestLeftover, bestConf int64
		eachCombination(len(cands), k, func(idx []int) {
			examined++
			var sum int64
			for _, i := range idx {
				sum += cands[i].Amount
			}
			leftover := sum - target - fee
			if leftover < 0 || leftover > cfg.MaxOverpay {
				return
			}
			var conf int64
			for _, i := range idx {
				conf += cands[i].Confirmations
			}
			if best == nil || leftover < bestLeftover ||
				(leftover == bestLeftover && conf > bestConf) {
				best = append(best[:0], idx...)
				bestLeftover = leftover
				bestConf = conf
			}
		})

		if best != nil {
			chosen := make([]*utxo.UTXO, len(best))
			for i, ci := range best {
				chosen[i] = cands[ci]
			}
			return &Result{
				Chosen:     chosen,
				TotalInput: utxo.Sum(chosen),
				Fee:        fee,
				Leftover:   bestLeftover,
			}, examined
		}
	}
	return nil, examined
}

// eachCombination invokes fn for every k-element index combination of
// [0,n), in lexicographic order. The slice passed to fn is reused
// between calls; fn must copy it to keep it.
func eachCombination(n, k int, fn func(idx []int)) {
	if k > n {
		return
	}
	idx := make([]int, k)
	var rec func(start, depth int)
	rec = func(start, depth int) {
		if depth == k {
			fn(idx)
			return
		}
		for i := start; i <= n-(k-depth); i++ {
			idx[depth] = i
			rec(i+1, depth+1)
		}
	}
	rec(0, 0)
}
