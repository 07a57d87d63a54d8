/*
This file contains strategy C: exact subset-sum search for a
zero-leftover selection.

Because the fee depends on the chosen subset's input count, the search
iterates candidate input counts ascending, recomputes the fee for each
count, and looks for a subset of exactly that size summing to
target + fee. Only attempted for inventories of at most
Config.ExactSearchLimit entries (2^15 subset sums at most), so the
precomputed sum table stays small and the scan cheap.
*/
package selector

import (
	"math/bits"

	"github.com/trumpow/txcraft/trmpman/feemodel"
	"github.com/trumpow/txcraft/trmpman/utxo"
)

// selectExact searches all subsets of the inventory for one whose total
// equals target + fee(subset size, 1 output) exactly. Input counts are
// scanned ascending so fewer inputs win; among equal-size exact hits the
// higher aggregate confirmation count wins.
func selectExact(sorted []*utxo.UTXO, target int64, model feemodel.Model) *Result {
	n := len(sorted)
	if n == 0 {
		return nil
	}

	// sums[mask] = total amount of the subset encoded by mask.
	sums := make([]int64, 1<<uint(n))
	for mask := 1; mask < len(sums); mask++ {
		lsb := mask & -mask
		i := bits.TrailingZeros(uint(mask))
		sums[mask] = sums[mask^lsb] + sorted[i].Amount
	}

	for k := 1; k <= n; k++ {
		want := target + model.Estimate(k, 1)

		bestMask := -1
		var bestConf int64
		for mask := 1; mask < len(sums); mask++ {
			if bits.OnesCount(uint(mask)) != k || sums[mask] != want {
				continue
			}
			var conf int64
			for m := mask; m != 0; m &= m - 1 {
				conf += sorted[bits.TrailingZeros(uint(m))].Confirmations
			}
			if bestMask < 0 || conf > bestConf {
				bestMask = mask
				bestConf = conf
			}
		}
		if bestMask < 0 {
			continue
		}

		var chosen []*utxo.UTXO
		for m := bestMask; m != 0; m &= m - 1 {
			chosen = append(chosen, sorted[bits.TrailingZeros(uint(m))])
		}
		return &Result{
			Chosen:     chosen,
			TotalInput: sums[bestMask],
			Fee:        model.Estimate(k, 1),
			Leftover:   0,
		}
	}
	return nil
}
