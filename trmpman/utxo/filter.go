/*
This file contains filter/sort operations on UTXO snapshots.
All functions are pure: they never mutate their input slice
(sorts copy first), so a snapshot can be shared between strategies.
*/
package utxo

import "sort"

// Filter returns the UTXOs with at least minConf confirmations whose
// outpoints are not rejected by the excluded predicate. A nil predicate
// excludes nothing.
func Filter(in []*UTXO, minConf int64, excluded func(Outpoint) bool) []*UTXO {
	out := make([]*UTXO, 0, len(in))
	for _, u := range in {
		if u.Confirmations < minConf {
			continue
		}
		if excluded != nil && excluded(u.Outpoint()) {
			continue
		}
		out = append(out, u)
	}
	return out
}

// SortedByAmountDesc returns a copy sorted largest-first.
// Ties break on (TxID, Vout) so ordering is deterministic.
func SortedByAmountDesc(in []*UTXO) []*UTXO {
	out := make([]*UTXO, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		if out[i].TxID != out[j].TxID {
			return out[i].TxID < out[j].TxID
		}
		return out[i].Vout < out[j].Vout
	})
	return out
}

// SortedByAmountAsc returns a copy sorted smallest-first.
func SortedByAmountAsc(in []*UTXO) []*UTXO {
	out := SortedByAmountDesc(in)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Sum adds up the amounts.
func Sum(in []*UTXO) int64 {
	var total int64
	for _, u := range in {
		total += u.Amount
	}
	return total
}

// SumConfirmations adds up the confirmation counts. Used as the final
// tie-break when two candidate selections are otherwise equal: older,
// safer outputs are preferred.
func SumConfirmations(in []*UTXO) int64 {
	var total int64
	for _, u := range in {
		total += u.Confirmations
	}
	return total
}
