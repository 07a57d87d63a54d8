package utxo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func mk(txid string, vout uint32, amount, conf int64) *UTXO {
	return &UTXO{TxID: txid, Vout: vout, Amount: amount, Confirmations: conf}
}

func TestFilterMinConf(t *testing.T) {
	in := []*UTXO{
		mk("aa", 0, 100, 0),
		mk("bb", 0, 200, 1),
		mk("cc", 1, 300, 6),
	}
	got := Filter(in, 1, nil)
	assert.Len(t, got, 2)

	got = Filter(in, 0, nil)
	assert.Len(t, got, 3)
}

func TestFilterExcluded(t *testing.T) {
	in := []*UTXO{
		mk("aa", 0, 100, 3),
		mk("aa", 1, 200, 3),
	}
	locked := map[Outpoint]bool{{TxID: "aa", Vout: 1}: true}
	got := Filter(in, 1, func(op Outpoint) bool { return locked[op] })
	assert.Len(t, got, 1)
	assert.Equal(t, uint32(0), got[0].Vout)
}

func TestSortedByAmountDoesNotMutate(t *testing.T) {
	in := []*UTXO{mk("aa", 0, 1, 1), mk("bb", 0, 3, 1), mk("cc", 0, 2, 1)}
	desc := SortedByAmountDesc(in)
	asc := SortedByAmountAsc(in)

	assert.Equal(t, int64(1), in[0].Amount, "input order untouched")
	assert.Equal(t, []int64{3, 2, 1}, []int64{desc[0].Amount, desc[1].Amount, desc[2].Amount})
	assert.Equal(t, []int64{1, 2, 3}, []int64{asc[0].Amount, asc[1].Amount, asc[2].Amount})
}

func TestSortDeterministicOnEqualAmounts(t *testing.T) {
	in := []*UTXO{mk("bb", 1, 5, 1), mk("bb", 0, 5, 1), mk("aa", 0, 5, 1)}
	got := SortedByAmountDesc(in)
	assert.Equal(t, "aa", got[0].TxID)
	assert.Equal(t, uint32(0), got[1].Vout)
	assert.Equal(t, uint32(1), got[2].Vout)
}

func TestSums(t *testing.T) {
	in := []*UTXO{mk("aa", 0, 100, 2), mk("bb", 0, 250, 7)}
	assert.Equal(t, int64(350), Sum(in))
	assert.Equal(t, int64(9), SumConfirmations(in))
}

func TestOutpointString(t *testing.T) {
	op := Outpoint{TxID: "deadbeef", Vout: 3}
	assert.Equal(t, "deadbeef:3", op.String())
}
