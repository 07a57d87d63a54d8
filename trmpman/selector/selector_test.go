package selector

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trumpow/txcraft/trmpman/feemodel"
	"github.com/trumpow/txcraft/trmpman/utxo"
)

// production fee constants: min fee / default rate 0.001 TRMP, so the
// fee is exactly 100_000 trumpies for every shape up to 6 inputs.
var testModel = feemodel.New(feemodel.DefaultFeeRate)

const coin = int64(100_000_000)

func mkUtxo(i int, amount, conf int64) *utxo.UTXO {
	return &utxo.UTXO{
		TxID:          fmt.Sprintf("%064x", i),
		Vout:          0,
		Amount:        amount,
		Confirmations: conf,
	}
}

func checkInvariants(t *testing.T, r *Result, target int64) {
	t.Helper()
	require.NotNil(t, r)
	assert.Equal(t, utxo.Sum(r.Chosen), r.TotalInput)
	assert.Equal(t, r.TotalInput-target-r.Fee, r.Leftover)
	assert.GreaterOrEqual(t, r.Leftover, int64(0))
}

func TestStrategyAExactMatch(t *testing.T) {
	// 1.001 TRMP covers 1 TRMP + 0.001 fee with zero leftover
	inv := []*utxo.UTXO{
		mkUtxo(1, 5*coin, 10),
		mkUtxo(2, coin+100_000, 10),
		mkUtxo(3, coin/2, 10),
	}
	r, err := Select(inv, coin, testModel, DefaultConfig())
	require.NoError(t, err)
	checkInvariants(t, r, coin)
	assert.Len(t, r.Chosen, 1)
	assert.Equal(t, coin+100_000, r.Chosen[0].Amount)
	assert.Equal(t, int64(0), r.Leftover)
	assert.False(t, r.WithChange)
}

func TestStrategyAOverpayWindow(t *testing.T) {
	cfg := DefaultConfig()

	// leftover exactly MaxOverpay is still change-free
	inv := []*utxo.UTXO{mkUtxo(1, coin+100_000+cfg.MaxOverpay, 1)}
	r, err := Select(inv, coin, testModel, cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg.MaxOverpay, r.Leftover)

	// one trumpie beyond the window is not
	inv = []*utxo.UTXO{mkUtxo(1, coin+100_000+cfg.MaxOverpay+1, 1)}
	_, err = Select(inv, coin, testModel, cfg)
	assert.ErrorIs(t, err, ErrNoChangeFreeSolution)
}

func TestStrategyAPrefersSmallerLeftover(t *testing.T) {
	inv := []*utxo.UTXO{
		mkUtxo(1, coin+100_000+40_000, 1), // leftover 40_000
		mkUtxo(2, coin+100_000, 1),        // leftover 0
	}
	r, err := Select(inv, coin, testModel, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, int64(0), r.Leftover)
	assert.Equal(t, coin+100_000, r.Chosen[0].Amount)
}

func TestStrategyAPrefersOlderOnTie(t *testing.T) {
	inv := []*utxo.UTXO{
		mkUtxo(1, coin+100_000, 2),
		mkUtxo(2, coin+100_000, 90),
	}
	r, err := Select(inv, coin, testModel, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, int64(90), r.Chosen[0].Confirmations)
}

func TestStrategyBTwoInputs(t *testing.T) {
	// no single UTXO reaches the target; 2 + 1.001 covers 3 + fee exactly
	inv := []*utxo.UTXO{
		mkUtxo(1, 2*coin, 5),
		mkUtxo(2, coin+100_000, 5),
		mkUtxo(3, coin/4, 5),
	}
	r, err := Select(inv, 3*coin, testModel, DefaultConfig())
	require.NoError(t, err)
	checkInvariants(t, r, 3*coin)
	assert.Len(t, r.Chosen, 2)
	assert.Equal(t, int64(0), r.Leftover)
}

func TestStrategyBPrefersFewerInputs(t *testing.T) {
	// both {3} x2 and {2} x3 sum to 6 + fee; the 2-input combo must win
	inv := []*utxo.UTXO{
		mkUtxo(1, 3*coin, 1),
		mkUtxo(2, 3*coin+100_000, 1),
		mkUtxo(3, 2*coin, 1),
		mkUtxo(4, 2*coin, 1),
		mkUtxo(5, 2*coin+100_000, 1),
	}
	r, err := Select(inv, 6*coin, testModel, DefaultConfig())
	require.NoError(t, err)
	checkInvariants(t, r, 6*coin)
	assert.Len(t, r.Chosen, 2)
}

func TestStrategyBCombinationBound(t *testing.T) {
	// C(20,2)+C(20,3)+C(20,4)+C(20,5) with the default cap of 20
	const bound = 190 + 1140 + 4845 + 15504

	inv := make([]*utxo.UTXO, 1000)
	for i := range inv {
		inv[i] = mkUtxo(i, coin, 1)
	}
	sorted := utxo.SortedByAmountDesc(inv)

	// unreachable target: every combination is examined, none accepted
	_, examined := selectCombination(sorted, 900*coin, testModel, DefaultConfig())
	assert.Equal(t, bound, examined)
}

func TestStrategyCExactSixInputs(t *testing.T) {
	// six 0.5 TRMP outputs; target + fee(6,1) consumes them exactly.
	// A cannot match (no single covers the target) and B is capped at
	// 5 inputs, so only the exact subset-sum can find this.
	inv := make([]*utxo.UTXO, 6)
	for i := range inv {
		inv[i] = mkUtxo(i, coin/2, int64(i+1))
	}
	target := 3*coin - 100_000

	r, err := Select(inv, target, testModel, DefaultConfig())
	require.NoError(t, err)
	checkInvariants(t, r, target)
	assert.Len(t, r.Chosen, 6)
	assert.Equal(t, int64(0), r.Leftover)
}

func TestStrategyCCompletenessWithDecoys(t *testing.T) {
	// a planted 7-input exact solution among decoys, inventory size 13
	inv := make([]*utxo.UTXO, 0, 13)
	for i := 0; i < 7; i++ {
		inv = append(inv, mkUtxo(i, coin/4, 3))
	}
	for i := 7; i < 13; i++ {
		inv = append(inv, mkUtxo(i, 10*coin, 3))
	}
	// fee for a 7-input/1-output shape is above the minimum-fee floor:
	// ceil(100_000 * (7*148+34+10) / 1000) = 108_000
	target := 7*(coin/4) - 108_000

	r, err := Select(inv, target, testModel, DefaultConfig())
	require.NoError(t, err)
	checkInvariants(t, r, target)
	assert.Equal(t, int64(0), r.Leftover)
	assert.Len(t, r.Chosen, 7)
}

func TestSelectNoChangeFreeSolution(t *testing.T) {
	inv := []*utxo.UTXO{mkUtxo(1, 10*coin, 3)}
	_, err := Select(inv, coin, testModel, DefaultConfig())
	assert.ErrorIs(t, err, ErrNoChangeFreeSolution)
}

func TestSelectRejectsNonPositiveTarget(t *testing.T) {
	inv := []*utxo.UTXO{mkUtxo(1, coin, 3)}
	_, err := Select(inv, 0, testModel, DefaultConfig())
	assert.Error(t, err)
	_, err = SelectWithChange(inv, -5, testModel)
	assert.Error(t, err)
}

// spec'd walkthrough: inventory [50,30,20,5], target 80. No change-free
// solution exists, the greedy fallback spends [50,30,20] and leaves
// 19.999 TRMP of leftover for the assembler to turn into change.
func TestSelectWithChangeGreedy(t *testing.T) {
	inv := []*utxo.UTXO{
		mkUtxo(1, 50*coin, 10),
		mkUtxo(2, 30*coin, 10),
		mkUtxo(3, 20*coin, 10),
		mkUtxo(4, 5*coin, 10),
	}
	target := 80 * coin

	_, err := Select(inv, target, testModel, DefaultConfig())
	assert.ErrorIs(t, err, ErrNoChangeFreeSolution)

	r, err := SelectWithChange(inv, target, testModel)
	require.NoError(t, err)
	checkInvariants(t, r, target)
	assert.True(t, r.WithChange)
	assert.Len(t, r.Chosen, 3)
	assert.Equal(t, int64(100_000), r.Fee)
	assert.Equal(t, 20*coin-100_000, r.Leftover)
}

// spec'd edge: spending the entire balance fails because the fee cannot
// be covered; fees are never deducted from the destination amount.
func TestSelectWithChangeInsufficientFunds(t *testing.T) {
	inv := []*utxo.UTXO{mkUtxo(1, 100*coin, 50)}
	_, err := SelectWithChange(inv, 100*coin, testModel)

	var ife *InsufficientFundsError
	require.True(t, errors.As(err, &ife))
	assert.Equal(t, 100*coin, ife.Target)
	assert.Equal(t, 100*coin, ife.Available)
	assert.Equal(t, int64(100_000), ife.Fee)
}

func TestSelectWithChangeEmptyInventory(t *testing.T) {
	_, err := SelectWithChange(nil, coin, testModel)
	var ife *InsufficientFundsError
	require.True(t, errors.As(err, &ife))
	assert.Equal(t, int64(0), ife.Available)
}

func TestEachCombinationCount(t *testing.T) {
	count := 0
	eachCombination(5, 3, func([]int) { count++ })
	assert.Equal(t, 10, count) // C(5,3)

	count = 0
	eachCombination(2, 3, func([]int) { count++ })
	assert.Equal(t, 0, count)
}
