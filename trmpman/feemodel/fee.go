/*
This file contains the fee model: a pure function from transaction shape
(input count, output count) to a required fee, given a fee rate.

The size estimate assumes legacy P2PKH inputs and outputs, which is what
the Trumpow chain uses:

	size = inputs*148 + outputs*34 + 10 bytes

The fee is rate*size/1000 rounded up, floored at a minimum fee so a
pathologically low rate can never produce a zero-fee transaction.
*/
package feemodel

// FeeRate is a fee rate in trumpies per kilobyte of transaction size.
type FeeRate int64

// Serialized size constants for a legacy transaction, in bytes.
const (
	InputWeight   = 148 // outpoint + scriptSig with signature & pubkey + sequence
	OutputWeight  = 34  // value + P2PKH pkScript
	FixedOverhead = 10  // version + in/out counts + locktime
)

const (
	// DefaultFeeRate is 0.001 TRMP/kB, the static fallback the node-side
	// estimatefee call also reports when it has no estimate.
	DefaultFeeRate FeeRate = 100_000

	// DefaultMinFee is 0.001 TRMP. No transaction ever pays less.
	DefaultMinFee int64 = 100_000
)

// Model bundles a fee rate with the minimum-fee floor.
// The zero value is unusable; use New or fill both fields.
type Model struct {
	Rate   FeeRate
	MinFee int64
}

// New returns a fee model with the given rate and the default minimum fee.
func New(rate FeeRate) Model {
	return Model{Rate: rate, MinFee: DefaultMinFee}
}

// TxSize returns the estimated serialized size in bytes of a transaction
// with the given shape.
func TxSize(inputs, outputs int) int64 {
	return int64(inputs)*InputWeight + int64(outputs)*OutputWeight + FixedOverhead
}

// Estimate returns the required fee in trumpies for a transaction with
// the given shape. Monotonic non-decreasing in both counts.
func (m Model) Estimate(inputs, outputs int) int64 {
	size := TxSize(inputs, outputs)
	fee := (int64(m.Rate)*size + 999) / 1000 // ceil division
	if fee < m.MinFee {
		fee = m.MinFee
	}
	return fee
}
