package engine

import (
	"github.com/btcsuite/btcd/wire"

	"github.com/trumpow/txcraft/trmpman/feemodel"
	"github.com/trumpow/txcraft/trmpman/utxo"
)

// NodeClient is the ledger-node boundary the engine consumes.
// trmpman/rpc.Client is the production implementation; tests plug in
// fakes. All calls are network I/O and happen outside the selector.
type NodeClient interface {
	// ListUnspent returns the spendable outputs of the addresses with
	// confirmations in [minConf, maxConf].
	ListUnspent(minConf, maxConf int, addrs []string) ([]*utxo.UTXO, error)

	// LockOutputs sends best-effort lock/unlock hints to the node,
	// complementing the in-process lock table.
	LockOutputs(lock bool, ops []utxo.Outpoint) error

	// GetOutput returns the outpoint if it is still unspent, (nil, nil)
	// otherwise.
	GetOutput(op utxo.Outpoint) (*utxo.UTXO, error)

	// NewChangeAddress designates a fresh change address.
	NewChangeAddress() (string, error)

	// SignRawTransaction signs with the node wallet; the bool reports
	// whether the transaction is fully signed.
	SignRawTransaction(tx *wire.MsgTx) (*wire.MsgTx, bool, error)

	// SendRawTransaction broadcasts and returns the txid.
	SendRawTransaction(tx *wire.MsgTx) (string, error)

	// EstimateFeeRate returns a fee rate targeting confirmation within
	// nblocks.
	EstimateFeeRate(nblocks int64) (feemodel.FeeRate, error)
}
