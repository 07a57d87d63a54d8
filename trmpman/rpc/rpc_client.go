/*
This file wraps the btcd rpcclient for a Trumpow node.

Trumpow speaks the Dogecoin-era bitcoind RPC surface (HTTP POST, no
TLS), so the legacy calls (listunspent, lockunspent, signrawtransaction,
estimatefee, getrawchangeaddress) are all available. Read-side calls are
retried a few times before giving up; broadcast is never retried here,
since re-sending an already-accepted transaction is a duplicate-send
risk the caller has to reason about.
*/
package rpc

import (
	"encoding/hex"
	"fmt"

	"github.com/avast/retry-go"
	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/btcsuite/btcd/wire"
	logger "github.com/sirupsen/logrus"

	"github.com/trumpow/txcraft/common"
	"github.com/trumpow/txcraft/trmpman/feemodel"
	"github.com/trumpow/txcraft/trmpman/utxo"
)

const (
	// MaxConfirm is the upper confirmation bound passed to listunspent.
	MaxConfirm = 9999999

	// readRetries bounds retry attempts for read-side RPC calls.
	readRetries = 3
)

// ClientConfig carries the node connection settings.
type ClientConfig struct {
	ServerAddr  string // ip address of node
	Port        string // rpc port of node
	Username    string
	Pwd         string
	ChainParams *chaincfg.Params
}

// Client wraps the node RPC connection.
type Client struct {
	cfg    ClientConfig
	client *rpcclient.Client
}

// NewClient connects to the Trumpow node over HTTP POST.
func NewClient(cfg *ClientConfig) (*Client, error) {
	c, err := rpcclient.New(&rpcclient.ConnConfig{
		Host:         cfg.ServerAddr + ":" + cfg.Port,
		User:         cfg.Username,
		Pass:         cfg.Pwd,
		HTTPPostMode: true, // bitcoind-family nodes only support HTTP POST mode
		DisableTLS:   true, // and do not speak TLS
	}, nil)
	if err != nil {
		return nil, err
	}
	return &Client{cfg: *cfg, client: c}, nil
}

// Close shuts down the rpc client.
func (c *Client) Close() {
	c.client.Shutdown()
}

// ListUnspent returns the spendable outputs of the given addresses with
// confirmations in [minConf, maxConf]. Amounts are converted from the
// node's float JSON to trumpies exactly once, here.
func (c *Client) ListUnspent(minConf, maxConf int, addrs []string) ([]*utxo.UTXO, error) {
	decoded := make([]btcutil.Address, 0, len(addrs))
	for _, a := range addrs {
		da, err := btcutil.DecodeAddress(a, c.cfg.ChainParams)
		if err != nil {
			return nil, fmt.Errorf("bad address %q: %w", a, err)
		}
		decoded = append(decoded, da)
	}

	var results []btcjson.ListUnspentResult
	err := retry.Do(func() error {
		var err error
		results, err = c.client.ListUnspentMinMaxAddresses(minConf, maxConf, decoded)
		return err
	}, retry.Attempts(readRetries))
	if err != nil {
		return nil, err
	}

	utxos := make([]*utxo.UTXO, 0, len(results))
	for _, item := range results {
		if !item.Spendable {
			continue
		}
		amount, err := common.AmountFromFloat(item.Amount)
		if err != nil {
			logger.WithField("txid", item.TxID).Warnf("skipping unspent output with bad amount: %v", err)
			continue
		}
		pkScript, err := hex.DecodeString(item.ScriptPubKey)
		if err != nil {
			return nil, fmt.Errorf("bad scriptPubKey on %s:%d: %w", item.TxID, item.Vout, err)
		}
		utxos = append(utxos, &utxo.UTXO{
			TxID:          item.TxID,
			Vout:          item.Vout,
			Address:       item.Address,
			Amount:        amount,
			Confirmations: item.Confirmations,
			PkScript:      pkScript,
		})
	}
	return utxos, nil
}

// LockOutputs sends best-effort lockunspent hints to the node,
// complementing the in-process lock table. lock=true marks the
// outpoints unspendable for the node's own coin selection.
func (c *Client) LockOutputs(lock bool, ops []utxo.Outpoint) error {
	wireOps := make([]*wire.OutPoint, 0, len(ops))
	for _, op := range ops {
		hash, err := chainhash.NewHashFromStr(op.TxID)
		if err != nil {
			return fmt.Errorf("bad outpoint %s: %w", op, err)
		}
		wireOps = append(wireOps, wire.NewOutPoint(hash, op.Vout))
	}
	// lockunspent's boolean is "unlock", inverted from ours
	return c.client.LockUnspent(!lock, wireOps)
}

// GetOutput looks up an outpoint via gettxout. Returns (nil, nil) when
// the output does not exist or is already spent — used to close the
// race window between snapshot and signing.
func (c *Client) GetOutput(op utxo.Outpoint) (*utxo.UTXO, error) {
	hash, err := chainhash.NewHashFromStr(op.TxID)
	if err != nil {
		return nil, fmt.Errorf("bad outpoint %s: %w", op, err)
	}

	var res *btcjson.GetTxOutResult
	err = retry.Do(func() error {
		var err error
		res, err = c.client.GetTxOut(hash, op.Vout, true)
		return err
	}, retry.Attempts(readRetries))
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, nil // spent or unknown
	}

	amount, err := common.AmountFromFloat(res.Value)
	if err != nil {
		return nil, fmt.Errorf("bad value on %s: %w", op, err)
	}
	pkScript, err := hex.DecodeString(res.ScriptPubKey.Hex)
	if err != nil {
		return nil, fmt.Errorf("bad scriptPubKey on %s: %w", op, err)
	}
	var addr string
	if len(res.ScriptPubKey.Addresses) > 0 {
		addr = res.ScriptPubKey.Addresses[0]
	}
	return &utxo.UTXO{
		TxID:          op.TxID,
		Vout:          op.Vout,
		Address:       addr,
		Amount:        amount,
		Confirmations: res.Confirmations,
		PkScript:      pkScript,
	}, nil
}

// NewChangeAddress asks the node for a fresh change address.
func (c *Client) NewChangeAddress() (string, error) {
	addr, err := c.client.GetRawChangeAddress("")
	if err != nil {
		return "", err
	}
	return addr.EncodeAddress(), nil
}

// SignRawTransaction asks the node's wallet to sign the transaction.
func (c *Client) SignRawTransaction(tx *wire.MsgTx) (*wire.MsgTx, bool, error) {
	return c.client.SignRawTransaction(tx)
}

// SendRawTransaction broadcasts the signed transaction and returns its
// txid. Never retried here.
func (c *Client) SendRawTransaction(tx *wire.MsgTx) (string, error) {
	// allowHighFees=true: the engine has already vetted the fee, and a
	// node-side rejection of a deliberately folded leftover would be wrong
	hash, err := c.client.SendRawTransaction(tx, true)
	if err != nil {
		return "", err
	}
	return hash.String(), nil
}

// EstimateFeeRate asks the node for a fee rate targeting confirmation
// within nblocks, falling back to the static default when the node has
// no estimate (it reports -1 in that case).
func (c *Client) EstimateFeeRate(nblocks int64) (feemodel.FeeRate, error) {
	perKB, err := c.client.EstimateFee(nblocks)
	if err != nil {
		return 0, err
	}
	if perKB <= 0 {
		return feemodel.DefaultFeeRate, nil
	}
	rate, err := common.AmountFromFloat(perKB)
	if err != nil {
		return feemodel.DefaultFeeRate, nil
	}
	return feemodel.FeeRate(rate), nil
}

// GetBlockCount returns the node's best block height.
func (c *Client) GetBlockCount() (int64, error) {
	return c.client.GetBlockCount()
}
