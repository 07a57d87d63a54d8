package engine

import (
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"

	"github.com/trumpow/txcraft/chain"
	"github.com/trumpow/txcraft/common"
	"github.com/trumpow/txcraft/journal"
	"github.com/trumpow/txcraft/trmpman/assembler"
	"github.com/trumpow/txcraft/trmpman/consolidate"
	"github.com/trumpow/txcraft/trmpman/feemodel"
	"github.com/trumpow/txcraft/trmpman/selector"
	"github.com/trumpow/txcraft/trmpman/utxo"
)

const (
	coin = int64(100_000_000)

	destAddr   = "mkVXZnqaaKt4puQNr4ovPHYg48mjguFCnT"
	changeAddr = "moHYHpgk4YgTCeLBmDE2teQ3qVLUtM95Fn"
)

// fakeNode is an in-memory NodeClient. Spent outputs are removed on
// broadcast so GetOutput/ListUnspent stay consistent with sends.
type fakeNode struct {
	mu    sync.Mutex
	utxos map[utxo.Outpoint]*utxo.UTXO

	// race-simulation hooks
	afterList  func() // runs after each ListUnspent
	onEstimate func() // runs on each EstimateFeeRate

	signErr    error
	incomplete bool
	sendErr    error

	sent      []*wire.MsgTx
	lockHints map[utxo.Outpoint]bool
}

func newFakeNode(utxos ...*utxo.UTXO) *fakeNode {
	n := &fakeNode{
		utxos:     make(map[utxo.Outpoint]*utxo.UTXO),
		lockHints: make(map[utxo.Outpoint]bool),
	}
	for _, u := range utxos {
		n.utxos[u.Outpoint()] = u
	}
	return n
}

func (n *fakeNode) ListUnspent(minConf, maxConf int, addrs []string) ([]*utxo.UTXO, error) {
	n.mu.Lock()
	var out []*utxo.UTXO
	for _, u := range n.utxos {
		if u.Confirmations >= int64(minConf) && u.Confirmations <= int64(maxConf) {
			out = append(out, u)
		}
	}
	hook := n.afterList
	n.mu.Unlock()
	if hook != nil {
		hook()
	}
	return out, nil
}

func (n *fakeNode) LockOutputs(lock bool, ops []utxo.Outpoint) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, op := range ops {
		n.lockHints[op] = lock
	}
	return nil
}

func (n *fakeNode) GetOutput(op utxo.Outpoint) (*utxo.UTXO, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.utxos[op], nil
}

func (n *fakeNode) NewChangeAddress() (string, error) { return changeAddr, nil }

func (n *fakeNode) SignRawTransaction(tx *wire.MsgTx) (*wire.MsgTx, bool, error) {
	if n.signErr != nil {
		return nil, false, n.signErr
	}
	return tx, !n.incomplete, nil
}

func (n *fakeNode) SendRawTransaction(tx *wire.MsgTx) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sendErr != nil {
		return "", n.sendErr
	}
	for _, in := range tx.TxIn {
		delete(n.utxos, utxo.Outpoint{
			TxID: in.PreviousOutPoint.Hash.String(),
			Vout: in.PreviousOutPoint.Index,
		})
	}
	n.sent = append(n.sent, tx)
	return tx.TxHash().String(), nil
}

func (n *fakeNode) EstimateFeeRate(nblocks int64) (feemodel.FeeRate, error) {
	if n.onEstimate != nil {
		n.onEstimate()
	}
	return 0, nil // engine falls back to the configured rate
}

func mkUtxo(amount, conf int64) *utxo.UTXO {
	return &utxo.UTXO{
		TxID:          common.RandTxID(),
		Vout:          0,
		Address:       destAddr,
		Amount:        amount,
		Confirmations: conf,
	}
}

func newEngine(node *fakeNode) *Engine {
	return New(DefaultConfig(&chain.RegressionNetParams), node, nil)
}

func TestSendExactSingleMatch(t *testing.T) {
	target := 10 * coin
	u := mkUtxo(target+100_000, 6) // covers target + fee(1,1) exactly
	node := newFakeNode(u, mkUtxo(50*coin, 6))
	e := newEngine(node)
	defer e.Stop()

	txid, err := e.Send([]string{destAddr}, assembler.TargetPayment{
		DestAddr: destAddr,
		Amount:   target,
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, txid)

	assert.Len(t, node.sent, 1)
	tx := node.sent[0]
	assert.Len(t, tx.TxIn, 1)
	assert.Len(t, tx.TxOut, 1)
	assert.Equal(t, target, tx.TxOut[0].Value)

	// inputs released once the flow ends
	assert.False(t, e.Locks().Locked(u.Outpoint()))
	assert.False(t, node.lockHints[u.Outpoint()])
}

func TestSendWithChange(t *testing.T) {
	node := newFakeNode(
		mkUtxo(50*coin, 6),
		mkUtxo(30*coin, 6),
		mkUtxo(20*coin, 6),
		mkUtxo(5*coin, 6),
	)
	e := newEngine(node)
	defer e.Stop()

	txid, err := e.Send([]string{destAddr}, assembler.TargetPayment{
		DestAddr: destAddr,
		Amount:   80 * coin,
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, txid)

	assert.Len(t, node.sent, 1)
	tx := node.sent[0]
	assert.Len(t, tx.TxIn, 3)
	assert.Len(t, tx.TxOut, 2)

	var outSum int64
	for _, o := range tx.TxOut {
		outSum += o.Value
	}
	// 100 TRMP in, minimum fee out the top, rest split dest/change
	assert.Equal(t, 100*coin-100_000, outSum)
}

func TestSendLockConflictRetry(t *testing.T) {
	target := 10 * coin
	contested := mkUtxo(target+100_000, 10)
	alternate := mkUtxo(target+100_000, 3)
	node := newFakeNode(contested, alternate)
	e := newEngine(node)
	defer e.Stop()

	// A competing request locks the contested output between this
	// request's snapshot and its lock attempt. contested has more
	// confirmations, so the first plan always picks it.
	first := true
	node.onEstimate = func() {
		if first {
			first = false
			assert.NoError(t, e.Locks().LockAll([]utxo.Outpoint{contested.Outpoint()}))
		}
	}

	txid, err := e.Send([]string{destAddr}, assembler.TargetPayment{
		DestAddr: destAddr,
		Amount:   target,
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, txid)

	assert.Len(t, node.sent, 1)
	spent := node.sent[0].TxIn[0].PreviousOutPoint
	assert.Equal(t, alternate.TxID, spent.Hash.String())

	// the competing request still holds its lock
	assert.True(t, e.Locks().Locked(contested.Outpoint()))
	assert.False(t, e.Locks().Locked(alternate.Outpoint()))
}

func TestSendInsufficientFunds(t *testing.T) {
	node := newFakeNode(mkUtxo(100*coin, 6))
	e := newEngine(node)
	defer e.Stop()

	// the whole balance cannot be sent: no room for the fee
	_, err := e.Send([]string{destAddr}, assembler.TargetPayment{
		DestAddr: destAddr,
		Amount:   100 * coin,
	})
	var insufficient *selector.InsufficientFundsError
	assert.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 100*coin, insufficient.Available)
	assert.Empty(t, node.sent)
	assert.Empty(t, e.Locks().Snapshot())
}

func TestSendStaleInput(t *testing.T) {
	target := 10 * coin
	u := mkUtxo(target+100_000, 6)
	node := newFakeNode(u)
	e := newEngine(node)
	defer e.Stop()

	// spent elsewhere between snapshot and verification
	node.afterList = func() {
		node.mu.Lock()
		delete(node.utxos, u.Outpoint())
		node.mu.Unlock()
	}

	_, err := e.Send([]string{destAddr}, assembler.TargetPayment{
		DestAddr: destAddr,
		Amount:   target,
	})
	var stale *StaleInputError
	assert.ErrorAs(t, err, &stale)
	assert.Equal(t, u.Outpoint(), stale.Outpoint)
	assert.Empty(t, node.sent)
	assert.False(t, e.Locks().Locked(u.Outpoint()))
}

func TestSendBroadcastFailureReleasesLocks(t *testing.T) {
	target := 10 * coin
	u := mkUtxo(target+100_000, 6)
	node := newFakeNode(u)
	node.sendErr = errors.New("tx-mempool-conflict")
	e := newEngine(node)
	defer e.Stop()

	_, err := e.Send([]string{destAddr}, assembler.TargetPayment{
		DestAddr: destAddr,
		Amount:   target,
	})
	var broadcast *BroadcastError
	assert.ErrorAs(t, err, &broadcast)
	assert.False(t, e.Locks().Locked(u.Outpoint()))
}

func TestSendIncompleteSignatures(t *testing.T) {
	target := 10 * coin
	node := newFakeNode(mkUtxo(target+100_000, 6))
	node.incomplete = true
	e := newEngine(node)
	defer e.Stop()

	_, err := e.Send([]string{destAddr}, assembler.TargetPayment{
		DestAddr: destAddr,
		Amount:   target,
	})
	var signing *SigningError
	assert.ErrorAs(t, err, &signing)
	assert.Empty(t, node.sent)
}

func TestConsolidate(t *testing.T) {
	utxos := []*utxo.UTXO{mkUtxo(100*coin, 6)}
	for i := 0; i < 10; i++ {
		utxos = append(utxos, mkUtxo(coin, 6))
	}
	node := newFakeNode(utxos...)
	e := newEngine(node)
	defer e.Stop()

	txid, err := e.Consolidate([]string{destAddr}, destAddr)
	assert.NoError(t, err)
	assert.NotEmpty(t, txid)

	assert.Len(t, node.sent, 1)
	tx := node.sent[0]
	assert.Len(t, tx.TxIn, 10) // the 100 TRMP output does not qualify
	assert.Len(t, tx.TxOut, 1)
	// size 10*148+34+10 = 1524 bytes, fee 152_400 at the default rate
	assert.Equal(t, 10*coin-152_400, tx.TxOut[0].Value)
}

func TestConsolidateNothingQualifies(t *testing.T) {
	node := newFakeNode(mkUtxo(100*coin, 6), mkUtxo(50*coin, 6))
	e := newEngine(node)
	defer e.Stop()

	_, err := e.Consolidate([]string{destAddr}, destAddr)
	assert.ErrorIs(t, err, consolidate.ErrNothingToConsolidate)
}

func TestBalance(t *testing.T) {
	node := newFakeNode(
		mkUtxo(7*coin, 6),
		mkUtxo(3*coin, 1),
		mkUtxo(2*coin, 0), // unconfirmed
	)
	e := newEngine(node)
	defer e.Stop()

	confirmed, shallow, err := e.Balance([]string{destAddr})
	assert.NoError(t, err)
	assert.Equal(t, 10*coin, confirmed)
	assert.Equal(t, 2*coin, shallow)
}

func TestSendRecordsJournal(t *testing.T) {
	file := "./" + common.RandTxID()[:16] + ".db"
	store, err := journal.NewStore(file)
	assert.NoError(t, err)
	defer func() {
		store.Close()
		os.Remove(file)
	}()

	target := 10 * coin
	node := newFakeNode(mkUtxo(target+100_000, 6))
	e := New(DefaultConfig(&chain.RegressionNetParams), node, store)
	defer e.Stop()

	txid, err := e.Send([]string{destAddr}, assembler.TargetPayment{
		DestAddr: destAddr,
		Amount:   target,
	})
	assert.NoError(t, err)

	entry, err := store.ByTxID(txid)
	assert.NoError(t, err)
	assert.NotNil(t, entry)
	assert.Equal(t, journal.KindPayment, entry.Kind)
	assert.Equal(t, journal.StatusBroadcast, entry.Status)
	assert.Equal(t, int64(100_000), entry.Fee)
	assert.Equal(t, 1, entry.NumInputs)
}
