package journal

import (
	"os"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"

	"github.com/trumpow/txcraft/common"
)

func newStore(t *testing.T) (*Store, func()) {
	file := "./" + common.RandTxID()[:16] + ".db"
	s, err := NewStore(file)
	assert.NoError(t, err)

	close := func() {
		s.Close()
		os.Remove(file)
	}
	return s, close
}

func TestRecordAndLookup(t *testing.T) {
	s, close := newStore(t)
	defer close()

	e := &Entry{
		TxID:       common.RandTxID(),
		Kind:       KindPayment,
		TotalInput: 10_100_000_000,
		OutputSum:  10_000_000_000,
		Fee:        100_000,
		NumInputs:  3,
		NumOutputs: 2,
	}
	err := s.Record(e)
	assert.NoError(t, err)
	assert.NotZero(t, e.ID)
	assert.False(t, e.CreatedAt.IsZero())
	assert.Equal(t, StatusBroadcast, e.Status) // defaulted

	chk, err := s.ByTxID(e.TxID)
	assert.NoError(t, err)
	assert.NotNil(t, chk)
	assert.Equal(t, e.TxID, chk.TxID)
	assert.Equal(t, e.Kind, chk.Kind)
	assert.Equal(t, e.Status, chk.Status)
	assert.Equal(t, e.TotalInput, chk.TotalInput)
	assert.Equal(t, e.OutputSum, chk.OutputSum)
	assert.Equal(t, e.Fee, chk.Fee)
	assert.Equal(t, e.NumInputs, chk.NumInputs)
	assert.Equal(t, e.NumOutputs, chk.NumOutputs)
	assert.LessOrEqual(t, chk.CreatedAt, time.Now().UTC())
}

func TestByTxIDMissing(t *testing.T) {
	s, close := newStore(t)
	defer close()

	chk, err := s.ByTxID(common.RandTxID())
	assert.NoError(t, err)
	assert.Nil(t, chk)
}

func TestRecentOrder(t *testing.T) {
	s, close := newStore(t)
	defer close()

	var txids []string
	for i := 0; i < 5; i++ {
		e := &Entry{
			TxID: common.RandTxID(),
			Kind: KindConsolidation,
			Fee:  100_000,
		}
		assert.NoError(t, s.Record(e))
		txids = append(txids, e.TxID)
	}

	entries, err := s.Recent(3)
	assert.NoError(t, err)
	assert.Len(t, entries, 3)
	// newest first
	assert.Equal(t, txids[4], entries[0].TxID)
	assert.Equal(t, txids[3], entries[1].TxID)
	assert.Equal(t, txids[2], entries[2].TxID)
}
