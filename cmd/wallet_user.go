// WalletUser presents an entity that
// 1) Holds the wallet's watched addresses.
// 2) Performs txns. (send payments, consolidate small outputs)
// 3) Monitors the wallet's status. (balance, spendable outputs, held locks)

package cmd

import (
	logger "github.com/sirupsen/logrus"

	"github.com/trumpow/txcraft/chain"
	"github.com/trumpow/txcraft/engine"
	"github.com/trumpow/txcraft/journal"
	"github.com/trumpow/txcraft/trmpman/assembler"
	"github.com/trumpow/txcraft/trmpman/locker"
	trmprpc "github.com/trumpow/txcraft/trmpman/rpc"
	"github.com/trumpow/txcraft/trmpman/utxo"
)

type WalletUserConfig struct {
	RpcServer   string // trumpow rpc server info
	RpcPort     string // trumpow rpc server info
	RpcUsername string // trumpow rpc server info
	RpcPwd      string // trumpow rpc server info

	EngineConfig engine.Config // network params plus selection/locking tunables

	Addresses []string // wallet addresses to spend from

	JournalDBPath string // empty disables plan journaling
}

type WalletUser struct {
	RpcClient    *trmprpc.Client // rpc client
	MyEngine     *engine.Engine  // selection + assembly + broadcast
	MyJournal    *journal.Store  // nil when journaling is disabled
	MyUserConfig *WalletUserConfig
}

// Create a new wallet user over a trumpow rpc node.
func NewWalletUser(wuc *WalletUserConfig) (*WalletUser, error) {
	myRpcClient, err := SetupRpc(wuc.RpcServer, wuc.RpcPort, wuc.RpcUsername, wuc.RpcPwd, wuc.EngineConfig.ChainParams)
	if err != nil {
		return nil, err
	}

	for _, addr := range wuc.Addresses {
		if err := chain.ValidateAddress(addr, wuc.EngineConfig.ChainParams); err != nil {
			logger.WithField("addr", addr).Error("invalid wallet address in config")
			return nil, err
		}
	}

	var jrn *journal.Store
	if wuc.JournalDBPath != "" {
		jrn, err = journal.NewStore(wuc.JournalDBPath)
		if err != nil {
			logger.WithField("path", wuc.JournalDBPath).Error("cannot open plan journal")
			return nil, err
		}
	}

	return &WalletUser{
		RpcClient:    myRpcClient,
		MyEngine:     engine.New(wuc.EngineConfig, myRpcClient, jrn),
		MyJournal:    jrn,
		MyUserConfig: wuc,
	}, nil
}

// GetBalance returns the confirmed and shallow balances of the wallet.
func (wu *WalletUser) GetBalance() (int64, int64, error) {
	return wu.MyEngine.Balance(wu.MyUserConfig.Addresses)
}

// GetUtxos returns the wallet's spendable outputs, largest first.
func (wu *WalletUser) GetUtxos() ([]*utxo.UTXO, error) {
	utxos, err := wu.RpcClient.ListUnspent(
		wu.MyUserConfig.EngineConfig.MinConfirmations,
		trmprpc.MaxConfirm,
		wu.MyUserConfig.Addresses,
	)
	if err != nil {
		return nil, err
	}
	return utxo.SortedByAmountDesc(utxos), nil
}

// Send pays amount (in trumpies) to destAddr and returns the txid.
func (wu *WalletUser) Send(destAddr string, amount int64, maxFee int64) (string, error) {
	if err := chain.ValidateAddress(destAddr, wu.MyUserConfig.EngineConfig.ChainParams); err != nil {
		return "", err
	}
	return wu.MyEngine.Send(wu.MyUserConfig.Addresses, assembler.TargetPayment{
		DestAddr: destAddr,
		Amount:   amount,
		MaxFee:   maxFee,
	})
}

// Consolidate merges the wallet's small outputs into destAddr.
func (wu *WalletUser) Consolidate(destAddr string) (string, error) {
	if err := chain.ValidateAddress(destAddr, wu.MyUserConfig.EngineConfig.ChainParams); err != nil {
		return "", err
	}
	return wu.MyEngine.Consolidate(wu.MyUserConfig.Addresses, destAddr)
}

// HeldLocks lists the outpoints held by in-flight plans.
func (wu *WalletUser) HeldLocks() []locker.LockInfo {
	return wu.MyEngine.Locks().Snapshot()
}

// Close releases the user's resources.
func (wu *WalletUser) Close() {
	wu.MyEngine.Stop()
	if wu.MyJournal != nil {
		wu.MyJournal.Close()
	}
	wu.RpcClient.Close()
}
