/*
This file defines the chain parameters of the Trumpow (TRMP) network.

Trumpow is a Dogecoin-family chain, so its address version bytes follow
the Dogecoin layout (legacy P2PKH addresses start with 'D' on mainnet).
The params are plain chaincfg.Params values; they are NOT registered with
the btcd chaincfg registry since we only use them for address encoding
and decoding, never for chain validation.
*/
package chain

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
)

// MainNetParams describes the Trumpow main network.
var MainNetParams = chaincfg.Params{
	Name:             "trmp-mainnet",
	Net:              wire.BitcoinNet(0xc0c0c0c0),
	DefaultPort:      "15611",
	PubKeyHashAddrID: 0x1e, // addresses start with 'D'
	ScriptHashAddrID: 0x16,
	PrivateKeyID:     0x9e,
	Bech32HRPSegwit:  "trmp",
	HDCoinType:       3,
}

// RegressionNetParams describes a local Trumpow regtest network.
// Version bytes match the Dogecoin/Bitcoin testnet layout ('m'/'n' addresses),
// which is what trumpowd -regtest hands out.
var RegressionNetParams = chaincfg.Params{
	Name:             "trmp-regtest",
	Net:              wire.BitcoinNet(0xfabfb5da),
	DefaultPort:      "18444",
	PubKeyHashAddrID: 0x6f,
	ScriptHashAddrID: 0xc4,
	PrivateKeyID:     0xef,
	Bech32HRPSegwit:  "rtrmp",
	HDCoinType:       1,
}

// ParamsFromName maps a configuration string to chain params.
func ParamsFromName(name string) (*chaincfg.Params, error) {
	switch name {
	case "mainnet", "trmp-mainnet":
		return &MainNetParams, nil
	case "regtest", "trmp-regtest":
		return &RegressionNetParams, nil
	default:
		return nil, fmt.Errorf("unknown trumpow network: %s", name)
	}
}

// ValidateAddress checks that addr is a well-formed address for the given
// network. It only performs local decoding; it never asks the node.
func ValidateAddress(addr string, params *chaincfg.Params) error {
	decoded, err := btcutil.DecodeAddress(addr, params)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", addr, err)
	}
	if !decoded.IsForNet(params) {
		return fmt.Errorf("address %q is not for network %s", addr, params.Name)
	}
	return nil
}
