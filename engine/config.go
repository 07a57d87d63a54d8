/*
This file contains the engine configuration.

All tunables are first-class config values: nothing load-bearing hides
behind an inferred default. FromViper reads them from the process
configuration the same way the cmd binaries set viper up.
*/
package engine

import (
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/spf13/viper"

	"github.com/trumpow/txcraft/chain"
	"github.com/trumpow/txcraft/trmpman/assembler"
	"github.com/trumpow/txcraft/trmpman/consolidate"
	"github.com/trumpow/txcraft/trmpman/feemodel"
	"github.com/trumpow/txcraft/trmpman/locker"
	"github.com/trumpow/txcraft/trmpman/selector"
)

// Config carries every engine tunable.
type Config struct {
	ChainParams *chaincfg.Params

	// MinConfirmations is the confirmation floor for spendable
	// outputs. Bookkeeping reads may pass their own floor of 0.
	MinConfirmations int

	// DustThreshold disallows any output below it; sub-dust leftovers
	// are folded into the fee.
	DustThreshold int64

	// MaxOverpay is the change-free leftover tolerance (see
	// selector.Config).
	MaxOverpay int64

	// MinFee floors the fee model.
	MinFee int64

	// FallbackFeeRate is used when the node has no fee estimate.
	FallbackFeeRate feemodel.FeeRate

	// LockTTL bounds how long a plan's inputs stay locked without
	// release.
	LockTTL time.Duration

	// SmallThreshold and MaxConsolidateInputs drive the consolidation
	// planner.
	SmallThreshold       int64
	MaxConsolidateInputs int
}

// DefaultConfig returns the production tunables for a network.
func DefaultConfig(params *chaincfg.Params) Config {
	return Config{
		ChainParams:          params,
		MinConfirmations:     1,
		DustThreshold:        assembler.DefaultDustThreshold,
		MaxOverpay:           selector.DefaultConfig().MaxOverpay,
		MinFee:               feemodel.DefaultMinFee,
		FallbackFeeRate:      feemodel.DefaultFeeRate,
		LockTTL:              locker.DefaultTTL,
		SmallThreshold:       consolidate.DefaultSmallThreshold,
		MaxConsolidateInputs: consolidate.DefaultMaxInputs,
	}
}

// FromViper builds a Config from the process configuration, falling
// back to defaults for unset keys. Expected keys:
//
//	NETWORK, MIN_CONFIRMATIONS, DUST_THRESHOLD, MAX_OVERPAY, MIN_FEE,
//	FALLBACK_FEE_RATE, LOCK_TTL_SECONDS, SMALL_THRESHOLD,
//	MAX_CONSOLIDATE_INPUTS
func FromViper() (Config, error) {
	network := viper.GetString("NETWORK")
	if network == "" {
		network = "mainnet"
	}
	params, err := chain.ParamsFromName(network)
	if err != nil {
		return Config{}, err
	}

	cfg := DefaultConfig(params)
	if v := viper.GetInt("MIN_CONFIRMATIONS"); viper.IsSet("MIN_CONFIRMATIONS") {
		cfg.MinConfirmations = v
	}
	if v := viper.GetInt64("DUST_THRESHOLD"); v > 0 {
		cfg.DustThreshold = v
	}
	if v := viper.GetInt64("MAX_OVERPAY"); v > 0 {
		cfg.MaxOverpay = v
	}
	if v := viper.GetInt64("MIN_FEE"); v > 0 {
		cfg.MinFee = v
	}
	if v := viper.GetInt64("FALLBACK_FEE_RATE"); v > 0 {
		cfg.FallbackFeeRate = feemodel.FeeRate(v)
	}
	if v := viper.GetInt64("LOCK_TTL_SECONDS"); v > 0 {
		cfg.LockTTL = time.Duration(v) * time.Second
	}
	if v := viper.GetInt64("SMALL_THRESHOLD"); v > 0 {
		cfg.SmallThreshold = v
	}
	if v := viper.GetInt("MAX_CONSOLIDATE_INPUTS"); v > 1 {
		cfg.MaxConsolidateInputs = v
	}
	return cfg, nil
}

// selectorConfig derives the selector tunables.
func (c Config) selectorConfig() selector.Config {
	sc := selector.DefaultConfig()
	sc.MaxOverpay = c.MaxOverpay
	return sc
}

// feeModel builds the fee model for a rate, applying the configured
// minimum fee floor.
func (c Config) feeModel(rate feemodel.FeeRate) feemodel.Model {
	if rate <= 0 {
		rate = c.FallbackFeeRate
	}
	return feemodel.Model{Rate: rate, MinFee: c.MinFee}
}
