/*
This file contains the engine: the orchestration layer that ties
inventory, selection, assembly, locking and the node boundary into the
two user-facing flows, Send and Consolidate.

Locking discipline: a plan's inputs are locked all-or-nothing before
any node interaction, and released unconditionally when the flow ends,
success or failure. A lock conflict means another request claimed an
input between snapshot and lock; the engine re-plans once against a
fresh inventory (which excludes the contested outpoints) before giving
up.
*/
package engine

import (
	"errors"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/trumpow/txcraft/journal"
	"github.com/trumpow/txcraft/trmpman/assembler"
	"github.com/trumpow/txcraft/trmpman/consolidate"
	"github.com/trumpow/txcraft/trmpman/feemodel"
	"github.com/trumpow/txcraft/trmpman/locker"
	"github.com/trumpow/txcraft/trmpman/rpc"
	"github.com/trumpow/txcraft/trmpman/selector"
)

// EstimateConfTarget is the confirmation horizon passed to the node's
// fee estimator.
const EstimateConfTarget = 6

// Engine drives payment and consolidation flows against one node.
type Engine struct {
	cfg     Config
	node    NodeClient
	locks   *locker.Table
	inv     *Inventory
	asm     *assembler.Assembler
	journal *journal.Store // nil disables plan journaling
}

// New builds an engine. journal may be nil.
func New(cfg Config, node NodeClient, jrn *journal.Store) *Engine {
	locks := locker.New(cfg.LockTTL)
	return &Engine{
		cfg:     cfg,
		node:    node,
		locks:   locks,
		inv:     NewInventory(node, locks),
		asm:     &assembler.Assembler{ChainParams: cfg.ChainParams, Dust: cfg.DustThreshold},
		journal: jrn,
	}
}

// Locks exposes the lock table for reporting. Read-only use.
func (e *Engine) Locks() *locker.Table { return e.locks }

// Stop releases the lock table's background resources.
func (e *Engine) Stop() { e.locks.Stop() }

// feeModel asks the node for a current fee rate and falls back to the
// configured rate when the node has no estimate.
func (e *Engine) feeModel() feemodel.Model {
	rate, err := e.node.EstimateFeeRate(EstimateConfTarget)
	if err != nil {
		logger.Warnf("fee estimate unavailable, using fallback rate %d: %v",
			e.cfg.FallbackFeeRate, err)
		rate = 0
	}
	return e.cfg.feeModel(rate)
}

// SelectAndPlan loads a fresh inventory for the addresses and plans a
// transaction paying pay. Change-free strategies run first; the
// change-permitting fallback requests a change address from the node
// only when the leftover would actually become an output.
func (e *Engine) SelectAndPlan(addrs []string, pay assembler.TargetPayment) (*assembler.TxPlan, error) {
	inv, err := e.inv.Load(addrs, e.cfg.MinConfirmations)
	if err != nil {
		return nil, err
	}
	model := e.feeModel()

	sel, err := selector.Select(inv, pay.Amount, model, e.cfg.selectorConfig())
	if errors.Is(err, selector.ErrNoChangeFreeSolution) {
		sel, err = selector.SelectWithChange(inv, pay.Amount, model)
	}
	if err != nil {
		return nil, err
	}

	var changeAddr string
	if sel.WithChange && sel.Leftover >= e.cfg.DustThreshold {
		changeAddr, err = e.node.NewChangeAddress()
		if err != nil {
			return nil, err
		}
	}
	return e.asm.Build(sel, pay, changeAddr)
}

// Send plans, locks, signs and broadcasts a payment, returning the
// txid. One re-plan is attempted on a lock conflict; every other
// failure surfaces immediately, with the inputs released.
func (e *Engine) Send(addrs []string, pay assembler.TargetPayment) (string, error) {
	plan, err := e.lockPlan(func() (*assembler.TxPlan, error) {
		return e.SelectAndPlan(addrs, pay)
	})
	if err != nil {
		return "", err
	}
	return e.execute(plan, journal.KindPayment)
}

// Consolidate plans and broadcasts a transaction merging the small
// UTXOs of the addresses into a single output at dest.
func (e *Engine) Consolidate(addrs []string, dest string) (string, error) {
	planner := &consolidate.Planner{
		Assembler:      e.asm,
		Model:          e.feeModel(),
		SmallThreshold: e.cfg.SmallThreshold,
		MaxInputs:      e.cfg.MaxConsolidateInputs,
	}
	plan, err := e.lockPlan(func() (*assembler.TxPlan, error) {
		inv, err := e.inv.Load(addrs, e.cfg.MinConfirmations)
		if err != nil {
			return nil, err
		}
		return planner.Plan(inv, dest)
	})
	if err != nil {
		return "", err
	}
	return e.execute(plan, journal.KindConsolidation)
}

// Balance reports the confirmed total and the shallow (unconfirmed or
// under the confirmation floor) total for the addresses. Locked
// outputs count: they remain ours until a spend is broadcast.
func (e *Engine) Balance(addrs []string) (confirmed, shallow int64, err error) {
	var g errgroup.Group
	var all, deep int64
	g.Go(func() error {
		utxos, err := e.node.ListUnspent(0, rpc.MaxConfirm, addrs)
		if err != nil {
			return &InventoryUnavailableError{Cause: err}
		}
		for _, u := range utxos {
			all += u.Amount
		}
		return nil
	})
	g.Go(func() error {
		utxos, err := e.node.ListUnspent(e.cfg.MinConfirmations, rpc.MaxConfirm, addrs)
		if err != nil {
			return &InventoryUnavailableError{Cause: err}
		}
		for _, u := range utxos {
			deep += u.Amount
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return 0, 0, err
	}
	return deep, all - deep, nil
}

// lockPlan runs build and locks the resulting plan's inputs. On a lock
// conflict it builds once more against a fresh inventory; the new
// snapshot excludes whatever the competing request locked.
func (e *Engine) lockPlan(build func() (*assembler.TxPlan, error)) (*assembler.TxPlan, error) {
	plan, err := build()
	if err != nil {
		return nil, err
	}
	if err := e.locks.LockAll(plan.Inputs); err != nil {
		var conflict *locker.ConflictError
		if !errors.As(err, &conflict) {
			return nil, err
		}
		logger.Warnf("lock conflict on %s, re-planning", conflict.Outpoint)
		if plan, err = build(); err != nil {
			return nil, err
		}
		if err := e.locks.LockAll(plan.Inputs); err != nil {
			return nil, err
		}
	}
	// best-effort node-side hint, the table is authoritative
	if err := e.node.LockOutputs(true, plan.Inputs); err != nil {
		logger.Warnf("node lock hint failed: %v", err)
	}
	return plan, nil
}

// execute verifies, signs and broadcasts a locked plan, releasing its
// inputs on every exit path.
func (e *Engine) execute(plan *assembler.TxPlan, kind string) (string, error) {
	defer func() {
		e.locks.Unlock(plan.Inputs...)
		if err := e.node.LockOutputs(false, plan.Inputs); err != nil {
			logger.Warnf("node unlock hint failed: %v", err)
		}
	}()

	if err := e.verifyInputs(plan); err != nil {
		return "", err
	}

	msgTx, err := plan.MsgTx(e.cfg.ChainParams)
	if err != nil {
		return "", err
	}
	signed, complete, err := e.node.SignRawTransaction(msgTx)
	if err != nil {
		return "", &SigningError{Cause: err}
	}
	if !complete {
		return "", &SigningError{Cause: errors.New("node returned incomplete signatures")}
	}

	txid, err := e.node.SendRawTransaction(signed)
	if err != nil {
		e.record("", kind, journal.StatusFailed, plan)
		return "", &BroadcastError{Cause: err}
	}
	logger.WithFields(logger.Fields{
		"txid":   txid,
		"kind":   kind,
		"inputs": len(plan.Inputs),
		"fee":    plan.Fee,
	}).Info("transaction broadcast")

	e.record(txid, kind, journal.StatusBroadcast, plan)
	return txid, nil
}

// verifyInputs re-checks every planned input against the node just
// before signing. The snapshot the plan was built from can be stale.
func (e *Engine) verifyInputs(plan *assembler.TxPlan) error {
	var g errgroup.Group
	for _, op := range plan.Inputs {
		g.Go(func() error {
			u, err := e.node.GetOutput(op)
			if err != nil {
				return err
			}
			if u == nil {
				return &StaleInputError{Outpoint: op}
			}
			return nil
		})
	}
	return g.Wait()
}

// record appends the broadcast attempt to the journal. Journal
// failures never fail the flow; the transaction is already on the wire
// (or already rejected).
func (e *Engine) record(txid, kind, status string, plan *assembler.TxPlan) {
	if e.journal == nil {
		return
	}
	err := e.journal.Record(&journal.Entry{
		TxID:       txid,
		Kind:       kind,
		Status:     status,
		TotalInput: plan.TotalInput,
		OutputSum:  plan.OutputTotal(),
		Fee:        plan.Fee,
		NumInputs:  len(plan.Inputs),
		NumOutputs: len(plan.Outputs),
	})
	if err != nil {
		logger.Warnf("journal write failed for %s: %v", txid, err)
	}
}
