/*
 * MIT License
 *
 * Copyright (c) 2022-2025  Arsene Tochemey Gandote
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package actor

import (
	"context"
	"errors"
	"time"

	"github.com/flowchartsman/retry"

	gerrors "github.com/tochemey/actorx/errors"
	"github.com/tochemey/actorx/stm"
)

// transactional reports whether sends to this actor go through transactional dispatch
func (pid *PID) transactional() bool {
	return pid.txPolicy.Enabled && pid.txManager != nil
}

// sendTransactional dispatches env inside the optimistic transaction protocol:
//
//  1. commit the transaction pending on the call chain, retrying a bounded
//     number of times
//  2. on exhaustion either fail with ErrTransactionRollback or roll back and
//     reschedule the message on a fresh transaction
//  3. join the caller transaction, or start one when required
//  4. dispatch the envelope bound to that transaction
//  5. when the outermost call completes, discard or pre-commit the
//     transaction and clear the binding
func (pid *PID) sendTransactional(ctx context.Context, env *Envelope) error {
	policy := pid.txPolicy.Sanitize()
	manager := pid.txManager

	ctx, binding := stm.WithBinding(ctx)

	reschedule := false
	retrier := retry.NewRetrier(policy.MaxAttempts, policy.Interval, policy.Interval)
	if err := retrier.RunContext(ctx, func(ctx context.Context) error {
		if manager.TryCommit(ctx) {
			return nil
		}
		return stm.ErrCollision
	}); err != nil {
		if !errors.Is(err, stm.ErrCollision) {
			return err
		}
		if !policy.RescheduleOnCollision {
			return gerrors.NewErrTransactionRollback(err)
		}
		if tx := binding.Get(); tx != nil {
			if err := manager.Rollback(ctx, tx); err != nil {
				pid.logger.Warnf("actor %s failed to roll back transaction %s: %v", pid.id, tx.ID(), err)
			}
		}
		reschedule = true
	}

	binding.Enter()
	defer func() {
		if binding.Exit() > 0 {
			return
		}
		if tx := binding.Get(); tx != nil {
			if tx.IsAborted() {
				tx.Discard()
			} else if err := tx.PreCommit(); err != nil {
				pid.logger.Warnf("actor %s failed to pre-commit transaction %s: %v", pid.id, tx.ID(), err)
			}
		}
		binding.Clear()
	}()

	if reschedule {
		return pid.rescheduleOnFreshTransaction(ctx, env)
	}

	tx := binding.Get()
	switch {
	case tx != nil:
		if err := manager.Join(ctx, tx); err != nil {
			return err
		}
	case pid.txRequired:
		started, err := manager.Start(ctx)
		if err != nil {
			return err
		}
		binding.Set(started)
		tx = started
	}

	return pid.dispatcher.Dispatch(env.withTransaction(tx))
}

// rescheduleOnFreshTransaction clones env onto a new transaction and appends
// it to the tail of the mailbox
func (pid *PID) rescheduleOnFreshTransaction(ctx context.Context, env *Envelope) error {
	tx, err := pid.txManager.Start(ctx)
	if err != nil {
		return err
	}
	pid.rescheduledCount.Inc()
	pid.logger.Debugf("actor %s rescheduled %T on transaction %s", pid.id, env.message, tx.ID())
	return pid.dispatcher.Dispatch(env.clone(tx))
}

// committable reports whether a rescheduled envelope may run now
func (pid *PID) committable(env *Envelope) bool {
	if pid.txManager == nil {
		return true
	}
	ctx, _ := stm.NewContext(env.ctx, env.tx)
	return pid.txManager.TryCommit(ctx)
}

// reschedule appends a rescheduled envelope that still collides back to the
// tail of the mailbox after the policy interval
func (pid *PID) reschedule(env *Envelope) {
	pid.rescheduledCount.Inc()
	time.AfterFunc(pid.txPolicy.Sanitize().Interval, func() {
		if err := pid.dispatcher.Dispatch(env); err != nil {
			pid.logger.Warnf("actor %s dropped rescheduled %T: %v", pid.id, env.message, err)
			env.fail(err)
		}
	})
}
