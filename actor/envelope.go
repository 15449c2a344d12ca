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

	"github.com/tochemey/actorx/future"
	"github.com/tochemey/actorx/stm"
)

// Envelope is one enqueued message together with its reply channel and
// the transaction captured at send time. It is consumed exactly once.
type Envelope struct {
	ctx       context.Context
	receiver  *PID
	sender    *PID
	message   any
	completer *future.Completer
	// called with the handler failure of a message that has no completer
	onFailure func(error)
	tx        stm.Transaction
	// set when the message was moved to a fresh transaction after a collision
	rescheduled bool
}

func newEnvelope(ctx context.Context, receiver, sender *PID, message any) *Envelope {
	return &Envelope{
		ctx:      context.WithoutCancel(ctx),
		receiver: receiver,
		sender:   sender,
		message:  message,
	}
}

// withCompleter attaches the pending future the handler replies to
func (env *Envelope) withCompleter(completer *future.Completer) *Envelope {
	env.completer = completer
	return env
}

// withFailureHandler attaches the callback told about a handler failure
func (env *Envelope) withFailureHandler(onFailure func(error)) *Envelope {
	env.onFailure = onFailure
	return env
}

// withTransaction binds the envelope to tx
func (env *Envelope) withTransaction(tx stm.Transaction) *Envelope {
	env.tx = tx
	return env
}

// clone copies the envelope onto the given transaction and flags it rescheduled
func (env *Envelope) clone(tx stm.Transaction) *Envelope {
	return &Envelope{
		ctx:         env.ctx,
		receiver:    env.receiver,
		sender:      env.sender,
		message:     env.message,
		completer:   env.completer,
		onFailure:   env.onFailure,
		tx:          tx,
		rescheduled: true,
	}
}

// Receiver returns the actor the envelope is addressed to
func (env *Envelope) Receiver() *PID {
	return env.receiver
}

// Sender returns the sending actor, or nil when sent from outside of an actor
func (env *Envelope) Sender() *PID {
	return env.sender
}

// Message returns the payload
func (env *Envelope) Message() any {
	return env.message
}

// Transaction returns the transaction captured at send time, or nil
func (env *Envelope) Transaction() stm.Transaction {
	return env.tx
}

// fail completes the pending future, if any, with err, or hands err to the
// failure handler. It returns true when someone was told.
func (env *Envelope) fail(err error) bool {
	switch {
	case env.completer != nil:
		env.completer.Failure(err)
		return true
	case env.onFailure != nil:
		env.onFailure(err)
		return true
	default:
		return false
	}
}
