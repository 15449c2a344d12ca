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
	"time"

	gerrors "github.com/tochemey/actorx/errors"
	"github.com/tochemey/actorx/log"
	"github.com/tochemey/actorx/stm"
)

// ReceiveContext is the message context handed over to Receive.
// It is only valid during the handling of one message.
type ReceiveContext struct {
	ctx      context.Context
	self     *PID
	envelope *Envelope
	err      error
}

func newReceiveContext(ctx context.Context, self *PID, envelope *Envelope) *ReceiveContext {
	return &ReceiveContext{
		ctx:      ctx,
		self:     self,
		envelope: envelope,
	}
}

// Context returns the context of the message. It carries the transaction
// the message was sent in, if any.
func (rctx *ReceiveContext) Context() context.Context {
	return rctx.ctx
}

// Self returns the receiving actor
func (rctx *ReceiveContext) Self() *PID {
	return rctx.self
}

// Sender returns the sending actor, or nil when the message was sent from outside of an actor
func (rctx *ReceiveContext) Sender() *PID {
	return rctx.envelope.sender
}

// Message returns the message being handled
func (rctx *ReceiveContext) Message() any {
	return rctx.envelope.message
}

// Transaction returns the active transaction, or nil
func (rctx *ReceiveContext) Transaction() stm.Transaction {
	return stm.Current(rctx.ctx)
}

// Logger returns the receiving actor logger
func (rctx *ReceiveContext) Logger() log.Logger {
	return rctx.self.logger
}

// Reply completes the request being handled with the given value.
// It fails with ErrNoSenderInScope when the message was sent fire-and-forget.
func (rctx *ReceiveContext) Reply(message any) error {
	if rctx.envelope.completer == nil {
		return gerrors.ErrNoSenderInScope
	}
	rctx.envelope.completer.Success(message)
	return nil
}

// Err records the error raised while handling the message.
// The error is reported to the supervisor and to a waiting sender
// once Receive returns.
func (rctx *ReceiveContext) Err(err error) {
	if err != nil {
		rctx.err = err
	}
}

// Unhandled marks the message as not handled by the actor
func (rctx *ReceiveContext) Unhandled() {
	rctx.err = gerrors.NewErrUnhandledMessage(rctx.envelope.message)
}

// Tell sends a fire-and-forget message to the given actor on behalf of the
// receiving actor. The active transaction, if any, is propagated.
func (rctx *ReceiveContext) Tell(to *PID, message any) {
	if err := to.tell(rctx.ctx, rctx.self, message); err != nil {
		rctx.Err(err)
	}
}

// Ask sends a message to the given actor on behalf of the receiving actor
// and waits up to timeout for the reply. Errors are recorded on the context.
func (rctx *ReceiveContext) Ask(to *PID, message any, timeout time.Duration) (reply any, ok bool) {
	reply, ok, err := to.ask(rctx.ctx, rctx.self, message, timeout)
	if err != nil {
		rctx.Err(err)
	}
	return reply, ok
}

func (rctx *ReceiveContext) getError() error {
	return rctx.err
}
