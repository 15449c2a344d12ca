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
	"fmt"
	"time"

	"github.com/google/uuid"

	gerrors "github.com/tochemey/actorx/errors"
	"github.com/tochemey/actorx/future"
	"github.com/tochemey/actorx/remote"
)

// Tell sends a fire-and-forget message to the actor.
// It returns once the message is queued; handler failures never reach the caller.
func (pid *PID) Tell(ctx context.Context, message any) error {
	return pid.tell(ctx, nil, message)
}

// Ask sends a message to the actor and waits up to timeout for the reply.
// ok is false when the timeout elapsed before the actor replied.
// A handler failure is returned as err.
func (pid *PID) Ask(ctx context.Context, message any, timeout time.Duration) (reply any, ok bool, err error) {
	return pid.ask(ctx, nil, message, timeout)
}

// AskDefault is Ask with the actor's default request timeout
func (pid *PID) AskDefault(ctx context.Context, message any) (reply any, ok bool, err error) {
	return pid.ask(ctx, nil, message, pid.requestTimeout.Load())
}

// AskBlocking sends a message to the actor and waits for the reply without
// a timeout. It only returns early when ctx is done.
func (pid *PID) AskBlocking(ctx context.Context, message any) (any, error) {
	fut, err := pid.request(ctx, nil, message, 0)
	if err != nil {
		return nil, err
	}

	result, err := fut.AwaitContext(ctx)
	if err != nil {
		return nil, err
	}
	if failure := result.Failure(); failure != nil {
		return nil, gerrors.UnwrapTransactionAware(failure)
	}
	return result.Success(), nil
}

// TellWithFailure sends a fire-and-forget message and calls onFailure with
// the error when the handler fails on it or when the message is dropped
// because the actor stopped. The handler still cannot Reply to it.
// onFailure runs on the goroutine handling the message.
// On a remote actor it behaves like Tell.
func (pid *PID) TellWithFailure(ctx context.Context, message any, onFailure func(error)) error {
	if !pid.running.Load() {
		return gerrors.ErrNotStarted
	}
	if pid.remoteAddress != nil {
		_, err := pid.sendRemote(ctx, message, true, 0)
		return err
	}
	return pid.dispatch(ctx, newEnvelope(ctx, pid, nil, message).withFailureHandler(onFailure))
}

// AskAsync enqueues message and returns the future of its reply without
// waiting. The future never completes when the actor does not reply.
func (pid *PID) AskAsync(ctx context.Context, message any) (*future.Future, error) {
	return pid.request(ctx, nil, message, 0)
}

// Reply completes the request the actor is currently handling.
// It fails with ErrNoSenderInScope outside of a handler or when the current
// message was sent fire-and-forget.
func (pid *PID) Reply(message any) error {
	env := pid.current.Load()
	if env == nil || env.completer == nil {
		return gerrors.ErrNoSenderInScope
	}
	env.completer.Success(message)
	return nil
}

// Init enqueues an Init control message carrying config
func (pid *PID) Init(ctx context.Context, config any) error {
	return pid.tellSystem(ctx, &Init{Config: config})
}

// HotSwap enqueues a HotSwap control message. A nil behavior restores Receive.
func (pid *PID) HotSwap(ctx context.Context, behavior Behavior) error {
	return pid.tellSystem(ctx, &HotSwap{Behavior: behavior})
}

// Restart enqueues a Restart control message
func (pid *PID) Restart(ctx context.Context, reason error) error {
	return pid.tellSystem(ctx, &Restart{Reason: reason})
}

// Shutdown enqueues a Stop control message. The actor stops once the
// messages queued ahead of it are handled.
func (pid *PID) Shutdown(ctx context.Context, reason error) error {
	return pid.tellSystem(ctx, &Stop{Reason: reason})
}

func (pid *PID) tell(ctx context.Context, sender *PID, message any) error {
	if !pid.running.Load() {
		return gerrors.ErrNotStarted
	}

	if pid.remoteAddress != nil {
		_, err := pid.sendRemote(ctx, message, true, 0)
		return err
	}

	return pid.dispatch(ctx, newEnvelope(ctx, pid, sender, message))
}

func (pid *PID) dispatch(ctx context.Context, env *Envelope) error {
	if pid.transactional() {
		return pid.sendTransactional(ctx, env)
	}
	return pid.dispatcher.Dispatch(env)
}

func (pid *PID) ask(ctx context.Context, sender *PID, message any, timeout time.Duration) (any, bool, error) {
	if timeout <= 0 {
		return nil, false, gerrors.ErrInvalidTimeout
	}

	fut, err := pid.request(ctx, sender, message, timeout)
	if err != nil {
		return nil, false, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := fut.AwaitContext(waitCtx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		// the timeout elapsed: absence, not an error
		return nil, false, nil
	}

	if failure := result.Failure(); failure != nil {
		if errors.Is(failure, gerrors.ErrRequestTimeout) {
			return nil, false, nil
		}
		return nil, false, gerrors.UnwrapTransactionAware(failure)
	}
	return result.Success(), true, nil
}

// request enqueues a message carrying a fresh future and returns that future
func (pid *PID) request(ctx context.Context, sender *PID, message any, timeout time.Duration) (*future.Future, error) {
	if !pid.running.Load() {
		return nil, gerrors.ErrNotStarted
	}

	if pid.remoteAddress != nil {
		return pid.sendRemote(ctx, message, false, timeout)
	}

	completer := future.NewCompleter()
	env := newEnvelope(ctx, pid, sender, message).withCompleter(completer)

	if err := pid.dispatch(ctx, env); err != nil {
		return nil, err
	}
	return completer.Future(), nil
}

// sendRemote forwards the message through the transport. The supervisor of
// this actor is registered first so that a remote failure can be routed back to it.
func (pid *PID) sendRemote(ctx context.Context, message any, oneWay bool, timeout time.Duration) (*future.Future, error) {
	if pid.transport == nil {
		return nil, gerrors.ErrRemotingDisabled
	}

	request := &remote.Request{
		ID:      uuid.NewString(),
		OneWay:  oneWay,
		Message: message,
		Target:  pid.remoteAddress.Name,
		Timeout: timeout,
	}

	if sup := pid.Supervisor(); sup != nil {
		supervisorID, err := pid.transport.RegisterSupervisor(ctx, sup)
		if err != nil {
			return nil, gerrors.NewErrRemoteSendFailure(err)
		}
		request.SupervisorID = supervisorID
	}

	fut, err := pid.transport.Send(ctx, pid.remoteAddress, request)
	if err != nil {
		if errors.Is(err, gerrors.ErrRemoteSendFailure) {
			return nil, err
		}
		return nil, gerrors.NewErrRemoteSendFailure(err)
	}

	if !oneWay && fut == nil {
		return nil, gerrors.NewErrRemoteSendFailure(fmt.Errorf("no reply future returned for request %s", request.ID))
	}
	return fut, nil
}
