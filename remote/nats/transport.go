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

// Package nats implements the remote transport over NATS request/reply.
//
// A node hosting actors runs a Server which subscribes to
// <prefix>.<node>.* and forwards every request to the registered actor.
// A node talking to remote actors uses a Transport. Failures of a remote
// handler are published on <prefix>.supervisor.<id> and routed by the
// Transport to the local supervisor registered under that id.
package nats

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
	"go.uber.org/atomic"

	gerrors "github.com/tochemey/actorx/errors"
	"github.com/tochemey/actorx/future"
	"github.com/tochemey/actorx/log"
	"github.com/tochemey/actorx/remote"
)

// Transport forwards requests to remote actors over a NATS connection
type Transport struct {
	conn   *nats.Conn
	config *config
	logger log.Logger

	mu            sync.Mutex
	subscriptions map[string]*nats.Subscription
	closed        *atomic.Bool
}

// enforce compilation error
var _ remote.Transport = (*Transport)(nil)

// NewTransport creates an instance of Transport
func NewTransport(conn *nats.Conn, opts ...Option) *Transport {
	cfg := newConfig(opts...)
	return &Transport{
		conn:          conn,
		config:        cfg,
		logger:        cfg.logger,
		subscriptions: make(map[string]*nats.Subscription),
		closed:        atomic.NewBool(false),
	}
}

// Send publishes the request on the subject of the remote actor.
// One-way requests are published without waiting and return a nil future.
func (t *Transport) Send(ctx context.Context, to *remote.Address, request *remote.Request) (*future.Future, error) {
	if t.closed.Load() {
		return nil, nats.ErrConnectionClosed
	}
	if err := to.Validate(); err != nil {
		return nil, err
	}

	name := request.Target
	if name == "" {
		name = to.Name
	}

	payload, err := encode(request.Message, request.IsEscaped)
	if err != nil {
		return nil, err
	}

	msg := nats.NewMsg(actorSubject(t.config.prefix, to.Node, name))
	msg.Data = payload
	msg.Header.Set(headerRequestID, request.ID)
	if request.SupervisorID != "" {
		msg.Header.Set(headerSupervisor, request.SupervisorID)
	}

	if request.OneWay {
		msg.Header.Set(headerOneWay, "true")
		return nil, t.conn.PublishMsg(msg)
	}

	timeout := request.Timeout
	if timeout <= 0 {
		timeout = t.config.requestTimeout
	}
	msg.Header.Set(headerTimeout, timeout.String())

	// the request is published before returning so that it keeps its place
	// among the other messages sent to the same actor
	inbox := t.conn.NewRespInbox()
	subscription, err := t.conn.SubscribeSync(inbox)
	if err != nil {
		return nil, err
	}
	_ = subscription.AutoUnsubscribe(1)
	msg.Reply = inbox
	if err := t.conn.PublishMsg(msg); err != nil {
		_ = subscription.Unsubscribe()
		return nil, err
	}

	// the future outlives the call: it is bound to the request timeout only
	requestCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	return future.New(func() (any, error) {
		defer cancel()
		reply, err := subscription.NextMsgWithContext(requestCtx)
		if err != nil {
			_ = subscription.Unsubscribe()
			switch {
			case errors.Is(err, nats.ErrNoResponders):
				return nil, gerrors.NewErrActorNotFound(to.String())
			case errors.Is(err, context.DeadlineExceeded), errors.Is(err, nats.ErrTimeout):
				return nil, gerrors.ErrRequestTimeout
			default:
				return nil, err
			}
		}
		if isNoResponders(reply) {
			return nil, gerrors.NewErrActorNotFound(to.String())
		}
		if err := readError(reply); err != nil {
			return nil, err
		}
		return decode(reply.Data)
	}), nil
}

// RegisterSupervisor subscribes to the exit notifications addressed to the
// supervisor. Registering the same supervisor twice is a no-op.
func (t *Transport) RegisterSupervisor(_ context.Context, supervisor remote.Supervisor) (string, error) {
	if t.closed.Load() {
		return "", nats.ErrConnectionClosed
	}

	id := supervisor.ID()
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.subscriptions[id]; ok {
		return id, nil
	}

	subscription, err := t.conn.Subscribe(supervisorSubject(t.config.prefix, id), func(msg *nats.Msg) {
		from := remote.NewAddress(msg.Header.Get(headerFromNode), msg.Header.Get(headerFromName))
		cause := readError(msg)
		if cause == nil {
			cause = fmt.Errorf("remote actor %s exited", from)
		}
		if err := supervisor.RemoteExit(from, cause); err != nil {
			t.logger.Warnf("supervisor %s could not handle the failure of %s: %v", id, from, err)
		}
	})
	if err != nil {
		return "", err
	}

	// the subscription must be known by the server before any request names it
	if err := t.conn.Flush(); err != nil {
		_ = subscription.Unsubscribe()
		return "", err
	}

	t.subscriptions[id] = subscription
	t.logger.Debugf("supervisor %s registered on %s", id, subscription.Subject)
	return id, nil
}

// UnregisterSupervisor stops routing exit notifications to the supervisor with the given id
func (t *Transport) UnregisterSupervisor(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	subscription, ok := t.subscriptions[id]
	if !ok {
		return nil
	}
	delete(t.subscriptions, id)
	return subscription.Unsubscribe()
}

// Close unsubscribes every registered supervisor. The NATS connection is
// owned by the caller and left open.
func (t *Transport) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var errs []error
	for id, subscription := range t.subscriptions {
		if subscription.IsValid() {
			if err := subscription.Unsubscribe(); err != nil {
				errs = append(errs, err)
			}
		}
		delete(t.subscriptions, id)
	}
	return errors.Join(errs...)
}
