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

	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	gerrors "github.com/tochemey/actorx/errors"
	"github.com/tochemey/actorx/internal/xsync"
	"github.com/tochemey/actorx/log"
)

// Handler processes one envelope. The dispatcher never invokes the handler
// of a given actor concurrently.
type Handler func(env *Envelope)

// Dispatcher drains actor mailboxes and invokes the registered handlers.
//
// Implementations differ by execution strategy but all of them guarantee
// that handler invocations for the same actor never overlap.
type Dispatcher interface {
	// Start starts the dispatcher. Starting a running dispatcher is a no-op.
	Start(ctx context.Context) error
	// Stop stops every registered actor then the dispatcher itself
	Stop(ctx context.Context) error
	// Register binds the actor to a mailbox and its handler
	Register(pid *PID, handler Handler) error
	// Unregister removes the actor. Envelopes still queued are failed.
	Unregister(pid *PID)
	// Dispatch appends the envelope to its receiver's mailbox and schedules it
	Dispatch(env *Envelope) error
	// MessageQueue returns the mailbox bound to the actor, or nil
	MessageQueue(pid *PID) Mailbox
	// IsRunning reports whether the dispatcher is started
	IsRunning() bool
}

const (
	idle int32 = iota
	busy
)

// registration binds an actor to its mailbox and handler
type registration struct {
	pid        *PID
	mailbox    Mailbox
	handler    Handler
	processing *atomic.Int32
	// owned is false when the mailbox belongs to the actor and outlives the registration
	owned bool
}

func newRegistration(pid *PID, mailbox Mailbox, handler Handler, owned bool) *registration {
	return &registration{
		pid:        pid,
		mailbox:    mailbox,
		handler:    handler,
		processing: atomic.NewInt32(idle),
		owned:      owned,
	}
}

// schedulable transitions the registration from idle to busy.
// Only the caller that wins the transition may run the registration.
func (r *registration) schedulable() bool {
	return r.processing.CompareAndSwap(idle, busy)
}

// run processes up to throughput envelopes, until the mailbox is empty when
// throughput is zero. It returns true when the registration is still busy
// and must be run again.
func (r *registration) run(throughput int) bool {
	for n := 0; throughput <= 0 || n < throughput; n++ {
		env := r.mailbox.Dequeue()
		if env == nil {
			r.processing.Store(idle)
			// envelopes enqueued between the last Dequeue and the Store
			return !r.mailbox.IsEmpty() && r.schedulable()
		}
		r.handler(env)
	}
	return true
}

// dispose fails the envelopes left in the mailbox and releases it when the
// dispatcher created it. An actor mailbox is kept usable for the next Start.
func (r *registration) dispose() {
	for env := r.mailbox.Dequeue(); env != nil; env = r.mailbox.Dequeue() {
		env.fail(gerrors.ErrNotStarted)
	}
	if r.owned {
		r.mailbox.Dispose()
	}
}

// DispatcherOption configures a dispatcher
type DispatcherOption interface {
	// Apply sets the Option value of a config.
	Apply(config *dispatcherConfig)
}

var _ DispatcherOption = DispatcherOptionFunc(nil)

// DispatcherOptionFunc implements the DispatcherOption interface.
type DispatcherOptionFunc func(config *dispatcherConfig)

// Apply applies the option
func (f DispatcherOptionFunc) Apply(config *dispatcherConfig) {
	f(config)
}

type dispatcherConfig struct {
	numShards       int
	mailboxCapacity int
	throughput      int
	logger          log.Logger
}

func newDispatcherConfig(opts ...DispatcherOption) *dispatcherConfig {
	config := &dispatcherConfig{
		throughput: DefaultThroughput,
		logger:     log.DefaultLogger,
	}
	for _, opt := range opts {
		opt.Apply(config)
	}
	return config
}

// newMailbox creates the mailbox of a newly registered actor
func (c *dispatcherConfig) newMailbox() Mailbox {
	if c.mailboxCapacity > 0 {
		return NewBoundedMailbox(c.mailboxCapacity)
	}
	return NewUnboundedMailbox()
}

// WithNumShards sets the number of worker pool shards of a pool dispatcher
func WithNumShards(numShards int) DispatcherOption {
	return DispatcherOptionFunc(func(config *dispatcherConfig) {
		config.numShards = numShards
	})
}

// WithMailboxCapacity bounds the mailbox of every actor registered with the dispatcher
func WithMailboxCapacity(capacity int) DispatcherOption {
	return DispatcherOptionFunc(func(config *dispatcherConfig) {
		config.mailboxCapacity = capacity
	})
}

// WithThroughput sets how many envelopes of one actor the single thread
// dispatcher handles before moving to the next actor
func WithThroughput(throughput int) DispatcherOption {
	return DispatcherOptionFunc(func(config *dispatcherConfig) {
		if throughput > 0 {
			config.throughput = throughput
		}
	})
}

// WithDispatcherLogger sets the dispatcher logger
func WithDispatcherLogger(logger log.Logger) DispatcherOption {
	return DispatcherOptionFunc(func(config *dispatcherConfig) {
		config.logger = logger
	})
}

// registry holds the state shared by every dispatcher implementation
type registry struct {
	config        *dispatcherConfig
	registrations *xsync.Map[string, *registration]
	started       *atomic.Bool
}

func newRegistry(config *dispatcherConfig) *registry {
	return &registry{
		config:        config,
		registrations: xsync.NewMap[string, *registration](),
		started:       atomic.NewBool(false),
	}
}

// IsRunning reports whether the dispatcher is started
func (x *registry) IsRunning() bool {
	return x.started.Load()
}

// MessageQueue returns the mailbox bound to the actor
func (x *registry) MessageQueue(pid *PID) Mailbox {
	if reg, ok := x.registrations.Get(pid.ID()); ok {
		return reg.mailbox
	}
	return nil
}

// Unregister removes the actor and fails its pending envelopes
func (x *registry) Unregister(pid *PID) {
	if reg, ok := x.registrations.Pop(pid.ID()); ok {
		reg.dispose()
	}
}

// add registers the actor. The actor own mailbox is used when set.
func (x *registry) add(pid *PID, mailbox Mailbox, handler Handler) (*registration, error) {
	if !x.started.Load() {
		return nil, gerrors.ErrDispatcherNotStarted
	}
	owned := true
	if mailbox == nil && pid.mailbox != nil {
		mailbox = pid.mailbox
		owned = false
	}
	if mailbox == nil {
		mailbox = x.config.newMailbox()
	}
	reg, _ := x.registrations.SetIfAbsent(pid.ID(), newRegistration(pid, mailbox, handler, owned))
	return reg, nil
}

// enqueue appends the envelope to its receiver's mailbox
func (x *registry) enqueue(env *Envelope) (*registration, error) {
	if !x.started.Load() {
		return nil, gerrors.ErrDispatcherNotStarted
	}
	reg, ok := x.registrations.Get(env.receiver.ID())
	if !ok {
		return nil, gerrors.ErrNotRegistered
	}
	if err := reg.mailbox.Enqueue(env); err != nil {
		return nil, err
	}
	return reg, nil
}

// stopActors stops every registered actor concurrently
func (x *registry) stopActors(ctx context.Context) error {
	var eg errgroup.Group
	for _, reg := range x.registrations.Values() {
		pid := reg.pid
		eg.Go(func() error {
			return pid.Stop(ctx)
		})
	}
	return eg.Wait()
}
