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
	"fmt"
	"runtime"
	"sync"
	"time"

	goset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.uber.org/atomic"

	gerrors "github.com/tochemey/actorx/errors"
	"github.com/tochemey/actorx/internal/xsync"
	"github.com/tochemey/actorx/log"
	"github.com/tochemey/actorx/remote"
	"github.com/tochemey/actorx/stm"
	"github.com/tochemey/actorx/supervisor"
)

// liveActors indexes the started actors by identifier.
// Supervision relations are stored as identifiers and resolved through it.
var liveActors = xsync.NewMap[string, *PID]()

// PID is the handle on an actor. All interactions with an actor go through its PID.
//
// A PID is created stopped. Start binds its mailbox to a dispatcher, Stop
// unbinds it. A PID created with WithRemoteAddress is a handle on an actor
// running on another node: its messages are forwarded through the transport.
type PID struct {
	id    string
	actor Actor

	running *atomic.Bool

	remoteAddress *remote.Address
	transport     remote.Transport

	// identifier of the supervising actor, empty when unsupervised
	supervisorID *atomic.String
	// identifiers of the actors this actor supervises
	links goset.Set[string]

	// the fields below are only accessed while handling a message
	behavior   Behavior
	lastConfig any

	lifeCycle    *supervisor.LifeCycle
	faultHandler *supervisor.FaultHandler
	budget       *supervisor.RestartBudget
	trapExit     bool

	requestTimeout *atomic.Duration
	// the envelope being handled, nil between two messages
	current *atomic.Pointer[Envelope]

	handleMu sync.Mutex
	stopMu   sync.Mutex

	dispatcher Dispatcher
	mailbox    Mailbox

	txManager  stm.Manager
	txPolicy   stm.Policy
	txRequired bool

	logger             log.Logger
	meterProvider      otelmetric.MeterProvider
	metricRegistration otelmetric.Registration

	processedCount          *atomic.Int64
	failureCount            *atomic.Int64
	restartCount            *atomic.Int64
	rescheduledCount        *atomic.Int64
	latestProcessedDuration *atomic.Duration
}

// New creates a stopped PID for the given actor
func New(actor Actor, opts ...Option) *PID {
	pid := &PID{
		id:                      uuid.NewString(),
		actor:                   actor,
		running:                 atomic.NewBool(false),
		supervisorID:            atomic.NewString(""),
		links:                   goset.NewSet[string](),
		requestTimeout:          atomic.NewDuration(DefaultRequestTimeout),
		current:                 atomic.NewPointer[Envelope](nil),
		txPolicy:                stm.DefaultPolicy(),
		logger:                  log.DefaultLogger,
		processedCount:          atomic.NewInt64(0),
		failureCount:            atomic.NewInt64(0),
		restartCount:            atomic.NewInt64(0),
		rescheduledCount:        atomic.NewInt64(0),
		latestProcessedDuration: atomic.NewDuration(0),
	}

	for _, opt := range opts {
		opt.Apply(pid)
	}

	if pid.dispatcher == nil && pid.remoteAddress == nil {
		pid.dispatcher = DefaultDispatcher()
	}
	if pid.faultHandler != nil {
		pid.budget = pid.faultHandler.NewBudget()
	}
	return pid
}

// NewRemote creates a stopped PID forwarding its messages to the actor at address
func NewRemote(address *remote.Address, transport remote.Transport, opts ...Option) *PID {
	opts = append(opts, WithRemoteAddress(address), WithTransport(transport))
	return New(nil, opts...)
}

// ID returns the actor identifier
func (pid *PID) ID() string {
	return pid.id
}

// Actor returns the user actor, nil for remote actors
func (pid *PID) Actor() Actor {
	return pid.actor
}

// IsRunning returns true when the actor is started
func (pid *PID) IsRunning() bool {
	return pid.running.Load()
}

// IsRemote returns true when the PID is a handle on a remote actor
func (pid *PID) IsRemote() bool {
	return pid.remoteAddress != nil
}

// RemoteAddress returns the address of the remote actor, or nil
func (pid *PID) RemoteAddress() *remote.Address {
	return pid.remoteAddress
}

// Dispatcher returns the dispatcher running the actor
func (pid *PID) Dispatcher() Dispatcher {
	return pid.dispatcher
}

// Logger returns the actor logger
func (pid *PID) Logger() log.Logger {
	return pid.logger
}

// Equals is a convenient method to compare two PIDs
func (pid *PID) Equals(other *PID) bool {
	if pid == nil || other == nil {
		return pid == other
	}
	return pid.id == other.id
}

// Start starts the actor. Starting a running actor is a no-op.
func (pid *PID) Start(ctx context.Context) error {
	pid.stopMu.Lock()
	defer pid.stopMu.Unlock()

	if pid.running.Load() {
		return nil
	}

	if pid.remoteAddress != nil {
		if pid.transport == nil {
			return gerrors.ErrRemotingDisabled
		}
		if err := pid.remoteAddress.Validate(); err != nil {
			return err
		}
		pid.running.Store(true)
		liveActors.Set(pid.id, pid)
		pid.logger.Debugf("remote actor %s at %s started", pid.id, pid.remoteAddress)
		return nil
	}

	if pid.actor == nil {
		return gerrors.NewInternalError(fmt.Errorf("actor %s has no behavior", pid.id))
	}

	if err := pid.dispatcher.Start(ctx); err != nil {
		return err
	}

	if err := pid.actor.PreStart(ctx); err != nil {
		pid.logger.Errorf("actor %s failed to start: %v", pid.id, err)
		return err
	}

	if err := pid.dispatcher.Register(pid, pid.handle); err != nil {
		return err
	}

	pid.running.Store(true)
	liveActors.Set(pid.id, pid)

	if err := pid.registerMetrics(); err != nil {
		pid.logger.Warnf("actor %s metrics are disabled: %v", pid.id, err)
	}

	pid.logger.Debugf("actor %s started", pid.id)
	return nil
}

// Stop stops the actor immediately and unregisters it from its dispatcher.
// Envelopes still queued are failed with ErrNotStarted. The message being
// handled, if any, is given the lifecycle shutdown grace to complete before
// PostStop runs. Use Shutdown to stop the actor after the messages already queued.
func (pid *PID) Stop(ctx context.Context) error {
	return pid.stop(ctx, true)
}

func (pid *PID) stop(ctx context.Context, awaitHandler bool) error {
	pid.stopMu.Lock()
	defer pid.stopMu.Unlock()

	if !pid.running.CompareAndSwap(true, false) {
		return nil
	}

	liveActors.Delete(pid.id)
	if pid.metricRegistration != nil {
		if err := pid.metricRegistration.Unregister(); err != nil {
			pid.logger.Warn(err)
		}
		pid.metricRegistration = nil
	}

	if pid.remoteAddress != nil {
		pid.logger.Debugf("remote actor %s stopped", pid.id)
		return nil
	}

	pid.dispatcher.Unregister(pid)
	if awaitHandler {
		pid.awaitHandler(ctx)
	}
	if err := pid.actor.PostStop(ctx); err != nil {
		pid.logger.Errorf("actor %s failed to stop cleanly: %v", pid.id, err)
		return err
	}

	pid.logger.Debugf("actor %s stopped", pid.id)
	return nil
}

// awaitHandler waits for the envelope being handled, up to the shutdown grace
func (pid *PID) awaitHandler(ctx context.Context) {
	if pid.current.Load() == nil {
		return
	}

	grace := supervisor.DefaultShutdownGrace
	if pid.lifeCycle != nil {
		grace = pid.lifeCycle.ShutdownGrace()
	}

	deadline := time.NewTimer(grace)
	defer deadline.Stop()
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()

	for pid.current.Load() != nil {
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			pid.logger.Warnf("actor %s is still handling a message after %s, stopping anyway", pid.id, grace)
			return
		case <-ticker.C:
		}
	}
}

// handle is the single entry point invoked by the dispatcher for one envelope
func (pid *PID) handle(env *Envelope) {
	pid.handleMu.Lock()
	defer pid.handleMu.Unlock()

	if !pid.running.Load() {
		env.fail(gerrors.ErrNotStarted)
		return
	}

	if env.rescheduled && !pid.committable(env) {
		pid.reschedule(env)
		return
	}

	ctx := env.ctx
	if env.tx != nil {
		var binding *stm.Binding
		ctx, binding = stm.NewContext(ctx, env.tx)
		defer binding.Clear()
	}

	pid.current.Store(env)
	defer pid.current.Store(nil)

	start := time.Now()
	err := pid.receive(newReceiveContext(ctx, pid, env))
	pid.latestProcessedDuration.Store(time.Since(start))
	pid.processedCount.Inc()

	if err != nil {
		pid.handleFailure(ctx, env, err)
	}
}

// behaviorCase pairs a predicate on the message with the handler it selects
type behaviorCase struct {
	matches func(pid *PID, message any) bool
	handle  func(pid *PID, ctx *ReceiveContext) error
}

// behaviorCases are tried in order, the first match handles the message
var behaviorCases = []behaviorCase{
	{
		matches: func(_ *PID, message any) bool { return isControlMessage(message) },
		handle:  (*PID).handleControl,
	},
	{
		matches: func(pid *PID, _ any) bool { return pid.behavior != nil },
		handle: func(pid *PID, ctx *ReceiveContext) error {
			pid.behavior(ctx)
			return ctx.getError()
		},
	},
	{
		matches: func(pid *PID, _ any) bool { return pid.actor != nil },
		handle: func(pid *PID, ctx *ReceiveContext) error {
			pid.actor.Receive(ctx)
			return ctx.getError()
		},
	},
}

// receive routes the message to the first matching behavior.
// Panics are turned into PanicError.
func (pid *PID) receive(ctx *ReceiveContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = toPanicError(r)
		}
	}()

	message := ctx.Message()
	for _, behavior := range behaviorCases {
		if behavior.matches(pid, message) {
			return behavior.handle(pid, ctx)
		}
	}
	return gerrors.NewErrUnhandledMessage(message)
}

// handleControl runs the lifecycle protocol
func (pid *PID) handleControl(ctx *ReceiveContext) error {
	switch msg := ctx.Message().(type) {
	case *Init:
		pid.lastConfig = msg.Config
		if initializer, ok := pid.actor.(Initializer); ok {
			return initializer.Init(ctx.Context(), msg.Config)
		}
		return nil
	case *HotSwap:
		pid.behavior = msg.Behavior
		return nil
	case *Stop:
		if msg.Reason != nil {
			pid.logger.Infof("actor %s is shutting down: %v", pid.id, msg.Reason)
		}
		return pid.stop(ctx.Context(), false)
	case *Restart:
		return pid.restart(ctx.Context(), msg.Reason)
	case *Exit:
		return pid.handleExit(ctx.Context(), msg)
	default:
		return gerrors.NewErrUnhandledMessage(msg)
	}
}

// handleFailure reports the error raised while handling env to the
// supervisor and to the waiting sender. The actor keeps running.
func (pid *PID) handleFailure(ctx context.Context, env *Envelope, err error) {
	pid.failureCount.Inc()
	reported := false

	if sup := pid.Supervisor(); sup != nil {
		if serr := sup.tellSystem(ctx, &Exit{Dead: pid, Cause: err}); serr != nil {
			pid.logger.Warnf("actor %s could not notify supervisor %s: %v", pid.id, sup.ID(), serr)
		} else {
			reported = true
		}
	}

	if env.tx != nil {
		err = gerrors.NewTransactionAwareError(err, env.tx.ID())
	}

	if env.fail(err) {
		reported = true
	}

	if !reported {
		pid.logger.Errorf("actor %s failed to handle message %T: %v", pid.id, env.message, err)
	}
}

// tellSystem enqueues a control message, bypassing transactional dispatch
func (pid *PID) tellSystem(ctx context.Context, message any) error {
	if !pid.running.Load() {
		return gerrors.ErrNotStarted
	}
	if pid.remoteAddress != nil {
		return gerrors.NewErrRemoteSendFailure(fmt.Errorf("%T cannot be delivered to remote actor %s", message, pid.remoteAddress))
	}
	return pid.dispatcher.Dispatch(newEnvelope(ctx, pid, nil, message))
}

// toPanicError converts a recovered value into a PanicError carrying the panic site
func toPanicError(r any) error {
	pc, fn, line, _ := runtime.Caller(3)
	switch err := r.(type) {
	case *gerrors.PanicError:
		return err
	case error:
		return gerrors.NewPanicError(fmt.Errorf("%w at %s[%s:%d]", err, runtime.FuncForPC(pc).Name(), fn, line))
	default:
		return gerrors.NewPanicError(fmt.Errorf("%#v at %s[%s:%d]", r, runtime.FuncForPC(pc).Name(), fn, line))
	}
}
