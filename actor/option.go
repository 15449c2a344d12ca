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
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/tochemey/actorx/log"
	"github.com/tochemey/actorx/remote"
	"github.com/tochemey/actorx/stm"
	"github.com/tochemey/actorx/supervisor"
)

// Option is the interface that applies a configuration option.
type Option interface {
	// Apply sets the Option value of a config.
	Apply(pid *PID)
}

// enforce compilation error
var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(pid *PID)

// Apply applies the option to the PID
func (f OptionFunc) Apply(pid *PID) {
	f(pid)
}

// WithID sets the actor identifier. A random identifier is used otherwise.
func WithID(id string) Option {
	return OptionFunc(func(pid *PID) {
		pid.id = id
	})
}

// WithDispatcher sets the dispatcher running the actor
func WithDispatcher(dispatcher Dispatcher) Option {
	return OptionFunc(func(pid *PID) {
		pid.dispatcher = dispatcher
	})
}

// WithMailbox sets the actor mailbox. Dispatchers that require a specific
// kind of mailbox ignore it.
func WithMailbox(mailbox Mailbox) Option {
	return OptionFunc(func(pid *PID) {
		pid.mailbox = mailbox
	})
}

// WithLogger sets the actor logger
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(pid *PID) {
		pid.logger = logger
	})
}

// WithLifeCycle attaches the restart configuration of the actor
func WithLifeCycle(lifeCycle *supervisor.LifeCycle) Option {
	return OptionFunc(func(pid *PID) {
		pid.lifeCycle = lifeCycle
	})
}

// WithFaultHandler sets the strategy applied when the actor traps the exit of a linked actor
func WithFaultHandler(handler *supervisor.FaultHandler) Option {
	return OptionFunc(func(pid *PID) {
		pid.faultHandler = handler
	})
}

// WithTrapExit makes the actor handle the failures of its linked actors
// instead of forwarding them to its own supervisor
func WithTrapExit() Option {
	return OptionFunc(func(pid *PID) {
		pid.trapExit = true
	})
}

// WithRequestTimeout sets the default timeout of AskDefault
func WithRequestTimeout(timeout time.Duration) Option {
	return OptionFunc(func(pid *PID) {
		pid.requestTimeout.Store(timeout)
	})
}

// WithTransport sets the remote transport used to reach remote actors
func WithTransport(transport remote.Transport) Option {
	return OptionFunc(func(pid *PID) {
		pid.transport = transport
	})
}

// WithRemoteAddress turns the PID into a handle on a remote actor.
// Messages are forwarded through the configured transport.
func WithRemoteAddress(address *remote.Address) Option {
	return OptionFunc(func(pid *PID) {
		pid.remoteAddress = address
	})
}

// WithTransactionManager sets the transaction manager used by transactional dispatch
func WithTransactionManager(manager stm.Manager) Option {
	return OptionFunc(func(pid *PID) {
		pid.txManager = manager
	})
}

// WithTransactionPolicy sets the transactional dispatch policy
func WithTransactionPolicy(policy stm.Policy) Option {
	return OptionFunc(func(pid *PID) {
		pid.txPolicy = policy
	})
}

// WithTransactionRequired makes every send start a transaction when the
// caller has none
func WithTransactionRequired() Option {
	return OptionFunc(func(pid *PID) {
		pid.txRequired = true
	})
}

// WithMeterProvider enables the OpenTelemetry instruments of the actor
func WithMeterProvider(provider metric.MeterProvider) Option {
	return OptionFunc(func(pid *PID) {
		pid.meterProvider = provider
	})
}
