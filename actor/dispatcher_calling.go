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
)

// CallingThreadDispatcher handles envelopes on the goroutine that dispatches them.
// When the actor is already being processed by another goroutine the envelope
// is only queued and handled by that goroutine.
//
// An actor must not Ask itself on this dispatcher: the reply can only be
// produced once the asking handler returns.
type CallingThreadDispatcher struct {
	*registry
}

var _ Dispatcher = (*CallingThreadDispatcher)(nil)

// NewCallingThreadDispatcher creates an instance of CallingThreadDispatcher
func NewCallingThreadDispatcher(opts ...DispatcherOption) *CallingThreadDispatcher {
	return &CallingThreadDispatcher{
		registry: newRegistry(newDispatcherConfig(opts...)),
	}
}

// Start starts the dispatcher
func (d *CallingThreadDispatcher) Start(context.Context) error {
	d.started.Store(true)
	return nil
}

// Stop stops the registered actors
func (d *CallingThreadDispatcher) Stop(ctx context.Context) error {
	if !d.started.Load() {
		return nil
	}
	err := d.stopActors(ctx)
	d.started.Store(false)
	return err
}

// Register binds the actor to a mailbox
func (d *CallingThreadDispatcher) Register(pid *PID, handler Handler) error {
	_, err := d.add(pid, nil, handler)
	return err
}

// Dispatch enqueues the envelope and drains the mailbox on the caller goroutine
func (d *CallingThreadDispatcher) Dispatch(env *Envelope) error {
	reg, err := d.enqueue(env)
	if err != nil {
		return err
	}
	if reg.schedulable() {
		for reg.run(0) {
		}
	}
	return nil
}
