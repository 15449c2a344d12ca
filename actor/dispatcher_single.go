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
	"sync"

	"github.com/tochemey/actorx/internal/queue"
)

// SingleThreadDispatcher runs every registered actor on one dedicated goroutine.
// Actors with pending envelopes take turns, each handling at most the
// configured throughput before yielding.
type SingleThreadDispatcher struct {
	*registry
	mu    sync.Mutex
	ready *queue.Blocking[*registration]
	done  chan struct{}
}

var _ Dispatcher = (*SingleThreadDispatcher)(nil)

// NewSingleThreadDispatcher creates an instance of SingleThreadDispatcher
func NewSingleThreadDispatcher(opts ...DispatcherOption) *SingleThreadDispatcher {
	return &SingleThreadDispatcher{
		registry: newRegistry(newDispatcherConfig(opts...)),
	}
}

// Start starts the dispatching goroutine
func (d *SingleThreadDispatcher) Start(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started.Load() {
		return nil
	}
	d.ready = queue.NewBlocking[*registration]()
	d.done = make(chan struct{})
	d.started.Store(true)
	go d.loop(d.ready, d.done)
	return nil
}

// Stop stops the registered actors and the dispatching goroutine
func (d *SingleThreadDispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started.Load() {
		return nil
	}
	err := d.stopActors(ctx)
	d.started.Store(false)
	d.ready.Close()
	<-d.done
	return err
}

// Register binds the actor to a mailbox
func (d *SingleThreadDispatcher) Register(pid *PID, handler Handler) error {
	_, err := d.add(pid, nil, handler)
	return err
}

// Dispatch enqueues the envelope and marks its actor ready
func (d *SingleThreadDispatcher) Dispatch(env *Envelope) error {
	reg, err := d.enqueue(env)
	if err != nil {
		return err
	}
	if reg.schedulable() && !d.ready.Push(reg) {
		reg.processing.Store(idle)
	}
	return nil
}

func (d *SingleThreadDispatcher) loop(ready *queue.Blocking[*registration], done chan struct{}) {
	defer close(done)
	for {
		reg, ok := ready.Wait()
		if !ok {
			return
		}
		if reg.run(d.config.throughput) && !ready.Push(reg) {
			reg.processing.Store(idle)
		}
	}
}
