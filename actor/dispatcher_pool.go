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

	"github.com/tochemey/actorx/internal/workerpool"
)

// PoolDispatcher runs actors on a shared pool of goroutines.
// An actor holds a worker only while its mailbox has envelopes.
type PoolDispatcher struct {
	*registry
	mu   sync.Mutex
	pool *workerpool.WorkerPool
}

var _ Dispatcher = (*PoolDispatcher)(nil)

// NewPoolDispatcher creates an instance of PoolDispatcher
func NewPoolDispatcher(opts ...DispatcherOption) *PoolDispatcher {
	config := newDispatcherConfig(opts...)
	var poolOpts []workerpool.Option
	if config.numShards > 0 {
		poolOpts = append(poolOpts, workerpool.WithNumShards(config.numShards))
	}
	return &PoolDispatcher{
		registry: newRegistry(config),
		pool:     workerpool.New(poolOpts...),
	}
}

// Start starts the dispatcher
func (d *PoolDispatcher) Start(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started.Load() {
		return nil
	}
	d.pool.Start()
	d.started.Store(true)
	return nil
}

// Stop stops the registered actors and the worker pool
func (d *PoolDispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started.Load() {
		return nil
	}
	err := d.stopActors(ctx)
	d.started.Store(false)
	d.pool.Stop()
	return err
}

// Register binds the actor to a mailbox
func (d *PoolDispatcher) Register(pid *PID, handler Handler) error {
	_, err := d.add(pid, nil, handler)
	return err
}

// Dispatch enqueues the envelope and hands its actor over to a worker
// unless the actor is already being processed
func (d *PoolDispatcher) Dispatch(env *Envelope) error {
	reg, err := d.enqueue(env)
	if err != nil {
		return err
	}
	if !reg.schedulable() {
		return nil
	}
	if err := d.pool.Submit(func() {
		for reg.run(0) {
		}
	}); err != nil {
		reg.processing.Store(idle)
		return err
	}
	return nil
}
