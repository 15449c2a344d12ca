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
)

// ThreadBasedDispatcher dedicates one goroutine to every registered actor.
// The goroutine blocks on the actor mailbox and exits when the actor is unregistered.
// Actors registered with this dispatcher always use a blocking unbounded mailbox.
type ThreadBasedDispatcher struct {
	*registry
	mu sync.Mutex
	wg sync.WaitGroup
}

var _ Dispatcher = (*ThreadBasedDispatcher)(nil)

// NewThreadBasedDispatcher creates an instance of ThreadBasedDispatcher
func NewThreadBasedDispatcher(opts ...DispatcherOption) *ThreadBasedDispatcher {
	return &ThreadBasedDispatcher{
		registry: newRegistry(newDispatcherConfig(opts...)),
	}
}

// Start starts the dispatcher
func (d *ThreadBasedDispatcher) Start(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.started.Store(true)
	return nil
}

// Stop stops every registered actor and waits for their goroutines
func (d *ThreadBasedDispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started.Load() {
		return nil
	}
	err := d.stopActors(ctx)
	d.started.Store(false)
	d.wg.Wait()
	return err
}

// Register spawns the goroutine dedicated to the actor
func (d *ThreadBasedDispatcher) Register(pid *PID, handler Handler) error {
	mailbox := newBlockingMailbox()
	reg, err := d.add(pid, mailbox, handler)
	if err != nil {
		return err
	}
	if reg.mailbox != Mailbox(mailbox) {
		// already registered
		return nil
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for env := mailbox.wait(); env != nil; env = mailbox.wait() {
			reg.handler(env)
		}
	}()
	return nil
}

// Dispatch enqueues the envelope. The actor goroutine picks it up.
func (d *ThreadBasedDispatcher) Dispatch(env *Envelope) error {
	_, err := d.enqueue(env)
	return err
}
