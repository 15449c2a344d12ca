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
	gods "github.com/Workiva/go-datastructures/queue"

	gerrors "github.com/tochemey/actorx/errors"
	"github.com/tochemey/actorx/internal/queue"
)

// Mailbox is the ordered queue of envelopes owned by one actor.
//
// Implementations must be safe for many concurrent producers. The
// dispatcher is the single consumer. Ordering is FIFO.
type Mailbox interface {
	// Enqueue appends an envelope to the tail of the mailbox
	Enqueue(env *Envelope) error
	// Dequeue removes the envelope at the head of the mailbox.
	// It returns nil when the mailbox is empty.
	Dequeue() *Envelope
	// IsEmpty reports whether the mailbox has no envelope
	IsEmpty() bool
	// Len returns a snapshot of the number of queued envelopes
	Len() int64
	// Dispose releases the mailbox resources
	Dispose()
}

// UnboundedMailbox is the default, lock-free MPSC mailbox.
// Enqueue never fails.
type UnboundedMailbox struct {
	underlying *queue.Mpsc[*Envelope]
}

var _ Mailbox = (*UnboundedMailbox)(nil)

// NewUnboundedMailbox creates an instance of UnboundedMailbox
func NewUnboundedMailbox() *UnboundedMailbox {
	return &UnboundedMailbox{underlying: queue.NewMpsc[*Envelope]()}
}

// Enqueue appends an envelope to the mailbox
func (m *UnboundedMailbox) Enqueue(env *Envelope) error {
	m.underlying.Push(env)
	return nil
}

// Dequeue removes the oldest envelope
func (m *UnboundedMailbox) Dequeue() *Envelope {
	env, _ := m.underlying.Pop()
	return env
}

// IsEmpty reports whether the mailbox is empty
func (m *UnboundedMailbox) IsEmpty() bool {
	return m.underlying.IsEmpty()
}

// Len returns the mailbox size
func (m *UnboundedMailbox) Len() int64 {
	return m.underlying.Len()
}

// Dispose drains the mailbox
func (m *UnboundedMailbox) Dispose() {
	for !m.underlying.IsEmpty() {
		m.underlying.Pop()
	}
}

// BoundedMailbox is a fixed capacity mailbox backed by a ring buffer.
// Enqueue never blocks: it fails with ErrMailboxFull when the buffer is full.
// The ring buffer rounds the capacity up to the next power of two.
type BoundedMailbox struct {
	underlying *gods.RingBuffer
}

var _ Mailbox = (*BoundedMailbox)(nil)

// NewBoundedMailbox creates an instance of BoundedMailbox
func NewBoundedMailbox(capacity int) *BoundedMailbox {
	if capacity <= 0 {
		capacity = 1
	}
	return &BoundedMailbox{underlying: gods.NewRingBuffer(uint64(capacity))}
}

// Enqueue appends an envelope to the mailbox
func (m *BoundedMailbox) Enqueue(env *Envelope) error {
	ok, err := m.underlying.Offer(env)
	if err != nil {
		return err
	}
	if !ok {
		return gerrors.ErrMailboxFull
	}
	return nil
}

// Dequeue removes the oldest envelope
func (m *BoundedMailbox) Dequeue() *Envelope {
	if m.underlying.Len() > 0 {
		item, _ := m.underlying.Get()
		if env, ok := item.(*Envelope); ok {
			return env
		}
	}
	return nil
}

// IsEmpty reports whether the mailbox is empty
func (m *BoundedMailbox) IsEmpty() bool {
	return m.underlying.Len() == 0
}

// Len returns the mailbox size
func (m *BoundedMailbox) Len() int64 {
	return int64(m.underlying.Len())
}

// Capacity returns the effective capacity of the mailbox
func (m *BoundedMailbox) Capacity() int64 {
	return int64(m.underlying.Cap())
}

// Dispose releases the ring buffer. Later enqueues fail.
func (m *BoundedMailbox) Dispose() {
	m.underlying.Dispose()
}

// blockingMailbox lets its consumer wait for envelopes.
// It backs the thread based dispatcher.
type blockingMailbox struct {
	underlying *queue.Blocking[*Envelope]
}

var _ Mailbox = (*blockingMailbox)(nil)

func newBlockingMailbox() *blockingMailbox {
	return &blockingMailbox{underlying: queue.NewBlocking[*Envelope]()}
}

func (m *blockingMailbox) Enqueue(env *Envelope) error {
	if !m.underlying.Push(env) {
		return gerrors.ErrNotRegistered
	}
	return nil
}

func (m *blockingMailbox) Dequeue() *Envelope {
	env, _ := m.underlying.Pop()
	return env
}

// wait blocks until an envelope arrives. It returns nil once disposed.
func (m *blockingMailbox) wait() *Envelope {
	env, _ := m.underlying.Wait()
	return env
}

func (m *blockingMailbox) IsEmpty() bool {
	return m.underlying.Len() == 0
}

func (m *blockingMailbox) Len() int64 {
	return int64(m.underlying.Len())
}

func (m *blockingMailbox) Dispose() {
	m.underlying.Close()
}
