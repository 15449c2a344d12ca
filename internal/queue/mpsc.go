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

// Package queue provides the queues backing actor mailboxes
package queue

import (
	"sync"
	stdatomic "sync/atomic"

	"go.uber.org/atomic"
)

type node[T any] struct {
	value T
	next  stdatomic.Pointer[node[T]]
}

// Mpsc is a Multi-Producer-Single-Consumer queue.
// Producers never block each other; only one goroutine may Pop at a time.
// reference: https://concurrencyfreaks.blogspot.com/2014/04/multi-producer-single-consumer-queue.html
type Mpsc[T any] struct {
	head   stdatomic.Pointer[node[T]]
	tail   *node[T]
	length *atomic.Int64
	// guards tail for IsEmpty calls made outside of the consumer
	mu sync.Mutex
}

// NewMpsc creates an instance of Mpsc
func NewMpsc[T any]() *Mpsc[T] {
	stub := new(node[T])
	q := &Mpsc[T]{
		tail:   stub,
		length: atomic.NewInt64(0),
	}
	q.head.Store(stub)
	return q
}

// Push appends the given value at the tail of the queue (FIFO)
func (q *Mpsc[T]) Push(value T) {
	n := &node[T]{value: value}
	previous := q.head.Swap(n)
	previous.next.Store(n)
	q.length.Inc()
}

// Pop removes the oldest value of the queue.
// It returns false when the queue is empty.
func (q *Mpsc[T]) Pop() (T, bool) {
	var zero T
	q.mu.Lock()
	next := q.tail.next.Load()
	if next == nil {
		q.mu.Unlock()
		return zero, false
	}
	q.tail = next
	q.mu.Unlock()

	value := next.value
	next.value = zero
	q.length.Dec()
	return value, true
}

// Len returns the number of queued values
func (q *Mpsc[T]) Len() int64 {
	return q.length.Load()
}

// IsEmpty returns true when the queue is empty
func (q *Mpsc[T]) IsEmpty() bool {
	q.mu.Lock()
	tail := q.tail
	q.mu.Unlock()
	return tail.next.Load() == nil
}
