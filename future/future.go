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

package future

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Future is a single-assignment container for a value which may not be
// available yet. It is pending until its Completer writes either a value
// or an error. Any number of goroutines may wait on it.
//
// Example usage:
//
//	completer := future.NewCompleter()
//	go func() {
//	    completer.Success(compute())
//	}()
//
//	result, ok := completer.Future().Await(time.Second)
//	if !ok {
//	    // timed out, no value yet
//	}
type Future struct {
	done   chan struct{}
	result Result
}

// Result represents the outcome of a completed Future.
//
// If the computation succeeded, Success returns its value and Failure returns nil.
// If it failed, Failure returns the error.
type Result struct {
	success any
	failure error
}

// Success returns the successful result of the Future, if available.
func (x *Result) Success() any {
	return x.success
}

// Failure returns the error the Future was completed with, if any.
func (x *Result) Failure() error {
	return x.failure
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// New creates a Future that is completed with the outcome of the given task.
// The task runs in its own goroutine; a panic is turned into a failure.
func New(task func() (any, error)) *Future {
	completer := NewCompleter()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				completer.Failure(fmt.Errorf("task panicked: %v", r))
			}
		}()

		result, err := task()
		if err != nil {
			completer.Failure(err)
			return
		}
		completer.Success(result)
	}()
	return completer.Future()
}

// Await blocks up to timeout for the Future to complete. The boolean is false
// when the timeout elapsed before completion; the pending computation is not cancelled.
func (x *Future) Await(timeout time.Duration) (*Result, bool) {
	select {
	case <-x.done:
		return &x.result, true
	default:
	}

	if timeout <= 0 {
		return nil, false
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-x.done:
		return &x.result, true
	case <-timer.C:
		return nil, false
	}
}

// AwaitContext blocks until the Future completes or the context is done.
func (x *Future) AwaitContext(ctx context.Context) (*Result, error) {
	select {
	case <-x.done:
		return &x.result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// AwaitUninterruptible blocks until the Future completes.
func (x *Future) AwaitUninterruptible() *Result {
	<-x.done
	return &x.result
}

// IsCompleted reports whether a value or an error has been written.
func (x *Future) IsCompleted() bool {
	select {
	case <-x.done:
		return true
	default:
		return false
	}
}

// Done returns a channel closed when the Future completes.
func (x *Future) Done() <-chan struct{} {
	return x.done
}

// Completer is the write side of a Future. Only the first call to
// Success or Failure takes effect.
type Completer struct {
	once   sync.Once
	future *Future
}

// NewCompleter returns a Completer with a pending Future.
func NewCompleter() *Completer {
	return &Completer{future: newFuture()}
}

// Success completes the underlying Future with a value.
// It returns false when the Future was already completed.
func (c *Completer) Success(value any) bool {
	return c.complete(value, nil)
}

// Failure completes the underlying Future with an error.
// It returns false when the Future was already completed.
func (c *Completer) Failure(err error) bool {
	return c.complete(nil, err)
}

// Future returns the underlying Future.
func (c *Completer) Future() *Future {
	return c.future
}

func (c *Completer) complete(value any, err error) bool {
	completed := false
	c.once.Do(func() {
		c.future.result = Result{success: value, failure: err}
		close(c.future.done)
		completed = true
	})
	return completed
}
