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
	"time"
)

const (
	// DefaultRequestTimeout defines the default timeout of a request/reply send
	DefaultRequestTimeout = 5 * time.Second
	// DefaultThroughput defines how many envelopes of one actor the single
	// thread dispatcher handles before yielding to the next actor
	DefaultThroughput = 64
)

var (
	defaultDispatcher     Dispatcher
	defaultDispatcherOnce sync.Once
)

// DefaultDispatcher returns the process wide pool dispatcher used by actors
// created without WithDispatcher. It is started on first use.
func DefaultDispatcher() Dispatcher {
	defaultDispatcherOnce.Do(func() {
		dispatcher := NewPoolDispatcher()
		_ = dispatcher.Start(context.Background())
		defaultDispatcher = dispatcher
	})
	return defaultDispatcher
}
