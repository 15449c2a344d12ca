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

package supervisor

import (
	"sync"
	"time"
)

// Strategy represents how a supervisor that traps exits reacts to the
// failure of one of its linked actors.
type Strategy int

const (
	// OneForOne restarts only the linked actor that failed.
	OneForOne Strategy = iota
	// AllForOne restarts every linked actor when any of them fails.
	AllForOne
)

// String returns the string representation of the strategy
func (s Strategy) String() string {
	switch s {
	case OneForOne:
		return "OneForOne"
	case AllForOne:
		return "AllForOne"
	default:
		return ""
	}
}

// FaultHandlerOption defines the various options to apply to a given FaultHandler
type FaultHandlerOption func(*FaultHandler)

// WithRetry bounds how many restarts a linked actor may go through
// within window. Once exceeded the actor is stopped instead of restarted.
// A maxRetries of zero means restarts are never bounded.
func WithRetry(maxRetries uint32, window time.Duration) FaultHandlerOption {
	return func(f *FaultHandler) {
		f.maxRetries = maxRetries
		f.window = window
	}
}

// FaultHandler is the fault-handling strategy of an actor that traps the
// exits of the actors it is linked to.
//
// FaultHandler methods are safe for concurrent use.
type FaultHandler struct {
	strategy   Strategy
	maxRetries uint32
	window     time.Duration
}

// NewFaultHandler creates a FaultHandler for the given strategy.
// Without WithRetry restarts are unbounded.
func NewFaultHandler(strategy Strategy, opts ...FaultHandlerOption) *FaultHandler {
	f := &FaultHandler{
		strategy: strategy,
		window:   -1,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Strategy returns the configured strategy
func (f *FaultHandler) Strategy() Strategy {
	return f.strategy
}

// MaxRetries returns the restart budget
func (f *FaultHandler) MaxRetries() uint32 {
	return f.maxRetries
}

// Window returns the time window the restart budget applies to
func (f *FaultHandler) Window() time.Duration {
	return f.window
}

// NewBudget returns a RestartBudget enforcing the handler retry bounds
func (f *FaultHandler) NewBudget() *RestartBudget {
	return &RestartBudget{
		maxRetries: f.maxRetries,
		window:     f.window,
		restarts:   make(map[string][]time.Time),
	}
}

// RestartBudget tracks the restarts granted to each linked actor, keyed by
// actor id, and tells whether one more restart fits within the budget.
type RestartBudget struct {
	mu         sync.Mutex
	maxRetries uint32
	window     time.Duration
	restarts   map[string][]time.Time
}

// Allow records a restart attempt for id at now and reports whether it
// is within the budget.
func (b *RestartBudget) Allow(id string, now time.Time) bool {
	if b.maxRetries == 0 {
		return true
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	history := b.restarts[id]
	if b.window > 0 {
		cutoff := now.Add(-b.window)
		kept := history[:0]
		for _, at := range history {
			if at.After(cutoff) {
				kept = append(kept, at)
			}
		}
		history = kept
	}

	if uint32(len(history)) >= b.maxRetries {
		b.restarts[id] = history
		return false
	}

	b.restarts[id] = append(history, now)
	return true
}

// Forget drops the restart history of id
func (b *RestartBudget) Forget(id string) {
	b.mu.Lock()
	delete(b.restarts, id)
	b.mu.Unlock()
}
