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

package stm

import (
	"context"
	"sync"
)

type bindingKey struct{}

// Binding holds the active transaction of a call chain together with the
// nesting depth of the transactional calls currently in flight on it.
// It is the explicit replacement of a thread bound transaction slot and
// travels inside a context.Context.
type Binding struct {
	mu    sync.Mutex
	tx    Transaction
	depth int
}

// WithBinding returns a context carrying a Binding. When ctx already
// carries one it is returned unchanged so nested calls share it.
func WithBinding(ctx context.Context) (context.Context, *Binding) {
	if binding := BindingFrom(ctx); binding != nil {
		return ctx, binding
	}
	binding := new(Binding)
	return context.WithValue(ctx, bindingKey{}, binding), binding
}

// NewContext returns a context carrying a fresh Binding bound to tx.
// Unlike WithBinding it never reuses an existing Binding.
func NewContext(ctx context.Context, tx Transaction) (context.Context, *Binding) {
	binding := &Binding{tx: tx}
	return context.WithValue(ctx, bindingKey{}, binding), binding
}

// BindingFrom returns the Binding carried by ctx, or nil
func BindingFrom(ctx context.Context) *Binding {
	if ctx == nil {
		return nil
	}
	binding, _ := ctx.Value(bindingKey{}).(*Binding)
	return binding
}

// Current returns the active transaction carried by ctx, or nil
func Current(ctx context.Context) Transaction {
	if binding := BindingFrom(ctx); binding != nil {
		return binding.Get()
	}
	return nil
}

// Get returns the active transaction
func (b *Binding) Get() Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tx
}

// Set binds tx as the active transaction
func (b *Binding) Set(tx Transaction) {
	b.mu.Lock()
	b.tx = tx
	b.mu.Unlock()
}

// Clear removes the active transaction
func (b *Binding) Clear() {
	b.mu.Lock()
	b.tx = nil
	b.mu.Unlock()
}

// Enter increments the nesting depth and returns the new depth
func (b *Binding) Enter() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.depth++
	return b.depth
}

// Exit decrements the nesting depth and returns the new depth.
// A zero result means the outermost call is completing.
func (b *Binding) Exit() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.depth > 0 {
		b.depth--
	}
	return b.depth
}

// Depth returns the current nesting depth
func (b *Binding) Depth() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.depth
}
