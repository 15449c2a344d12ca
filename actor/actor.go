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

// Actor defines the user-provided logic of an actor.
//
// The runtime guarantees that, for a given actor, Receive is never invoked
// concurrently: every message is handled to completion before the next one
// is pulled from the mailbox. Implementations can therefore treat their own
// state as sequential code.
type Actor interface {
	// PreStart is invoked once before the actor begins processing messages.
	// When an error is returned the actor is not started.
	PreStart(ctx context.Context) error
	// Receive handles the messages sent to the actor. Unknown messages
	// should be reported with ReceiveContext.Unhandled.
	Receive(ctx *ReceiveContext)
	// PostStop is invoked when the actor stops.
	PostStop(ctx context.Context) error
}

// Initializer is implemented by actors that react to the Init control message
type Initializer interface {
	// Init is called with the configuration carried by the Init message
	Init(ctx context.Context, config any) error
}

// Restarter is implemented by actors that take part in a Permanent restart.
// The last configuration received through Init is passed to both hooks.
type Restarter interface {
	PreRestart(ctx context.Context, reason error, config any) error
	PostRestart(ctx context.Context, reason error, config any) error
}

// Behavior is a message handler that can replace the actor's Receive at runtime
type Behavior func(ctx *ReceiveContext)
