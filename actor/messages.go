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
	"github.com/tochemey/actorx/remote"
)

// Init asks the actor to initialize itself with the given configuration
type Init struct {
	Config any
}

// Stop asks the actor to stop after the messages already queued ahead of it
type Stop struct {
	Reason error
}

// HotSwap installs Behavior in place of the actor's Receive.
// A nil Behavior restores Receive.
type HotSwap struct {
	Behavior Behavior
}

// Restart asks the actor to run its restart routine
type Restart struct {
	Reason error
}

// Exit notifies a supervisor that one of its linked actors failed.
// From is set when the failure happened on a remote node.
type Exit struct {
	Dead  *PID
	From  *remote.Address
	Cause error
}

// isControlMessage reports whether the message belongs to the lifecycle protocol
func isControlMessage(message any) bool {
	switch message.(type) {
	case *Init, *Stop, *HotSwap, *Restart, *Exit:
		return true
	default:
		return false
	}
}
