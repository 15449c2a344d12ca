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
	"time"
)

// DefaultShutdownGrace is the shutdown grace period of a LifeCycle
// created without WithShutdownGrace.
const DefaultShutdownGrace = 2 * time.Second

// Scope tells the restart routine whether an actor should be restarted
// when its supervisor decides to.
type Scope int

const (
	// Permanent actors are always restarted.
	Permanent Scope = iota
	// Temporary actors are not restarted. Restarting temporaries that
	// exited normally is not supported.
	Temporary
	// Transient actors are never restarted.
	Transient
)

// String returns the string representation of the scope
func (s Scope) String() string {
	switch s {
	case Permanent:
		return "Permanent"
	case Temporary:
		return "Temporary"
	case Transient:
		return "Transient"
	default:
		return ""
	}
}

// LifeCycle is the restart configuration attached to an actor.
// It is attached once and read by the restart routine.
type LifeCycle struct {
	scope         Scope
	shutdownGrace time.Duration
}

// LifeCycleOption configures a LifeCycle
type LifeCycleOption func(*LifeCycle)

// WithShutdownGrace sets how long a Stop waits for the actor to finish
// its in-flight message before giving up.
func WithShutdownGrace(grace time.Duration) LifeCycleOption {
	return func(l *LifeCycle) {
		l.shutdownGrace = grace
	}
}

// NewLifeCycle creates a LifeCycle with the given scope
func NewLifeCycle(scope Scope, opts ...LifeCycleOption) *LifeCycle {
	l := &LifeCycle{
		scope:         scope,
		shutdownGrace: DefaultShutdownGrace,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Scope returns the restart scope
func (l *LifeCycle) Scope() Scope {
	return l.scope
}

// ShutdownGrace returns the shutdown grace period
func (l *LifeCycle) ShutdownGrace() time.Duration {
	return l.shutdownGrace
}

// Restartable reports whether an actor with this lifecycle is restarted
// on a Restart request.
func (l *LifeCycle) Restartable() bool {
	return l.scope == Permanent
}
