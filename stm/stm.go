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

// Package stm defines the contract the actor runtime consumes from a
// software transactional memory engine. The engine itself lives outside
// of this module: the runtime only starts, joins, commits and rolls back
// transactions and carries the active one through a context.Context.
package stm

import (
	"context"
	"errors"
	"time"
)

// ErrCollision is returned by the commit retry loop when the Manager
// reports that the pending transaction cannot commit yet.
var ErrCollision = errors.New("transaction collision")

const (
	// DefaultMaxAttempts is the default bound of commit attempts
	DefaultMaxAttempts = 10
	// DefaultInterval is the default base pause between two commit attempts
	DefaultInterval = 50 * time.Millisecond
)

// Transaction is a unit of optimistic work managed by a Manager.
type Transaction interface {
	// ID returns the transaction identifier
	ID() string
	// IsAborted reports whether the transaction has been aborted
	IsAborted() bool
	// PreCommit prepares the transaction for commit once the
	// outermost transactional call completes
	PreCommit() error
	// Discard drops an aborted transaction
	Discard()
}

// Manager is the transaction manager collaborator.
type Manager interface {
	// TryCommit attempts to commit the transaction pending on the
	// call chain carried by ctx. It returns true when there is nothing
	// left to commit.
	TryCommit(ctx context.Context) bool
	// Start begins a new transaction
	Start(ctx context.Context) (Transaction, error)
	// Join enlists the caller into an existing transaction
	Join(ctx context.Context, tx Transaction) error
	// Rollback aborts the given transaction
	Rollback(ctx context.Context, tx Transaction) error
}

// Policy is the transactional dispatch configuration of an actor.
// It replaces a process wide transactionality switch.
type Policy struct {
	// Enabled turns transactional dispatch on
	Enabled bool
	// MaxAttempts bounds the commit attempts made before sending
	MaxAttempts int
	// Interval is the base pause between two commit attempts. The retrier
	// adds jitter: each pause lasts between 1.5 and 2 times Interval.
	Interval time.Duration
	// RescheduleOnCollision rolls back a colliding transaction and
	// reschedules the message on a fresh one instead of failing the send
	RescheduleOnCollision bool
}

// DefaultPolicy returns a disabled policy with the default retry bounds
func DefaultPolicy() Policy {
	return Policy{
		Enabled:     false,
		MaxAttempts: DefaultMaxAttempts,
		Interval:    DefaultInterval,
	}
}

// Sanitize returns a copy of the policy with invalid bounds replaced by defaults
func (p Policy) Sanitize() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.Interval <= 0 {
		p.Interval = DefaultInterval
	}
	return p
}
