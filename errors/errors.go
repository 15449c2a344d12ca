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

package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotStarted is returned when an operation requires a running actor
	// but the actor has not been started or has already been stopped.
	ErrNotStarted = errors.New("actor has not been started")

	// ErrNoSenderInScope is returned when Reply is called while the message being
	// processed was sent fire-and-forget, or outside of message handling.
	ErrNoSenderInScope = errors.New("no sender in scope, cannot reply")

	// ErrAlreadySupervised is returned when linking an actor that already has a supervisor.
	ErrAlreadySupervised = errors.New("actor is already supervised")

	// ErrNotLinked is returned when unlinking an actor that is not linked.
	ErrNotLinked = errors.New("actor is not linked")

	// ErrNoFaultHandler is returned when an actor traps exits but has no fault handler configured.
	ErrNoFaultHandler = errors.New("actor traps exits but no fault handler is defined")

	// ErrNoLifeCycle is returned when restarting an actor that has no lifecycle configuration.
	ErrNoLifeCycle = errors.New("actor has no lifecycle defined, cannot restart")

	// ErrUnhandledMessage is returned when a message matches none of the actor behaviors.
	ErrUnhandledMessage = errors.New("unhandled message")

	// ErrTransactionRollback is returned when the transaction retry budget is exhausted
	// and the message is not rescheduled.
	ErrTransactionRollback = errors.New("transaction rolled back")

	// ErrInvalidTimeout is returned when a timeout value is less than or equal to zero.
	ErrInvalidTimeout = errors.New("invalid timeout")

	// ErrRemotingDisabled is returned when a remote address is set but no transport is configured.
	ErrRemotingDisabled = errors.New("remoting is not enabled")

	// ErrRemoteSendFailure is returned when sending a remote message fails.
	ErrRemoteSendFailure = errors.New("remote send failed")

	// ErrDispatcherNotStarted is returned when a dispatcher is used before Start.
	ErrDispatcherNotStarted = errors.New("dispatcher has not started")

	// ErrMailboxFull is returned when a bounded mailbox has reached its capacity.
	ErrMailboxFull = errors.New("mailbox is full")

	// ErrNotRegistered is returned when dispatching to an actor the dispatcher does not know.
	ErrNotRegistered = errors.New("actor is not registered with the dispatcher")

	// ErrActorNotFound is returned when a remote request targets an unknown actor name.
	ErrActorNotFound = errors.New("actor not found")

	// ErrRequestTimeout completes a remote request whose reply did not arrive
	// within the request timeout. Ask reports it as an absent reply.
	ErrRequestTimeout = errors.New("request timed out")
)

// NewErrUnhandledMessage wraps ErrUnhandledMessage with the offending message type.
func NewErrUnhandledMessage(message any) error {
	return fmt.Errorf("message=(%T) %w", message, ErrUnhandledMessage)
}

// NewErrTransactionRollback joins ErrTransactionRollback with the collision cause.
func NewErrTransactionRollback(err error) error {
	return errors.Join(ErrTransactionRollback, err)
}

// NewErrRemoteSendFailure wraps an error into an ErrRemoteSendFailure.
func NewErrRemoteSendFailure(err error) error {
	return errors.Join(ErrRemoteSendFailure, err)
}

// NewErrActorNotFound formats an ErrActorNotFound with the given actor name.
func NewErrActorNotFound(name string) error {
	return fmt.Errorf("(actor=%s) %w", name, ErrActorNotFound)
}

// TransactionAwareError carries an error raised inside a transactional
// message handler together with the identifier of the transaction it
// happened in. The sender unwraps it and surfaces the original cause.
type TransactionAwareError struct {
	cause error
	txID  string
}

// enforce compilation error
var _ error = (*TransactionAwareError)(nil)

// NewTransactionAwareError creates an instance of TransactionAwareError
func NewTransactionAwareError(cause error, txID string) *TransactionAwareError {
	return &TransactionAwareError{cause: cause, txID: txID}
}

// Error implements the standard error interface
func (e *TransactionAwareError) Error() string {
	return fmt.Sprintf("transaction=(%s): %v", e.txID, e.cause)
}

// Unwrap returns the original cause
func (e *TransactionAwareError) Unwrap() error {
	return e.cause
}

// TransactionID returns the identifier of the transaction the error happened in
func (e *TransactionAwareError) TransactionID() string {
	return e.txID
}

// Cause returns the original error
func (e *TransactionAwareError) Cause() error {
	return e.cause
}

// UnwrapTransactionAware strips every TransactionAwareError layer from err
// and returns the innermost cause. Other errors are returned as is.
func UnwrapTransactionAware(err error) error {
	for {
		var txErr *TransactionAwareError
		if !errors.As(err, &txErr) {
			return err
		}
		err = txErr.cause
	}
}

// PanicError defines the panic error
// wrapping the underlying error
type PanicError struct {
	err error
}

// enforce compilation error
var _ error = (*PanicError)(nil)

// NewPanicError creates an instance of PanicError
func NewPanicError(err error) *PanicError {
	return &PanicError{err}
}

// Error implements the standard error interface
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.err)
}

func (e *PanicError) Unwrap() error {
	return e.err
}

// InternalError defines an error that is explicit to the application
type InternalError struct {
	err error
}

// enforce compilation error
var _ error = (*InternalError)(nil)

// NewInternalError returns an intance of InternalError
func NewInternalError(err error) *InternalError {
	return &InternalError{
		err: fmt.Errorf("internal error: %w", err),
	}
}

// Error implements the standard error interface
func (i *InternalError) Error() string {
	return i.err.Error()
}

func (i *InternalError) Unwrap() error {
	return i.err
}
