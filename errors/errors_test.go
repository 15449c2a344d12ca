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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrors(t *testing.T) {
	err := errors.New("something went wrong")
	internalErr := NewInternalError(err)
	require.Error(t, internalErr)
	require.EqualError(t, internalErr, "internal error: something went wrong")
	assert.ErrorIs(t, internalErr.Unwrap(), err)

	panicErr := NewPanicError(err)
	require.EqualError(t, panicErr, "panic: something went wrong")
	assert.ErrorIs(t, panicErr, err)

	rollback := NewErrTransactionRollback(err)
	assert.ErrorIs(t, rollback, ErrTransactionRollback)
	assert.ErrorIs(t, rollback, err)

	unhandled := NewErrUnhandledMessage("hello")
	assert.ErrorIs(t, unhandled, ErrUnhandledMessage)
	assert.Contains(t, unhandled.Error(), "string")

	notFound := NewErrActorNotFound("worker")
	assert.ErrorIs(t, notFound, ErrActorNotFound)
	assert.EqualError(t, notFound, "(actor=worker) actor not found")
}

func TestTransactionAwareError(t *testing.T) {
	cause := errors.New("boom")

	t.Run("carries the cause and the transaction id", func(t *testing.T) {
		txErr := NewTransactionAwareError(cause, "tx-1")
		require.EqualError(t, txErr, "transaction=(tx-1): boom")
		assert.Equal(t, "tx-1", txErr.TransactionID())
		assert.Same(t, cause, txErr.Cause())
		assert.ErrorIs(t, txErr, cause)
	})

	t.Run("unwraps nested layers", func(t *testing.T) {
		nested := NewTransactionAwareError(NewTransactionAwareError(cause, "inner"), "outer")
		assert.Same(t, cause, UnwrapTransactionAware(nested))
	})

	t.Run("returns plain errors untouched", func(t *testing.T) {
		assert.Same(t, cause, UnwrapTransactionAware(cause))
		assert.NoError(t, UnwrapTransactionAware(nil))
	})
}
