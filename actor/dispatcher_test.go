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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/tochemey/actorx/errors"
	"github.com/tochemey/actorx/future"
	"github.com/tochemey/actorx/log"
)

func TestMailbox(t *testing.T) {
	t.Run("With unbounded mailbox", func(t *testing.T) {
		mailbox := NewUnboundedMailbox()
		assert.True(t, mailbox.IsEmpty())
		assert.Nil(t, mailbox.Dequeue())

		first := newEnvelope(context.TODO(), nil, nil, 1)
		second := newEnvelope(context.TODO(), nil, nil, 2)
		require.NoError(t, mailbox.Enqueue(first))
		require.NoError(t, mailbox.Enqueue(second))
		assert.EqualValues(t, 2, mailbox.Len())

		assert.Same(t, first, mailbox.Dequeue())
		assert.Same(t, second, mailbox.Dequeue())
		assert.True(t, mailbox.IsEmpty())

		require.NoError(t, mailbox.Enqueue(first))
		mailbox.Dispose()
		assert.True(t, mailbox.IsEmpty())
	})
	t.Run("With bounded mailbox", func(t *testing.T) {
		mailbox := NewBoundedMailbox(2)
		assert.EqualValues(t, 2, mailbox.Capacity())

		require.NoError(t, mailbox.Enqueue(newEnvelope(context.TODO(), nil, nil, 1)))
		require.NoError(t, mailbox.Enqueue(newEnvelope(context.TODO(), nil, nil, 2)))
		assert.ErrorIs(t, mailbox.Enqueue(newEnvelope(context.TODO(), nil, nil, 3)), gerrors.ErrMailboxFull)
		assert.EqualValues(t, 2, mailbox.Len())

		assert.Equal(t, 1, mailbox.Dequeue().Message())
		require.NoError(t, mailbox.Enqueue(newEnvelope(context.TODO(), nil, nil, 3)))
		assert.Equal(t, 2, mailbox.Dequeue().Message())
		assert.Equal(t, 3, mailbox.Dequeue().Message())
		assert.Nil(t, mailbox.Dequeue())
		mailbox.Dispose()
	})
	t.Run("With bounded capacity rounded up", func(t *testing.T) {
		assert.EqualValues(t, 4, NewBoundedMailbox(3).Capacity())
		assert.EqualValues(t, 1, NewBoundedMailbox(0).Capacity())
	})
	t.Run("With disposed blocking mailbox", func(t *testing.T) {
		mailbox := newBlockingMailbox()
		require.NoError(t, mailbox.Enqueue(newEnvelope(context.TODO(), nil, nil, 1)))
		assert.NotNil(t, mailbox.wait())
		mailbox.Dispose()
		assert.Nil(t, mailbox.wait())
		assert.ErrorIs(t, mailbox.Enqueue(newEnvelope(context.TODO(), nil, nil, 2)), gerrors.ErrNotRegistered)
	})
	t.Run("With actor mailbox full", func(t *testing.T) {
		ctx := context.TODO()
		pid := New(newExchanger(), testOptions(WithMailbox(NewBoundedMailbox(1)))...)
		require.NoError(t, pid.Start(ctx))
		defer func() { _ = pid.Stop(ctx) }()

		require.NoError(t, pid.Tell(ctx, &testWait{duration: 200 * time.Millisecond}))
		require.Eventually(t, func() bool {
			return pid.Dispatcher().MessageQueue(pid).IsEmpty()
		}, time.Second, time.Millisecond)

		require.NoError(t, pid.Tell(ctx, new(testPing)))
		assert.ErrorIs(t, pid.Tell(ctx, new(testPing)), gerrors.ErrMailboxFull)
	})
}

func TestDispatcher(t *testing.T) {
	dispatchers := map[string]func() Dispatcher{
		"pool":           func() Dispatcher { return NewPoolDispatcher(WithNumShards(2)) },
		"single thread":  func() Dispatcher { return NewSingleThreadDispatcher(WithThroughput(4)) },
		"thread based":   func() Dispatcher { return NewThreadBasedDispatcher() },
		"calling thread": func() Dispatcher { return NewCallingThreadDispatcher() },
	}

	for name, newDispatcher := range dispatchers {
		t.Run("With "+name+" dispatcher not started", func(t *testing.T) {
			dispatcher := newDispatcher()
			pid := New(newExchanger(), testOptions(WithDispatcher(dispatcher))...)
			assert.False(t, dispatcher.IsRunning())
			assert.ErrorIs(t, dispatcher.Register(pid, func(*Envelope) {}), gerrors.ErrDispatcherNotStarted)
			assert.ErrorIs(t, dispatcher.Dispatch(newEnvelope(context.TODO(), pid, nil, 1)), gerrors.ErrDispatcherNotStarted)
		})
		t.Run("With "+name+" dispatcher and unregistered actor", func(t *testing.T) {
			ctx := context.TODO()
			dispatcher := newDispatcher()
			require.NoError(t, dispatcher.Start(ctx))
			defer func() { _ = dispatcher.Stop(ctx) }()

			pid := New(newExchanger(), testOptions(WithDispatcher(dispatcher))...)
			assert.Nil(t, dispatcher.MessageQueue(pid))
			assert.ErrorIs(t, dispatcher.Dispatch(newEnvelope(ctx, pid, nil, 1)), gerrors.ErrNotRegistered)
		})
		t.Run("With "+name+" dispatcher stopping its actors", func(t *testing.T) {
			ctx := context.TODO()
			dispatcher := newDispatcher()
			require.NoError(t, dispatcher.Start(ctx))

			first := New(newExchanger(), testOptions(WithDispatcher(dispatcher))...)
			second := New(newExchanger(), testOptions(WithDispatcher(dispatcher))...)
			require.NoError(t, first.Start(ctx))
			require.NoError(t, second.Start(ctx))
			assert.NotNil(t, dispatcher.MessageQueue(first))

			reply, ok, err := first.Ask(ctx, new(testPing), time.Second)
			require.NoError(t, err)
			require.True(t, ok)
			assert.IsType(t, new(testPong), reply)

			require.NoError(t, dispatcher.Stop(ctx))
			assert.False(t, dispatcher.IsRunning())
			assert.False(t, first.IsRunning())
			assert.False(t, second.IsRunning())
			assert.Nil(t, dispatcher.MessageQueue(first))
		})
	}

	t.Run("With unregister failing pending requests", func(t *testing.T) {
		ctx := context.TODO()
		dispatcher := NewPoolDispatcher()
		require.NoError(t, dispatcher.Start(ctx))
		defer func() { _ = dispatcher.Stop(ctx) }()

		pid := New(newExchanger(), testOptions(WithDispatcher(dispatcher))...)
		entered := make(chan struct{})
		release := make(chan struct{})
		require.NoError(t, dispatcher.Register(pid, func(env *Envelope) {
			if env.Message() == "block" {
				close(entered)
				<-release
			}
		}))

		require.NoError(t, dispatcher.Dispatch(newEnvelope(ctx, pid, nil, "block")))
		<-entered

		completer := future.NewCompleter()
		require.NoError(t, dispatcher.Dispatch(newEnvelope(ctx, pid, nil, "pending").withCompleter(completer)))

		dispatcher.Unregister(pid)
		close(release)

		result, ok := completer.Future().Await(time.Second)
		require.True(t, ok)
		assert.ErrorIs(t, result.Failure(), gerrors.ErrNotStarted)
		assert.ErrorIs(t, dispatcher.Dispatch(newEnvelope(ctx, pid, nil, 1)), gerrors.ErrNotRegistered)
	})
	t.Run("With dispatcher bounding mailboxes", func(t *testing.T) {
		ctx := context.TODO()
		dispatcher := NewSingleThreadDispatcher(WithMailboxCapacity(8), WithDispatcherLogger(log.DiscardLogger))
		require.NoError(t, dispatcher.Start(ctx))
		defer func() { _ = dispatcher.Stop(ctx) }()

		pid := New(newExchanger(), testOptions(WithDispatcher(dispatcher))...)
		require.NoError(t, pid.Start(ctx))

		mailbox, ok := dispatcher.MessageQueue(pid).(*BoundedMailbox)
		require.True(t, ok)
		assert.EqualValues(t, 8, mailbox.Capacity())
	})
	t.Run("With thread based dispatcher using its own mailbox", func(t *testing.T) {
		ctx := context.TODO()
		dispatcher := NewThreadBasedDispatcher()
		require.NoError(t, dispatcher.Start(ctx))
		defer func() { _ = dispatcher.Stop(ctx) }()

		pid := New(newExchanger(), testOptions(WithDispatcher(dispatcher))...)
		require.NoError(t, pid.Start(ctx))
		_, ok := dispatcher.MessageQueue(pid).(*blockingMailbox)
		assert.True(t, ok)
	})
	t.Run("With default dispatcher", func(t *testing.T) {
		dispatcher := DefaultDispatcher()
		assert.Same(t, dispatcher, DefaultDispatcher())
		assert.True(t, dispatcher.IsRunning())
		assert.Same(t, dispatcher, New(newExchanger()).Dispatcher())
	})
}
