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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/tochemey/actorx/errors"
	"github.com/tochemey/actorx/remote"
	"github.com/tochemey/actorx/supervisor"
)

func permanent() Option {
	return WithLifeCycle(supervisor.NewLifeCycle(supervisor.Permanent))
}

func newSupervisor(t *testing.T, strategy supervisor.Strategy, opts ...supervisor.FaultHandlerOption) *PID {
	t.Helper()
	pid := New(newExchanger(), testOptions(
		WithTrapExit(),
		WithFaultHandler(supervisor.NewFaultHandler(strategy, opts...)),
	)...)
	require.NoError(t, pid.Start(context.TODO()))
	t.Cleanup(func() { _ = pid.Stop(context.TODO()) })
	return pid
}

func TestLink(t *testing.T) {
	t.Run("With link and unlink", func(t *testing.T) {
		ctx := context.TODO()
		parent := New(newExchanger(), testOptions()...)
		child := New(newExchanger(), testOptions()...)
		require.NoError(t, parent.Start(ctx))
		require.NoError(t, child.Start(ctx))
		defer func() { _ = parent.Stop(ctx); _ = child.Stop(ctx) }()

		require.NoError(t, parent.Link(child))
		assert.True(t, parent.Equals(child.Supervisor()))
		assert.True(t, parent.IsLinked(child))
		assert.Equal(t, 1, parent.LinksCount())
		require.Len(t, parent.Links(), 1)

		require.NoError(t, parent.Unlink(child))
		assert.Nil(t, child.Supervisor())
		assert.Zero(t, parent.LinksCount())
	})
	t.Run("With link before start", func(t *testing.T) {
		parent := New(newExchanger(), testOptions()...)
		child := New(newExchanger(), testOptions()...)
		assert.ErrorIs(t, parent.Link(child), gerrors.ErrNotStarted)
		assert.Nil(t, child.Supervisor())
	})
	t.Run("With a second supervisor", func(t *testing.T) {
		ctx := context.TODO()
		first := New(newExchanger(), testOptions()...)
		second := New(newExchanger(), testOptions()...)
		child := New(newExchanger(), testOptions()...)
		for _, pid := range []*PID{first, second, child} {
			require.NoError(t, pid.Start(ctx))
		}
		defer func() { _ = first.Stop(ctx); _ = second.Stop(ctx); _ = child.Stop(ctx) }()

		require.NoError(t, first.Link(child))
		assert.ErrorIs(t, second.Link(child), gerrors.ErrAlreadySupervised)
		assert.True(t, first.Equals(child.Supervisor()))
		assert.Zero(t, second.LinksCount())
	})
	t.Run("With unlink of a stranger", func(t *testing.T) {
		ctx := context.TODO()
		first := New(newExchanger(), testOptions()...)
		second := New(newExchanger(), testOptions()...)
		child := New(newExchanger(), testOptions()...)
		stranger := New(newExchanger(), testOptions()...)
		for _, pid := range []*PID{first, second, child, stranger} {
			require.NoError(t, pid.Start(ctx))
		}
		defer func() { _ = first.Stop(ctx); _ = second.Stop(ctx); _ = child.Stop(ctx); _ = stranger.Stop(ctx) }()

		require.NoError(t, first.Link(child))
		assert.ErrorIs(t, first.Unlink(stranger), gerrors.ErrNotLinked)
		assert.ErrorIs(t, second.Unlink(child), gerrors.ErrNotLinked)
		assert.ErrorIs(t, first.Unlink(nil), gerrors.ErrNotLinked)

		assert.Equal(t, 1, first.LinksCount())
		assert.True(t, first.Equals(child.Supervisor()))
	})
	t.Run("With self link", func(t *testing.T) {
		ctx := context.TODO()
		pid := New(newExchanger(), testOptions()...)
		require.NoError(t, pid.Start(ctx))
		defer func() { _ = pid.Stop(ctx) }()
		assert.Error(t, pid.Link(pid))
		assert.ErrorIs(t, pid.Link(nil), gerrors.ErrActorNotFound)
	})
	t.Run("With StartLink, Spawn and SpawnLink", func(t *testing.T) {
		ctx := context.TODO()
		parent := New(newExchanger(), testOptions()...)
		require.NoError(t, parent.Start(ctx))
		defer func() { _ = parent.Stop(ctx) }()

		child := New(newExchanger(), testOptions()...)
		require.NoError(t, parent.StartLink(ctx, child))
		assert.True(t, child.IsRunning())
		assert.True(t, parent.Equals(child.Supervisor()))

		spawned, err := parent.Spawn(ctx, newExchanger())
		require.NoError(t, err)
		assert.True(t, spawned.IsRunning())
		assert.Nil(t, spawned.Supervisor())
		assert.Same(t, parent.Dispatcher(), spawned.Dispatcher())

		linked, err := parent.SpawnLink(ctx, newExchanger())
		require.NoError(t, err)
		assert.True(t, parent.Equals(linked.Supervisor()))
		assert.Equal(t, 2, parent.LinksCount())

		_, err = parent.SpawnLink(ctx, failingStart{})
		assert.Error(t, err)
		assert.Equal(t, 2, parent.LinksCount())

		for _, pid := range []*PID{child, spawned, linked} {
			require.NoError(t, pid.Stop(ctx))
		}
	})
}

func TestTrapExit(t *testing.T) {
	t.Run("With OneForOne restarting the failed actor only", func(t *testing.T) {
		ctx := context.TODO()
		parent := newSupervisor(t, supervisor.OneForOne)

		failing, healthy := newWorker(), newWorker()
		failingPID, err := parent.SpawnLink(ctx, failing, permanent())
		require.NoError(t, err)
		healthyPID, err := parent.SpawnLink(ctx, healthy, permanent())
		require.NoError(t, err)

		require.NoError(t, failingPID.Tell(ctx, &testFail{reason: "crash"}))

		require.Eventually(t, func() bool { return failing.postRestarts.Load() == 1 }, time.Second, receivingDelay)
		pause(50 * time.Millisecond)
		assert.EqualValues(t, 1, failing.preRestarts.Load())
		assert.EqualValues(t, 1, failing.postRestarts.Load())
		assert.Zero(t, healthy.preRestarts.Load())
		assert.True(t, failingPID.IsRunning())
		assert.EqualValues(t, 1, failingPID.Metric().RestartCount())
		assert.EqualValues(t, 1, failingPID.Metric().FailureCount())

		require.NoError(t, failingPID.Stop(ctx))
		require.NoError(t, healthyPID.Stop(ctx))
	})
	t.Run("With one Exit naming the failed actor and its cause", func(t *testing.T) {
		ctx := context.TODO()
		recorder := newExitRecorder()
		parent := New(newExchanger(), testOptions(
			WithDispatcher(recorder),
			WithTrapExit(),
			WithFaultHandler(supervisor.NewFaultHandler(supervisor.OneForOne)),
		)...)
		require.NoError(t, parent.Start(ctx))
		defer func() { _ = parent.Stop(ctx); _ = recorder.Stop(ctx) }()

		failing := newWorker()
		failingPID, err := parent.SpawnLink(ctx, failing, permanent())
		require.NoError(t, err)
		defer func() { _ = failingPID.Stop(ctx) }()

		require.NoError(t, failingPID.Tell(ctx, &testFail{reason: "crash"}))
		require.Eventually(t, func() bool { return failing.postRestarts.Load() == 1 }, time.Second, receivingDelay)
		pause(50 * time.Millisecond)

		exits := recorder.recorded()
		require.Len(t, exits, 1)
		assert.Same(t, failingPID, exits[0].Dead)
		assert.EqualError(t, exits[0].Cause, "crash")
	})
	t.Run("With AllForOne restarting every link", func(t *testing.T) {
		ctx := context.TODO()
		parent := newSupervisor(t, supervisor.AllForOne)

		first, second := newWorker(), newWorker()
		firstPID, err := parent.SpawnLink(ctx, first, permanent())
		require.NoError(t, err)
		secondPID, err := parent.SpawnLink(ctx, second, permanent())
		require.NoError(t, err)

		require.NoError(t, firstPID.Tell(ctx, &testFail{reason: "crash"}))

		require.Eventually(t, func() bool {
			return first.postRestarts.Load() == 1 && second.postRestarts.Load() == 1
		}, time.Second, receivingDelay)
		assert.True(t, firstPID.IsRunning())
		assert.True(t, secondPID.IsRunning())

		require.NoError(t, firstPID.Stop(ctx))
		require.NoError(t, secondPID.Stop(ctx))
	})
	t.Run("With failure forwarded by a supervisor that does not trap exits", func(t *testing.T) {
		ctx := context.TODO()
		top := newSupervisor(t, supervisor.OneForOne)

		middle, err := top.SpawnLink(ctx, newExchanger())
		require.NoError(t, err)
		leaf := newWorker()
		leafPID, err := middle.SpawnLink(ctx, leaf, permanent())
		require.NoError(t, err)

		require.NoError(t, leafPID.Tell(ctx, &testFail{reason: "crash"}))
		require.Eventually(t, func() bool { return leaf.postRestarts.Load() == 1 }, time.Second, receivingDelay)
		assert.Zero(t, middle.Metric().FailureCount())

		require.NoError(t, leafPID.Stop(ctx))
		require.NoError(t, middle.Stop(ctx))
	})
	t.Run("With trap exit and no fault handler", func(t *testing.T) {
		ctx := context.TODO()
		parent := New(newExchanger(), testOptions(WithTrapExit())...)
		require.NoError(t, parent.Start(ctx))
		defer func() { _ = parent.Stop(ctx) }()

		child, err := parent.SpawnLink(ctx, newWorker(), permanent())
		require.NoError(t, err)
		defer func() { _ = child.Stop(ctx) }()

		require.NoError(t, child.Tell(ctx, &testFail{reason: "crash"}))
		require.Eventually(t, func() bool { return parent.Metric().FailureCount() == 1 }, time.Second, receivingDelay)
		assert.True(t, parent.IsRunning())
	})
	t.Run("With link without lifecycle", func(t *testing.T) {
		ctx := context.TODO()
		parent := newSupervisor(t, supervisor.OneForOne)

		child, err := parent.SpawnLink(ctx, newWorker())
		require.NoError(t, err)
		defer func() { _ = child.Stop(ctx) }()

		require.NoError(t, child.Tell(ctx, &testFail{reason: "crash"}))
		require.Eventually(t, func() bool { return parent.Metric().FailureCount() == 1 }, time.Second, receivingDelay)
		assert.Zero(t, child.Metric().RestartCount())
	})
	t.Run("With restart budget exhausted", func(t *testing.T) {
		ctx := context.TODO()
		parent := newSupervisor(t, supervisor.OneForOne, supervisor.WithRetry(1, time.Minute))

		actor := newWorker()
		child, err := parent.SpawnLink(ctx, actor, permanent())
		require.NoError(t, err)

		require.NoError(t, child.Tell(ctx, &testFail{reason: "first"}))
		require.Eventually(t, func() bool { return actor.postRestarts.Load() == 1 }, time.Second, receivingDelay)

		require.NoError(t, child.Tell(ctx, &testFail{reason: "second"}))
		require.Eventually(t, func() bool { return !child.IsRunning() }, time.Second, receivingDelay)
		assert.True(t, actor.stopped.Load())
		assert.EqualValues(t, 1, actor.postRestarts.Load())
	})
	t.Run("With failure and no supervisor", func(t *testing.T) {
		ctx := context.TODO()
		pid := New(newWorker(), testOptions()...)
		require.NoError(t, pid.Start(ctx))
		defer func() { _ = pid.Stop(ctx) }()

		require.NoError(t, pid.Tell(ctx, &testFail{reason: "crash"}))
		require.Eventually(t, func() bool { return pid.Metric().FailureCount() == 1 }, time.Second, receivingDelay)
		assert.True(t, pid.IsRunning())
	})
}

func TestRestart(t *testing.T) {
	t.Run("With permanent scope", func(t *testing.T) {
		ctx := context.TODO()
		actor := newWorker()
		pid := New(actor, testOptions(permanent())...)
		require.NoError(t, pid.Start(ctx))
		defer func() { _ = pid.Stop(ctx) }()

		require.NoError(t, pid.Restart(ctx, errors.New("reason")))
		require.NoError(t, pid.Restart(ctx, errors.New("reason")))
		require.Eventually(t, func() bool { return actor.postRestarts.Load() == 2 }, time.Second, receivingDelay)

		assert.Equal(t, "pre", <-actor.order)
		assert.Equal(t, "post", <-actor.order)
		assert.Equal(t, "pre", <-actor.order)
		assert.Equal(t, "post", <-actor.order)
		assert.True(t, pid.IsRunning())
		assert.EqualValues(t, 2, pid.Metric().RestartCount())
	})

	for _, scope := range []supervisor.Scope{supervisor.Temporary, supervisor.Transient} {
		t.Run("With "+scope.String()+" scope", func(t *testing.T) {
			ctx := context.TODO()
			actor := newWorker()
			pid := New(actor, testOptions(WithLifeCycle(supervisor.NewLifeCycle(scope)))...)
			require.NoError(t, pid.Start(ctx))
			defer func() { _ = pid.Stop(ctx) }()

			require.NoError(t, pid.Restart(ctx, errors.New("reason")))
			// a request queued behind the restart proves it was handled
			_, ok, err := pid.Ask(ctx, new(testPing), time.Second)
			require.NoError(t, err)
			require.True(t, ok)

			assert.Zero(t, actor.preRestarts.Load())
			assert.Zero(t, actor.postRestarts.Load())
			assert.True(t, pid.IsRunning())
		})
	}

	t.Run("With no lifecycle", func(t *testing.T) {
		ctx := context.TODO()
		pid := New(newWorker(), testOptions()...)
		require.NoError(t, pid.Start(ctx))
		defer func() { _ = pid.Stop(ctx) }()

		require.NoError(t, pid.Restart(ctx, errors.New("reason")))
		require.Eventually(t, func() bool { return pid.Metric().FailureCount() == 1 }, time.Second, receivingDelay)
		assert.True(t, pid.IsRunning())
	})
}

func TestRemoteActor(t *testing.T) {
	t.Run("With forwarded messages", func(t *testing.T) {
		ctx := context.TODO()
		transport := newFakeTransport()
		transport.reply = "pong"

		parent := New(newExchanger(), testOptions(WithTransport(transport))...)
		require.NoError(t, parent.Start(ctx))
		defer func() { _ = parent.Stop(ctx) }()

		address := remote.NewAddress("node1", "counter")
		proxy, err := parent.SpawnLinkRemote(ctx, address)
		require.NoError(t, err)
		assert.True(t, proxy.IsRemote())
		assert.True(t, address.Equals(proxy.RemoteAddress()))

		require.NoError(t, proxy.Tell(ctx, "ping"))
		reply, ok, err := proxy.Ask(ctx, "ping", time.Second)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "pong", reply)

		requests := transport.sent()
		require.Len(t, requests, 2)
		assert.True(t, requests[0].OneWay)
		assert.False(t, requests[1].OneWay)
		assert.Equal(t, time.Second, requests[1].Timeout)
		assert.Equal(t, "counter", requests[1].Target)
		// the supervisor is registered before forwarding
		assert.Equal(t, "remote-"+parent.ID(), requests[0].SupervisorID)

		assert.Error(t, proxy.Restart(ctx, nil))
		require.NoError(t, proxy.Stop(ctx))
	})
	t.Run("With transport failure", func(t *testing.T) {
		ctx := context.TODO()
		transport := newFakeTransport()
		transport.sendErr = errors.New("connection refused")

		proxy := NewRemote(remote.NewAddress("node1", "counter"), transport, testOptions()...)
		require.NoError(t, proxy.Start(ctx))
		defer func() { _ = proxy.Stop(ctx) }()

		assert.ErrorIs(t, proxy.Tell(ctx, "ping"), gerrors.ErrRemoteSendFailure)
	})
	t.Run("With no transport", func(t *testing.T) {
		proxy := New(nil, testOptions(WithRemoteAddress(remote.NewAddress("node1", "counter")))...)
		assert.ErrorIs(t, proxy.Start(context.TODO()), gerrors.ErrRemotingDisabled)
	})
	t.Run("With StartLinkRemote", func(t *testing.T) {
		ctx := context.TODO()
		transport := newFakeTransport()
		parent := New(newExchanger(), testOptions(WithTransport(transport))...)
		require.NoError(t, parent.Start(ctx))
		defer func() { _ = parent.Stop(ctx) }()

		other := New(newExchanger(), testOptions()...)
		require.NoError(t, parent.StartLinkRemote(ctx, other, remote.NewAddress("node2", "worker")))
		assert.True(t, other.IsRemote())
		assert.True(t, parent.IsLinked(other))
		require.NoError(t, other.Tell(ctx, "hello"))
		assert.Len(t, transport.sent(), 1)
		require.NoError(t, other.Stop(ctx))
	})
	t.Run("With remote exit forwarded to the supervisor", func(t *testing.T) {
		ctx := context.TODO()
		transport := newFakeTransport()
		top := newSupervisor(t, supervisor.OneForOne)
		parent := New(newExchanger(), testOptions(WithTransport(transport))...)
		require.NoError(t, top.StartLink(ctx, parent))
		defer func() { _ = parent.Stop(ctx) }()

		address := remote.NewAddress("node1", "counter")
		proxy, err := parent.SpawnLinkRemote(ctx, address)
		require.NoError(t, err)
		defer func() { _ = proxy.Stop(ctx) }()

		require.NoError(t, parent.RemoteExit(address, errors.New("remote crash")))
		// the parent does not trap exits: the failure reaches top which cannot
		// restart a remote actor and keeps running
		pause(50 * time.Millisecond)
		assert.True(t, top.IsRunning())
		assert.Zero(t, top.Metric().FailureCount())
	})
}
