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
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	gerrors "github.com/tochemey/actorx/errors"
	"github.com/tochemey/actorx/remote"
	"github.com/tochemey/actorx/supervisor"
)

var _ remote.Supervisor = (*PID)(nil)

// Supervisor returns the running actor supervising this actor, or nil
func (pid *PID) Supervisor() *PID {
	id := pid.supervisorID.Load()
	if id == "" {
		return nil
	}
	sup, _ := liveActors.Get(id)
	return sup
}

// Links returns the running actors supervised by this actor
func (pid *PID) Links() []*PID {
	ids := pid.links.ToSlice()
	links := make([]*PID, 0, len(ids))
	for _, id := range ids {
		if link, ok := liveActors.Get(id); ok {
			links = append(links, link)
		}
	}
	return links
}

// LinksCount returns the number of linked actors
func (pid *PID) LinksCount() int {
	return pid.links.Cardinality()
}

// IsLinked returns true when other is linked to this actor
func (pid *PID) IsLinked(other *PID) bool {
	return other != nil && pid.links.Contains(other.id)
}

// Link makes this actor the supervisor of other. This actor must be running
// and other must not be supervised yet.
func (pid *PID) Link(other *PID) error {
	if !pid.running.Load() {
		return gerrors.ErrNotStarted
	}
	if other == nil {
		return gerrors.ErrActorNotFound
	}
	if other.id == pid.id {
		return gerrors.NewInternalError(fmt.Errorf("actor %s cannot supervise itself", pid.id))
	}
	if !other.supervisorID.CompareAndSwap("", pid.id) {
		return gerrors.ErrAlreadySupervised
	}
	pid.links.Add(other.id)
	pid.logger.Debugf("actor %s linked to %s", other.id, pid.id)
	return nil
}

// Unlink removes the supervision relation between this actor and other
func (pid *PID) Unlink(other *PID) error {
	if other == nil || !pid.links.Contains(other.id) {
		return gerrors.ErrNotLinked
	}
	pid.links.Remove(other.id)
	other.supervisorID.CompareAndSwap(pid.id, "")
	if pid.budget != nil {
		pid.budget.Forget(other.id)
	}
	pid.logger.Debugf("actor %s unlinked from %s", other.id, pid.id)
	return nil
}

// StartLink starts other and links it to this actor
func (pid *PID) StartLink(ctx context.Context, other *PID) error {
	if !pid.running.Load() {
		return gerrors.ErrNotStarted
	}
	if err := other.Start(ctx); err != nil {
		return err
	}
	return pid.Link(other)
}

// StartLinkRemote places other at the given remote address, starts it and
// links it to this actor. other inherits this actor's transport when it has none.
func (pid *PID) StartLinkRemote(ctx context.Context, other *PID, address *remote.Address) error {
	if !pid.running.Load() {
		return gerrors.ErrNotStarted
	}

	other.stopMu.Lock()
	if other.running.Load() {
		other.stopMu.Unlock()
		return gerrors.NewInternalError(fmt.Errorf("actor %s is already running locally", other.id))
	}
	other.remoteAddress = address
	if other.transport == nil {
		other.transport = pid.transport
	}
	other.stopMu.Unlock()

	return pid.StartLink(ctx, other)
}

// Spawn creates and starts a new actor sharing this actor's dispatcher
func (pid *PID) Spawn(ctx context.Context, actor Actor, opts ...Option) (*PID, error) {
	if !pid.running.Load() {
		return nil, gerrors.ErrNotStarted
	}
	child := New(actor, append(pid.inherited(), opts...)...)
	if err := child.Start(ctx); err != nil {
		return nil, err
	}
	return child, nil
}

// SpawnLink spawns a new actor and links it to this actor
func (pid *PID) SpawnLink(ctx context.Context, actor Actor, opts ...Option) (*PID, error) {
	child, err := pid.Spawn(ctx, actor, opts...)
	if err != nil {
		return nil, err
	}
	if err := pid.Link(child); err != nil {
		_ = child.Stop(ctx)
		return nil, err
	}
	return child, nil
}

// SpawnRemote creates and starts a handle on the actor at the given remote address
func (pid *PID) SpawnRemote(ctx context.Context, address *remote.Address, opts ...Option) (*PID, error) {
	if !pid.running.Load() {
		return nil, gerrors.ErrNotStarted
	}
	opts = append(pid.inherited(), opts...)
	child := New(nil, append(opts, WithRemoteAddress(address))...)
	if err := child.Start(ctx); err != nil {
		return nil, err
	}
	return child, nil
}

// SpawnLinkRemote spawns a handle on a remote actor and links it to this actor
func (pid *PID) SpawnLinkRemote(ctx context.Context, address *remote.Address, opts ...Option) (*PID, error) {
	child, err := pid.SpawnRemote(ctx, address, opts...)
	if err != nil {
		return nil, err
	}
	if err := pid.Link(child); err != nil {
		_ = child.Stop(ctx)
		return nil, err
	}
	return child, nil
}

// RemoteExit is called by the transport when an actor this actor supervises
// failed on a remote node. The failure is handled as an Exit control message.
func (pid *PID) RemoteExit(from *remote.Address, cause error) error {
	return pid.tellSystem(context.Background(), &Exit{
		Dead:  pid.linkAt(from),
		From:  from,
		Cause: cause,
	})
}

// inherited returns the options spawned actors inherit from this actor
func (pid *PID) inherited() []Option {
	opts := []Option{WithLogger(pid.logger)}
	if pid.dispatcher != nil {
		opts = append(opts, WithDispatcher(pid.dispatcher))
	}
	if pid.transport != nil {
		opts = append(opts, WithTransport(pid.transport))
	}
	if pid.meterProvider != nil {
		opts = append(opts, WithMeterProvider(pid.meterProvider))
	}
	return opts
}

// linkAt returns the linked remote actor located at address
func (pid *PID) linkAt(address *remote.Address) *PID {
	if address == nil {
		return nil
	}
	for _, link := range pid.Links() {
		if link.remoteAddress.Equals(address) {
			return link
		}
	}
	return nil
}

// handleExit runs the trap-exit routine for a failed linked actor
func (pid *PID) handleExit(ctx context.Context, msg *Exit) error {
	if !pid.trapExit {
		sup := pid.Supervisor()
		if sup == nil {
			pid.logger.Warnf("actor %s has no supervisor to forward the failure of %s to: %v", pid.id, exitSource(msg), msg.Cause)
			return nil
		}
		return sup.tellSystem(ctx, msg)
	}

	if pid.faultHandler == nil {
		return gerrors.ErrNoFaultHandler
	}

	switch pid.faultHandler.Strategy() {
	case supervisor.AllForOne:
		var eg errgroup.Group
		for _, link := range pid.Links() {
			eg.Go(func() error {
				return pid.restartLink(ctx, link, msg.Cause)
			})
		}
		return eg.Wait()
	default:
		if msg.Dead == nil {
			pid.logger.Warnf("actor %s cannot restart %s: %v", pid.id, exitSource(msg), msg.Cause)
			return nil
		}
		return pid.restartLink(ctx, msg.Dead, msg.Cause)
	}
}

// restartLink asks target to restart, or to stop once its restart budget is exhausted
func (pid *PID) restartLink(ctx context.Context, target *PID, cause error) error {
	if target.remoteAddress != nil {
		pid.logger.Warnf("actor %s cannot restart remote actor %s", pid.id, target.remoteAddress)
		return nil
	}
	if target.lifeCycle == nil {
		return gerrors.ErrNoLifeCycle
	}

	if pid.budget != nil && !pid.budget.Allow(target.id, time.Now()) {
		pid.logger.Warnf("actor %s exhausted its restart budget, stopping it", target.id)
		return target.tellSystem(ctx, &Stop{Reason: cause})
	}
	return target.tellSystem(ctx, &Restart{Reason: cause})
}

// restart runs the restart routine according to the actor's lifecycle scope
func (pid *PID) restart(ctx context.Context, reason error) error {
	if pid.lifeCycle == nil {
		return gerrors.ErrNoLifeCycle
	}

	switch pid.lifeCycle.Scope() {
	case supervisor.Permanent:
		pid.logger.Infof("restarting actor %s: %v", pid.id, reason)
		if restarter, ok := pid.actor.(Restarter); ok {
			if err := restarter.PreRestart(ctx, reason, pid.lastConfig); err != nil {
				return err
			}
			if err := restarter.PostRestart(ctx, reason, pid.lastConfig); err != nil {
				return err
			}
		}
		pid.restartCount.Inc()
	case supervisor.Temporary:
		// temporaries that exited normally could be restarted; abnormal exits never are
		pid.logger.Debugf("actor %s is temporary, skipping restart", pid.id)
	case supervisor.Transient:
		pid.logger.Debugf("actor %s is transient, skipping restart", pid.id)
	}
	return nil
}

func exitSource(msg *Exit) string {
	switch {
	case msg.Dead != nil:
		return msg.Dead.ID()
	case msg.From != nil:
		return msg.From.String()
	default:
		return "unknown actor"
	}
}
