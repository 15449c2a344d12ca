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

package nats

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
	"go.uber.org/atomic"

	"github.com/tochemey/actorx/actor"
	gerrors "github.com/tochemey/actorx/errors"
	"github.com/tochemey/actorx/log"
	"github.com/tochemey/actorx/remote"
)

// Server exposes local actors to remote nodes
type Server struct {
	conn   *nats.Conn
	node   string
	config *config
	logger log.Logger

	mu           sync.Mutex
	actors       map[string]*actor.PID
	subscription *nats.Subscription
	started      *atomic.Bool
	inflight     sync.WaitGroup
}

// NewServer creates an instance of Server for the given node
func NewServer(conn *nats.Conn, node string, opts ...Option) *Server {
	cfg := newConfig(opts...)
	return &Server{
		conn:    conn,
		node:    node,
		config:  cfg,
		logger:  cfg.logger,
		actors:  make(map[string]*actor.PID),
		started: atomic.NewBool(false),
	}
}

// Node returns the node the server hosts actors for
func (s *Server) Node() string {
	return s.node
}

// Register exposes pid under name. Remote nodes reach it at the address (node, name).
func (s *Server) Register(name string, pid *actor.PID) error {
	if err := remote.NewAddress(s.node, name).Validate(); err != nil {
		return err
	}
	if pid == nil {
		return gerrors.NewErrActorNotFound(name)
	}
	s.mu.Lock()
	s.actors[name] = pid
	s.mu.Unlock()
	return nil
}

// Unregister stops exposing the actor registered under name
func (s *Server) Unregister(name string) {
	s.mu.Lock()
	delete(s.actors, name)
	s.mu.Unlock()
}

// Start subscribes to the requests addressed to the node
func (s *Server) Start(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started.Load() {
		return nil
	}
	if err := remote.NewAddress(s.node, "server").Validate(); err != nil {
		return err
	}

	subscription, err := s.conn.Subscribe(nodeSubject(s.config.prefix, s.node), s.handle)
	if err != nil {
		return err
	}
	if err := s.conn.Flush(); err != nil {
		_ = subscription.Unsubscribe()
		return err
	}

	s.subscription = subscription
	s.started.Store(true)
	s.logger.Infof("remote server for node %s listening on %s", s.node, subscription.Subject)
	return nil
}

// Stop unsubscribes and waits for the requests in flight
func (s *Server) Stop(context.Context) error {
	s.mu.Lock()
	if !s.started.CompareAndSwap(true, false) {
		s.mu.Unlock()
		return nil
	}
	subscription := s.subscription
	s.subscription = nil
	s.mu.Unlock()

	var err error
	if subscription.IsValid() {
		err = subscription.Drain()
	}
	s.inflight.Wait()
	s.logger.Infof("remote server for node %s stopped", s.node)
	return err
}

func (s *Server) lookup(name string) (*actor.PID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pid, ok := s.actors[name]
	return pid, ok
}

// handle forwards one request to the target actor. The message is enqueued
// before handle returns so that messages from one connection keep their order.
// A one-way message carries no reply future: its failure, whenever it
// happens, is published to the supervisor named in the request.
func (s *Server) handle(msg *nats.Msg) {
	name := subjectName(msg.Subject)
	from := remote.NewAddress(s.node, name)
	supervisorID := msg.Header.Get(headerSupervisor)
	oneWay := msg.Header.Get(headerOneWay) == "true"

	pid, ok := s.lookup(name)
	if !ok {
		s.fail(msg, from, supervisorID, gerrors.NewErrActorNotFound(from.String()))
		return
	}

	message, err := decode(msg.Data)
	if err != nil {
		s.fail(msg, from, supervisorID, fmt.Errorf("failed to decode request %s: %w", msg.Header.Get(headerRequestID), err))
		return
	}

	if oneWay {
		err := pid.TellWithFailure(context.Background(), message, func(cause error) {
			s.fail(msg, from, supervisorID, gerrors.UnwrapTransactionAware(cause))
		})
		if err != nil {
			s.fail(msg, from, supervisorID, err)
		}
		return
	}

	fut, err := pid.AskAsync(context.Background(), message)
	if err != nil {
		s.fail(msg, from, supervisorID, err)
		return
	}

	timeout := readTimeout(msg, s.config.requestTimeout)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		result, completed := fut.Await(timeout)
		if !completed {
			// no reply within the timeout, the requester sees the absence
			return
		}
		if failure := gerrors.UnwrapTransactionAware(result.Failure()); failure != nil {
			s.fail(msg, from, supervisorID, failure)
			return
		}
		if msg.Reply == "" {
			return
		}

		payload, err := encode(result.Success(), false)
		if err != nil {
			s.fail(msg, from, supervisorID, err)
			return
		}
		reply := nats.NewMsg(msg.Reply)
		reply.Data = payload
		if err := s.conn.PublishMsg(reply); err != nil {
			s.logger.Warnf("failed to reply to request %s: %v", msg.Header.Get(headerRequestID), err)
		}
	}()
}

// fail reports err to the requester, when waiting, and to the remote
// supervisor named in the request
func (s *Server) fail(msg *nats.Msg, from *remote.Address, supervisorID string, err error) {
	if msg.Reply != "" && msg.Header.Get(headerOneWay) != "true" {
		reply := nats.NewMsg(msg.Reply)
		setError(reply, err)
		if perr := s.conn.PublishMsg(reply); perr != nil {
			s.logger.Warnf("failed to reply to request %s: %v", msg.Header.Get(headerRequestID), perr)
		}
	}

	if supervisorID == "" {
		if !errors.Is(err, gerrors.ErrActorNotFound) {
			s.logger.Errorf("remote actor %s failed: %v", from, err)
		}
		return
	}

	exit := nats.NewMsg(supervisorSubject(s.config.prefix, supervisorID))
	exit.Header.Set(headerFromNode, from.Node)
	exit.Header.Set(headerFromName, from.Name)
	setError(exit, err)
	if perr := s.conn.PublishMsg(exit); perr != nil {
		s.logger.Warnf("failed to notify supervisor %s of the failure of %s: %v", supervisorID, from, perr)
	}
}
