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

// Package remote defines the contract the actor runtime consumes from a
// remote transport. The runtime never interprets bytes on the wire: it only
// forwards requests to remote actors and registers supervisors that remote
// failures must be routed back to.
package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/tochemey/actorx/future"
	"github.com/tochemey/actorx/internal/validation"
)

// Address locates a remote actor.
type Address struct {
	// Node identifies the process hosting the actor
	Node string
	// Name is the process-local identifier of the actor
	Name string
}

// NewAddress creates an instance of Address
func NewAddress(node, name string) *Address {
	return &Address{Node: node, Name: name}
}

// String returns the textual form of the address
func (a *Address) String() string {
	if a == nil {
		return ""
	}
	return fmt.Sprintf("%s/%s", a.Node, a.Name)
}

// Equals is used to compare two addresses
func (a *Address) Equals(other *Address) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.Node == other.Node && a.Name == other.Name
}

// Validate checks that the address can be used to route a request
func (a *Address) Validate() error {
	if a == nil {
		return fmt.Errorf("remote address is not defined")
	}
	return validation.New(validation.FailFast()).
		AddValidator(validation.NewEmptyStringValidator("node", a.Node)).
		AddValidator(validation.NewEmptyStringValidator("name", a.Name)).
		AddValidator(validation.NewSubjectTokenValidator("node", a.Node)).
		AddValidator(validation.NewSubjectTokenValidator("name", a.Name)).
		Validate()
}

// Request is what the runtime hands over to a Transport
type Request struct {
	// ID uniquely identifies the request
	ID string
	// OneWay is set for fire-and-forget sends
	OneWay bool
	// Message is the payload
	Message any
	// Target is the name of the receiving actor on its node
	Target string
	// Timeout bounds the wait of a two-way request
	Timeout time.Duration
	// SupervisorID is the remote-visible id of the sender's supervisor.
	// It is empty when the sender has no supervisor.
	SupervisorID string
	// IsEscaped is set when the payload is already encoded by the caller
	IsEscaped bool
}

// Supervisor is a local actor that remote failures are reported to
type Supervisor interface {
	// ID returns the local identifier of the supervisor
	ID() string
	// RemoteExit notifies the supervisor that the actor at from failed with cause
	RemoteExit(from *Address, cause error) error
}

// Transport is the remote transport collaborator
type Transport interface {
	// Send forwards the request to the actor at to. One-way requests
	// return a nil future.
	Send(ctx context.Context, to *Address, request *Request) (*future.Future, error)
	// RegisterSupervisor exposes the given supervisor to remote nodes and
	// returns its remote-visible id
	RegisterSupervisor(ctx context.Context, supervisor Supervisor) (string, error)
}
