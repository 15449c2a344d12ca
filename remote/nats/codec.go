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
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"

	gerrors "github.com/tochemey/actorx/errors"
)

// headers carried by every message exchanged between nodes
const (
	headerRequestID  = "Actorx-Request-Id"
	headerOneWay     = "Actorx-One-Way"
	headerSupervisor = "Actorx-Supervisor"
	headerTimeout    = "Actorx-Timeout"
	headerError      = "Actorx-Error"
	headerErrorCode  = "Actorx-Error-Code"
	headerFromNode   = "Actorx-From-Node"
	headerFromName   = "Actorx-From-Name"
)

const (
	errorCodeNotFound = "not_found"
	// status header set by the NATS server when a request has no responder
	statusHeader      = "Status"
	noRespondersCode  = "503"
)

// actorSubject is the subject the actor name hosted by node listens on
func actorSubject(prefix, node, name string) string {
	return fmt.Sprintf("%s.%s.%s", prefix, node, name)
}

// nodeSubject matches every actor hosted by node
func nodeSubject(prefix, node string) string {
	return fmt.Sprintf("%s.%s.*", prefix, node)
}

// supervisorSubject is the subject exit notifications for id are published on
func supervisorSubject(prefix, id string) string {
	return fmt.Sprintf("%s.supervisor.%s", prefix, id)
}

// subjectName returns the last token of subject
func subjectName(subject string) string {
	return subject[strings.LastIndexByte(subject, '.')+1:]
}

// encode packs message into an anypb.Any. Escaped payloads are already
// encoded and sent as they are.
func encode(message any, escaped bool) ([]byte, error) {
	if escaped {
		bytea, ok := message.([]byte)
		if !ok {
			return nil, fmt.Errorf("escaped payload must be bytes, got %T", message)
		}
		return bytea, nil
	}

	msg, ok := message.(proto.Message)
	if !ok {
		return nil, fmt.Errorf("%T is not a protocol buffers message", message)
	}
	packed, err := anypb.New(msg)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(packed)
}

// decode unpacks a message encoded by encode
func decode(bytea []byte) (proto.Message, error) {
	packed := new(anypb.Any)
	if err := proto.Unmarshal(bytea, packed); err != nil {
		return nil, err
	}
	return packed.UnmarshalNew()
}

// setError marks msg as carrying a failure
func setError(msg *nats.Msg, err error) {
	msg.Header.Set(headerError, err.Error())
	if errors.Is(err, gerrors.ErrActorNotFound) {
		msg.Header.Set(headerErrorCode, errorCodeNotFound)
	}
}

// readError returns the failure carried by msg, if any
func readError(msg *nats.Msg) error {
	text := msg.Header.Get(headerError)
	if text == "" {
		return nil
	}
	if msg.Header.Get(headerErrorCode) == errorCodeNotFound {
		return fmt.Errorf("%s: %w", text, gerrors.ErrActorNotFound)
	}
	return errors.New(text)
}

// readTimeout returns the timeout carried by msg or fallback
func readTimeout(msg *nats.Msg, fallback time.Duration) time.Duration {
	if timeout, err := time.ParseDuration(msg.Header.Get(headerTimeout)); err == nil && timeout > 0 {
		return timeout
	}
	return fallback
}

// isNoResponders reports whether msg is the status message sent back by the
// NATS server when nobody listens on the request subject
func isNoResponders(msg *nats.Msg) bool {
	return len(msg.Data) == 0 && msg.Header.Get(statusHeader) == noRespondersCode
}
