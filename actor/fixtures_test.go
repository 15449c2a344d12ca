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
	"fmt"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/tochemey/actorx/future"
	"github.com/tochemey/actorx/log"
	"github.com/tochemey/actorx/remote"
	"github.com/tochemey/actorx/stm"
)

const receivingDelay = 10 * time.Millisecond

type testPing struct{}

type testPong struct{}

type testFail struct{ reason string }

type testPanic struct{}

type testWait struct{ duration time.Duration }

type testTellReply struct{}

type testSequence struct {
	sender int
	seq    int
}

// exchanger replies to requests and records what it handled
type exchanger struct {
	mu        sync.Mutex
	received  []any
	replyErrs chan error
}

var _ Actor = (*exchanger)(nil)

func newExchanger() *exchanger {
	return &exchanger{replyErrs: make(chan error, 1)}
}

func (x *exchanger) PreStart(context.Context) error {
	return nil
}

func (x *exchanger) Receive(ctx *ReceiveContext) {
	x.mu.Lock()
	x.received = append(x.received, ctx.Message())
	x.mu.Unlock()

	switch msg := ctx.Message().(type) {
	case *testPing:
		_ = ctx.Reply(new(testPong))
	case *testFail:
		ctx.Err(errors.New(msg.reason))
	case *testPanic:
		panic("boom")
	case *testWait:
		time.Sleep(msg.duration)
	case *testTellReply:
		x.replyErrs <- ctx.Reply(new(testPong))
	default:
		ctx.Unhandled()
	}
}

func (x *exchanger) PostStop(context.Context) error {
	return nil
}

func (x *exchanger) count() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.received)
}

// worker is a restartable actor that counts its restart hooks
type worker struct {
	initConfig   chan any
	preRestarts  *atomic.Int32
	postRestarts *atomic.Int32
	order        chan string
	stopped      *atomic.Bool
}

var (
	_ Actor       = (*worker)(nil)
	_ Initializer = (*worker)(nil)
	_ Restarter   = (*worker)(nil)
)

func newWorker() *worker {
	return &worker{
		initConfig:   make(chan any, 1),
		preRestarts:  atomic.NewInt32(0),
		postRestarts: atomic.NewInt32(0),
		order:        make(chan string, 32),
		stopped:      atomic.NewBool(false),
	}
}

func (w *worker) PreStart(context.Context) error {
	return nil
}

func (w *worker) Receive(ctx *ReceiveContext) {
	switch msg := ctx.Message().(type) {
	case *testFail:
		ctx.Err(errors.New(msg.reason))
	case *testPing:
		_ = ctx.Reply(new(testPong))
	default:
		ctx.Unhandled()
	}
}

func (w *worker) PostStop(context.Context) error {
	w.stopped.Store(true)
	return nil
}

func (w *worker) Init(_ context.Context, config any) error {
	w.initConfig <- config
	return nil
}

func (w *worker) PreRestart(_ context.Context, _ error, _ any) error {
	w.preRestarts.Inc()
	w.order <- "pre"
	return nil
}

func (w *worker) PostRestart(_ context.Context, _ error, _ any) error {
	w.postRestarts.Inc()
	w.order <- "post"
	return nil
}

// sequencer checks that handler invocations never overlap and that
// messages of one sender arrive in order
type sequencer struct {
	inFlight *atomic.Int32
	overlaps *atomic.Int32
	handled  *atomic.Int64
	mu       sync.Mutex
	last     map[int]int
	outOfSeq int
}

func newSequencer() *sequencer {
	return &sequencer{
		inFlight: atomic.NewInt32(0),
		overlaps: atomic.NewInt32(0),
		handled:  atomic.NewInt64(0),
		last:     make(map[int]int),
	}
}

func (s *sequencer) PreStart(context.Context) error {
	return nil
}

func (s *sequencer) Receive(ctx *ReceiveContext) {
	if s.inFlight.Inc() > 1 {
		s.overlaps.Inc()
	}
	defer s.inFlight.Dec()

	msg, ok := ctx.Message().(*testSequence)
	if !ok {
		ctx.Unhandled()
		return
	}

	s.mu.Lock()
	if last, seen := s.last[msg.sender]; seen && msg.seq != last+1 {
		s.outOfSeq++
	}
	s.last[msg.sender] = msg.seq
	s.mu.Unlock()

	time.Sleep(time.Microsecond)
	s.handled.Inc()
}

func (s *sequencer) PostStop(context.Context) error {
	return nil
}

// failingStart refuses to start
type failingStart struct{}

func (failingStart) PreStart(context.Context) error { return errors.New("cannot start") }
func (failingStart) Receive(*ReceiveContext)        {}
func (failingStart) PostStop(context.Context) error { return nil }

// fakeTx is an in-memory transaction
type fakeTx struct {
	id         string
	aborted    *atomic.Bool
	preCommits *atomic.Int32
	discards   *atomic.Int32
}

func newFakeTx(id string) *fakeTx {
	return &fakeTx{
		id:         id,
		aborted:    atomic.NewBool(false),
		preCommits: atomic.NewInt32(0),
		discards:   atomic.NewInt32(0),
	}
}

func (t *fakeTx) ID() string       { return t.id }
func (t *fakeTx) IsAborted() bool  { return t.aborted.Load() }
func (t *fakeTx) PreCommit() error { t.preCommits.Inc(); return nil }
func (t *fakeTx) Discard()         { t.discards.Inc() }

// fakeManager reports collisions for the first collisions calls to TryCommit
type fakeManager struct {
	collisions *atomic.Int32
	tryCommits *atomic.Int32
	starts     *atomic.Int32
	joins      *atomic.Int32
	rollbacks  *atomic.Int32
	mu         sync.Mutex
	started    []*fakeTx
}

var _ stm.Manager = (*fakeManager)(nil)

func newFakeManager(collisions int32) *fakeManager {
	return &fakeManager{
		collisions: atomic.NewInt32(collisions),
		tryCommits: atomic.NewInt32(0),
		starts:     atomic.NewInt32(0),
		joins:      atomic.NewInt32(0),
		rollbacks:  atomic.NewInt32(0),
	}
}

func (m *fakeManager) TryCommit(context.Context) bool {
	m.tryCommits.Inc()
	return m.collisions.Dec() < 0
}

func (m *fakeManager) Start(context.Context) (stm.Transaction, error) {
	n := m.starts.Inc()
	tx := newFakeTx(fmt.Sprintf("tx-%d", n))
	m.mu.Lock()
	m.started = append(m.started, tx)
	m.mu.Unlock()
	return tx, nil
}

func (m *fakeManager) Join(context.Context, stm.Transaction) error {
	m.joins.Inc()
	return nil
}

func (m *fakeManager) Rollback(_ context.Context, tx stm.Transaction) error {
	m.rollbacks.Inc()
	if fake, ok := tx.(*fakeTx); ok {
		fake.aborted.Store(true)
	}
	return nil
}

func (m *fakeManager) lastStarted() *fakeTx {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.started) == 0 {
		return nil
	}
	return m.started[len(m.started)-1]
}

// txRecorder records the transaction of every message it handles
type txRecorder struct {
	mu  sync.Mutex
	txs []stm.Transaction
}

func (r *txRecorder) PreStart(context.Context) error { return nil }
func (r *txRecorder) PostStop(context.Context) error { return nil }
func (r *txRecorder) Receive(ctx *ReceiveContext) {
	r.mu.Lock()
	r.txs = append(r.txs, ctx.Transaction())
	r.mu.Unlock()
	switch ctx.Message().(type) {
	case *testPing:
		_ = ctx.Reply(new(testPong))
	case *testFail:
		ctx.Err(errors.New("failed in transaction"))
	}
}

func (r *txRecorder) handled() []stm.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]stm.Transaction, len(r.txs))
	copy(out, r.txs)
	return out
}

// fakeTransport records the requests it is asked to forward
type fakeTransport struct {
	mu          sync.Mutex
	requests    []*remote.Request
	supervisors map[string]remote.Supervisor
	reply       any
	sendErr     error
}

var _ remote.Transport = (*fakeTransport)(nil)

func newFakeTransport() *fakeTransport {
	return &fakeTransport{supervisors: make(map[string]remote.Supervisor)}
}

func (f *fakeTransport) Send(_ context.Context, _ *remote.Address, request *remote.Request) (*future.Future, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.requests = append(f.requests, request)
	if request.OneWay {
		return nil, nil
	}
	completer := future.NewCompleter()
	completer.Success(f.reply)
	return completer.Future(), nil
}

func (f *fakeTransport) RegisterSupervisor(_ context.Context, supervisor remote.Supervisor) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := "remote-" + supervisor.ID()
	f.supervisors[id] = supervisor
	return id, nil
}

func (f *fakeTransport) sent() []*remote.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*remote.Request, len(f.requests))
	copy(out, f.requests)
	return out
}

func testOptions(opts ...Option) []Option {
	return append([]Option{WithLogger(log.DiscardLogger)}, opts...)
}

func pause(duration time.Duration) {
	time.Sleep(duration)
}

// exitRecorder wraps a dispatcher and keeps the Exit control messages it dispatches
type exitRecorder struct {
	Dispatcher
	mu    sync.Mutex
	exits []*Exit
}

func newExitRecorder() *exitRecorder {
	return &exitRecorder{Dispatcher: NewPoolDispatcher(WithNumShards(1))}
}

func (r *exitRecorder) Dispatch(env *Envelope) error {
	if exit, ok := env.Message().(*Exit); ok {
		r.mu.Lock()
		r.exits = append(r.exits, exit)
		r.mu.Unlock()
	}
	return r.Dispatcher.Dispatch(env)
}

func (r *exitRecorder) recorded() []*Exit {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Exit, len(r.exits))
	copy(out, r.exits)
	return out
}
