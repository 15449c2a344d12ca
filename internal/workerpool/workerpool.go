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

// Package workerpool provides the goroutine pool backing the pool dispatcher.
// Workers are reused across tasks and exit after staying idle for a while.
package workerpool

import (
	"errors"
	"runtime"
	"sync"
	"time"

	"go.uber.org/atomic"
)

const (
	maxShards          = 128
	defaultIdleTimeout = time.Second
)

// ErrPoolNotStarted is returned when a task is submitted to a pool that is not running
var ErrPoolNotStarted = errors.New("worker pool is not started")

// WorkerPool runs submitted tasks on reusable goroutines
type WorkerPool struct {
	idleTimeout time.Duration
	numShards   int
	shards      []*shard
	next        *atomic.Uint32
	spawned     *atomic.Int64

	mu      sync.Mutex
	started *atomic.Bool
	stopped *atomic.Bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

type worker struct {
	tasks    chan func()
	lastUsed time.Time
}

type shard struct {
	mu   sync.Mutex
	idle []*worker
	// closed once the pool stops
	stopped bool
}

// New creates an instance of WorkerPool
func New(opts ...Option) *WorkerPool {
	pool := &WorkerPool{
		idleTimeout: defaultIdleTimeout,
		numShards:   runtime.GOMAXPROCS(0),
		next:        atomic.NewUint32(0),
		spawned:     atomic.NewInt64(0),
		started:     atomic.NewBool(false),
		stopped:     atomic.NewBool(false),
	}

	for _, opt := range opts {
		opt.Apply(pool)
	}

	if pool.numShards > maxShards {
		pool.numShards = maxShards
	}
	return pool
}

// Start starts the pool. Calling Start on a running pool is a no-op.
func (wp *WorkerPool) Start() {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if wp.started.Load() {
		return
	}

	wp.shards = make([]*shard, wp.numShards)
	for i := range wp.shards {
		wp.shards[i] = &shard{idle: make([]*worker, 0, 64)}
	}
	wp.stopCh = make(chan struct{})
	wp.stopped.Store(false)
	wp.started.Store(true)

	wp.wg.Add(1)
	go wp.reap()
}

// Stop stops the pool. Tasks already handed to a worker run to completion.
func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if !wp.started.Load() || wp.stopped.Load() {
		return
	}

	wp.stopped.Store(true)
	wp.started.Store(false)
	close(wp.stopCh)

	for _, s := range wp.shards {
		s.mu.Lock()
		s.stopped = true
		for _, w := range s.idle {
			close(w.tasks)
		}
		s.idle = nil
		s.mu.Unlock()
	}
	wp.wg.Wait()
}

// Submit hands the task over to an idle worker or spawns a new one
func (wp *WorkerPool) Submit(task func()) error {
	if !wp.started.Load() {
		return ErrPoolNotStarted
	}

	s := wp.shards[int(wp.next.Inc())%len(wp.shards)]
	s.mu.Lock()
	if n := len(s.idle); n > 0 {
		w := s.idle[n-1]
		s.idle[n-1] = nil
		s.idle = s.idle[:n-1]
		s.mu.Unlock()
		w.tasks <- task
		return nil
	}
	s.mu.Unlock()

	w := &worker{tasks: make(chan func(), 1)}
	w.tasks <- task
	wp.spawned.Inc()
	go wp.run(s, w)
	return nil
}

// SpawnedWorkers returns the number of worker goroutines currently alive
func (wp *WorkerPool) SpawnedWorkers() int {
	return int(wp.spawned.Load())
}

func (wp *WorkerPool) run(s *shard, w *worker) {
	defer wp.spawned.Dec()
	for task := range w.tasks {
		task()
		w.lastUsed = time.Now()

		s.mu.Lock()
		if s.stopped {
			s.mu.Unlock()
			return
		}
		s.idle = append(s.idle, w)
		s.mu.Unlock()
	}
}

// reap closes the workers that stayed idle longer than the idle timeout
func (wp *WorkerPool) reap() {
	defer wp.wg.Done()
	ticker := time.NewTicker(wp.idleTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-wp.stopCh:
			return
		case <-ticker.C:
			now := time.Now()
			for _, s := range wp.shards {
				s.mu.Lock()
				// idle workers are appended in lastUsed order
				cut := 0
				for cut < len(s.idle) && now.Sub(s.idle[cut].lastUsed) >= wp.idleTimeout {
					close(s.idle[cut].tasks)
					cut++
				}
				if cut > 0 {
					remaining := copy(s.idle, s.idle[cut:])
					for i := remaining; i < len(s.idle); i++ {
						s.idle[i] = nil
					}
					s.idle = s.idle[:remaining]
				}
				s.mu.Unlock()
			}
		}
	}
}
