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

package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestMpsc(t *testing.T) {
	t.Run("With Push/Pop", func(t *testing.T) {
		q := NewMpsc[int]()
		require.True(t, q.IsEmpty())
		for j := 0; j < 100; j++ {
			require.Zero(t, q.Len())
			_, ok := q.Pop()
			require.False(t, ok)

			for i := 0; i < j; i++ {
				q.Push(i)
			}
			for i := 0; i < j; i++ {
				x, ok := q.Pop()
				require.True(t, ok)
				require.Equal(t, i, x)
			}
		}

		a, r := 0, 0
		for j := 0; j < 100; j++ {
			for i := 0; i < 4; i++ {
				q.Push(a)
				a++
			}
			for i := 0; i < 2; i++ {
				x, ok := q.Pop()
				require.True(t, ok)
				require.Equal(t, r, x)
				r++
			}
		}
		assert.EqualValues(t, 200, q.Len())
		assert.False(t, q.IsEmpty())
	})
	t.Run("With concurrent producers", func(t *testing.T) {
		const producers = 8
		const perProducer = 500
		q := NewMpsc[[2]int]()

		var wg sync.WaitGroup
		for p := 0; p < producers; p++ {
			wg.Add(1)
			go func(p int) {
				defer wg.Done()
				for i := 0; i < perProducer; i++ {
					q.Push([2]int{p, i})
				}
			}(p)
		}
		wg.Wait()

		// per producer order is preserved
		last := make([]int, producers)
		for i := range last {
			last[i] = -1
		}
		count := 0
		for {
			v, ok := q.Pop()
			if !ok {
				break
			}
			require.Greater(t, v[1], last[v[0]])
			last[v[0]] = v[1]
			count++
		}
		assert.Equal(t, producers*perProducer, count)
		assert.True(t, q.IsEmpty())
	})
}

func TestBlocking(t *testing.T) {
	t.Run("With Push/Pop and resizing", func(t *testing.T) {
		q := NewBlocking[int]()
		for i := 0; i < 100; i++ {
			require.True(t, q.Push(i))
		}
		assert.Equal(t, 100, q.Len())
		for i := 0; i < 100; i++ {
			v, ok := q.Pop()
			require.True(t, ok)
			require.Equal(t, i, v)
		}
		_, ok := q.Pop()
		assert.False(t, ok)
	})
	t.Run("With Wait", func(t *testing.T) {
		q := NewBlocking[string]()
		done := make(chan string, 1)
		go func() {
			v, _ := q.Wait()
			done <- v
		}()
		time.Sleep(10 * time.Millisecond)
		require.True(t, q.Push("hello"))
		select {
		case v := <-done:
			assert.Equal(t, "hello", v)
		case <-time.After(time.Second):
			t.Fatal("waiter was not woken up")
		}
		q.Close()
	})
	t.Run("With Close", func(t *testing.T) {
		q := NewBlocking[int]()
		q.Push(1)
		q.Push(2)

		released := make(chan struct{})
		empty := NewBlocking[int]()
		go func() {
			_, ok := empty.Wait()
			assert.False(t, ok)
			close(released)
		}()

		assert.Equal(t, []int{1, 2}, q.Close())
		assert.True(t, q.IsClosed())
		assert.False(t, q.Push(3))
		assert.Nil(t, q.Close())

		empty.Close()
		select {
		case <-released:
		case <-time.After(time.Second):
			t.Fatal("waiter was not released")
		}
	})
}
