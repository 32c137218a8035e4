/*
	Copyright NetFoundry Inc.

	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at

	https://www.apache.org/licenses/LICENSE-2.0

	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

package shield

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_readyGate(t *testing.T) {
	t.Run("deferred work waits for the transition and runs in order", func(t *testing.T) {
		req := require.New(t)
		gate := newReadyGate(nil)

		var order []int
		for i := 0; i < 3; i++ {
			n := i
			gate.Defer(func() { order = append(order, n) })
		}

		req.Empty(order)
		req.Equal(3, gate.Pending())
		req.False(gate.IsReady())

		req.True(gate.open())
		req.Equal([]int{0, 1, 2}, order)
		req.Equal(0, gate.Pending())
		req.True(gate.IsReady())
		req.False(gate.ReadyAt().IsZero())
	})

	t.Run("only the first open has an effect", func(t *testing.T) {
		req := require.New(t)
		readyCalls := 0
		gate := newReadyGate(func() { readyCalls++ })

		runs := 0
		gate.Defer(func() { runs++ })

		req.True(gate.open())
		req.False(gate.open())
		req.Equal(1, readyCalls)
		req.Equal(1, runs)
	})

	t.Run("the ready channel closes at the transition", func(t *testing.T) {
		req := require.New(t)
		gate := newReadyGate(nil)

		select {
		case <-gate.Ready():
			req.FailNow("gate ready too early")
		default:
		}

		gate.open()

		select {
		case <-gate.Ready():
		case <-time.After(time.Second):
			req.FailNow("ready channel not closed")
		}
	})

	t.Run("work deferred while draining runs after the queued work", func(t *testing.T) {
		req := require.New(t)
		gate := newReadyGate(nil)

		var order []string
		gate.Defer(func() {
			order = append(order, "first")
			gate.Defer(func() { order = append(order, "nested") })
		})
		gate.Defer(func() { order = append(order, "second") })

		gate.open()
		req.Equal([]string{"first", "second", "nested"}, order)

		gate.Defer(func() { order = append(order, "after") })
		req.Equal([]string{"first", "second", "nested", "after"}, order)
	})

	t.Run("concurrent defers and open run everything exactly once", func(t *testing.T) {
		req := require.New(t)
		gate := newReadyGate(nil)

		var lock sync.Mutex
		counts := map[int]int{}

		wg := sync.WaitGroup{}
		for i := 0; i < 100; i++ {
			wg.Add(1)
			n := i
			go func() {
				defer wg.Done()
				gate.Defer(func() {
					lock.Lock()
					counts[n]++
					lock.Unlock()
				})
			}()
			if i == 50 {
				go gate.open()
			}
		}
		wg.Wait()
		gate.open()

		req.Eventually(func() bool {
			lock.Lock()
			defer lock.Unlock()
			return len(counts) == 100
		}, time.Second, 5*time.Millisecond)

		lock.Lock()
		defer lock.Unlock()
		for n, count := range counts {
			req.Equal(1, count, "operation %d", n)
		}
	})
}
