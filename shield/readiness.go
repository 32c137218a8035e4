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
	"runtime/debug"
	"sync"
	"time"

	"github.com/emirpasic/gods/queues/linkedlistqueue"
	"github.com/michaelquigley/pfxlog"
	"github.com/sirupsen/logrus"
)

// readyGate is a one way NotReady -> Ready latch. Work deferred before the transition is queued and run
// exactly once, in the order it was deferred, by whoever triggers the transition.
type readyGate struct {
	mu       sync.Mutex
	ready    bool
	draining bool
	pending  *linkedlistqueue.Queue
	readyC   chan struct{}
	readyAt  time.Time
	onReady  func()
}

func newReadyGate(onReady func()) *readyGate {
	return &readyGate{
		pending: linkedlistqueue.New(),
		readyC:  make(chan struct{}),
		onReady: onReady,
	}
}

// Ready returns a channel closed at the transition.
func (g *readyGate) Ready() <-chan struct{} {
	return g.readyC
}

func (g *readyGate) IsReady() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ready
}

func (g *readyGate) ReadyAt() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.readyAt
}

// Pending returns the number of deferred operations not yet run.
func (g *readyGate) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending.Size()
}

// Defer runs op now if the gate is open and nothing queued is still waiting to run, otherwise queues it.
func (g *readyGate) Defer(op func()) {
	g.mu.Lock()
	if !g.ready || g.draining {
		g.pending.Enqueue(op)
		g.mu.Unlock()
		return
	}
	g.mu.Unlock()

	op()
}

// open performs the transition. Only the first call has any effect; it returns true.
func (g *readyGate) open() bool {
	g.mu.Lock()
	if g.ready {
		g.mu.Unlock()
		return false
	}
	g.ready = true
	g.draining = true
	g.readyAt = time.Now()
	close(g.readyC)
	g.mu.Unlock()

	if g.onReady != nil {
		runDeferred(g.onReady)
	}

	for {
		g.mu.Lock()
		next, ok := g.pending.Dequeue()
		if !ok {
			g.draining = false
			g.mu.Unlock()
			return true
		}
		g.mu.Unlock()

		runDeferred(next.(func()))
	}
}

// runDeferred runs a drained operation. A panic is logged and the drain moves on to the next operation.
func runDeferred(op func()) {
	defer func() {
		if r := recover(); r != nil {
			pfxlog.Logger().WithField(logrus.ErrorKey, r).WithField("backtrace", string(debug.Stack())).
				Error("panic in deferred shield operation")
		}
	}()
	op()
}
