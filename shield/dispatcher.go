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
	"fmt"
	"runtime/debug"
	"time"

	"github.com/michaelquigley/pfxlog"
	"github.com/openziti/foundation/v2/goroutines"
	"github.com/sirupsen/logrus"
)

// Dispatcher runs work on the host's main execution context. Event emission and deferred SDK calls go
// through it so listeners always observe them on the same context.
type Dispatcher interface {
	Dispatch(f func())
}

// DirectDispatcher runs work inline on the calling goroutine.
type DirectDispatcher struct{}

func (DirectDispatcher) Dispatch(f func()) {
	f()
}

// MainLoop runs work on a single worker goroutine, in submission order.
type MainLoop struct {
	pool goroutines.Pool
}

func NewMainLoop(closeNotify <-chan struct{}) *MainLoop {
	return NewMainLoopWithQueueSize(256, closeNotify)
}

func NewMainLoopWithQueueSize(queueSize uint32, closeNotify <-chan struct{}) *MainLoop {
	if queueSize < 1 {
		queueSize = 1
	}

	poolConfig := goroutines.PoolConfig{
		QueueSize:      queueSize,
		MinWorkers:     1,
		MaxWorkers:     1,
		IdleTime:       30 * time.Second,
		CloseNotify:    closeNotify,
		PanicHandler:   logMainLoopPanic,
		WorkerFunction: mainLoopWorker,
	}

	pool, err := goroutines.NewPool(poolConfig)
	if err != nil {
		panic(fmt.Errorf("error creating shield main loop pool (%w)", err))
	}

	return &MainLoop{
		pool: pool,
	}
}

func logMainLoopPanic(err interface{}) {
	pfxlog.Logger().WithField(logrus.ErrorKey, err).WithField("backtrace", string(debug.Stack())).Error("panic on shield main loop")
}

// mainLoopWorker keeps a failing listener from taking the worker down with it.
func mainLoopWorker(_ uint32, f func()) {
	defer func() {
		if r := recover(); r != nil {
			logMainLoopPanic(r)
		}
	}()
	f()
}

// Dispatch queues f, blocking while the queue is full. Work submitted after the loop was closed is dropped.
func (self *MainLoop) Dispatch(f func()) {
	if err := self.pool.Queue(f); err != nil {
		pfxlog.Logger().WithError(err).Warn("shield main loop closed, dropping work")
	}
}
