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
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/kataras/go-events"
	"github.com/michaelquigley/pfxlog"
	"github.com/openziti/shield-sdk-golang/shield/sdk"
	"github.com/pkg/errors"
)

const (
	// EventSuccess carries the serialized device result.
	EventSuccess = "success"

	// EventError carries the SDK error message.
	EventError = "error"

	// EventDeviceResultState carries a DeviceResultState when a ready listener fires.
	EventDeviceResultState = "device_result_state"

	StatusSDKReady = "isSDKReady"
)

type DeviceResultState struct {
	Status string `json:"status"`
}

// Event is a success or error event as delivered to subscribers.
type Event struct {
	Name    string
	Payload string
}

// Callbacks are the wrapper level listeners registered by InitializeWithCallbacks.
type Callbacks struct {
	OnSuccess func(result string)
	OnFailure func(message string)
}

// PayloadString returns the first listener argument as a string, or "" if there is none.
func PayloadString(payload ...interface{}) string {
	if len(payload) == 0 {
		return ""
	}
	s, _ := payload[0].(string)
	return s
}

// errorMessage prefers the SDK's localized message over the error text.
func errorMessage(err error) string {
	var sdkErr *sdk.Error
	if errors.As(err, &sdkErr) {
		return sdkErr.LocalizedMessage()
	}
	return err.Error()
}

// callbackAdapter turns SDK callbacks into bridge events. Empty outcomes are dropped.
type callbackAdapter struct {
	bridge *BridgeImpl
}

func (self *callbackAdapter) OnSuccess(result sdk.DeviceResult) {
	if sdk.IsEmptyResult(result) {
		pfxlog.Logger().Debug("sdk reported success without a result, not emitting")
		self.bridge.metrics.MarkEventSuppressed()
		return
	}

	self.bridge.emit(EventSuccess, result.String())
}

func (self *callbackAdapter) OnFailure(err error) {
	if err == nil {
		pfxlog.Logger().Debug("sdk reported failure without an error, not emitting")
		self.bridge.metrics.MarkEventSuppressed()
		return
	}

	msg := errorMessage(err)
	if msg == "" {
		pfxlog.Logger().Debug("sdk reported failure with an empty message, not emitting")
		self.bridge.metrics.MarkEventSuppressed()
		return
	}

	self.bridge.emit(EventError, msg)
}

// SubscriptionBufferSize is how many undelivered events a subscriber may fall behind before events are
// dropped for it.
const SubscriptionBufferSize = 16

type subscription struct {
	mu     sync.Mutex
	closed bool
	ch     chan Event
}

// deliver never blocks. It returns false when the event was dropped because the subscriber's buffer is full.
func (s *subscription) deliver(evt Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return true
	}

	select {
	case s.ch <- evt:
		return true
	default:
		return false
	}
}

func (s *subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// Subscribe streams success and error events until ctx is done, then closes the channel. Events that arrive
// while SubscriptionBufferSize events are already waiting are dropped for that subscriber.
func (self *BridgeImpl) Subscribe(ctx context.Context) <-chan Event {
	sub := &subscription{
		ch: make(chan Event, SubscriptionBufferSize),
	}

	id := uuid.NewString()
	self.subscriptions.Set(id, sub)

	go func() {
		<-ctx.Done()
		self.subscriptions.Remove(id)
		sub.close()
	}()

	return sub.ch
}

func (self *BridgeImpl) emit(name string, payload string) {
	self.dispatcher.Dispatch(func() {
		self.EventEmmiter.Emit(events.EventName(name), payload)
		self.metrics.MarkEventEmitted(name)

		for id, sub := range self.subscriptions.Items() {
			if !sub.deliver(Event{Name: name, Payload: payload}) {
				self.metrics.MarkEventDropped()
				pfxlog.Logger().WithField("subscription", id).Debugf("subscriber is not keeping up, dropped %s event", name)
			}
		}
	})
}
