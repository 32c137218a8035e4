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
	"sync/atomic"
	"time"

	"github.com/openziti/metrics"
)

type Metrics interface {
	MarkEventEmitted(name string)
	MarkEventSuppressed()
	MarkEventDropped()
	MarkAttributesDeferred()
	MarkAttributesSent()
	MarkAttributeSendFailure()
	SessionReady(timeToReady time.Duration)

	EventsEmitted() int64
	EventsSuppressed() int64
	EventsDropped() int64
	AttributesSent() int64
}

type metricsImpl struct {
	successEventsMeter     metrics.Meter
	errorEventsMeter       metrics.Meter
	stateEventsMeter       metrics.Meter
	suppressedEventsMeter  metrics.Meter
	droppedEventsMeter     metrics.Meter
	attributesDeferred     metrics.Meter
	attributesSentMeter    metrics.Meter
	attributeFailuresMeter metrics.Meter
	timeToReady            metrics.Timer

	eventsEmitted    int64
	eventsSuppressed int64
	eventsDropped    int64
	attributesSent   int64
}

func (self *metricsImpl) MarkEventEmitted(name string) {
	atomic.AddInt64(&self.eventsEmitted, 1)
	switch name {
	case EventSuccess:
		self.successEventsMeter.Mark(1)
	case EventError:
		self.errorEventsMeter.Mark(1)
	case EventDeviceResultState:
		self.stateEventsMeter.Mark(1)
	}
}

func (self *metricsImpl) MarkEventSuppressed() {
	atomic.AddInt64(&self.eventsSuppressed, 1)
	self.suppressedEventsMeter.Mark(1)
}

func (self *metricsImpl) MarkEventDropped() {
	atomic.AddInt64(&self.eventsDropped, 1)
	self.droppedEventsMeter.Mark(1)
}

func (self *metricsImpl) MarkAttributesDeferred() {
	self.attributesDeferred.Mark(1)
}

func (self *metricsImpl) MarkAttributesSent() {
	atomic.AddInt64(&self.attributesSent, 1)
	self.attributesSentMeter.Mark(1)
}

func (self *metricsImpl) MarkAttributeSendFailure() {
	self.attributeFailuresMeter.Mark(1)
}

func (self *metricsImpl) SessionReady(timeToReady time.Duration) {
	self.timeToReady.Update(timeToReady)
}

func (self *metricsImpl) EventsEmitted() int64 {
	return atomic.LoadInt64(&self.eventsEmitted)
}

func (self *metricsImpl) EventsSuppressed() int64 {
	return atomic.LoadInt64(&self.eventsSuppressed)
}

func (self *metricsImpl) EventsDropped() int64 {
	return atomic.LoadInt64(&self.eventsDropped)
}

func (self *metricsImpl) AttributesSent() int64 {
	return atomic.LoadInt64(&self.attributesSent)
}

// NewMetrics registers the bridge metrics. pending reports the number of deferred operations waiting on the
// readiness gate.
func NewMetrics(registry metrics.Registry, pending func() int64) Metrics {
	impl := &metricsImpl{
		successEventsMeter:     registry.Meter("shield.events.success"),
		errorEventsMeter:       registry.Meter("shield.events.error"),
		stateEventsMeter:       registry.Meter("shield.events.device_result_state"),
		suppressedEventsMeter:  registry.Meter("shield.events.suppressed"),
		droppedEventsMeter:     registry.Meter("shield.events.dropped"),
		attributesDeferred:     registry.Meter("shield.attributes.deferred"),
		attributesSentMeter:    registry.Meter("shield.attributes.sent"),
		attributeFailuresMeter: registry.Meter("shield.attributes.failures"),
		timeToReady:            registry.Timer("shield.session.time_to_ready"),
	}

	registry.FuncGauge("shield.events.emitted", func() int64 {
		return atomic.LoadInt64(&impl.eventsEmitted)
	})

	registry.FuncGauge("shield.attributes.pending", pending)

	return impl
}
