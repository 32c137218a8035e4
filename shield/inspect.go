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
	"sort"

	"github.com/openziti/shield-sdk-golang/inspect"
)

func (self *BridgeImpl) Inspect() *inspect.BridgeInspectResult {
	name, version := self.crossPlatformTag()

	result := &inspect.BridgeInspectResult{
		Initialized: self.IsInitialized(),
		CrossPlatform: &inspect.CrossPlatformTag{
			Name:    name,
			Version: version,
		},
		Events: &inspect.EventInspectDetail{
			Emitted:        self.metrics.EventsEmitted(),
			Suppressed:     self.metrics.EventsSuppressed(),
			Dropped:        self.metrics.EventsDropped(),
			AttributesSent: self.metrics.AttributesSent(),
			Subscribers:    self.subscriptions.Count(),
		},
	}

	for _, eventName := range self.EventNames() {
		if self.ListenerCount(eventName) > 0 {
			result.Events.Listeners = append(result.Events.Listeners, string(eventName))
		}
	}
	sort.Strings(result.Events.Listeners)

	session := self.factory.Session()
	if session == nil {
		return result
	}

	detail := &inspect.SessionInspectDetail{
		SessionId:  session.Id(),
		Host:       session.Host(),
		CreatedAt:  session.CreatedAt(),
		Ready:      session.IsReady(),
		PendingOps: session.gate.Pending(),
	}

	if detail.Ready {
		readyAt := session.gate.ReadyAt()
		detail.ReadyAt = &readyAt
	}

	if latest := session.handle.LatestDeviceResult(); latest != nil && latest.Data() != nil {
		detail.HasResult = true
	}

	if err := session.handle.ResponseError(); err != nil {
		detail.LastError = errorMessage(err)
	}

	result.Session = detail
	return result
}
