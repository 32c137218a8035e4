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

// Package sdk describes the fraud detection SDK capability the shield bridge configures and listens to.
// Fingerprinting, scoring and transport all happen behind these interfaces; the bridge only builds
// configuration, gates calls on readiness and relays results.
package sdk

import (
	"github.com/Jeffail/gabs"
)

// DeviceResult is the structured payload the SDK produces once fingerprinting completes. It is opaque to the
// bridge, which only serializes and forwards it.
type DeviceResult = *gabs.Container

// IsEmptyResult reports whether a result carries nothing worth reporting: nil, JSON null or an empty object.
func IsEmptyResult(result DeviceResult) bool {
	if result == nil || result.Data() == nil {
		return true
	}

	if obj, ok := result.Data().(map[string]interface{}); ok && len(obj) == 0 {
		return true
	}

	return false
}

// HostContext is the host UI context an Instance attaches to, for example the foreground activity or window.
type HostContext interface {
	Name() string
}

// HostContextName is a HostContext identified only by name.
type HostContextName string

func (n HostContextName) Name() string {
	return string(n)
}

// Capability builds SDK instances. An instance starts its fingerprinting pass asynchronously as soon as it
// is built.
type Capability interface {
	NewInstance(host HostContext, cfg *Config) (Instance, error)
}

// CapabilityFunc is a function adapter that implements Capability.
type CapabilityFunc func(host HostContext, cfg *Config) (Instance, error)

func (f CapabilityFunc) NewInstance(host HostContext, cfg *Config) (Instance, error) {
	return f(host, cfg)
}

// ReadyListener is notified once the SDK has gathered enough state for attributes and results to be
// meaningful.
type ReadyListener func()

// Instance is a live SDK session.
type Instance interface {
	SessionId() string
	SendAttributes(screenName string, attrs map[string]string) error

	// LatestDeviceResult returns the most recent result or nil while none is available.
	LatestDeviceResult() DeviceResult

	// ResponseError returns the last error reported by the SDK, or nil.
	ResponseError() error

	// SetDeviceResultStateListener replaces the readiness listener. Only one listener is held at a time. A
	// listener set after the instance became ready is not called.
	SetDeviceResultStateListener(listener ReadyListener)
	IsReady() bool

	SetCrossPlatformParameters(name, version string)
}

// Callback receives fingerprinting outcomes. Either method may be called at any time after the instance is
// built, from any goroutine.
type Callback interface {
	OnSuccess(result DeviceResult)
	OnFailure(err error)
}
