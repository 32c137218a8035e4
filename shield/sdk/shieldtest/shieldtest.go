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

// Package shieldtest provides a scriptable sdk.Capability for tests. Readiness, results and failures are
// delivered only when the test fires them.
package shieldtest

import (
	"fmt"
	"sync"

	"github.com/openziti/shield-sdk-golang/shield/sdk"
)

var _ sdk.Capability = (*Capability)(nil)
var _ sdk.Instance = (*Instance)(nil)

// Capability records every instance it builds.
type Capability struct {
	mu        sync.Mutex
	instances []*Instance
	hosts     []sdk.HostContext

	// BuildErr, when set, is returned by NewInstance instead of building.
	BuildErr error

	// BuildPanic, when set, is raised by NewInstance.
	BuildPanic interface{}

	// ReadyOnBuild builds instances that are ready before any listener can be attached.
	ReadyOnBuild bool
}

func NewCapability() *Capability {
	return &Capability{}
}

func (c *Capability) NewInstance(host sdk.HostContext, cfg *sdk.Config) (sdk.Instance, error) {
	if c.BuildPanic != nil {
		panic(c.BuildPanic)
	}

	if c.BuildErr != nil {
		return nil, c.BuildErr
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	instance := &Instance{
		cfg:       cfg,
		sessionId: fmt.Sprintf("test-session-%d", len(c.instances)+1),
		ready:     c.ReadyOnBuild,
		tagName:   cfg.CrossPlatformName,
		tagVer:    cfg.CrossPlatformVersion,
	}
	c.instances = append(c.instances, instance)
	c.hosts = append(c.hosts, host)

	return instance, nil
}

// Builds returns how many instances were built.
func (c *Capability) Builds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.instances)
}

// Last returns the most recently built instance or nil.
func (c *Capability) Last() *Instance {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.instances) == 0 {
		return nil
	}
	return c.instances[len(c.instances)-1]
}

// LastHost returns the host context the most recent instance was attached to.
func (c *Capability) LastHost() sdk.HostContext {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.hosts) == 0 {
		return nil
	}
	return c.hosts[len(c.hosts)-1]
}

// SentAttributes is one SendAttributes call observed by an Instance.
type SentAttributes struct {
	ScreenName string
	Attrs      map[string]string
}

type Instance struct {
	mu        sync.Mutex
	cfg       *sdk.Config
	sessionId string
	ready     bool
	listener  sdk.ReadyListener
	result    sdk.DeviceResult
	err       error
	sent      []SentAttributes
	sendErr   error
	tagName   string
	tagVer    string
	listeners int
}

func (i *Instance) Config() *sdk.Config {
	return i.cfg
}

func (i *Instance) SessionId() string {
	return i.sessionId
}

func (i *Instance) SendAttributes(screenName string, attrs map[string]string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.sendErr != nil {
		return i.sendErr
	}

	i.sent = append(i.sent, SentAttributes{ScreenName: screenName, Attrs: attrs})
	return nil
}

// FailSends makes every following SendAttributes call return err.
func (i *Instance) FailSends(err error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.sendErr = err
}

// Sent returns a copy of the attribute sends observed so far.
func (i *Instance) Sent() []SentAttributes {
	i.mu.Lock()
	defer i.mu.Unlock()

	result := make([]SentAttributes, len(i.sent))
	copy(result, i.sent)
	return result
}

func (i *Instance) LatestDeviceResult() sdk.DeviceResult {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.result
}

func (i *Instance) ResponseError() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.err
}

func (i *Instance) SetDeviceResultStateListener(listener sdk.ReadyListener) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.listener = listener
	i.listeners++
}

// ListenerRegistrations returns how many times a readiness listener was set.
func (i *Instance) ListenerRegistrations() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.listeners
}

func (i *Instance) IsReady() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.ready
}

func (i *Instance) SetCrossPlatformParameters(name, version string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.tagName = name
	i.tagVer = version
}

// CrossPlatformParameters returns the most recent cross-platform name and version.
func (i *Instance) CrossPlatformParameters() (string, string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.tagName, i.tagVer
}

// FireReady marks the instance ready and notifies the current listener, if any.
func (i *Instance) FireReady() {
	i.mu.Lock()
	i.ready = true
	listener := i.listener
	i.mu.Unlock()

	if listener != nil {
		listener()
	}
}

// SetResult stores a result without notifying the callback.
func (i *Instance) SetResult(result sdk.DeviceResult) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.result = result
}

// SetError stores an error without notifying the callback.
func (i *Instance) SetError(err error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.err = err
}

// FireSuccess stores result and delivers it to the registered callback.
func (i *Instance) FireSuccess(result sdk.DeviceResult) {
	i.SetResult(result)
	if i.cfg.Callback != nil {
		i.cfg.Callback.OnSuccess(result)
	}
}

// FireFailure stores err and delivers it to the registered callback.
func (i *Instance) FireFailure(err error) {
	i.SetError(err)
	if i.cfg.Callback != nil {
		i.cfg.Callback.OnFailure(err)
	}
}
