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
	"github.com/openziti/metrics"
	"github.com/openziti/shield-sdk-golang/shield/sdk"
)

// HostContextProvider supplies the UI context new SDK instances attach to. Returning nil means no context
// is currently available and initialization is skipped.
type HostContextProvider interface {
	CurrentHostContext() sdk.HostContext
}

// HostContextProviderFunc is a function adapter that implements HostContextProvider.
type HostContextProviderFunc func() sdk.HostContext

func (f HostContextProviderFunc) CurrentHostContext() sdk.HostContext {
	return f()
}

// ProcessHostContext is the host context used by headless hosts: the process itself.
var ProcessHostContext = HostContextProviderFunc(func() sdk.HostContext {
	return sdk.HostContextName("process")
})

type Options struct {
	HostContext HostContextProvider

	// Dispatcher runs event emission and deferred SDK calls. Defaults to running them inline.
	Dispatcher Dispatcher

	// Factory is shared by every bridge that must observe the same session. A bridge without one gets a
	// private factory.
	Factory *SessionFactory

	MetricsRegistry metrics.Registry

	// OnSessionReady is invoked once, on the SDK's goroutine, when the session passes the readiness gate.
	OnSessionReady func(session *Session)
}

var DefaultOptions = &Options{
	HostContext: ProcessHostContext,
	Dispatcher:  DirectDispatcher{},
}

func (self *Options) hostContext() sdk.HostContext {
	if self.HostContext == nil {
		return nil
	}
	return self.HostContext.CurrentHostContext()
}
