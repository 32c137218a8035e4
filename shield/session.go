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
	"time"

	"github.com/openziti/foundation/v2/concurrenz"
	"github.com/openziti/shield-sdk-golang/shield/sdk"
)

// Session is the single SDK instance owned by a bridge, together with its readiness gate.
type Session struct {
	handle    sdk.Instance
	host      string
	createdAt time.Time
	gate      *readyGate
}

func newSession(handle sdk.Instance, host sdk.HostContext, onReady func(*Session)) *Session {
	session := &Session{
		handle:    handle,
		createdAt: time.Now(),
	}

	if host != nil {
		session.host = host.Name()
	}

	session.gate = newReadyGate(func() {
		if onReady != nil {
			onReady(session)
		}
	})

	return session
}

// attach registers the readiness listener and then checks whether the SDK already became ready, so a
// transition that happened before registration is not missed.
func (s *Session) attach() {
	s.handle.SetDeviceResultStateListener(func() {
		s.gate.open()
	})

	if s.handle.IsReady() {
		s.gate.open()
	}
}

func (s *Session) Handle() sdk.Instance {
	return s.handle
}

func (s *Session) Id() string {
	return s.handle.SessionId()
}

func (s *Session) Host() string {
	return s.host
}

func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

func (s *Session) IsReady() bool {
	return s.gate.IsReady()
}

// Ready returns a channel that is closed once the session passes the readiness gate.
func (s *Session) Ready() <-chan struct{} {
	return s.gate.Ready()
}

// SessionFactory enforces single construction of a Session. Hosts that require one session per process
// create one factory at startup and hand it to every bridge through Options.Factory.
type SessionFactory struct {
	createLock sync.Mutex
	session    concurrenz.AtomicValue[*Session]
}

func NewSessionFactory() *SessionFactory {
	return &SessionFactory{}
}

// Session returns the session, or nil before one was created.
func (f *SessionFactory) Session() *Session {
	return f.session.Load()
}

// create runs build unless a session already exists, and publishes the result. created is true only for the
// call that stored the session built by build; that caller must attach the session after create returns.
func (f *SessionFactory) create(build func() (*Session, error)) (session *Session, created bool, err error) {
	f.createLock.Lock()
	defer f.createLock.Unlock()

	if existing := f.session.Load(); existing != nil {
		return existing, false, nil
	}

	session, err = build()
	if err != nil || session == nil {
		return nil, false, err
	}

	f.session.Store(session)
	return session, true, nil
}
